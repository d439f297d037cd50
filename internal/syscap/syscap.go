package syscap

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"time"

	"proxydesk/internal/logger"
	"proxydesk/pkg/domain"
)

// Prober 系统权限能力探测器。
// 管理员身份通过进程有效 UID 判断，服务模式通过后台服务的
// 健康检查接口探测。
type Prober struct {
	probeURL string
	httpc    *http.Client
	log      logger.Logger
}

// New 创建能力探测器
func New(probeURL string, l logger.Logger) *Prober {
	if l == nil {
		l = logger.Nop()
	}
	return &Prober{
		probeURL: probeURL,
		httpc:    &http.Client{Timeout: 500 * time.Millisecond},
		log:      l,
	}
}

// Query 查询当前系统能力
func (p *Prober) Query(ctx context.Context) domain.SystemCapability {
	cap := domain.SystemCapability{
		AdminMode:   os.Geteuid() == 0,
		ServiceMode: p.probeService(ctx),
	}
	p.log.Debug("系统能力探测", "adminMode", cap.AdminMode, "serviceMode", cap.ServiceMode)
	return cap
}

// RequestServiceInstallation 触发带外的后台服务安装流程。
// 安装器自行负责权限提升，本应用不解读其结果，安装完成与否
// 体现在下一次能力探测里。
func (p *Prober) RequestServiceInstallation(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "proxydesk-service", "install")
	if err := cmd.Start(); err != nil {
		p.log.Err(err, "启动服务安装器失败")
		return err
	}

	// 不等待安装器退出，释放进程句柄即可
	go func() { _ = cmd.Wait() }()

	p.log.Info("已触发后台服务安装")
	return nil
}

// probeService 探测后台服务是否存活
func (p *Prober) probeService(ctx context.Context) bool {
	if p.probeURL == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.probeURL, nil)
	if err != nil {
		return false
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode/100 == 2
}
