package toggle

import (
	"context"
	"sync"

	"proxydesk/internal/guard"
	"proxydesk/internal/logger"
	"proxydesk/pkg/domain"
)

// GuardKey 开关操作的重入保护键
const GuardKey = "toggle-proxy"

// ConfigStore 代理配置的持久化存取
type ConfigStore interface {
	// Get 读取配置快照
	Get(ctx context.Context) (domain.ProxyConfig, error)

	// Patch 一次性写入两个接管开关
	Patch(ctx context.Context, patch domain.ProxyPatch) error
}

// CapabilityQuerier 系统权限能力查询
type CapabilityQuerier interface {
	Query(ctx context.Context) domain.SystemCapability
}

// Notifier 用户可见的操作结果通知
type Notifier interface {
	Notify(n domain.Notice)
}

// Options 控制器依赖
type Options struct {
	Store    ConfigStore
	Caps     CapabilityQuerier
	Guard    *guard.Guard
	Notifier Notifier
	Logger   logger.Logger
	// OnChange 状态或快照变化时回调，驱动界面刷新
	OnChange func()
}

// Controller 代理开关控制器。
// 在 TUN 模式与系统代理两种互斥的接管策略间切换，写入前校验
// 权限前置条件，写入后回读存储的真实状态。
type Controller struct {
	mu       sync.RWMutex
	cfg      domain.ProxyConfig
	toggling bool

	store    ConfigStore
	caps     CapabilityQuerier
	guard    *guard.Guard
	notifier Notifier
	log      logger.Logger
	onChange func()
}

// New 创建代理开关控制器
func New(opts Options) *Controller {
	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}
	g := opts.Guard
	if g == nil {
		g = guard.New()
	}
	return &Controller{
		store:    opts.Store,
		caps:     opts.Caps,
		guard:    g,
		notifier: opts.Notifier,
		log:      l,
		onChange: opts.OnChange,
	}
}

// Refresh 从存储回读配置快照
func (c *Controller) Refresh(ctx context.Context) error {
	cfg, err := c.store.Get(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()

	c.notifyChange()
	return nil
}

// Snapshot 返回当前配置快照
func (c *Controller) Snapshot() domain.ProxyConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Enabled 任一接管策略生效即视为已连接
func (c *Controller) Enabled() bool {
	return c.Snapshot().Enabled()
}

// State 返回开关的瞬态状态
func (c *Controller) State() domain.ToggleState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.toggling {
		return domain.ToggleToggling
	}
	return domain.ToggleIdle
}

// ShowTunAlert 偏好策略为 TUN 且当前权限不满足时，界面应禁用
// 开关并提示授权入口
func (c *Controller) ShowTunAlert(ctx context.Context) bool {
	return c.primaryAction() == domain.ModeTun && !c.caps.Query(ctx).TunAvailable()
}

// Toggle 切换代理连接状态。执行期间的重复调用被整体丢弃，
// 返回 false 表示本次调用被丢弃。
func (c *Controller) Toggle(ctx context.Context) bool {
	return c.guard.Do(GuardKey, func() {
		c.doToggle(ctx)
	})
}

// doToggle 单次开关流程，进出 toggling 状态由 defer 兜底
func (c *Controller) doToggle(ctx context.Context) {
	c.setToggling(true)
	defer c.setToggling(false)

	cfg := c.Snapshot()

	var patch domain.ProxyPatch
	if !cfg.Enabled() {
		mode := cfg.PrimaryAction
		if mode == "" {
			mode = domain.ModeTun
		}

		if mode == domain.ModeTun {
			// 上游即使已禁用开关，这里仍在调用时重新校验，防止界面过期
			if !c.caps.Query(ctx).TunAvailable() {
				c.log.Warn("TUN 模式权限不足，取消开启")
				c.notify(domain.NoticeError, domain.ErrTunUnavailable.Error())
				return
			}
			patch = domain.ProxyPatch{EnableTunMode: true, EnableSystemProxy: false}
		} else {
			patch = domain.ProxyPatch{EnableSystemProxy: true, EnableTunMode: false}
		}
	} else {
		patch = domain.ProxyPatch{EnableSystemProxy: false, EnableTunMode: false}
	}

	if err := c.store.Patch(ctx, patch); err != nil {
		c.log.Err(err, "代理开关写入失败")
		c.notify(domain.NoticeError, err.Error())
		// 写入失败后同样回读真实状态，与档案切换失败的处理保持对称
		if rerr := c.Refresh(ctx); rerr != nil {
			c.log.Err(rerr, "写入失败后的状态回读失败")
		}
		return
	}

	if err := c.Refresh(ctx); err != nil {
		c.log.Err(err, "开关成功后的状态回读失败")
	}

	if c.Enabled() {
		c.notify(domain.NoticeSuccess, "Proxy enabled")
	} else {
		c.notify(domain.NoticeSuccess, "Proxy disabled")
	}
}

// primaryAction 读取偏好策略，未设置时默认 TUN
func (c *Controller) primaryAction() domain.ProxyMode {
	mode := c.Snapshot().PrimaryAction
	if mode == "" {
		mode = domain.ModeTun
	}
	return mode
}

// setToggling 更新瞬态状态并通知外层
func (c *Controller) setToggling(v bool) {
	c.mu.Lock()
	c.toggling = v
	c.mu.Unlock()
	c.notifyChange()
}

func (c *Controller) notify(level domain.NoticeLevel, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(domain.Notice{Level: level, Message: msg})
	}
}

func (c *Controller) notifyChange() {
	if c.onChange != nil {
		c.onChange()
	}
}
