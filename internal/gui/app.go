package gui

import (
	"context"

	"proxydesk/internal/activation"
	"proxydesk/internal/config"
	"proxydesk/internal/guard"
	"proxydesk/internal/kernel"
	"proxydesk/internal/logger"
	"proxydesk/internal/stabilizer"
	"proxydesk/internal/status"
	"proxydesk/internal/storage/db"
	"proxydesk/internal/storage/model"
	"proxydesk/internal/storage/repo"
	"proxydesk/internal/syscap"
	"proxydesk/internal/toggle"
	"proxydesk/pkg/api"
	"proxydesk/pkg/domain"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"gorm.io/gorm"
)

// App 连接首页的后端门面，负责状态协调并供前端调用。
type App struct {
	ctx context.Context
	cfg *config.Config
	log logger.Logger

	gdb          *gorm.DB
	settingsRepo *repo.SettingsRepo
	profileRepo  *repo.ProfileRepo
	proxyRepo    *repo.ProxyStateRepo

	core   *kernel.Client
	prober *syscap.Prober

	controller *toggle.Controller
	pipeline   *activation.Pipeline
	stab       *stabilizer.Stabilizer
}

// NewApp 创建并返回一个新的 App 实例。
func NewApp() *App {
	cfg := config.NewConfig()
	return &App{
		cfg: cfg,
		log: logger.New(cfg),
	}
}

// Startup 初始化数据库、仓库和状态协调组件。
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Info("应用启动")

	gdb, err := db.New(db.Options{
		Name:   a.cfg.Sqlite.Db,
		Prefix: a.cfg.Sqlite.Prefix,
		Logger: db.NewLogger(a.log),
	})
	if err != nil {
		a.log.Err(err, "数据库初始化失败")
		return
	}

	err = db.Migrate(gdb,
		&model.Setting{},
		&model.Profile{},
		&model.ProxyState{},
	)
	if err != nil {
		a.log.Err(err, "数据库迁移失败")
		return
	}

	a.gdb = gdb
	a.settingsRepo = repo.NewSettingsRepo(gdb)
	a.profileRepo = repo.NewProfileRepo(gdb)
	a.proxyRepo = repo.NewProxyStateRepo(gdb)

	defaults := config.GetDefaultSettings()
	if err := a.proxyRepo.EnsureRow(ctx, domain.ProxyMode(defaults.PrimaryAction)); err != nil {
		a.log.Err(err, "代理配置初始化失败")
	}

	a.core = kernel.NewClient(a.cfg.Core.ControllerURL, a.cfg.Core.Secret, a.log)
	a.prober = syscap.New(a.cfg.Service.ProbeURL, a.log)

	// 两类动作共享同一个保护器，键互不影响
	g := guard.New()
	notifier := &eventNotifier{app: a}

	a.stab = stabilizer.New(false, func(visible bool) {
		runtime.EventsEmit(a.ctx, "traffic-visible", TrafficVisibleData{Visible: visible})
	})

	a.controller = toggle.New(toggle.Options{
		Store:    a.proxyRepo,
		Caps:     a.prober,
		Guard:    g,
		Notifier: notifier,
		Logger:   a.log,
		OnChange: a.pushStatus,
	})

	a.pipeline = activation.New(activation.Options{
		Store:    a.profileRepo,
		Core:     &coreBridge{kernel: a.core, profiles: a.profileRepo},
		Marker:   a.settingsRepo,
		Guard:    g,
		Notifier: notifier,
		Logger:   a.log,
		OnChange: a.pushStatus,
	})

	if err := a.controller.Refresh(ctx); err != nil {
		a.log.Err(err, "代理配置快照加载失败")
	}
	if err := a.pipeline.Refresh(ctx); err != nil {
		a.log.Err(err, "档案集合快照加载失败")
	}

	// 首次加载时消费跨页面传递的待激活标记，内核交互不阻塞启动
	go a.pipeline.ActivatePending(a.ctx)

	a.log.Debug("状态协调组件初始化完成")
}

// Shutdown 负责清理资源。
func (a *App) Shutdown(ctx context.Context) {
	a.log.Info("应用关闭中...")

	if a.stab != nil {
		a.stab.Close()
	}

	if a.gdb != nil {
		if sqlDB, err := a.gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	a.log.Info("应用已关闭")
}

// ready 启动初始化是否完成。控制器在 Startup 的最后一段创建，
// 非空即代表仓库和协作组件全部就绪。
func (a *App) ready() bool {
	return a.controller != nil && a.pipeline != nil
}

// failNotReady 启动失败后所有绑定方法统一返回数据库错误
func failNotReady[T any](a *App) api.Response[T] {
	code, msg := a.translateError(domain.ErrDatabaseNotInitialized)
	return api.Fail[T](code, msg)
}

// GetStatus 获取当前连接状态投影。
func (a *App) GetStatus() api.Response[StatusData] {
	if !a.ready() {
		return failNotReady[StatusData](a)
	}
	return api.OK(a.statusData())
}

// ToggleProxy 切换代理连接状态。执行期间的重复调用被丢弃，
// 丢弃不是错误，最终状态由执行中的那次调用决定。
func (a *App) ToggleProxy() api.Response[ActionData] {
	if !a.ready() {
		return failNotReady[ActionData](a)
	}

	accepted := a.controller.Toggle(a.ctx)
	return api.OK(ActionData{Dropped: !accepted})
}

// GetProxyConfig 获取代理配置及 TUN 授权提示。
func (a *App) GetProxyConfig() api.Response[ProxyConfigData] {
	if !a.ready() {
		return failNotReady[ProxyConfigData](a)
	}

	caps := a.prober.Query(a.ctx)
	return api.OK(ProxyConfigData{
		Config:       a.controller.Snapshot(),
		TunAlert:     a.controller.ShowTunAlert(a.ctx),
		TunAvailable: caps.TunAvailable(),
	})
}

// SetPrimaryAction 设置一键开关偏好的接管策略。
func (a *App) SetPrimaryAction(action string) api.Response[api.EmptyData] {
	if !a.ready() {
		return failNotReady[api.EmptyData](a)
	}

	mode := domain.ProxyMode(action)
	if mode != domain.ModeTun && mode != domain.ModeSystemProxy {
		return api.Fail[api.EmptyData](CodeUnknown, "unknown proxy mode: "+action)
	}

	if err := a.proxyRepo.SetPrimaryAction(a.ctx, mode); err != nil {
		code, msg := a.translateError(err)
		return api.Fail[api.EmptyData](code, msg)
	}

	if err := a.controller.Refresh(a.ctx); err != nil {
		a.log.Err(err, "偏好更新后的快照回读失败")
	}

	a.log.Info("已更新偏好接管策略", "action", action)
	return api.OKEmpty()
}

// ListProfiles 列出可选档案及当前选中项。
func (a *App) ListProfiles() api.Response[ProfileListData] {
	if !a.ready() {
		return failNotReady[ProfileListData](a)
	}

	snap := a.pipeline.Snapshot()
	return api.OK(ProfileListData{Items: snap.Items, Current: snap.Current})
}

// ActivateProfile 切换当前档案并应用到运行内核。
func (a *App) ActivateProfile(uid string) api.Response[ActionData] {
	if !a.ready() {
		return failNotReady[ActionData](a)
	}

	accepted := a.pipeline.Activate(a.ctx, domain.ProfileUID(uid), true)
	return api.OK(ActionData{Dropped: !accepted})
}

// ImportProfile 导入新档案。
func (a *App) ImportProfile(name, profileType, filePath string) api.Response[ProfileData] {
	if !a.ready() {
		return failNotReady[ProfileData](a)
	}

	p, err := a.profileRepo.Import(a.ctx, &model.Profile{
		Name:     name,
		Type:     profileType,
		FilePath: filePath,
	})
	if err != nil {
		code, msg := a.translateError(err)
		return api.Fail[ProfileData](code, msg)
	}

	if err := a.pipeline.Refresh(a.ctx); err != nil {
		a.log.Err(err, "导入后的档案快照回读失败")
	}

	// 导入可能补齐了待激活标记指向的档案
	go a.pipeline.ActivatePending(a.ctx)

	a.log.Info("档案已导入", "uid", p.UID, "name", p.Name)
	return api.OK(ProfileData{Profile: p})
}

// RenameProfile 重命名档案。
func (a *App) RenameProfile(uid, newName string) api.Response[api.EmptyData] {
	if !a.ready() {
		return failNotReady[api.EmptyData](a)
	}

	if err := a.profileRepo.Rename(a.ctx, domain.ProfileUID(uid), newName); err != nil {
		code, msg := a.translateError(err)
		return api.Fail[api.EmptyData](code, msg)
	}

	if err := a.pipeline.Refresh(a.ctx); err != nil {
		a.log.Err(err, "重命名后的档案快照回读失败")
	}
	return api.OKEmpty()
}

// DeleteProfile 删除档案。
func (a *App) DeleteProfile(uid string) api.Response[api.EmptyData] {
	if !a.ready() {
		return failNotReady[api.EmptyData](a)
	}

	if err := a.profileRepo.DeleteByUID(a.ctx, domain.ProfileUID(uid)); err != nil {
		code, msg := a.translateError(err)
		return api.Fail[api.EmptyData](code, msg)
	}

	if err := a.pipeline.Refresh(a.ctx); err != nil {
		a.log.Err(err, "删除后的档案快照回读失败")
	}

	a.log.Info("档案已删除", "uid", uid)
	return api.OKEmpty()
}

// DeferProfileActivation 写入待激活标记，下一次首页加载时消费。
func (a *App) DeferProfileActivation(uid string) api.Response[api.EmptyData] {
	if !a.ready() {
		return failNotReady[api.EmptyData](a)
	}

	if err := a.settingsRepo.SetPendingProfile(a.ctx, uid); err != nil {
		code, msg := a.translateError(err)
		return api.Fail[api.EmptyData](code, msg)
	}
	return api.OKEmpty()
}

// GetSystemCapability 查询系统权限能力。
func (a *App) GetSystemCapability() api.Response[CapabilityData] {
	if !a.ready() {
		return failNotReady[CapabilityData](a)
	}
	return api.OK(CapabilityData{Capability: a.prober.Query(a.ctx)})
}

// InstallService 弹出确认框后触发带外的后台服务安装流程。
func (a *App) InstallService() api.Response[api.EmptyData] {
	if !a.ready() {
		return failNotReady[api.EmptyData](a)
	}

	result, err := runtime.MessageDialog(a.ctx, runtime.MessageDialogOptions{
		Type:          runtime.QuestionDialog,
		Title:         "Install Service",
		Message:       "Installing the background service requires administrator privileges. Continue?",
		DefaultButton: "Yes",
		Buttons:       []string{"Yes", "No"},
	})
	if err != nil {
		a.log.Warn("安装确认对话框出错", "error", err)
	} else if result == "No" {
		return api.Fail[api.EmptyData](CodeCancelled, "")
	}

	if err := a.prober.RequestServiceInstallation(a.ctx); err != nil {
		code, msg := a.translateError(err)
		return api.Fail[api.EmptyData](code, msg)
	}
	return api.OKEmpty()
}

// SelectProfileFile 打开系统文件选择器，选择本地配置文件
func (a *App) SelectProfileFile() api.Response[SettingData] {
	filePath, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select Profile",
		Filters: []runtime.FileFilter{
			{DisplayName: "Config Files (*.yaml;*.yml;*.json)", Pattern: "*.yaml;*.yml;*.json"},
			{DisplayName: "All Files", Pattern: "*.*"},
		},
	})
	if err != nil {
		return api.Fail[SettingData]("SELECT_FILE_FAILED", "")
	}

	// 用户取消选择
	if filePath == "" {
		return api.Fail[SettingData](CodeCancelled, "")
	}

	return api.OK(SettingData{Value: filePath})
}

// GetCoreState 探测内核控制接口是否可达。
func (a *App) GetCoreState() api.Response[CoreStateData] {
	if !a.ready() {
		return failNotReady[CoreStateData](a)
	}
	return api.OK(CoreStateData{Reachable: a.core.Reachable(a.ctx)})
}

// GetVersion 获取应用及内核版本号。
// 初始化失败时仍返回应用自身的版本号，仅缺少内核版本。
func (a *App) GetVersion() api.Response[VersionData] {
	data := VersionData{Version: a.cfg.Version}

	if a.core != nil {
		if coreVer, err := a.core.Version(a.ctx); err == nil {
			data.CoreVersion = coreVer
		}
	}
	return api.OK(data)
}

// GetTrafficVisible 获取流量面板可见性（经过防抖的启用信号）。
func (a *App) GetTrafficVisible() api.Response[TrafficVisibleData] {
	if !a.ready() {
		return failNotReady[TrafficVisibleData](a)
	}
	return api.OK(TrafficVisibleData{Visible: a.stab.Value()})
}

// GetSettings 获取所有设置（带默认值）。
func (a *App) GetSettings() api.Response[SettingsData] {
	if !a.ready() {
		return failNotReady[SettingsData](a)
	}

	settings, err := a.settingsRepo.GetAll(a.ctx)
	if err != nil {
		code, msg := a.translateError(err)
		return api.Fail[SettingsData](code, msg)
	}

	defaults := config.GetDefaultSettings()
	if _, ok := settings[model.SettingKeyLanguage]; !ok {
		settings[model.SettingKeyLanguage] = defaults.Language
	}
	if _, ok := settings[model.SettingKeyTheme]; !ok {
		settings[model.SettingKeyTheme] = defaults.Theme
	}

	return api.OK(SettingsData{Settings: settings})
}

// SaveSettings 批量保存设置。
func (a *App) SaveSettings(settings map[string]string) api.Response[api.EmptyData] {
	if !a.ready() {
		return failNotReady[api.EmptyData](a)
	}

	if err := a.settingsRepo.SetMultiple(a.ctx, settings); err != nil {
		code, msg := a.translateError(err)
		return api.Fail[api.EmptyData](code, msg)
	}
	return api.OKEmpty()
}

// ResetSettings 恢复默认设置。
func (a *App) ResetSettings() api.Response[SettingsData] {
	if !a.ready() {
		return failNotReady[SettingsData](a)
	}

	defaults := config.GetDefaultSettings()
	settings := map[string]string{
		model.SettingKeyLanguage: defaults.Language,
		model.SettingKeyTheme:    defaults.Theme,
	}

	if err := a.settingsRepo.SetMultiple(a.ctx, settings); err != nil {
		code, msg := a.translateError(err)
		return api.Fail[SettingsData](code, msg)
	}
	return api.OK(SettingsData{Settings: settings})
}

// statusData 汇总当前状态投影
func (a *App) statusData() StatusData {
	toggling := a.controller.State() == domain.ToggleToggling
	enabled := a.controller.Enabled()

	return StatusData{
		Status:   status.Project(toggling, enabled),
		Enabled:  enabled,
		Toggling: toggling,
		Current:  a.pipeline.Current(),
	}
}

// pushStatus 把最新状态投影推送到前端，并驱动防抖信号
func (a *App) pushStatus() {
	if a.ctx == nil {
		return
	}

	data := a.statusData()
	runtime.EventsEmit(a.ctx, "status-changed", data)

	a.stab.Observe(data.Enabled, config.StabilizerOffDelay, config.StabilizerOnDelay)
}

// eventNotifier 把操作结果通知推送到前端通知栏
type eventNotifier struct {
	app *App
}

// Notify 推送一条通知
func (n *eventNotifier) Notify(notice domain.Notice) {
	a := n.app
	if notice.Level == domain.NoticeError {
		a.log.Warn("操作失败通知", "message", notice.Message)
	}
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, "notice", notice)
	}
}

// coreBridge 把内核客户端和档案仓库组合成激活协作方
type coreBridge struct {
	kernel   *kernel.Client
	profiles *repo.ProfileRepo
}

// ResetConnections 断开内核当前的所有活动连接
func (b *coreBridge) ResetConnections(ctx context.Context) error {
	return b.kernel.ResetConnections(ctx)
}

// ApplyActive 把当前选中档案下发到运行内核
func (b *coreBridge) ApplyActive(ctx context.Context) error {
	uid, err := b.profiles.Current(ctx)
	if err != nil {
		return err
	}
	if uid == "" {
		return domain.ErrProfileNotFound
	}

	p, err := b.profiles.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrProfileNotFound
	}

	return b.kernel.ApplyProfile(ctx, p.FilePath)
}
