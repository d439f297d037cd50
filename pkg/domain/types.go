package domain

// ProfileUID 配置档案的业务唯一标识
type ProfileUID string

// ProfileType 配置档案类型
type ProfileType string

const (
	ProfileTypeLocal  ProfileType = "local"  // 本地创建的配置
	ProfileTypeRemote ProfileType = "remote" // 远程订阅的配置
	ProfileTypeScript ProfileType = "script" // 脚本类型，不参与选择
)

// Selectable 判断该类型是否允许被选为当前配置
func (t ProfileType) Selectable() bool {
	return t == ProfileTypeLocal || t == ProfileTypeRemote
}

// ProxyMode 代理接管策略
type ProxyMode string

const (
	ModeTun         ProxyMode = "tun-mode"     // 虚拟网卡接管
	ModeSystemProxy ProxyMode = "system-proxy" // 系统代理接管
)

// ProxyConfig 代理配置快照
type ProxyConfig struct {
	EnableSystemProxy bool      `json:"enableSystemProxy"` // 是否启用系统代理
	EnableTunMode     bool      `json:"enableTunMode"`     // 是否启用 TUN 模式
	PrimaryAction     ProxyMode `json:"primaryAction"`     // 一键开关偏好的接管策略
}

// Enabled 任一接管策略生效即视为已连接
func (c ProxyConfig) Enabled() bool {
	return c.EnableSystemProxy || c.EnableTunMode
}

// ProxyPatch 代理开关写入，两个标志必须同时给出以维持互斥
type ProxyPatch struct {
	EnableSystemProxy bool
	EnableTunMode     bool
}

// SystemCapability 系统权限能力，外部只读
type SystemCapability struct {
	AdminMode   bool `json:"adminMode"`   // 是否以管理员身份运行
	ServiceMode bool `json:"serviceMode"` // 后台服务是否可用
}

// TunAvailable TUN 模式需要服务模式或管理员权限
func (c SystemCapability) TunAvailable() bool {
	return c.ServiceMode || c.AdminMode
}

// ToggleState 开关控制器的瞬态状态
type ToggleState string

const (
	ToggleIdle     ToggleState = "idle"
	ToggleToggling ToggleState = "toggling"
)

// ActivationState 配置切换管线的瞬态状态
type ActivationState string

const (
	ActivationIdle       ActivationState = "idle"
	ActivationActivating ActivationState = "activating"
)

// NoticeLevel 通知级别
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice 用户可见的操作结果通知
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
