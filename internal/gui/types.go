package gui

import (
	"proxydesk/internal/status"
	"proxydesk/internal/storage/model"
	"proxydesk/pkg/domain"
)

// StatusData 连接状态数据
type StatusData struct {
	Status   status.Status     `json:"status"`
	Enabled  bool              `json:"enabled"`
	Toggling bool              `json:"toggling"`
	Current  domain.ProfileUID `json:"current,omitempty"`
}

// ActionData 异步动作的受理结果
type ActionData struct {
	Dropped bool `json:"dropped"` // true 表示同类动作执行中，本次被丢弃
}

// ProxyConfigData 代理配置数据
type ProxyConfigData struct {
	Config       domain.ProxyConfig `json:"config"`
	TunAlert     bool               `json:"tunAlert"` // 界面应禁用开关并提示授权
	TunAvailable bool               `json:"tunAvailable"`
}

// ProfileListData 档案列表数据
type ProfileListData struct {
	Items   []model.Profile   `json:"items"`
	Current domain.ProfileUID `json:"current,omitempty"`
}

// ProfileData 单个档案数据
type ProfileData struct {
	Profile *model.Profile `json:"profile"`
}

// CapabilityData 系统能力数据
type CapabilityData struct {
	Capability domain.SystemCapability `json:"capability"`
}

// CoreStateData 内核控制接口的可达性
type CoreStateData struct {
	Reachable bool `json:"reachable"`
}

// VersionData 版本数据
type VersionData struct {
	Version     string `json:"version"`
	CoreVersion string `json:"coreVersion,omitempty"`
}

// SettingsData 设置数据
type SettingsData struct {
	Settings map[string]string `json:"settings"`
}

// SettingData 单个设置数据
type SettingData struct {
	Value string `json:"value"`
}

// TrafficVisibleData 流量面板可见性（经过防抖的启用信号）
type TrafficVisibleData struct {
	Visible bool `json:"visible"`
}
