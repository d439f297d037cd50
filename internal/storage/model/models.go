package model

import (
	"time"
)

// Setting 用户设置表
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`  // 设置键
	Value     string    `gorm:"type:text" json:"value"` // 设置值
	UpdatedAt time.Time `json:"updatedAt"`              // 更新时间
}

// 预定义的设置 Key
const (
	SettingKeyLanguage       = "language"            // 界面语言
	SettingKeyTheme          = "theme"               // 主题
	SettingKeyWindowBounds   = "window_bounds"       // 窗口大小和位置
	SettingKeyPendingProfile = "pending_profile_uid" // 跨页面传递的待激活配置，读取后即清除
)

// Profile 配置档案表
type Profile struct {
	UID         string    `gorm:"primaryKey" json:"uid"`          // 业务唯一标识
	Name        string    `gorm:"not null" json:"name"`           // 档案名称
	Type        string    `gorm:"index" json:"type"`              // local / remote / script
	FilePath    string    `json:"filePath"`                       // 配置文件路径
	Announce    string    `json:"announce,omitempty"`             // 订阅方公告
	AnnounceURL string    `json:"announceUrl,omitempty"`          // 公告链接
	SupportURL  string    `json:"supportUrl,omitempty"`           // 支持页链接
	IsCurrent   bool      `gorm:"default:false" json:"isCurrent"` // 是否为当前选中档案
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProxyState 代理配置表（单行，主键固定为 1）
type ProxyState struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	EnableSystemProxy bool      `gorm:"default:false" json:"enableSystemProxy"` // 系统代理开关
	EnableTunMode     bool      `gorm:"default:false" json:"enableTunMode"`     // TUN 模式开关
	PrimaryAction     string    `json:"primaryAction"`                          // 一键开关偏好策略
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ProxyStateRowID 单行表的固定主键
const ProxyStateRowID uint = 1
