package config

import "time"

// DefaultSettings 定义所有用户设置的默认值
type DefaultSettings struct {
	Language      string
	Theme         string
	PrimaryAction string
}

// GetDefaultSettings 返回默认设置
func GetDefaultSettings() DefaultSettings {
	return DefaultSettings{
		Language:      "zh",
		Theme:         "system",
		PrimaryAction: "tun-mode", // 一键开关默认走 TUN
	}
}

// 状态指示灯的防抖策略：开启立即生效，关闭延迟生效，
// 避免快速抖动时依赖过渡动画的组件被截断。
const (
	StabilizerOffDelay = 600 * time.Millisecond
	StabilizerOnDelay  = 0 * time.Millisecond
)
