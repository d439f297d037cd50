package status

// Status 连接状态的展示投影
type Status struct {
	Label    string `json:"label"`    // 展示文案的 key，前端负责国际化
	Color    string `json:"color"`    // 语义化颜色
	Animated bool   `json:"animated"` // 是否呈现脉冲动画
}

// 展示文案
const (
	LabelConnecting    = "Connecting…"
	LabelDisconnecting = "Disconnecting…"
	LabelConnected     = "Connected"
	LabelDisconnected  = "Disconnected"
)

// 语义化颜色
const (
	colorAmber = "#d97706" // 断开中
	colorTeal  = "#0d9488" // 连接中
	colorGreen = "#16a34a" // 已连接
	colorRed   = "#dc2626" // 未连接
)

// Project 把 {切换中, 已启用} 映射为唯一的展示状态。
// 映射是全函数：任意组合都恰好命中一个分支。
func Project(toggling, enabled bool) Status {
	if toggling {
		if enabled {
			return Status{Label: LabelDisconnecting, Color: colorAmber, Animated: true}
		}
		return Status{Label: LabelConnecting, Color: colorTeal, Animated: true}
	}
	if enabled {
		return Status{Label: LabelConnected, Color: colorGreen, Animated: false}
	}
	return Status{Label: LabelDisconnected, Color: colorRed, Animated: false}
}
