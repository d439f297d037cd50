package stabilizer

import (
	"sync"
	"time"
)

// Stabilizer 布尔信号防抖器：把快速抖动的原始信号变成适合驱动
// 过渡动画的平滑信号。开启可以立即生效，关闭总是延迟生效，
// 同一时刻最多只有一个待生效的定时器，后到的信号会取消先前的。
type Stabilizer struct {
	mu       sync.Mutex
	value    bool
	seq      uint64 // 定时器代数，旧定时器触发后据此丢弃
	timer    *time.Timer
	closed   bool
	onChange func(bool)
}

// New 创建防抖器，onChange 在稳定值变化时回调，可为 nil
func New(initial bool, onChange func(bool)) *Stabilizer {
	return &Stabilizer{value: initial, onChange: onChange}
}

// Observe 输入一次原始信号，原始值每次变化时都应调用。
// raw 为 true 且 onDelay <= 0 时立即生效；raw 为 false 时总是
// 延迟 offDelay 生效，使“已连接”的视觉状态在抖动中短暂存续。
func (s *Stabilizer) Observe(raw bool, offDelay, onDelay time.Duration) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return
	}

	s.cancelPendingLocked()

	if raw && onDelay <= 0 {
		changed := s.setLocked(true)
		cb := s.onChange
		s.mu.Unlock()
		if changed && cb != nil {
			cb(true)
		}
		return
	}

	delay := onDelay
	if !raw {
		delay = offDelay
	}
	s.scheduleLocked(raw, delay)
	s.mu.Unlock()
}

// Value 返回当前稳定值
func (s *Stabilizer) Value() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Close 终止防抖器并取消待生效的定时器，之后不再有回调触发
func (s *Stabilizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelPendingLocked()
}

// scheduleLocked 安排 delay 之后把稳定值置为 v
func (s *Stabilizer) scheduleLocked(v bool, delay time.Duration) {
	seq := s.seq
	s.timer = time.AfterFunc(delay, func() {
		s.apply(seq, v)
	})
}

// apply 定时器回调，仅当代数仍然有效时生效
func (s *Stabilizer) apply(seq uint64, v bool) {
	s.mu.Lock()

	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return
	}

	s.timer = nil
	changed := s.setLocked(v)
	cb := s.onChange
	s.mu.Unlock()

	if changed && cb != nil {
		cb(v)
	}
}

// cancelPendingLocked 取消尚未生效的定时器
func (s *Stabilizer) cancelPendingLocked() {
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// setLocked 更新稳定值，返回是否发生变化
func (s *Stabilizer) setLocked(v bool) bool {
	if s.value == v {
		return false
	}
	s.value = v
	return true
}
