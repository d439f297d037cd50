package stabilizer_test

import (
	"sync"
	"testing"
	"time"

	"proxydesk/internal/stabilizer"
)

const (
	offDelay = 60 * time.Millisecond
	onDelay  = 40 * time.Millisecond
)

// recorder 记录稳定值的每次变化
type recorder struct {
	mu      sync.Mutex
	changes []bool
}

func (r *recorder) record(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, v)
}

func (r *recorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.changes...)
}

func TestObserve_InstantOn(t *testing.T) {
	s := stabilizer.New(false, nil)
	defer s.Close()

	s.Observe(true, offDelay, 0)

	if !s.Value() {
		t.Error("onDelay 为 0 时开启应立即生效")
	}
}

func TestObserve_DelayedOn(t *testing.T) {
	s := stabilizer.New(false, nil)
	defer s.Close()

	s.Observe(true, offDelay, onDelay)

	if s.Value() {
		t.Error("onDelay 大于 0 时开启不应立即生效")
	}

	time.Sleep(onDelay + 30*time.Millisecond)
	if !s.Value() {
		t.Error("onDelay 过后开启应已生效")
	}
}

func TestObserve_OffAlwaysDelayed(t *testing.T) {
	s := stabilizer.New(true, nil)
	defer s.Close()

	s.Observe(false, offDelay, 0)

	if !s.Value() {
		t.Error("关闭必须延迟生效，不能立即翻转")
	}

	time.Sleep(offDelay + 30*time.Millisecond)
	if s.Value() {
		t.Error("offDelay 过后关闭应已生效")
	}
}

// 快速抖动期间稳定值必须保持 true，
// 直到最后一次 false 之后 offDelay 内没有 true 到来。
func TestObserve_FlickerSuppression(t *testing.T) {
	rec := &recorder{}
	s := stabilizer.New(false, rec.record)
	defer s.Close()

	s.Observe(true, offDelay, 0)

	// 间隔远小于 offDelay 的抖动
	for i := 0; i < 5; i++ {
		s.Observe(false, offDelay, 0)
		time.Sleep(10 * time.Millisecond)
		s.Observe(true, offDelay, 0)
		time.Sleep(10 * time.Millisecond)
	}

	if !s.Value() {
		t.Error("抖动期间稳定值不应翻转为 false")
	}

	for _, v := range rec.snapshot() {
		if !v {
			t.Error("抖动期间不应出现 false 的变化回调")
		}
	}

	// 抖动结束，最后一次 false 之后等满 offDelay
	s.Observe(false, offDelay, 0)
	time.Sleep(offDelay + 30*time.Millisecond)
	if s.Value() {
		t.Error("抖动结束后稳定值应最终翻转为 false")
	}
}

// 后到的信号取消先前的定时器
func TestObserve_LastWriteWins(t *testing.T) {
	rec := &recorder{}
	s := stabilizer.New(true, rec.record)
	defer s.Close()

	s.Observe(false, offDelay, 0)
	time.Sleep(10 * time.Millisecond)
	s.Observe(true, offDelay, 0)

	// 被取消的 false 定时器不应在原定时间触发
	time.Sleep(offDelay + 30*time.Millisecond)
	if !s.Value() {
		t.Error("被取消的关闭定时器不应生效")
	}
	if len(rec.snapshot()) != 0 {
		t.Errorf("预期无变化回调，实际 %v", rec.snapshot())
	}
}

func TestClose_CancelsPendingTimer(t *testing.T) {
	rec := &recorder{}
	s := stabilizer.New(true, rec.record)

	s.Observe(false, offDelay, 0)
	s.Close()

	time.Sleep(offDelay + 30*time.Millisecond)
	if !s.Value() {
		t.Error("Close 之后待生效的定时器不应再触发")
	}
	if len(rec.snapshot()) != 0 {
		t.Error("Close 之后不应有回调触发")
	}

	// Close 之后的 Observe 直接忽略
	s.Observe(false, 0, 0)
	if !s.Value() {
		t.Error("Close 之后的 Observe 应被忽略")
	}
}

func TestObserve_CallbackOrder(t *testing.T) {
	rec := &recorder{}
	s := stabilizer.New(false, rec.record)
	defer s.Close()

	s.Observe(true, offDelay, 0)
	s.Observe(false, offDelay, 0)
	time.Sleep(offDelay + 30*time.Millisecond)

	got := rec.snapshot()
	want := []bool{true, false}
	if len(got) != len(want) {
		t.Fatalf("预期 %v 次变化，实际 %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("第 %d 次变化预期 %v，实际 %v", i, want[i], got[i])
		}
	}
}
