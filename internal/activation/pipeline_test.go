package activation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"proxydesk/internal/activation"
	"proxydesk/internal/storage/model"
	"proxydesk/internal/storage/repo"
	"proxydesk/pkg/domain"
)

// fakeStore 可注入故障的档案存储
type fakeStore struct {
	mu            sync.Mutex
	snap          repo.ProfileSnapshot
	setCurrentErr error
	setCalls      int
	snapshotCalls int
}

func (s *fakeStore) SetCurrent(ctx context.Context, uid domain.ProfileUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.setCurrentErr != nil {
		return s.setCurrentErr
	}
	s.snap.Current = uid
	return nil
}

func (s *fakeStore) Snapshot(ctx context.Context) (*repo.ProfileSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotCalls++
	snap := s.snap
	return &snap, nil
}

func (s *fakeStore) counts() (sets, snapshots int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls, s.snapshotCalls
}

// fakeCore 可注入故障的内核协作方
type fakeCore struct {
	mu         sync.Mutex
	resetErr   error
	applyErr   error
	resetCalls int
	applyCalls int
}

func (c *fakeCore) ResetConnections(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetCalls++
	return c.resetErr
}

func (c *fakeCore) ApplyActive(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyCalls++
	return c.applyErr
}

func (c *fakeCore) counts() (resets, applies int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetCalls, c.applyCalls
}

// fakeMarker 单槽待激活标记
type fakeMarker struct {
	mu  sync.Mutex
	uid string
}

func (m *fakeMarker) PeekPendingProfile(ctx context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uid, m.uid != ""
}

func (m *fakeMarker) TakePendingProfile(ctx context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid := m.uid
	m.uid = ""
	return uid, uid != "", nil
}

// fakeNotifier 记录所有通知
type fakeNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *fakeNotifier) Notify(notice domain.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *fakeNotifier) snapshot() []domain.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notice(nil), n.notices...)
}

func twoProfiles() repo.ProfileSnapshot {
	return repo.ProfileSnapshot{
		Items: []model.Profile{
			{UID: "a", Name: "Local", Type: string(domain.ProfileTypeLocal)},
			{UID: "b", Name: "Remote", Type: string(domain.ProfileTypeRemote)},
		},
		Current: "a",
	}
}

func newPipeline(store *fakeStore, core *fakeCore, marker *fakeMarker, notifier *fakeNotifier) *activation.Pipeline {
	p := activation.New(activation.Options{
		Store:    store,
		Core:     core,
		Marker:   marker,
		Notifier: notifier,
	})
	_ = p.Refresh(context.Background())
	return p
}

func TestActivate_Success(t *testing.T) {
	store := &fakeStore{snap: twoProfiles()}
	core := &fakeCore{}
	notifier := &fakeNotifier{}
	p := newPipeline(store, core, nil, notifier)

	if !p.Activate(context.Background(), "b", true) {
		t.Fatal("首次切换不应被丢弃")
	}

	if p.Current() != "b" {
		t.Errorf("切换后当前档案预期 b，实际 %s", p.Current())
	}

	resets, applies := core.counts()
	if resets != 1 {
		t.Errorf("连接重置预期 1 次，实际 %d 次", resets)
	}
	if applies != 1 {
		t.Errorf("档案下发预期 1 次，实际 %d 次", applies)
	}

	notices := notifier.snapshot()
	if len(notices) != 1 || notices[0].Level != domain.NoticeSuccess {
		t.Fatalf("预期一条成功通知，实际 %v", notices)
	}
	if p.State() != domain.ActivationIdle {
		t.Error("切换完成后状态应回到 idle")
	}
}

// uid 与当前选中相同时不产生任何副作用
func TestActivate_NoopOnSameUID(t *testing.T) {
	store := &fakeStore{snap: twoProfiles()}
	core := &fakeCore{}
	notifier := &fakeNotifier{}
	p := newPipeline(store, core, nil, notifier)

	p.Activate(context.Background(), "a", true)

	sets, _ := store.counts()
	resets, applies := core.counts()
	if sets != 0 || resets != 0 || applies != 0 {
		t.Errorf("相同档案切换应为空操作，实际 set=%d reset=%d apply=%d", sets, resets, applies)
	}
	if len(notifier.snapshot()) != 0 {
		t.Error("空操作不应产生通知")
	}
}

// 下发失败：错误通知加一次状态回读，不做手动回滚
func TestActivate_ApplyFailure(t *testing.T) {
	store := &fakeStore{snap: twoProfiles()}
	core := &fakeCore{applyErr: errors.New("invalid profile")}
	notifier := &fakeNotifier{}
	p := newPipeline(store, core, nil, notifier)

	_, snapshotsBefore := store.counts()
	p.Activate(context.Background(), "b", true)

	notices := notifier.snapshot()
	if len(notices) != 1 || notices[0].Level != domain.NoticeError {
		t.Fatalf("预期一条失败通知，实际 %v", notices)
	}
	if notices[0].Message != "invalid profile" {
		t.Errorf("通知应携带底层错误消息，实际 %q", notices[0].Message)
	}

	_, snapshotsAfter := store.counts()
	if snapshotsAfter != snapshotsBefore+1 {
		t.Errorf("失败后应回读快照恰好一次，回读次数 %d -> %d", snapshotsBefore, snapshotsAfter)
	}
	if p.State() != domain.ActivationIdle {
		t.Error("失败后状态应回到 idle")
	}
}

// 重置连接失败时不再下发档案
func TestActivate_ResetFailureStopsChain(t *testing.T) {
	store := &fakeStore{snap: twoProfiles()}
	core := &fakeCore{resetErr: errors.New("core unreachable")}
	notifier := &fakeNotifier{}
	p := newPipeline(store, core, nil, notifier)

	p.Activate(context.Background(), "b", true)

	_, applies := core.counts()
	if applies != 0 {
		t.Errorf("重置失败后不应下发档案，实际下发 %d 次", applies)
	}
}

// 待激活标记：就绪后自动激活一次，不发成功通知，随后清除
func TestActivatePending_ConsumedOnce(t *testing.T) {
	store := &fakeStore{snap: twoProfiles()}
	core := &fakeCore{}
	marker := &fakeMarker{uid: "b"}
	notifier := &fakeNotifier{}
	p := newPipeline(store, core, marker, notifier)

	p.ActivatePending(context.Background())

	if p.Current() != "b" {
		t.Errorf("自动激活后当前档案预期 b，实际 %s", p.Current())
	}
	if len(notifier.snapshot()) != 0 {
		t.Error("自动激活不应发出成功通知")
	}
	if _, ok := marker.PeekPendingProfile(context.Background()); ok {
		t.Error("消费后标记应已清除")
	}

	// 第二次加载没有标记，不再触发
	resetsBefore, _ := core.counts()
	p.ActivatePending(context.Background())
	resetsAfter, _ := core.counts()
	if resetsAfter != resetsBefore {
		t.Error("无标记时不应再触发自动激活")
	}
}

// 标记的档案不在可选集合中时保留标记
func TestActivatePending_NotEligible(t *testing.T) {
	store := &fakeStore{snap: twoProfiles()}
	core := &fakeCore{}
	marker := &fakeMarker{uid: "missing"}
	p := newPipeline(store, core, marker, &fakeNotifier{})

	p.ActivatePending(context.Background())

	if p.Current() != "a" {
		t.Error("不可选档案不应被激活")
	}
	if _, ok := marker.PeekPendingProfile(context.Background()); !ok {
		t.Error("档案未就绪时标记应保留")
	}
}

// 执行期间的重复调用被整体丢弃
func TestActivate_Reentrancy(t *testing.T) {
	store := &fakeStore{snap: twoProfiles()}
	block := make(chan struct{})
	core := &fakeCore{}
	notifier := &fakeNotifier{}

	p := activation.New(activation.Options{
		Store:    store,
		Core:     &blockingCore{fakeCore: core, block: block},
		Notifier: notifier,
	})
	_ = p.Refresh(context.Background())

	started := make(chan struct{})
	done := make(chan bool)
	go func() {
		close(started)
		done <- p.Activate(context.Background(), "b", false)
	}()

	<-started
	// 等第一次进入 reset 阻塞
	deadline := time.After(time.Second)
	for {
		if resets, _ := core.counts(); resets == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("第一次切换未进入重置阶段")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if p.Activate(context.Background(), "b", false) {
		t.Error("执行期间的重复调用应被丢弃")
	}

	close(block)
	if !<-done {
		t.Error("第一次切换不应被丢弃")
	}

	sets, _ := store.counts()
	if sets != 1 {
		t.Errorf("只应有一次选中写入，实际 %d 次", sets)
	}
}

// blockingCore 在重置连接时阻塞，模拟慢速内核
type blockingCore struct {
	*fakeCore
	block chan struct{}
}

func (c *blockingCore) ResetConnections(ctx context.Context) error {
	err := c.fakeCore.ResetConnections(ctx)
	<-c.block
	return err
}
