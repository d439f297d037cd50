package activation

import (
	"context"
	"sync"

	"proxydesk/internal/guard"
	"proxydesk/internal/logger"
	"proxydesk/internal/storage/repo"
	"proxydesk/pkg/domain"
)

// GuardKey 档案切换操作的重入保护键
const GuardKey = "activate-profile"

// Store 档案集合的持久化存取
type Store interface {
	// SetCurrent 持久化地切换当前选中档案
	SetCurrent(ctx context.Context, uid domain.ProfileUID) error

	// Snapshot 重新读取档案集合的真实状态
	Snapshot(ctx context.Context) (*repo.ProfileSnapshot, error)
}

// Core 运行内核侧的激活协作方
type Core interface {
	// ResetConnections 断开全部活动连接，幂等
	ResetConnections(ctx context.Context) error

	// ApplyActive 把当前选中档案下发到运行内核
	ApplyActive(ctx context.Context) error
}

// Marker 跨页面传递的待激活标记，单槽，消费即清除
type Marker interface {
	PeekPendingProfile(ctx context.Context) (string, bool)
	TakePendingProfile(ctx context.Context) (string, bool, error)
}

// Notifier 用户可见的操作结果通知
type Notifier interface {
	Notify(n domain.Notice)
}

// Options 管线依赖
type Options struct {
	Store    Store
	Core     Core
	Marker   Marker
	Guard    *guard.Guard
	Notifier Notifier
	Logger   logger.Logger
	// OnChange 状态或快照变化时回调，驱动界面刷新
	OnChange func()
}

// Pipeline 档案切换管线。
// 先乐观写入选中关系，再重置连接并把新档案下发到内核；
// 任一步失败时不做手动回滚，而是回读存储的真实状态。
type Pipeline struct {
	mu         sync.RWMutex
	snap       repo.ProfileSnapshot
	activating bool

	store    Store
	core     Core
	marker   Marker
	guard    *guard.Guard
	notifier Notifier
	log      logger.Logger
	onChange func()
}

// New 创建档案切换管线
func New(opts Options) *Pipeline {
	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}
	g := opts.Guard
	if g == nil {
		g = guard.New()
	}
	return &Pipeline{
		store:    opts.Store,
		core:     opts.Core,
		marker:   opts.Marker,
		guard:    g,
		notifier: opts.Notifier,
		log:      l,
		onChange: opts.OnChange,
	}
}

// Refresh 从存储回读档案集合快照
func (p *Pipeline) Refresh(ctx context.Context) error {
	snap, err := p.store.Snapshot(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.snap = *snap
	p.mu.Unlock()

	p.notifyChange()
	return nil
}

// Snapshot 返回缓存的档案集合快照
func (p *Pipeline) Snapshot() repo.ProfileSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Current 返回当前选中档案的 UID
func (p *Pipeline) Current() domain.ProfileUID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap.Current
}

// State 返回管线的瞬态状态
func (p *Pipeline) State() domain.ActivationState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.activating {
		return domain.ActivationActivating
	}
	return domain.ActivationIdle
}

// Activate 切换当前档案并应用到运行内核。
// uid 与当前选中相同时为无副作用的空操作；执行期间的重复调用
// 被整体丢弃，返回 false 表示本次调用被丢弃。
func (p *Pipeline) Activate(ctx context.Context, uid domain.ProfileUID, notifyOnSuccess bool) bool {
	return p.guard.Do(GuardKey, func() {
		p.doActivate(ctx, uid, notifyOnSuccess)
	})
}

// ActivatePending 消费跨页面传递的待激活标记。
// 标记的 UID 出现在可选集合中时自动激活一次（不发成功通知），
// 之后清除标记；每个标记只会被消费一次。
func (p *Pipeline) ActivatePending(ctx context.Context) {
	if p.marker == nil {
		return
	}

	uid, ok := p.marker.PeekPendingProfile(ctx)
	if !ok {
		return
	}

	if !p.eligible(domain.ProfileUID(uid)) {
		// 档案尚未就绪，标记留待下一次集合变化
		return
	}

	taken, exists, err := p.marker.TakePendingProfile(ctx)
	if err != nil {
		p.log.Err(err, "消费待激活标记失败")
		return
	}
	if !exists {
		// 并发加载时已被其他调用消费
		return
	}

	p.log.Info("自动激活待定档案", "uid", taken)
	p.Activate(ctx, domain.ProfileUID(taken), false)
}

// doActivate 单次切换流程，进出 activating 状态由 defer 兜底
func (p *Pipeline) doActivate(ctx context.Context, uid domain.ProfileUID, notifyOnSuccess bool) {
	p.setActivating(true)
	defer p.setActivating(false)

	if uid == p.Current() {
		return
	}

	// 乐观写入选中关系
	if err := p.store.SetCurrent(ctx, uid); err != nil {
		p.fail(ctx, err)
		return
	}
	p.setCurrent(uid)

	// 活动连接绑定着旧档案的路由规则，切换前必须全部断开
	if err := p.core.ResetConnections(ctx); err != nil {
		p.fail(ctx, err)
		return
	}

	if err := p.core.ApplyActive(ctx); err != nil {
		p.fail(ctx, err)
		return
	}

	p.log.Info("档案切换完成", "uid", uid)
	if notifyOnSuccess {
		p.notify(domain.NoticeSuccess, "Profile switched")
	}
}

// fail 通知失败并回读真实状态，乐观写入不做手动回滚
func (p *Pipeline) fail(ctx context.Context, err error) {
	p.log.Err(err, "档案切换失败")
	p.notify(domain.NoticeError, err.Error())

	if rerr := p.Refresh(ctx); rerr != nil {
		p.log.Err(rerr, "切换失败后的状态回读失败")
	}
}

// eligible 判断 uid 是否在可选集合中
func (p *Pipeline) eligible(uid domain.ProfileUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, item := range p.snap.Items {
		if domain.ProfileUID(item.UID) == uid {
			return true
		}
	}
	return false
}

// setCurrent 更新本地快照中的选中关系
func (p *Pipeline) setCurrent(uid domain.ProfileUID) {
	p.mu.Lock()
	p.snap.Current = uid
	p.mu.Unlock()
	p.notifyChange()
}

// setActivating 更新瞬态状态并通知外层
func (p *Pipeline) setActivating(v bool) {
	p.mu.Lock()
	p.activating = v
	p.mu.Unlock()
	p.notifyChange()
}

func (p *Pipeline) notify(level domain.NoticeLevel, msg string) {
	if p.notifier != nil {
		p.notifier.Notify(domain.Notice{Level: level, Message: msg})
	}
}

func (p *Pipeline) notifyChange() {
	if p.onChange != nil {
		p.onChange()
	}
}
