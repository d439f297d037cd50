package guard

import "sync"

// Guard 按动作键的重入保护器：同一键的操作同时只允许一个在执行，
// 执行期间再次触发的调用被直接丢弃，不排队也不报错。
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// New 创建重入保护器
func New() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// Do 在 key 未被占用时执行 fn 并返回 true；否则丢弃调用并返回 false。
// fn 的释放在 defer 中完成，即使 panic 也不会把 key 留在占用状态。
func (g *Guard) Do(key string, fn func()) bool {
	if !g.acquire(key) {
		return false
	}
	defer g.release(key)

	fn()
	return true
}

// InFlight 查询指定键是否有操作正在执行
func (g *Guard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inflight[key]
	return ok
}

// acquire 原子地检查并占用 key
func (g *Guard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inflight[key]; ok {
		return false
	}
	g.inflight[key] = struct{}{}
	return true
}

// release 无条件释放 key
func (g *Guard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, key)
}
