package profile

import "sync"

// writeGuard はユーザーごとに同時に1件の書き込みだけを許可する。
type writeGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newWriteGuard() *writeGuard {
	return &writeGuard{busy: make(map[string]struct{})}
}

// tryAcquire は書き込みを開始できればreleaseとtrueを返す。
// 同じユーザーの書き込みが進行中の場合はfalseを返す。
func (g *writeGuard) tryAcquire(userID string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.busy[userID]; busy {
		return nil, false
	}
	g.busy[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, userID)
			g.mu.Unlock()
		})
	}, true
}
