package auth

import (
	"sync"

	"github.com/google/uuid"
)

// EventType は認証状態の変化の種類。
type EventType string

// EventSignedOut はユーザーのセッションが終了したことを示す。
const EventSignedOut EventType = "SIGNED_OUT"

// Event は認証状態の変化の通知。
type Event struct {
	Type   EventType
	UserID string
}

// Notifier はユーザー単位で認証状態の変化を購読者へ配信する。
// 受信者が遅い場合は待たずに破棄する。通知は「サインアウトした」という状態を表すため、
// バッファに1件あれば十分である。
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// NewNotifier はNotifierを生成する。
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription は1件の購読。不要になったら必ずUnsubscribeを呼ぶこと。
type Subscription struct {
	ID     string
	userID string
	ch     chan Event
	n      *Notifier
	once   sync.Once
}

// Subscribe はuserIDの認証イベントを購読する。
func (n *Notifier) Subscribe(userID string) *Subscription {
	s := &Subscription{
		ID:     uuid.NewString(),
		userID: userID,
		ch:     make(chan Event, 1),
		n:      n,
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs[userID] == nil {
		n.subs[userID] = make(map[*Subscription]struct{})
	}
	n.subs[userID][s] = struct{}{}
	return s
}

// Events はイベントの受信チャネルを返す。Unsubscribe後はクローズされる。
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Unsubscribe は購読を解除する。複数回呼んでもよい。
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		n := s.n
		n.mu.Lock()
		defer n.mu.Unlock()

		if set, ok := n.subs[s.userID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(n.subs, s.userID)
			}
		}
		close(s.ch)
	})
}

// Publish はイベントを対象ユーザーの購読者へ配信し、配信できた件数を返す。
func (n *Notifier) Publish(ev Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	delivered := 0
	for s := range n.subs[ev.UserID] {
		select {
		case s.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// SubscriberCount はuserIDの購読数を返す。
func (n *Notifier) SubscriberCount(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[userID])
}
