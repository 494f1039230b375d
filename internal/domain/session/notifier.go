package session

import "sync"

// Listener receives session events. It runs on the publisher's goroutine.
type Listener func(Event)

// Notifier fans session events out to subscribers in subscription order.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber
}

type subscriber struct {
	id uint64
	fn Listener
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	n    *Notifier
	id   uint64
	once sync.Once
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn for all future events.
// PRE: fn is non-nil
// POST: fn receives every event published after this call until Unsubscribe
func (n *Notifier) Subscribe(fn Listener) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.subs = append(n.subs, subscriber{id: n.nextID, fn: fn})
	return &Subscription{n: n, id: n.nextID}
}

// Publish delivers e to every current subscriber synchronously.
// The subscriber list is snapshotted first so listeners may unsubscribe themselves.
func (n *Notifier) Publish(e Event) {
	n.mu.Lock()
	snapshot := make([]subscriber, len(n.subs))
	copy(snapshot, n.subs)
	n.mu.Unlock()

	for _, s := range snapshot {
		s.fn(e)
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}

// Unsubscribe stops delivery to this subscription. Calling it twice is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() { s.n.remove(s.id) })
}
