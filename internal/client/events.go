package client

import "sync"

type EndReason string

const (
	ReasonNoRefreshToken EndReason = "no_refresh_token"
	ReasonRefreshFailed  EndReason = "refresh_failed"
	ReasonLogout         EndReason = "logout"
)

// SessionEnded is published whenever the session is torn down
type SessionEnded struct {
	Reason EndReason
	Err    error
}

// Events is a publish/subscribe bus for session lifecycle notifications
type Events struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(SessionEnded)
}

func NewEvents() *Events {
	return &Events{}
}

// Subscribe registers fn and returns a function that removes it
func (e *Events) Subscribe(fn func(SessionEnded)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every subscriber synchronously, in subscription order.
// Subscribers may subscribe or unsubscribe from inside the callback.
func (e *Events) Publish(ev SessionEnded) {
	e.mu.Lock()
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
