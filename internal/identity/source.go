package identity

import "sync"

// Snapshot is the externally supplied view of who the session belongs to.
// An empty UserID means an anonymous visitor. Pending means session
// resolution is still in flight and no decision has been made yet.
type Snapshot struct {
	UserID  string
	Role    string
	Pending bool
}

func (s Snapshot) Anonymous() bool {
	return !s.Pending && s.UserID == ""
}

// Source holds the current identity of one session and notifies
// subscribers whenever it changes. Notifications run synchronously under
// the source lock, so a subscriber observes changes in the exact order
// they were applied and must not call back into the source.
type Source struct {
	mu   sync.Mutex
	snap Snapshot
	subs []subscriber
	next int
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// NewSource starts settled and anonymous.
func NewSource() *Source {
	return &Source{}
}

func (s *Source) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn and immediately delivers the current snapshot so
// a late subscriber initializes from the same state everyone else sees.
// The returned func cancels the subscription.
func (s *Source) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	fn(s.snap)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// BeginResolve marks the identity as pending while an access token is
// being verified. The previous identity stays visible to readers.
func (s *Source) BeginResolve() {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap
	snap.Pending = true
	s.setLocked(snap)
}

// Resolve settles the source on an authenticated user.
func (s *Source) Resolve(userID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(Snapshot{UserID: userID, Role: role})
}

// ResolveAnonymous settles the source on no user (logout, failed login).
func (s *Source) ResolveAnonymous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(Snapshot{})
}

func (s *Source) setLocked(snap Snapshot) {
	if snap == s.snap {
		return
	}
	s.snap = snap

	for _, sub := range s.subs {
		sub.fn(snap)
	}
}
