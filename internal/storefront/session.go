package storefront

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MediCart/internal/cart"
	"MediCart/internal/identity"
	"MediCart/internal/session"
	"MediCart/internal/storage"
	"MediCart/internal/wishlist"
)

// Session is one browser's live state: its identity source and the cart
// and wishlist stores bound to it. The stores rehydrate themselves from
// durable storage whenever the identity settles on a different user.
type Session struct {
	ID       string
	Identity *identity.Source
	Cart     *cart.Store
	Wishlist *wishlist.Store

	mu       sync.Mutex
	token    string
	lastSeen time.Time
}

// SetToken records the access token presented at login so delegated
// calls (order placement) can act on the user's behalf.
func (s *Session) SetToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// Manager owns every live session for the process lifetime. Sessions are
// addressed by an opaque cookie id; idle ones are pruned by a janitor.
// Dropping a session never touches durable storage, so a returning
// identity rehydrates its collections in a fresh session.
type Manager struct {
	kv      storage.KV
	log     *zap.Logger
	metrics *session.Metrics
	idleTTL time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

func NewManager(kv storage.KV, log *zap.Logger, metrics *session.Metrics, idleTTL time.Duration) *Manager {
	m := &Manager{
		kv:       kv,
		log:      log,
		metrics:  metrics,
		idleTTL:  idleTTL,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}

	go m.janitor()
	return m
}

// Create builds a session that starts anonymous, binding both stores to
// its identity source before it is ever visible to handlers.
func (m *Manager) Create() *Session {
	src := identity.NewSource()

	s := &Session{
		ID:       "s_" + uuid.NewString(),
		Identity: src,
		Cart:     cart.NewStore(m.kv, m.log, m.metrics),
		Wishlist: wishlist.NewStore(m.kv, m.log, m.metrics),
		lastSeen: time.Now(),
	}
	s.Cart.Bind(src)
	s.Wishlist.Bind(src)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if ok {
		s.touch(time.Now())
	}
	return s, ok
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) janitor() {
	interval := m.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-t.C:
			m.pruneIdle(now.Add(-m.idleTTL))
		}
	}
}

func (m *Manager) pruneIdle(cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.idleSince(cutoff) {
			delete(m.sessions, id)
		}
	}
}

type ctxKey string

const sessionKey ctxKey = "session"

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}

// WithSession resolves the caller's session from the cookie, creating one
// when missing, and injects the session plus its stores into the request
// context for downstream handlers.
func (m *Manager) WithSession(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *Session

			if c, err := r.Cookie(cookieName); err == nil {
				sess, _ = m.Get(c.Value)
			}
			if sess == nil {
				sess = m.Create()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			ctx = cart.NewContext(ctx, sess.Cart)
			ctx = wishlist.NewContext(ctx, sess.Wishlist)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
