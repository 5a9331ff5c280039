package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
	"github.com/Cmetankaaa/shop-next/internal/metrics"
	"github.com/Cmetankaaa/shop-next/internal/port"
)

const (
	DefaultSessionIdleTTL = 30 * time.Minute

	// Get sweeps idle sessions once every sweepEvery calls.
	sweepEvery = 64
)

// Session is the checkout state of one shopper: cart, phone field and submitter.
type Session struct {
	ID       string
	Cart     *CartStore
	Phone    *PhoneInput
	Checkout *CheckoutSubmitter

	lastSeen time.Time
}

// Submit runs the checkout with the current phone and cart.
func (s *Session) Submit(ctx context.Context) (domain.SubmissionState, error) {
	return s.Checkout.Submit(ctx, s.Phone.State(), s.Cart.Snapshot())
}

func (s *Session) Close() {
	s.Checkout.Close()
}

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	repo      port.CartRepository
	catalog   port.CatalogLookup
	gateway   port.OrderGateway
	scheduler Scheduler
	delay     time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics

	idleTTL time.Duration
	now     func() time.Time
	gets    uint64
}

func NewSessionManager(repo port.CartRepository, catalog port.CatalogLookup, gateway port.OrderGateway, scheduler Scheduler, delay time.Duration, logger *zap.Logger, m *metrics.Metrics) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		sessions:  make(map[string]*Session),
		repo:      repo,
		catalog:   catalog,
		gateway:   gateway,
		scheduler: scheduler,
		delay:     delay,
		logger:    logger,
		metrics:   m,
		idleTTL:   DefaultSessionIdleTTL,
		now:       time.Now,
	}
}

// SetIdleTTL sets how long a session may go unused before it is evicted.
// A non-positive ttl disables eviction.
func (m *SessionManager) SetIdleTTL(ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleTTL = ttl
}

// Get returns the session for id, creating and hydrating it on first use.
// Every call marks the session as seen.
func (m *SessionManager) Get(ctx context.Context, id string) *Session {
	m.mu.Lock()
	now := m.now()
	sess, ok := m.sessions[id]
	if ok {
		sess.lastSeen = now
	}

	m.gets++
	var idle []*Session
	if m.gets%sweepEvery == 0 {
		idle = m.takeIdleLocked(now)
	}

	if !ok {
		sess = m.openLocked(ctx, id)
		sess.lastSeen = now
	}
	m.mu.Unlock()

	m.closeEvicted(idle)
	return sess
}

func (m *SessionManager) openLocked(ctx context.Context, id string) *Session {
	logger := m.logger.With(zap.String("session_id", id))
	cart := NewCartStore(id, m.repo, m.catalog, logger, m.metrics)
	phone := NewPhoneInput()
	sess := &Session{
		ID:       id,
		Cart:     cart,
		Phone:    phone,
		Checkout: NewCheckoutSubmitter(m.gateway, cart, phone, m.scheduler, m.delay, logger, m.metrics),
	}
	cart.Hydrate(ctx)

	m.sessions[id] = sess
	m.metrics.SessionOpened()
	logger.Debug("session started", zap.Int("lines", len(cart.Snapshot().Lines)))
	return sess
}

// EvictIdle closes every session unused for longer than the idle TTL and
// returns how many were closed. A pending confirmation completes on close.
func (m *SessionManager) EvictIdle(now time.Time) int {
	m.mu.Lock()
	idle := m.takeIdleLocked(now)
	m.mu.Unlock()

	m.closeEvicted(idle)
	return len(idle)
}

// RunJanitor calls EvictIdle every interval until ctx is done.
func (m *SessionManager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(m.now()); n > 0 {
				m.logger.Debug("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (m *SessionManager) takeIdleLocked(now time.Time) []*Session {
	if m.idleTTL <= 0 {
		return nil
	}
	cutoff := now.Add(-m.idleTTL)
	var idle []*Session
	for id, sess := range m.sessions {
		if sess.lastSeen.Before(cutoff) {
			idle = append(idle, sess)
			delete(m.sessions, id)
		}
	}
	return idle
}

func (m *SessionManager) closeEvicted(idle []*Session) {
	for _, sess := range idle {
		sess.Close()
		m.metrics.SessionClosed()
	}
}

// Close ends and forgets the session. The persisted cart is kept.
func (m *SessionManager) Close(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	sess.Close()
	m.metrics.SessionClosed()
	return true
}

func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
		m.metrics.SessionClosed()
	}
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
