package services

import (
	"log"
	"sync"
	"time"

	"github.com/barberzap/barberzap-backend/internal/models"
)

// ActorType identifies who is on the other side of a conversation
type ActorType string

const (
	ActorNone   ActorType = "none"
	ActorClient ActorType = "client"
	ActorShop   ActorType = "shop"
	ActorBarber ActorType = "barber" // reserved, login not implemented
)

// ConversationState is the cursor into the conversation state machine
type ConversationState string

const (
	StateInitial                  ConversationState = "initial"
	StateLoginTypeSelection       ConversationState = "login_type_selection"
	StateLoginClientPhone         ConversationState = "login_client_phone"
	StateLoginClientName          ConversationState = "login_client_name"
	StateLoginClientShopSelection ConversationState = "login_client_shop_selection"
	StateLoginShopEmail           ConversationState = "login_shop_email"
	StateLoginShopPassword        ConversationState = "login_shop_password"
	StateAuthenticated            ConversationState = "authenticated"
	StateCancellingAppointment    ConversationState = "cancelling_appointment"
)

// DefaultSessionTTL is how long a session survives without activity.
const DefaultSessionTTL = 30 * time.Minute

// Session is the conversation state for one normalized phone number.
// Exactly one session exists per phone key at any time.
type Session struct {
	PhoneKey       string
	ActorType      ActorType
	Authenticated  bool
	Client         *models.Client // set after a client login
	Shop           *models.Shop   // set after a shop login
	ActiveShopID   string         // shop context the actor is scoped to
	State          ConversationState
	LoginAttempts  int
	Pending        map[string]any // scratchpad for multi-step flows
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// SessionStore manages conversation sessions keyed by phone number.
// It is constructor-injected into every handler that needs it; there is
// no package-level session map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore creates a session store and starts the idle sweep,
// which runs at half the idle threshold's period.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Stop halts the background sweep
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// GetOrCreate returns the session for the phone key, creating a fresh
// one in state initial if none exists. Creation is idempotent: two
// concurrent first-contact messages yield exactly one stored session.
func (s *SessionStore) GetOrCreate(phoneKey string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, exists := s.sessions[phoneKey]; exists {
		sess.LastActivityAt = time.Now()
		return sess
	}

	sess := &Session{
		PhoneKey:       phoneKey,
		ActorType:      ActorNone,
		State:          StateInitial,
		Pending:        make(map[string]any),
		CreatedAt:      time.Now(),
		LastActivityAt: time.Now(),
	}
	s.sessions[phoneKey] = sess
	log.Printf("🆕 Session created for %s", phoneKey)
	return sess
}

// Get returns the session for the phone key, or nil
func (s *SessionStore) Get(phoneKey string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[phoneKey]
}

// SetState moves the session's state cursor
func (s *SessionStore) SetState(phoneKey string, state ConversationState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, exists := s.sessions[phoneKey]; exists {
		sess.State = state
		sess.LastActivityAt = time.Now()
	}
}

// SetActorType records the claimed role during the login funnel
func (s *SessionStore) SetActorType(phoneKey string, actor ActorType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, exists := s.sessions[phoneKey]; exists {
		sess.ActorType = actor
		sess.LastActivityAt = time.Now()
	}
}

// SetPending stores a value in the multi-step flow scratchpad
func (s *SessionStore) SetPending(phoneKey, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, exists := s.sessions[phoneKey]; exists {
		sess.Pending[key] = value
		sess.LastActivityAt = time.Now()
	}
}

// GetPending reads a value from the scratchpad
func (s *SessionStore) GetPending(phoneKey, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[phoneKey]
	if !exists {
		return nil, false
	}
	value, ok := sess.Pending[key]
	return value, ok
}

// ClearPending drops the whole scratchpad
func (s *SessionStore) ClearPending(phoneKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, exists := s.sessions[phoneKey]; exists {
		sess.Pending = make(map[string]any)
		sess.LastActivityAt = time.Now()
	}
}

// IncrementLoginAttempts bumps the attempt counter. Informational only,
// no lockout is enforced.
func (s *SessionStore) IncrementLoginAttempts(phoneKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, exists := s.sessions[phoneKey]; exists {
		sess.LoginAttempts++
		sess.LastActivityAt = time.Now()
	}
}

// LoginAsClient atomically authenticates the session as a client scoped
// to the given shop and clears the flow scratchpad.
func (s *SessionStore) LoginAsClient(phoneKey string, client *models.Client, shopID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[phoneKey]
	if !exists {
		return
	}
	sess.ActorType = ActorClient
	sess.Authenticated = true
	sess.Client = client
	sess.Shop = nil
	sess.ActiveShopID = shopID
	sess.State = StateAuthenticated
	sess.LoginAttempts = 0
	sess.Pending = make(map[string]any)
	sess.LastActivityAt = time.Now()

	log.Printf("✅ Client %s logged in on %s (shop %s)", client.ClientID, phoneKey, shopID)
}

// LoginAsShop atomically authenticates the session as a shop owner.
// The active shop context is the shop itself.
func (s *SessionStore) LoginAsShop(phoneKey string, shop *models.Shop) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[phoneKey]
	if !exists {
		return
	}
	sess.ActorType = ActorShop
	sess.Authenticated = true
	sess.Shop = shop
	sess.Client = nil
	sess.ActiveShopID = shop.ShopID
	sess.State = StateAuthenticated
	sess.LoginAttempts = 0
	sess.Pending = make(map[string]any)
	sess.LastActivityAt = time.Now()

	log.Printf("✅ Shop %s logged in on %s", shop.ShopID, phoneKey)
}

// Logout resets the session to the unauthenticated baseline in place.
// The object identity and phone key are preserved for anything holding
// a reference.
func (s *SessionStore) Logout(phoneKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[phoneKey]
	if !exists {
		return
	}
	sess.ActorType = ActorNone
	sess.Authenticated = false
	sess.Client = nil
	sess.Shop = nil
	sess.ActiveShopID = ""
	sess.State = StateInitial
	sess.LoginAttempts = 0
	sess.Pending = make(map[string]any)
	sess.LastActivityAt = time.Now()

	log.Printf("👋 Session %s logged out", phoneKey)
}

// SweepExpired removes sessions idle beyond the threshold and returns
// how many were removed. Exposed for tests; the background loop calls
// it on a ticker.
func (s *SessionStore) SweepExpired(now time.Time, idleThreshold time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for phone, sess := range s.sessions {
		if now.Sub(sess.LastActivityAt) > idleThreshold {
			delete(s.sessions, phone)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("🧹 Swept %d expired session(s)", removed)
	}
	return removed
}

// ActiveCount returns the number of live sessions (for monitoring)
func (s *SessionStore) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) sweepLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepExpired(time.Now(), s.ttl)
		case <-s.stop:
			return
		}
	}
}
