package dialog

import (
	"sync"
	"time"
)

// State says what input the bot expects next from a user. The capture flow
// is strictly linear; StateAwaitingCurrencyCode belongs to the add-currency
// side flow.
type State int

const (
	StateIdle State = iota
	StateAwaitingDate
	StateAwaitingCurrency
	StateAwaitingAmount
	StateAwaitingCategory
	StateAwaitingDescription
	StateAwaitingCurrencyCode
)

// session is the in-flight capture for one user: fields fill in one at a
// time as the dialog progresses and are moved into an expense record on
// completion.
type session struct {
	state     State
	date      string
	currency  string
	amount    float64
	category  string
	updatedAt time.Time
}

// sessionStore owns every in-flight capture, keyed by user id. Sessions are
// created on first touch and dropped again once they sit idle longer than
// the TTL, so an abandoned capture cannot linger forever.
type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[int64]*session
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:      ttl,
		sessions: make(map[int64]*session),
	}
}

func (s *sessionStore) get(userID int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok || time.Since(sess.updatedAt) > s.ttl {
		sess = &session{}
		s.sessions[userID] = sess
	}
	sess.updatedAt = time.Now()
	return sess
}

func (s *sessionStore) clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}
