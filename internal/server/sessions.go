package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/banktrust/bankbot/internal/dialog"
)

// session is one authenticated conversation. Its mutex serializes turns, the
// engine requires that per session.
type session struct {
	mu      sync.Mutex
	account string
	state   *dialog.Session
}

// sessionStore maps bearer tokens to live sessions.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: map[string]*session{}}
}

// create opens a session for an account and returns its token.
func (st *sessionStore) create(account string) string {
	token := uuid.NewString()
	state := dialog.NewSession()
	state.CurrentUserAccount = account

	st.mu.Lock()
	st.sessions[token] = &session{account: account, state: state}
	st.mu.Unlock()
	return token
}

func (st *sessionStore) get(token string) (*session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[token]
	st.mu.RUnlock()
	return s, ok
}

func (st *sessionStore) drop(token string) {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
}
