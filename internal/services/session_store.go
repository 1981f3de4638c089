package services

import (
	"sync"
	"time"

	"github.com/ad/go-telegram-recipes/internal/models"
)

// SessionStore keeps the active walkthrough of each chat in memory. Entries
// are lost on restart and expire after ttl of inactivity; both are treated
// as a miss by the walkthrough engine, which regenerates from the recipe.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.WalkthroughSession
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*models.WalkthroughSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) Get(chatID int64) (*models.WalkthroughSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return nil, false
	}
	if s.expired(sess) {
		delete(s.sessions, chatID)
		return nil, false
	}
	return sess.Clone(), true
}

// Put stores sess as the chat's only walkthrough, replacing any previous one.
func (s *SessionStore) Put(sess *models.WalkthroughSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := sess.Clone()
	c.UpdatedAt = s.now()
	s.sessions[sess.ChatID] = c
	s.sweepLocked()
}

func (s *SessionStore) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(sess *models.WalkthroughSession) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}

func (s *SessionStore) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
		}
	}
}
