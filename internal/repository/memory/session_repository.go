package memory

import (
	"time"

	"ai-buildguide-be/pkg/guide/session"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps connected sessions. Sessions idle for longer than
// the expiration are dropped as if the user had disconnected.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(idle, cleanup time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(idle, cleanup),
	}
}

func (r *SessionRepository) Save(s *session.UserSession) {
	r.cache.Set(s.ID, s, cache.DefaultExpiration)
}

// Touch restarts the idle expiration of s.
func (r *SessionRepository) Touch(s *session.UserSession) {
	r.Save(s)
}

func (r *SessionRepository) Get(sessionID string) (*session.UserSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*session.UserSession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// OnEvicted registers f for sessions that expire or are deleted.
func (r *SessionRepository) OnEvicted(f func(sessionID string)) {
	r.cache.OnEvicted(func(k string, _ interface{}) {
		f(k)
	})
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
