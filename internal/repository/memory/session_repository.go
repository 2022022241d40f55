package memory

import (
	"time"

	"notevault/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps vault sessions in process memory. A session that
// is not touched for the idle timeout is evicted.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(idleTimeout time.Duration) *SessionRepository {
	if idleTimeout <= 0 {
		idleTimeout = time.Hour
	}
	// purge expired sessions at a tenth of the idle window, but not more
	// often than once a minute
	cleanup := idleTimeout / 10
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &SessionRepository{
		cache: cache.New(idleTimeout, cleanup),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get returns the session and extends its expiry.
func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	session := x.(*store.Session)
	r.cache.Set(sessionID, session, cache.DefaultExpiration)
	return session, true
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
