package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// EditSession is the advisory in-memory view of an active edit lock, used
// for presence ("who is editing what right now"). The persisted lock fields
// on the note remain the source of truth; entries here expire on their own.
type EditSession struct {
	NoteId     uuid.UUID `json:"note_id"`
	Username   string    `json:"username"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type EditSessionRepository struct {
	cache *cache.Cache
}

// NewEditSessionRepository creates a registry whose entries live as long as
// the lock TTL and are purged shortly after expiring.
func NewEditSessionRepository(ttl time.Duration) *EditSessionRepository {
	c := cache.New(ttl, ttl/2)
	return &EditSessionRepository{
		cache: c,
	}
}

func (r *EditSessionRepository) Save(session *EditSession) {
	r.cache.Set(session.NoteId.String(), session, time.Until(session.ExpiresAt))
}

func (r *EditSessionRepository) Get(noteId uuid.UUID) (*EditSession, bool) {
	if x, found := r.cache.Get(noteId.String()); found {
		return x.(*EditSession), true
	}
	return nil, false
}

func (r *EditSessionRepository) Delete(noteId uuid.UUID) {
	r.cache.Delete(noteId.String())
}

func (r *EditSessionRepository) Count() int {
	return r.cache.ItemCount()
}
