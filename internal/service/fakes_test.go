package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"collab-notes-be/internal/entity"
	"collab-notes-be/internal/repository/contract"
	"collab-notes-be/internal/repository/specification"
	"collab-notes-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// In-memory doubles of the repository contracts. They interpret the
// handful of specifications the services actually use and hand out
// copies, so mutating a loaded entity does not change stored state until
// Update is called, same as with a real database.

type fakeNoteRepository struct {
	mu    sync.Mutex
	notes map[uuid.UUID]*entity.Note
}

func newFakeNoteRepository() *fakeNoteRepository {
	return &fakeNoteRepository{notes: make(map[uuid.UUID]*entity.Note)}
}

func copyNote(n *entity.Note) *entity.Note {
	c := *n
	if n.LockedBy != nil {
		v := *n.LockedBy
		c.LockedBy = &v
	}
	if n.LockAcquiredAt != nil {
		v := *n.LockAcquiredAt
		c.LockAcquiredAt = &v
	}
	if n.LockExpiresAt != nil {
		v := *n.LockExpiresAt
		c.LockExpiresAt = &v
	}
	if n.UpdatedAt != nil {
		v := *n.UpdatedAt
		c.UpdatedAt = &v
	}
	c.Readers = append([]string{}, n.Readers...)
	c.Writers = append([]string{}, n.Writers...)
	c.Tags = append([]string{}, n.Tags...)
	c.Folders = append([]string{}, n.Folders...)
	return &c
}

func noteMatches(n *entity.Note, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if n.Id != s.ID {
				return false
			}
		case specification.AuthoredBy:
			if n.Author != s.Username {
				return false
			}
		case specification.Locked:
			if n.LockedBy == nil {
				return false
			}
		case specification.LockExpiredBefore:
			if n.LockExpiresAt == nil || !n.LockExpiresAt.Before(s.Time) {
				return false
			}
		default:
			panic(fmt.Sprintf("fakeNoteRepository: unsupported specification %T", spec))
		}
	}
	return true
}

func (r *fakeNoteRepository) Create(ctx context.Context, note *entity.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.notes[note.Id]; exists {
		return fmt.Errorf("duplicate note id %s", note.Id)
	}
	r.notes[note.Id] = copyNote(note)
	return nil
}

func (r *fakeNoteRepository) Update(ctx context.Context, note *entity.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.notes[note.Id]; !exists {
		return fmt.Errorf("update of missing note %s", note.Id)
	}
	r.notes[note.Id] = copyNote(note)
	return nil
}

func (r *fakeNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notes, id)
	return nil
}

func (r *fakeNoteRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notes {
		if noteMatches(n, specs) {
			return copyNote(n), nil
		}
	}
	return nil, nil
}

func (r *fakeNoteRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Note
	for _, n := range r.notes {
		if noteMatches(n, specs) {
			out = append(out, copyNote(n))
		}
	}
	return out, nil
}

func (r *fakeNoteRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeNoteVersionRepository struct {
	mu       sync.Mutex
	versions map[uuid.UUID][]*entity.NoteVersion
}

func newFakeNoteVersionRepository() *fakeNoteVersionRepository {
	return &fakeNoteVersionRepository{versions: make(map[uuid.UUID][]*entity.NoteVersion)}
}

func (r *fakeNoteVersionRepository) Create(ctx context.Context, version *entity.NoteVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions[version.NoteId] {
		if v.VersionNumber == version.VersionNumber {
			// Mirrors the unique (note_id, version_number) constraint.
			return fmt.Errorf("duplicate version %d for note %s", version.VersionNumber, version.NoteId)
		}
	}
	c := *version
	r.versions[version.NoteId] = append(r.versions[version.NoteId], &c)
	return nil
}

func versionMatches(v *entity.NoteVersion, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByNoteID:
			if v.NoteId != s.NoteID {
				return false
			}
		case specification.ByVersionNumber:
			if v.VersionNumber != s.VersionNumber {
				return false
			}
		case specification.OrderBy:
			// Ordering handled in FindAll.
		default:
			panic(fmt.Sprintf("fakeNoteVersionRepository: unsupported specification %T", spec))
		}
	}
	return true
}

func (r *fakeNoteVersionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NoteVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, list := range r.versions {
		for _, v := range list {
			if versionMatches(v, specs) {
				c := *v
				return &c, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeNoteVersionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NoteVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc := false
	for _, spec := range specs {
		if o, ok := spec.(specification.OrderBy); ok {
			desc = o.Desc
		}
	}

	var out []*entity.NoteVersion
	for _, list := range r.versions {
		for _, v := range list {
			if versionMatches(v, specs) {
				c := *v
				out = append(out, &c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].VersionNumber > out[j].VersionNumber
		}
		return out[i].VersionNumber < out[j].VersionNumber
	})
	return out, nil
}

func (r *fakeNoteVersionRepository) FindLatestByNoteId(ctx context.Context, noteId uuid.UUID) (*entity.NoteVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entity.NoteVersion
	for _, v := range r.versions[noteId] {
		if latest == nil || v.VersionNumber > latest.VersionNumber {
			latest = v
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (r *fakeNoteVersionRepository) MaxVersionNumber(ctx context.Context, noteId uuid.UUID) (int, error) {
	latest, _ := r.FindLatestByNoteId(ctx, noteId)
	if latest == nil {
		return 0, nil
	}
	return latest.VersionNumber, nil
}

func (r *fakeNoteVersionRepository) DeleteAllByNoteId(ctx context.Context, noteId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.versions, noteId)
	return nil
}

func (r *fakeNoteVersionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeUserRepository struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return fmt.Errorf("duplicate username %s", user.Username)
	}
	c := *user
	r.users[user.Username] = &c
	return nil
}

func (r *fakeUserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	panic("fakeUserRepository: FindOne not used in tests")
}

func (r *fakeUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

// fakeUnitOfWork shares one set of repositories across all units, so a
// factory behaves like a connection pool over one database.
type fakeUnitOfWork struct {
	users    *fakeUserRepository
	notes    *fakeNoteRepository
	versions *fakeNoteVersionRepository
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository { return u.users }
func (u *fakeUnitOfWork) NoteRepository() contract.NoteRepository { return u.notes }
func (u *fakeUnitOfWork) NoteVersionRepository() contract.NoteVersionRepository {
	return u.versions
}

type fakeRepositoryFactory struct {
	uow *fakeUnitOfWork
}

func newFakeRepositoryFactory() *fakeRepositoryFactory {
	return &fakeRepositoryFactory{
		uow: &fakeUnitOfWork{
			users:    newFakeUserRepository(),
			notes:    newFakeNoteRepository(),
			versions: newFakeNoteVersionRepository(),
		},
	}
}

func (f *fakeRepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// collectingPublisher records published payloads for assertions.
type collectingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *collectingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *collectingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

// noopLogger satisfies logger.ILogger without output noise.
type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func byIDSpec(id uuid.UUID) specification.Specification {
	return specification.ByID{ID: id}
}

// seedNote inserts a note directly into the fake store.
func seedNote(f *fakeRepositoryFactory, note *entity.Note) {
	if note.Id == uuid.Nil {
		note.Id = uuid.New()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	_ = f.uow.notes.Create(context.Background(), note)
}
