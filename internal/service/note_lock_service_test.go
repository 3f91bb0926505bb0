package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"collab-notes-be/internal/dto"
	"collab-notes-be/internal/entity"
	"collab-notes-be/internal/repository/memory"
	"collab-notes-be/pkg/keymutex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTTL = 10 * time.Minute

func newLockServiceForTest() (INoteLockService, *fakeRepositoryFactory) {
	factory := newFakeRepositoryFactory()
	svc := NewNoteLockService(
		factory,
		&collectingPublisher{},
		memory.NewEditSessionRepository(testTTL),
		keymutex.New(),
		testTTL,
		noopLogger{},
	)
	return svc, factory
}

func sharedWriteNote(author string, writers ...string) *entity.Note {
	return &entity.Note{
		Id:             uuid.New(),
		Title:          "Sprint plan",
		Content:        "Draft",
		Author:         author,
		UserId:         uuid.New(),
		PermissionKind: entity.PermissionSharedWrite,
		Writers:        writers,
		CreatedAt:      time.Now(),
	}
}

func TestAcquireGrantsUnlockedNote(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice", "bob")
	seedNote(factory, note)

	before := time.Now()
	res, err := svc.Acquire(context.Background(), note.Id, "alice")

	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.Equal(t, "alice", res.CurrentHolder)
	require.NotNil(t, res.ExpiresAt)
	assert.WithinDuration(t, before.Add(testTTL), *res.ExpiresAt, 2*time.Second)
}

func TestAcquireDeniedWhenHeldByOther(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice", "bob")
	seedNote(factory, note)

	_, err := svc.Acquire(context.Background(), note.Id, "alice")
	require.NoError(t, err)

	res, err := svc.Acquire(context.Background(), note.Id, "bob")

	require.NoError(t, err)
	assert.False(t, res.Granted)
	assert.Equal(t, "alice", res.CurrentHolder)
	assert.NotNil(t, res.ExpiresAt)
}

func TestAcquireForbiddenWithoutWriteAccess(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := &entity.Note{
		Id:             uuid.New(),
		Title:          "Diary",
		Content:        "Secret",
		Author:         "alice",
		UserId:         uuid.New(),
		PermissionKind: entity.PermissionPrivate,
		CreatedAt:      time.Now(),
	}
	seedNote(factory, note)

	_, err := svc.Acquire(context.Background(), note.Id, "bob")

	assert.True(t, dto.IsForbidden(err))
}

func TestAcquireUnknownNote(t *testing.T) {
	svc, _ := newLockServiceForTest()

	_, err := svc.Acquire(context.Background(), uuid.New(), "alice")

	assert.True(t, dto.IsNotFound(err))
}

func TestSelfReacquireDoesNotResetClock(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice")
	seedNote(factory, note)

	ctx := context.Background()
	first, err := svc.Acquire(ctx, note.Id, "alice")
	require.NoError(t, err)

	stored, err := factory.uow.notes.FindOne(ctx)
	require.NoError(t, err)
	acquiredAt := *stored.LockAcquiredAt

	second, err := svc.Acquire(ctx, note.Id, "alice")
	require.NoError(t, err)
	assert.True(t, second.Granted)
	assert.Equal(t, *first.ExpiresAt, *second.ExpiresAt)

	stored, err = factory.uow.notes.FindOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, acquiredAt, *stored.LockAcquiredAt)
	assert.Equal(t, *first.ExpiresAt, *stored.LockExpiresAt)
}

func TestAcquireReclaimsExpiredLock(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice", "bob")
	past := time.Now().Add(-time.Minute)
	holder := "alice"
	acquired := past.Add(-testTTL)
	note.LockedBy = &holder
	note.LockAcquiredAt = &acquired
	note.LockExpiresAt = &past
	seedNote(factory, note)

	res, err := svc.Acquire(context.Background(), note.Id, "bob")

	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.Equal(t, "bob", res.CurrentHolder)

	stored, err := factory.uow.notes.FindOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob", *stored.LockedBy)
}

func TestReleaseWithoutLockIsIdempotent(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice")
	seedNote(factory, note)

	res, err := svc.Release(context.Background(), note.Id, "alice")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "note was not locked", res.Message)
}

func TestReleaseByNonHolderForbidden(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice", "bob")
	seedNote(factory, note)

	ctx := context.Background()
	_, err := svc.Acquire(ctx, note.Id, "alice")
	require.NoError(t, err)

	_, err = svc.Release(ctx, note.Id, "bob")

	assert.True(t, dto.IsForbidden(err))

	// The holder's lock survived the attempt.
	stored, err := factory.uow.notes.FindOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", *stored.LockedBy)
}

func TestReleaseClearsHeldLock(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice")
	seedNote(factory, note)

	ctx := context.Background()
	_, err := svc.Acquire(ctx, note.Id, "alice")
	require.NoError(t, err)

	res, err := svc.Release(ctx, note.Id, "alice")

	require.NoError(t, err)
	assert.True(t, res.Success)

	stored, err := factory.uow.notes.FindOne(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored.LockedBy)
	assert.Nil(t, stored.LockAcquiredAt)
	assert.Nil(t, stored.LockExpiresAt)
}

func TestRenewExtendsExpiry(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice")
	seedNote(factory, note)

	ctx := context.Background()
	first, err := svc.Acquire(ctx, note.Id, "alice")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	res, err := svc.Renew(ctx, note.Id, "alice")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.ExpiresAt.After(*first.ExpiresAt))

	stored, err := factory.uow.notes.FindOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, *res.ExpiresAt, *stored.LockExpiresAt)
}

func TestRenewWithoutActiveLockFails(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice")
	seedNote(factory, note)

	res, err := svc.Renew(context.Background(), note.Id, "alice")

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no active lock to renew", res.Message)
}

func TestRenewByNonHolderForbidden(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice", "bob")
	seedNote(factory, note)

	ctx := context.Background()
	_, err := svc.Acquire(ctx, note.Id, "alice")
	require.NoError(t, err)

	_, err = svc.Renew(ctx, note.Id, "bob")

	assert.True(t, dto.IsForbidden(err))
}

func TestStatusReportsLazyExpiry(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice", "bob")
	past := time.Now().Add(-time.Second)
	holder := "alice"
	note.LockedBy = &holder
	note.LockAcquiredAt = &past
	note.LockExpiresAt = &past
	seedNote(factory, note)

	res, err := svc.Status(context.Background(), note.Id, "bob")

	require.NoError(t, err)
	assert.False(t, res.Locked)
	assert.True(t, res.CanEditNow)
}

func TestStatusWhileHeld(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice", "bob")
	seedNote(factory, note)

	ctx := context.Background()
	_, err := svc.Acquire(ctx, note.Id, "alice")
	require.NoError(t, err)

	forHolder, err := svc.Status(ctx, note.Id, "alice")
	require.NoError(t, err)
	assert.True(t, forHolder.Locked)
	assert.Equal(t, "alice", forHolder.Holder)
	assert.True(t, forHolder.CanEditNow)

	forOther, err := svc.Status(ctx, note.Id, "bob")
	require.NoError(t, err)
	assert.True(t, forOther.Locked)
	assert.False(t, forOther.CanEditNow)
}

func TestSweepExpiredClearsOnlyExpiredLocks(t *testing.T) {
	svc, factory := newLockServiceForTest()
	ctx := context.Background()

	expired := sharedWriteNote("alice")
	past := time.Now().Add(-time.Minute)
	holder := "alice"
	expired.LockedBy = &holder
	expired.LockAcquiredAt = &past
	expired.LockExpiresAt = &past
	seedNote(factory, expired)

	active := sharedWriteNote("carol")
	seedNote(factory, active)
	_, err := svc.Acquire(ctx, active.Id, "carol")
	require.NoError(t, err)

	cleared, err := svc.SweepExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	swept, err := factory.uow.notes.FindOne(ctx, byIDSpec(expired.Id))
	require.NoError(t, err)
	assert.Nil(t, swept.LockedBy)

	kept, err := factory.uow.notes.FindOne(ctx, byIDSpec(active.Id))
	require.NoError(t, err)
	assert.Equal(t, "carol", *kept.LockedBy)
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	svc, factory := newLockServiceForTest()
	note := sharedWriteNote("alice", "bob", "carol", "dave")
	seedNote(factory, note)

	identities := []string{"bob", "carol", "dave"}
	granted := make([]bool, len(identities))

	var wg sync.WaitGroup
	for i, who := range identities {
		wg.Add(1)
		go func(i int, who string) {
			defer wg.Done()
			res, err := svc.Acquire(context.Background(), note.Id, who)
			if err != nil {
				t.Errorf("acquire %s: %v", who, err)
				return
			}
			granted[i] = res.Granted
		}(i, who)
	}
	wg.Wait()

	winners := 0
	for _, g := range granted {
		if g {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}
