package notification

import (
	"context"
	"testing"
	"time"

	"collab-notes-be/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func eventFor(noteId uuid.UUID) dto.NoteEventMessage {
	return dto.NoteEventMessage{
		Type:       "NOTE_LOCKED",
		NoteId:     noteId,
		Username:   "alice",
		OccurredAt: time.Now(),
	}
}

func TestPublishDeliversToWatchersOfThatNote(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	noteId := uuid.New()
	otherId := uuid.New()

	first := hub.Watch(noteId)
	second := hub.Watch(noteId)
	bystander := hub.Watch(otherId)

	hub.Publish(context.Background(), eventFor(noteId))

	for _, w := range []*Watcher{first, second} {
		select {
		case got := <-w.Events:
			assert.Equal(t, noteId, got.NoteId)
			assert.Equal(t, "alice", got.Username)
		default:
			t.Fatal("watcher did not receive the event")
		}
	}

	select {
	case <-bystander.Events:
		t.Fatal("watcher of a different note received the event")
	default:
	}
}

func TestSlowWatcherDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	noteId := uuid.New()
	w := hub.Watch(noteId)

	// Fill the buffer without draining, then publish one more. Publish
	// must return rather than block on the full channel.
	capacity := cap(w.Events)
	for i := 0; i < capacity+1; i++ {
		hub.Publish(context.Background(), eventFor(noteId))
	}

	assert.Equal(t, capacity, len(w.Events))
}

func TestUnwatchClosesChannelAndStopsDelivery(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	noteId := uuid.New()
	w := hub.Watch(noteId)

	hub.Unwatch(w)

	_, open := <-w.Events
	require.False(t, open, "channel should be closed after Unwatch")

	// Publishing after the last watcher left must not panic or deliver.
	hub.Publish(context.Background(), eventFor(noteId))
}

func TestUnwatchLeavesOtherWatchersIntact(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	noteId := uuid.New()

	leaving := hub.Watch(noteId)
	staying := hub.Watch(noteId)

	hub.Unwatch(leaving)
	hub.Publish(context.Background(), eventFor(noteId))

	select {
	case got := <-staying.Events:
		assert.Equal(t, noteId, got.NoteId)
	default:
		t.Fatal("remaining watcher did not receive the event")
	}
}

func TestRunWithoutRedisWaitsForCancel(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
