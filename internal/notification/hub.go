// FILE: internal/notification/hub.go
package notification

import (
	"context"
	"encoding/json"
	"sync"

	"collab-notes-be/internal/dto"
	"collab-notes-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "note_events"

// Watcher receives events about a single note, e.g. a collaborator's UI
// tracking lock changes while viewing the note.
type Watcher struct {
	NoteId uuid.UUID
	Events chan dto.NoteEventMessage
}

// Hub fans note events out to local watchers and, when Redis is
// configured, to watchers on other instances via pub/sub.
type Hub struct {
	// Registered watchers map: NoteID -> List of Watchers (multi-viewer)
	watchers map[uuid.UUID][]*Watcher

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Identifies this instance so its own Redis publishes are skipped.
	instanceId string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		watchers:   make(map[uuid.UUID][]*Watcher),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

// Run starts the cross-instance subscriber. It returns when the context
// is cancelled. Without Redis the hub still serves local watchers.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		<-ctx.Done()
		return
	}
	h.subscribeToRedis(ctx)
}

func (h *Hub) Watch(noteId uuid.UUID) *Watcher {
	w := &Watcher{
		NoteId: noteId,
		Events: make(chan dto.NoteEventMessage, 16),
	}

	h.mu.Lock()
	h.watchers[noteId] = append(h.watchers[noteId], w)
	h.mu.Unlock()

	h.logger.Info("Hub", "Watcher registered", map[string]interface{}{"note_id": noteId})
	return w
}

func (h *Hub) Unwatch(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	watchers, ok := h.watchers[w.NoteId]
	if !ok {
		return
	}
	for i, existing := range watchers {
		if existing == w {
			h.watchers[w.NoteId] = append(watchers[:i], watchers[i+1:]...)
			close(w.Events)
			break
		}
	}
	if len(h.watchers[w.NoteId]) == 0 {
		delete(h.watchers, w.NoteId)
	}
}

// Publish delivers an event to this instance's watchers and forwards it
// to other instances through Redis.
func (h *Hub) Publish(ctx context.Context, event dto.NoteEventMessage) {
	h.deliverLocal(event)

	if h.rdb == nil {
		return
	}

	payload := map[string]interface{}{
		"origin": h.instanceId,
		"event":  event,
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := h.rdb.Publish(ctx, clusterChannel, jsonPayload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Hub) deliverLocal(event dto.NoteEventMessage) {
	h.mu.RLock()
	watchers := h.watchers[event.NoteId]
	for _, w := range watchers {
		select {
		case w.Events <- event:
		default:
			// Slow watcher, drop rather than block the hub.
			h.logger.Warn("Hub", "Watcher buffer full, dropping event", map[string]interface{}{
				"note_id": event.NoteId,
			})
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var payload struct {
				Origin string               `json:"origin"`
				Event  dto.NoteEventMessage `json:"event"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}

			// Our own publishes already went to local watchers.
			if payload.Origin == h.instanceId {
				continue
			}

			h.deliverLocal(payload.Event)
		}
	}
}
