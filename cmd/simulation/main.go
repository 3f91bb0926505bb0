package main

import (
	"context"
	"fmt"
	"log"

	"collab-notes-be/internal/bootstrap"
	"collab-notes-be/internal/config"
	"collab-notes-be/internal/dto"
	"collab-notes-be/pkg/database"
)

// Walks a full collaborative edit session against a live database:
// two users, a shared note, lock contention, a conflicting save, and a
// version restore.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	ctx := context.Background()

	fmt.Println("=== Collaborative Edit Session Simulation ===")

	alice, err := container.UserService.Register(ctx, "alice", "alice@example.com", "Alice")
	if err != nil {
		log.Fatalf("Register alice: %v", err)
	}
	if _, err := container.UserService.Register(ctx, "bob", "bob@example.com", "Bob"); err != nil {
		log.Fatalf("Register bob: %v", err)
	}

	note, err := container.NoteService.Create(ctx, alice.Id, "alice", &dto.CreateNoteRequest{
		Title:   "Team meeting notes",
		Content: "Agenda: roadmap review",
	})
	if err != nil {
		log.Fatalf("Create note: %v", err)
	}
	fmt.Printf("Note created: %s (version %d)\n", note.Id, note.CurrentVersion)

	// Share with bob as a writer.
	note, err = container.NoteService.UpdatePermissions(ctx, note.Id, "alice", &dto.UpdatePermissionsRequest{
		PermissionKind: "SHARED_WRITE",
		Writers:        []string{"bob"},
	})
	if err != nil {
		log.Fatalf("Update permissions: %v", err)
	}
	fmt.Printf("Shared with bob as writer (%s)\n", note.PermissionKind)

	// Alice takes the edit lock; bob is denied.
	acq, err := container.NoteLockService.Acquire(ctx, note.Id, "alice")
	if err != nil {
		log.Fatalf("Acquire alice: %v", err)
	}
	fmt.Printf("alice acquire: granted=%v expires=%s\n", acq.Granted, acq.ExpiresAt)

	denied, err := container.NoteLockService.Acquire(ctx, note.Id, "bob")
	if err != nil {
		log.Fatalf("Acquire bob: %v", err)
	}
	fmt.Printf("bob acquire: granted=%v holder=%s\n", denied.Granted, denied.CurrentHolder)

	// Alice saves; the lock is released by the save path.
	saved, err := container.NoteService.Update(ctx, "alice", &dto.UpdateNoteRequest{
		Id:                note.Id,
		Title:             "Team meeting notes",
		Content:           "Agenda: roadmap review. Decisions: ship v2",
		BaseVersion:       note.CurrentVersion,
		ChangeDescription: "Added decisions",
	})
	if err != nil {
		log.Fatalf("Save alice: %v", err)
	}
	fmt.Printf("alice saved version %d\n", saved.CurrentVersion)

	// Bob saves from a stale base version with different content.
	_, err = container.NoteService.Update(ctx, "bob", &dto.UpdateNoteRequest{
		Id:          note.Id,
		Title:       "Team meeting notes",
		Content:     "Agenda: something else entirely",
		BaseVersion: note.CurrentVersion, // stale
	})
	if dto.IsVersionConflict(err) {
		fmt.Printf("bob save rejected: %v\n", err)
	} else if err != nil {
		log.Fatalf("Save bob: unexpected error: %v", err)
	} else {
		log.Fatal("Save bob: expected a version conflict")
	}

	// History and restore.
	history, err := container.NoteVersionService.GetHistory(ctx, note.Id, "alice")
	if err != nil {
		log.Fatalf("History: %v", err)
	}
	fmt.Printf("history has %d versions\n", len(history))

	restored, err := container.NoteService.RestoreVersion(ctx, note.Id, "alice", &dto.RestoreVersionRequest{
		VersionNumber: 1,
	})
	if err != nil {
		log.Fatalf("Restore: %v", err)
	}
	fmt.Printf("restored to v1 content as new version %d: %q\n", restored.CurrentVersion, restored.Content)

	fmt.Println("=== Simulation complete ===")
}
