package permission

import (
	"testing"

	"collab-notes-be/internal/entity"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genKind() gopter.Gen {
	return gen.OneConstOf(
		entity.PermissionPrivate,
		entity.PermissionSharedRead,
		entity.PermissionSharedWrite,
	)
}

func genIdentities() gopter.Gen {
	return gen.SliceOf(gen.OneConstOf("alice", "bob", "carol", "dave", "eve"))
}

func genNote() gopter.Gen {
	return gopter.CombineGens(genKind(), genIdentities(), genIdentities()).
		Map(func(vals []interface{}) *entity.Note {
			return &entity.Note{
				Author:         "alice",
				PermissionKind: vals[0].(entity.PermissionKind),
				Readers:        vals[1].([]string),
				Writers:        vals[2].([]string),
			}
		})
}

func TestEvaluatorProperties(t *testing.T) {
	e := NewEvaluator()
	properties := gopter.NewProperties(nil)

	properties.Property("author always reads and writes", prop.ForAll(
		func(note *entity.Note) bool {
			return e.CanRead(note, "alice") && e.CanWrite(note, "alice")
		},
		genNote(),
	))

	properties.Property("write access implies read access", prop.ForAll(
		func(note *entity.Note, identity string) bool {
			if e.CanWrite(note, identity) {
				return e.CanRead(note, identity)
			}
			return true
		},
		genNote(),
		gen.OneConstOf("alice", "bob", "carol", "dave", "eve"),
	))

	properties.Property("private notes admit only the author", prop.ForAll(
		func(note *entity.Note, identity string) bool {
			note.PermissionKind = entity.PermissionPrivate
			if identity == note.Author {
				return true
			}
			return !e.CanRead(note, identity) && !e.CanWrite(note, identity)
		},
		genNote(),
		gen.OneConstOf("alice", "bob", "carol", "dave", "eve"),
	))

	properties.Property("nobody outside the sets touches a shared note", prop.ForAll(
		func(note *entity.Note) bool {
			return !e.CanRead(note, "mallory") && !e.CanWrite(note, "mallory")
		},
		genNote(),
	))

	properties.TestingRun(t)
}
