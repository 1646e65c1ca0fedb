// Package store defines how notes are persisted and queried.
package store

import (
	"context"
	"errors"

	"github.com/asahino/scribe/internal/model"
)

// ErrNotFound is returned when a note does not exist or belongs to a
// different owner. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("note not found")

// NoteUpdate is a partial update. Nil fields are left unchanged.
type NoteUpdate struct {
	Title    *string
	Content  *string
	Tags     *[]string
	IsPinned *bool
}

// NoteStore owns the note lifecycle. Every method takes the
// authenticated owner id and is implicitly scoped to it: notes owned
// by anyone else behave exactly as if they did not exist.
type NoteStore interface {
	// Create stores a new unpinned note.
	Create(ctx context.Context, ownerID, title, content string, tags []string) (*model.Note, error)

	// Update applies a partial update and returns the updated note.
	Update(ctx context.Context, ownerID, noteID string, update NoteUpdate) (*model.Note, error)

	// SetPinned updates only the pinned flag.
	SetPinned(ctx context.Context, ownerID, noteID string, pinned bool) (*model.Note, error)

	// Delete removes a note permanently.
	Delete(ctx context.Context, ownerID, noteID string) error

	// List returns all of the owner's notes, pinned notes first and
	// newest first within each group.
	List(ctx context.Context, ownerID string) ([]model.Note, error)

	// Search returns the owner's notes whose title, content, or any tag
	// contains the query, case-insensitively, ordered like List. A
	// blank query returns an empty result.
	Search(ctx context.Context, ownerID, query string) ([]model.Note, error)
}
