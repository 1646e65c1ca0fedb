// Package dynamo persists notes in a DynamoDB table. With a nil client
// it falls back to an in-memory map, which is what the tests use.
package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/asahino/scribe/internal/model"
	"github.com/asahino/scribe/internal/store"
)

// Store implements store.NoteStore.
type Store struct {
	client    *dynamodb.Client
	tableName string

	// In-memory fallback, keyed by note id.
	notes map[string]model.Note
	mu    sync.RWMutex
}

// NewStore creates a Store over the given table.
func NewStore(client *dynamodb.Client, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		notes:     make(map[string]model.Note),
	}
}

// Create stores a new unpinned note owned by ownerID.
func (s *Store) Create(ctx context.Context, ownerID, title, content string, tags []string) (*model.Note, error) {
	if tags == nil {
		tags = []string{}
	}
	note := model.Note{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		Tags:      append([]string(nil), tags...),
		IsPinned:  false,
		CreatedAt: time.Now(),
	}
	if err := s.put(ctx, note); err != nil {
		return nil, err
	}
	return &note, nil
}

// Get returns the note only if it exists and belongs to ownerID.
func (s *Store) Get(ctx context.Context, ownerID, noteID string) (*model.Note, error) {
	note, err := s.fetch(ctx, noteID)
	if err != nil {
		return nil, err
	}
	// Ownership is checked here, not left to a query filter, so a note
	// owned by someone else is indistinguishable from a missing one.
	if note.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return note, nil
}

// Update applies the non-nil fields of update and returns the result.
func (s *Store) Update(ctx context.Context, ownerID, noteID string, update store.NoteUpdate) (*model.Note, error) {
	note, err := s.Get(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		note.Title = *update.Title
	}
	if update.Content != nil {
		note.Content = *update.Content
	}
	if update.Tags != nil {
		tags := *update.Tags
		if tags == nil {
			tags = []string{}
		}
		note.Tags = append([]string(nil), tags...)
	}
	if update.IsPinned != nil {
		note.IsPinned = *update.IsPinned
	}

	if err := s.put(ctx, *note); err != nil {
		return nil, err
	}
	return note, nil
}

// SetPinned updates only the pinned flag.
func (s *Store) SetPinned(ctx context.Context, ownerID, noteID string, pinned bool) (*model.Note, error) {
	return s.Update(ctx, ownerID, noteID, store.NoteUpdate{IsPinned: &pinned})
}

// Delete removes the note permanently.
func (s *Store) Delete(ctx context.Context, ownerID, noteID string) error {
	if _, err := s.Get(ctx, ownerID, noteID); err != nil {
		return err
	}

	if s.client == nil {
		s.mu.Lock()
		delete(s.notes, noteID)
		s.mu.Unlock()
		return nil
	}

	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: noteID},
		},
	}); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// List returns all of the owner's notes, pinned first, newest first
// within each group.
func (s *Store) List(ctx context.Context, ownerID string) ([]model.Note, error) {
	notes, err := s.scanByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sortNotes(notes)
	return notes, nil
}

// Search returns the owner's notes matching the query, ordered like
// List. A blank query returns an empty result rather than all notes.
func (s *Store) Search(ctx context.Context, ownerID, query string) ([]model.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Note{}, nil
	}

	notes, err := s.scanByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	matched := notes[:0]
	for _, note := range notes {
		if noteMatches(note, query) {
			matched = append(matched, note)
		}
	}
	sortNotes(matched)
	return matched, nil
}

// noteMatches reports whether the query is a case-insensitive
// substring of the title, content, or any tag.
func noteMatches(note model.Note, query string) bool {
	if containsIgnoreCase(note.Title, query) || containsIgnoreCase(note.Content, query) {
		return true
	}
	for _, tag := range note.Tags {
		if containsIgnoreCase(tag, query) {
			return true
		}
	}
	return false
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortNotes orders pinned notes before unpinned ones, newest first
// within each group. This ordering is part of the API contract.
func sortNotes(notes []model.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].IsPinned != notes[j].IsPinned {
			return notes[i].IsPinned
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

// fetch reads a note by id without an ownership check. Callers must go
// through Get.
func (s *Store) fetch(ctx context.Context, noteID string) (*model.Note, error) {
	if s.client == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		note, ok := s.notes[noteID]
		if !ok {
			return nil, store.ErrNotFound
		}
		note.Tags = append([]string(nil), note.Tags...)
		return &note, nil
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: noteID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if out.Item == nil {
		return nil, store.ErrNotFound
	}

	var note model.Note
	if err := attributevalue.UnmarshalMap(out.Item, &note); err != nil {
		return nil, fmt.Errorf("unmarshal note: %w", err)
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	return &note, nil
}

func (s *Store) scanByOwner(ctx context.Context, ownerID string) ([]model.Note, error) {
	if s.client == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		notes := []model.Note{}
		for _, note := range s.notes {
			if note.OwnerID == ownerID {
				note.Tags = append([]string(nil), note.Tags...)
				notes = append(notes, note)
			}
		}
		return notes, nil
	}

	notes := []model.Note{}
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			FilterExpression:  aws.String("owner_id = :oid"),
			ExclusiveStartKey: startKey,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":oid": &types.AttributeValueMemberS{Value: ownerID},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("scan notes: %w", err)
		}

		var page []model.Note
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal notes: %w", err)
		}
		notes = append(notes, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	for i := range notes {
		if notes[i].Tags == nil {
			notes[i].Tags = []string{}
		}
	}
	return notes, nil
}

func (s *Store) put(ctx context.Context, note model.Note) error {
	if s.client == nil {
		s.mu.Lock()
		s.notes[note.ID] = note
		s.mu.Unlock()
		return nil
	}

	item, err := attributevalue.MarshalMap(note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}
