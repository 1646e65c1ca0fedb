package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/asahino/scribe/internal/store"
	"github.com/asahino/scribe/internal/token"
)

// NoteHandler handles CRUD and search operations for notes.
type NoteHandler struct {
	notes  store.NoteStore
	tokens *token.Service
	logger *slog.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(notes store.NoteStore, tokens *token.Service, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, tokens: tokens, logger: logger}
}

// decodeTags interprets the raw tags field. Absent or not list-shaped
// means an empty sequence, never an error.
func decodeTags(raw json.RawMessage) []string {
	tags := []string{}
	if len(raw) > 0 {
		var decoded []string
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded != nil {
			tags = decoded
		}
	}
	return tags
}

// AddNote handles POST /add-note.
func (h *NoteHandler) AddNote(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, ownerID, err := Authenticate(ctx, req, h.tokens)
	if err != nil {
		return authFailure(err), nil
	}

	var input struct {
		Title   string          `json:"title"`
		Content string          `json:"content"`
		Tags    json.RawMessage `json:"tags"`
	}
	if err := json.Unmarshal([]byte(req.Body), &input); err != nil {
		return failResponse(http.StatusBadRequest, "Invalid request body"), nil
	}
	if input.Title == "" || input.Content == "" {
		return failResponse(http.StatusBadRequest, "title and content are required"), nil
	}

	note, err := h.notes.Create(ctx, ownerID, input.Title, input.Content, decodeTags(input.Tags))
	if err != nil {
		return internalError(h.logger, "add-note", err, "Failed to create note"), nil
	}

	return jsonResponse(http.StatusCreated, map[string]any{
		"note":    note,
		"message": "Note created successfully",
	}), nil
}

// EditNote handles PUT /edit-note/{noteId} and its POST /edit-note
// alias with the id in the body. Absent fields are left unchanged.
func (h *NoteHandler) EditNote(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, ownerID, err := Authenticate(ctx, req, h.tokens)
	if err != nil {
		return authFailure(err), nil
	}

	var input struct {
		NoteID   string          `json:"noteId"`
		Title    *string         `json:"title"`
		Content  *string         `json:"content"`
		Tags     json.RawMessage `json:"tags"`
		IsPinned *bool           `json:"isPinned"`
	}
	if req.Body != "" {
		if err := json.Unmarshal([]byte(req.Body), &input); err != nil {
			return failResponse(http.StatusBadRequest, "Invalid request body"), nil
		}
	}

	noteID := req.PathParameters["noteId"]
	if noteID == "" {
		noteID = input.NoteID
	}
	if noteID == "" {
		return failResponse(http.StatusBadRequest, "noteId is required"), nil
	}

	update := store.NoteUpdate{
		Title:    input.Title,
		Content:  input.Content,
		IsPinned: input.IsPinned,
	}
	if len(input.Tags) > 0 {
		tags := decodeTags(input.Tags)
		update.Tags = &tags
	}

	note, err := h.notes.Update(ctx, ownerID, noteID, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failResponse(http.StatusNotFound, "Note not found"), nil
		}
		return internalError(h.logger, "edit-note", err, "Failed to update note"), nil
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"note":    note,
		"message": "Note updated successfully",
	}), nil
}

// DeleteNote handles DELETE /delete-note/{noteId} and its POST
// /delete-note alias with the id in the body.
func (h *NoteHandler) DeleteNote(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, ownerID, err := Authenticate(ctx, req, h.tokens)
	if err != nil {
		return authFailure(err), nil
	}

	noteID := req.PathParameters["noteId"]
	if noteID == "" && req.Body != "" {
		var input struct {
			NoteID string `json:"noteId"`
		}
		if err := json.Unmarshal([]byte(req.Body), &input); err != nil {
			return failResponse(http.StatusBadRequest, "Invalid request body"), nil
		}
		noteID = input.NoteID
	}
	if noteID == "" {
		return failResponse(http.StatusBadRequest, "noteId is required"), nil
	}

	if err := h.notes.Delete(ctx, ownerID, noteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failResponse(http.StatusNotFound, "Note not found"), nil
		}
		return internalError(h.logger, "delete-note", err, "Failed to delete note"), nil
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"message": "Note deleted successfully",
	}), nil
}

// ListNotes handles GET /get-all-notes.
func (h *NoteHandler) ListNotes(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, ownerID, err := Authenticate(ctx, req, h.tokens)
	if err != nil {
		return authFailure(err), nil
	}

	notes, err := h.notes.List(ctx, ownerID)
	if err != nil {
		return internalError(h.logger, "get-all-notes", err, "Failed to retrieve notes"), nil
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"notes":   notes,
		"message": "Notes retrieved successfully",
	}), nil
}

// SearchNotes handles GET /search-notes?query=.
func (h *NoteHandler) SearchNotes(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, ownerID, err := Authenticate(ctx, req, h.tokens)
	if err != nil {
		return authFailure(err), nil
	}

	notes, err := h.notes.Search(ctx, ownerID, req.QueryStringParameters["query"])
	if err != nil {
		return internalError(h.logger, "search-notes", err, "Failed to search notes"), nil
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"notes":   notes,
		"message": "Notes retrieved successfully",
	}), nil
}
