package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/asahino/scribe/internal/auth"
	"github.com/asahino/scribe/internal/token"
)

// AuthHandler handles registration, login, and profile requests.
type AuthHandler struct {
	directory *auth.Directory
	tokens    *token.Service
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(directory *auth.Directory, tokens *token.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{directory: directory, tokens: tokens, logger: logger}
}

// CreateAccount handles POST /create-account.
func (h *AuthHandler) CreateAccount(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var input struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(req.Body), &input); err != nil {
		return failResponse(http.StatusBadRequest, "Invalid request body"), nil
	}
	if input.FullName == "" || input.Email == "" || input.Password == "" {
		return failResponse(http.StatusBadRequest, "fullName, email, and password are required"), nil
	}

	account, err := h.directory.Register(ctx, input.FullName, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return failResponse(http.StatusConflict, "Email already registered"), nil
		}
		return internalError(h.logger, "create-account", err, "Failed to create account"), nil
	}

	accessToken, err := h.tokens.Issue(account.ID)
	if err != nil {
		return internalError(h.logger, "create-account", err, "Failed to create account"), nil
	}

	return jsonResponse(http.StatusCreated, map[string]any{
		"message":     "Account created successfully",
		"accessToken": accessToken,
		"user":        account.Public(),
	}), nil
}

// Login handles POST /login.
func (h *AuthHandler) Login(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(req.Body), &input); err != nil {
		return failResponse(http.StatusBadRequest, "Invalid request body"), nil
	}
	if input.Email == "" || input.Password == "" {
		return failResponse(http.StatusBadRequest, "email and password are required"), nil
	}

	account, err := h.directory.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return failResponse(http.StatusUnauthorized, "Invalid credentials"), nil
		}
		return internalError(h.logger, "login", err, "Failed to login"), nil
	}

	accessToken, err := h.tokens.Issue(account.ID)
	if err != nil {
		return internalError(h.logger, "login", err, "Failed to login"), nil
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"message":     "Login successful",
		"accessToken": accessToken,
		"email":       account.Email,
	}), nil
}

// GetUser handles GET /get-user.
func (h *AuthHandler) GetUser(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, ownerID, err := Authenticate(ctx, req, h.tokens)
	if err != nil {
		return authFailure(err), nil
	}

	account, err := h.directory.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			return failResponse(http.StatusNotFound, "User not found"), nil
		}
		return internalError(h.logger, "get-user", err, "Failed to fetch user"), nil
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"user": account.Public(),
	}), nil
}
