package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/asahino/scribe/internal/token"
)

// ErrMissingToken is returned when a request carries no bearer token at
// all, as opposed to an invalid one.
var ErrMissingToken = errors.New("missing authorization token")

type ownerKey struct{}

// WithOwner binds the verified owner id into the request context.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext returns the owner id bound by Authenticate.
func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerKey{}).(string)
	return ownerID, ok
}

// Authenticate is the single choke point for protected operations. It
// extracts the bearer token, verifies it, and binds the resulting
// owner id into the context. No business logic runs when it fails.
func Authenticate(ctx context.Context, req events.APIGatewayProxyRequest, tokens *token.Service) (context.Context, string, error) {
	raw := bearerToken(req)
	if raw == "" {
		return ctx, "", ErrMissingToken
	}
	ownerID, err := tokens.Verify(raw)
	if err != nil {
		return ctx, "", err
	}
	return WithOwner(ctx, ownerID), ownerID, nil
}

// bearerToken extracts the token from the Authorization header,
// case-insensitively on the header name.
func bearerToken(req events.APIGatewayProxyRequest) string {
	authHeader := ""
	for k, v := range req.Headers {
		if strings.EqualFold(k, "Authorization") {
			authHeader = v
			break
		}
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// authFailure maps gate errors to responses: a missing token is 401,
// anything presented but unusable (malformed, bad signature, expired)
// is 403.
func authFailure(err error) events.APIGatewayProxyResponse {
	if errors.Is(err, ErrMissingToken) {
		return failResponse(http.StatusUnauthorized, "Missing Authorization token")
	}
	return failResponse(http.StatusForbidden, "Invalid or expired token")
}

// jsonResponse marshals payload into the response envelope. The error
// flag always agrees with the status code.
func jsonResponse(status int, payload map[string]any) events.APIGatewayProxyResponse {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["error"] = status >= http.StatusBadRequest
	body, _ := json.Marshal(payload)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// failResponse is a jsonResponse carrying only a message.
func failResponse(status int, message string) events.APIGatewayProxyResponse {
	return jsonResponse(status, map[string]any{"message": message})
}

// internalError logs the failure with detail and returns the generic
// message to the caller. Internals never leak into responses.
func internalError(logger *slog.Logger, op string, err error, message string) events.APIGatewayProxyResponse {
	logger.Error(op+" failed", "err", err)
	return failResponse(http.StatusInternalServerError, message)
}
