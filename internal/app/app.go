package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/asahino/scribe/internal/auth"
	"github.com/asahino/scribe/internal/handler"
	"github.com/asahino/scribe/internal/secret"
	"github.com/asahino/scribe/internal/store/dynamo"
	"github.com/asahino/scribe/internal/token"
)

// requestTimeout bounds every request so a store call can never hang a
// caller indefinitely.
const requestTimeout = 10 * time.Second

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// App holds the wired dependencies and routes requests.
type App struct {
	authHandler    *handler.AuthHandler
	noteHandler    *handler.NoteHandler
	allowedOrigins []string
	logger         *slog.Logger
}

// NewApp initializes the application dependencies. Missing required
// configuration (the signing secret, or table names outside dev mode)
// is fatal here rather than surfacing as per-request errors.
func NewApp(ctx context.Context) *App {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	devMode := os.Getenv("DEV_MODE") == "true"

	var dynamoClient *dynamodb.Client
	var resolver secret.Resolver
	if devMode {
		resolver = secret.NewEnvResolver()
		logger.Info("using in-memory storage and env secrets (DEV_MODE=true)")
	} else {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			panic(fmt.Sprintf("unable to load SDK config, %v", err))
		}
		dynamoClient = dynamodb.NewFromConfig(cfg)
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(cfg))
	}

	accountsTable := os.Getenv("ACCOUNTS_TABLE")
	notesTable := os.Getenv("NOTES_TABLE")
	if !devMode {
		if accountsTable == "" {
			panic("ACCOUNTS_TABLE is not set")
		}
		if notesTable == "" {
			panic("NOTES_TABLE is not set")
		}
	}

	secretParam := os.Getenv("ACCESS_TOKEN_SECRET_PARAM")
	if secretParam == "" {
		secretParam = "/scribe/access-token-secret"
	}
	signingSecret, err := resolver.GetSecret(ctx, secretParam)
	if err != nil {
		panic(fmt.Sprintf("access token secret is not configured: %v", err))
	}

	tokens := token.NewService(signingSecret)
	directory := auth.NewDirectory(dynamoClient, accountsTable)
	notes := dynamo.NewStore(dynamoClient, notesTable)

	return &App{
		authHandler:    handler.NewAuthHandler(directory, tokens, logger),
		noteHandler:    handler.NewNoteHandler(notes, tokens, logger),
		allowedOrigins: allowedOrigins(),
		logger:         logger,
	}
}

// allowedOrigins reads the comma-separated CLIENT_URL list, falling
// back to the localhost dev origins.
func allowedOrigins() []string {
	raw := os.Getenv("CLIENT_URL")
	if raw == "" {
		return defaultOrigins
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return defaultOrigins
	}
	return origins
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	app.logger.Info("request", "method", method, "path", path)

	// CORS Preflight
	if method == "OPTIONS" {
		return app.corsResponse(req, events.APIGatewayProxyResponse{StatusCode: 204}), nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	// Strip /api prefix if present (for CDN proxying)
	path = strings.TrimPrefix(path, "/api")

	if req.PathParameters == nil {
		req.PathParameters = make(map[string]string)
	}

	switch {
	case path == "/" && method == "GET":
		return app.corsResponse(req, events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Body:       `{"ok":true}`,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}), nil

	case path == "/create-account" && method == "POST":
		return app.corsResponse(req, app.must(app.authHandler.CreateAccount(ctx, req))), nil

	case path == "/login" && method == "POST":
		return app.corsResponse(req, app.must(app.authHandler.Login(ctx, req))), nil

	case path == "/get-user" && method == "GET":
		return app.corsResponse(req, app.must(app.authHandler.GetUser(ctx, req))), nil

	case path == "/add-note" && method == "POST":
		return app.corsResponse(req, app.must(app.noteHandler.AddNote(ctx, req))), nil

	case strings.HasPrefix(path, "/edit-note/") && method == "PUT":
		req.PathParameters["noteId"] = strings.TrimPrefix(path, "/edit-note/")
		return app.corsResponse(req, app.must(app.noteHandler.EditNote(ctx, req))), nil

	case path == "/edit-note" && method == "POST":
		// Alias of PUT /edit-note/{noteId} with the id in the body.
		return app.corsResponse(req, app.must(app.noteHandler.EditNote(ctx, req))), nil

	case strings.HasPrefix(path, "/delete-note/") && method == "DELETE":
		req.PathParameters["noteId"] = strings.TrimPrefix(path, "/delete-note/")
		return app.corsResponse(req, app.must(app.noteHandler.DeleteNote(ctx, req))), nil

	case path == "/delete-note" && method == "POST":
		// Alias of DELETE /delete-note/{noteId} with the id in the body.
		return app.corsResponse(req, app.must(app.noteHandler.DeleteNote(ctx, req))), nil

	case path == "/get-all-notes" && method == "GET":
		return app.corsResponse(req, app.must(app.noteHandler.ListNotes(ctx, req))), nil

	case path == "/search-notes" && method == "GET":
		return app.corsResponse(req, app.must(app.noteHandler.SearchNotes(ctx, req))), nil
	}

	return app.corsResponse(req, events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf(`{"error":true,"message":"Not Found: %s %s"}`, method, path),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}), nil
}

// corsResponse adds CORS headers. The request origin is echoed back
// only when it is on the allowed list; otherwise the first configured
// origin is advertised.
func (app *App) corsResponse(req events.APIGatewayProxyRequest, resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}

	origin := ""
	for k, v := range req.Headers {
		if strings.EqualFold(k, "Origin") {
			origin = v
			break
		}
	}

	allowed := app.allowedOrigins[0]
	for _, o := range app.allowedOrigins {
		if o == origin {
			allowed = origin
			break
		}
	}

	resp.Headers["Access-Control-Allow-Origin"] = allowed
	resp.Headers["Access-Control-Allow-Credentials"] = "true"
	resp.Headers["Access-Control-Allow-Methods"] = "GET,POST,PUT,DELETE,OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization"
	return resp
}

// must unwraps a handler response, converting an unexpected error into
// a generic 500.
func (app *App) must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		app.logger.Error("handler error", "err", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":true,"message":"Internal Server Error"}`,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}
	}
	return resp
}
