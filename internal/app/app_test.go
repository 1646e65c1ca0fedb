package app

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/asahino/scribe/internal/model"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("DEV_MODE", "true")
	t.Setenv("ACCESS_TOKEN_SECRET", "test-secret")
	t.Setenv("CLIENT_URL", "")
	return NewApp(context.Background())
}

func request(method, path, body, accessToken string) events.APIGatewayProxyRequest {
	headers := map[string]string{"Content-Type": "application/json"}
	if accessToken != "" {
		headers["Authorization"] = "Bearer " + accessToken
	}
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Body:       body,
		Headers:    headers,
	}
}

type payload struct {
	Error       bool         `json:"error"`
	Message     string       `json:"message"`
	AccessToken string       `json:"accessToken"`
	Note        model.Note   `json:"note"`
	Notes       []model.Note `json:"notes"`
}

func call(t *testing.T, app *App, req events.APIGatewayProxyRequest, wantStatus int) payload {
	t.Helper()
	resp, err := app.HandleRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("%s %s returned error: %v", req.HTTPMethod, req.Path, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d: %s", req.HTTPMethod, req.Path, wantStatus, resp.StatusCode, resp.Body)
	}
	var p payload
	if resp.Body != "" {
		if err := json.Unmarshal([]byte(resp.Body), &p); err != nil {
			t.Fatalf("decoding %q failed: %v", resp.Body, err)
		}
	}
	if p.Error != (wantStatus >= http.StatusBadRequest) {
		t.Errorf("%s %s: error flag %v disagrees with status %d", req.HTTPMethod, req.Path, p.Error, resp.StatusCode)
	}
	return p
}

func TestFullScenario(t *testing.T) {
	app := newTestApp(t)

	// Register, with an email that needs normalizing.
	reg := call(t, app, request("POST", "/create-account",
		`{"fullName":"Ana","email":"A@x.com ","password":"secret1"}`, ""), http.StatusCreated)
	if reg.AccessToken == "" {
		t.Fatal("registration returned no access token")
	}

	// The same normalized email conflicts.
	call(t, app, request("POST", "/create-account",
		`{"fullName":"Else","email":"a@x.com","password":"secret2"}`, ""), http.StatusConflict)

	// Wrong password is a generic 401.
	call(t, app, request("POST", "/login",
		`{"email":"a@x.com","password":"wrong"}`, ""), http.StatusUnauthorized)

	login := call(t, app, request("POST", "/login",
		`{"email":"a@x.com","password":"secret1"}`, ""), http.StatusOK)
	tokenStr := login.AccessToken

	// Two notes; the older one gets pinned and must then lead the list.
	older := call(t, app, request("POST", "/add-note",
		`{"title":"first","content":"c"}`, tokenStr), http.StatusCreated).Note
	if older.IsPinned || len(older.Tags) != 0 {
		t.Errorf("unexpected note defaults: %+v", older)
	}
	call(t, app, request("POST", "/add-note",
		`{"title":"second","content":"c"}`, tokenStr), http.StatusCreated)

	call(t, app, request("PUT", "/edit-note/"+older.ID,
		`{"isPinned":true}`, tokenStr), http.StatusOK)

	list := call(t, app, request("GET", "/get-all-notes", "", tokenStr), http.StatusOK)
	if len(list.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(list.Notes))
	}
	if list.Notes[0].ID != older.ID {
		t.Errorf("expected pinned note first, got %q", list.Notes[0].Title)
	}

	// Delete via the POST alias; the id is gone afterwards.
	call(t, app, request("POST", "/delete-note",
		`{"noteId":"`+older.ID+`"}`, tokenStr), http.StatusOK)
	call(t, app, request("PUT", "/edit-note/"+older.ID,
		`{"title":"x"}`, tokenStr), http.StatusNotFound)

	list = call(t, app, request("GET", "/get-all-notes", "", tokenStr), http.StatusOK)
	if len(list.Notes) != 1 {
		t.Errorf("expected 1 note after delete, got %d", len(list.Notes))
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	protected := []events.APIGatewayProxyRequest{
		request("GET", "/get-user", "", ""),
		request("POST", "/add-note", `{"title":"t","content":"c"}`, ""),
		request("POST", "/edit-note", `{"noteId":"x"}`, ""),
		request("POST", "/delete-note", `{"noteId":"x"}`, ""),
		request("GET", "/get-all-notes", "", ""),
		request("GET", "/search-notes", "", ""),
	}
	for _, req := range protected {
		call(t, app, req, http.StatusUnauthorized)
	}
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)
	call(t, app, request("GET", "/no-such-route", "", ""), http.StatusNotFound)
}

func TestMissingSecretIsFatal(t *testing.T) {
	t.Setenv("DEV_MODE", "true")
	t.Setenv("ACCESS_TOKEN_SECRET", "")

	defer func() {
		if recover() == nil {
			t.Error("expected NewApp to panic without a signing secret")
		}
	}()
	NewApp(context.Background())
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := request("OPTIONS", "/add-note", "", "")
	req.Headers["Origin"] = "http://localhost:5173"

	resp, err := app.HandleRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Headers["Access-Control-Allow-Origin"]; got != "http://localhost:5173" {
		t.Errorf("expected allowed origin echoed back, got %q", got)
	}
	if resp.Headers["Access-Control-Allow-Credentials"] != "true" {
		t.Error("expected credentials allowed")
	}
}

func TestCORSUnknownOriginNotEchoed(t *testing.T) {
	app := newTestApp(t)

	req := request("OPTIONS", "/add-note", "", "")
	req.Headers["Origin"] = "https://evil.example"

	resp, _ := app.HandleRequest(context.Background(), req)
	if got := resp.Headers["Access-Control-Allow-Origin"]; got == "https://evil.example" {
		t.Error("unlisted origin must not be echoed back")
	}
}
