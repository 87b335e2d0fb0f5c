package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	artifactservice "artifact-server-go/internal/domain/artifact/service"
	"artifact-server-go/internal/domain/auth"
	"artifact-server-go/internal/domain/eventbus"
	"artifact-server-go/internal/platform/storage"
	platformtesting "artifact-server-go/internal/platform/testing"
)

func newTestServer(t *testing.T) (*gin.Engine, *auth.Manager, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := platformtesting.SetupTestDB(t)
	artifacts := artifactservice.NewArtifactService(storage.NewArtifactRepository(db), nil)

	tokens, err := auth.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg := platformtesting.SetupTestConfig(t)
	svc := NewService(cfg, nil, artifacts, tokens, storage.NewEventRepository(db))

	engine := gin.New()
	svc.Register(engine)
	return engine, tokens, db
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}, cookie string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: cookie})
	}

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
}

func sessionFor(t *testing.T, tokens *auth.Manager, email string) string {
	t.Helper()
	token, err := tokens.Issue(map[string]interface{}{"email": email})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return token
}

func artifactBody(name, email string) map[string]interface{} {
	return map[string]interface{}{
		"name":    name,
		"type":    "relic",
		"addedBy": map[string]string{"email": email, "name": "Tester"},
	}
}

func TestRootEndpoint(t *testing.T) {
	engine, _, _ := newTestServer(t)

	recorder := doJSON(t, engine, http.MethodGet, "/", nil, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if recorder.Body.String() == "" {
		t.Fatal("expected text body")
	}
}

func TestIssueTokenSetsCookie(t *testing.T) {
	engine, _, _ := newTestServer(t)

	recorder := doJSON(t, engine, http.MethodPost, "/jwt", map[string]string{"email": "user@example.com"}, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	cookies := recorder.Result().Cookies()
	var session *http.Cookie
	for _, c := range cookies {
		if c.Name == "token" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("session cookie not set")
	}
	if !session.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}
	if session.Value == "" {
		t.Fatal("session cookie is empty")
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	engine, _, _ := newTestServer(t)

	recorder := doJSON(t, engine, http.MethodPost, "/logout", nil, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	for _, c := range recorder.Result().Cookies() {
		if c.Name == "token" {
			if c.MaxAge >= 0 {
				t.Fatalf("expected cookie expiry, got MaxAge=%d", c.MaxAge)
			}
			return
		}
	}
	t.Fatal("clearing cookie not present in response")
}

func TestCreateArtifact(t *testing.T) {
	engine, _, _ := newTestServer(t)

	recorder := doJSON(t, engine, http.MethodPost, "/history", artifactBody("Rosetta Stone", "a@example.com"), "")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var created struct {
		InsertedID string `json:"insertedId"`
	}
	decodeBody(t, recorder, &created)
	if created.InsertedID == "" {
		t.Fatal("expected insertedId in response")
	}

	recorder = doJSON(t, engine, http.MethodGet, "/artifact/"+created.InsertedID, nil, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestCreateArtifactMissingCreatorEmail(t *testing.T) {
	engine, _, _ := newTestServer(t)

	body := map[string]interface{}{
		"name":    "No Creator",
		"addedBy": map[string]string{"name": "anonymous"},
	}
	recorder := doJSON(t, engine, http.MethodPost, "/history", body, "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var failure struct {
		Message string `json:"message"`
	}
	decodeBody(t, recorder, &failure)
	if failure.Message == "" {
		t.Fatal("expected failure message")
	}
}

func TestListArtifactsWithSearch(t *testing.T) {
	engine, _, _ := newTestServer(t)

	for _, name := range []string{"Rosetta Stone", "Dead Sea Scrolls"} {
		recorder := doJSON(t, engine, http.MethodPost, "/history", artifactBody(name, "a@example.com"), "")
		if recorder.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d", recorder.Code)
		}
	}

	recorder := doJSON(t, engine, http.MethodGet, "/history?search=stone", nil, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var results []map[string]interface{}
	decodeBody(t, recorder, &results)
	if len(results) != 1 {
		t.Fatalf("expected 1 search result, got %d", len(results))
	}
}

func TestMyArtifactsAuthMatrix(t *testing.T) {
	engine, tokens, _ := newTestServer(t)
	session := sessionFor(t, tokens, "alice@example.com")

	tests := []struct {
		name   string
		path   string
		cookie string
		want   int
	}{
		{"no cookie", "/my-artifacts?email=alice@example.com", "", http.StatusUnauthorized},
		{"garbage token", "/my-artifacts?email=alice@example.com", "not-a-token", http.StatusUnauthorized},
		{"missing email", "/my-artifacts", session, http.StatusBadRequest},
		{"identity mismatch", "/my-artifacts?email=bob@example.com", session, http.StatusForbidden},
		{"match", "/my-artifacts?email=alice@example.com", session, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doJSON(t, engine, http.MethodGet, tt.path, nil, tt.cookie)
			if recorder.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestMyArtifactsReturnsOwnedOnly(t *testing.T) {
	engine, tokens, _ := newTestServer(t)

	doJSON(t, engine, http.MethodPost, "/history", artifactBody("Mine", "alice@example.com"), "")
	doJSON(t, engine, http.MethodPost, "/history", artifactBody("Theirs", "bob@example.com"), "")

	session := sessionFor(t, tokens, "alice@example.com")
	recorder := doJSON(t, engine, http.MethodGet, "/my-artifacts?email=alice@example.com", nil, session)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var results []map[string]interface{}
	decodeBody(t, recorder, &results)
	if len(results) != 1 {
		t.Fatalf("expected 1 owned artifact, got %d", len(results))
	}
	if results[0]["name"] != "Mine" {
		t.Fatalf("unexpected artifact: %v", results[0])
	}
}

func TestLikeUnlikeFlow(t *testing.T) {
	engine, tokens, _ := newTestServer(t)

	recorder := doJSON(t, engine, http.MethodPost, "/history", artifactBody("Likeable", "creator@example.com"), "")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("seed failed: %d", recorder.Code)
	}
	var created struct {
		InsertedID string `json:"insertedId"`
	}
	decodeBody(t, recorder, &created)

	likePath := fmt.Sprintf("/artifact/%s/like", created.InsertedID)
	session := sessionFor(t, tokens, "fan@example.com")

	recorder = doJSON(t, engine, http.MethodPatch, likePath, map[string]string{"email": "fan@example.com"}, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var toggle struct {
		Liked bool `json:"liked"`
	}
	decodeBody(t, recorder, &toggle)
	if !toggle.Liked {
		t.Fatal("first toggle should like")
	}

	recorder = doJSON(t, engine, http.MethodGet, "/liked-artifacts", nil, session)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var liked []map[string]interface{}
	decodeBody(t, recorder, &liked)
	if len(liked) != 1 {
		t.Fatalf("expected 1 liked artifact, got %d", len(liked))
	}

	recorder = doJSON(t, engine, http.MethodPatch, likePath, map[string]string{"email": "fan@example.com"}, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	decodeBody(t, recorder, &toggle)
	if toggle.Liked {
		t.Fatal("second toggle should unlike")
	}

	recorder = doJSON(t, engine, http.MethodGet, "/liked-artifacts", nil, session)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for empty liked list, got %d", recorder.Code)
	}
}

func TestToggleLikeValidation(t *testing.T) {
	engine, _, _ := newTestServer(t)

	recorder := doJSON(t, engine, http.MethodPost, "/history", artifactBody("Likeable", "creator@example.com"), "")
	var created struct {
		InsertedID string `json:"insertedId"`
	}
	decodeBody(t, recorder, &created)

	recorder = doJSON(t, engine, http.MethodPatch, "/artifact/"+created.InsertedID+"/like", map[string]string{}, "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email, got %d", recorder.Code)
	}

	recorder = doJSON(t, engine, http.MethodPatch, "/artifact/no-such-id/like", map[string]string{"email": "fan@example.com"}, "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing artifact, got %d", recorder.Code)
	}
}

func TestUpdateArtifact(t *testing.T) {
	engine, _, _ := newTestServer(t)

	recorder := doJSON(t, engine, http.MethodPost, "/history", artifactBody("Before", "a@example.com"), "")
	var created struct {
		InsertedID string `json:"insertedId"`
	}
	decodeBody(t, recorder, &created)

	recorder = doJSON(t, engine, http.MethodPatch, "/artifact/"+created.InsertedID, map[string]string{"name": "After"}, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, engine, http.MethodGet, "/artifact/"+created.InsertedID, nil, "")
	var fetched map[string]interface{}
	decodeBody(t, recorder, &fetched)
	if fetched["name"] != "After" {
		t.Fatalf("update not applied: %v", fetched["name"])
	}
	if fetched["type"] != "" {
		t.Fatalf("absent field should be overwritten with zero value, got %v", fetched["type"])
	}

	recorder = doJSON(t, engine, http.MethodPatch, "/artifact/no-such-id", map[string]string{"name": "X"}, "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing artifact, got %d", recorder.Code)
	}
}

func TestDeleteArtifact(t *testing.T) {
	engine, _, _ := newTestServer(t)

	recorder := doJSON(t, engine, http.MethodPost, "/history", artifactBody("Doomed", "a@example.com"), "")
	var created struct {
		InsertedID string `json:"insertedId"`
	}
	decodeBody(t, recorder, &created)

	recorder = doJSON(t, engine, http.MethodDelete, "/artifact/"+created.InsertedID, nil, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	recorder = doJSON(t, engine, http.MethodGet, "/artifact/"+created.InsertedID, nil, "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", recorder.Code)
	}

	recorder = doJSON(t, engine, http.MethodDelete, "/artifact/"+created.InsertedID, nil, "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for second delete, got %d", recorder.Code)
	}
}

func TestGetArtifactMissing(t *testing.T) {
	engine, _, _ := newTestServer(t)

	recorder := doJSON(t, engine, http.MethodGet, "/artifact/no-such-id", nil, "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	engine, _, db := newTestServer(t)

	events := storage.NewEventRepository(db)
	for i := 0; i < 2; i++ {
		err := events.Record(context.Background(), eventbus.EventArtifactCreated, eventbus.ArtifactEventData{
			ArtifactID: fmt.Sprintf("a-%d", i),
			OccurredAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recorder := doJSON(t, engine, http.MethodGet, "/healthz", nil, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var health struct {
		Status string           `json:"status"`
		Events map[string]int64 `json:"events"`
	}
	decodeBody(t, recorder, &health)
	if health.Status != "ok" {
		t.Fatalf("unexpected health status: %q", health.Status)
	}
	if health.Events[eventbus.EventArtifactCreated] != 2 {
		t.Fatalf("expected 2 created events in health payload, got %v", health.Events)
	}
}
