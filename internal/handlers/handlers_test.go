package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"labelops-backend/internal/middleware"
	"labelops-backend/internal/repository"
	"labelops-backend/internal/store"
	"labelops-backend/internal/telemetry"
)

type testEngine struct {
	publisher  *telemetry.HeartbeatPublisher
	evaluator  *telemetry.PresenceEvaluator
	tracker    *telemetry.SessionTracker
	aggregator *telemetry.ActivityAggregator
	activity   *telemetry.ActivityLog
	sessions   *repository.SessionRepo
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	s := store.NewMemoryStore()
	heartbeats := repository.NewHeartbeatRepo(s)
	sessions := repository.NewSessionRepo(s)
	activityRepo := repository.NewActivityLogRepo(s, 1000)

	return &testEngine{
		publisher:  telemetry.NewHeartbeatPublisher(heartbeats, 30*time.Second),
		evaluator:  telemetry.NewPresenceEvaluator(heartbeats, 60*time.Second, 10*time.Second),
		tracker:    telemetry.NewSessionTracker(sessions, time.Minute),
		aggregator: telemetry.NewActivityAggregator(sessions, time.Minute, 12*time.Hour),
		activity:   telemetry.NewActivityLog(activityRepo),
		sessions:   sessions,
	}
}

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func TestTelemetryOnlineOffline(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewTelemetryHandler(engine.publisher, engine.tracker, engine.activity)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	handler.Online(rec, authedRequest(http.MethodPost, "/api/v1/telemetry/online", nil, "u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["session"] == nil {
		t.Error("Online response should include the opened session")
	}

	open, err := engine.sessions.GetOpen(ctx, "u1")
	if err != nil || open == nil {
		t.Fatalf("Expected an open session marker, got %v / %v", open, err)
	}

	rec = httptest.NewRecorder()
	handler.Offline(rec, authedRequest(http.MethodPost, "/api/v1/telemetry/offline", nil, "u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	open, _ = engine.sessions.GetOpen(ctx, "u1")
	if open != nil {
		t.Error("Open marker should be gone after offline")
	}
	closed, _ := engine.sessions.ClosedSessions(ctx)
	if len(closed) != 1 {
		t.Errorf("Expected 1 closed session, got %d", len(closed))
	}

	entries, _ := engine.activity.Logs(ctx)
	if len(entries) != 2 || entries[0].ActionType != "login" || entries[1].ActionType != "logout" {
		t.Errorf("Expected login then logout in audit trail, got %+v", entries)
	}
}

func TestTelemetryVisibility(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewTelemetryHandler(engine.publisher, engine.tracker, engine.activity)

	rec := httptest.NewRecorder()
	handler.Visibility(rec, authedRequest(http.MethodPost, "/api/v1/telemetry/visibility", nil, "u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPresenceList(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewPresenceHandler(engine.evaluator)
	ctx := context.Background()

	engine.publisher.Start(ctx, "u1")
	defer engine.publisher.StopAll(ctx)

	rec := httptest.NewRecorder()
	handler.List(rec, authedRequest(http.MethodGet, "/api/v1/presence", nil, "viewer"))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	presence, ok := body["presence"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected presence map, got %T", body["presence"])
	}
	u1, ok := presence["u1"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected u1 in presence map")
	}
	if u1["is_online"] != true {
		t.Errorf("Fresh heartbeat should evaluate online, got %v", u1["is_online"])
	}
}

func TestPresenceGet(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewPresenceHandler(engine.evaluator)
	ctx := context.Background()

	engine.publisher.Start(ctx, "u1")
	defer engine.publisher.StopAll(ctx)

	req := withURLParam(authedRequest(http.MethodGet, "/api/v1/presence/u1", nil, "viewer"), "userID", "u1")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["is_online"] != true {
		t.Errorf("Expected online, got %v", body["is_online"])
	}
	if body["last_seen"] != "online" {
		t.Errorf("Expected last_seen 'online', got %v", body["last_seen"])
	}
}

func TestPresenceGet_UnknownUser(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewPresenceHandler(engine.evaluator)

	req := withURLParam(authedRequest(http.MethodGet, "/api/v1/presence/ghost", nil, "viewer"), "userID", "ghost")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["is_online"] != false {
		t.Errorf("Unknown user should be offline, got %v", body["is_online"])
	}
	if body["last_seen"] != "never" {
		t.Errorf("Expected 'never', got %v", body["last_seen"])
	}
}

func TestStatsGet_NotFound(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewStatsHandler(engine.aggregator)

	req := withURLParam(authedRequest(http.MethodGet, "/api/v1/stats/ghost", nil, "viewer"), "userID", "ghost")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for user without activity, got %d", rec.Code)
	}
}

func TestStatsGet_WithActivity(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewStatsHandler(engine.aggregator)
	ctx := context.Background()

	engine.tracker.StartSession(ctx, "u1")
	defer engine.tracker.StopAll(ctx)

	req := withURLParam(authedRequest(http.MethodGet, "/api/v1/stats/u1", nil, "viewer"), "userID", "u1")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["stats"] == nil {
		t.Error("Expected stats in response")
	}
	if _, ok := body["today_label"].(string); !ok {
		t.Error("Expected formatted today_label")
	}
}

func TestActivityCreate(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewActivityHandler(engine.activity)
	ctx := context.Background()

	payload := []byte(`{"action_type":"created-release","description":"Scheduled release for Q4","metadata":{"release_id":12}}`)
	rec := httptest.NewRecorder()
	handler.Create(rec, authedRequest(http.MethodPost, "/api/v1/activity", payload, "manager-1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	entries, _ := engine.activity.Logs(ctx)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].UserID != "manager-1" || entries[0].ActionType != "created-release" {
		t.Errorf("Entry not attributed correctly: %+v", entries[0])
	}
}

func TestActivityCreate_MissingActionType(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewActivityHandler(engine.activity)

	rec := httptest.NewRecorder()
	handler.Create(rec, authedRequest(http.MethodPost, "/api/v1/activity", []byte(`{"description":"no type"}`), "u1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok || errObj["code"] != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR envelope, got %v", body)
	}
}

func TestActivityByUser(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewActivityHandler(engine.activity)
	ctx := context.Background()

	engine.activity.Log(ctx, "u1", "login", "", nil)
	engine.activity.Log(ctx, "u2", "login", "", nil)
	engine.activity.Log(ctx, "u1", "logout", "", nil)

	req := withURLParam(authedRequest(http.MethodGet, "/api/v1/activity/users/u1", nil, "viewer"), "userID", "u1")
	rec := httptest.NewRecorder()
	handler.ByUser(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	entries, ok := body["entries"].([]interface{})
	if !ok {
		t.Fatalf("Expected entries array, got %T", body["entries"])
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries for u1, got %d", len(entries))
	}
}

func TestActivityStats(t *testing.T) {
	engine := newTestEngine(t)
	handler := NewActivityHandler(engine.activity)
	ctx := context.Background()

	engine.activity.Log(ctx, "u1", "login", "", nil)
	engine.activity.Log(ctx, "u2", "login", "", nil)

	rec := httptest.NewRecorder()
	handler.Stats(rec, authedRequest(http.MethodGet, "/api/v1/activity/stats", nil, "viewer"))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	stats, ok := body["stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected stats object, got %T", body["stats"])
	}
	if stats["total_entries"] != float64(2) {
		t.Errorf("Expected 2 total entries, got %v", stats["total_entries"])
	}
}
