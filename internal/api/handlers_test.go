package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/briefbot/briefbot/internal/cache"
	"github.com/briefbot/briefbot/internal/httpclient"
	"github.com/briefbot/briefbot/internal/pipeline"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	store := cache.NewStore(t.TempDir(), nil)
	httpc := httpclient.NewClient(nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return SetupRouter(store, httpc, pipeline.Credentials{}, logger, false)
}

func TestCreateBriefRejectsMissingTopic(t *testing.T) {
	router := testRouter(t)
	body, _ := json.Marshal(BriefRequest{})
	req := httptest.NewRequest(http.MethodPost, "/v1/briefs/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error == "" {
		t.Fatalf("expected non-empty error message")
	}
}

func TestCreateBriefRejectsMalformedBody(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/briefs/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateBriefRejectsPartialSpan(t *testing.T) {
	router := testRouter(t)
	body, _ := json.Marshal(BriefRequest{Topic: "golang", Start: "2026-01-01"})
	req := httptest.NewRequest(http.MethodPost, "/v1/briefs/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHealthReportsCacheStats(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("Status = %q, want healthy", resp.Status)
	}
}

func TestNotFoundReturnsJSONError(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestResolveSpanDefaultsToFourteenDays(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	span, err := resolveSpan(BriefRequest{Topic: "x"}, now)
	if err != nil {
		t.Fatalf("resolveSpan() error = %v", err)
	}
	if span.End != "2026-07-30" || span.Start != "2026-07-16" {
		t.Fatalf("span = %+v, want 2026-07-16..2026-07-30", span)
	}
}
