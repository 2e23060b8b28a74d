package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/platform"
	"campaign-sync-service/internal/store"
	"campaign-sync-service/internal/sync"
)

// memStore is an in-memory Store for handler tests; only the methods the
// API layer touches have real behavior.
type memStore struct {
	jobs      map[string]*store.SyncJob
	runs      []*store.SyncRun
	conflicts []*store.ConflictRecord
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*store.SyncJob)}
}

func (s *memStore) GetCampaignSet(ctx context.Context, campaignSetID string) ([]campaign.Campaign, error) {
	return nil, nil
}

func (s *memStore) GetSyncRecords(ctx context.Context, campaignSetID, platformName string) ([]*store.SyncRecord, error) {
	return nil, nil
}

func (s *memStore) UpsertSyncRecord(ctx context.Context, record *store.SyncRecord) error { return nil }

func (s *memStore) ApplyPlatformIDs(ctx context.Context, assignments []store.PlatformAssignment) error {
	return nil
}

func (s *memStore) EnqueueJob(ctx context.Context, job *store.SyncJob) error {
	s.jobs[job.ID] = job
	return nil
}

func (s *memStore) GetJob(ctx context.Context, id string) (*store.SyncJob, error) {
	return s.jobs[id], nil
}

func (s *memStore) ClaimNextJob(ctx context.Context) (*store.SyncJob, error) { return nil, nil }

func (s *memStore) CompleteJob(ctx context.Context, id string) error { return nil }

func (s *memStore) FailJob(ctx context.Context, id, errorLog string, retryCount int, nextRetryAt time.Time, permanent bool) error {
	return nil
}

func (s *memStore) RequeueDueJobs(ctx context.Context, now time.Time) (int, error) { return 0, nil }

func (s *memStore) CreateSyncRun(ctx context.Context, run *store.SyncRun) error { return nil }

func (s *memStore) CompleteSyncRun(ctx context.Context, run *store.SyncRun) error { return nil }

func (s *memStore) ListSyncRuns(ctx context.Context, limit, offset int) ([]*store.SyncRun, error) {
	return s.runs, nil
}

func (s *memStore) CreateConflict(ctx context.Context, conflict *store.ConflictRecord) error {
	return nil
}

func (s *memStore) ListConflicts(ctx context.Context, resolved bool, limit, offset int) ([]*store.ConflictRecord, error) {
	return s.conflicts, nil
}

func (s *memStore) Close() error { return nil }

func testHandler(t *testing.T) (*Handler, *memStore) {
	t.Helper()

	st := newMemStore()
	cfg := &config.Config{
		Sync:    config.SyncConfig{Workers: 1, Strategy: "skip"},
		Breaker: config.BreakerConfig{FailureThreshold: 5, ResetTimeout: "60s", HalfOpenMaxAttempts: 3},
	}
	registry := platform.NewRegistry()
	registry.Register(platform.PlatformMock, platform.NewMockIntegration(config.MockConfig{}))

	manager := sync.NewManager(cfg, st, registry)
	return NewHandler(manager, st), st
}

func TestHealthCheck(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestEnqueueSyncJob(t *testing.T) {
	handler, st := testHandler(t)
	router := handler.Routes()

	body := `{"campaignSetId":"set-1","teamId":"team-1","adAccountId":"acct-1","platform":"mock"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync/jobs", strings.NewReader(body)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response["jobId"] == "" {
		t.Fatal("no jobId in response")
	}
	if response["status"] != store.JobQueued {
		t.Errorf("status = %q, want queued", response["status"])
	}

	job := st.jobs[response["jobId"]]
	if job == nil {
		t.Fatal("job not persisted")
	}
	if job.CampaignSetID != "set-1" || job.Platform != "mock" {
		t.Errorf("job = %+v", job)
	}
}

func TestEnqueueSyncJob_Validation(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing campaign set", `{"platform":"mock"}`},
		{"missing platform", `{"campaignSetId":"set-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync/jobs", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGetSyncJob(t *testing.T) {
	handler, st := testHandler(t)
	router := handler.Routes()

	st.jobs["job-1"] = &store.SyncJob{
		ID:            "job-1",
		CampaignSetID: "set-1",
		Platform:      "mock",
		Status:        store.JobQueued,
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sync/jobs/job-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response["jobId"] != "job-1" || response["status"] != store.JobQueued {
		t.Errorf("response = %+v", response)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sync/jobs/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetBreakerStats(t *testing.T) {
	handler, _ := testHandler(t)
	router := handler.Routes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/breakers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stats []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v (body %s)", err, rec.Body.String())
	}
}
