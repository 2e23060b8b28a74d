package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"campaign-sync-service/internal/store"
	"campaign-sync-service/internal/sync"
)

type Handler struct {
	syncManager *sync.Manager
	store       store.Store
}

func NewHandler(manager *sync.Manager, st store.Store) *Handler {
	return &Handler{
		syncManager: manager,
		store:       st,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CorsMiddleware)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sync/jobs", h.EnqueueSyncJob)
		r.Get("/sync/jobs/{id}", h.GetSyncJob)
		r.Get("/sync/runs", h.ListSyncRuns)
		r.Get("/sync/status", h.GetSyncStatus)
		r.Get("/conflicts", h.ListConflicts)
		r.Get("/breakers", h.GetBreakerStats)
	})

	return r
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) EnqueueSyncJob(w http.ResponseWriter, r *http.Request) {
	var payload sync.JobPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	jobID, err := h.syncManager.EnqueueSync(r.Context(), payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID, "status": store.JobQueued})
}

func (h *Handler) GetSyncJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"jobId":         job.ID,
		"campaignSetId": job.CampaignSetID,
		"platform":      job.Platform,
		"status":        job.Status,
		"retryCount":    job.RetryCount,
		"dryRun":        job.DryRun,
	}
	if job.NextRetryAt.Valid {
		response["nextRetryAt"] = job.NextRetryAt.Time
	}
	if job.ErrorLog.Valid {
		response["errorLog"] = job.ErrorLog.String
	}
	writeJSON(w, http.StatusOK, response)
}

func paging(r *http.Request) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)

	runs, err := h.store.ListSyncRuns(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": h.syncManager.GetStatus()})
}

func (h *Handler) ListConflicts(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)
	resolved := r.URL.Query().Get("resolved") == "true"

	conflicts, err := h.store.ListConflicts(r.Context(), resolved, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, conflicts)
}

func (h *Handler) GetBreakerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.syncManager.Breakers().Stats())
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")

		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}
