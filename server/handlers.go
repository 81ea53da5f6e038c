package server

import (
	"encoding/json"
	"net/http"

	"audioforge/cache"
	"audioforge/config"
	"audioforge/core/worker"
	"audioforge/logger"
	"audioforge/repository"
	"audioforge/storage"
)

// APIHandler carries the dependencies every route needs.
type APIHandler struct {
	store      repository.Store
	blobs      storage.BlobStore
	fileCache  *cache.AudioFileCache
	dispatcher worker.Dispatcher
	hub        *worker.Hub
	cfg        *config.Config

	// demoUserID is the principal used for unauthenticated requests,
	// seeded at startup.
	demoUserID string
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	store repository.Store,
	blobs storage.BlobStore,
	fileCache *cache.AudioFileCache,
	dispatcher worker.Dispatcher,
	hub *worker.Hub,
	cfg *config.Config,
	demoUserID string,
) *APIHandler {
	return &APIHandler{
		store:      store,
		blobs:      blobs,
		fileCache:  fileCache,
		dispatcher: dispatcher,
		hub:        hub,
		cfg:        cfg,
		demoUserID: demoUserID,
	}
}

// respondJSON writes v as a JSON response body.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// respondError writes the {"error": "..."} shape every failure uses.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
