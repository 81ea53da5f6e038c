package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"audioforge/logger"
	"audioforge/model"
)

type createJobRequest struct {
	AudioFileID string        `json:"audioFileId"`
	ToolName    string        `json:"toolName"`
	Parameters  model.JSONMap `json:"parameters"`
}

// CreateJobHandler registers a processing job and hands it to the
// dispatcher. Status and progress are forced to pending/0 regardless of
// what the body carries.
func (h *APIHandler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !model.ValidTool(req.ToolName) {
		respondError(w, http.StatusBadRequest, "Unknown tool name")
		return
	}

	// References are validated at write time so jobs never dangle.
	if req.AudioFileID != "" {
		file, err := h.store.GetAudioFile(req.AudioFileID)
		if err != nil {
			logger.Error("failed to resolve audio file for job", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Failed to create processing job")
			return
		}
		if file == nil {
			respondError(w, http.StatusBadRequest, "Unknown audio file")
			return
		}
	}

	job, err := h.store.CreateProcessingJob(&model.ProcessingJob{
		UserID:      userID,
		AudioFileID: req.AudioFileID,
		ToolName:    req.ToolName,
		Status:      model.StatusPending,
		Progress:    0,
		Parameters:  req.Parameters,
	})
	if err != nil {
		logger.Error("failed to create processing job", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create processing job")
		return
	}

	h.dispatcher.Dispatch(job)

	logger.Info("processing job created",
		logger.String("jobId", job.ID),
		logger.String("tool", job.ToolName),
		logger.String("audioFileId", job.AudioFileID))
	respondJSON(w, http.StatusOK, job)
}

// ListJobsHandler returns the principal's jobs.
func (h *APIHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobs, err := h.store.GetProcessingJobsByUser(userID)
	if err != nil {
		logger.Error("failed to list jobs", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get jobs")
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

// GetJobHandler returns one job by id.
func (h *APIHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.store.GetProcessingJob(id)
	if err != nil {
		logger.Error("failed to get job", logger.String("jobId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// UpdateJobHandler applies a partial update, the entry point an
// external worker would use to report progress or failure. Illegal
// status transitions are rejected with 409.
func (h *APIHandler) UpdateJobHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var update model.JobUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.Progress != nil && (*update.Progress < 0 || *update.Progress > 100) {
		respondError(w, http.StatusBadRequest, "Progress must be between 0 and 100")
		return
	}

	job, err := h.store.UpdateProcessingJob(id, &update)
	if err != nil {
		var transitionErr *model.ErrInvalidTransition
		if errors.As(err, &transitionErr) {
			respondError(w, http.StatusConflict, transitionErr.Error())
			return
		}
		logger.Error("failed to update job", logger.String("jobId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update job")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	h.hub.Publish(job)
	respondJSON(w, http.StatusOK, job)
}

// DeleteJobHandler removes a job record.
func (h *APIHandler) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	existed, err := h.store.DeleteProcessingJob(id)
	if err != nil {
		logger.Error("failed to delete job", logger.String("jobId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}
	if !existed {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
