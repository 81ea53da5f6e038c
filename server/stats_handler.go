package server

import (
	"fmt"
	"net/http"

	"audioforge/logger"
	"audioforge/model"
)

// StatsSnapshot is the on-demand summary for one user. String fields
// are pre-formatted the way the dashboard renders them.
type StatsSnapshot struct {
	TotalFiles    int    `json:"totalFiles"`
	TotalTime     string `json:"totalTime"`
	VocalTracks   int    `json:"vocalTracks"`
	AvgSpeed      string `json:"avgSpeed"`
	TotalSizeGB   string `json:"totalSizeGB"`
	CompletedJobs int    `json:"completedJobs"`
	ActiveJobs    int    `json:"activeJobs"`
}

// StatsHandler derives the snapshot by scanning the store at request
// time. No caching, no incremental counters.
func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	files, err := h.store.GetAudioFilesByUser(userID)
	if err != nil {
		logger.Error("failed to load files for stats", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get statistics")
		return
	}
	jobs, err := h.store.GetProcessingJobsByUser(userID)
	if err != nil {
		logger.Error("failed to load jobs for stats", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get statistics")
		return
	}

	var totalDuration float64
	var totalSize int64
	for _, file := range files {
		if file.Duration != nil {
			totalDuration += *file.Duration
		}
		totalSize += file.FileSize
	}

	var completed, vocal, active int
	for _, job := range jobs {
		switch job.Status {
		case model.StatusCompleted:
			completed++
			if job.ToolName == model.ToolVocalRemover {
				vocal++
			}
		case model.StatusPending, model.StatusProcessing:
			active++
		}
	}

	snapshot := StatsSnapshot{
		TotalFiles:    len(files),
		TotalTime:     fmt.Sprintf("%.1fh", totalDuration/3600),
		VocalTracks:   vocal,
		AvgSpeed:      "2.3x", // Placeholder until real processing exists to measure.
		TotalSizeGB:   fmt.Sprintf("%.2f", float64(totalSize)/(1024*1024*1024)),
		CompletedJobs: completed,
		ActiveJobs:    active,
	}
	respondJSON(w, http.StatusOK, snapshot)
}
