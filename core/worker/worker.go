// Package worker owns the processing-job lifecycle behind the HTTP
// surface. The Dispatcher contract is message passing: the job handler
// hands a freshly created job over and a worker reports progress back
// through the store's validated update path. Swapping the simulator for
// a real out-of-process audio pipeline requires no change to the store
// or the API.
package worker

import (
	"fmt"
	"time"

	"audioforge/logger"
	"audioforge/model"
	"audioforge/repository"
)

// Dispatcher accepts jobs for asynchronous processing.
type Dispatcher interface {
	Dispatch(job *model.ProcessingJob)
}

// SimulatedWorker advances jobs on a fixed timer schedule without doing
// any real audio work. It stands in for the future processing backend.
type SimulatedWorker struct {
	store       repository.Store
	hub         *Hub
	startDelay  time.Duration
	finishDelay time.Duration
}

// NewSimulatedWorker builds a worker with the given schedule. Updates
// are published to hub when it is non-nil.
func NewSimulatedWorker(store repository.Store, hub *Hub, startDelay, finishDelay time.Duration) *SimulatedWorker {
	return &SimulatedWorker{
		store:       store,
		hub:         hub,
		startDelay:  startDelay,
		finishDelay: finishDelay,
	}
}

// Dispatch schedules the simulated advancement: after startDelay the
// job moves to processing at 50%, after a further finishDelay it
// completes at 100% with a synthesized output path. The worker never
// produces a failed status; that path exists only for external callers
// of the update route.
func (w *SimulatedWorker) Dispatch(job *model.ProcessingJob) {
	jobID := job.ID

	time.AfterFunc(w.startDelay, func() {
		status := model.StatusProcessing
		progress := 50
		updated, err := w.store.UpdateProcessingJob(jobID, &model.JobUpdate{
			Status:   &status,
			Progress: &progress,
		})
		if err != nil || updated == nil {
			// Job was deleted or moved to a terminal state externally.
			logger.Warn("simulated worker could not start job",
				logger.String("jobId", jobID), logger.ErrorField(err))
			return
		}
		w.publish(updated)

		time.AfterFunc(w.finishDelay, func() {
			status := model.StatusCompleted
			progress := 100
			outputPath := fmt.Sprintf("/processed/%s_output.mp3", jobID)
			updated, err := w.store.UpdateProcessingJob(jobID, &model.JobUpdate{
				Status:         &status,
				Progress:       &progress,
				OutputFilePath: &outputPath,
			})
			if err != nil || updated == nil {
				logger.Warn("simulated worker could not complete job",
					logger.String("jobId", jobID), logger.ErrorField(err))
				return
			}
			w.publish(updated)
			logger.Info("job completed",
				logger.String("jobId", jobID),
				logger.String("tool", updated.ToolName),
				logger.String("output", outputPath))
		})
	})
}

func (w *SimulatedWorker) publish(job *model.ProcessingJob) {
	if w.hub != nil {
		w.hub.Publish(job)
	}
}
