package repository

import (
	"audioforge/model"
)

// Store is the authoritative keyed storage for users, audio files and
// processing jobs. "Not found" is signaled by a nil record with a nil
// error; callers at the API boundary translate absence into a 404.
type Store interface {
	CreateUser(user *model.User) (*model.User, error)
	GetUser(id string) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)

	CreateAudioFile(file *model.AudioFile) (*model.AudioFile, error)
	GetAudioFile(id string) (*model.AudioFile, error)
	GetAudioFilesByUser(userID string) ([]*model.AudioFile, error)
	DeleteAudioFile(id string) (bool, error)

	CreateProcessingJob(job *model.ProcessingJob) (*model.ProcessingJob, error)
	GetProcessingJob(id string) (*model.ProcessingJob, error)
	GetProcessingJobsByUser(userID string) ([]*model.ProcessingJob, error)
	GetActiveProcessingJobs() ([]*model.ProcessingJob, error)
	UpdateProcessingJob(id string, update *model.JobUpdate) (*model.ProcessingJob, error)
	DeleteProcessingJob(id string) (bool, error)
}

// applyJobUpdate merges update into job, enforcing the status state
// machine. job is mutated in place. Both store implementations funnel
// through this so the transition rules cannot drift apart.
func applyJobUpdate(job *model.ProcessingJob, update *model.JobUpdate) error {
	if update.Status != nil && *update.Status != job.Status {
		next := *update.Status
		if !next.Valid() {
			return &model.ErrInvalidTransition{From: job.Status, To: next}
		}
		if !job.Status.CanTransition(next) {
			return &model.ErrInvalidTransition{From: job.Status, To: next}
		}
		job.Status = next
		if next.Terminal() {
			if update.CompletedAt != nil {
				job.CompletedAt = update.CompletedAt
			} else {
				now := nowFunc()
				job.CompletedAt = &now
			}
		}
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
	}
	if update.Parameters != nil {
		job.Parameters = update.Parameters
	}
	if update.OutputFilePath != nil {
		job.OutputFilePath = *update.OutputFilePath
	}
	if update.ErrorMessage != nil {
		job.ErrorMessage = *update.ErrorMessage
	}
	return nil
}
