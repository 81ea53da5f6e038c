package repository

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"audioforge/model"
)

// nowFunc is swapped out by tests that need deterministic timestamps.
var nowFunc = time.Now

// MemoryStore keeps all records in process memory. State does not
// survive a restart. Scans return records in insertion order so
// repeated reads without intervening writes are stable.
type MemoryStore struct {
	mu sync.RWMutex

	users      map[string]*model.User
	audioFiles map[string]*model.AudioFile
	jobs       map[string]*model.ProcessingJob

	userOrder []string
	fileOrder []string
	jobOrder  []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*model.User),
		audioFiles: make(map[string]*model.AudioFile),
		jobs:       make(map[string]*model.ProcessingJob),
	}
}

// CreateUser assigns an ID and stores the user. Username uniqueness is
// the caller's responsibility; the register handler checks it first.
func (s *MemoryStore) CreateUser(user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *user
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = nowFunc()
	}
	s.users[stored.ID] = &stored
	s.userOrder = append(s.userOrder, stored.ID)

	out := stored
	return &out, nil
}

func (s *MemoryStore) GetUser(id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	out := *user
	return &out, nil
}

// GetUserByUsername does a linear scan over all users.
func (s *MemoryStore) GetUserByUsername(username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.userOrder {
		if s.users[id].Username == username {
			out := *s.users[id]
			return &out, nil
		}
	}
	return nil, nil
}

// CreateAudioFile assigns an ID, stamps the upload time and stores the
// record.
func (s *MemoryStore) CreateAudioFile(file *model.AudioFile) (*model.AudioFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *file
	stored.ID = uuid.NewString()
	stored.UploadedAt = nowFunc()
	s.audioFiles[stored.ID] = &stored
	s.fileOrder = append(s.fileOrder, stored.ID)

	out := stored
	return &out, nil
}

func (s *MemoryStore) GetAudioFile(id string) (*model.AudioFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.audioFiles[id]
	if !ok {
		return nil, nil
	}
	out := *file
	return &out, nil
}

func (s *MemoryStore) GetAudioFilesByUser(userID string) ([]*model.AudioFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]*model.AudioFile, 0)
	for _, id := range s.fileOrder {
		if file, ok := s.audioFiles[id]; ok && file.UserID == userID {
			out := *file
			files = append(files, &out)
		}
	}
	return files, nil
}

func (s *MemoryStore) DeleteAudioFile(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.audioFiles[id]; !ok {
		return false, nil
	}
	delete(s.audioFiles, id)
	s.fileOrder = removeID(s.fileOrder, id)
	return true, nil
}

// CreateProcessingJob assigns an ID, stamps the creation time and
// defaults status to pending with zero progress when absent.
func (s *MemoryStore) CreateProcessingJob(job *model.ProcessingJob) (*model.ProcessingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *job
	stored.ID = uuid.NewString()
	stored.CreatedAt = nowFunc()
	stored.CompletedAt = nil
	if stored.Status == "" {
		stored.Status = model.StatusPending
	}
	s.jobs[stored.ID] = &stored
	s.jobOrder = append(s.jobOrder, stored.ID)

	out := stored
	return &out, nil
}

func (s *MemoryStore) GetProcessingJob(id string) (*model.ProcessingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	out := *job
	return &out, nil
}

func (s *MemoryStore) GetProcessingJobsByUser(userID string) ([]*model.ProcessingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*model.ProcessingJob, 0)
	for _, id := range s.jobOrder {
		if job, ok := s.jobs[id]; ok && job.UserID == userID {
			out := *job
			jobs = append(jobs, &out)
		}
	}
	return jobs, nil
}

// GetActiveProcessingJobs returns jobs whose status is pending or
// processing, in insertion order.
func (s *MemoryStore) GetActiveProcessingJobs() ([]*model.ProcessingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*model.ProcessingJob, 0)
	for _, id := range s.jobOrder {
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		if job.Status == model.StatusPending || job.Status == model.StatusProcessing {
			out := *job
			jobs = append(jobs, &out)
		}
	}
	return jobs, nil
}

// UpdateProcessingJob merges the partial update into the stored job.
// Returns (nil, nil) when the id is unknown and ErrInvalidTransition
// when the requested status move is illegal.
func (s *MemoryStore) UpdateProcessingJob(id string, update *model.JobUpdate) (*model.ProcessingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	if err := applyJobUpdate(job, update); err != nil {
		return nil, err
	}
	out := *job
	return &out, nil
}

func (s *MemoryStore) DeleteProcessingJob(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return false, nil
	}
	delete(s.jobs, id)
	s.jobOrder = removeID(s.jobOrder, id)
	return true, nil
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
