package repository

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"audioforge/model"
)

func TestCreateAndGetUser(t *testing.T) {
	store := NewMemoryStore()

	created, err := store.CreateUser(&model.User{Username: "alice", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned ID")
	}

	got, err := store.GetUser(created.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got == nil || got.Username != "alice" {
		t.Fatalf("GetUser = %+v, want alice", got)
	}

	byName, err := store.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName == nil || byName.ID != created.ID {
		t.Fatalf("GetUserByUsername = %+v, want id %s", byName, created.ID)
	}

	missing, err := store.GetUser("nope")
	if err != nil || missing != nil {
		t.Fatalf("GetUser(nope) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestCreateAudioFileRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	created, err := store.CreateAudioFile(&model.AudioFile{
		UserID:       "u1",
		Filename:     "abc.wav",
		OriginalName: "test.wav",
		FileSize:     10,
		Format:       "wav",
		FilePath:     "uploads/abc.wav",
	})
	if err != nil {
		t.Fatalf("CreateAudioFile: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned ID")
	}
	if created.UploadedAt.IsZero() {
		t.Fatal("expected UploadedAt to be stamped")
	}

	got, err := store.GetAudioFile(created.ID)
	if err != nil {
		t.Fatalf("GetAudioFile: %v", err)
	}
	if !reflect.DeepEqual(got, created) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, created)
	}
}

func TestGetAudioFilesByUserOrderAndIdempotence(t *testing.T) {
	store := NewMemoryStore()

	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		if _, err := store.CreateAudioFile(&model.AudioFile{UserID: "u1", OriginalName: name, Format: "mp3"}); err != nil {
			t.Fatalf("CreateAudioFile(%s): %v", name, err)
		}
	}
	if _, err := store.CreateAudioFile(&model.AudioFile{UserID: "u2", OriginalName: "other.mp3", Format: "mp3"}); err != nil {
		t.Fatalf("CreateAudioFile(other): %v", err)
	}

	first, err := store.GetAudioFilesByUser("u1")
	if err != nil {
		t.Fatalf("GetAudioFilesByUser: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("got %d files, want 3", len(first))
	}
	for i, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		if first[i].OriginalName != name {
			t.Errorf("file[%d] = %s, want %s (insertion order)", i, first[i].OriginalName, name)
		}
	}

	second, err := store.GetAudioFilesByUser("u1")
	if err != nil {
		t.Fatalf("GetAudioFilesByUser (second): %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated scans without writes should return equal slices")
	}
}

func TestDeleteAudioFile(t *testing.T) {
	store := NewMemoryStore()

	created, _ := store.CreateAudioFile(&model.AudioFile{UserID: "u1", OriginalName: "a.mp3"})

	existed, err := store.DeleteAudioFile(created.ID)
	if err != nil || !existed {
		t.Fatalf("DeleteAudioFile = %v, %v; want true, nil", existed, err)
	}
	existed, err = store.DeleteAudioFile(created.ID)
	if err != nil || existed {
		t.Fatalf("second DeleteAudioFile = %v, %v; want false, nil", existed, err)
	}
	got, _ := store.GetAudioFile(created.ID)
	if got != nil {
		t.Fatal("deleted file still retrievable")
	}
}

func TestCreateProcessingJobDefaults(t *testing.T) {
	store := NewMemoryStore()

	created, err := store.CreateProcessingJob(&model.ProcessingJob{
		UserID:   "u1",
		ToolName: model.ToolVocalRemover,
	})
	if err != nil {
		t.Fatalf("CreateProcessingJob: %v", err)
	}
	if created.Status != model.StatusPending {
		t.Errorf("status = %s, want pending", created.Status)
	}
	if created.Progress != 0 {
		t.Errorf("progress = %d, want 0", created.Progress)
	}
	if created.CompletedAt != nil {
		t.Error("completedAt should start nil")
	}
	if created.CreatedAt.IsZero() {
		t.Error("createdAt should be stamped")
	}
}

func TestGetActiveProcessingJobs(t *testing.T) {
	store := NewMemoryStore()

	pending, _ := store.CreateProcessingJob(&model.ProcessingJob{UserID: "u1", ToolName: model.ToolFade})
	running, _ := store.CreateProcessingJob(&model.ProcessingJob{UserID: "u1", ToolName: model.ToolFade})
	done, _ := store.CreateProcessingJob(&model.ProcessingJob{UserID: "u1", ToolName: model.ToolFade})

	processing := model.StatusProcessing
	if _, err := store.UpdateProcessingJob(running.ID, &model.JobUpdate{Status: &processing}); err != nil {
		t.Fatalf("update to processing: %v", err)
	}
	completed := model.StatusCompleted
	if _, err := store.UpdateProcessingJob(done.ID, &model.JobUpdate{Status: &processing}); err != nil {
		t.Fatalf("update to processing: %v", err)
	}
	if _, err := store.UpdateProcessingJob(done.ID, &model.JobUpdate{Status: &completed}); err != nil {
		t.Fatalf("update to completed: %v", err)
	}

	active, err := store.GetActiveProcessingJobs()
	if err != nil {
		t.Fatalf("GetActiveProcessingJobs: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("got %d active jobs, want 2", len(active))
	}
	if active[0].ID != pending.ID || active[1].ID != running.ID {
		t.Errorf("active jobs out of order: %s, %s", active[0].ID, active[1].ID)
	}
}

func TestUpdateProcessingJobMerge(t *testing.T) {
	store := NewMemoryStore()

	created, _ := store.CreateProcessingJob(&model.ProcessingJob{UserID: "u1", ToolName: model.ToolConverter})

	processing := model.StatusProcessing
	progress := 50
	updated, err := store.UpdateProcessingJob(created.ID, &model.JobUpdate{
		Status:   &processing,
		Progress: &progress,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.StatusProcessing || updated.Progress != 50 {
		t.Fatalf("merge result = %s/%d, want processing/50", updated.Status, updated.Progress)
	}
	if updated.CompletedAt != nil {
		t.Error("completedAt set before terminal state")
	}
	if updated.ToolName != model.ToolConverter {
		t.Error("untouched field changed by merge")
	}

	missing, err := store.UpdateProcessingJob("nope", &model.JobUpdate{Progress: &progress})
	if err != nil || missing != nil {
		t.Fatalf("update of unknown id = %+v, %v; want nil, nil", missing, err)
	}
}

func TestTerminalStateStampsAndFreezesCompletedAt(t *testing.T) {
	store := NewMemoryStore()

	created, _ := store.CreateProcessingJob(&model.ProcessingJob{UserID: "u1", ToolName: model.ToolReverse})

	processing := model.StatusProcessing
	if _, err := store.UpdateProcessingJob(created.ID, &model.JobUpdate{Status: &processing}); err != nil {
		t.Fatalf("to processing: %v", err)
	}

	completed := model.StatusCompleted
	output := "/processed/out.mp3"
	terminal, err := store.UpdateProcessingJob(created.ID, &model.JobUpdate{Status: &completed, OutputFilePath: &output})
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if terminal.CompletedAt == nil {
		t.Fatal("completedAt not stamped on terminal transition")
	}
	stamped := *terminal.CompletedAt

	// Non-status updates after the terminal state must not disturb it.
	progress := 100
	after, err := store.UpdateProcessingJob(created.ID, &model.JobUpdate{Progress: &progress})
	if err != nil {
		t.Fatalf("post-terminal update: %v", err)
	}
	if after.CompletedAt == nil || !after.CompletedAt.Equal(stamped) {
		t.Fatalf("completedAt changed after terminal state: %v -> %v", stamped, after.CompletedAt)
	}
}

func TestExplicitCompletedAtRespected(t *testing.T) {
	store := NewMemoryStore()

	created, _ := store.CreateProcessingJob(&model.ProcessingJob{UserID: "u1", ToolName: model.ToolFade})

	processing := model.StatusProcessing
	if _, err := store.UpdateProcessingJob(created.ID, &model.JobUpdate{Status: &processing}); err != nil {
		t.Fatalf("to processing: %v", err)
	}

	failed := model.StatusFailed
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := "worker crashed"
	terminal, err := store.UpdateProcessingJob(created.ID, &model.JobUpdate{
		Status:       &failed,
		ErrorMessage: &msg,
		CompletedAt:  &when,
	})
	if err != nil {
		t.Fatalf("to failed: %v", err)
	}
	if terminal.CompletedAt == nil || !terminal.CompletedAt.Equal(when) {
		t.Fatalf("completedAt = %v, want supplied %v", terminal.CompletedAt, when)
	}
	if terminal.ErrorMessage != msg {
		t.Errorf("errorMessage = %q, want %q", terminal.ErrorMessage, msg)
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	tests := []struct {
		name string
		path []model.JobStatus // statuses to walk through first
		next model.JobStatus
	}{
		{"pending to completed", nil, model.StatusCompleted},
		{"completed to processing", []model.JobStatus{model.StatusProcessing, model.StatusCompleted}, model.StatusProcessing},
		{"completed to failed", []model.JobStatus{model.StatusProcessing, model.StatusCompleted}, model.StatusFailed},
		{"failed to processing", []model.JobStatus{model.StatusFailed}, model.StatusProcessing},
		{"unknown status", nil, model.JobStatus("paused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			created, _ := store.CreateProcessingJob(&model.ProcessingJob{UserID: "u1", ToolName: model.ToolFade})

			for _, st := range tt.path {
				s := st
				if _, err := store.UpdateProcessingJob(created.ID, &model.JobUpdate{Status: &s}); err != nil {
					t.Fatalf("walking to %s: %v", st, err)
				}
			}

			next := tt.next
			_, err := store.UpdateProcessingJob(created.ID, &model.JobUpdate{Status: &next})
			var transitionErr *model.ErrInvalidTransition
			if err == nil {
				t.Fatal("expected transition error")
			}
			if !errors.As(err, &transitionErr) {
				t.Fatalf("error = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestDeleteProcessingJob(t *testing.T) {
	store := NewMemoryStore()

	created, _ := store.CreateProcessingJob(&model.ProcessingJob{UserID: "u1", ToolName: model.ToolFade})

	existed, err := store.DeleteProcessingJob(created.ID)
	if err != nil || !existed {
		t.Fatalf("DeleteProcessingJob = %v, %v; want true, nil", existed, err)
	}
	existed, err = store.DeleteProcessingJob(created.ID)
	if err != nil || existed {
		t.Fatalf("second DeleteProcessingJob = %v, %v; want false, nil", existed, err)
	}
}
