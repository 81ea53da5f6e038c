package model

import (
	"fmt"
	"time"
)

// JobStatus is the closed set of processing-job states.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s admits no further status transition.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a job may move from s to next.
// Legal moves: pending→processing, pending→failed,
// processing→completed, processing→failed. A no-op (same status)
// is always allowed so progress-only updates pass through.
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	}
	return false
}

// Tool names match the product's tool catalogue.
const (
	ToolVocalRemover   = "vocal_remover"
	ToolPitchTempo     = "pitch_tempo"
	ToolConverter      = "converter"
	ToolCutterJoiner   = "cutter_joiner"
	ToolNoiseReduction = "noise_reduction"
	ToolVolumeBooster  = "volume_booster"
	ToolFade           = "fade"
	ToolMetadataEditor = "metadata_editor"
	ToolReverse        = "reverse"
	ToolAudioPlayer    = "audio_player"
)

// AudioTools lists every known tool name.
var AudioTools = []string{
	ToolVocalRemover,
	ToolPitchTempo,
	ToolConverter,
	ToolCutterJoiner,
	ToolNoiseReduction,
	ToolVolumeBooster,
	ToolFade,
	ToolMetadataEditor,
	ToolReverse,
	ToolAudioPlayer,
}

// ValidTool reports whether name is a known tool.
func ValidTool(name string) bool {
	for _, t := range AudioTools {
		if t == name {
			return true
		}
	}
	return false
}

// ProcessingJob tracks the lifecycle of applying a named tool to an
// uploaded audio file.
type ProcessingJob struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId,omitempty"`
	AudioFileID    string     `json:"audioFileId,omitempty"`
	ToolName       string     `json:"toolName"`
	Status         JobStatus  `json:"status"`
	Progress       int        `json:"progress"` // 0-100
	Parameters     JSONMap    `json:"parameters"`
	OutputFilePath string     `json:"outputFilePath,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt"`
}

// JobUpdate is a partial update merged into an existing job. Nil fields
// are left untouched.
type JobUpdate struct {
	Status         *JobStatus `json:"status"`
	Progress       *int       `json:"progress"`
	Parameters     JSONMap    `json:"parameters"`
	OutputFilePath *string    `json:"outputFilePath"`
	ErrorMessage   *string    `json:"errorMessage"`
	CompletedAt    *time.Time `json:"completedAt"`
}

// ErrInvalidTransition is returned when an update asks for a status
// move the state machine does not allow.
type ErrInvalidTransition struct {
	From JobStatus
	To   JobStatus
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}
