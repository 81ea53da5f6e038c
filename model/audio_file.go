package model

import "time"

// JSONMap is a free-form JSON object used for audio metadata and
// tool-specific job parameters.
type JSONMap map[string]interface{}

// AudioFile describes one uploaded audio asset and where its bytes live.
type AudioFile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId,omitempty"`
	Filename     string    `json:"filename"`     // Server-generated stored name
	OriginalName string    `json:"originalName"` // Name supplied by the client
	FileSize     int64     `json:"fileSize"`
	Duration     *float64  `json:"duration"` // Seconds; nil until extracted
	Format       string    `json:"format"`   // Lowercase extension without dot
	UploadedAt   time.Time `json:"uploadedAt"`
	FilePath     string    `json:"filePath"`
	Metadata     JSONMap   `json:"metadata"`
}
