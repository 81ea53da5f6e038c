package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"audioforge/model"
)

// MySQLStore implements Store on top of MySQL in plain database/sql.
// Selected with STORE_DRIVER=mysql; the schema comes from db.InitDB.
type MySQLStore struct {
	DB *sql.DB
}

// NewMySQLStore creates a store bound to the given database handle.
func NewMySQLStore(database *sql.DB) *MySQLStore {
	return &MySQLStore{DB: database}
}

func marshalJSONMap(m model.JSONMap) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal json blob: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalJSONMap(s sql.NullString) (model.JSONMap, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var m model.JSONMap
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json blob: %w", err)
	}
	return m, nil
}

func (s *MySQLStore) CreateUser(user *model.User) (*model.User, error) {
	stored := *user
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = nowFunc()
	}

	query := `INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.DB.Exec(query, stored.ID, stored.Username, stored.PasswordHash, stored.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to execute CreateUser: %w", err)
	}
	return &stored, nil
}

func (s *MySQLStore) GetUser(id string) (*model.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`
	row := s.DB.QueryRow(query, id)

	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user by ID %s: %w", id, err)
	}
	return user, nil
}

func (s *MySQLStore) GetUserByUsername(username string) (*model.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`
	row := s.DB.QueryRow(query, username)

	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user by username %s: %w", username, err)
	}
	return user, nil
}

func (s *MySQLStore) CreateAudioFile(file *model.AudioFile) (*model.AudioFile, error) {
	stored := *file
	stored.ID = uuid.NewString()
	stored.UploadedAt = nowFunc()

	metadata, err := marshalJSONMap(stored.Metadata)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO audio_files (id, user_id, filename, original_name, file_size, duration, format, uploaded_at, file_path, metadata)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.DB.Exec(query, stored.ID, nullString(stored.UserID), stored.Filename, stored.OriginalName,
		stored.FileSize, stored.Duration, stored.Format, stored.UploadedAt, stored.FilePath, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to execute CreateAudioFile: %w", err)
	}
	return &stored, nil
}

const audioFileColumns = `id, user_id, filename, original_name, file_size, duration, format, uploaded_at, file_path, metadata`

func scanAudioFile(row interface{ Scan(...interface{}) error }) (*model.AudioFile, error) {
	file := &model.AudioFile{}
	var userID sql.NullString
	var metadata sql.NullString
	err := row.Scan(&file.ID, &userID, &file.Filename, &file.OriginalName, &file.FileSize,
		&file.Duration, &file.Format, &file.UploadedAt, &file.FilePath, &metadata)
	if err != nil {
		return nil, err
	}
	file.UserID = userID.String
	file.Metadata, err = unmarshalJSONMap(metadata)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *MySQLStore) GetAudioFile(id string) (*model.AudioFile, error) {
	query := `SELECT ` + audioFileColumns + ` FROM audio_files WHERE id = ?`
	file, err := scanAudioFile(s.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan audio file by ID %s: %w", id, err)
	}
	return file, nil
}

func (s *MySQLStore) GetAudioFilesByUser(userID string) ([]*model.AudioFile, error) {
	query := `SELECT ` + audioFileColumns + ` FROM audio_files WHERE user_id = ? ORDER BY uploaded_at ASC, id ASC`
	rows, err := s.DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audio files for user %s: %w", userID, err)
	}
	defer rows.Close()

	files := make([]*model.AudioFile, 0)
	for rows.Next() {
		file, err := scanAudioFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audio file in GetAudioFilesByUser: %w", err)
		}
		files = append(files, file)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAudioFilesByUser: %w", err)
	}
	return files, nil
}

func (s *MySQLStore) DeleteAudioFile(id string) (bool, error) {
	res, err := s.DB.Exec(`DELETE FROM audio_files WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to execute DeleteAudioFile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows for DeleteAudioFile: %w", err)
	}
	return affected > 0, nil
}

func (s *MySQLStore) CreateProcessingJob(job *model.ProcessingJob) (*model.ProcessingJob, error) {
	stored := *job
	stored.ID = uuid.NewString()
	stored.CreatedAt = nowFunc()
	stored.CompletedAt = nil
	if stored.Status == "" {
		stored.Status = model.StatusPending
	}

	parameters, err := marshalJSONMap(stored.Parameters)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO processing_jobs (id, user_id, audio_file_id, tool_name, status, progress, parameters, output_file_path, error_message, created_at, completed_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.DB.Exec(query, stored.ID, nullString(stored.UserID), nullString(stored.AudioFileID),
		stored.ToolName, string(stored.Status), stored.Progress, parameters,
		nullString(stored.OutputFilePath), nullString(stored.ErrorMessage), stored.CreatedAt, stored.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute CreateProcessingJob: %w", err)
	}
	return &stored, nil
}

const jobColumns = `id, user_id, audio_file_id, tool_name, status, progress, parameters, output_file_path, error_message, created_at, completed_at`

func scanJob(row interface{ Scan(...interface{}) error }) (*model.ProcessingJob, error) {
	job := &model.ProcessingJob{}
	var userID, audioFileID, parameters, outputPath, errorMessage sql.NullString
	var status string
	err := row.Scan(&job.ID, &userID, &audioFileID, &job.ToolName, &status, &job.Progress,
		&parameters, &outputPath, &errorMessage, &job.CreatedAt, &job.CompletedAt)
	if err != nil {
		return nil, err
	}
	job.UserID = userID.String
	job.AudioFileID = audioFileID.String
	job.Status = model.JobStatus(status)
	job.OutputFilePath = outputPath.String
	job.ErrorMessage = errorMessage.String
	job.Parameters, err = unmarshalJSONMap(parameters)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *MySQLStore) GetProcessingJob(id string) (*model.ProcessingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM processing_jobs WHERE id = ?`
	job, err := scanJob(s.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan job by ID %s: %w", id, err)
	}
	return job, nil
}

func (s *MySQLStore) queryJobs(query string, args ...interface{}) ([]*model.ProcessingJob, error) {
	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*model.ProcessingJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during job rows iteration: %w", err)
	}
	return jobs, nil
}

func (s *MySQLStore) GetProcessingJobsByUser(userID string) ([]*model.ProcessingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM processing_jobs WHERE user_id = ? ORDER BY created_at ASC, id ASC`
	return s.queryJobs(query, userID)
}

func (s *MySQLStore) GetActiveProcessingJobs() ([]*model.ProcessingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM processing_jobs WHERE status IN ('pending', 'processing') ORDER BY created_at ASC, id ASC`
	return s.queryJobs(query)
}

// UpdateProcessingJob merges the partial update inside a transaction so
// the state-machine check and the write are atomic.
func (s *MySQLStore) UpdateProcessingJob(id string, update *model.JobUpdate) (*model.ProcessingJob, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for UpdateProcessingJob: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + jobColumns + ` FROM processing_jobs WHERE id = ? FOR UPDATE`
	job, err := scanJob(tx.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan job %s for update: %w", id, err)
	}

	if err := applyJobUpdate(job, update); err != nil {
		return nil, err
	}

	parameters, err := marshalJSONMap(job.Parameters)
	if err != nil {
		return nil, err
	}

	updateQuery := `UPDATE processing_jobs
	                 SET status = ?, progress = ?, parameters = ?, output_file_path = ?, error_message = ?, completed_at = ?
	                 WHERE id = ?`
	_, err = tx.Exec(updateQuery, string(job.Status), job.Progress, parameters,
		nullString(job.OutputFilePath), nullString(job.ErrorMessage), job.CompletedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to execute UpdateProcessingJob for %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit UpdateProcessingJob for %s: %w", id, err)
	}
	return job, nil
}

func (s *MySQLStore) DeleteProcessingJob(id string) (bool, error) {
	res, err := s.DB.Exec(`DELETE FROM processing_jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to execute DeleteProcessingJob: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows for DeleteProcessingJob: %w", err)
	}
	return affected > 0, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
