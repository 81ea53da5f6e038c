package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"audioforge/config"
	"audioforge/logger"
)

// DB is the global database handle, set by ConnectDB. Only used when
// STORE_DRIVER=mysql; the default memory store never touches it.
var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxIdleConns(10)
	DB.SetMaxOpenConns(100)
	DB.SetConnMaxLifetime(time.Hour)

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database.")
	return nil
}

// InitDB creates the schema if it does not exist. The column set mirrors
// the product's relational schema; JSON blobs land in TEXT columns.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createAudioFilesTable(); err != nil {
		return err
	}
	if err := createProcessingJobsTable(); err != nil {
		return err
	}
	logger.Info("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		username VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uniq_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createAudioFilesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audio_files (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36),
		filename VARCHAR(512) NOT NULL,
		original_name VARCHAR(512) NOT NULL,
		file_size BIGINT NOT NULL,
		duration DOUBLE NULL,
		format VARCHAR(16) NOT NULL,
		uploaded_at DATETIME NOT NULL,
		file_path VARCHAR(1024) NOT NULL,
		metadata TEXT,
		KEY idx_audio_files_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create audio_files table: %w", err)
	}
	return nil
}

func createProcessingJobsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS processing_jobs (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36),
		audio_file_id VARCHAR(36),
		tool_name VARCHAR(64) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		progress INT NOT NULL DEFAULT 0,
		parameters TEXT,
		output_file_path VARCHAR(1024),
		error_message TEXT,
		created_at DATETIME NOT NULL,
		completed_at DATETIME NULL,
		KEY idx_processing_jobs_user (user_id),
		KEY idx_processing_jobs_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create processing_jobs table: %w", err)
	}
	return nil
}
