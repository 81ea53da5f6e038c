package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"audioforge/config"
	"audioforge/logger"
	"audioforge/model"
	"audioforge/storage"
)

// multipartMemoryLimit is how much of the form is held in memory before
// spilling to temp files; larger uploads stream from disk.
const multipartMemoryLimit = 32 << 20

func allowedExtension(ext string) bool {
	for _, allowed := range config.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// UploadAudioHandler accepts one multipart "audio" field, persists the
// payload and registers its metadata. Validation is extension-based
// only; nothing inspects the bytes.
func (h *APIHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
			return
		}
		respondError(w, http.StatusBadRequest, "Malformed multipart form")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtension(ext) {
		respondError(w, http.StatusBadRequest, "Invalid file type. Only audio files are allowed.")
		return
	}

	storedName := uuid.NewString() + ext
	path, err := h.blobs.Save(r.Context(), storedName, file, header.Size)
	if err != nil {
		logger.Error("failed to persist upload",
			logger.String("originalName", header.Filename), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	record, err := h.store.CreateAudioFile(&model.AudioFile{
		UserID:       userID,
		Filename:     storedName,
		OriginalName: header.Filename,
		FileSize:     header.Size,
		Format:       strings.TrimPrefix(ext, "."),
		FilePath:     path,
	})
	if err != nil {
		logger.Error("failed to register upload", logger.ErrorField(err))
		h.blobs.Remove(r.Context(), path)
		respondError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	h.fileCache.Set(r.Context(), record)
	h.fileCache.SetNameIndex(r.Context(), record.Filename, record.ID)

	logger.Info("audio file uploaded",
		logger.String("fileId", record.ID),
		logger.String("originalName", record.OriginalName),
		logger.Int64("bytes", record.FileSize),
		logger.String("format", record.Format))
	respondJSON(w, http.StatusOK, record)
}

// ListAudioFilesHandler returns the principal's files.
func (h *APIHandler) ListAudioFilesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	files, err := h.store.GetAudioFilesByUser(userID)
	if err != nil {
		logger.Error("failed to list audio files", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get files")
		return
	}
	respondJSON(w, http.StatusOK, files)
}

// GetAudioFileHandler returns one file record by id.
func (h *APIHandler) GetAudioFileHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	file, err := h.store.GetAudioFile(id)
	if err != nil {
		logger.Error("failed to get audio file", logger.String("fileId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get file")
		return
	}
	if file == nil {
		respondError(w, http.StatusNotFound, "File not found")
		return
	}
	respondJSON(w, http.StatusOK, file)
}

// StreamAudioHandler serves a file's bytes with full Range support.
// A missing metadata record and missing bytes on disk are distinct
// not-found cases.
func (h *APIHandler) StreamAudioHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	file, err := h.fileCache.Get(r.Context(), id)
	if err != nil {
		logger.Warn("cache read failed, falling back to store",
			logger.String("fileId", id), logger.ErrorField(err))
	}
	if file == nil {
		file, err = h.store.GetAudioFile(id)
		if err != nil {
			logger.Error("failed to resolve audio file", logger.String("fileId", id), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Failed to stream file")
			return
		}
		if file == nil {
			respondError(w, http.StatusNotFound, "File not found")
			return
		}
		h.fileCache.Set(r.Context(), file)
	}

	blob, size, err := h.blobs.Open(r.Context(), file.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			respondError(w, http.StatusNotFound, "File not found on disk")
			return
		}
		logger.Error("failed to open blob",
			logger.String("fileId", id), logger.String("path", file.FilePath), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to stream file")
		return
	}
	defer blob.Close()

	logger.Debug("streaming audio file",
		logger.String("fileId", id),
		logger.Int64("bytes", size),
		logger.String("range", r.Header.Get("Range")))

	// ServeContent handles Range parsing, 206 responses and
	// Content-Length; the declared format wins over sniffing.
	w.Header().Set("Content-Type", "audio/"+file.Format)
	w.Header().Set("Accept-Ranges", "bytes")
	http.ServeContent(w, r, "", file.UploadedAt, blob)
}

// DeleteAudioFileHandler removes a file record, its blob and cache entry.
func (h *APIHandler) DeleteAudioFileHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	file, err := h.store.GetAudioFile(id)
	if err != nil {
		logger.Error("failed to resolve audio file for delete", logger.String("fileId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}
	if file == nil {
		respondError(w, http.StatusNotFound, "File not found")
		return
	}

	if _, err := h.store.DeleteAudioFile(id); err != nil {
		logger.Error("failed to delete audio file", logger.String("fileId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}
	if err := h.blobs.Remove(r.Context(), file.FilePath); err != nil {
		logger.Warn("failed to remove blob for deleted file",
			logger.String("fileId", id), logger.ErrorField(err))
	}
	h.fileCache.Invalidate(r.Context(), id)

	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
