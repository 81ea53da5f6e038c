package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"audioforge/cache"
	"audioforge/config"
	"audioforge/core/auth"
	"audioforge/core/worker"
	"audioforge/db"
	"audioforge/logger"
	"audioforge/model"
	"audioforge/repository"
	"audioforge/storage"
)

// Start wires every component from config and runs the HTTP server
// until SIGINT/SIGTERM.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	})

	auth.SetSecret(cfg.JWTSecret)

	store, err := buildStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize store", logger.ErrorField(err))
	}
	blobs, localDir, err := buildBlobStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize blob storage", logger.ErrorField(err))
	}

	var fileCache *cache.AudioFileCache
	if cfg.RedisAddr != "" {
		if err := db.ConnectRedis(cfg); err != nil {
			logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
		}
		defer db.CloseRedis()
		fileCache = cache.NewAudioFileCache(db.RedisClient)
		logger.Info("metadata cache enabled", logger.String("addr", cfg.RedisAddr))
	}

	demoUser, err := seedDemoUser(store)
	if err != nil {
		logger.Fatal("failed to seed demo user", logger.ErrorField(err))
	}

	hub := worker.NewHub()
	dispatcher := worker.NewSimulatedWorker(store, hub, cfg.WorkerStartDelay, cfg.WorkerFinishDelay)

	apiHandler := NewAPIHandler(store, blobs, fileCache, dispatcher, hub, cfg, demoUser.ID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cache invalidation on external deletes only makes sense for the
	// local blob driver with Redis enabled.
	if localDir != "" && fileCache != nil {
		go func() {
			if err := WatchUploadsDir(ctx, localDir, fileCache); err != nil {
				logger.Warn("uploads watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	router := NewRouter(apiHandler)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", logger.ErrorField(err))
	}
}

// NewRouter builds the mux router with CORS and every API route.
func NewRouter(apiHandler *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)

	router.HandleFunc("/health", apiHandler.HealthHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/audio/upload", apiHandler.AuthMiddleware(apiHandler.UploadAudioHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/audio/files", apiHandler.AuthMiddleware(apiHandler.ListAudioFilesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/files/{id}", apiHandler.AuthMiddleware(apiHandler.GetAudioFileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/files/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteAudioFileHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/audio/stream/{id}", apiHandler.AuthMiddleware(apiHandler.StreamAudioHandler)).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/api/processing/jobs", apiHandler.AuthMiddleware(apiHandler.CreateJobHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/processing/jobs", apiHandler.AuthMiddleware(apiHandler.ListJobsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/processing/jobs/watch", apiHandler.AuthMiddleware(apiHandler.WatchJobsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/processing/jobs/{id}", apiHandler.AuthMiddleware(apiHandler.GetJobHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/processing/jobs/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateJobHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/processing/jobs/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteJobHandler)).Methods(http.MethodDelete)

	router.HandleFunc("/api/stats", apiHandler.AuthMiddleware(apiHandler.StatsHandler)).Methods(http.MethodGet)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func buildStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case "mysql":
		if err := db.ConnectDB(cfg); err != nil {
			return nil, err
		}
		if err := db.InitDB(); err != nil {
			return nil, err
		}
		return repository.NewMySQLStore(db.DB), nil
	default:
		logger.Info("using in-memory store; state is lost on restart")
		return repository.NewMemoryStore(), nil
	}
}

// buildBlobStore returns the blob backend plus the local uploads
// directory when one exists (empty for minio).
func buildBlobStore(cfg *config.Config) (storage.BlobStore, string, error) {
	switch cfg.BlobDriver {
	case "minio":
		store, err := storage.NewMinioStore(cfg)
		return store, "", err
	default:
		store, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, "", err
		}
		return store, store.BaseDir(), nil
	}
}

// seedDemoUser ensures the fallback principal for unauthenticated
// requests exists.
func seedDemoUser(store repository.Store) (*model.User, error) {
	existing, err := store.GetUserByUsername("demo")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	hash, err := auth.HashPassword("demo")
	if err != nil {
		return nil, err
	}
	user, err := store.CreateUser(&model.User{Username: "demo", PasswordHash: hash})
	if err != nil {
		return nil, err
	}
	logger.Info("seeded demo user", logger.String("userId", user.ID))
	return user, nil
}
