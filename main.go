package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"renameflow/api"
	"renameflow/handlers"
	"renameflow/internal/database"
	"renameflow/internal/holdfs"
	"renameflow/services/admission"
	"renameflow/services/aggregator"
	"renameflow/services/artifacts"
	"renameflow/services/dedup"
	"renameflow/services/pipeline"
	"renameflow/services/transport"
	"renameflow/utils"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[main] invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[main] invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}

func main() {
	dataDir := envOr("RENAMEFLOW_DATA_DIR", "./data")
	listenAddr := envOr("RENAMEFLOW_LISTEN", ":8080")

	// Rotating file log, mirrored to stderr.
	logWriter := &lumberjack.Logger{
		Filename:   filepath.Join(dataDir, "logs", "renameflow.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logWriter))
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	db, err := database.NewDB(database.Config{
		DatabasePath: filepath.Join(dataDir, "renameflow.db"),
	})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()

	client := transport.NewLocal(
		envOr("RENAMEFLOW_INBOX_DIR", filepath.Join(dataDir, "inbox")),
		envOr("RENAMEFLOW_OUTBOX_DIR", filepath.Join(dataDir, "outbox")),
	)

	pipe := pipeline.NewService(
		dedup.NewGuard(envDurationOr("RENAMEFLOW_DEDUP_WINDOW", dedup.DefaultTTL)),
		admission.NewController(envIntOr("RENAMEFLOW_MAX_CONCURRENT", admission.DefaultPerOwnerLimit)),
		holdfs.NewStore(filepath.Join(dataDir, "hold")),
		db.Preferences,
		client,
		artifacts.NewTagger(envIntOr("RENAMEFLOW_TAG_WORKERS", 4)),
		pipeline.Config{WorkDir: filepath.Join(dataDir, "work")},
		aggregator.Config{
			PollInterval: envDurationOr("RENAMEFLOW_BATCH_POLL", aggregator.DefaultPollInterval),
			GracePeriod:  envDurationOr("RENAMEFLOW_BATCH_GRACE", aggregator.DefaultGracePeriod),
		},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	pipe.Start(ctx)

	limiter := api.NewClientRateLimiter(rate.Every(time.Second), 20)

	router := utils.NewRouter()
	eventsHandler := handlers.NewEventsHandler(pipe)
	prefsHandler := handlers.NewPreferencesHandler(db.Preferences)
	statusHandler := handlers.NewStatusHandler(pipe)
	versionHandler := handlers.NewVersionHandler()

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(api.LoggingMiddleware())
	apiRouter.HandleFunc("/version", versionHandler.GetVersion).Methods(http.MethodGet)
	apiRouter.HandleFunc("/status", statusHandler.GetStatus).Methods(http.MethodGet)

	ownerRouter := apiRouter.NewRoute().Subrouter()
	ownerRouter.Use(api.OwnerMiddleware())
	ownerRouter.Handle("/events",
		api.RateLimitHandler(limiter, http.HandlerFunc(eventsHandler.PostEvent))).Methods(http.MethodPost)
	ownerRouter.HandleFunc("/preferences", prefsHandler.GetPreferences).Methods(http.MethodGet)
	ownerRouter.HandleFunc("/preferences", prefsHandler.PutPreferences).Methods(http.MethodPut)
	ownerRouter.HandleFunc("/preferences", prefsHandler.DeletePreferences).Methods(http.MethodDelete)

	server := &http.Server{
		Addr:         listenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[main] shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] server shutdown: %v", err)
	}
	pipe.Stop(shutdownCtx)
	log.Println("[main] bye")
}
