package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finroots_crm_backend/internal/adapters/storage"
	"finroots_crm_backend/internal/ai"
	"finroots_crm_backend/internal/analytics"
	"finroots_crm_backend/internal/assistant"
	"finroots_crm_backend/internal/crm/store"
	"finroots_crm_backend/internal/events"
	apphttp "finroots_crm_backend/internal/http"
	"finroots_crm_backend/internal/http/router"
	"finroots_crm_backend/internal/members"
	"finroots_crm_backend/internal/notes"
	notesservice "finroots_crm_backend/internal/notes/service"
	"finroots_crm_backend/internal/notify"
	"finroots_crm_backend/internal/policies"
	"finroots_crm_backend/internal/routes"
	"finroots_crm_backend/internal/tasks"
	"finroots_crm_backend/platform/config"
	"finroots_crm_backend/platform/logger"
	"finroots_crm_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	st := store.New()
	if err := store.LoadSeed(st, cfg.SeedFile); err != nil {
		log.Error("failed to load seed data", "error", err, "file", cfg.SeedFile)
		panic("failed to load seed data: " + err.Error())
	}
	log.Info("store seeded", "file", cfg.SeedFile)

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	audioStore := initAudioStore(ctx, cfg, log)

	gateway, err := ai.NewGateway(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize AI gateway", "error", err)
		panic("failed to initialize AI gateway: " + err.Error())
	}

	now := time.Now
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	tasksModule := tasks.NewModule(st, eventBus, val, now)
	policiesModule := policies.NewModule(st, ai.PaymentExtractor{Gateway: gateway}, now)
	membersModule := members.NewModule(st, ai.MemberSearcher{Gateway: gateway})
	notesModule := notes.NewModule(st, tasksModule.Service(), audioStore, ai.NoteMatcher{Gateway: gateway}, ai.NoteSummarizer{Gateway: gateway}, eventBus)
	analyticsModule := analytics.NewModule(st, ai.GrowthForecaster{Gateway: gateway}, now)
	routesModule := routes.NewModule(st, ai.RoutePlanner{Gateway: gateway})

	notifyModule := notify.NewModule(st, log, now)
	notifyModule.RegisterHandlers(eventBus)

	chat, err := assistant.New(ctx, cfg, st, tasksModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize assistant", "error", err)
		panic("failed to initialize assistant: " + err.Error())
	}
	assistantModule := assistant.NewModule(chat)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			policiesModule,
			membersModule,
			tasksModule,
			notesModule,
			analyticsModule,
			routesModule,
			notifyModule,
			assistantModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initAudioStore wires the MinIO-backed audio store when configured, with a
// disabled stand-in otherwise so the notes module keeps serving.
func initAudioStore(ctx context.Context, cfg *config.Config, log *logger.Logger) notesservice.AudioStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MinIO not configured; voice-note audio upload/download disabled")
		return storage.DisabledAudioStore{}
	}

	audioStore, err := storage.NewAudioStore(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	if err := withRetry(ctx, log, "ensure voice-notes bucket", 5, 2*time.Second, func() error {
		return audioStore.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.MinIOBucketVoice)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}

	log.Info("storage service initialized", "voiceNotesBucket", cfg.MinIOBucketVoice)
	return audioStore
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
