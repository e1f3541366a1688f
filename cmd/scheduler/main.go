package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finroots_crm_backend/internal/crm/store"
	"finroots_crm_backend/internal/events"
	"finroots_crm_backend/internal/scheduler"
	"finroots_crm_backend/platform/config"
	"finroots_crm_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New()
	if err := store.LoadSeed(st, cfg.SeedFile); err != nil {
		log.Error("failed to load seed data", "error", err, "file", cfg.SeedFile)
		panic("failed to load seed data: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	// The scheduler binary has no notification feed; an audit log line is the
	// subscriber for the tasks it generates.
	eventBus.Subscribe(events.TaskCreated{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(events.TaskCreated); ok {
			log.Info("task created", "taskId", e.TaskID, "assignedTo", e.AssignedTo, "taskType", e.TaskType)
		}
		return nil
	}))

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	dispatcher := scheduler.NewRenewalDispatcher(cfg, client, log)
	go dispatcher.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, st, client, eventBus, log, time.Now)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}
