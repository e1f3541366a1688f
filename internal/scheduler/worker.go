package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/events"
	"finroots_crm_backend/platform/config"
	"finroots_crm_backend/platform/logger"
)

// enqueueWorkers caps the scan's enqueue fan-out concurrency.
const enqueueWorkers = 8

// TaskWriter is the store mutation the worker needs to materialize a
// follow-up.
type TaskWriter interface {
	Collections
	CreateTask(t domain.Task)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	data   TaskWriter
	client *Client
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

func NewWorker(cfg config.SchedulerConfig, data TaskWriter, client *Client, bus events.Bus, log *logger.Logger, now func() time.Time) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		data:   data,
		client: client,
		bus:    bus,
		log:    log,
		now:    now,
	}

	mux.HandleFunc(TaskRenewalScan, w.handleRenewalScan)
	mux.HandleFunc(TaskAutoCreate, w.handleAutoCreate)

	return w, nil
}

// handleRenewalScan fans the due follow-ups out as individual jobs so each
// creation retries independently.
func (w *Worker) handleRenewalScan(ctx context.Context, _ *asynq.Task) error {
	payloads := DuePayloads(w.data, w.now())
	if len(payloads) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(enqueueWorkers)
	for _, payload := range payloads {
		g.Go(func() error {
			return w.client.EnqueueAutoCreate(ctx, payload)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.log.Info("renewal scan enqueued follow-ups", "count", len(payloads))
	return nil
}

// handleAutoCreate materializes one follow-up as an Auto task. The dedup
// check reruns here: the scan snapshot may be stale by the time the job runs.
func (w *Worker) handleAutoCreate(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAutoCreatePayload(task)
	if err != nil {
		return err
	}

	memberID, err := uuid.Parse(payload.MemberID)
	if err != nil {
		return err
	}
	advisorID, err := uuid.Parse(payload.AdvisorID)
	if err != nil {
		return err
	}

	if hasOpenAutoTask(w.data.ListTasks(), memberID, payload.PolicyType) {
		return nil
	}

	created := domain.Task{
		ID:                   uuid.New(),
		Description:          AutoDescription(payload.PolicyType, payload.DaysLeft),
		Status:               domain.TaskAssigned,
		PrimaryContactPerson: advisorID,
		MemberID:             &memberID,
		CreatedAt:            w.now(),
		CreatedBy:            advisorID,
		Type:                 domain.TaskAuto,
	}
	w.data.CreateTask(created)

	if w.bus != nil {
		w.bus.Publish(ctx, events.TaskCreated{
			BaseEvent:  events.NewBaseEvent(),
			TaskID:     created.ID,
			AssignedTo: advisorID,
			MemberID:   &memberID,
			TaskType:   string(domain.TaskAuto),
		})
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
