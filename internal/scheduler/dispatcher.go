package scheduler

import (
	"context"
	"time"

	"finroots_crm_backend/platform/config"
	"finroots_crm_backend/platform/logger"
)

// RenewalDispatcher periodically kicks off a renewal scan. It only enqueues
// the scan job; the worker does the walking.
type RenewalDispatcher struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewRenewalDispatcher(cfg config.SchedulerConfig, client *Client, log *logger.Logger) *RenewalDispatcher {
	interval := cfg.GetRenewalScanInterval()
	if interval <= 0 {
		interval = time.Hour
	}

	return &RenewalDispatcher{
		client:   client,
		interval: interval,
		log:      log,
	}
}

func (d *RenewalDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// One scan on startup so a fresh deployment does not wait a full interval.
	d.enqueue(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.enqueue(ctx)
		}
	}
}

func (d *RenewalDispatcher) enqueue(ctx context.Context) {
	if err := d.client.EnqueueRenewalScan(ctx); err != nil {
		d.log.Warn("renewal scan enqueue failed", "error", err)
	}
}
