// Package worker relays outbox rows to a broker sink.
package worker

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "charitydrive/pkg/platform/audit"
	"charitydrive/pkg/platform/audit/store/postgres"
	txcontext "charitydrive/pkg/platform/tx"
)

const (
	defaultBatchSize = 100
	defaultInterval  = time.Second
)

// Outbox is the subset of the postgres store the relay needs.
type Outbox interface {
	DB() *sql.DB
	FetchPending(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Relay polls the outbox and forwards pending events to a sink. A batch is
// marked published only after every event in it was accepted by the sink.
type Relay struct {
	outbox    Outbox
	sink      audit.Sink
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func NewRelay(outbox Outbox, sink audit.Sink, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		sink:      sink,
		logger:    slog.Default(),
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.WarnContext(ctx, "outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce forwards one batch and reports how many events were sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	tx, err := r.outbox.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	txCtx := txcontext.WithTx(ctx, tx)

	entries, err := r.outbox.FetchPending(txCtx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if err := r.sink.Publish(ctx, entry.Event); err != nil {
			return 0, err
		}
		ids = append(ids, entry.ID)
	}
	if err := r.outbox.MarkPublished(txCtx, ids); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(ids), nil
}
