// Package service implements the charity-drive marketplace: the required
// items registry, the bidding state machine, quota accounting and the
// credit exchange.
//
// Every mutation runs inside StateStore.Execute. Inside the callback all
// validation happens first, the single ledger call (if any) is the last
// fallible step, and only then is the draft state changed. A failed
// operation therefore leaves both the marketplace and the ledger untouched.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"charitydrive/internal/marketplace/metrics"
	"charitydrive/internal/marketplace/models"
	"charitydrive/internal/marketplace/ports"
	dErrors "charitydrive/pkg/domain-errors"
	"charitydrive/pkg/platform/audit"
	"charitydrive/pkg/requestcontext"
)

const (
	// ExchangeRate is the credit minted per whole deposit currency unit.
	ExchangeRate = 100

	// DefaultDepositDenomination is the number of base deposit units in one
	// whole currency unit.
	DefaultDepositDenomination = 100
)

type Service struct {
	store          ports.StateStore
	catalog        ports.Catalog
	ledger         ports.Ledger
	sequencer      ports.Sequencer
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	denomination   uint64
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func WithSequencer(seq ports.Sequencer) Option {
	return func(s *Service) {
		s.sequencer = seq
	}
}

// WithDepositDenomination sets how many base deposit units make one whole
// currency unit. Zero keeps the default.
func WithDepositDenomination(units uint64) Option {
	return func(s *Service) {
		if units > 0 {
			s.denomination = units
		}
	}
}

func New(store ports.StateStore, catalog ports.Catalog, ledger ports.Ledger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("marketplace store is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("credit ledger is required")
	}

	svc := &Service{
		store:        store,
		catalog:      catalog,
		ledger:       ledger,
		logger:       slog.Default(),
		tracer:       otel.Tracer("charitydrive/marketplace"),
		denomination: DefaultDepositDenomination,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.sequencer == nil {
		seq, err := NewSnowflakeSequencer(0)
		if err != nil {
			return nil, err
		}
		svc.sequencer = seq
	}
	return svc, nil
}

// begin opens a span for op. The returned func ends it and records the
// outcome; call it with the operation's final error.
func (s *Service) begin(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "marketplace."+op)
	return ctx, func(err error) {
		code := ""
		if err != nil {
			code = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, code)
		}
		span.End()
		s.metrics.ObserveOperation(op, code, start)
	}
}

// stamp assigns the receipt for a mutation about to commit.
func (s *Service) stamp(ctx context.Context, st *models.State) {
	st.LastSeq = s.sequencer.Next()
	st.UpdatedAt = requestcontext.Now(ctx)
}

func (s *Service) execute(ctx context.Context, fn func(txCtx context.Context, st *models.State) error) (*models.State, error) {
	st, err := s.store.Execute(ctx, fn)
	if err != nil {
		return nil, orInternal(err, "marketplace transaction failed")
	}
	return st, nil
}

func (s *Service) load(ctx context.Context) (*models.State, error) {
	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, internal(err, "failed to load marketplace state")
	}
	return st, nil
}

func (s *Service) audit(ctx context.Context, event audit.Event, attrs ...any) {
	ports.LogAudit(ctx, s.logger, s.auditPublisher, event, attrs...)
}
