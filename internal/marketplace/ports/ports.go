// Package ports defines the collaborators the marketplace service consumes.
package ports

import (
	"context"
	"log/slog"

	catalogModels "charitydrive/internal/catalog/models"
	"charitydrive/internal/marketplace/models"
	id "charitydrive/pkg/domain"
	"charitydrive/pkg/platform/audit"
	request "charitydrive/pkg/platform/middleware/request"
)

// Catalog is the item catalog registrations are validated against.
// GetPrice fails with an error wrapping sentinel.ErrNotFound for absent or
// invalid items.
type Catalog interface {
	ItemExists(ctx context.Context, name string) (bool, error)
	GetPrice(ctx context.Context, name string) (int64, error)
	CatalogOwnershipTransferred(ctx context.Context) (bool, error)
	ListValidItems(ctx context.Context) ([]catalogModels.Item, error)
}

// Ledger holds credit balances. Transfer fails with an error wrapping
// sentinel.ErrInsufficientFunds when from cannot cover amount.
type Ledger interface {
	Mint(ctx context.Context, account id.AccountID, amount int64) error
	Transfer(ctx context.Context, from, to id.AccountID, amount int64) error
	BalanceOf(ctx context.Context, account id.AccountID) (int64, error)
}

// StateStore owns the marketplace aggregate.
type StateStore interface {
	// Load returns a snapshot of the last committed state.
	Load(ctx context.Context) (*models.State, error)

	// Execute runs fn against a draft of the current state with all other
	// mutations excluded. The draft replaces the stored state only when fn
	// returns nil. txCtx must be passed to ledger calls made inside fn.
	Execute(ctx context.Context, fn func(txCtx context.Context, st *models.State) error) (*models.State, error)
}

// Sequencer issues receipt numbers for committed mutations.
type Sequencer interface {
	Next() int64
}

// AuditPublisher emits marketplace events to observers.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs an audit line and forwards the event to the publisher if one
// is configured.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event, attrs ...any) {
	if requestID := request.GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
		event.RequestID = requestID
	}
	args := append(attrs, "event", event.Action, "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, event.Action, args...)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}
