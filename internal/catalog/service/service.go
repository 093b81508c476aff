// Package service implements the item catalog the marketplace prices its
// registry from. Mutations are restricted to the current catalog owner.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"charitydrive/internal/catalog/models"
	id "charitydrive/pkg/domain"
	dErrors "charitydrive/pkg/domain-errors"
	"charitydrive/pkg/platform/audit"
	"charitydrive/pkg/platform/sentinel"
	"charitydrive/pkg/requestcontext"
)

type Store interface {
	AddCategory(ctx context.Context, name string) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	AddItem(ctx context.Context, item models.Item) error
	UpdateItem(ctx context.Context, name string, update models.ItemUpdate) (*models.Item, error)
	GetItem(ctx context.Context, name string) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	GetOwnership(ctx context.Context) (models.Ownership, error)
	TransferOwnership(ctx context.Context, from, newOwner id.AccountID) (models.Ownership, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	svc := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// requireOwner returns the caller when it is the current catalog owner.
func (s *Service) requireOwner(ctx context.Context) (id.AccountID, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsNil() {
		return id.AccountID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	own, err := s.store.GetOwnership(ctx)
	if err != nil {
		return id.AccountID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog ownership")
	}
	if own.Owner != caller {
		return id.AccountID{}, dErrors.New(dErrors.CodeForbidden, "only the catalog owner can call this function")
	}
	return caller, nil
}

func (s *Service) AddCategory(ctx context.Context, name string) error {
	caller, err := s.requireOwner(ctx)
	if err != nil {
		return err
	}
	name, err = id.ParseItemName(name)
	if err != nil {
		return err
	}
	if err := s.store.AddCategory(ctx, name); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "category already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add category")
	}
	s.emit(ctx, audit.Event{Action: string(audit.EventCatalogCategoryAdded), Actor: caller, Subject: name})
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list categories")
	}
	return categories, nil
}

func (s *Service) AddItem(ctx context.Context, name string, price int64, category string) (*models.Item, error) {
	caller, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if name, err = id.ParseItemName(name); err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "item price must be more than 0 credit")
	}

	item := models.Item{Name: name, Price: price, Category: category, Valid: true}
	if err := s.store.AddItem(ctx, item); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "category does not exist")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "item already exists")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add item")
		}
	}
	s.emit(ctx, audit.Event{Action: string(audit.EventCatalogItemAdded), Actor: caller, Subject: name, Amount: price})
	return &item, nil
}

func (s *Service) UpdateItem(ctx context.Context, name string, update models.ItemUpdate) (*models.Item, error) {
	caller, err := s.requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if update.Price <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "new price must be more than 0 credit")
	}
	if update.NewName != "" {
		if update.NewName, err = id.ParseItemName(update.NewName); err != nil {
			return nil, err
		}
	}

	item, err := s.store.UpdateItem(ctx, name, update)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "item does not exist")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "item name already exists")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update item")
		}
	}
	s.emit(ctx, audit.Event{Action: string(audit.EventCatalogItemUpdated), Actor: caller, Subject: item.Name, Amount: item.Price})
	return item, nil
}

// ListItems returns every item, valid or not, in catalog order.
func (s *Service) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list items")
	}
	return items, nil
}

func (s *Service) Ownership(ctx context.Context) (models.Ownership, error) {
	own, err := s.store.GetOwnership(ctx)
	if err != nil {
		return models.Ownership{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog ownership")
	}
	return own, nil
}

// TransferOwnership hands the catalog to newOwner, recording the caller as
// the previous owner.
func (s *Service) TransferOwnership(ctx context.Context, newOwner id.AccountID) (models.Ownership, error) {
	caller, err := s.requireOwner(ctx)
	if err != nil {
		return models.Ownership{}, err
	}
	if newOwner.IsNil() {
		return models.Ownership{}, dErrors.New(dErrors.CodeValidation, "new owner is required")
	}
	own, err := s.store.TransferOwnership(ctx, caller, newOwner)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return models.Ownership{}, dErrors.Wrap(err, dErrors.CodeConflict, "catalog ownership changed concurrently")
		}
		return models.Ownership{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer ownership")
	}
	s.emit(ctx, audit.Event{Action: string(audit.EventCatalogOwnerChanged), Actor: caller, Subject: newOwner.String()})
	return own, nil
}

// -----------------------------------------------------------------------------
// Marketplace-facing queries
// -----------------------------------------------------------------------------

// ItemExists reports whether name is a currently valid catalog item.
func (s *Service) ItemExists(ctx context.Context, name string) (bool, error) {
	item, err := s.store.GetItem(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up item")
	}
	return item.Valid, nil
}

// GetPrice returns the price of a valid item. Absent and invalid items fail
// with a not_found error wrapping sentinel.ErrNotFound.
func (s *Service) GetPrice(ctx context.Context, name string) (int64, error) {
	item, err := s.store.GetItem(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.Wrap(err, dErrors.CodeNotFound, "item does not exist")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up item")
	}
	if !item.Valid {
		return 0, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "item is not valid")
	}
	return item.Price, nil
}

// CatalogOwnershipTransferred reports whether the catalog has been handed
// over by its original owner.
func (s *Service) CatalogOwnershipTransferred(ctx context.Context) (bool, error) {
	own, err := s.Ownership(ctx)
	if err != nil {
		return false, err
	}
	return own.Transferred, nil
}

// ListValidItems returns the valid items in catalog order.
func (s *Service) ListValidItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	valid := items[:0]
	for _, item := range items {
		if item.Valid {
			valid = append(valid, item)
		}
	}
	return valid, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, event.Action,
		"request_id", event.RequestID,
		"subject", event.Subject,
		"event", event.Action,
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}
