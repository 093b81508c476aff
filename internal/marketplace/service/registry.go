package service

import (
	"context"
	"errors"

	"charitydrive/internal/marketplace/models"
	"charitydrive/pkg/platform/audit"
	"charitydrive/pkg/platform/sentinel"
)

// RegisterFromCatalog replaces the registry with names at their current
// catalog prices. Fulfillment progress of the previous registry is dropped.
func (s *Service) RegisterFromCatalog(ctx context.Context, names []string, quotas []int64) (receipt models.Receipt, err error) {
	ctx, done := s.begin(ctx, "register_from_catalog")
	defer func() { done(err) }()

	var items []models.RequiredItem
	st, err := s.execute(ctx, func(txCtx context.Context, st *models.State) error {
		if _, err := authorize(txCtx, st, roleOperator); err != nil {
			return err
		}
		if len(names) != len(quotas) {
			return lengthMismatch()
		}
		if err := s.requireCatalogReady(txCtx); err != nil {
			return err
		}

		items = make([]models.RequiredItem, 0, len(names))
		seen := make(map[string]struct{}, len(names))
		for i, name := range names {
			if err := checkEntry(seen, name, quotas[i]); err != nil {
				return err
			}
			price, err := s.catalog.GetPrice(txCtx, name)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return unknownItem(name)
				}
				return internal(err, "failed to read catalog price")
			}
			if price <= 0 {
				return invalidAmount("catalog price must be positive")
			}
			items = append(items, models.RequiredItem{Name: name, Quota: quotas[i], PerUnitCost: price})
		}

		st.Registry = models.NewRegistry(items)
		s.stamp(txCtx, st)
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}

	s.auditRegistry(ctx, st, items)
	return models.Receipt{Sequence: st.LastSeq}, nil
}

// RegisterManual replaces the registry with operator-supplied costs. Every
// name must still be a valid catalog item.
func (s *Service) RegisterManual(ctx context.Context, names []string, quotas, costs []int64) (receipt models.Receipt, err error) {
	ctx, done := s.begin(ctx, "register_manual")
	defer func() { done(err) }()

	var items []models.RequiredItem
	st, err := s.execute(ctx, func(txCtx context.Context, st *models.State) error {
		if _, err := authorize(txCtx, st, roleOperator); err != nil {
			return err
		}
		if len(names) != len(quotas) || len(names) != len(costs) {
			return lengthMismatch()
		}
		if err := s.requireCatalogReady(txCtx); err != nil {
			return err
		}

		items = make([]models.RequiredItem, 0, len(names))
		seen := make(map[string]struct{}, len(names))
		for i, name := range names {
			if err := checkEntry(seen, name, quotas[i]); err != nil {
				return err
			}
			if costs[i] <= 0 {
				return invalidAmount("per-unit cost must be positive")
			}
			exists, err := s.catalog.ItemExists(txCtx, name)
			if err != nil {
				return internal(err, "failed to check catalog item")
			}
			if !exists {
				return unknownItem(name)
			}
			items = append(items, models.RequiredItem{Name: name, Quota: quotas[i], PerUnitCost: costs[i]})
		}

		st.Registry = models.NewRegistry(items)
		s.stamp(txCtx, st)
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}

	s.auditRegistry(ctx, st, items)
	return models.Receipt{Sequence: st.LastSeq}, nil
}

func checkEntry(seen map[string]struct{}, name string, quota int64) error {
	if _, dup := seen[name]; dup {
		return duplicateItem(name)
	}
	seen[name] = struct{}{}
	if quota < 0 {
		return invalidAmount("quota must not be negative")
	}
	return nil
}

func (s *Service) requireCatalogReady(ctx context.Context) error {
	ready, err := s.catalog.CatalogOwnershipTransferred(ctx)
	if err != nil {
		return internal(err, "failed to read catalog ownership")
	}
	if !ready {
		return catalogNotReady()
	}
	return nil
}

func (s *Service) auditRegistry(ctx context.Context, st *models.State, items []models.RequiredItem) {
	names := make([]string, len(items))
	costs := make([]int64, len(items))
	for i, item := range items {
		names[i] = item.Name
		costs[i] = item.PerUnitCost
	}
	s.audit(ctx, audit.Event{
		Category: audit.CategoryRegistry,
		Action:   string(audit.EventRegistryReplaced),
		Actor:    st.Operator,
		Items:    names,
		Prices:   costs,
		Sequence: st.LastSeq,
	}, "items", len(items), "sequence", st.LastSeq)
}

// UpdateQuota changes an item's quota in place. Fulfilled units are kept,
// so a quota at or below them closes the item to further bids.
func (s *Service) UpdateQuota(ctx context.Context, name string, quota int64) (receipt models.Receipt, err error) {
	ctx, done := s.begin(ctx, "update_quota")
	defer func() { done(err) }()

	var remaining int64
	st, err := s.execute(ctx, func(txCtx context.Context, st *models.State) error {
		if _, err := authorize(txCtx, st, roleOperator); err != nil {
			return err
		}
		if quota < 0 {
			return invalidAmount("quota must not be negative")
		}
		item, ok := st.Registry.Get(name)
		if !ok {
			return itemNotRegistered(name)
		}
		if item.Quota == quota {
			return noOpUpdate("quota")
		}
		st.Registry.Update(name, func(item *models.RequiredItem) {
			item.Quota = quota
			remaining = item.Remaining()
		})
		s.stamp(txCtx, st)
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}

	s.audit(ctx, audit.Event{
		Category:  audit.CategoryRegistry,
		Action:    string(audit.EventQuotaUpdated),
		Actor:     st.Operator,
		Subject:   name,
		Quantity:  quota,
		Remaining: remaining,
		Sequence:  st.LastSeq,
	}, "item", name, "quota", quota)
	return models.Receipt{Sequence: st.LastSeq}, nil
}

// UpdateCost changes an item's per-unit cost for future bids.
func (s *Service) UpdateCost(ctx context.Context, name string, cost int64) (receipt models.Receipt, err error) {
	ctx, done := s.begin(ctx, "update_cost")
	defer func() { done(err) }()

	st, err := s.execute(ctx, func(txCtx context.Context, st *models.State) error {
		if _, err := authorize(txCtx, st, roleOperator); err != nil {
			return err
		}
		if cost <= 0 {
			return invalidAmount("per-unit cost must be positive")
		}
		item, ok := st.Registry.Get(name)
		if !ok {
			return itemNotRegistered(name)
		}
		if item.PerUnitCost == cost {
			return noOpUpdate("cost")
		}
		st.Registry.Update(name, func(item *models.RequiredItem) {
			item.PerUnitCost = cost
		})
		s.stamp(txCtx, st)
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}

	s.audit(ctx, audit.Event{
		Category: audit.CategoryRegistry,
		Action:   string(audit.EventCostUpdated),
		Actor:    st.Operator,
		Subject:  name,
		Amount:   cost,
		Sequence: st.LastSeq,
	}, "item", name, "cost", cost)
	return models.Receipt{Sequence: st.LastSeq}, nil
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// ListItemsAndRemainingQuota returns every registry item with its remaining
// quota, in registration order.
func (s *Service) ListItemsAndRemainingQuota(ctx context.Context) (out []models.ItemRemaining, err error) {
	ctx, done := s.begin(ctx, "list_items")
	defer func() { done(err) }()

	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	items := st.Registry.Items()
	out = make([]models.ItemRemaining, len(items))
	for i, item := range items {
		out[i] = models.ItemRemaining{Name: item.Name, Remaining: item.Remaining()}
	}
	return out, nil
}

// ListDonatableItems returns the names that still accept bids.
func (s *Service) ListDonatableItems(ctx context.Context) (names []string, err error) {
	ctx, done := s.begin(ctx, "list_donatable")
	defer func() { done(err) }()

	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Registry.Donatable(), nil
}

func (s *Service) RemainingUnitsNeeded(ctx context.Context, name string) (int64, error) {
	item, err := s.requiredItem(ctx, "remaining_units", name)
	if err != nil {
		return 0, err
	}
	return item.Remaining(), nil
}

func (s *Service) PerUnitCost(ctx context.Context, name string) (int64, error) {
	item, err := s.requiredItem(ctx, "per_unit_cost", name)
	if err != nil {
		return 0, err
	}
	return item.PerUnitCost, nil
}

func (s *Service) CurrentFulfillment(ctx context.Context, name string) (int64, error) {
	item, err := s.requiredItem(ctx, "current_fulfillment", name)
	if err != nil {
		return 0, err
	}
	return item.Fulfilled, nil
}

// RequiredItem returns a registry entry by name.
func (s *Service) RequiredItem(ctx context.Context, name string) (models.RequiredItem, error) {
	return s.requiredItem(ctx, "get_item", name)
}

func (s *Service) requiredItem(ctx context.Context, op, name string) (item models.RequiredItem, err error) {
	ctx, done := s.begin(ctx, op)
	defer func() { done(err) }()

	st, err := s.load(ctx)
	if err != nil {
		return models.RequiredItem{}, err
	}
	item, ok := st.Registry.Get(name)
	if !ok {
		return models.RequiredItem{}, unknownRequiredItem(name)
	}
	return item, nil
}

// ListCatalogItemsAndPrices returns the valid catalog items and their
// prices, in catalog order. The catalog must have been handed over.
func (s *Service) ListCatalogItemsAndPrices(ctx context.Context) (out []models.CatalogEntry, err error) {
	ctx, done := s.begin(ctx, "list_catalog")
	defer func() { done(err) }()

	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	caller, err := authorize(ctx, st, roleOperator)
	if err != nil {
		return nil, err
	}
	if err := s.requireCatalogReady(ctx); err != nil {
		return nil, err
	}
	items, err := s.catalog.ListValidItems(ctx)
	if err != nil {
		return nil, internal(err, "failed to list catalog items")
	}

	out = make([]models.CatalogEntry, len(items))
	names := make([]string, len(items))
	prices := make([]int64, len(items))
	for i, item := range items {
		out[i] = models.CatalogEntry{Name: item.Name, Price: item.Price}
		names[i] = item.Name
		prices[i] = item.Price
	}

	s.audit(ctx, audit.Event{
		Category: audit.CategoryCatalog,
		Action:   string(audit.EventCatalogListed),
		Actor:    caller,
		Items:    names,
		Prices:   prices,
	}, "items", len(items))
	return out, nil
}
