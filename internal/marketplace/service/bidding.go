package service

import (
	"context"
	"errors"
	"math"

	"charitydrive/internal/marketplace/models"
	"charitydrive/pkg/platform/audit"
	"charitydrive/pkg/platform/sentinel"
)

// GetStatus returns the current bidding status. Anyone may call it.
func (s *Service) GetStatus(ctx context.Context) (status models.BiddingStatus, err error) {
	ctx, done := s.begin(ctx, "get_status")
	defer func() { done(err) }()

	st, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return st.Status, nil
}

// StartBidding moves Closed to Open. Starting an open marketplace is an
// invalid transition.
func (s *Service) StartBidding(ctx context.Context) (models.Receipt, error) {
	return s.transition(ctx, "start_bidding", models.StatusOpen)
}

// StopBidding moves Open to Closed.
func (s *Service) StopBidding(ctx context.Context) (models.Receipt, error) {
	return s.transition(ctx, "stop_bidding", models.StatusClosed)
}

func (s *Service) transition(ctx context.Context, op string, to models.BiddingStatus) (receipt models.Receipt, err error) {
	ctx, done := s.begin(ctx, op)
	defer func() { done(err) }()

	st, err := s.execute(ctx, func(txCtx context.Context, st *models.State) error {
		if _, err := authorize(txCtx, st, roleOperator); err != nil {
			return err
		}
		if st.Status == to {
			if to == models.StatusClosed {
				return marketplaceClosed()
			}
			return invalidTransition("bidding is already open")
		}
		st.Status = to
		s.stamp(txCtx, st)
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}

	s.metrics.SetBiddingOpen(st.Status.IsOpen())
	s.audit(ctx, audit.Event{
		Category: audit.CategoryBidding,
		Action:   string(audit.EventStatusChanged),
		Actor:    st.Operator,
		Status:   string(st.Status),
		Sequence: st.LastSeq,
	}, "status", st.Status)
	return models.Receipt{Sequence: st.LastSeq}, nil
}

// BidForItem donates a single unit of name.
func (s *Service) BidForItem(ctx context.Context, name string) (models.BidResult, error) {
	return s.BidForItemWithQuantity(ctx, name, 1)
}

// BidForItemWithQuantity pays quantity × per-unit cost from the caller to
// the marketplace account and counts the units toward the item's quota.
// The debit, the credit and the fulfillment change commit together.
func (s *Service) BidForItemWithQuantity(ctx context.Context, name string, quantity int64) (result models.BidResult, err error) {
	ctx, done := s.begin(ctx, "bid")
	defer func() { done(err) }()

	st, err := s.execute(ctx, func(txCtx context.Context, st *models.State) error {
		caller, err := authorize(txCtx, st, roleBidder)
		if err != nil {
			return err
		}
		if err := requireOpen(st); err != nil {
			return err
		}
		if quantity <= 0 {
			return invalidAmount("quantity must be positive")
		}
		item, ok := st.Registry.Get(name)
		if !ok {
			return unknownRequiredItem(name)
		}
		remaining := item.Remaining()
		if quantity > remaining {
			return quotaExceeded(name, remaining)
		}
		if item.PerUnitCost > math.MaxInt64/quantity {
			return insufficientCredit(nil)
		}
		cost := quantity * item.PerUnitCost

		if err := s.ledger.Transfer(txCtx, caller, st.Account, cost); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return insufficientCredit(err)
			}
			return internal(err, "failed to transfer credit")
		}

		st.Registry.Update(name, func(item *models.RequiredItem) {
			item.Fulfilled += quantity
		})
		s.stamp(txCtx, st)
		result = models.BidResult{
			Item:      name,
			Quantity:  quantity,
			Cost:      cost,
			Remaining: remaining - quantity,
		}
		return nil
	})
	if err != nil {
		return models.BidResult{}, err
	}
	result.Sequence = st.LastSeq

	s.metrics.RecordBid(quantity)
	s.audit(ctx, audit.Event{
		Category:  audit.CategoryBidding,
		Action:    string(audit.EventBidCompleted),
		Actor:     callerOf(ctx),
		Subject:   name,
		Quantity:  quantity,
		Amount:    result.Cost,
		Remaining: result.Remaining,
		Sequence:  st.LastSeq,
	}, "item", name, "quantity", quantity, "remaining", result.Remaining)
	return result, nil
}
