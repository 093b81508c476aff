package service

import (
	"context"
	"errors"
	"math"
	"math/bits"

	"charitydrive/internal/marketplace/models"
	"charitydrive/pkg/platform/audit"
	"charitydrive/pkg/platform/sentinel"
)

// depositToCredit converts base deposit units to credit, rounding down.
func depositToCredit(deposit int64, denomination uint64) (int64, bool) {
	return mulDiv(uint64(deposit), ExchangeRate, denomination)
}

// creditToDeposit converts credit back to base deposit units, rounding down.
func creditToDeposit(credit int64, denomination uint64) (int64, bool) {
	return mulDiv(uint64(credit), denomination, ExchangeRate)
}

// mulDiv computes a*b/c without intermediate overflow. ok is false when the
// result does not fit an int64.
func mulDiv(a, b, c uint64) (int64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, c)
	if q > math.MaxInt64 {
		return 0, false
	}
	return int64(q), true
}

// AcquireCredit mints credit for a deposit given in base deposit units.
func (s *Service) AcquireCredit(ctx context.Context, deposit int64) (result models.CreditResult, err error) {
	ctx, done := s.begin(ctx, "acquire_credit")
	defer func() { done(err) }()

	st, err := s.execute(ctx, func(txCtx context.Context, st *models.State) error {
		caller, err := authorize(txCtx, st, roleBidder)
		if err != nil {
			return err
		}
		if err := requireOpen(st); err != nil {
			return err
		}
		if deposit <= 0 {
			return invalidAmount("deposit must be positive")
		}
		credit, ok := depositToCredit(deposit, s.denomination)
		if !ok {
			return invalidAmount("deposit is too large")
		}
		if credit == 0 {
			return invalidAmount("deposit is below the smallest exchangeable amount")
		}

		if err := s.ledger.Mint(txCtx, caller, credit); err != nil {
			return internal(err, "failed to mint credit")
		}
		s.stamp(txCtx, st)
		result = models.CreditResult{Credit: credit, Deposit: deposit}
		return nil
	})
	if err != nil {
		return models.CreditResult{}, err
	}
	result.Sequence = st.LastSeq

	s.metrics.RecordMint(result.Credit)
	s.audit(ctx, audit.Event{
		Category: audit.CategoryCredit,
		Action:   string(audit.EventCreditAcquired),
		Actor:    callerOf(ctx),
		Amount:   result.Credit,
		Quantity: deposit,
		Sequence: st.LastSeq,
	}, "credit", result.Credit, "deposit", deposit)
	return result, nil
}

// CheckCredit returns the caller's credit balance.
func (s *Service) CheckCredit(ctx context.Context) (balance int64, err error) {
	ctx, done := s.begin(ctx, "check_credit")
	defer func() { done(err) }()

	st, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	caller, err := authorize(ctx, st, roleBidder)
	if err != nil {
		return 0, err
	}
	balance, err = s.ledger.BalanceOf(ctx, caller)
	if err != nil {
		return 0, internal(err, "failed to read credit balance")
	}
	return balance, nil
}

// ReturnCredit gives amount of the caller's credit back to the marketplace
// account and reports the deposit refund it corresponds to.
func (s *Service) ReturnCredit(ctx context.Context, amount int64) (result models.CreditResult, err error) {
	ctx, done := s.begin(ctx, "return_credit")
	defer func() { done(err) }()

	st, err := s.execute(ctx, func(txCtx context.Context, st *models.State) error {
		caller, err := authorize(txCtx, st, roleBidder)
		if err != nil {
			return err
		}
		if err := requireOpen(st); err != nil {
			return err
		}
		if amount <= 0 {
			return invalidAmount("amount must be positive")
		}
		refund, ok := creditToDeposit(amount, s.denomination)
		if !ok {
			return invalidAmount("amount is too large")
		}

		if err := s.ledger.Transfer(txCtx, caller, st.Account, amount); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return insufficientCredit(err)
			}
			return internal(err, "failed to return credit")
		}
		s.stamp(txCtx, st)
		result = models.CreditResult{Credit: amount, Deposit: refund}
		return nil
	})
	if err != nil {
		return models.CreditResult{}, err
	}
	result.Sequence = st.LastSeq

	s.metrics.RecordReturn(amount)
	s.audit(ctx, audit.Event{
		Category: audit.CategoryCredit,
		Action:   string(audit.EventCreditReturned),
		Actor:    callerOf(ctx),
		Amount:   amount,
		Quantity: result.Deposit,
		Sequence: st.LastSeq,
	}, "credit", amount, "refund", result.Deposit)
	return result, nil
}

// SweepCreditToOperator moves the marketplace account's whole balance to
// the operator. Bidding must be open.
func (s *Service) SweepCreditToOperator(ctx context.Context) (result models.SweepResult, err error) {
	ctx, done := s.begin(ctx, "sweep")
	defer func() { done(err) }()

	st, err := s.execute(ctx, func(txCtx context.Context, st *models.State) error {
		if _, err := authorize(txCtx, st, roleOperator); err != nil {
			return err
		}
		if err := requireOpen(st); err != nil {
			return err
		}
		balance, err := s.ledger.BalanceOf(txCtx, st.Account)
		if err != nil {
			return internal(err, "failed to read marketplace balance")
		}
		if err := s.ledger.Transfer(txCtx, st.Account, st.Operator, balance); err != nil {
			return internal(err, "failed to sweep credit")
		}
		s.stamp(txCtx, st)
		result = models.SweepResult{Amount: balance}
		return nil
	})
	if err != nil {
		return models.SweepResult{}, err
	}
	result.Sequence = st.LastSeq

	s.metrics.RecordSweep(result.Amount)
	s.audit(ctx, audit.Event{
		Category: audit.CategoryCredit,
		Action:   string(audit.EventCreditSwept),
		Actor:    st.Operator,
		Amount:   result.Amount,
		Sequence: st.LastSeq,
	}, "amount", result.Amount)
	return result, nil
}

// MarketplaceBalance returns the credit held by the marketplace account.
func (s *Service) MarketplaceBalance(ctx context.Context) (balance int64, err error) {
	ctx, done := s.begin(ctx, "marketplace_balance")
	defer func() { done(err) }()

	st, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := authorize(ctx, st, roleOperator); err != nil {
		return 0, err
	}
	balance, err = s.ledger.BalanceOf(ctx, st.Account)
	if err != nil {
		return 0, internal(err, "failed to read marketplace balance")
	}
	return balance, nil
}
