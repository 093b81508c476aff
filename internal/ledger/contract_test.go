package ledger_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/suite"

	id "charitydrive/pkg/domain"
	"charitydrive/pkg/platform/sentinel"
)

// Ledger is the behaviour every backend must share.
type Ledger interface {
	Mint(ctx context.Context, account id.AccountID, amount int64) error
	Transfer(ctx context.Context, from, to id.AccountID, amount int64) error
	BalanceOf(ctx context.Context, account id.AccountID) (int64, error)
}

// contractSuite runs the same cases against any backend; embedders set
// newLedger and any per-test reset.
type contractSuite struct {
	suite.Suite
	newLedger func() Ledger
	ledger    Ledger
}

func (s *contractSuite) SetupTest() {
	s.ledger = s.newLedger()
}

func (s *contractSuite) balance(acct id.AccountID) int64 {
	bal, err := s.ledger.BalanceOf(context.Background(), acct)
	s.Require().NoError(err)
	return bal
}

// =============================================================================
// Mint
// =============================================================================

func (s *contractSuite) TestMint() {
	ctx := context.Background()

	s.Run("unknown account has zero balance", func() {
		s.Equal(int64(0), s.balance(id.NewAccountID()))
	})

	s.Run("mint accumulates", func() {
		acct := id.NewAccountID()
		s.Require().NoError(s.ledger.Mint(ctx, acct, 50))
		s.Require().NoError(s.ledger.Mint(ctx, acct, 100))
		s.Equal(int64(150), s.balance(acct))
	})

	s.Run("negative amount rejected", func() {
		acct := id.NewAccountID()
		err := s.ledger.Mint(ctx, acct, -1)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
		s.Equal(int64(0), s.balance(acct))
	})
}

// =============================================================================
// Transfer
// =============================================================================

func (s *contractSuite) TestTransfer() {
	ctx := context.Background()

	s.Run("moves exact amount", func() {
		from, to := id.NewAccountID(), id.NewAccountID()
		s.Require().NoError(s.ledger.Mint(ctx, from, 50))

		s.Require().NoError(s.ledger.Transfer(ctx, from, to, 2))

		s.Equal(int64(48), s.balance(from))
		s.Equal(int64(2), s.balance(to))
	})

	s.Run("insufficient funds leaves both balances unchanged", func() {
		from, to := id.NewAccountID(), id.NewAccountID()
		s.Require().NoError(s.ledger.Mint(ctx, from, 10))
		s.Require().NoError(s.ledger.Mint(ctx, to, 3))

		err := s.ledger.Transfer(ctx, from, to, 11)
		s.Require().ErrorIs(err, sentinel.ErrInsufficientFunds)

		s.Equal(int64(10), s.balance(from))
		s.Equal(int64(3), s.balance(to))
	})

	s.Run("unknown source is insufficient", func() {
		err := s.ledger.Transfer(ctx, id.NewAccountID(), id.NewAccountID(), 1)
		s.Require().ErrorIs(err, sentinel.ErrInsufficientFunds)
	})

	s.Run("zero amount is a no-op", func() {
		from, to := id.NewAccountID(), id.NewAccountID()
		s.Require().NoError(s.ledger.Transfer(ctx, from, to, 0))
		s.Equal(int64(0), s.balance(from))
		s.Equal(int64(0), s.balance(to))
	})

	s.Run("full balance can be drained", func() {
		from, to := id.NewAccountID(), id.NewAccountID()
		s.Require().NoError(s.ledger.Mint(ctx, from, 57))
		s.Require().NoError(s.ledger.Transfer(ctx, from, to, 57))
		s.Equal(int64(0), s.balance(from))
		s.Equal(int64(57), s.balance(to))
	})
}

func (s *contractSuite) TestConcurrentTransfersConserveCredit() {
	ctx := context.Background()
	a, b := id.NewAccountID(), id.NewAccountID()
	s.Require().NoError(s.ledger.Mint(ctx, a, 100))
	s.Require().NoError(s.ledger.Mint(ctx, b, 100))

	const goroutines = 40
	var wg sync.WaitGroup
	var failed atomic.Int32
	for i := 0; i < goroutines; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			from, to := a, b
			if i%2 == 1 {
				from, to = b, a
			}
			if err := s.ledger.Transfer(ctx, from, to, 5); err != nil {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failed.Load())
	s.Equal(int64(200), s.balance(a)+s.balance(b), "transfers must conserve total credit")
}
