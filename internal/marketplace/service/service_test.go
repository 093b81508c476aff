package service

//go:generate mockgen -source=../ports/ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	catalogModels "charitydrive/internal/catalog/models"
	"charitydrive/internal/ledger"
	"charitydrive/internal/marketplace/models"
	"charitydrive/internal/marketplace/service/mocks"
	"charitydrive/internal/marketplace/store"
	id "charitydrive/pkg/domain"
	dErrors "charitydrive/pkg/domain-errors"
	"charitydrive/pkg/platform/audit"
	"charitydrive/pkg/platform/audit/publisher"
	auditmemory "charitydrive/pkg/platform/audit/store/memory"
	"charitydrive/pkg/platform/sentinel"
	"charitydrive/pkg/requestcontext"
)

// =============================================================================
// Marketplace Service Test Suite
// =============================================================================
// The service runs against the in-memory state store and ledger; only the
// catalog is mocked so tests can control prices and readiness.

type MarketplaceServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	catalog  *mocks.MockCatalog
	ledger   *ledger.Memory
	store    *store.InMemoryStore
	events   *auditmemory.InMemoryStore
	operator id.AccountID
	account  id.AccountID
	bidder   id.AccountID
	service  *Service
}

func TestMarketplaceServiceSuite(t *testing.T) {
	suite.Run(t, new(MarketplaceServiceSuite))
}

func (s *MarketplaceServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.catalog = mocks.NewMockCatalog(s.ctrl)
	s.ledger = ledger.NewMemory()
	s.operator = id.NewAccountID()
	s.account = id.NewAccountID()
	s.bidder = id.NewAccountID()
	s.store = store.NewInMemory(s.operator, s.account)
	s.events = auditmemory.NewInMemoryStore()

	svc, err := New(s.store, s.catalog, s.ledger,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.events)),
		WithDepositDenomination(100),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *MarketplaceServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *MarketplaceServiceSuite) as(account id.AccountID) context.Context {
	return requestcontext.WithCaller(context.Background(), account)
}

func (s *MarketplaceServiceSuite) asOperator() context.Context { return s.as(s.operator) }
func (s *MarketplaceServiceSuite) asBidder() context.Context   { return s.as(s.bidder) }

func (s *MarketplaceServiceSuite) catalogReady() {
	s.catalog.EXPECT().CatalogOwnershipTransferred(gomock.Any()).Return(true, nil).AnyTimes()
	s.catalog.EXPECT().ItemExists(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()
}

func (s *MarketplaceServiceSuite) registerManual(names []string, quotas, costs []int64) {
	_, err := s.service.RegisterManual(s.asOperator(), names, quotas, costs)
	s.Require().NoError(err)
}

func (s *MarketplaceServiceSuite) open() {
	_, err := s.service.StartBidding(s.asOperator())
	s.Require().NoError(err)
}

func (s *MarketplaceServiceSuite) balance(account id.AccountID) int64 {
	bal, err := s.ledger.BalanceOf(context.Background(), account)
	s.Require().NoError(err)
	return bal
}

func (s *MarketplaceServiceSuite) fulfilled(name string) int64 {
	n, err := s.service.CurrentFulfillment(context.Background(), name)
	s.Require().NoError(err)
	return n
}

// =============================================================================
// Constructor
// =============================================================================

func (s *MarketplaceServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.catalog, s.ledger)
		s.Require().Error(err)
		s.Contains(err.Error(), "marketplace store is required")
	})

	s.Run("nil catalog returns error", func() {
		_, err := New(s.store, nil, s.ledger)
		s.Require().Error(err)
		s.Contains(err.Error(), "catalog is required")
	})

	s.Run("nil ledger returns error", func() {
		_, err := New(s.store, s.catalog, nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "credit ledger is required")
	})

	s.Run("zero denomination keeps default", func() {
		svc, err := New(s.store, s.catalog, s.ledger, WithDepositDenomination(0))
		s.Require().NoError(err)
		s.Equal(uint64(DefaultDepositDenomination), svc.denomination)
	})
}

// =============================================================================
// Bidding state machine
// =============================================================================

func (s *MarketplaceServiceSuite) TestBiddingStateMachine() {
	s.Run("starts closed and anyone may read the status", func() {
		status, err := s.service.GetStatus(context.Background())
		s.Require().NoError(err)
		s.Equal(models.StatusClosed, status)
	})

	s.Run("bidder cannot start bidding", func() {
		_, err := s.service.StartBidding(s.asBidder())
		s.Require().ErrorIs(err, ErrNotOperator)
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeForbidden, ""))
	})

	s.Run("anonymous caller is unauthorized", func() {
		_, err := s.service.StartBidding(context.Background())
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, ""))
	})

	s.Run("operator opens bidding", func() {
		receipt, err := s.service.StartBidding(s.asOperator())
		s.Require().NoError(err)
		s.NotZero(receipt.Sequence)

		status, err := s.service.GetStatus(context.Background())
		s.Require().NoError(err)
		s.Equal(models.StatusOpen, status)
	})

	s.Run("starting an open marketplace is rejected", func() {
		_, err := s.service.StartBidding(s.asOperator())
		s.Require().ErrorIs(err, ErrInvalidTransition)
	})

	s.Run("operator closes bidding", func() {
		_, err := s.service.StopBidding(s.asOperator())
		s.Require().NoError(err)
	})

	s.Run("stopping a closed marketplace is rejected", func() {
		_, err := s.service.StopBidding(s.asOperator())
		s.Require().ErrorIs(err, ErrMarketplaceClosed)
	})

	s.Run("repeated reads are identical", func() {
		first, err := s.service.GetStatus(context.Background())
		s.Require().NoError(err)
		second, err := s.service.GetStatus(context.Background())
		s.Require().NoError(err)
		s.Equal(first, second)
	})
}

// =============================================================================
// Registry
// =============================================================================

func (s *MarketplaceServiceSuite) TestRegisterFromCatalog() {
	s.Run("catalog must be handed over first", func() {
		s.catalog.EXPECT().CatalogOwnershipTransferred(gomock.Any()).Return(false, nil)

		_, err := s.service.RegisterFromCatalog(s.asOperator(), []string{"Chicken"}, []int64{10})
		s.Require().ErrorIs(err, ErrCatalogNotReady)
	})

	s.Run("length mismatch", func() {
		_, err := s.service.RegisterFromCatalog(s.asOperator(), []string{"Chicken", "Chair"}, []int64{10})
		s.Require().ErrorIs(err, ErrLengthMismatch)
	})

	s.Run("non-operator is rejected before anything else", func() {
		_, err := s.service.RegisterFromCatalog(s.asBidder(), []string{"Chicken", "Chair"}, []int64{10})
		s.Require().ErrorIs(err, ErrNotOperator)
	})

	s.Run("first unknown name is reported", func() {
		s.catalog.EXPECT().CatalogOwnershipTransferred(gomock.Any()).Return(true, nil)
		s.catalog.EXPECT().GetPrice(gomock.Any(), "Chicken").Return(int64(4), nil)
		s.catalog.EXPECT().GetPrice(gomock.Any(), "Ghost").
			Return(int64(0), dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "item does not exist"))

		_, err := s.service.RegisterFromCatalog(s.asOperator(), []string{"Chicken", "Ghost", "Phantom"}, []int64{10, 1, 1})
		s.Require().ErrorIs(err, ErrUnknownItem)

		var unknown *UnknownItemError
		s.Require().True(errors.As(err, &unknown))
		s.Equal("Ghost", unknown.Name)
	})

	s.Run("prices come from the catalog", func() {
		s.catalog.EXPECT().CatalogOwnershipTransferred(gomock.Any()).Return(true, nil)
		s.catalog.EXPECT().GetPrice(gomock.Any(), "Chicken").Return(int64(4), nil)
		s.catalog.EXPECT().GetPrice(gomock.Any(), "Chair").Return(int64(9), nil)

		_, err := s.service.RegisterFromCatalog(s.asOperator(), []string{"Chicken", "Chair"}, []int64{10, 5})
		s.Require().NoError(err)

		cost, err := s.service.PerUnitCost(context.Background(), "Chair")
		s.Require().NoError(err)
		s.Equal(int64(9), cost)

		remaining, err := s.service.RemainingUnitsNeeded(context.Background(), "Chicken")
		s.Require().NoError(err)
		s.Equal(int64(10), remaining)
	})
}

func (s *MarketplaceServiceSuite) TestRegistrationReplacesWholeSet() {
	s.catalog.EXPECT().CatalogOwnershipTransferred(gomock.Any()).Return(true, nil).AnyTimes()
	s.catalog.EXPECT().GetPrice(gomock.Any(), gomock.Any()).Return(int64(3), nil).AnyTimes()
	s.catalog.EXPECT().ItemExists(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

	_, err := s.service.RegisterFromCatalog(s.asOperator(), []string{"Chicken", "Chair"}, []int64{10, 5})
	s.Require().NoError(err)
	s.registerManual([]string{"Cloth", "Milo"}, []int64{10, 1}, []int64{1, 2})

	donatable, err := s.service.ListDonatableItems(context.Background())
	s.Require().NoError(err)
	s.Equal([]string{"Cloth", "Milo"}, donatable)

	_, err = s.service.RemainingUnitsNeeded(context.Background(), "Chicken")
	s.Require().ErrorIs(err, ErrUnknownRequiredItem)

	s.Run("event carries the new item list", func() {
		events, err := s.events.ListByActor(context.Background(), s.operator)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		last := events[1]
		s.Equal(string(audit.EventRegistryReplaced), last.Action)
		s.Equal([]string{"Cloth", "Milo"}, last.Items)
		s.Equal([]int64{1, 2}, last.Prices)
	})
}

func (s *MarketplaceServiceSuite) TestRegisterManualValidation() {
	s.catalogReady()

	cases := []struct {
		name   string
		names  []string
		quotas []int64
		costs  []int64
		want   error
	}{
		{"costs shorter", []string{"Cloth", "Milo"}, []int64{10, 1}, []int64{1}, ErrLengthMismatch},
		{"quotas shorter", []string{"Cloth", "Milo"}, []int64{10}, []int64{1, 2}, ErrLengthMismatch},
		{"duplicate name", []string{"Cloth", "Cloth"}, []int64{10, 1}, []int64{1, 2}, ErrDuplicateItem},
		{"negative quota", []string{"Cloth"}, []int64{-1}, []int64{1}, ErrInvalidAmount},
		{"zero cost", []string{"Cloth"}, []int64{1}, []int64{0}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.RegisterManual(s.asOperator(), tc.names, tc.quotas, tc.costs)
			s.Require().ErrorIs(err, tc.want)
		})
	}

	s.Run("failed registration keeps the current registry", func() {
		s.registerManual([]string{"Cloth"}, []int64{10}, []int64{1})
		_, err := s.service.RegisterManual(s.asOperator(), []string{"Milo", "Milo"}, []int64{1, 1}, []int64{2, 2})
		s.Require().Error(err)

		items, err := s.service.ListItemsAndRemainingQuota(context.Background())
		s.Require().NoError(err)
		s.Equal([]models.ItemRemaining{{Name: "Cloth", Remaining: 10}}, items)
	})
}

func (s *MarketplaceServiceSuite) TestRegisterManualRequiresCatalogItems() {
	s.catalog.EXPECT().CatalogOwnershipTransferred(gomock.Any()).Return(true, nil)
	s.catalog.EXPECT().ItemExists(gomock.Any(), "Cloth").Return(true, nil)
	s.catalog.EXPECT().ItemExists(gomock.Any(), "Unicorn").Return(false, nil)

	_, err := s.service.RegisterManual(s.asOperator(), []string{"Cloth", "Unicorn"}, []int64{1, 1}, []int64{1, 1})
	var unknown *UnknownItemError
	s.Require().True(errors.As(err, &unknown))
	s.Equal("Unicorn", unknown.Name)
}

func (s *MarketplaceServiceSuite) TestUpdateQuotaAndCost() {
	s.catalogReady()
	s.registerManual([]string{"Cloth", "Milo"}, []int64{10, 1}, []int64{1, 2})

	s.Run("same value is a no-op error", func() {
		_, err := s.service.UpdateQuota(s.asOperator(), "Cloth", 10)
		s.Require().ErrorIs(err, ErrNoOpUpdate)

		_, err = s.service.UpdateCost(s.asOperator(), "Milo", 2)
		s.Require().ErrorIs(err, ErrNoOpUpdate)
	})

	s.Run("unregistered name", func() {
		_, err := s.service.UpdateQuota(s.asOperator(), "Chair", 3)
		s.Require().ErrorIs(err, ErrItemNotRegistered)

		_, err = s.service.UpdateCost(s.asOperator(), "Chair", 3)
		s.Require().ErrorIs(err, ErrItemNotRegistered)
	})

	s.Run("bidder cannot update", func() {
		_, err := s.service.UpdateQuota(s.asBidder(), "Cloth", 3)
		s.Require().ErrorIs(err, ErrNotOperator)
	})

	s.Run("negative quota and zero cost are invalid", func() {
		_, err := s.service.UpdateQuota(s.asOperator(), "Cloth", -1)
		s.Require().ErrorIs(err, ErrInvalidAmount)

		_, err = s.service.UpdateCost(s.asOperator(), "Cloth", 0)
		s.Require().ErrorIs(err, ErrInvalidAmount)
	})

	s.Run("updates apply in place", func() {
		_, err := s.service.UpdateQuota(s.asOperator(), "Cloth", 4)
		s.Require().NoError(err)
		_, err = s.service.UpdateCost(s.asOperator(), "Cloth", 7)
		s.Require().NoError(err)

		item, err := s.service.RequiredItem(context.Background(), "Cloth")
		s.Require().NoError(err)
		s.Equal(models.RequiredItem{Name: "Cloth", Quota: 4, PerUnitCost: 7}, item)
	})

	s.Run("quota below fulfilled closes the item", func() {
		s.open()
		_, err := s.service.AcquireCredit(s.asBidder(), 100)
		s.Require().NoError(err)
		_, err = s.service.BidForItemWithQuantity(s.asBidder(), "Cloth", 2)
		s.Require().NoError(err)

		_, err = s.service.UpdateQuota(s.asOperator(), "Cloth", 1)
		s.Require().NoError(err)

		remaining, err := s.service.RemainingUnitsNeeded(context.Background(), "Cloth")
		s.Require().NoError(err)
		s.Equal(int64(0), remaining)
		s.Equal(int64(2), s.fulfilled("Cloth"))

		_, err = s.service.BidForItem(s.asBidder(), "Cloth")
		s.Require().ErrorIs(err, ErrQuotaExceeded)
	})
}

// =============================================================================
// Bids
// =============================================================================

func (s *MarketplaceServiceSuite) TestBidForItem() {
	s.catalogReady()
	s.registerManual([]string{"Cloth", "Milo"}, []int64{10, 1}, []int64{1, 2})

	s.Run("closed marketplace rejects bids", func() {
		_, err := s.service.BidForItem(s.asBidder(), "Milo")
		s.Require().ErrorIs(err, ErrMarketplaceClosed)
	})

	s.open()
	_, err := s.service.AcquireCredit(s.asBidder(), 50)
	s.Require().NoError(err)
	s.Require().Equal(int64(50), s.balance(s.bidder))

	s.Run("operator cannot bid", func() {
		_, err := s.service.BidForItem(s.asOperator(), "Milo")
		s.Require().ErrorIs(err, ErrOperatorCannotBid)
	})

	s.Run("unknown item", func() {
		_, err := s.service.BidForItem(s.asBidder(), "Chair")
		s.Require().ErrorIs(err, ErrUnknownRequiredItem)
	})

	s.Run("zero quantity", func() {
		_, err := s.service.BidForItemWithQuantity(s.asBidder(), "Cloth", 0)
		s.Require().ErrorIs(err, ErrInvalidAmount)
	})

	s.Run("successful bid moves credit and fulfills", func() {
		result, err := s.service.BidForItem(s.asBidder(), "Milo")
		s.Require().NoError(err)
		s.Equal(int64(2), result.Cost)
		s.Equal(int64(0), result.Remaining)
		s.NotZero(result.Sequence)

		s.Equal(int64(48), s.balance(s.bidder))
		s.Equal(int64(2), s.balance(s.account))
		s.Equal(int64(1), s.fulfilled("Milo"))
	})

	s.Run("second bid exceeds quota", func() {
		_, err := s.service.BidForItem(s.asBidder(), "Milo")
		s.Require().ErrorIs(err, ErrQuotaExceeded)
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeConflict, ""))
		s.Equal(int64(48), s.balance(s.bidder))
	})

	s.Run("quota is checked before credit", func() {
		_, err := s.service.BidForItemWithQuantity(s.asBidder(), "Cloth", 11)
		s.Require().ErrorIs(err, ErrQuotaExceeded)
	})

	s.Run("insufficient credit leaves everything unchanged", func() {
		_, err := s.service.UpdateCost(s.asOperator(), "Cloth", 49)
		s.Require().NoError(err)

		_, err = s.service.BidForItem(s.asBidder(), "Cloth")
		s.Require().ErrorIs(err, ErrInsufficientCredit)
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeInsufficientFunds, ""))

		s.Equal(int64(48), s.balance(s.bidder))
		s.Equal(int64(2), s.balance(s.account))
		s.Equal(int64(0), s.fulfilled("Cloth"))
	})

	s.Run("bid event reports remaining quota", func() {
		events, err := s.events.ListByActor(context.Background(), s.bidder)
		s.Require().NoError(err)
		var bids []audit.Event
		for _, e := range events {
			if e.Action == string(audit.EventBidCompleted) {
				bids = append(bids, e)
			}
		}
		s.Require().Len(bids, 1)
		s.Equal("Milo", bids[0].Subject)
		s.Equal(int64(1), bids[0].Quantity)
		s.Equal(int64(0), bids[0].Remaining)
	})
}

func (s *MarketplaceServiceSuite) TestConcurrentBidsNeverOverfill() {
	s.catalogReady()
	s.registerManual([]string{"Milo"}, []int64{10}, []int64{3})
	s.open()

	const bidders = 25
	accounts := make([]id.AccountID, bidders)
	for i := range accounts {
		accounts[i] = id.NewAccountID()
		_, err := s.service.AcquireCredit(s.as(accounts[i]), 10)
		s.Require().NoError(err)
	}

	var ok, exceeded atomic.Int64
	var wg sync.WaitGroup
	for _, acct := range accounts {
		wg.Add(1)
		go func(acct id.AccountID) {
			defer wg.Done()
			_, err := s.service.BidForItem(s.as(acct), "Milo")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrQuotaExceeded):
				exceeded.Add(1)
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}(acct)
	}
	wg.Wait()

	s.Equal(int64(10), ok.Load())
	s.Equal(int64(bidders-10), exceeded.Load())
	s.Equal(int64(10), s.fulfilled("Milo"))
	s.Equal(int64(30), s.balance(s.account))
}

// =============================================================================
// Credit exchange
// =============================================================================

func (s *MarketplaceServiceSuite) TestAcquireCredit() {
	s.Run("closed marketplace rejects deposits", func() {
		_, err := s.service.AcquireCredit(s.asBidder(), 100)
		s.Require().ErrorIs(err, ErrMarketplaceClosed)
	})

	s.open()

	s.Run("operator cannot acquire credit", func() {
		_, err := s.service.AcquireCredit(s.asOperator(), 100)
		s.Require().ErrorIs(err, ErrOperatorCannotBid)
	})

	s.Run("marketplace account cannot acquire credit", func() {
		_, err := s.service.AcquireCredit(s.as(s.account), 100)
		s.Require().ErrorIs(err, ErrOperatorCannotBid)
	})

	s.Run("half a unit mints 50", func() {
		result, err := s.service.AcquireCredit(s.asBidder(), 50)
		s.Require().NoError(err)
		s.Equal(int64(50), result.Credit)
		s.Equal(int64(50), s.balance(s.bidder))
	})

	s.Run("one unit mints 100", func() {
		_, err := s.service.AcquireCredit(s.asBidder(), 100)
		s.Require().NoError(err)
		s.Equal(int64(150), s.balance(s.bidder))
	})

	s.Run("non-positive deposit is invalid", func() {
		_, err := s.service.AcquireCredit(s.asBidder(), 0)
		s.Require().ErrorIs(err, ErrInvalidAmount)
	})

	s.Run("check credit reports the balance", func() {
		bal, err := s.service.CheckCredit(s.asBidder())
		s.Require().NoError(err)
		s.Equal(int64(150), bal)

		_, err = s.service.CheckCredit(s.asOperator())
		s.Require().ErrorIs(err, ErrOperatorCannotBid)
	})
}

func (s *MarketplaceServiceSuite) TestDepositConversion() {
	cases := []struct {
		deposit      int64
		denomination uint64
		want         int64
	}{
		{deposit: 1, denomination: 1, want: 100},
		{deposit: 50, denomination: 100, want: 50},
		{deposit: 1, denomination: 1_000_000_000_000_000_000, want: 0},
		{deposit: 5_000_000_000_000_000, denomination: 1_000_000_000_000_000_000, want: 0},
		{deposit: 500_000_000_000_000_000, denomination: 1_000_000_000_000_000_000, want: 50},
	}
	for _, tc := range cases {
		got, ok := depositToCredit(tc.deposit, tc.denomination)
		s.True(ok)
		s.Equal(tc.want, got, "deposit %d / %d", tc.deposit, tc.denomination)
	}

	_, ok := depositToCredit(1<<62, 1)
	s.False(ok)

	refund, ok := creditToDeposit(50, 1_000_000_000_000_000_000)
	s.True(ok)
	s.Equal(int64(500_000_000_000_000_000), refund)
}

func (s *MarketplaceServiceSuite) TestReturnCredit() {
	s.open()
	_, err := s.service.AcquireCredit(s.asBidder(), 50)
	s.Require().NoError(err)

	s.Run("more than the balance fails", func() {
		_, err := s.service.ReturnCredit(s.asBidder(), 51)
		s.Require().ErrorIs(err, ErrInsufficientCredit)
		s.Equal(int64(50), s.balance(s.bidder))
	})

	s.Run("operator cannot return credit", func() {
		_, err := s.service.ReturnCredit(s.asOperator(), 1)
		s.Require().ErrorIs(err, ErrOperatorCannotBid)
	})

	s.Run("balance decreases by exactly the amount", func() {
		result, err := s.service.ReturnCredit(s.asBidder(), 20)
		s.Require().NoError(err)
		s.Equal(int64(20), result.Credit)
		s.Equal(int64(20), result.Deposit)
		s.Equal(int64(30), s.balance(s.bidder))
		s.Equal(int64(20), s.balance(s.account))
	})

	s.Run("closed marketplace rejects returns", func() {
		_, err := s.service.StopBidding(s.asOperator())
		s.Require().NoError(err)
		_, err = s.service.ReturnCredit(s.asBidder(), 1)
		s.Require().ErrorIs(err, ErrMarketplaceClosed)
	})
}

func (s *MarketplaceServiceSuite) TestSweepCreditToOperator() {
	s.catalogReady()
	s.registerManual([]string{"Cloth"}, []int64{10}, []int64{4})

	s.Run("closed marketplace cannot be swept", func() {
		_, err := s.service.SweepCreditToOperator(s.asOperator())
		s.Require().ErrorIs(err, ErrMarketplaceClosed)
	})

	s.open()
	_, err := s.service.AcquireCredit(s.asBidder(), 100)
	s.Require().NoError(err)
	_, err = s.service.BidForItemWithQuantity(s.asBidder(), "Cloth", 3)
	s.Require().NoError(err)

	s.Run("bidder cannot sweep", func() {
		_, err := s.service.SweepCreditToOperator(s.asBidder())
		s.Require().ErrorIs(err, ErrNotOperator)
	})

	s.Run("sweep moves the whole balance", func() {
		before, err := s.service.MarketplaceBalance(s.asOperator())
		s.Require().NoError(err)
		s.Equal(int64(12), before)

		result, err := s.service.SweepCreditToOperator(s.asOperator())
		s.Require().NoError(err)
		s.Equal(int64(12), result.Amount)
		s.Equal(int64(0), s.balance(s.account))
		s.Equal(int64(12), s.balance(s.operator))

		status, err := s.service.GetStatus(context.Background())
		s.Require().NoError(err)
		s.Equal(models.StatusOpen, status)
	})

	s.Run("balance query is operator only", func() {
		_, err := s.service.MarketplaceBalance(s.asBidder())
		s.Require().ErrorIs(err, ErrNotOperator)
	})
}

// =============================================================================
// Catalog listing
// =============================================================================

func (s *MarketplaceServiceSuite) TestListCatalogItemsAndPrices() {
	s.Run("catalog not ready", func() {
		s.catalog.EXPECT().CatalogOwnershipTransferred(gomock.Any()).Return(false, nil)
		_, err := s.service.ListCatalogItemsAndPrices(s.asOperator())
		s.Require().ErrorIs(err, ErrCatalogNotReady)
	})

	s.Run("operator only", func() {
		_, err := s.service.ListCatalogItemsAndPrices(s.asBidder())
		s.Require().ErrorIs(err, ErrNotOperator)
	})

	s.Run("lists valid items in catalog order", func() {
		s.catalog.EXPECT().CatalogOwnershipTransferred(gomock.Any()).Return(true, nil)
		s.catalog.EXPECT().ListValidItems(gomock.Any()).Return([]catalogModels.Item{
			{Name: "Chicken", Price: 4, Category: "Food", Valid: true},
			{Name: "Chair", Price: 9, Category: "Furniture", Valid: true},
		}, nil)

		entries, err := s.service.ListCatalogItemsAndPrices(s.asOperator())
		s.Require().NoError(err)
		s.Equal([]models.CatalogEntry{{Name: "Chicken", Price: 4}, {Name: "Chair", Price: 9}}, entries)
	})
}

// =============================================================================
// Ledger failures
// =============================================================================

func (s *MarketplaceServiceSuite) TestLedgerFailureLeavesStateUnchanged() {
	s.catalogReady()
	mockLedger := mocks.NewMockLedger(s.ctrl)
	svc, err := New(s.store, s.catalog, mockLedger)
	s.Require().NoError(err)

	_, err = svc.RegisterManual(s.asOperator(), []string{"Milo"}, []int64{1}, []int64{2})
	s.Require().NoError(err)
	_, err = svc.StartBidding(s.asOperator())
	s.Require().NoError(err)
	before, err := s.store.Load(context.Background())
	s.Require().NoError(err)

	mockLedger.EXPECT().Transfer(gomock.Any(), s.bidder, s.account, int64(2)).Return(errors.New("connection reset"))

	_, err = svc.BidForItem(s.asBidder(), "Milo")
	s.Require().ErrorIs(err, dErrors.New(dErrors.CodeInternal, ""))

	after, err := s.store.Load(context.Background())
	s.Require().NoError(err)
	s.Equal(before.LastSeq, after.LastSeq)
	item, _ := after.Registry.Get("Milo")
	s.Equal(int64(0), item.Fulfilled)
}
