package store_test

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/suite"

	"charitydrive/internal/marketplace/models"
	id "charitydrive/pkg/domain"
)

// StateStore is the behaviour every backend must share.
type StateStore interface {
	Load(ctx context.Context) (*models.State, error)
	Execute(ctx context.Context, fn func(txCtx context.Context, st *models.State) error) (*models.State, error)
}

// contractSuite runs the same cases against any backend. Embedders set
// newStore, which receives the operator and marketplace account.
type contractSuite struct {
	suite.Suite
	newStore func(operator, account id.AccountID) StateStore
	operator id.AccountID
	account  id.AccountID
	store    StateStore
}

func (s *contractSuite) SetupTest() {
	s.operator = id.NewAccountID()
	s.account = id.NewAccountID()
	s.store = s.newStore(s.operator, s.account)
}

func (s *contractSuite) register(items ...models.RequiredItem) {
	_, err := s.store.Execute(context.Background(), func(_ context.Context, st *models.State) error {
		st.Registry = models.NewRegistry(items)
		return nil
	})
	s.Require().NoError(err)
}

// =============================================================================
// Load
// =============================================================================

func (s *contractSuite) TestInitialState() {
	st, err := s.store.Load(context.Background())
	s.Require().NoError(err)
	s.Equal(s.operator, st.Operator)
	s.Equal(s.account, st.Account)
	s.Equal(models.StatusClosed, st.Status)
	s.Equal(0, st.Registry.Len())
}

// =============================================================================
// Execute
// =============================================================================

func (s *contractSuite) TestExecuteCommitsDraft() {
	ctx := context.Background()
	s.register(
		models.RequiredItem{Name: "Cloth", Quota: 10, PerUnitCost: 1},
		models.RequiredItem{Name: "Milo", Quota: 1, PerUnitCost: 2},
	)

	out, err := s.store.Execute(ctx, func(_ context.Context, st *models.State) error {
		st.Status = models.StatusOpen
		st.LastSeq = 42
		st.Registry.Update("Milo", func(item *models.RequiredItem) { item.Fulfilled = 1 })
		return nil
	})
	s.Require().NoError(err)
	s.Equal(int64(42), out.LastSeq)

	st, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Equal(models.StatusOpen, st.Status)
	s.Equal(int64(42), st.LastSeq)
	s.Equal([]string{"Cloth"}, st.Registry.Donatable())

	items := st.Registry.Items()
	s.Require().Len(items, 2)
	s.Equal("Cloth", items[0].Name)
	s.Equal("Milo", items[1].Name)
}

func (s *contractSuite) TestExecuteDiscardsDraftOnError() {
	ctx := context.Background()
	s.register(models.RequiredItem{Name: "Milo", Quota: 1, PerUnitCost: 2})
	boom := errors.New("boom")

	_, err := s.store.Execute(ctx, func(_ context.Context, st *models.State) error {
		st.Status = models.StatusOpen
		st.Registry = models.NewRegistry(nil)
		return boom
	})
	s.Require().ErrorIs(err, boom)

	st, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Equal(models.StatusClosed, st.Status)
	s.Equal(1, st.Registry.Len())
}

func (s *contractSuite) TestRegistryReplacementDropsPriorEntries() {
	ctx := context.Background()
	s.register(
		models.RequiredItem{Name: "Chicken", Quota: 10, PerUnitCost: 4, Fulfilled: 3},
		models.RequiredItem{Name: "Chair", Quota: 5, PerUnitCost: 9},
	)
	s.register(
		models.RequiredItem{Name: "Cloth", Quota: 10, PerUnitCost: 1},
		models.RequiredItem{Name: "Milo", Quota: 1, PerUnitCost: 2},
	)

	st, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Cloth", "Milo"}, st.Registry.Donatable())
	_, found := st.Registry.Get("Chicken")
	s.False(found)
}

func (s *contractSuite) TestConcurrentExecutesSerialize() {
	ctx := context.Background()
	s.register(models.RequiredItem{Name: "Cloth", Quota: 1000, PerUnitCost: 1})

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, func(_ context.Context, st *models.State) error {
				st.Registry.Update("Cloth", func(item *models.RequiredItem) { item.Fulfilled++ })
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	st, err := s.store.Load(ctx)
	s.Require().NoError(err)
	item, _ := st.Registry.Get("Cloth")
	s.Equal(int64(workers), item.Fulfilled)
}
