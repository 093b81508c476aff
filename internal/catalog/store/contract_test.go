package store_test

import (
	"context"

	"github.com/stretchr/testify/suite"

	"charitydrive/internal/catalog/models"
	id "charitydrive/pkg/domain"
	"charitydrive/pkg/platform/sentinel"
)

// Store is the surface shared by the memory and postgres catalog stores.
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

type contractSuite struct {
	suite.Suite
	newStore func(owner id.AccountID) Store
	store    Store
	owner    id.AccountID
}

func (s *contractSuite) SetupTest() {
	s.owner = id.NewAccountID()
	s.store = s.newStore(s.owner)
}

func (s *contractSuite) seed() {
	ctx := context.Background()
	s.Require().NoError(s.store.AddCategory(ctx, "food"))
	s.Require().NoError(s.store.AddCategory(ctx, "hygiene"))
	s.Require().NoError(s.store.AddItem(ctx, models.Item{Name: "Rice", Price: 5, Category: "food", Valid: true}))
	s.Require().NoError(s.store.AddItem(ctx, models.Item{Name: "Soap", Price: 2, Category: "hygiene", Valid: true}))
	s.Require().NoError(s.store.AddItem(ctx, models.Item{Name: "Beans", Price: 3, Category: "food", Valid: true}))
}

func (s *contractSuite) TestListingKeepsInsertionOrder() {
	s.seed()
	ctx := context.Background()

	cats, err := s.store.ListCategories(ctx)
	s.Require().NoError(err)
	s.Equal([]models.Category{{Name: "food"}, {Name: "hygiene"}}, cats)

	items, err := s.store.ListItems(ctx)
	s.Require().NoError(err)
	s.Require().Len(items, 3)
	s.Equal([]string{"Rice", "Soap", "Beans"}, []string{items[0].Name, items[1].Name, items[2].Name})
}

func (s *contractSuite) TestDuplicatesConflict() {
	s.seed()
	ctx := context.Background()
	s.ErrorIs(s.store.AddCategory(ctx, "food"), sentinel.ErrConflict)
	s.ErrorIs(s.store.AddItem(ctx, models.Item{Name: "Rice", Price: 1, Category: "food"}), sentinel.ErrConflict)
}

func (s *contractSuite) TestItemNeedsKnownCategory() {
	err := s.store.AddItem(context.Background(), models.Item{Name: "Rice", Price: 5, Category: "food"})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestUpdateItem() {
	s.seed()
	ctx := context.Background()

	updated, err := s.store.UpdateItem(ctx, "Rice", models.ItemUpdate{Price: 7, Valid: false, NewName: "Brown Rice"})
	s.Require().NoError(err)
	s.Equal(models.Item{Name: "Brown Rice", Price: 7, Category: "food", Valid: false}, *updated)

	_, err = s.store.GetItem(ctx, "Rice")
	s.ErrorIs(err, sentinel.ErrNotFound)
	got, err := s.store.GetItem(ctx, "Brown Rice")
	s.Require().NoError(err)
	s.Equal(int64(7), got.Price)

	_, err = s.store.UpdateItem(ctx, "Soap", models.ItemUpdate{Price: 2, Valid: true, NewName: "Beans"})
	s.ErrorIs(err, sentinel.ErrConflict)
	_, err = s.store.UpdateItem(ctx, "Missing", models.ItemUpdate{Price: 1, Valid: true})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestTransferOwnershipOnce() {
	ctx := context.Background()
	next := id.NewAccountID()

	own, err := s.store.GetOwnership(ctx)
	s.Require().NoError(err)
	s.Equal(s.owner, own.Owner)
	s.False(own.Transferred)

	own, err = s.store.TransferOwnership(ctx, s.owner, next)
	s.Require().NoError(err)
	s.Equal(models.Ownership{Owner: next, PreviousOwner: s.owner, Transferred: true}, own)

	_, err = s.store.TransferOwnership(ctx, s.owner, id.NewAccountID())
	s.ErrorIs(err, sentinel.ErrInvalidState)

	own, err = s.store.GetOwnership(ctx)
	s.Require().NoError(err)
	s.Equal(next, own.Owner)
}
