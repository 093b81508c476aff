package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"charitydrive/internal/catalog/models"
	"charitydrive/internal/catalog/store"
	id "charitydrive/pkg/domain"
	dErrors "charitydrive/pkg/domain-errors"
	"charitydrive/pkg/platform/audit"
	"charitydrive/pkg/platform/audit/publisher"
	auditmemory "charitydrive/pkg/platform/audit/store/memory"
	"charitydrive/pkg/requestcontext"
)

type CatalogServiceSuite struct {
	suite.Suite
	owner    id.AccountID
	stranger id.AccountID
	store    *store.InMemoryStore
	events   *auditmemory.InMemoryStore
	service  *Service
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

func (s *CatalogServiceSuite) SetupTest() {
	s.owner = id.NewAccountID()
	s.stranger = id.NewAccountID()
	s.store = store.NewInMemory(s.owner)
	s.events = auditmemory.NewInMemoryStore()

	svc, err := New(s.store, WithAuditPublisher(publisher.NewPublisher(s.events)))
	s.Require().NoError(err)
	s.service = svc
}

func (s *CatalogServiceSuite) asOwner() context.Context {
	return requestcontext.WithCaller(context.Background(), s.owner)
}

func (s *CatalogServiceSuite) seed(items ...models.Item) {
	ctx := s.asOwner()
	s.Require().NoError(s.service.AddCategory(ctx, "General"))
	for _, item := range items {
		_, err := s.service.AddItem(ctx, item.Name, item.Price, "General")
		s.Require().NoError(err)
	}
}

// =============================================================================
// Construction
// =============================================================================

func (s *CatalogServiceSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Require().Error(err)
}

// =============================================================================
// Owner-only mutations
// =============================================================================

func (s *CatalogServiceSuite) TestOwnerOnlyMutations() {
	s.Run("anonymous caller is unauthorized", func() {
		err := s.service.AddCategory(context.Background(), "Food")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeUnauthorized, ""))
	})

	s.Run("non-owner is forbidden", func() {
		ctx := requestcontext.WithCaller(context.Background(), s.stranger)
		err := s.service.AddCategory(ctx, "Food")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeForbidden, ""))

		_, err = s.service.AddItem(ctx, "Rice", 10, "Food")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeForbidden, ""))

		_, err = s.service.TransferOwnership(ctx, s.stranger)
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeForbidden, ""))
	})
}

// =============================================================================
// Items
// =============================================================================

func (s *CatalogServiceSuite) TestAddItem() {
	s.seed()
	ctx := s.asOwner()

	s.Run("valid item is priced and listed", func() {
		item, err := s.service.AddItem(ctx, "Rice", 48, "General")
		s.Require().NoError(err)
		s.True(item.Valid)

		price, err := s.service.GetPrice(ctx, "Rice")
		s.Require().NoError(err)
		s.Equal(int64(48), price)
	})

	s.Run("zero price is rejected", func() {
		_, err := s.service.AddItem(ctx, "Water", 0, "General")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeValidation, ""))
	})

	s.Run("unknown category is not found", func() {
		_, err := s.service.AddItem(ctx, "Soap", 5, "Hygiene")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, ""))
	})

	s.Run("duplicate name conflicts", func() {
		_, err := s.service.AddItem(ctx, "Rice", 7, "General")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeConflict, ""))
	})
}

func (s *CatalogServiceSuite) TestInvalidItemsAreHiddenFromMarketplace() {
	s.seed(models.Item{Name: "Rice", Price: 48}, models.Item{Name: "Beans", Price: 52})
	ctx := s.asOwner()

	_, err := s.service.UpdateItem(ctx, "Rice", models.ItemUpdate{Price: 48, Valid: false})
	s.Require().NoError(err)

	exists, err := s.service.ItemExists(ctx, "Rice")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.service.GetPrice(ctx, "Rice")
	s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, ""))

	valid, err := s.service.ListValidItems(ctx)
	s.Require().NoError(err)
	s.Require().Len(valid, 1)
	s.Equal("Beans", valid[0].Name)

	all, err := s.service.ListItems(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *CatalogServiceSuite) TestUpdateItemRename() {
	s.seed(models.Item{Name: "Rice", Price: 48}, models.Item{Name: "Beans", Price: 52})
	ctx := s.asOwner()

	s.Run("rename keeps position", func() {
		item, err := s.service.UpdateItem(ctx, "Rice", models.ItemUpdate{Price: 50, Valid: true, NewName: "Brown Rice"})
		s.Require().NoError(err)
		s.Equal("Brown Rice", item.Name)

		items, err := s.service.ListItems(ctx)
		s.Require().NoError(err)
		s.Equal("Brown Rice", items[0].Name)

		exists, err := s.service.ItemExists(ctx, "Rice")
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("rename onto existing item conflicts", func() {
		_, err := s.service.UpdateItem(ctx, "Brown Rice", models.ItemUpdate{Price: 50, Valid: true, NewName: "Beans"})
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeConflict, ""))
	})

	s.Run("missing item is not found", func() {
		_, err := s.service.UpdateItem(ctx, "Milk", models.ItemUpdate{Price: 1, Valid: true})
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNotFound, ""))
	})
}

// =============================================================================
// Ownership
// =============================================================================

func (s *CatalogServiceSuite) TestTransferOwnership() {
	ctx := s.asOwner()

	transferred, err := s.service.CatalogOwnershipTransferred(ctx)
	s.Require().NoError(err)
	s.False(transferred)

	newOwner := id.NewAccountID()
	own, err := s.service.TransferOwnership(ctx, newOwner)
	s.Require().NoError(err)
	s.Equal(newOwner, own.Owner)
	s.Equal(s.owner, own.PreviousOwner)

	transferred, err = s.service.CatalogOwnershipTransferred(ctx)
	s.Require().NoError(err)
	s.True(transferred)

	s.Run("previous owner loses access", func() {
		err := s.service.AddCategory(ctx, "Food")
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeForbidden, ""))
	})

	s.Run("transfer is audited", func() {
		events, err := s.events.ListByActor(context.Background(), s.owner)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		last := events[len(events)-1]
		s.Equal(string(audit.EventCatalogOwnerChanged), last.Action)
		s.Equal(newOwner.String(), last.Subject)
	})
}
