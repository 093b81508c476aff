//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"charitydrive/internal/catalog/store"
	id "charitydrive/pkg/domain"
	"charitydrive/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	contractSuite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.newStore = func(owner id.AccountID) Store {
		st := store.NewPostgres(s.postgres.DB)
		s.Require().NoError(st.EnsureOwner(context.Background(), owner))
		return st
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"catalog_items", "catalog_categories", "catalog_owner")
	s.Require().NoError(err)
	s.contractSuite.SetupTest()
}

func (s *PostgresStoreSuite) TestEnsureOwnerKeepsExistingRow() {
	ctx := context.Background()
	st := store.NewPostgres(s.postgres.DB)
	s.Require().NoError(st.EnsureOwner(ctx, id.NewAccountID()))

	own, err := st.GetOwnership(ctx)
	s.Require().NoError(err)
	s.Equal(s.owner, own.Owner)
}
