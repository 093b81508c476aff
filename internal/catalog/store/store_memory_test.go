package store_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"charitydrive/internal/catalog/store"
	id "charitydrive/pkg/domain"
)

type InMemoryStoreSuite struct {
	contractSuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(InMemoryStoreSuite)
	s.newStore = func(owner id.AccountID) Store { return store.NewInMemory(owner) }
	suite.Run(t, s)
}
