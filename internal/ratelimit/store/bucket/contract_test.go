package bucket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"charitydrive/internal/ratelimit/models"
)

var testLimit = models.Limit{Requests: 3, Window: time.Minute}

// storeContractSuite runs against every Store implementation. Embedders set
// store and advance, which moves the store's clock forward.
type storeContractSuite struct {
	suite.Suite
	store interface {
		Allow(ctx context.Context, key string, limit models.Limit) (models.Result, error)
	}
	advance func(d time.Duration)
	ctx     context.Context
	keySeq  int
}

func (s *storeContractSuite) key() string {
	s.keySeq++
	return fmt.Sprintf("test:%s:%d", s.T().Name(), s.keySeq)
}

func (s *storeContractSuite) TestAllowsUpToLimit() {
	key := s.key()
	for i := 0; i < testLimit.Requests; i++ {
		res, err := s.store.Allow(s.ctx, key, testLimit)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(testLimit.Requests, res.Limit)
		s.Equal(testLimit.Requests-i-1, res.Remaining)
	}

	res, err := s.store.Allow(s.ctx, key, testLimit)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(0, res.Remaining)
	s.False(res.ResetAt.IsZero())
}

func (s *storeContractSuite) TestKeysAreIndependent() {
	a, b := s.key(), s.key()
	for _i := 0; _i < testLimit.Requests; _i++ {
		_, err := s.store.Allow(s.ctx, a, testLimit)
		s.Require().NoError(err)
	}

	res, err := s.store.Allow(s.ctx, b, testLimit)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *storeContractSuite) TestWindowSlides() {
	key := s.key()
	for _i := 0; _i < testLimit.Requests; _i++ {
		_, err := s.store.Allow(s.ctx, key, testLimit)
		s.Require().NoError(err)
	}
	s.advance(testLimit.Window + time.Millisecond)

	res, err := s.store.Allow(s.ctx, key, testLimit)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(testLimit.Requests-1, res.Remaining)
}

func (s *storeContractSuite) TestConcurrentRequestsNeverExceedLimit() {
	key := s.key()
	limit := models.Limit{Requests: 10, Window: time.Minute}

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for _i := 0; _i < 50; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(s.ctx, key, limit)
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(limit.Requests, allowed)
}
