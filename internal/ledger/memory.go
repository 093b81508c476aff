package ledger

import (
	"bytes"
	"context"
	"math"
	"sync"

	id "charitydrive/pkg/domain"
	"charitydrive/pkg/platform/sentinel"
)

type account struct {
	mu      sync.Mutex
	balance int64
}

// Memory is an in-process ledger. Transfers lock both accounts in a fixed
// order so concurrent opposite transfers cannot deadlock.
type Memory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*account
}

func NewMemory() *Memory {
	return &Memory{accounts: make(map[id.AccountID]*account)}
}

func (m *Memory) get(acct id.AccountID) *account {
	m.mu.RLock()
	a, ok := m.accounts[acct]
	m.mu.RUnlock()
	if ok {
		return a
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok = m.accounts[acct]; ok {
		return a
	}
	a = &account{}
	m.accounts[acct] = a
	return a
}

func (m *Memory) Mint(_ context.Context, acct id.AccountID, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	a := m.get(acct)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance > math.MaxInt64-amount {
		return sentinel.ErrInvalidState
	}
	a.balance += amount
	return nil
}

func (m *Memory) Transfer(_ context.Context, from, to id.AccountID, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if from == to {
		a := m.get(from)
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.balance < amount {
			return insufficient(a.balance, amount)
		}
		return nil
	}

	src, dst := m.get(from), m.get(to)
	first, second := src, dst
	if bytes.Compare(from[:], to[:]) > 0 {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if src.balance < amount {
		return insufficient(src.balance, amount)
	}
	if dst.balance > math.MaxInt64-amount {
		return sentinel.ErrInvalidState
	}
	src.balance -= amount
	dst.balance += amount
	return nil
}

func (m *Memory) BalanceOf(_ context.Context, acct id.AccountID) (int64, error) {
	m.mu.RLock()
	a, ok := m.accounts[acct]
	m.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, nil
}
