// Package models holds the marketplace aggregate: bidding status, the
// required-items registry and the accounts the marketplace acts for.
package models

import (
	"fmt"
	"time"

	id "charitydrive/pkg/domain"
)

// BiddingStatus gates every credit and bid operation.
type BiddingStatus string

const (
	StatusClosed BiddingStatus = "closed"
	StatusOpen   BiddingStatus = "open"
)

func (s BiddingStatus) IsOpen() bool { return s == StatusOpen }

// ParseBiddingStatus accepts the persisted status values.
func ParseBiddingStatus(v string) (BiddingStatus, error) {
	switch BiddingStatus(v) {
	case StatusClosed, StatusOpen:
		return BiddingStatus(v), nil
	default:
		return "", fmt.Errorf("unknown bidding status %q", v)
	}
}

// RequiredItem is one registry entry. Fulfilled only grows between
// registrations; Quota may later be lowered beneath it, which closes the
// item to further bids.
type RequiredItem struct {
	Name        string
	Quota       int64
	PerUnitCost int64
	Fulfilled   int64
}

// Remaining is the number of units still accepted for the item.
func (i RequiredItem) Remaining() int64 {
	if i.Fulfilled >= i.Quota {
		return 0
	}
	return i.Quota - i.Fulfilled
}

// State is the whole marketplace aggregate. Stores hand out copies; a
// mutation works on a draft that replaces the stored state on success.
type State struct {
	Operator  id.AccountID
	Account   id.AccountID
	Status    BiddingStatus
	Registry  *Registry
	LastSeq   int64
	UpdatedAt time.Time
}

// NewState returns a closed marketplace with an empty registry.
func NewState(operator, account id.AccountID) *State {
	return &State{
		Operator: operator,
		Account:  account,
		Status:   StatusClosed,
		Registry: NewRegistry(nil),
	}
}

// Clone returns a deep copy safe to mutate.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Registry = s.Registry.Clone()
	return &out
}
