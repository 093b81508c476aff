package models

// ItemRemaining pairs a registry item with its outstanding quota.
type ItemRemaining struct {
	Name      string
	Remaining int64
}

// CatalogEntry is a valid catalog item and its current price.
type CatalogEntry struct {
	Name  string
	Price int64
}

// Receipt identifies a committed mutation.
type Receipt struct {
	Sequence int64
}

type BidResult struct {
	Item      string
	Quantity  int64
	Cost      int64
	Remaining int64
	Sequence  int64
}

// CreditResult describes a credit mint or return. Deposit is in base
// deposit units: paid in for a mint, refunded for a return.
type CreditResult struct {
	Credit   int64
	Deposit  int64
	Sequence int64
}

type SweepResult struct {
	Amount   int64
	Sequence int64
}
