// Package models holds the catalog entities: categories, priced items and
// the ownership record the marketplace depends on.
package models

import (
	id "charitydrive/pkg/domain"
)

type Category struct {
	Name string
}

// Item is a donatable product. Price is in credit units and always positive.
// Items marked invalid stay listed for the owner but are treated as absent by
// the marketplace.
type Item struct {
	Name     string
	Price    int64
	Category string
	Valid    bool
}

// Ownership records the current and previous catalog owner. Transferred
// turns true on the first ownership transfer and never reverts.
type Ownership struct {
	Owner         id.AccountID
	PreviousOwner id.AccountID
	Transferred   bool
}

// ItemUpdate changes price and validity, and optionally renames the item.
type ItemUpdate struct {
	Price   int64
	Valid   bool
	NewName string
}
