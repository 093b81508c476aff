package handler

import (
	id "charitydrive/pkg/domain"
	dErrors "charitydrive/pkg/domain-errors"
)

const (
	SourceCatalog = "catalog"
	SourceManual  = "manual"
)

// RegisterRequest replaces the registry. Lists are positional; unequal
// lengths are reported by the service as a length mismatch.
type RegisterRequest struct {
	Source string   `json:"source"`
	Names  []string `json:"names"`
	Quotas []int64  `json:"quotas"`
	Costs  []int64  `json:"costs,omitempty"`
}

func (r *RegisterRequest) Validate() error {
	switch r.Source {
	case SourceCatalog:
		if len(r.Costs) > 0 {
			return dErrors.New(dErrors.CodeValidation, "costs are read from the catalog")
		}
	case SourceManual:
	default:
		return dErrors.New(dErrors.CodeValidation, "source must be catalog or manual")
	}
	for i, name := range r.Names {
		parsed, err := id.ParseItemName(name)
		if err != nil {
			return err
		}
		r.Names[i] = parsed
	}
	return nil
}

type UpdateQuotaRequest struct {
	Quota *int64 `json:"quota"`
}

func (r *UpdateQuotaRequest) Validate() error {
	if r.Quota == nil {
		return dErrors.New(dErrors.CodeValidation, "quota is required")
	}
	return nil
}

type UpdateCostRequest struct {
	Cost *int64 `json:"cost"`
}

func (r *UpdateCostRequest) Validate() error {
	if r.Cost == nil {
		return dErrors.New(dErrors.CodeValidation, "cost is required")
	}
	return nil
}

// AcquireCreditRequest carries the deposit in base deposit units.
type AcquireCreditRequest struct {
	Deposit int64 `json:"deposit"`
}

func (r *AcquireCreditRequest) Validate() error {
	if r.Deposit <= 0 {
		return dErrors.New(dErrors.CodeValidation, "deposit must be positive")
	}
	return nil
}

type ReturnCreditRequest struct {
	Amount int64 `json:"amount"`
}

func (r *ReturnCreditRequest) Validate() error {
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// BidRequest donates Quantity units of Item; Quantity defaults to 1.
type BidRequest struct {
	Item     string `json:"item"`
	Quantity *int64 `json:"quantity,omitempty"`

	quantity int64
}

func (r *BidRequest) Validate() error {
	name, err := id.ParseItemName(r.Item)
	if err != nil {
		return err
	}
	r.Item = name
	r.quantity = 1
	if r.Quantity != nil {
		if *r.Quantity <= 0 {
			return dErrors.New(dErrors.CodeValidation, "quantity must be positive")
		}
		r.quantity = *r.Quantity
	}
	return nil
}

func (r *BidRequest) ParsedQuantity() int64 {
	return r.quantity
}
