package handler

import (
	"charitydrive/internal/catalog/models"
	id "charitydrive/pkg/domain"
	dErrors "charitydrive/pkg/domain-errors"
)

type AddCategoryRequest struct {
	Name string `json:"name"`
}

func (r *AddCategoryRequest) Validate() error {
	name, err := id.ParseItemName(r.Name)
	if err != nil {
		return err
	}
	r.Name = name
	return nil
}

type AddItemRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
}

func (r *AddItemRequest) Validate() error {
	name, err := id.ParseItemName(r.Name)
	if err != nil {
		return err
	}
	if r.Category == "" {
		return dErrors.New(dErrors.CodeValidation, "category is required")
	}
	if r.Price <= 0 {
		return dErrors.New(dErrors.CodeValidation, "price must be positive")
	}
	r.Name = name
	return nil
}

type UpdateItemRequest struct {
	Price   int64  `json:"price"`
	Valid   *bool  `json:"valid"`
	NewName string `json:"new_name,omitempty"`

	update models.ItemUpdate
}

func (r *UpdateItemRequest) Validate() error {
	if r.Price <= 0 {
		return dErrors.New(dErrors.CodeValidation, "price must be positive")
	}
	if r.Valid == nil {
		return dErrors.New(dErrors.CodeValidation, "valid is required")
	}
	r.update = models.ItemUpdate{Price: r.Price, Valid: *r.Valid}
	if r.NewName != "" {
		name, err := id.ParseItemName(r.NewName)
		if err != nil {
			return err
		}
		r.update.NewName = name
	}
	return nil
}

func (r *UpdateItemRequest) ParsedUpdate() models.ItemUpdate {
	return r.update
}

type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`

	newOwner id.AccountID
}

func (r *TransferOwnershipRequest) Validate() error {
	owner, err := id.ParseAccountID(r.NewOwner)
	if err != nil {
		return err
	}
	r.newOwner = owner
	return nil
}

func (r *TransferOwnershipRequest) ParsedNewOwner() id.AccountID {
	return r.newOwner
}
