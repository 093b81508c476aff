package handler

import (
	"charitydrive/internal/catalog/models"
)

type ItemResponse struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
	Valid    bool   `json:"valid"`
}

type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

type CategoryListResponse struct {
	Categories []string `json:"categories"`
}

type OwnershipResponse struct {
	Owner         string `json:"owner"`
	PreviousOwner string `json:"previous_owner,omitempty"`
	Transferred   bool   `json:"transferred"`
}

func toItemResponse(item *models.Item) ItemResponse {
	return ItemResponse{
		Name:     item.Name,
		Price:    item.Price,
		Category: item.Category,
		Valid:    item.Valid,
	}
}

func toOwnershipResponse(own models.Ownership) OwnershipResponse {
	resp := OwnershipResponse{Owner: own.Owner.String(), Transferred: own.Transferred}
	if !own.PreviousOwner.IsNil() {
		resp.PreviousOwner = own.PreviousOwner.String()
	}
	return resp
}
