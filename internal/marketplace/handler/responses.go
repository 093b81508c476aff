package handler

import (
	"charitydrive/internal/marketplace/models"
)

type StatusResponse struct {
	Status string `json:"status"`
}

type ReceiptResponse struct {
	Sequence int64 `json:"sequence,string"`
}

type ItemRemainingResponse struct {
	Name      string `json:"name"`
	Remaining int64  `json:"remaining"`
}

type RegistryResponse struct {
	Items []ItemRemainingResponse `json:"items"`
}

type DonatableResponse struct {
	Items []string `json:"items"`
}

type RequiredItemResponse struct {
	Name        string `json:"name"`
	Quota       int64  `json:"quota"`
	PerUnitCost int64  `json:"per_unit_cost"`
	Fulfilled   int64  `json:"fulfilled"`
	Remaining   int64  `json:"remaining"`
}

type CatalogEntryResponse struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type CatalogResponse struct {
	Items []CatalogEntryResponse `json:"items"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type BidResponse struct {
	Item      string `json:"item"`
	Quantity  int64  `json:"quantity"`
	Cost      int64  `json:"cost"`
	Remaining int64  `json:"remaining"`
	Sequence  int64  `json:"sequence,string"`
}

type CreditResponse struct {
	Credit   int64 `json:"credit"`
	Deposit  int64 `json:"deposit"`
	Sequence int64 `json:"sequence,string"`
}

type SweepResponse struct {
	Amount   int64 `json:"amount"`
	Sequence int64 `json:"sequence,string"`
}

func toRegistryResponse(items []models.ItemRemaining) RegistryResponse {
	resp := RegistryResponse{Items: make([]ItemRemainingResponse, len(items))}
	for i, item := range items {
		resp.Items[i] = ItemRemainingResponse{Name: item.Name, Remaining: item.Remaining}
	}
	return resp
}

func toRequiredItemResponse(item models.RequiredItem) RequiredItemResponse {
	return RequiredItemResponse{
		Name:        item.Name,
		Quota:       item.Quota,
		PerUnitCost: item.PerUnitCost,
		Fulfilled:   item.Fulfilled,
		Remaining:   item.Remaining(),
	}
}

func toCatalogResponse(entries []models.CatalogEntry) CatalogResponse {
	resp := CatalogResponse{Items: make([]CatalogEntryResponse, len(entries))}
	for i, e := range entries {
		resp.Items[i] = CatalogEntryResponse{Name: e.Name, Price: e.Price}
	}
	return resp
}
