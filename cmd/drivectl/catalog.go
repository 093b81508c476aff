package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	catalogHandler "charitydrive/internal/catalog/handler"
	"charitydrive/internal/marketplace/handler"
)

// seedFile is the YAML layout read by "catalog seed".
//
//	categories: [Food, Furniture]
//	items:
//	  - {name: Chicken, price: 4, category: Food}
//	transfer_to: 6f1c...
type seedFile struct {
	Categories []string   `yaml:"categories"`
	Items      []seedItem `yaml:"items"`
	TransferTo string     `yaml:"transfer_to"`
}

type seedItem struct {
	Name     string `yaml:"name"`
	Price    int64  `yaml:"price"`
	Category string `yaml:"category"`
	Invalid  bool   `yaml:"invalid"`
}

func readSeedFile(path string) (seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return seedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	if len(seed.Categories) == 0 && len(seed.Items) == 0 {
		return seedFile{}, errors.New("seed file has no categories or items")
	}
	return seed, nil
}

type seedSummary struct {
	Categories  int    `json:"categories"`
	Items       int    `json:"items"`
	Invalidated int    `json:"invalidated"`
	Owner       string `json:"owner,omitempty"`
}

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and administer the store catalog",
	}

	prices := &cobra.Command{
		Use:   "prices",
		Short: "List valid catalog items with prices as seen by the marketplace (operator)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp handler.CatalogResponse
			if err := a.client.do(cmd.Context(), http.MethodGet, "/marketplace/catalog", nil, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	items := &cobra.Command{
		Use:   "items",
		Short: "List every catalog item, including invalid ones (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp catalogHandler.ItemListResponse
			if err := a.client.do(cmd.Context(), http.MethodGet, "/catalog/items", nil, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	transfer := &cobra.Command{
		Use:   "transfer NEW_OWNER",
		Short: "Transfer catalog ownership, usually to the marketplace operator (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp catalogHandler.OwnershipResponse
			req := catalogHandler.TransferOwnershipRequest{NewOwner: args[0]}
			if err := a.client.do(cmd.Context(), http.MethodPost, "/catalog/ownership", req, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	seed := &cobra.Command{
		Use:   "seed FILE",
		Short: "Create categories and items from a YAML file (admin)",
		Long: `Seed creates every category, then every item, listed in FILE. Items marked
invalid are created and then flagged invalid. When transfer_to is set the
catalog is handed over to that account afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := readSeedFile(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var summary seedSummary

			for _, name := range file.Categories {
				req := catalogHandler.AddCategoryRequest{Name: name}
				if err := a.client.do(ctx, http.MethodPost, "/catalog/categories", req, nil); err != nil {
					return fmt.Errorf("category %q: %w", name, err)
				}
				summary.Categories++
			}
			for _, item := range file.Items {
				req := catalogHandler.AddItemRequest{Name: item.Name, Price: item.Price, Category: item.Category}
				if err := a.client.do(ctx, http.MethodPost, "/catalog/items", req, nil); err != nil {
					return fmt.Errorf("item %q: %w", item.Name, err)
				}
				summary.Items++
				if !item.Invalid {
					continue
				}
				valid := false
				update := catalogHandler.UpdateItemRequest{Price: item.Price, Valid: &valid}
				if err := a.client.do(ctx, http.MethodPatch, itemPath("/catalog/items", item.Name), update, nil); err != nil {
					return fmt.Errorf("invalidate %q: %w", item.Name, err)
				}
				summary.Invalidated++
			}
			if file.TransferTo != "" {
				var resp catalogHandler.OwnershipResponse
				req := catalogHandler.TransferOwnershipRequest{NewOwner: file.TransferTo}
				if err := a.client.do(ctx, http.MethodPost, "/catalog/ownership", req, &resp); err != nil {
					return fmt.Errorf("transfer ownership: %w", err)
				}
				summary.Owner = resp.Owner
			}
			return a.print(summary)
		},
	}

	cmd.AddCommand(prices, items, transfer, seed)
	return cmd
}
