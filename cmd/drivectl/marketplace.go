package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"charitydrive/internal/marketplace/handler"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether bidding is open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp handler.StatusResponse
			if err := a.client.do(cmd.Context(), http.MethodGet, "/marketplace/status", nil, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func newBiddingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bidding",
		Short: "Open or close the bidding window (operator)",
	}
	for _, action := range []string{"start", "stop"} {
		path := "/marketplace/bidding/" + action
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: strings.ToUpper(action[:1]) + action[1:] + " bidding",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var resp handler.ReceiptResponse
				if err := a.client.do(cmd.Context(), http.MethodPost, path, nil, &resp); err != nil {
					return err
				}
				return a.print(resp)
			},
		})
	}
	return cmd
}

func newRegistryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the required-items registry",
	}

	var source string
	var items []string
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the whole registry (operator)",
		Long: `Set replaces every required item in one call.

Items are given as name=quota for --source catalog, where the per-unit cost is
the catalog price, or name=quota:cost for --source manual.

Example:
  drivectl registry set --source catalog --item Chicken=10 --item Chair=5
  drivectl registry set --source manual --item Cloth=10:1 --item Milo=1:2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := parseRegistryItems(source, items)
			if err != nil {
				return err
			}
			var resp handler.ReceiptResponse
			if err := a.client.do(cmd.Context(), http.MethodPut, "/marketplace/registry", req, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}
	set.Flags().StringVar(&source, "source", handler.SourceCatalog, "catalog or manual")
	set.Flags().StringArrayVar(&items, "item", nil, "required item as name=quota or name=quota:cost")

	list := &cobra.Command{
		Use:   "list",
		Short: "List required items and their remaining quota",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp handler.RegistryResponse
			if err := a.client.do(cmd.Context(), http.MethodGet, "/marketplace/registry", nil, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	donatable := &cobra.Command{
		Use:   "donatable",
		Short: "List items that still need donations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp handler.DonatableResponse
			if err := a.client.do(cmd.Context(), http.MethodGet, "/marketplace/registry/donatable", nil, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Show quota, cost and fulfillment of one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp handler.RequiredItemResponse
			if err := a.client.do(cmd.Context(), http.MethodGet, itemPath("/marketplace/registry", args[0]), nil, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	quota := &cobra.Command{
		Use:   "quota NAME QUOTA",
		Short: "Change the quota of a required item (operator)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("quota: %w", err)
			}
			var resp handler.ReceiptResponse
			path := itemPath("/marketplace/registry", args[0]) + "/quota"
			if err := a.client.do(cmd.Context(), http.MethodPatch, path, handler.UpdateQuotaRequest{Quota: &n}, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	cost := &cobra.Command{
		Use:   "cost NAME COST",
		Short: "Change the per-unit cost of a required item (operator)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("cost: %w", err)
			}
			var resp handler.ReceiptResponse
			path := itemPath("/marketplace/registry", args[0]) + "/cost"
			if err := a.client.do(cmd.Context(), http.MethodPatch, path, handler.UpdateCostRequest{Cost: &n}, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	cmd.AddCommand(set, list, donatable, get, quota, cost)
	return cmd
}

// parseRegistryItems turns name=quota[:cost] pairs into a registration.
func parseRegistryItems(source string, items []string) (handler.RegisterRequest, error) {
	req := handler.RegisterRequest{Source: source}
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		if !ok || name == "" {
			return handler.RegisterRequest{}, fmt.Errorf("item %q: expected name=quota", item)
		}
		quotaRaw, costRaw, hasCost := strings.Cut(value, ":")
		quota, err := strconv.ParseInt(quotaRaw, 10, 64)
		if err != nil {
			return handler.RegisterRequest{}, fmt.Errorf("item %q: quota: %w", item, err)
		}
		req.Names = append(req.Names, name)
		req.Quotas = append(req.Quotas, quota)

		switch {
		case source == handler.SourceManual && !hasCost:
			return handler.RegisterRequest{}, fmt.Errorf("item %q: manual registration needs name=quota:cost", item)
		case source != handler.SourceManual && hasCost:
			return handler.RegisterRequest{}, fmt.Errorf("item %q: catalog registration takes its cost from the catalog", item)
		case hasCost:
			cost, err := strconv.ParseInt(costRaw, 10, 64)
			if err != nil {
				return handler.RegisterRequest{}, fmt.Errorf("item %q: cost: %w", item, err)
			}
			req.Costs = append(req.Costs, cost)
		}
	}
	return req, nil
}

func newCreditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Buy, return or inspect marketplace credit",
	}

	acquire := &cobra.Command{
		Use:   "acquire DEPOSIT",
		Short: "Exchange a deposit in base units for credit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deposit, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("deposit: %w", err)
			}
			var resp handler.CreditResponse
			if err := a.client.do(cmd.Context(), http.MethodPost, "/marketplace/credit/acquire", handler.AcquireCreditRequest{Deposit: deposit}, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	ret := &cobra.Command{
		Use:   "return AMOUNT",
		Short: "Return credit for a deposit refund",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			var resp handler.CreditResponse
			if err := a.client.do(cmd.Context(), http.MethodPost, "/marketplace/credit/return", handler.ReturnCreditRequest{Amount: amount}, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the caller's credit balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp handler.BalanceResponse
			if err := a.client.do(cmd.Context(), http.MethodGet, "/marketplace/credit", nil, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}

	cmd.AddCommand(acquire, ret, show)
	return cmd
}

func newBidCmd(a *app) *cobra.Command {
	var quantity int64
	cmd := &cobra.Command{
		Use:   "bid ITEM",
		Short: "Donate units of a required item, paying with credit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := handler.BidRequest{Item: args[0]}
			if cmd.Flags().Changed("quantity") {
				req.Quantity = &quantity
			}
			var resp handler.BidResponse
			if err := a.client.do(cmd.Context(), http.MethodPost, "/marketplace/bids", req, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}
	cmd.Flags().Int64VarP(&quantity, "quantity", "q", 1, "number of units to donate")
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Move the marketplace's collected credit to the operator (operator)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp handler.SweepResponse
			if err := a.client.do(cmd.Context(), http.MethodPost, "/marketplace/sweep", nil, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the credit held by the marketplace account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp handler.BalanceResponse
			if err := a.client.do(cmd.Context(), http.MethodGet, "/marketplace/balance", nil, &resp); err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}
