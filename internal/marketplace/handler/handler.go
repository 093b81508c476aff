// Package handler exposes the marketplace over HTTP. The caller identity is
// taken from the request context, set by the auth middleware.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"charitydrive/internal/marketplace/models"
	"charitydrive/pkg/platform/httputil"
	request "charitydrive/pkg/platform/middleware/request"
)

// Service is the marketplace surface the handler depends on.
type Service interface {
	GetStatus(ctx context.Context) (models.BiddingStatus, error)
	StartBidding(ctx context.Context) (models.Receipt, error)
	StopBidding(ctx context.Context) (models.Receipt, error)

	RegisterFromCatalog(ctx context.Context, names []string, quotas []int64) (models.Receipt, error)
	RegisterManual(ctx context.Context, names []string, quotas, costs []int64) (models.Receipt, error)
	UpdateQuota(ctx context.Context, name string, quota int64) (models.Receipt, error)
	UpdateCost(ctx context.Context, name string, cost int64) (models.Receipt, error)
	ListItemsAndRemainingQuota(ctx context.Context) ([]models.ItemRemaining, error)
	ListDonatableItems(ctx context.Context) ([]string, error)
	RequiredItem(ctx context.Context, name string) (models.RequiredItem, error)
	ListCatalogItemsAndPrices(ctx context.Context) ([]models.CatalogEntry, error)

	AcquireCredit(ctx context.Context, deposit int64) (models.CreditResult, error)
	CheckCredit(ctx context.Context) (int64, error)
	ReturnCredit(ctx context.Context, amount int64) (models.CreditResult, error)
	BidForItemWithQuantity(ctx context.Context, name string, quantity int64) (models.BidResult, error)
	SweepCreditToOperator(ctx context.Context) (models.SweepResult, error)
	MarketplaceBalance(ctx context.Context) (int64, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the marketplace routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/marketplace", func(r chi.Router) {
		r.Get("/status", h.HandleGetStatus)
		r.Post("/bidding/start", h.HandleStartBidding)
		r.Post("/bidding/stop", h.HandleStopBidding)

		r.Get("/catalog", h.HandleListCatalog)
		r.Put("/registry", h.HandleRegister)
		r.Get("/registry", h.HandleListRegistry)
		r.Get("/registry/donatable", h.HandleListDonatable)
		r.Get("/registry/{name}", h.HandleGetRequiredItem)
		r.Patch("/registry/{name}/quota", h.HandleUpdateQuota)
		r.Patch("/registry/{name}/cost", h.HandleUpdateCost)

		r.Post("/credit/acquire", h.HandleAcquireCredit)
		r.Post("/credit/return", h.HandleReturnCredit)
		r.Get("/credit", h.HandleCheckCredit)
		r.Post("/bids", h.HandleBid)
		r.Post("/sweep", h.HandleSweep)
		r.Get("/balance", h.HandleMarketplaceBalance)
	})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.service.GetStatus(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to read status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: string(status)})
}

func (h *Handler) HandleStartBidding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	receipt, err := h.service.StartBidding(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to start bidding", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReceiptResponse{Sequence: receipt.Sequence})
}

func (h *Handler) HandleStopBidding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	receipt, err := h.service.StopBidding(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to stop bidding", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReceiptResponse{Sequence: receipt.Sequence})
}

func (h *Handler) HandleListCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.service.ListCatalogItemsAndPrices(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list catalog", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCatalogResponse(entries))
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var (
		receipt models.Receipt
		err     error
	)
	if req.Source == SourceCatalog {
		receipt, err = h.service.RegisterFromCatalog(ctx, req.Names, req.Quotas)
	} else {
		receipt, err = h.service.RegisterManual(ctx, req.Names, req.Quotas, req.Costs)
	}
	if err != nil {
		h.fail(ctx, w, "failed to register items", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReceiptResponse{Sequence: receipt.Sequence})
}

func (h *Handler) HandleListRegistry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.service.ListItemsAndRemainingQuota(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list registry", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistryResponse(items))
}

func (h *Handler) HandleListDonatable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	names, err := h.service.ListDonatableItems(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list donatable items", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, DonatableResponse{Items: names})
}

func (h *Handler) HandleGetRequiredItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := h.service.RequiredItem(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.fail(ctx, w, "failed to read required item", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequiredItemResponse(item))
}

func (h *Handler) HandleUpdateQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpdateQuotaRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	receipt, err := h.service.UpdateQuota(ctx, chi.URLParam(r, "name"), *req.Quota)
	if err != nil {
		h.fail(ctx, w, "failed to update quota", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReceiptResponse{Sequence: receipt.Sequence})
}

func (h *Handler) HandleUpdateCost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpdateCostRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	receipt, err := h.service.UpdateCost(ctx, chi.URLParam(r, "name"), *req.Cost)
	if err != nil {
		h.fail(ctx, w, "failed to update cost", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReceiptResponse{Sequence: receipt.Sequence})
}

func (h *Handler) HandleAcquireCredit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AcquireCreditRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.AcquireCredit(ctx, req.Deposit)
	if err != nil {
		h.fail(ctx, w, "failed to acquire credit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CreditResponse{
		Credit:   result.Credit,
		Deposit:  result.Deposit,
		Sequence: result.Sequence,
	})
}

func (h *Handler) HandleReturnCredit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ReturnCreditRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.ReturnCredit(ctx, req.Amount)
	if err != nil {
		h.fail(ctx, w, "failed to return credit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CreditResponse{
		Credit:   result.Credit,
		Deposit:  result.Deposit,
		Sequence: result.Sequence,
	})
}

func (h *Handler) HandleCheckCredit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	balance, err := h.service.CheckCredit(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to check credit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
}

func (h *Handler) HandleBid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BidRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.BidForItemWithQuantity(ctx, req.Item, req.ParsedQuantity())
	if err != nil {
		h.fail(ctx, w, "bid rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BidResponse{
		Item:      result.Item,
		Quantity:  result.Quantity,
		Cost:      result.Cost,
		Remaining: result.Remaining,
		Sequence:  result.Sequence,
	})
}

func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.SweepCreditToOperator(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to sweep credit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SweepResponse{Amount: result.Amount, Sequence: result.Sequence})
}

func (h *Handler) HandleMarketplaceBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	balance, err := h.service.MarketplaceBalance(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to read marketplace balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
}
