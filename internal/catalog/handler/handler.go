// Package handler exposes catalog administration over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"charitydrive/internal/catalog/models"
	id "charitydrive/pkg/domain"
	"charitydrive/pkg/platform/httputil"
	request "charitydrive/pkg/platform/middleware/request"
)

// Service is the catalog surface the handler depends on.
type Service interface {
	AddCategory(ctx context.Context, name string) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	AddItem(ctx context.Context, name string, price int64, category string) (*models.Item, error)
	UpdateItem(ctx context.Context, name string, update models.ItemUpdate) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	Ownership(ctx context.Context) (models.Ownership, error)
	TransferOwnership(ctx context.Context, newOwner id.AccountID) (models.Ownership, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the catalog routes. Authentication and the admin token
// guard are applied by the caller's router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/catalog/categories", h.HandleAddCategory)
	r.Get("/catalog/categories", h.HandleListCategories)
	r.Post("/catalog/items", h.HandleAddItem)
	r.Get("/catalog/items", h.HandleListItems)
	r.Patch("/catalog/items/{name}", h.HandleUpdateItem)
	r.Get("/catalog/ownership", h.HandleGetOwnership)
	r.Post("/catalog/ownership", h.HandleTransferOwnership)
}

func (h *Handler) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddCategoryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.AddCategory(ctx, req.Name); err != nil {
		h.logger.ErrorContext(ctx, "failed to add category", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := h.service.ListCategories(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories", "request_id", request.GetRequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	resp := CategoryListResponse{Categories: make([]string, len(categories))}
	for i, c := range categories {
		resp.Categories[i] = c.Name
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddItemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	item, err := h.service.AddItem(ctx, req.Name, req.Price, req.Category)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to add item", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpdateItemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	item, err := h.service.UpdateItem(ctx, chi.URLParam(r, "name"), req.ParsedUpdate())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update item", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.service.ListItems(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list items", "request_id", request.GetRequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	resp := ItemListResponse{Items: make([]ItemResponse, len(items))}
	for i := range items {
		resp.Items[i] = toItemResponse(&items[i])
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	own, err := h.service.Ownership(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load ownership", "request_id", request.GetRequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOwnershipResponse(own))
}

func (h *Handler) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TransferOwnershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	own, err := h.service.TransferOwnership(ctx, req.ParsedNewOwner())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to transfer ownership", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOwnershipResponse(own))
}
