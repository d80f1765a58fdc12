package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/muebleria/api/internal/domain"
	"github.com/muebleria/api/internal/platform/auth"
	"github.com/muebleria/api/internal/platform/httpx"
	"github.com/muebleria/api/internal/services"
)

const maxCatalogBodySize = 16 * 1024

type itemRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	BasePrice int64  `json:"basePrice"`
	Stock     int    `json:"stock"`
	Size      string `json:"size"`
	Material  string `json:"material"`
}

type variantRequest struct {
	Name      string `json:"name"`
	CostValue int64  `json:"costValue"`
	Kind      string `json:"kind"`
}

// CatalogHandlers exposes the furniture item and variant endpoints. Reads are
// public; mutations require the admin role.
type CatalogHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(authn *auth.Authenticator, catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{
		authn:   authn,
		catalog: catalog,
	}
}

// ItemRoutes registers the /items endpoints.
func (h *CatalogHandlers) ItemRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listItems)
	r.Get("/{itemID}", h.getItem)

	r.Group(func(admin chi.Router) {
		if h.authn != nil {
			admin.Use(h.authn.RequireAuth(auth.RoleAdmin))
		}
		admin.Post("/", h.createItem)
		admin.Put("/{itemID}", h.updateItem)
		admin.Delete("/{itemID}", h.deactivateItem)
	})
}

// VariantRoutes registers the /variants endpoints.
func (h *CatalogHandlers) VariantRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listVariants)
	r.Get("/{variantID}", h.getVariant)

	r.Group(func(admin chi.Router) {
		if h.authn != nil {
			admin.Use(h.authn.RequireAuth(auth.RoleAdmin))
		}
		admin.Post("/", h.createVariant)
		admin.Put("/{variantID}", h.updateVariant)
		admin.Delete("/{variantID}", h.deactivateVariant)
	})
}

func (h *CatalogHandlers) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	query := r.URL.Query()
	filter := services.ItemSearchFilter{
		Name:            strings.TrimSpace(query.Get("name")),
		IncludeInactive: query.Get("includeInactive") == "true",
	}

	items, err := h.catalog.ListItems(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	payload := make([]itemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, buildItemPayload(item))
	}
	writeJSONResponse(w, http.StatusOK, itemListResponse{Items: payload})
}

func (h *CatalogHandlers) getItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	item, err := h.catalog.GetItem(ctx, chi.URLParam(r, "itemID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildItemPayload(item))
}

func (h *CatalogHandlers) createItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	cmd, ok := h.decodeItemCommand(w, r)
	if !ok {
		return
	}
	item, err := h.catalog.CreateItem(ctx, cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildItemPayload(item))
}

func (h *CatalogHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	cmd, ok := h.decodeItemCommand(w, r)
	if !ok {
		return
	}
	item, err := h.catalog.UpdateItem(ctx, chi.URLParam(r, "itemID"), cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildItemPayload(item))
}

func (h *CatalogHandlers) deactivateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	item, err := h.catalog.DeactivateItem(ctx, chi.URLParam(r, "itemID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildItemPayload(item))
}

func (h *CatalogHandlers) listVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	variants, err := h.catalog.ListVariants(ctx, r.URL.Query().Get("includeInactive") == "true")
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	payload := make([]variantPayload, 0, len(variants))
	for _, variant := range variants {
		payload = append(payload, buildVariantPayload(variant))
	}
	writeJSONResponse(w, http.StatusOK, variantListResponse{Items: payload})
}

func (h *CatalogHandlers) getVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	variant, err := h.catalog.GetVariant(ctx, chi.URLParam(r, "variantID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildVariantPayload(variant))
}

func (h *CatalogHandlers) createVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	cmd, ok := h.decodeVariantCommand(w, r)
	if !ok {
		return
	}
	variant, err := h.catalog.CreateVariant(ctx, cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildVariantPayload(variant))
}

func (h *CatalogHandlers) updateVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	cmd, ok := h.decodeVariantCommand(w, r)
	if !ok {
		return
	}
	variant, err := h.catalog.UpdateVariant(ctx, chi.URLParam(r, "variantID"), cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildVariantPayload(variant))
}

func (h *CatalogHandlers) deactivateVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}

	variant, err := h.catalog.DeactivateVariant(ctx, chi.URLParam(r, "variantID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildVariantPayload(variant))
}

func (h *CatalogHandlers) decodeItemCommand(w http.ResponseWriter, r *http.Request) (services.CreateItemCommand, bool) {
	ctx := r.Context()
	body, err := readLimitedBody(r, maxCatalogBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return services.CreateItemCommand{}, false
	}
	var req itemRequest
	if err := decodeStrict(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return services.CreateItemCommand{}, false
	}
	return services.CreateItemCommand{
		Name:      req.Name,
		Type:      req.Type,
		BasePrice: req.BasePrice,
		Stock:     req.Stock,
		Size:      domain.ItemSize(strings.ToUpper(strings.TrimSpace(req.Size))),
		Material:  req.Material,
	}, true
}

func (h *CatalogHandlers) decodeVariantCommand(w http.ResponseWriter, r *http.Request) (services.CreateVariantCommand, bool) {
	ctx := r.Context()
	body, err := readLimitedBody(r, maxCatalogBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return services.CreateVariantCommand{}, false
	}
	var req variantRequest
	if err := decodeStrict(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return services.CreateVariantCommand{}, false
	}
	return services.CreateVariantCommand{
		Name:      req.Name,
		CostValue: req.CostValue,
		Kind:      domain.ApplicationKind(strings.ToUpper(strings.TrimSpace(req.Kind))),
	}, true
}

func writeCatalogUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("item_not_found", "item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrVariantNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("variant_not_found", "variant not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
