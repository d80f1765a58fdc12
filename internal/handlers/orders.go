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

const maxOrderBodySize = 32 * 1024

type lineItemRequest struct {
	ItemID     string   `json:"itemId"`
	Quantity   int      `json:"quantity"`
	VariantIDs []string `json:"variantIds"`
}

type createOrderRequest struct {
	LineItems []lineItemRequest `json:"lineItems"`
}

type updateLineItemRequest struct {
	Quantity   int      `json:"quantity"`
	VariantIDs []string `json:"variantIds"`
}

// OrderHandlers exposes the order lifecycle endpoints for authenticated users.
// Regular users only ever see their own orders; admins see everything.
type OrderHandlers struct {
	authn  *auth.Authenticator
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{
		authn:  authn,
		orders: orders,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/state/{state}", h.listOrdersByState)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}/line-items", h.addLineItem)
	r.Put("/{orderID}/line-items/{lineItemID}", h.updateLineItem)
	r.Delete("/{orderID}/line-items/{lineItemID}", h.removeLineItem)
	r.Post("/{orderID}:confirm", h.confirmOrder)
	r.Post("/{orderID}:cancel", h.cancelOrder)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req createOrderRequest
	if r.ContentLength != 0 {
		body, err := readLimitedBody(r, maxOrderBodySize)
		if err != nil && !errors.Is(err, errEmptyBody) {
			writeBodyError(ctx, w, err)
			return
		}
		if err == nil {
			if err := decodeStrict(body, &req); err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
				return
			}
		}
	}

	cmd := services.CreateOrderCommand{UserID: identity.UID}
	for _, li := range req.LineItems {
		cmd.LineItems = append(cmd.LineItems, services.LineItemRequest{
			ItemID:     li.ItemID,
			Quantity:   li.Quantity,
			VariantIDs: li.VariantIDs,
		})
	}

	order, err := h.orders.CreateOrder(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, strings.TrimSpace(r.URL.Query().Get("state")))
}

func (h *OrderHandlers) listOrdersByState(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, strings.TrimSpace(chi.URLParam(r, "state")))
}

func (h *OrderHandlers) list(w http.ResponseWriter, r *http.Request, rawState string) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	filter := services.OrderListFilter{UserID: identity.UID}
	if identity.HasRole(auth.RoleAdmin) {
		filter.UserID = strings.TrimSpace(r.URL.Query().Get("userId"))
	}
	if rawState != "" {
		state := domain.OrderState(strings.ToUpper(rawState))
		if !domain.ValidOrderState(state) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown order state", http.StatusBadRequest))
			return
		}
		filter.State = &state
	}

	orders, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	items := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		items = append(items, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{Items: items})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	order, ok := h.loadOwned(ctx, w, identity, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) addLineItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}
	order, ok := h.loadOwned(ctx, w, identity, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req lineItemRequest
	if err := decodeStrict(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	updated, err := h.orders.AddLineItem(ctx, order.ID, services.LineItemRequest{
		ItemID:     req.ItemID,
		Quantity:   req.Quantity,
		VariantIDs: req.VariantIDs,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(updated))
}

func (h *OrderHandlers) updateLineItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}
	order, ok := h.loadOwned(ctx, w, identity, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req updateLineItemRequest
	if err := decodeStrict(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	updated, err := h.orders.UpdateLineItem(ctx, services.UpdateLineItemCommand{
		OrderID:    order.ID,
		LineItemID: chi.URLParam(r, "lineItemID"),
		Quantity:   req.Quantity,
		VariantIDs: req.VariantIDs,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(updated))
}

func (h *OrderHandlers) removeLineItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}
	order, ok := h.loadOwned(ctx, w, identity, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	updated, err := h.orders.RemoveLineItem(ctx, order.ID, chi.URLParam(r, "lineItemID"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(updated))
}

func (h *OrderHandlers) confirmOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}
	order, ok := h.loadOwned(ctx, w, identity, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	confirmed, err := h.orders.ConfirmOrder(ctx, order.ID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(confirmed))
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}
	order, ok := h.loadOwned(ctx, w, identity, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	cancelled, err := h.orders.CancelOrder(ctx, order.ID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(cancelled))
}

func (h *OrderHandlers) requireIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

// loadOwned fetches the order and hides other users' orders behind a 404.
func (h *OrderHandlers) loadOwned(ctx context.Context, w http.ResponseWriter, identity *auth.Identity, orderID string) (domain.Order, bool) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return domain.Order{}, false
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return domain.Order{}, false
	}
	if order.UserID != identity.UID && !identity.HasRole(auth.RoleAdmin) {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return domain.Order{}, false
	}
	return order, true
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	var stockErr *services.InsufficientStockError
	if errors.As(err, &stockErr) {
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", "not enough stock available", http.StatusConflict).
			WithDetails(map[string]any{
				"itemId":    stockErr.ItemID,
				"physical":  stockErr.Physical,
				"reserved":  stockErr.Reserved,
				"requested": stockErr.Requested,
			}))
		return
	}

	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrLineItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("line_item_not_found", "line item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("item_not_found", "item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrVariantNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("variant_not_found", "variant not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_order_state", "operation not allowed in the order's current state", http.StatusConflict))
	case errors.Is(err, services.ErrInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", "not enough stock available", http.StatusConflict))
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
