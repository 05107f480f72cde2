package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Cheertaboi/storefront-service/internal/models"
	"github.com/Cheertaboi/storefront-service/internal/service"
)

type OrderHandler struct {
	orders   *service.OrderService
	settings *service.SettingsService
}

func NewOrderHandler(orders *service.OrderService, settings *service.SettingsService) *OrderHandler {
	return &OrderHandler{orders: orders, settings: settings}
}

type updateStatusRequest struct {
	OrderStatus string `json:"order_status"`
}

// Create handles POST /order. The current delivery charge is read here and
// handed to the order service.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.OrderInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	charge, err := h.settings.DeliveryCharge(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Create(r.Context(), in, charge)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, models.InvalidInput(key + " must be a non-negative integer")
	}
	return n, nil
}

// List handles GET /order?status=&page=&limit=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var f models.OrderFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := models.ParseOrderStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Status = st
	}
	var err error
	if f.Page, err = queryInt(r, "page"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.orders.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /order/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// UpdateStatus handles PUT /order/update-status/{id}
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.OrderStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// Delete handles DELETE /order/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}
