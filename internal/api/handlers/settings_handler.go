package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/models"
	"github.com/Cheertaboi/storefront-service/internal/service"
)

type SettingsHandler struct {
	service *service.SettingsService
}

func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

type deliveryChargeBody struct {
	DeliveryCharge *decimal.Decimal `json:"delivery_charge"`
}

// GetDeliveryCharge handles GET /settings/delivery-charge
func (h *SettingsHandler) GetDeliveryCharge(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.DeliveryCharge(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deliveryChargeBody{DeliveryCharge: &v})
}

// SetDeliveryCharge handles PUT /settings/delivery-charge
func (h *SettingsHandler) SetDeliveryCharge(w http.ResponseWriter, r *http.Request) {
	var body deliveryChargeBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.DeliveryCharge == nil {
		writeError(w, r, models.InvalidInput("delivery_charge is required"))
		return
	}
	if err := h.service.SetDeliveryCharge(r.Context(), *body.DeliveryCharge); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
