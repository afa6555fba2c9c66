package handler

import (
	"net/http"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/service"
)

// AdminHandler serves settings, fulfillment, and analytics endpoints.
// All routes behind it require the admin role.
type AdminHandler struct {
	settings  domain.SettingsService
	orders    *service.OrderService
	analytics *service.AnalyticsService
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(settings domain.SettingsService, orders *service.OrderService, analytics *service.AnalyticsService) *AdminHandler {
	return &AdminHandler{settings: settings, orders: orders, analytics: analytics}
}

// ListSettings handles GET /api/admin/settings.
func (h *AdminHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		RespondError(w, r, err)
		return
	}

	out := make(map[string]float64, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	RespondJSON(w, http.StatusOK, map[string]any{"settings": out})
}

type upsertSettingRequest struct {
	Key   string  `json:"key" validate:"required"`
	Value float64 `json:"value"`
}

// UpsertSetting handles PUT /api/admin/settings.
func (h *AdminHandler) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	var req upsertSettingRequest
	if err := DecodeValid(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	if err := h.settings.Upsert(r.Context(), req.Key, req.Value); err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"key": req.Key, "value": req.Value})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

// UpdateOrderStatus handles PATCH /api/admin/orders/{id}/status.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := DecodeValid(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	status := domain.OrderStatus(req.Status)
	if !status.Valid() {
		RespondError(w, r, domain.Invalid("handler.admin.update_status", "unknown order status"))
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, status, req.Note)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"order": toOrderResponse(order)})
}

// InventoryReport handles GET /api/admin/inventory/report.
func (h *AdminHandler) InventoryReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Report(r.Context())
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, report)
}
