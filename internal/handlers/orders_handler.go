package handlers

import (
	"net/http"

	"cold-backend/internal/middleware"
	"cold-backend/internal/models"
	"cold-backend/internal/orders"
	"cold-backend/internal/repositories"
	"cold-backend/pkg/utils"
)

type OrdersHandler struct {
	Machine *orders.Machine
	Orders  *repositories.OrderRepository
}

func NewOrdersHandler(m *orders.Machine, o *repositories.OrderRepository) *OrdersHandler {
	return &OrdersHandler{Machine: m, Orders: o}
}

// ByStatus lists orders filtered by an optional ?status= query parameter.
func (h *OrdersHandler) ByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	list, err := h.Orders.List(r.Context(), status)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// ReadyToPack lists every order ready to pack in its current shipment batch.
func (h *OrdersHandler) ReadyToPack(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.List(r.Context(), models.OrderStatusReadyToPack)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// Packed lists every fully packed order.
func (h *OrdersHandler) Packed(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.List(r.Context(), models.OrderStatusPacked)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// Get returns a single order by id.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	o, err := h.Orders.GetByID(r.Context(), h.Orders.DB, id)
	if err != nil {
		utils.WriteError(w, utils.NewError(utils.NotFound, "order not found"))
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

// MarkPacked advances the order past its current shipment batch, or to packed if it was
// the last one. Available to any authenticated staff member.
func (h *OrdersHandler) MarkPacked(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	user, _ := middleware.GetUsernameFromContext(r.Context())
	o, err := h.Machine.MarkPacked(r.Context(), id, user)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

// RevertToPicking is an admin-only reversal out of ready_to_pack.
func (h *OrdersHandler) RevertToPicking(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	o, err := h.Machine.RevertToPicking(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

// ChangeState is an admin-only transition out of packed back to an earlier state.
func (h *OrdersHandler) ChangeState(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req models.ChangeStateRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	o, err := h.Machine.ChangeState(r.Context(), id, req.State)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

// UpdateMessage sets the customer-facing message on an order.
func (h *OrdersHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req models.UpdateMessageRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Orders.UpdateMessage(r.Context(), h.Orders.DB, id, req.Message); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Split partitions an order's current-shipment lines across shipment batches.
func (h *OrdersHandler) Split(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req models.SplitRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	o, err := h.Machine.Split(r.Context(), id, req.Assignments)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

// Unsplit collapses every shipment batch back onto a single one.
func (h *OrdersHandler) Unsplit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	o, err := h.Machine.Unsplit(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, o)
}
