package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"cold-backend/internal/cache"
	"cold-backend/internal/middleware"
	"cold-backend/internal/models"
	"cold-backend/internal/picking"
	"cold-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type PickingHandler struct {
	Engine *picking.Engine
}

func NewPickingHandler(e *picking.Engine) *PickingHandler {
	return &PickingHandler{Engine: e}
}

// PickList serves the SKU-oriented aggregate pick list.
func (h *PickingHandler) PickList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Engine.PickList(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rows)
}

// OrdersForSKU drills a pick-list row down into its constituent order lines.
func (h *PickingHandler) OrdersForSKU(w http.ResponseWriter, r *http.Request) {
	sku := mux.Vars(r)["sku"]
	lines, err := h.Engine.OrdersForSKU(r.Context(), sku)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, lines)
}

// Pick applies a FIFO-allocated pick against a sku's outstanding demand.
func (h *PickingHandler) Pick(w http.ResponseWriter, r *http.Request) {
	var req models.PickRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	user, _ := middleware.GetUsernameFromContext(r.Context())
	result, err := h.Engine.Pick(r.Context(), req.SKU, req.Qty, user)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidatePickListCache(r.Context())
	utils.JSON(w, http.StatusOK, result)
}

// MarkShort records an explicit operator shortage allocation across one or more orders.
func (h *PickingHandler) MarkShort(w http.ResponseWriter, r *http.Request) {
	var req models.MarkShortRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	allocations := make([]picking.ShortAllocation, len(req.Allocations))
	for i, a := range req.Allocations {
		allocations[i] = picking.ShortAllocation{OrderID: a.OrderID, QtyShort: a.QtyShort}
	}

	user, _ := middleware.GetUsernameFromContext(r.Context())
	result, err := h.Engine.MarkShort(r.Context(), req.SKU, allocations, user)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidatePickListCache(r.Context())
	cache.InvalidateStockExceptionCaches(r.Context())
	utils.JSON(w, http.StatusOK, result)
}

// PickedItems lists order-line-level rows carrying pick progress, for the revert
// surface: each row's id is a valid POST /picked-items/{id}/revert target.
func (h *PickingHandler) PickedItems(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Engine.PickedItems(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, lines)
}

// RevertPickedItem undoes previously picked quantity on one order line.
func (h *PickingHandler) RevertPickedItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, utils.NewError(utils.Validation, "invalid id"))
		return
	}

	var req models.RevertPickRequest
	body, _ := io.ReadAll(r.Body)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			utils.WriteError(w, utils.NewError(utils.Validation, "malformed request body"))
			return
		}
	}

	user, _ := middleware.GetUsernameFromContext(r.Context())
	result, err := h.Engine.RevertPickedItem(r.Context(), lineID, req.Qty, user)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidatePickListCache(r.Context())
	utils.JSON(w, http.StatusOK, result)
}
