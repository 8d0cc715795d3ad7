package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"cold-backend/internal/cache"
	"cold-backend/internal/models"
	"cold-backend/internal/notifier"
	"cold-backend/internal/stock"
	"cold-backend/pkg/utils"
)

type StockExceptionHandler struct {
	Exceptions *stock.Exceptions
	Notifier   *notifier.Notifier
}

func NewStockExceptionHandler(e *stock.Exceptions, n *notifier.Notifier) *StockExceptionHandler {
	return &StockExceptionHandler{Exceptions: e, Notifier: n}
}

func parseStockFilter(r *http.Request) models.StockExceptionFilter {
	q := r.URL.Query()
	var f models.StockExceptionFilter
	if v := q.Get("resolved"); v != "" {
		b := v == "true"
		f.Resolved = &b
	}
	f.Search = q.Get("search")
	f.SortBy = q.Get("sort_by")
	f.SortDesc = q.Get("sort_desc") == "true"
	return f
}

// List serves the filterable/sortable stock-exception ledger.
func (h *StockExceptionHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Exceptions.List(r.Context(), parseStockFilter(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// Export renders the currently filtered ledger as a CSV download.
func (h *StockExceptionHandler) Export(w http.ResponseWriter, r *http.Request) {
	list, err := h.Exceptions.List(r.Context(), parseStockFilter(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{"#", "SKU", "Product", "Category", "Qty Short", "Orders", "Reported By",
		"Timestamp", "Resolved", "Ordered From Company", "N/A Cancel", "Notes"})
	for i, e := range list {
		cw.Write([]string{
			fmt.Sprintf("%d", i+1),
			e.SKU,
			e.ProductTitle,
			e.Category,
			fmt.Sprintf("%d", e.QtyShort),
			strings.Join(e.OrderNumbers, ", "),
			e.ReportedBy,
			e.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%t", e.Resolved),
			fmt.Sprintf("%t", e.OrderedFromCompany),
			fmt.Sprintf("%t", e.NaCancel),
			e.Notes,
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=stock-exceptions.csv")
	w.Write(buf.Bytes())
}

// Send emails/texts the current out-of-stock digest to the configured recipients.
func (h *StockExceptionHandler) Send(w http.ResponseWriter, r *http.Request) {
	aggregated, err := h.Exceptions.Aggregate(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Notifier.SendOutOfStockDigest(r.Context(), aggregated); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// Resolve closes an exception, appending an optional note.
func (h *StockExceptionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	var req models.ResolveRequest
	if r.ContentLength > 0 {
		if err := utils.DecodeAndValidate(r, &req); err != nil {
			utils.WriteError(w, err)
			return
		}
	}
	e, err := h.Exceptions.Resolve(r.Context(), id, req.Notes)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateStockExceptionCaches(r.Context())
	utils.JSON(w, http.StatusOK, e)
}

// ToggleOrdered flips whether the shortage has been re-ordered from the supplier.
func (h *StockExceptionHandler) ToggleOrdered(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	e, err := h.Exceptions.ToggleOrderedFromCompany(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateStockExceptionCaches(r.Context())
	utils.JSON(w, http.StatusOK, e)
}

// ToggleNaCancel flips whether the shortage is marked not-applicable/cancelled.
func (h *StockExceptionHandler) ToggleNaCancel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	e, err := h.Exceptions.ToggleNaCancel(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateStockExceptionCaches(r.Context())
	utils.JSON(w, http.StatusOK, e)
}
