package models

import "time"

const (
	SyncStatusInProgress = "in_progress"
	SyncStatusSuccess    = "success"
	SyncStatusError      = "error"
)

// SyncWarning records a single per-item problem absorbed during a sync instead of
// aborting it (a malformed product, or a line whose local progress outran the
// upstream qty_ordered).
type SyncWarning struct {
	Kind    string `json:"kind"`
	SKU     string `json:"sku,omitempty"`
	OrderID string `json:"order_external_id,omitempty"`
	Message string `json:"message"`
}

type SyncLog struct {
	ID              int           `json:"id"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	Status          string        `json:"status"`
	OrdersFetched   int           `json:"orders_fetched"`
	OrdersCreated   int           `json:"orders_created"`
	OrdersUpdated   int           `json:"orders_updated"`
	OrdersAutoPacked int          `json:"orders_auto_packed"`
	ProductsCreated int           `json:"products_created"`
	ProductsUpdated int           `json:"products_updated"`
	ItemsCreated    int           `json:"items_created"`
	ItemsUpdated    int           `json:"items_updated"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	DetailedErrors  []SyncWarning `json:"detailed_errors,omitempty"`
}

// SyncResult is the return value of importer.Service.Sync.
type SyncResult struct {
	Log *SyncLog
}
