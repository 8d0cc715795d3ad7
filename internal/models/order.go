package models

import "time"

// Order status values. status='packed' iff current_shipment=total_shipments
// and every line of that batch satisfies picked+short=ordered.
const (
	OrderStatusOpen         = "open"
	OrderStatusPicking      = "picking"
	OrderStatusReadyToPack  = "ready_to_pack"
	OrderStatusPacked       = "packed"
	OrderStatusCancelled    = "cancelled"
)

// SystemActor is recorded as packed_by on auto-pack.
const SystemActor = "system"

type Order struct {
	ID              int       `json:"id"`
	ExternalID      string    `json:"external_id"`
	Number          string    `json:"number"`
	CustomerName    string    `json:"customer_name"`
	Status          string    `json:"status"`
	ReadyToPack     bool      `json:"ready_to_pack"`
	TotalShipments  int       `json:"total_shipments"`
	CurrentShipment int       `json:"current_shipment"`
	CustomerMessage string    `json:"customer_message,omitempty"`
	EmailSent       bool      `json:"email_sent"`
	PackedAt        *time.Time `json:"packed_at,omitempty"`
	PackedBy        string    `json:"packed_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Lines []*OrderLine `json:"lines,omitempty"`
}

// ChangeStateRequest drives the admin-only ChangeState transition out of packed.
type ChangeStateRequest struct {
	State string `validate:"required,oneof=open picking ready_to_pack" json:"state"`
}

// SplitRequest maps order-line id to its assigned shipment batch (1-5).
type SplitRequest struct {
	Assignments map[int]int `validate:"required" json:"assignments"`
}

// UpdateMessageRequest sets the customer-facing message on an order.
type UpdateMessageRequest struct {
	Message string `json:"message"`
}
