package models

import "time"

const (
	PickEventKindPick   = "pick"
	PickEventKindShort  = "short"
	PickEventKindRevert = "revert"
)

// PickEvent is an append-only audit row. Created by the picking engine, never mutated.
type PickEvent struct {
	ID          int       `json:"id"`
	OrderLineID int       `json:"order_line_id"`
	DeltaQty    int       `json:"delta_qty"`
	Kind        string    `json:"kind"`
	User        string    `json:"user"`
	Timestamp   time.Time `json:"timestamp"`
	Notes       string    `json:"notes,omitempty"`
}
