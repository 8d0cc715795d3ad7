package orders

import (
	"testing"

	"cold-backend/internal/models"
)

func TestDerive_AllLinesOutstanding(t *testing.T) {
	o := &models.Order{Status: models.OrderStatusOpen}
	lines := []*models.OrderLine{
		{QtyOrdered: 10, QtyPicked: 0, QtyShort: 0},
		{QtyOrdered: 5, QtyPicked: 0, QtyShort: 0},
	}

	Derive(o, lines)

	if o.Status != models.OrderStatusOpen {
		t.Errorf("status = %q, want %q", o.Status, models.OrderStatusOpen)
	}
	if o.ReadyToPack {
		t.Error("ready_to_pack = true, want false")
	}
}

func TestDerive_PartialProgressIsPicking(t *testing.T) {
	o := &models.Order{Status: models.OrderStatusOpen}
	lines := []*models.OrderLine{
		{QtyOrdered: 10, QtyPicked: 4, QtyShort: 0},
		{QtyOrdered: 5, QtyPicked: 0, QtyShort: 0},
	}

	Derive(o, lines)

	if o.Status != models.OrderStatusPicking {
		t.Errorf("status = %q, want %q", o.Status, models.OrderStatusPicking)
	}
	if o.ReadyToPack {
		t.Error("ready_to_pack = true, want false")
	}
}

func TestDerive_ShortCountsAsProgress(t *testing.T) {
	o := &models.Order{Status: models.OrderStatusOpen}
	lines := []*models.OrderLine{
		{QtyOrdered: 10, QtyPicked: 0, QtyShort: 3},
	}

	Derive(o, lines)

	if o.Status != models.OrderStatusPicking {
		t.Errorf("status = %q, want %q", o.Status, models.OrderStatusPicking)
	}
}

func TestDerive_AllLinesDoneIsReadyToPack(t *testing.T) {
	o := &models.Order{Status: models.OrderStatusPicking}
	lines := []*models.OrderLine{
		{QtyOrdered: 10, QtyPicked: 7, QtyShort: 3},
		{QtyOrdered: 5, QtyPicked: 5, QtyShort: 0},
	}

	Derive(o, lines)

	if o.Status != models.OrderStatusReadyToPack {
		t.Errorf("status = %q, want %q", o.Status, models.OrderStatusReadyToPack)
	}
	if !o.ReadyToPack {
		t.Error("ready_to_pack = false, want true")
	}
}

func TestDerive_NoLinesIsReadyToPack(t *testing.T) {
	o := &models.Order{Status: models.OrderStatusOpen}

	Derive(o, nil)

	if o.Status != models.OrderStatusReadyToPack {
		t.Errorf("status = %q, want %q for an order with no current-shipment lines", o.Status, models.OrderStatusReadyToPack)
	}
	if !o.ReadyToPack {
		t.Error("ready_to_pack = false, want true")
	}
}

// TestAdvanceBatch_LandsInPickingRegardlessOfNewBatchProgress covers scenario S4
// (split advances batch on pack): a MarkPacked call that moves an order from a
// finished batch to a fresh one must land in picking immediately, even though the new
// batch's lines start with zero progress and would derive to "open" on their own.
func TestAdvanceBatch_LandsInPickingRegardlessOfNewBatchProgress(t *testing.T) {
	o := &models.Order{
		Status:          models.OrderStatusReadyToPack,
		ReadyToPack:     true,
		CurrentShipment: 1,
		TotalShipments:  2,
	}

	AdvanceBatch(o)

	if o.CurrentShipment != 2 {
		t.Errorf("current_shipment = %d, want 2", o.CurrentShipment)
	}
	if o.ReadyToPack {
		t.Error("ready_to_pack = true, want false")
	}
	if o.Status != models.OrderStatusPicking {
		t.Errorf("status = %q, want %q", o.Status, models.OrderStatusPicking)
	}
}

func TestChangeState_RejectsUnsupportedTarget(t *testing.T) {
	m := &Machine{}
	if _, err := m.ChangeState(nil, 1, "packed"); err == nil {
		t.Fatal("expected an error for target state \"packed\"")
	}
	if _, err := m.ChangeState(nil, 1, "bogus"); err == nil {
		t.Fatal("expected an error for an unrecognized target state")
	}
}
