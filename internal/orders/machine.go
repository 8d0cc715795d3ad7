// Package orders implements the order state machine (C5): the pure derivation
// function that is the sole writer of Order.status/Order.ready_to_pack outside
// explicit operator transitions, plus the explicit transitions themselves.
package orders

import (
	"context"
	"time"

	"cold-backend/internal/db"
	"cold-backend/internal/models"
	"cold-backend/internal/repositories"
	"cold-backend/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Machine struct {
	DB         *pgxpool.Pool
	Orders     *repositories.OrderRepository
	OrderLines *repositories.OrderLineRepository
}

func NewMachine(pool *pgxpool.Pool, orders *repositories.OrderRepository, lines *repositories.OrderLineRepository) *Machine {
	return &Machine{DB: pool, Orders: orders, OrderLines: lines}
}

// Derive is the pure function of spec.md §4.5: given an order and the lines of its
// current shipment batch, it computes the new status/ready_to_pack. It has no side
// effects; callers persist the result.
func Derive(o *models.Order, linesInCurrent []*models.OrderLine) {
	allDone := true
	anyProgress := false
	for _, l := range linesInCurrent {
		if !l.Done() {
			allDone = false
		}
		if l.QtyPicked > 0 || l.QtyShort > 0 {
			anyProgress = true
		}
	}

	if allDone {
		o.ReadyToPack = true
		o.Status = models.OrderStatusReadyToPack
		return
	}

	o.ReadyToPack = false
	if anyProgress {
		o.Status = models.OrderStatusPicking
	} else {
		o.Status = models.OrderStatusOpen
	}
}

// DeriveAndPersist re-reads an order's current-shipment lines, derives, and writes the
// result, inside the caller's transaction. Invoked transitively from C3 and C4 after
// any line mutation.
func (m *Machine) DeriveAndPersist(ctx context.Context, ex db.Executor, orderID int) (*models.Order, error) {
	o, err := m.Orders.GetForUpdate(ctx, ex, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == models.OrderStatusPacked || o.Status == models.OrderStatusCancelled {
		return o, nil
	}

	lines, err := m.OrderLines.LockByOrder(ctx, ex, orderID)
	if err != nil {
		return nil, err
	}

	var current []*models.OrderLine
	for _, l := range lines {
		if l.ShipmentBatch == o.CurrentShipment {
			current = append(current, l)
		}
	}

	Derive(o, current)
	if err := m.Orders.UpdateDerived(ctx, ex, o); err != nil {
		return nil, err
	}
	return o, nil
}

// AdvanceBatch is the pure decision behind MarkPacked's non-terminal branch: moving to
// the next shipment batch always lands back in picking, per spec.md §4.5, regardless of
// whether the new batch's lines already carry progress. Unlike Derive, this never
// touches line data — a freshly split batch commits to shipping, so it can't be reread
// as "open" just because nothing has been picked against it yet.
func AdvanceBatch(o *models.Order) {
	o.CurrentShipment++
	o.ReadyToPack = false
	o.Status = models.OrderStatusPicking
}

// MarkPacked is the explicit transition at the top of the derivation ladder. It
// requires ready_to_pack=true (set by the most recent derivation); if the order still
// has shipment batches left, it advances to the next batch instead of terminating.
func (m *Machine) MarkPacked(ctx context.Context, orderID int, actor string) (*models.Order, error) {
	tx, err := m.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := m.Orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == models.OrderStatusPacked || o.Status == models.OrderStatusCancelled {
		return nil, utils.NewError(utils.InvalidTransition, "order is already terminal")
	}
	if !o.ReadyToPack {
		return nil, utils.NewError(utils.InvalidTransition, "order is not ready to pack")
	}

	if o.CurrentShipment < o.TotalShipments {
		AdvanceBatch(o)
		if err := m.Orders.UpdateDerived(ctx, tx, o); err != nil {
			return nil, err
		}
	} else {
		now := time.Now().UTC()
		o.Status = models.OrderStatusPacked
		o.PackedAt = &now
		o.PackedBy = actor
		if err := m.Orders.UpdateDerived(ctx, tx, o); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// RevertToPicking is an admin-only reversal. Per spec.md §9's resolution of the source's
// ambiguity, it preserves qty_picked/qty_short and only flips the readiness flag.
func (m *Machine) RevertToPicking(ctx context.Context, orderID int) (*models.Order, error) {
	tx, err := m.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := m.Orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.OrderStatusReadyToPack {
		return nil, utils.NewError(utils.InvalidTransition, "order is not ready_to_pack")
	}
	o.ReadyToPack = false
	o.Status = models.OrderStatusPicking
	if err := m.Orders.UpdateDerived(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// ChangeState is the admin-only ChangeState(open|picking|ready_to_pack) transition from
// packed, clearing packed_at/packed_by and resetting current_shipment to 1 when moving
// away from packed entirely.
func (m *Machine) ChangeState(ctx context.Context, orderID int, newState string) (*models.Order, error) {
	switch newState {
	case models.OrderStatusOpen, models.OrderStatusPicking, models.OrderStatusReadyToPack:
	default:
		return nil, utils.NewError(utils.Validation, "unsupported target state")
	}

	tx, err := m.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := m.Orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.OrderStatusPacked {
		return nil, utils.NewError(utils.InvalidTransition, "order is not packed")
	}

	o.Status = newState
	o.ReadyToPack = newState == models.OrderStatusReadyToPack
	o.PackedAt = nil
	o.PackedBy = ""
	if newState != models.OrderStatusReadyToPack {
		o.CurrentShipment = 1
	}
	if err := m.Orders.UpdateDerived(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// Split partitions an order's current-shipment lines into shipment batches. batches
// must be a contiguous prefix starting at 1 and every batch must carry at least one
// line.
func (m *Machine) Split(ctx context.Context, orderID int, assignments map[int]int) (*models.Order, error) {
	tx, err := m.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := m.Orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == models.OrderStatusPacked {
		return nil, utils.NewError(utils.InvalidTransition, "cannot split a packed order")
	}

	lines, err := m.OrderLines.LockByOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	maxBatch := 0
	seen := map[int]bool{}
	for _, l := range lines {
		if l.ShipmentBatch != o.CurrentShipment {
			continue
		}
		batch, ok := assignments[l.ID]
		if !ok {
			return nil, utils.NewError(utils.Validation, "every current-shipment line must have a batch assignment")
		}
		if batch < 1 || batch > 5 {
			return nil, utils.NewError(utils.Validation, "batch must be between 1 and 5")
		}
		seen[batch] = true
		if batch > maxBatch {
			maxBatch = batch
		}
	}
	for b := 1; b <= maxBatch; b++ {
		if !seen[b] {
			return nil, utils.NewError(utils.Validation, "batches used must be a contiguous prefix starting at 1")
		}
	}

	for _, l := range lines {
		if l.ShipmentBatch != o.CurrentShipment {
			continue
		}
		if err := m.OrderLines.UpdateBatch(ctx, tx, l.ID, assignments[l.ID]); err != nil {
			return nil, err
		}
	}

	o.TotalShipments = maxBatch
	o.CurrentShipment = 1
	if err := m.Orders.UpdateShipments(ctx, tx, o); err != nil {
		return nil, err
	}

	o, err = m.DeriveAndPersist(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// Unsplit collapses every line back onto a single shipment batch.
func (m *Machine) Unsplit(ctx context.Context, orderID int) (*models.Order, error) {
	tx, err := m.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := m.Orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == models.OrderStatusPacked {
		return nil, utils.NewError(utils.InvalidTransition, "cannot unsplit a packed order")
	}

	lines, err := m.OrderLines.LockByOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if l.ShipmentBatch != 1 {
			if err := m.OrderLines.UpdateBatch(ctx, tx, l.ID, 1); err != nil {
				return nil, err
			}
		}
	}

	o.TotalShipments = 1
	o.CurrentShipment = 1
	if err := m.Orders.UpdateShipments(ctx, tx, o); err != nil {
		return nil, err
	}

	o, err = m.DeriveAndPersist(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}
