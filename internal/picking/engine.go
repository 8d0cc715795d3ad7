// Package picking implements the FIFO pick-allocation engine (C4): PickList, Pick,
// MarkShort, and RevertPickedItem. This is the hardest subsystem — the row-locking
// order (order.created_at, order.id) fixed here is what prevents deadlock between two
// pickers racing on different SKUs that share an order.
package picking

import (
	"context"

	"cold-backend/internal/metrics"
	"cold-backend/internal/models"
	"cold-backend/internal/orders"
	"cold-backend/internal/repositories"
	"cold-backend/internal/stock"
	"cold-backend/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Engine struct {
	DB         *pgxpool.Pool
	Products   *repositories.ProductRepository
	Orders     *repositories.OrderRepository
	OrderLines *repositories.OrderLineRepository
	PickEvents *repositories.PickEventRepository
	Machine    *orders.Machine
	Exceptions *stock.Exceptions
}

func NewEngine(
	pool *pgxpool.Pool,
	products *repositories.ProductRepository,
	orderRepo *repositories.OrderRepository,
	lines *repositories.OrderLineRepository,
	pickEvents *repositories.PickEventRepository,
	machine *orders.Machine,
	exceptions *stock.Exceptions,
) *Engine {
	return &Engine{
		DB: pool, Products: products, Orders: orderRepo, OrderLines: lines,
		PickEvents: pickEvents, Machine: machine, Exceptions: exceptions,
	}
}

// PickRow is one aggregated row of the SKU-oriented pick list.
type PickRow struct {
	SKU         string `json:"sku"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Needed      int    `json:"needed"`
	Picked      int    `json:"picked"`
	Short       int    `json:"short"`
	Remaining   int    `json:"remaining"`
}

// PickList aggregates outstanding demand per SKU per spec.md §4.1. Read-committed; may
// observe momentarily inconsistent aggregates under concurrent picks, by design —
// callers re-fetch after mutations.
func (e *Engine) PickList(ctx context.Context) ([]*PickRow, error) {
	lines, err := e.OrderLines.PickList(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*PickRow, 0, len(lines))
	for _, l := range lines {
		out = append(out, &PickRow{
			SKU: l.SKU, Title: l.Title, Category: l.Category,
			Needed: l.QtyOrdered, Picked: l.QtyPicked, Short: l.QtyShort,
			Remaining: l.QtyOrdered - l.QtyPicked - l.QtyShort,
		})
	}
	return out, nil
}

// OrdersForSKU drives the GET /picklist/{sku}/orders drill-down.
func (e *Engine) OrdersForSKU(ctx context.Context, sku string) ([]*models.OrderLine, error) {
	return e.OrderLines.OrdersForSKU(ctx, sku)
}

// PickedItems drives the GET /picked-items revert surface: order-line-level rows
// carrying an id, unlike PickList's SKU aggregate.
func (e *Engine) PickedItems(ctx context.Context) ([]*models.OrderLine, error) {
	return e.OrderLines.PickedItems(ctx)
}

// PickResult reports per-line allocation made by one Pick call.
type PickResult struct {
	Allocations []LineAllocation `json:"allocations"`
}

type LineAllocation struct {
	OrderLineID int `json:"order_line_id"`
	OrderID     int `json:"order_id"`
	Applied     int `json:"applied"`
}

// Pick distributes qty units picked for sku across order-lines in strict FIFO order,
// per spec.md §4.3. The whole walk runs inside one serializable transaction holding
// row locks acquired in FIFO order.
func (e *Engine) Pick(ctx context.Context, sku string, qty int, user string) (*PickResult, error) {
	if qty <= 0 {
		return nil, utils.NewError(utils.Validation, "qty must be positive")
	}

	tx, err := e.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := e.OrderLines.LockForPick(ctx, tx, sku)
	if err != nil {
		return nil, err
	}

	totalRemaining := 0
	for _, r := range rows {
		totalRemaining += r.Line.QtyRemaining()
	}
	if totalRemaining < qty {
		return nil, utils.NewError(utils.InsufficientRemaining, "pick quantity exceeds remaining demand for this sku")
	}

	remaining := qty
	touchedOrders := map[int]bool{}
	result := &PickResult{}

	for _, r := range rows {
		if remaining == 0 {
			break
		}
		take := r.Line.QtyRemaining()
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}

		newPicked := r.Line.QtyPicked + take
		if err := e.OrderLines.UpdateCounts(ctx, tx, r.Line.ID, newPicked, r.Line.QtyShort); err != nil {
			return nil, err
		}
		if err := e.PickEvents.Create(ctx, tx, &models.PickEvent{
			OrderLineID: r.Line.ID, Kind: models.PickEventKindPick, DeltaQty: take, User: user,
		}); err != nil {
			return nil, err
		}

		result.Allocations = append(result.Allocations, LineAllocation{
			OrderLineID: r.Line.ID, OrderID: r.Line.OrderID, Applied: take,
		})
		touchedOrders[r.Line.OrderID] = true
		remaining -= take
	}

	for orderID := range touchedOrders {
		if _, err := e.Machine.DeriveAndPersist(ctx, tx, orderID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	metrics.PicksTotal.WithLabelValues(sku).Add(float64(qty))
	return result, nil
}

// ShortAllocation is one operator-supplied (order, qty_short) pair for MarkShort.
type ShortAllocation struct {
	OrderID  int `json:"order_id"`
	QtyShort int `json:"qty_short"`
}

type ShortResult struct {
	Exception *models.StockException `json:"exception"`
}

// MarkShort applies an explicit operator allocation of shortage across specific order
// lines of a SKU, per spec.md §4.3. One StockException row is recorded per call,
// carrying every affected order's number.
func (e *Engine) MarkShort(ctx context.Context, sku string, allocations []ShortAllocation, user string) (*ShortResult, error) {
	if len(allocations) == 0 {
		return nil, utils.NewError(utils.Validation, "at least one allocation is required")
	}

	tx, err := e.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := e.OrderLines.LockForPick(ctx, tx, sku)
	if err != nil {
		return nil, err
	}
	byOrder := map[int]*repositories.PickLockRow{}
	for _, r := range rows {
		byOrder[r.Line.OrderID] = r
	}

	var orderNumbers []string
	totalShort := 0
	var productTitle, category string
	touchedOrders := map[int]bool{}

	for _, a := range allocations {
		if a.QtyShort <= 0 {
			return nil, utils.NewError(utils.Validation, "qty_short must be positive")
		}
		row, ok := byOrder[a.OrderID]
		if !ok {
			return nil, utils.NewError(utils.NotFound, "order has no outstanding line for this sku")
		}
		if a.QtyShort > row.Line.QtyRemaining() {
			return nil, utils.NewError(utils.Validation, "qty_short exceeds remaining demand on this line")
		}

		newShort := row.Line.QtyShort + a.QtyShort
		if err := e.OrderLines.UpdateCounts(ctx, tx, row.Line.ID, row.Line.QtyPicked, newShort); err != nil {
			return nil, err
		}
		if err := e.PickEvents.Create(ctx, tx, &models.PickEvent{
			OrderLineID: row.Line.ID, Kind: models.PickEventKindShort, DeltaQty: a.QtyShort, User: user,
		}); err != nil {
			return nil, err
		}

		o, err := e.Orders.GetByID(ctx, tx, a.OrderID)
		if err != nil {
			return nil, err
		}
		orderNumbers = append(orderNumbers, o.Number)
		totalShort += a.QtyShort
		touchedOrders[a.OrderID] = true
	}

	if p, err := e.Products.GetBySKU(ctx, sku); err == nil {
		productTitle, category = p.Title, p.Category
	}

	exc, err := e.Exceptions.RecordShortage(ctx, tx, sku, productTitle, category, totalShort, orderNumbers, user)
	if err != nil {
		return nil, err
	}

	for orderID := range touchedOrders {
		if _, err := e.Machine.DeriveAndPersist(ctx, tx, orderID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ShortResult{Exception: exc}, nil
}

type RevertResult struct {
	OrderLineID int `json:"order_line_id"`
	Reverted    int `json:"reverted"`
}

// RevertPickedItem is an operator-initiated undo of previously picked quantity on one
// line. If qty is nil, the full qty_picked is reverted.
func (e *Engine) RevertPickedItem(ctx context.Context, orderLineID int, qty *int, user string) (*RevertResult, error) {
	tx, err := e.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	line, err := e.OrderLines.GetForUpdate(ctx, tx, orderLineID)
	if err != nil {
		return nil, err
	}

	revert := line.QtyPicked
	if qty != nil {
		revert = *qty
	}
	if revert <= 0 || revert > line.QtyPicked {
		return nil, utils.NewError(utils.Validation, "revert quantity must be between 1 and the line's qty_picked")
	}

	if err := e.OrderLines.UpdateCounts(ctx, tx, line.ID, line.QtyPicked-revert, line.QtyShort); err != nil {
		return nil, err
	}
	if err := e.PickEvents.Create(ctx, tx, &models.PickEvent{
		OrderLineID: line.ID, Kind: models.PickEventKindRevert, DeltaQty: -revert, User: user,
	}); err != nil {
		return nil, err
	}

	if _, err := e.Machine.DeriveAndPersist(ctx, tx, line.OrderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &RevertResult{OrderLineID: line.ID, Reverted: revert}, nil
}
