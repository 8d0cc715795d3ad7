package repositories

import (
	"context"
	"errors"
	"time"

	"cold-backend/internal/db"
	"cold-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderLineRepository struct {
	DB *pgxpool.Pool
}

func NewOrderLineRepository(pool *pgxpool.Pool) *OrderLineRepository {
	return &OrderLineRepository{DB: pool}
}

// Upsert inserts or updates the (order, product) line. On create, counters start at
// zero and shipment_batch=1. On update, qty_ordered is clamped downward only if
// existing progress still fits; otherwise it is left unchanged and clamped=true is
// returned so the caller can record a sync warning.
func (r *OrderLineRepository) Upsert(ctx context.Context, ex db.Executor, orderID, productID, qtyOrdered int) (line *models.OrderLine, created bool, clamped bool, err error) {
	line = &models.OrderLine{OrderID: orderID, ProductID: productID}
	var existingID *int
	var existingOrdered, existingPicked, existingShort *int
	err = ex.QueryRow(ctx,
		`SELECT id, qty_ordered, qty_picked, qty_short FROM order_lines WHERE order_id=$1 AND product_id=$2`,
		orderID, productID,
	).Scan(&existingID, &existingOrdered, &existingPicked, &existingShort)

	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, false, err
	}

	if existingID == nil {
		err = ex.QueryRow(ctx,
			`INSERT INTO order_lines (order_id, product_id, qty_ordered, qty_picked, qty_short, shipment_batch)
			 VALUES ($1, $2, $3, 0, 0, 1) RETURNING id, qty_ordered, qty_picked, qty_short, shipment_batch`,
			orderID, productID, qtyOrdered,
		).Scan(&line.ID, &line.QtyOrdered, &line.QtyPicked, &line.QtyShort, &line.ShipmentBatch)
		return line, true, false, err
	}

	progress := *existingPicked + *existingShort
	newOrdered := qtyOrdered
	clamped = false
	if progress > qtyOrdered {
		// local progress has outrun the upstream value; leave qty_ordered unchanged
		newOrdered = *existingOrdered
		clamped = true
	}

	err = ex.QueryRow(ctx,
		`UPDATE order_lines SET qty_ordered=$1 WHERE id=$2
		 RETURNING id, qty_ordered, qty_picked, qty_short, shipment_batch`,
		newOrdered, *existingID,
	).Scan(&line.ID, &line.QtyOrdered, &line.QtyPicked, &line.QtyShort, &line.ShipmentBatch)
	return line, false, clamped, err
}

// LockForPick selects lines for a SKU eligible for picking, joined with their owning
// order, ordered FIFO by (order.created_at, order.id), with a row-level lock.
// Eligible: order not packed/cancelled, line in the order's current shipment batch,
// and demand remaining.
func (r *OrderLineRepository) LockForPick(ctx context.Context, ex db.Executor, sku string) ([]*PickLockRow, error) {
	rows, err := ex.Query(ctx,
		`SELECT ol.id, ol.order_id, ol.product_id, ol.qty_ordered, ol.qty_picked, ol.qty_short,
		        ol.shipment_batch, o.created_at, o.id
		 FROM order_lines ol
		 JOIN orders o ON o.id = ol.order_id
		 JOIN products p ON p.id = ol.product_id
		 WHERE p.sku = $1
		   AND o.status NOT IN ($2, $3)
		   AND ol.shipment_batch = o.current_shipment
		   AND ol.qty_picked + ol.qty_short < ol.qty_ordered
		 ORDER BY o.created_at ASC, o.id ASC
		 FOR UPDATE OF ol`,
		sku, models.OrderStatusPacked, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PickLockRow
	for rows.Next() {
		var row PickLockRow
		if err := rows.Scan(&row.Line.ID, &row.Line.OrderID, &row.Line.ProductID, &row.Line.QtyOrdered,
			&row.Line.QtyPicked, &row.Line.QtyShort, &row.Line.ShipmentBatch, &row.OrderCreatedAt, &row.OrderID); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

// LockByOrder selects every line of an order in a deterministic order, with a row
// lock, for use by derivation and Split/Unsplit, which already hold the parent order's
// row lock and only need to examine or mutate its own lines.
func (r *OrderLineRepository) LockByOrder(ctx context.Context, ex db.Executor, orderID int) ([]*models.OrderLine, error) {
	rows, err := ex.Query(ctx,
		`SELECT ol.id, ol.order_id, ol.product_id, ol.qty_ordered, ol.qty_picked, ol.qty_short,
		        ol.shipment_batch, p.sku, p.title, p.category
		 FROM order_lines ol
		 JOIN products p ON p.id = ol.product_id
		 WHERE ol.order_id = $1
		 ORDER BY ol.id ASC
		 FOR UPDATE OF ol`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.OrderLine
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.QtyOrdered, &l.QtyPicked, &l.QtyShort,
			&l.ShipmentBatch, &l.SKU, &l.Title, &l.Category); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *OrderLineRepository) GetForUpdate(ctx context.Context, ex db.Executor, id int) (*models.OrderLine, error) {
	var l models.OrderLine
	err := ex.QueryRow(ctx,
		`SELECT id, order_id, product_id, qty_ordered, qty_picked, qty_short, shipment_batch
		 FROM order_lines WHERE id=$1 FOR UPDATE`, id,
	).Scan(&l.ID, &l.OrderID, &l.ProductID, &l.QtyOrdered, &l.QtyPicked, &l.QtyShort, &l.ShipmentBatch)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *OrderLineRepository) UpdateCounts(ctx context.Context, ex db.Executor, id, qtyPicked, qtyShort int) error {
	_, err := ex.Exec(ctx, `UPDATE order_lines SET qty_picked=$1, qty_short=$2 WHERE id=$3`, qtyPicked, qtyShort, id)
	return err
}

func (r *OrderLineRepository) UpdateBatch(ctx context.Context, ex db.Executor, id, shipmentBatch int) error {
	_, err := ex.Exec(ctx, `UPDATE order_lines SET shipment_batch=$1 WHERE id=$2`, shipmentBatch, id)
	return err
}

// PickList aggregates outstanding demand per SKU across non-terminal orders,
// restricted to each order's current shipment batch.
func (r *OrderLineRepository) PickList(ctx context.Context) ([]*models.OrderLine, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT p.sku, p.title, p.category, COALESCE(p.subcategory,''),
		        SUM(ol.qty_ordered), SUM(ol.qty_picked), SUM(ol.qty_short)
		 FROM order_lines ol
		 JOIN orders o ON o.id = ol.order_id
		 JOIN products p ON p.id = ol.product_id
		 WHERE o.status NOT IN ($1, $2) AND ol.shipment_batch = o.current_shipment
		 GROUP BY p.sku, p.title, p.category, p.subcategory
		 HAVING SUM(ol.qty_ordered) - SUM(ol.qty_picked) - SUM(ol.qty_short) > 0
		 ORDER BY p.sku`,
		models.OrderStatusPacked, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.OrderLine
	for rows.Next() {
		l := &models.OrderLine{}
		var subcategory string
		if err := rows.Scan(&l.SKU, &l.Title, &l.Category, &subcategory, &l.QtyOrdered, &l.QtyPicked, &l.QtyShort); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// OrdersForSKU lists the individual order-lines behind a PickList row, for the
// GET /picklist/{sku}/orders drill-down.
func (r *OrderLineRepository) OrdersForSKU(ctx context.Context, sku string) ([]*models.OrderLine, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT ol.id, ol.order_id, ol.product_id, ol.qty_ordered, ol.qty_picked, ol.qty_short,
		        ol.shipment_batch, o.number
		 FROM order_lines ol
		 JOIN orders o ON o.id = ol.order_id
		 JOIN products p ON p.id = ol.product_id
		 WHERE p.sku = $1 AND o.status NOT IN ($2, $3) AND ol.shipment_batch = o.current_shipment
		 ORDER BY o.created_at ASC`,
		sku, models.OrderStatusPacked, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.OrderLine
	for rows.Next() {
		l := &models.OrderLine{}
		var orderNumber string
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.QtyOrdered, &l.QtyPicked, &l.QtyShort,
			&l.ShipmentBatch, &orderNumber); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// PickedItems lists every order line in its order's current shipment batch still
// carrying picked quantity against a non-terminal order, across every SKU, for the
// revert surface's picked-items view. Each
// row keeps its order-line id so a client can act on it directly against
// POST /picked-items/{id}/revert.
func (r *OrderLineRepository) PickedItems(ctx context.Context) ([]*models.OrderLine, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT ol.id, ol.order_id, ol.product_id, ol.qty_ordered, ol.qty_picked, ol.qty_short,
		        ol.shipment_batch, p.sku, p.title, p.category
		 FROM order_lines ol
		 JOIN orders o ON o.id = ol.order_id
		 JOIN products p ON p.id = ol.product_id
		 WHERE o.status NOT IN ($1, $2) AND ol.shipment_batch = o.current_shipment AND ol.qty_picked > 0
		 ORDER BY o.created_at ASC, ol.id ASC`,
		models.OrderStatusPacked, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.OrderLine
	for rows.Next() {
		l := &models.OrderLine{}
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.QtyOrdered, &l.QtyPicked, &l.QtyShort,
			&l.ShipmentBatch, &l.SKU, &l.Title, &l.Category); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// PickLockRow is an OrderLine joined with just enough of its owning order to drive
// the FIFO walk.
type PickLockRow struct {
	Line           models.OrderLine
	OrderID        int
	OrderCreatedAt time.Time
}
