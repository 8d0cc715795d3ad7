package repositories

import (
	"context"
	"time"

	"cold-backend/internal/db"
	"cold-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	DB *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{DB: pool}
}

// Upsert inserts or updates an order by external_id. Locally-authored fields
// (status, ready_to_pack, packed_*, customer_message, email_sent, total_shipments,
// current_shipment) are preserved on update, per the import engine's re-sync contract.
func (r *OrderRepository) Upsert(ctx context.Context, ex db.Executor, o *models.Order) (created bool, err error) {
	err = ex.QueryRow(ctx,
		`INSERT INTO orders (external_id, number, customer_name, status, ready_to_pack,
		                      total_shipments, current_shipment, email_sent)
		 VALUES ($1, $2, $3, 'open', false, 1, 1, false)
		 ON CONFLICT (external_id) DO UPDATE SET
		   number        = EXCLUDED.number,
		   customer_name = EXCLUDED.customer_name,
		   updated_at    = now()
		 RETURNING id, status, ready_to_pack, total_shipments, current_shipment,
		           COALESCE(customer_message,''), email_sent, packed_at, COALESCE(packed_by,''),
		           created_at, updated_at, (xmax = 0) AS inserted`,
		o.ExternalID, o.Number, o.CustomerName,
	).Scan(&o.ID, &o.Status, &o.ReadyToPack, &o.TotalShipments, &o.CurrentShipment,
		&o.CustomerMessage, &o.EmailSent, &o.PackedAt, &o.PackedBy, &o.CreatedAt, &o.UpdatedAt, &created)
	return created, err
}

func (r *OrderRepository) GetByID(ctx context.Context, ex db.Executor, id int) (*models.Order, error) {
	var o models.Order
	err := ex.QueryRow(ctx,
		`SELECT id, external_id, number, customer_name, status, ready_to_pack, total_shipments,
		        current_shipment, COALESCE(customer_message,''), email_sent, packed_at,
		        COALESCE(packed_by,''), created_at, updated_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.ExternalID, &o.Number, &o.CustomerName, &o.Status, &o.ReadyToPack,
		&o.TotalShipments, &o.CurrentShipment, &o.CustomerMessage, &o.EmailSent, &o.PackedAt,
		&o.PackedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetForUpdate locks a single order row, used by explicit state-machine transitions
// (MarkPacked, RevertToPicking, ChangeState, Split, Unsplit) which mutate exactly one
// order and therefore need no multi-row FIFO ordering.
func (r *OrderRepository) GetForUpdate(ctx context.Context, ex db.Executor, id int) (*models.Order, error) {
	var o models.Order
	err := ex.QueryRow(ctx,
		`SELECT id, external_id, number, customer_name, status, ready_to_pack, total_shipments,
		        current_shipment, COALESCE(customer_message,''), email_sent, packed_at,
		        COALESCE(packed_by,''), created_at, updated_at
		 FROM orders WHERE id = $1 FOR UPDATE`, id,
	).Scan(&o.ID, &o.ExternalID, &o.Number, &o.CustomerName, &o.Status, &o.ReadyToPack,
		&o.TotalShipments, &o.CurrentShipment, &o.CustomerMessage, &o.EmailSent, &o.PackedAt,
		&o.PackedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByExternalID(ctx context.Context, ex db.Executor, externalID string) (*models.Order, error) {
	var o models.Order
	err := ex.QueryRow(ctx,
		`SELECT id, external_id, number, customer_name, status, ready_to_pack, total_shipments,
		        current_shipment, COALESCE(customer_message,''), email_sent, packed_at,
		        COALESCE(packed_by,''), created_at, updated_at
		 FROM orders WHERE external_id = $1`, externalID,
	).Scan(&o.ID, &o.ExternalID, &o.Number, &o.CustomerName, &o.Status, &o.ReadyToPack,
		&o.TotalShipments, &o.CurrentShipment, &o.CustomerMessage, &o.EmailSent, &o.PackedAt,
		&o.PackedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateDerived writes the outcome of the derivation pass (or an explicit transition):
// status, ready_to_pack, current_shipment, packed_at, packed_by.
func (r *OrderRepository) UpdateDerived(ctx context.Context, ex db.Executor, o *models.Order) error {
	_, err := ex.Exec(ctx,
		`UPDATE orders SET status=$1, ready_to_pack=$2, current_shipment=$3,
		                    packed_at=$4, packed_by=$5, updated_at=now()
		 WHERE id=$6`,
		o.Status, o.ReadyToPack, o.CurrentShipment, o.PackedAt, nullableString(o.PackedBy), o.ID)
	return err
}

// UpdateShipments writes the result of Split/Unsplit.
func (r *OrderRepository) UpdateShipments(ctx context.Context, ex db.Executor, o *models.Order) error {
	_, err := ex.Exec(ctx,
		`UPDATE orders SET total_shipments=$1, current_shipment=$2, updated_at=now() WHERE id=$3`,
		o.TotalShipments, o.CurrentShipment, o.ID)
	return err
}

func (r *OrderRepository) AutoPack(ctx context.Context, ex db.Executor, id int, at time.Time) error {
	_, err := ex.Exec(ctx,
		`UPDATE orders SET status=$1, packed_at=$2, packed_by=$3, updated_at=now() WHERE id=$4`,
		models.OrderStatusPacked, at, models.SystemActor, id)
	return err
}

func (r *OrderRepository) UpdateMessage(ctx context.Context, ex db.Executor, id int, message string) error {
	_, err := ex.Exec(ctx, `UPDATE orders SET customer_message=$1, updated_at=now() WHERE id=$2`, message, id)
	return err
}

// ListNonTerminalExternalIDs returns external_id -> id for every non-terminal order, for
// the import engine's auto-pack sweep, which skips the ids present in the fetched set.
func (r *OrderRepository) ListNonTerminalExternalIDs(ctx context.Context, ex db.Executor) (map[string]int, error) {
	rows, err := ex.Query(ctx,
		`SELECT id, external_id FROM orders WHERE status NOT IN ($1, $2)`,
		models.OrderStatusPacked, models.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id int
		var extID string
		if err := rows.Scan(&id, &extID); err != nil {
			return nil, err
		}
		out[extID] = id
	}
	return out, rows.Err()
}

func (r *OrderRepository) List(ctx context.Context, status string) ([]*models.Order, error) {
	var rows pgx.Rows
	var err error
	if status != "" {
		rows, err = r.DB.Query(ctx,
			`SELECT id, external_id, number, customer_name, status, ready_to_pack, total_shipments,
			        current_shipment, COALESCE(customer_message,''), email_sent, packed_at,
			        COALESCE(packed_by,''), created_at, updated_at
			 FROM orders WHERE status = $1 ORDER BY created_at`, status)
	} else {
		rows, err = r.DB.Query(ctx,
			`SELECT id, external_id, number, customer_name, status, ready_to_pack, total_shipments,
			        current_shipment, COALESCE(customer_message,''), email_sent, packed_at,
			        COALESCE(packed_by,''), created_at, updated_at
			 FROM orders ORDER BY created_at`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.ExternalID, &o.Number, &o.CustomerName, &o.Status, &o.ReadyToPack,
			&o.TotalShipments, &o.CurrentShipment, &o.CustomerMessage, &o.EmailSent, &o.PackedAt,
			&o.PackedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
