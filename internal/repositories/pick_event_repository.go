package repositories

import (
	"context"

	"cold-backend/internal/db"
	"cold-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PickEventRepository is an append-only log of pick/short/revert actions against a
// single order line, grounded on the teacher's login_log pattern of writing a fact
// row per action rather than mutating state in place.
type PickEventRepository struct {
	DB *pgxpool.Pool
}

func NewPickEventRepository(pool *pgxpool.Pool) *PickEventRepository {
	return &PickEventRepository{DB: pool}
}

func (r *PickEventRepository) Create(ctx context.Context, ex db.Executor, e *models.PickEvent) error {
	return ex.QueryRow(ctx,
		`INSERT INTO pick_events (order_line_id, kind, delta_qty, "user", notes, timestamp)
		 VALUES ($1, $2, $3, $4, $5, now()) RETURNING id, timestamp`,
		e.OrderLineID, e.Kind, e.DeltaQty, e.User, e.Notes,
	).Scan(&e.ID, &e.Timestamp)
}

func (r *PickEventRepository) ListByLine(ctx context.Context, lineID int) ([]*models.PickEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, order_line_id, kind, delta_qty, "user", COALESCE(notes,''), timestamp
		 FROM pick_events WHERE order_line_id = $1 ORDER BY timestamp ASC`, lineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PickEvent
	for rows.Next() {
		e := &models.PickEvent{}
		if err := rows.Scan(&e.ID, &e.OrderLineID, &e.Kind, &e.DeltaQty, &e.User, &e.Notes, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastByLine returns the most recent event for a line.
func (r *PickEventRepository) LastByLine(ctx context.Context, ex db.Executor, lineID int) (*models.PickEvent, error) {
	e := &models.PickEvent{}
	err := ex.QueryRow(ctx,
		`SELECT id, order_line_id, kind, delta_qty, "user", COALESCE(notes,''), timestamp
		 FROM pick_events WHERE order_line_id = $1 ORDER BY timestamp DESC LIMIT 1`, lineID,
	).Scan(&e.ID, &e.OrderLineID, &e.Kind, &e.DeltaQty, &e.User, &e.Notes, &e.Timestamp)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PickEventRepository) Delete(ctx context.Context, ex db.Executor, id int) error {
	_, err := ex.Exec(ctx, `DELETE FROM pick_events WHERE id = $1`, id)
	return err
}
