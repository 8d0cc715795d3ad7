package repositories

import (
	"context"
	"encoding/json"

	"cold-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SyncLogRepository struct {
	DB *pgxpool.Pool
}

func NewSyncLogRepository(pool *pgxpool.Pool) *SyncLogRepository {
	return &SyncLogRepository{DB: pool}
}

// BeginInProgress checks for an in-flight sync and, if none exists, inserts a new
// in_progress row. The count and the insert run as two statements inside one
// transaction that this method commits before returning, so the row is visible to
// concurrent observers before the sync body starts — the SyncBusy guard named in the
// scheduling model. The table is not locked between the two statements.
func (r *SyncLogRepository) BeginInProgress(ctx context.Context) (result *models.SyncLog, busy bool, err error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM sync_logs WHERE status = $1`, models.SyncStatusInProgress,
	).Scan(&count); err != nil {
		return nil, false, err
	}
	if count > 0 {
		return nil, true, nil
	}

	log := &models.SyncLog{Status: models.SyncStatusInProgress}
	if err := tx.QueryRow(ctx,
		`INSERT INTO sync_logs (status, started_at) VALUES ($1, now()) RETURNING id, started_at`,
		models.SyncStatusInProgress,
	).Scan(&log.ID, &log.StartedAt); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return log, false, nil
}

func (r *SyncLogRepository) Complete(ctx context.Context, log *models.SyncLog) error {
	detailed, err := json.Marshal(log.DetailedErrors)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx,
		`UPDATE sync_logs SET completed_at = now(), status = $1,
		        orders_fetched=$2, orders_created=$3, orders_updated=$4, orders_auto_packed=$5,
		        products_created=$6, products_updated=$7, items_created=$8, items_updated=$9,
		        error_message=$10, detailed_errors=$11
		 WHERE id = $12`,
		log.Status, log.OrdersFetched, log.OrdersCreated, log.OrdersUpdated, log.OrdersAutoPacked,
		log.ProductsCreated, log.ProductsUpdated, log.ItemsCreated, log.ItemsUpdated,
		nullableString(log.ErrorMessage), detailed, log.ID)
	return err
}

func (r *SyncLogRepository) Get(ctx context.Context, id int) (*models.SyncLog, error) {
	log := &models.SyncLog{}
	var detailed []byte
	err := r.DB.QueryRow(ctx,
		`SELECT id, started_at, completed_at, status, orders_fetched, orders_created, orders_updated,
		        orders_auto_packed, products_created, products_updated, items_created, items_updated,
		        COALESCE(error_message,''), COALESCE(detailed_errors, '[]')
		 FROM sync_logs WHERE id = $1`, id,
	).Scan(&log.ID, &log.StartedAt, &log.CompletedAt, &log.Status, &log.OrdersFetched, &log.OrdersCreated,
		&log.OrdersUpdated, &log.OrdersAutoPacked, &log.ProductsCreated, &log.ProductsUpdated,
		&log.ItemsCreated, &log.ItemsUpdated, &log.ErrorMessage, &detailed)
	if err != nil {
		return nil, err
	}
	json.Unmarshal(detailed, &log.DetailedErrors)
	return log, nil
}

func (r *SyncLogRepository) List(ctx context.Context, limit int) ([]*models.SyncLog, error) {
	var rows pgx.Rows
	var err error
	rows, err = r.DB.Query(ctx,
		`SELECT id, started_at, completed_at, status, orders_fetched, orders_created, orders_updated,
		        orders_auto_packed, products_created, products_updated, items_created, items_updated,
		        COALESCE(error_message,''), COALESCE(detailed_errors, '[]')
		 FROM sync_logs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SyncLog
	for rows.Next() {
		log := &models.SyncLog{}
		var detailed []byte
		if err := rows.Scan(&log.ID, &log.StartedAt, &log.CompletedAt, &log.Status, &log.OrdersFetched,
			&log.OrdersCreated, &log.OrdersUpdated, &log.OrdersAutoPacked, &log.ProductsCreated,
			&log.ProductsUpdated, &log.ItemsCreated, &log.ItemsUpdated, &log.ErrorMessage, &detailed); err != nil {
			return nil, err
		}
		json.Unmarshal(detailed, &log.DetailedErrors)
		out = append(out, log)
	}
	return out, rows.Err()
}
