// Package stock implements the stock-exception engine (C6): shortage aggregation,
// resolution flags, and the out-of-stock digest fed to the notifier.
package stock

import (
	"context"

	"cold-backend/internal/db"
	"cold-backend/internal/metrics"
	"cold-backend/internal/models"
	"cold-backend/internal/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Exceptions struct {
	DB         *pgxpool.Pool
	Repository *repositories.StockExceptionRepository
}

func NewExceptions(pool *pgxpool.Pool, repo *repositories.StockExceptionRepository) *Exceptions {
	return &Exceptions{DB: pool, Repository: repo}
}

// RecordShortage snapshots one StockException row per call, carrying every allocation's
// order number. It does not modify OrderLine — shortages coexist with lines, recorded
// by the picking engine separately.
func (e *Exceptions) RecordShortage(ctx context.Context, ex db.Executor, sku, productTitle, category string, qtyShort int, orderNumbers []string, reportedBy string) (*models.StockException, error) {
	se := &models.StockException{
		SKU:          sku,
		ProductTitle: productTitle,
		Category:     category,
		QtyShort:     qtyShort,
		OrderNumbers: orderNumbers,
		ReportedBy:   reportedBy,
	}
	if err := e.Repository.Create(ctx, ex, se); err != nil {
		return nil, err
	}
	e.refreshOpenGauge(ctx)
	return se, nil
}

// refreshOpenGauge recounts unresolved exceptions for the Prometheus gauge. Best-effort:
// a count failure is not worth failing the caller's transaction over.
func (e *Exceptions) refreshOpenGauge(ctx context.Context) {
	unresolved := false
	open, err := e.Repository.List(ctx, models.StockExceptionFilter{Resolved: &unresolved})
	if err != nil {
		return
	}
	metrics.StockExceptionsOpen.Set(float64(len(open)))
}

func (e *Exceptions) ToggleOrderedFromCompany(ctx context.Context, id int) (*models.StockException, error) {
	return e.Repository.ToggleOrderedFromCompany(ctx, id)
}

func (e *Exceptions) ToggleNaCancel(ctx context.Context, id int) (*models.StockException, error) {
	return e.Repository.ToggleNaCancel(ctx, id)
}

// Resolve is idempotent: resolving an already-resolved exception just appends the note.
func (e *Exceptions) Resolve(ctx context.Context, id int, note string) (*models.StockException, error) {
	se, err := e.Repository.Resolve(ctx, id, note)
	if err != nil {
		return nil, err
	}
	e.refreshOpenGauge(ctx)
	return se, nil
}

func (e *Exceptions) List(ctx context.Context, filter models.StockExceptionFilter) ([]*models.StockException, error) {
	return e.Repository.List(ctx, filter)
}

func (e *Exceptions) Aggregate(ctx context.Context) ([]*models.AggregatedException, error) {
	return e.Repository.Aggregate(ctx)
}
