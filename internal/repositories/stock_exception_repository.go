package repositories

import (
	"context"
	"fmt"

	"cold-backend/internal/db"
	"cold-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StockExceptionRepository struct {
	DB *pgxpool.Pool
}

func NewStockExceptionRepository(pool *pgxpool.Pool) *StockExceptionRepository {
	return &StockExceptionRepository{DB: pool}
}

func (r *StockExceptionRepository) Create(ctx context.Context, ex db.Executor, e *models.StockException) error {
	return ex.QueryRow(ctx,
		`INSERT INTO stock_exceptions (sku, product_title, category, qty_short, order_numbers,
		                                reported_by, timestamp, resolved, ordered_from_company, na_cancel, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), false, false, false, '')
		 RETURNING id, timestamp`,
		e.SKU, e.ProductTitle, e.Category, e.QtyShort, e.OrderNumbers, e.ReportedBy,
	).Scan(&e.ID, &e.Timestamp)
}

func (r *StockExceptionRepository) GetForUpdate(ctx context.Context, ex db.Executor, id int) (*models.StockException, error) {
	e := &models.StockException{}
	err := ex.QueryRow(ctx,
		`SELECT id, sku, product_title, category, qty_short, order_numbers, reported_by, timestamp,
		        resolved, ordered_from_company, na_cancel, COALESCE(notes,'')
		 FROM stock_exceptions WHERE id = $1 FOR UPDATE`, id,
	).Scan(&e.ID, &e.SKU, &e.ProductTitle, &e.Category, &e.QtyShort, &e.OrderNumbers, &e.ReportedBy,
		&e.Timestamp, &e.Resolved, &e.OrderedFromCompany, &e.NaCancel, &e.Notes)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *StockExceptionRepository) ToggleOrderedFromCompany(ctx context.Context, id int) (*models.StockException, error) {
	e := &models.StockException{}
	err := r.DB.QueryRow(ctx,
		`UPDATE stock_exceptions SET ordered_from_company = NOT ordered_from_company WHERE id = $1
		 RETURNING id, sku, product_title, category, qty_short, order_numbers, reported_by, timestamp,
		           resolved, ordered_from_company, na_cancel, COALESCE(notes,'')`, id,
	).Scan(&e.ID, &e.SKU, &e.ProductTitle, &e.Category, &e.QtyShort, &e.OrderNumbers, &e.ReportedBy,
		&e.Timestamp, &e.Resolved, &e.OrderedFromCompany, &e.NaCancel, &e.Notes)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *StockExceptionRepository) ToggleNaCancel(ctx context.Context, id int) (*models.StockException, error) {
	e := &models.StockException{}
	err := r.DB.QueryRow(ctx,
		`UPDATE stock_exceptions SET na_cancel = NOT na_cancel WHERE id = $1
		 RETURNING id, sku, product_title, category, qty_short, order_numbers, reported_by, timestamp,
		           resolved, ordered_from_company, na_cancel, COALESCE(notes,'')`, id,
	).Scan(&e.ID, &e.SKU, &e.ProductTitle, &e.Category, &e.QtyShort, &e.OrderNumbers, &e.ReportedBy,
		&e.Timestamp, &e.Resolved, &e.OrderedFromCompany, &e.NaCancel, &e.Notes)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Resolve marks the exception resolved and appends (never overwrites) the given note,
// mirroring the original's notes-append-on-resolve behavior.
func (r *StockExceptionRepository) Resolve(ctx context.Context, id int, note string) (*models.StockException, error) {
	e := &models.StockException{}
	err := r.DB.QueryRow(ctx,
		`UPDATE stock_exceptions SET resolved = true,
		        notes = CASE WHEN $2 = '' THEN notes
		                     WHEN COALESCE(notes,'') = '' THEN $2
		                     ELSE notes || E'\n' || $2 END
		 WHERE id = $1
		 RETURNING id, sku, product_title, category, qty_short, order_numbers, reported_by, timestamp,
		           resolved, ordered_from_company, na_cancel, COALESCE(notes,'')`, id, note,
	).Scan(&e.ID, &e.SKU, &e.ProductTitle, &e.Category, &e.QtyShort, &e.OrderNumbers, &e.ReportedBy,
		&e.Timestamp, &e.Resolved, &e.OrderedFromCompany, &e.NaCancel, &e.Notes)
	if err != nil {
		return nil, err
	}
	return e, nil
}

var sortColumns = map[string]string{
	"timestamp": "se.timestamp",
	"sku":       "se.sku",
	"qty_short": "se.qty_short",
	"vendor":    "p.vendor_name",
}

func (r *StockExceptionRepository) List(ctx context.Context, f models.StockExceptionFilter) ([]*models.StockException, error) {
	query := `SELECT se.id, se.sku, se.product_title, se.category, se.qty_short, se.order_numbers,
	                 se.reported_by, se.timestamp, se.resolved, se.ordered_from_company, se.na_cancel,
	                 COALESCE(se.notes,'')
	          FROM stock_exceptions se
	          LEFT JOIN products p ON p.sku = se.sku
	          WHERE 1=1`
	var args []interface{}
	n := 0
	next := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.Resolved != nil {
		query += " AND se.resolved = " + next(*f.Resolved)
	}
	if f.From != nil {
		query += " AND se.timestamp >= " + next(*f.From)
	}
	if f.To != nil {
		query += " AND se.timestamp <= " + next(*f.To)
	}
	if f.Search != "" {
		p := next("%" + f.Search + "%")
		query += fmt.Sprintf(` AND (se.sku ILIKE %s OR se.product_title ILIKE %s OR
			p.vendor_name ILIKE %s OR EXISTS (SELECT 1 FROM unnest(se.order_numbers) on_ WHERE on_ ILIKE %s))`,
			p, p, p, p)
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "se.timestamp"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", col, dir)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.StockException
	for rows.Next() {
		e := &models.StockException{}
		if err := rows.Scan(&e.ID, &e.SKU, &e.ProductTitle, &e.Category, &e.QtyShort, &e.OrderNumbers,
			&e.ReportedBy, &e.Timestamp, &e.Resolved, &e.OrderedFromCompany, &e.NaCancel, &e.Notes); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Aggregate groups unresolved exceptions by SKU for the out-of-stock digest.
func (r *StockExceptionRepository) Aggregate(ctx context.Context) ([]*models.AggregatedException, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT sku, MAX(product_title), MAX(category), SUM(qty_short), COUNT(*)
		 FROM stock_exceptions WHERE resolved = false GROUP BY sku ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AggregatedException
	for rows.Next() {
		a := &models.AggregatedException{}
		if err := rows.Scan(&a.SKU, &a.ProductTitle, &a.Category, &a.TotalShort, &a.Occurrences); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range out {
		nums, err := r.orderNumbersForSKU(ctx, a.SKU)
		if err != nil {
			return nil, err
		}
		a.OrderNumbers = nums
	}
	return out, nil
}

func (r *StockExceptionRepository) orderNumbersForSKU(ctx context.Context, sku string) ([]string, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT DISTINCT on_ FROM stock_exceptions, unnest(order_numbers) on_
		 WHERE sku = $1 AND resolved = false`, sku)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
