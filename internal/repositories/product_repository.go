package repositories

import (
	"context"

	"cold-backend/internal/db"
	"cold-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: pool}
}

// Upsert inserts or updates a product by SKU. Mutable fields are updated; a field with
// no upstream counterpart (empty string / nil) never overwrites an existing value.
func (r *ProductRepository) Upsert(ctx context.Context, ex db.Executor, p *models.Product) (created bool, err error) {
	err = ex.QueryRow(ctx,
		`INSERT INTO products (sku, title, category, subcategory, image_url, price, vendor_name, variation_details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (sku) DO UPDATE SET
		   title             = COALESCE(NULLIF(EXCLUDED.title, ''), products.title),
		   category          = COALESCE(NULLIF(EXCLUDED.category, ''), products.category),
		   subcategory       = COALESCE(NULLIF(EXCLUDED.subcategory, ''), products.subcategory),
		   image_url         = COALESCE(NULLIF(EXCLUDED.image_url, ''), products.image_url),
		   price             = COALESCE(EXCLUDED.price, products.price),
		   vendor_name       = COALESCE(NULLIF(EXCLUDED.vendor_name, ''), products.vendor_name),
		   variation_details = COALESCE(NULLIF(EXCLUDED.variation_details, ''), products.variation_details),
		   updated_at        = now()
		 RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`,
		p.SKU, p.Title, p.Category, p.Subcategory, p.ImageURL, p.Price, p.VendorName, p.VariationDetails,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &created)
	return created, err
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var p models.Product
	err := r.DB.QueryRow(ctx,
		`SELECT id, sku, title, category, COALESCE(subcategory,''), COALESCE(image_url,''),
		        price, COALESCE(vendor_name,''), COALESCE(variation_details,''), created_at, updated_at
		 FROM products WHERE sku = $1`, sku,
	).Scan(&p.ID, &p.SKU, &p.Title, &p.Category, &p.Subcategory, &p.ImageURL,
		&p.Price, &p.VendorName, &p.VariationDetails, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, sku, title, category, COALESCE(subcategory,''), COALESCE(image_url,''),
		        price, COALESCE(vendor_name,''), COALESCE(variation_details,''), created_at, updated_at
		 FROM products ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]*models.Product, error) {
	var out []*models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Title, &p.Category, &p.Subcategory, &p.ImageURL,
			&p.Price, &p.VendorName, &p.VariationDetails, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
