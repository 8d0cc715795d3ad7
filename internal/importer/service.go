// Package importer implements the import/reconciliation engine (C3): idempotent
// upsert of products, orders, and lines from the upstream tree, auto-pack of vanished
// orders, and sync-log bookkeeping.
package importer

import (
	"context"
	"fmt"
	"log"
	"time"

	"cold-backend/internal/db"
	"cold-backend/internal/metrics"
	"cold-backend/internal/models"
	"cold-backend/internal/orders"
	"cold-backend/internal/repositories"
	"cold-backend/internal/upstream"
	"cold-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Service struct {
	DB         *pgxpool.Pool
	Upstream   *upstream.Client
	Products   *repositories.ProductRepository
	Orders     *repositories.OrderRepository
	OrderLines *repositories.OrderLineRepository
	SyncLogs   *repositories.SyncLogRepository
	Config     *repositories.ConfigRepository
	Machine    *orders.Machine
}

func NewService(
	pool *pgxpool.Pool,
	client *upstream.Client,
	products *repositories.ProductRepository,
	orderRepo *repositories.OrderRepository,
	lines *repositories.OrderLineRepository,
	syncLogs *repositories.SyncLogRepository,
	config *repositories.ConfigRepository,
	machine *orders.Machine,
) *Service {
	return &Service{
		DB: pool, Upstream: client, Products: products, Orders: orderRepo,
		OrderLines: lines, SyncLogs: syncLogs, Config: config, Machine: machine,
	}
}

// flatLine is one (order, product) demand fact after flattening the upstream tree and
// fanning duplicate (external_order_id, sku) appearances into a single summed qty.
type flatLine struct {
	externalOrderID string
	number          string
	customerName    string
	sku             string
	qty             int
}

// Sync runs the 9-step ordering of spec.md §4.2. Each run gets a correlation id that is
// written to the process log at start and completion; it is not stored on the SyncLog.
func (s *Service) Sync(ctx context.Context) (*models.SyncResult, error) {
	correlationID := uuid.New().String()
	started := time.Now()
	defer func() { metrics.SyncDuration.Observe(time.Since(started).Seconds()) }()

	log_, busy, err := s.SyncLogs.BeginInProgress(ctx)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, utils.NewError(utils.SyncBusy, "a sync is already in progress")
	}
	log.Printf("sync %s: started", correlationID)

	doc, err := s.Upstream.Fetch(ctx)
	if err != nil {
		log_.Status = models.SyncStatusError
		log_.ErrorMessage = err.Error()
		now := time.Now().UTC()
		log_.CompletedAt = &now
		_ = s.SyncLogs.Complete(ctx, log_)
		metrics.SyncTotal.WithLabelValues(string(models.SyncStatusError)).Inc()
		return nil, err
	}

	products, flatLines, warnings := flatten(doc)
	log_.OrdersFetched = countDistinctOrders(flatLines)

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.upsertProducts(ctx, tx, products, log_); err != nil {
		return s.fail(ctx, log_, err)
	}

	orderIDs, err := s.upsertOrders(ctx, tx, flatLines, log_)
	if err != nil {
		return s.fail(ctx, log_, err)
	}

	skuToProductID := make(map[string]int, len(products))
	for _, p := range products {
		skuToProductID[p.SKU] = p.ID
	}

	touchedOrders := map[int]bool{}
	for _, fl := range flatLines {
		orderID, ok := orderIDs[fl.externalOrderID]
		if !ok {
			continue
		}
		productID, ok := skuToProductID[fl.sku]
		if !ok {
			warnings = append(warnings, models.SyncWarning{
				Kind: "unknown_sku", SKU: fl.sku, OrderID: fl.externalOrderID,
				Message: "line references a sku with no matching product",
			})
			continue
		}

		_, created, clamped, err := s.OrderLines.Upsert(ctx, tx, orderID, productID, fl.qty)
		if err != nil {
			return s.fail(ctx, log_, err)
		}
		if created {
			log_.ItemsCreated++
		} else {
			log_.ItemsUpdated++
		}
		if clamped {
			warnings = append(warnings, models.SyncWarning{
				Kind: "qty_clamped", SKU: fl.sku, OrderID: fl.externalOrderID,
				Message: "local pick progress exceeds the new upstream qty_ordered; left unchanged",
			})
		}
		touchedOrders[orderID] = true
	}

	autoPacked, err := s.autoPack(ctx, tx, orderIDs)
	if err != nil {
		return s.fail(ctx, log_, err)
	}
	log_.OrdersAutoPacked = autoPacked

	for orderID := range touchedOrders {
		if _, err := s.Machine.DeriveAndPersist(ctx, tx, orderID); err != nil {
			return s.fail(ctx, log_, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log_.Status = models.SyncStatusSuccess
	log_.DetailedErrors = warnings
	now := time.Now().UTC()
	log_.CompletedAt = &now
	if err := s.SyncLogs.Complete(ctx, log_); err != nil {
		return nil, err
	}

	if cfg, err := s.Config.GetAPIConfig(ctx); err == nil {
		cfg.LastSyncAt = &now
		cfg.LastSyncStatus = models.SyncStatusSuccess
		_ = s.Config.PutAPIConfig(ctx, cfg)
	}

	log.Printf("sync %s: completed orders_created=%d orders_updated=%d auto_packed=%d warnings=%d",
		correlationID, log_.OrdersCreated, log_.OrdersUpdated, autoPacked, len(warnings))

	metrics.SyncTotal.WithLabelValues(string(models.SyncStatusSuccess)).Inc()
	return &models.SyncResult{Log: log_}, nil
}

func (s *Service) fail(ctx context.Context, log_ *models.SyncLog, cause error) (*models.SyncResult, error) {
	log_.Status = models.SyncStatusError
	log_.ErrorMessage = cause.Error()
	now := time.Now().UTC()
	log_.CompletedAt = &now
	_ = s.SyncLogs.Complete(ctx, log_)
	metrics.SyncTotal.WithLabelValues(string(models.SyncStatusError)).Inc()
	return nil, cause
}

func (s *Service) upsertProducts(ctx context.Context, ex db.Executor, products []*models.Product, log_ *models.SyncLog) error {
	for _, p := range products {
		created, err := s.Products.Upsert(ctx, ex, p)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
		if created {
			log_.ProductsCreated++
		} else {
			log_.ProductsUpdated++
		}
	}
	return nil
}

// upsertOrders upserts every distinct order and returns a map of external_id -> local id.
func (s *Service) upsertOrders(ctx context.Context, ex db.Executor, flatLines []flatLine, log_ *models.SyncLog) (map[string]int, error) {
	seen := map[string]bool{}
	out := map[string]int{}
	for _, fl := range flatLines {
		if seen[fl.externalOrderID] {
			continue
		}
		seen[fl.externalOrderID] = true

		o := &models.Order{ExternalID: fl.externalOrderID, Number: fl.number, CustomerName: fl.customerName}
		created, err := s.Orders.Upsert(ctx, ex, o)
		if err != nil {
			return nil, fmt.Errorf("upsert order %s: %w", fl.externalOrderID, err)
		}
		if created {
			log_.OrdersCreated++
		} else {
			log_.OrdersUpdated++
		}
		out[fl.externalOrderID] = o.ID
	}
	return out, nil
}

// autoPack transitions every non-terminal order absent from the fetched document to
// packed, per spec.md §4.2 step 7.
func (s *Service) autoPack(ctx context.Context, ex db.Executor, fetchedExternalIDs map[string]int) (int, error) {
	nonTerminal, err := s.Orders.ListNonTerminalExternalIDs(ctx, ex)
	if err != nil {
		return 0, err
	}

	count := 0
	now := time.Now().UTC()
	for externalID, orderID := range nonTerminal {
		if _, present := fetchedExternalIDs[externalID]; present {
			continue
		}
		if err := s.Orders.AutoPack(ctx, ex, orderID, now); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// flatten converts the nested upstream document into distinct products and flattened
// order-lines, summing qty over duplicate (external_order_id, sku) appearances. Malformed
// items are absorbed as warnings rather than aborting the sync.
func flatten(doc *upstream.Document) ([]*models.Product, []flatLine, []models.SyncWarning) {
	productsBySKU := map[string]*models.Product{}
	lineQty := map[string]*flatLine{}
	var warnings []models.SyncWarning

	for _, cat := range doc.Categories {
		for _, sub := range cat.Subcategories {
			for _, item := range sub.Items {
				if item.SKU == "" {
					warnings = append(warnings, models.SyncWarning{Kind: "malformed_item", Message: "item missing sku, dropped"})
					continue
				}
				for field := range item.Extra {
					log.Printf("sync: dropping unmodeled upstream item field %q for sku %s", field, item.SKU)
				}

				p := productsBySKU[item.SKU]
				if p == nil {
					p = &models.Product{SKU: item.SKU, Category: cat.Name, Subcategory: sub.Name}
					productsBySKU[item.SKU] = p
				}
				p.Title = item.Title
				p.ImageURL = item.ImageURL
				p.VendorName = item.VendorName
				p.VariationDetails = item.VariationDetails
				if item.Price != nil {
					price := decimal.NewFromFloat(*item.Price)
					p.Price = &price
				}

				for _, ol := range item.Orders {
					if ol.ExternalOrderID == "" || ol.Qty <= 0 {
						warnings = append(warnings, models.SyncWarning{
							Kind: "malformed_order_line", SKU: item.SKU, OrderID: ol.ExternalOrderID,
							Message: "order line missing external_order_id or non-positive qty, dropped",
						})
						continue
					}
					key := ol.ExternalOrderID + "|" + item.SKU
					fl := lineQty[key]
					if fl == nil {
						fl = &flatLine{externalOrderID: ol.ExternalOrderID, number: ol.Number, customerName: ol.CustomerName, sku: item.SKU}
						lineQty[key] = fl
					}
					fl.qty += ol.Qty
				}
			}
		}
	}

	products := make([]*models.Product, 0, len(productsBySKU))
	for _, p := range productsBySKU {
		products = append(products, p)
	}
	lines := make([]flatLine, 0, len(lineQty))
	for _, fl := range lineQty {
		lines = append(lines, *fl)
	}
	return products, lines, warnings
}

func countDistinctOrders(lines []flatLine) int {
	seen := map[string]bool{}
	for _, l := range lines {
		seen[l.externalOrderID] = true
	}
	return len(seen)
}
