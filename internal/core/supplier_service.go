package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"inventory-reports/internal/db"
)

// SupplierService provides read-only supplier reporting queries.
type SupplierService interface {
	// List returns one page of suppliers with their computed aggregates
	// (product count, units sold, revenue). Search matches the name only.
	List(ctx context.Context, req ListRequest) (*SupplierPage, error)

	// Overview returns the supplier dashboard summary.
	Overview(ctx context.Context) (*SuppliersOverview, error)

	// Detail returns the composite analytics DTO for one supplier, or
	// ErrNotFound if the id does not exist.
	Detail(ctx context.Context, id int) (*SupplierDetail, error)
}

type supplierService struct {
	db *db.Manager
}

// NewSupplierService constructs a SupplierService backed by the shared pool
// manager.
func NewSupplierService(m *db.Manager) SupplierService {
	return &supplierService{db: m}
}

// ── List ──────────────────────────────────────────────────────────────────────

func (s *supplierService) List(ctx context.Context, req ListRequest) (*SupplierPage, error) {
	pool, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	p := normalizeList(req, suppliersSort)

	var where string
	var args []any
	if p.search != "" {
		args = append(args, searchPattern(p.search))
		where = ` WHERE s.name ILIKE $1`
	}

	// Aggregates are grouped per supplier; the sort allow-list may point at
	// their aliases, which is why ORDER BY follows the grouped select.
	dataQ := `
		SELECT s.id, s.name, s.account_number, s.account_name,
		       COUNT(DISTINCT p.id) AS product_count,
		       COALESCE(SUM(dd.qty), 0) AS sold_qty,
		       COALESCE(SUM(dd.qty * dd.unit_price), 0) AS revenue
		FROM suppliers s
		LEFT JOIN products p ON p.supplier_id = s.id
		LEFT JOIN delivery_details dd ON dd.product_id = p.id` + where + `
		GROUP BY s.id` +
		fmt.Sprintf(" ORDER BY %s LIMIT %d OFFSET %d", p.orderBy, p.limit, p.offset)
	countQ := `SELECT COUNT(*) FROM suppliers s` + where

	page := &SupplierPage{Data: []Supplier{}, Limit: p.limit, Offset: p.offset}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := pool.Query(gctx, dataQ, args...)
		if err != nil {
			return fmt.Errorf("query suppliers: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var sup Supplier
			var soldQty, revenue decimal.Decimal
			if err := rows.Scan(
				&sup.ID, &sup.Name, &sup.AccountNumber, &sup.AccountName,
				&sup.ProductCount, &soldQty, &revenue,
			); err != nil {
				return fmt.Errorf("scan supplier: %w", err)
			}
			sup.SoldQty = fnum(soldQty)
			sup.Revenue = fnum(revenue)
			page.Data = append(page.Data, sup)
		}
		return rows.Err()
	})
	g.Go(func() error {
		if err := pool.QueryRow(gctx, countQ, args...).Scan(&page.Total); err != nil {
			return fmt.Errorf("count suppliers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

// ── Overview ──────────────────────────────────────────────────────────────────

func (s *supplierService) Overview(ctx context.Context) (*SuppliersOverview, error) {
	pool, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT
			(SELECT COUNT(*) FROM suppliers),
			(SELECT COUNT(*) FROM products WHERE supplier_id IS NOT NULL),
			COALESCE((SELECT SUM(dd.qty)
			           FROM delivery_details dd
			           JOIN products p ON p.id = dd.product_id
			           WHERE p.supplier_id IS NOT NULL), 0),
			COALESCE((SELECT SUM(dd.qty * dd.unit_price)
			           FROM delivery_details dd
			           JOIN products p ON p.id = dd.product_id
			           WHERE p.supplier_id IS NOT NULL), 0),
			(SELECT MAX(d.delivery_date)
			  FROM deliveries d
			  JOIN delivery_details dd ON dd.delivery_id = d.id
			  JOIN products p ON p.id = dd.product_id
			  WHERE p.supplier_id IS NOT NULL)`

	ov := &SuppliersOverview{}
	var soldQty, revenue decimal.Decimal
	var lastSale *time.Time
	if err := pool.QueryRow(ctx, q).Scan(
		&ov.Total, &ov.Products, &soldQty, &revenue, &lastSale,
	); err != nil {
		return nil, fmt.Errorf("suppliers overview stats: %w", err)
	}
	ov.SoldQty = fnum(soldQty)
	ov.Revenue = fnum(revenue)
	ov.LastSaleDate = isoDatePtr(lastSale)
	return ov, nil
}

// ── Detail ────────────────────────────────────────────────────────────────────

func (s *supplierService) Detail(ctx context.Context, id int) (*SupplierDetail, error) {
	pool, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	info, err := s.fetch(ctx, pool, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	weeks := weekSpine(now, trendWeeks)
	weeksSince := weeks[0]

	d := &SupplierDetail{
		Supplier:         *info,
		TopProductTrends: []SupplierTopProductPoint{},
		TopProducts:      []TopItem{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		const q = `
			SELECT COALESCE(SUM(dd.qty), 0),
			       COALESCE(SUM(dd.qty * dd.unit_price), 0),
			       MAX(d.delivery_date)
			FROM delivery_details dd
			JOIN deliveries d ON d.id = dd.delivery_id
			JOIN products p ON p.id = dd.product_id
			WHERE p.supplier_id = $1`
		var soldQty, revenue decimal.Decimal
		var lastSale *time.Time
		if err := pool.QueryRow(gctx, q, id).Scan(&soldQty, &revenue, &lastSale); err != nil {
			return fmt.Errorf("supplier totals: %w", err)
		}
		d.Totals.SoldQty = fnum(soldQty)
		d.Totals.Revenue = fnum(revenue)
		d.Totals.LastSaleDate = isoDatePtr(lastSale)
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT date_trunc('week', d.delivery_date)::date AS bucket, SUM(dd.qty)
			FROM delivery_details dd
			JOIN deliveries d ON d.id = dd.delivery_id
			JOIN products p ON p.id = dd.product_id
			WHERE p.supplier_id = $1 AND d.delivery_date >= $2
			GROUP BY 1`
		buckets, err := queryAmountBuckets(gctx, pool, q, id, weeksSince)
		if err != nil {
			return fmt.Errorf("supplier qty trend: %w", err)
		}
		d.QtyTrend = make([]SupplierTrendPoint, 0, len(weeks))
		for _, w := range weeks {
			d.QtyTrend = append(d.QtyTrend, SupplierTrendPoint{
				Label: weekLabel(w),
				Qty:   buckets[bucketKey(w)],
			})
		}
		return nil
	})
	g.Go(func() error {
		// The stacked chart needs the top products first; the per-product
		// weekly series depend on their ids, so both run in one task.
		top, err := s.topProducts(gctx, pool, id, weeksSince)
		if err != nil {
			return err
		}
		for _, tp := range top {
			d.TopProducts = append(d.TopProducts, TopItem{Label: tp.name, Value: tp.qty})
		}
		trends, err := s.topProductTrends(gctx, pool, top, weeks, weeksSince)
		if err != nil {
			return err
		}
		d.TopProductTrends = trends
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *supplierService) fetch(ctx context.Context, pool *pgxpool.Pool, id int) (*SupplierInfo, error) {
	const q = `
		SELECT s.id, s.name, s.account_number, s.account_name,
		       (SELECT COUNT(*) FROM products p WHERE p.supplier_id = s.id)
		FROM suppliers s
		WHERE s.id = $1`
	var info SupplierInfo
	err := pool.QueryRow(ctx, q, id).Scan(
		&info.ID, &info.Name, &info.AccountNumber, &info.AccountName, &info.ProductCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch supplier %d: %w", id, err)
	}
	return &info, nil
}

type rankedProduct struct {
	id   int
	name string
	qty  float64
}

// topProducts ranks the supplier's products by units sold inside the trend
// window, capped at 10.
func (s *supplierService) topProducts(ctx context.Context, pool *pgxpool.Pool, id int, since time.Time) ([]rankedProduct, error) {
	const q = `
		SELECT p.id, p.name, SUM(dd.qty) AS qty
		FROM delivery_details dd
		JOIN deliveries d ON d.id = dd.delivery_id
		JOIN products p ON p.id = dd.product_id
		WHERE p.supplier_id = $1 AND d.delivery_date >= $2
		GROUP BY p.id, p.name
		ORDER BY qty DESC, p.name ASC
		LIMIT 10`
	rows, err := pool.Query(ctx, q, id, since)
	if err != nil {
		return nil, fmt.Errorf("supplier top products: %w", err)
	}
	defer rows.Close()

	var top []rankedProduct
	for rows.Next() {
		var rp rankedProduct
		var qty decimal.Decimal
		if err := rows.Scan(&rp.id, &rp.name, &qty); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		rp.qty = fnum(qty)
		top = append(top, rp)
	}
	return top, rows.Err()
}

// topProductTrends builds the flat (week, product) matrix for the stacked
// chart: ranked product order, weeks ascending, gaps zero-filled.
func (s *supplierService) topProductTrends(ctx context.Context, pool *pgxpool.Pool, top []rankedProduct, weeks []time.Time, since time.Time) ([]SupplierTopProductPoint, error) {
	if len(top) == 0 {
		return []SupplierTopProductPoint{}, nil
	}

	ids := make([]int, 0, len(top))
	for _, tp := range top {
		ids = append(ids, tp.id)
	}

	const q = `
		SELECT dd.product_id, date_trunc('week', d.delivery_date)::date AS bucket, SUM(dd.qty)
		FROM delivery_details dd
		JOIN deliveries d ON d.id = dd.delivery_id
		WHERE dd.product_id = ANY($1) AND d.delivery_date >= $2
		GROUP BY 1, 2`
	rows, err := pool.Query(ctx, q, ids, since)
	if err != nil {
		return nil, fmt.Errorf("supplier top product trends: %w", err)
	}
	defer rows.Close()

	type cell struct {
		productID int
		week      string
	}
	qtys := map[cell]float64{}
	for rows.Next() {
		var productID int
		var bucket time.Time
		var qty decimal.Decimal
		if err := rows.Scan(&productID, &bucket, &qty); err != nil {
			return nil, fmt.Errorf("scan top product trend: %w", err)
		}
		qtys[cell{productID, bucketKey(bucket)}] = fnum(qty)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]SupplierTopProductPoint, 0, len(top)*len(weeks))
	for _, tp := range top {
		for _, w := range weeks {
			out = append(out, SupplierTopProductPoint{
				Label:       weekLabel(w),
				Qty:         qtys[cell{tp.id, bucketKey(w)}],
				ProductID:   tp.id,
				ProductName: tp.name,
			})
		}
	}
	return out, nil
}
