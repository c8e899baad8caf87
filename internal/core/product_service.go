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

// ProductService provides read-only product reporting queries.
type ProductService interface {
	// List returns one page of products matching the request. Search covers
	// product, category and supplier names.
	List(ctx context.Context, req ListRequest) (*ProductPage, error)

	// Overview returns the product dashboard summary.
	Overview(ctx context.Context) (*ProductsOverview, error)

	// Detail returns the composite analytics DTO for one product, or
	// ErrNotFound if the id does not exist. currentStock is reconstructed as
	// purchased - delivered + adjustments - draws, each term windowed to the
	// product's keep_stock_since date when set.
	Detail(ctx context.Context, id int) (*ProductDetail, error)
}

type productService struct {
	db *db.Manager
}

// NewProductService constructs a ProductService backed by the shared pool
// manager.
func NewProductService(m *db.Manager) ProductService {
	return &productService{db: m}
}

const productColumns = `
	p.id, p.name, p.price, p.reseller_price, p.cost, p.unit,
	p.category_id, pc.name, p.supplier_id, s.name,
	p.keep_stock_since, p.restock_number, p.is_active, p.created_at, p.updated_at`

const productJoins = ` FROM products p
	LEFT JOIN product_categories pc ON pc.id = p.category_id
	LEFT JOIN suppliers s ON s.id = p.supplier_id`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var price, cost decimal.Decimal
	var resellerPrice, restockNumber *decimal.Decimal
	var keepStockSince *time.Time
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&p.ID, &p.Name, &price, &resellerPrice, &cost, &p.Unit,
		&p.CategoryID, &p.CategoryName, &p.SupplierID, &p.SupplierName,
		&keepStockSince, &restockNumber, &p.IsActive, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	p.Price = fnum(price)
	p.ResellerPrice = fnumPtr(resellerPrice)
	p.Cost = fnum(cost)
	p.RestockNumber = fnumPtr(restockNumber)
	p.KeepStockSince = isoDatePtr(keepStockSince)
	p.CreatedAt = isoTime(createdAt)
	p.UpdatedAt = isoTime(updatedAt)
	return &p, nil
}

// ── List ──────────────────────────────────────────────────────────────────────

func (s *productService) List(ctx context.Context, req ListRequest) (*ProductPage, error) {
	pool, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	p := normalizeList(req, productsSort)

	var where string
	var args []any
	if p.search != "" {
		args = append(args, searchPattern(p.search))
		where = ` WHERE (p.name ILIKE $1 OR pc.name ILIKE $1 OR s.name ILIKE $1)`
	}

	dataQ := `SELECT` + productColumns + productJoins + where +
		fmt.Sprintf(" ORDER BY %s LIMIT %d OFFSET %d", p.orderBy, p.limit, p.offset)
	countQ := `SELECT COUNT(*)` + productJoins + where

	page := &ProductPage{Data: []Product{}, Limit: p.limit, Offset: p.offset}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := pool.Query(gctx, dataQ, args...)
		if err != nil {
			return fmt.Errorf("query products: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			prod, err := scanProduct(rows)
			if err != nil {
				return fmt.Errorf("scan product: %w", err)
			}
			page.Data = append(page.Data, *prod)
		}
		return rows.Err()
	})
	g.Go(func() error {
		if err := pool.QueryRow(gctx, countQ, args...).Scan(&page.Total); err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

// ── Overview ──────────────────────────────────────────────────────────────────

func (s *productService) Overview(ctx context.Context) (*ProductsOverview, error) {
	pool, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	ov := &ProductsOverview{
		TopCategories: []TopItem{},
		TopSuppliers:  []TopItem{},
		TopSellers30d: []TopItem{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		const q = `
			SELECT
				(SELECT COUNT(*) FROM products),
				(SELECT COUNT(*) FROM products WHERE is_active IS TRUE),
				(SELECT COUNT(*) FROM products WHERE is_active IS NOT TRUE),
				(SELECT COUNT(DISTINCT category_id) FROM products WHERE category_id IS NOT NULL),
				(SELECT COUNT(DISTINCT supplier_id) FROM products WHERE supplier_id IS NOT NULL),
				COALESCE((SELECT SUM(pd.qty) FROM purchase_details pd
				           JOIN purchases pu ON pu.id = pd.purchase_id
				           WHERE pu.purchase_date >= NOW() - INTERVAL '30 days'), 0),
				COALESCE((SELECT SUM(dd.qty) FROM delivery_details dd
				           JOIN deliveries d ON d.id = dd.delivery_id
				           WHERE d.delivery_date >= NOW() - INTERVAL '30 days'), 0),
				(SELECT MAX(purchase_date) FROM purchases),
				(SELECT MAX(delivery_date) FROM deliveries)`
		var purchased30d, sold30d decimal.Decimal
		var lastPurchase, lastSale *time.Time
		if err := pool.QueryRow(gctx, q).Scan(
			&ov.Total, &ov.Active, &ov.Inactive,
			&ov.Categories, &ov.Suppliers,
			&purchased30d, &sold30d,
			&lastPurchase, &lastSale,
		); err != nil {
			return fmt.Errorf("products overview stats: %w", err)
		}
		ov.Purchased30d = fnum(purchased30d)
		ov.Sold30d = fnum(sold30d)
		ov.LastPurchaseDate = isoDatePtr(lastPurchase)
		ov.LastSaleDate = isoDatePtr(lastSale)
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT COALESCE(pc.name, 'Uncategorized') AS label, COUNT(*)::numeric AS value
			FROM products p
			LEFT JOIN product_categories pc ON pc.id = p.category_id
			GROUP BY 1
			ORDER BY value DESC, label ASC
			LIMIT 5`
		items, err := queryTopItems(gctx, pool, q)
		if err != nil {
			return fmt.Errorf("top categories: %w", err)
		}
		ov.TopCategories = items
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT COALESCE(s.name, 'Unspecified') AS label, COUNT(*)::numeric AS value
			FROM products p
			LEFT JOIN suppliers s ON s.id = p.supplier_id
			GROUP BY 1
			ORDER BY value DESC, label ASC
			LIMIT 5`
		items, err := queryTopItems(gctx, pool, q)
		if err != nil {
			return fmt.Errorf("top suppliers: %w", err)
		}
		ov.TopSuppliers = items
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT p.name AS label, SUM(dd.qty) AS value
			FROM delivery_details dd
			JOIN deliveries d ON d.id = dd.delivery_id
			JOIN products p ON p.id = dd.product_id
			WHERE d.delivery_date >= NOW() - INTERVAL '30 days'
			GROUP BY 1
			ORDER BY value DESC, label ASC
			LIMIT 5`
		items, err := queryTopItems(gctx, pool, q)
		if err != nil {
			return fmt.Errorf("top sellers: %w", err)
		}
		ov.TopSellers30d = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ov, nil
}

// ── Detail ────────────────────────────────────────────────────────────────────

func (s *productService) Detail(ctx context.Context, id int) (*ProductDetail, error) {
	pool, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	prod, err := s.fetch(ctx, pool, id)
	if err != nil {
		return nil, err
	}

	// Stock terms are optionally windowed by keep_stock_since; the queries
	// take the bound as a nullable date argument.
	var keepSince *time.Time
	if prod.KeepStockSince != nil {
		t, err := time.Parse("2006-01-02", *prod.KeepStockSince)
		if err == nil {
			keepSince = &t
		}
	}

	now := time.Now()
	months := monthSpine(now, trendMonths)
	monthsSince := months[0]
	weeks := weekSpine(now, trendWeeks)
	weeksSince := weeks[0]

	d := &ProductDetail{
		Product:        *prod,
		StockMovements: []StockMovement{},
		TopCustomers:   []TopItem{},
	}
	var revenue, cogs decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		const q = `
			SELECT
				COALESCE(SUM(dd.qty), 0),
				COALESCE(SUM(dd.qty * dd.unit_price), 0),
				COALESCE(SUM(COALESCE(dd.overall_cost, dd.qty * p.cost)), 0),
				MAX(d.delivery_date)
			FROM delivery_details dd
			JOIN deliveries d ON d.id = dd.delivery_id
			JOIN products p ON p.id = dd.product_id
			WHERE dd.product_id = $1`
		var soldQty decimal.Decimal
		var lastSale *time.Time
		if err := pool.QueryRow(gctx, q, id).Scan(&soldQty, &revenue, &cogs, &lastSale); err != nil {
			return fmt.Errorf("product sales totals: %w", err)
		}
		d.Totals.SoldQty = fnum(soldQty)
		d.Totals.LastSaleDate = isoDatePtr(lastSale)
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT COALESCE(SUM(pd.qty), 0), MAX(pu.purchase_date)
			FROM purchase_details pd
			JOIN purchases pu ON pu.id = pd.purchase_id
			WHERE pd.product_id = $1`
		var purchasedQty decimal.Decimal
		var lastPurchase *time.Time
		if err := pool.QueryRow(gctx, q, id).Scan(&purchasedQty, &lastPurchase); err != nil {
			return fmt.Errorf("product purchase totals: %w", err)
		}
		d.Totals.PurchasedQty = fnum(purchasedQty)
		d.Totals.LastPurchaseDate = isoDatePtr(lastPurchase)
		return nil
	})
	g.Go(func() error {
		stock, err := stockBalance(gctx, pool, id, keepSince)
		if err != nil {
			return err
		}
		d.Totals.CurrentStock = fnum(stock)
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT date_trunc('month', d.delivery_date)::date AS bucket,
			       SUM(dd.qty * dd.unit_price),
			       SUM(COALESCE(dd.overall_cost, dd.qty * p.cost))
			FROM delivery_details dd
			JOIN deliveries d ON d.id = dd.delivery_id
			JOIN products p ON p.id = dd.product_id
			WHERE dd.product_id = $1 AND d.delivery_date >= $2
			GROUP BY 1`
		trend, err := queryValueCostTrend(gctx, pool, q, months, id, monthsSince)
		if err != nil {
			return fmt.Errorf("product sales trend: %w", err)
		}
		d.SalesTrend = trend
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT date_trunc('month', pu.purchase_date)::date AS bucket,
			       SUM(pd.qty * pd.unit_price),
			       SUM(COALESCE(pd.overall_cost, pd.qty * p.cost))
			FROM purchase_details pd
			JOIN purchases pu ON pu.id = pd.purchase_id
			JOIN products p ON p.id = pd.product_id
			WHERE pd.product_id = $1 AND pu.purchase_date >= $2
			GROUP BY 1`
		trend, err := queryValueCostTrend(gctx, pool, q, months, id, monthsSince)
		if err != nil {
			return fmt.Errorf("product purchase trend: %w", err)
		}
		d.PurchaseTrend = trend
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT date_trunc('week', d.delivery_date)::date AS bucket, SUM(dd.qty)
			FROM delivery_details dd
			JOIN deliveries d ON d.id = dd.delivery_id
			WHERE dd.product_id = $1 AND d.delivery_date >= $2
			GROUP BY 1`
		buckets, err := queryAmountBuckets(gctx, pool, q, id, weeksSince)
		if err != nil {
			return fmt.Errorf("product qty trend: %w", err)
		}
		d.QtyTrend = make([]ProductQtyTrendPoint, 0, len(weeks))
		for _, w := range weeks {
			d.QtyTrend = append(d.QtyTrend, ProductQtyTrendPoint{
				Label: weekLabel(w),
				Qty:   buckets[bucketKey(w)],
				Month: monthLabel(w),
			})
		}
		return nil
	})
	g.Go(func() error {
		movements, err := stockLedger(gctx, pool, id)
		if err != nil {
			return err
		}
		d.StockMovements = movements
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT COALESCE(c.full_name, 'Unknown') AS label, SUM(dd.qty) AS value
			FROM delivery_details dd
			JOIN deliveries d ON d.id = dd.delivery_id
			LEFT JOIN customers c ON c.id = d.customer_id
			WHERE dd.product_id = $1
			GROUP BY 1
			ORDER BY value DESC, label ASC
			LIMIT 5`
		items, err := queryTopItems(gctx, pool, q, id)
		if err != nil {
			return fmt.Errorf("product top customers: %w", err)
		}
		d.TopCustomers = items
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT match_date, qty, description
			FROM stock_matches
			WHERE product_id = $1
			ORDER BY match_date DESC, id DESC
			LIMIT 1`
		var date time.Time
		var qty decimal.Decimal
		var description *string
		err := pool.QueryRow(gctx, q, id).Scan(&date, &qty, &description)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("latest stock match: %w", err)
		}
		dateStr := isoDate(date)
		qtyVal := fnum(qty)
		d.LatestStockMatch = &StockMatchInfo{Date: &dateStr, Qty: &qtyVal, Description: description}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Totals.Revenue = fnum(revenue)
	d.Totals.COGS = fnum(cogs)
	d.Totals.Margin = fnum(revenue.Sub(cogs))
	return d, nil
}

func (s *productService) fetch(ctx context.Context, pool *pgxpool.Pool, id int) (*Product, error) {
	q := `SELECT` + productColumns + productJoins + ` WHERE p.id = $1`
	p, err := scanProduct(pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch product %d: %w", id, err)
	}
	return p, nil
}

// stockBalance reconstructs on-hand stock from the four transaction sources.
// Stock matches are observations and do not enter the balance; any counted
// difference is carried by an adjustment row.
func stockBalance(ctx context.Context, pool *pgxpool.Pool, id int, since *time.Time) (decimal.Decimal, error) {
	const q = `
		SELECT
			COALESCE((SELECT SUM(pd.qty) FROM purchase_details pd
			           JOIN purchases pu ON pu.id = pd.purchase_id
			           WHERE pd.product_id = $1
			             AND ($2::date IS NULL OR pu.purchase_date >= $2)), 0),
			COALESCE((SELECT SUM(dd.qty) FROM delivery_details dd
			           JOIN deliveries d ON d.id = dd.delivery_id
			           WHERE dd.product_id = $1
			             AND ($2::date IS NULL OR d.delivery_date >= $2)), 0),
			COALESCE((SELECT SUM(amount) FROM stock_adjustments
			           WHERE product_id = $1
			             AND ($2::date IS NULL OR adjustment_date >= $2)), 0),
			COALESCE((SELECT SUM(amount) FROM draws
			           WHERE product_id = $1
			             AND ($2::date IS NULL OR draw_date >= $2)), 0)`
	var purchased, delivered, adjustments, draws decimal.Decimal
	if err := pool.QueryRow(ctx, q, id, since).Scan(&purchased, &delivered, &adjustments, &draws); err != nil {
		return decimal.Zero, fmt.Errorf("stock balance terms: %w", err)
	}
	return purchased.Sub(delivered).Add(adjustments).Sub(draws), nil
}

// stockLedger returns the unioned event log of everything that moved this
// product's stock, newest first, capped at 50 entries.
func stockLedger(ctx context.Context, pool *pgxpool.Pool, id int) ([]StockMovement, error) {
	const q = `
		SELECT event_date, kind, qty, description, ref FROM (
			SELECT d.delivery_date AS event_date, 'delivery' AS kind,
			       -dd.qty AS qty, NULL::text AS description,
			       'DLV-' || d.id AS ref, dd.id AS row_id
			FROM delivery_details dd
			JOIN deliveries d ON d.id = dd.delivery_id
			WHERE dd.product_id = $1
			UNION ALL
			SELECT pu.purchase_date, 'purchase', pd.qty, NULL,
			       'PUR-' || pu.id, pd.id
			FROM purchase_details pd
			JOIN purchases pu ON pu.id = pd.purchase_id
			WHERE pd.product_id = $1
			UNION ALL
			SELECT adjustment_date, 'adjustment', amount, description,
			       'ADJ-' || id, id
			FROM stock_adjustments
			WHERE product_id = $1
			UNION ALL
			SELECT match_date, 'match', qty, description, 'MTC-' || id, id
			FROM stock_matches
			WHERE product_id = $1
			UNION ALL
			SELECT draw_date, 'draw', -amount, description, 'DRW-' || id, id
			FROM draws
			WHERE product_id = $1
		) ev
		ORDER BY event_date DESC, kind ASC, row_id DESC
		LIMIT 50`
	rows, err := pool.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("query stock ledger: %w", err)
	}
	defer rows.Close()

	movements := []StockMovement{}
	for rows.Next() {
		var m StockMovement
		var date time.Time
		var qty decimal.Decimal
		var ref *string
		if err := rows.Scan(&date, &m.Kind, &qty, &m.Description, &ref); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Date = isoDate(date)
		m.Qty = fnum(qty)
		m.Ref = ref
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// queryTopItems runs a (label, numeric value) ranking query.
func queryTopItems(ctx context.Context, pool *pgxpool.Pool, q string, args ...any) ([]TopItem, error) {
	rows, err := pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []TopItem{}
	for rows.Next() {
		var label string
		var value decimal.Decimal
		if err := rows.Scan(&label, &value); err != nil {
			return nil, err
		}
		items = append(items, TopItem{Label: label, Value: fnum(value)})
	}
	return items, rows.Err()
}

// queryValueCostTrend runs a (bucket, revenue, overall cost) query and
// zero-fills it over the month spine.
func queryValueCostTrend(ctx context.Context, pool *pgxpool.Pool, q string, spine []time.Time, args ...any) ([]ProductTrendPoint, error) {
	rows, err := pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type valueCost struct {
		value, cost float64
	}
	buckets := map[string]valueCost{}
	for rows.Next() {
		var bucket time.Time
		var value, cost decimal.Decimal
		if err := rows.Scan(&bucket, &value, &cost); err != nil {
			return nil, err
		}
		buckets[bucketKey(bucket)] = valueCost{value: fnum(value), cost: fnum(cost)}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]ProductTrendPoint, 0, len(spine))
	for _, p := range spine {
		vc := buckets[bucketKey(p)]
		out = append(out, ProductTrendPoint{
			Label:       monthLabel(p),
			Revenue:     vc.value,
			OverallCost: vc.cost,
		})
	}
	return out, nil
}
