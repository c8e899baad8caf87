package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-reports/internal/core"
	"inventory-reports/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	exec(t, pool, `INSERT INTO product_categories (id, name) VALUES (1, 'Tools'), (2, 'Fasteners')`)
	exec(t, pool, `INSERT INTO suppliers (id, name) VALUES (1, 'Acme'), (2, 'Globex')`)
	exec(t, pool, `
		INSERT INTO products (id, name, price, cost, unit, category_id, supplier_id, is_active) VALUES
		(1, 'Hammer', 50000, 30000, 'pcs', 1, 1, TRUE),
		(2, 'Nails', 1000, 600, 'box', 2, 1, TRUE),
		(3, 'Wrench', 75000, 45000, 'pcs', 1, 2, FALSE)`)
}

func TestProductList(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	seedProducts(t, pool)

	svc := core.NewProductService(db.ManagerForPool(pool))
	ctx := context.Background()

	t.Run("search matches supplier name", func(t *testing.T) {
		page, err := svc.List(ctx, core.ListRequest{Search: "acme"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if page.Total != 2 {
			t.Fatalf("total: want 2, got %d", page.Total)
		}
	})

	t.Run("sort by price descending", func(t *testing.T) {
		page, err := svc.List(ctx, core.ListRequest{SortBy: "price", SortDir: "desc"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if page.Data[0].Name != "Wrench" {
			t.Errorf("first row: want Wrench, got %s", page.Data[0].Name)
		}
		if page.Data[0].SupplierName == nil || *page.Data[0].SupplierName != "Globex" {
			t.Errorf("supplier join: got %v", page.Data[0].SupplierName)
		}
	})
}

func TestProductOverview(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	seedProducts(t, pool)

	today := time.Now().UTC().Format("2006-01-02")
	exec(t, pool, `INSERT INTO customers (id, full_name) VALUES (1, 'John Baker')`)
	exec(t, pool, `INSERT INTO deliveries (id, customer_id, delivery_date) VALUES (1, 1, $1)`, today)
	exec(t, pool, `INSERT INTO delivery_details (delivery_id, product_id, qty, unit_price) VALUES (1, 1, 3, 50000)`)
	exec(t, pool, `INSERT INTO purchases (id, supplier_id, purchase_date) VALUES (1, 1, $1)`, today)
	exec(t, pool, `INSERT INTO purchase_details (purchase_id, product_id, qty, unit_price) VALUES (1, 1, 10, 28000)`)

	svc := core.NewProductService(db.ManagerForPool(pool))
	ov, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}

	if ov.Total != 3 || ov.Active != 2 || ov.Inactive != 1 {
		t.Errorf("counts: got total=%d active=%d inactive=%d", ov.Total, ov.Active, ov.Inactive)
	}
	if ov.Categories != 2 || ov.Suppliers != 2 {
		t.Errorf("distinct counts: got categories=%d suppliers=%d", ov.Categories, ov.Suppliers)
	}
	if ov.Sold30d != 3 {
		t.Errorf("sold30d: want 3, got %v", ov.Sold30d)
	}
	if ov.Purchased30d != 10 {
		t.Errorf("purchased30d: want 10, got %v", ov.Purchased30d)
	}
	if ov.LastSaleDate == nil || *ov.LastSaleDate != today {
		t.Errorf("lastSaleDate: want %s, got %v", today, ov.LastSaleDate)
	}
	if len(ov.TopCategories) == 0 || ov.TopCategories[0].Label != "Tools" || ov.TopCategories[0].Value != 2 {
		t.Errorf("topCategories: got %+v", ov.TopCategories)
	}
	if len(ov.TopSellers30d) != 1 || ov.TopSellers30d[0].Label != "Hammer" || ov.TopSellers30d[0].Value != 3 {
		t.Errorf("topSellers30d: got %+v", ov.TopSellers30d)
	}
}

func TestProductDetail_SalesAndMargin(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	seedProducts(t, pool)

	exec(t, pool, `INSERT INTO customers (id, full_name) VALUES (1, 'John Baker'), (2, 'Alice Wong')`)

	today := time.Now().UTC().Format("2006-01-02")
	exec(t, pool, `INSERT INTO deliveries (id, customer_id, delivery_date) VALUES (1, 1, $1), (2, 2, $1)`, today)
	// First line costs out at qty*cost (2*30000); second carries an
	// explicit overall_cost that overrides it.
	exec(t, pool, `
		INSERT INTO delivery_details (delivery_id, product_id, qty, unit_price, overall_cost) VALUES
		(1, 1, 2, 50000, NULL),
		(2, 1, 1, 50000, 25000)`)
	exec(t, pool, `INSERT INTO purchases (id, supplier_id, purchase_date) VALUES (1, 1, $1)`, today)
	exec(t, pool, `INSERT INTO purchase_details (purchase_id, product_id, qty, unit_price) VALUES (1, 1, 10, 28000)`)

	svc := core.NewProductService(db.ManagerForPool(pool))
	d, err := svc.Detail(context.Background(), 1)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}

	if d.Product.Name != "Hammer" {
		t.Errorf("product: got %s", d.Product.Name)
	}
	if d.Totals.SoldQty != 3 {
		t.Errorf("soldQty: want 3, got %v", d.Totals.SoldQty)
	}
	if d.Totals.PurchasedQty != 10 {
		t.Errorf("purchasedQty: want 10, got %v", d.Totals.PurchasedQty)
	}
	if d.Totals.Revenue != 150000 {
		t.Errorf("revenue: want 150000, got %v", d.Totals.Revenue)
	}
	if d.Totals.COGS != 85000 {
		t.Errorf("cogs: want 85000, got %v", d.Totals.COGS)
	}
	if d.Totals.Margin != 65000 {
		t.Errorf("margin: want 65000, got %v", d.Totals.Margin)
	}
	// 10 purchased minus 3 delivered.
	if d.Totals.CurrentStock != 7 {
		t.Errorf("currentStock: want 7, got %v", d.Totals.CurrentStock)
	}

	if len(d.SalesTrend) != 6 {
		t.Fatalf("salesTrend: want 6 points, got %d", len(d.SalesTrend))
	}
	if d.SalesTrend[5].Revenue != 150000 || d.SalesTrend[5].OverallCost != 85000 {
		t.Errorf("salesTrend current month: got %+v", d.SalesTrend[5])
	}
	if len(d.QtyTrend) != 26 {
		t.Fatalf("qtyTrend: want 26 points, got %d", len(d.QtyTrend))
	}
	if d.QtyTrend[25].Qty != 3 {
		t.Errorf("qtyTrend current week: want 3, got %v", d.QtyTrend[25].Qty)
	}
	if d.QtyTrend[25].Month == "" {
		t.Errorf("qtyTrend month caption missing")
	}

	if len(d.TopCustomers) != 2 {
		t.Fatalf("topCustomers: want 2, got %d", len(d.TopCustomers))
	}
	if d.TopCustomers[0].Label != "John Baker" || d.TopCustomers[0].Value != 2 {
		t.Errorf("top customer: got %+v", d.TopCustomers[0])
	}
	if d.LatestStockMatch != nil {
		t.Errorf("latestStockMatch: want nil, got %+v", d.LatestStockMatch)
	}
}

func TestProductDetail_ZeroSales(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	seedProducts(t, pool)

	svc := core.NewProductService(db.ManagerForPool(pool))
	d, err := svc.Detail(context.Background(), 2)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}

	if d.Totals.SoldQty != 0 || d.Totals.PurchasedQty != 0 {
		t.Errorf("quantities: want 0/0, got %v/%v", d.Totals.SoldQty, d.Totals.PurchasedQty)
	}
	if d.Totals.Revenue != 0 || d.Totals.COGS != 0 || d.Totals.Margin != 0 {
		t.Errorf("money totals: want zeros, got %+v", d.Totals)
	}
	if d.Totals.CurrentStock != 0 {
		t.Errorf("currentStock: want 0, got %v", d.Totals.CurrentStock)
	}
	if d.Totals.LastSaleDate != nil {
		t.Errorf("lastSaleDate: want nil, got %q", *d.Totals.LastSaleDate)
	}
	if d.Totals.LastPurchaseDate != nil {
		t.Errorf("lastPurchaseDate: want nil, got %q", *d.Totals.LastPurchaseDate)
	}

	if len(d.SalesTrend) != 6 || len(d.PurchaseTrend) != 6 {
		t.Fatalf("trend lengths: got %d/%d", len(d.SalesTrend), len(d.PurchaseTrend))
	}
	for _, p := range d.SalesTrend {
		if p.Revenue != 0 || p.OverallCost != 0 {
			t.Errorf("salesTrend should be all zero, got %+v", p)
		}
	}
	if len(d.QtyTrend) != 26 {
		t.Fatalf("qtyTrend: want 26 points, got %d", len(d.QtyTrend))
	}
	for _, p := range d.QtyTrend {
		if p.Qty != 0 {
			t.Errorf("qtyTrend should be all zero, got %+v", p)
		}
	}

	if len(d.StockMovements) != 0 {
		t.Errorf("stockMovements: want empty, got %d", len(d.StockMovements))
	}
	if len(d.TopCustomers) != 0 {
		t.Errorf("topCustomers: want empty, got %d", len(d.TopCustomers))
	}
	if d.LatestStockMatch != nil {
		t.Errorf("latestStockMatch: want nil, got %+v", d.LatestStockMatch)
	}
}

func TestProductDetail_StockLedger(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	seedProducts(t, pool)
	exec(t, pool, `INSERT INTO customers (id, full_name) VALUES (1, 'John Baker')`)

	now := time.Now().UTC()
	d0 := now.Format("2006-01-02")
	d1 := now.AddDate(0, 0, -1).Format("2006-01-02")
	d2 := now.AddDate(0, 0, -2).Format("2006-01-02")
	d3 := now.AddDate(0, 0, -3).Format("2006-01-02")

	exec(t, pool, `INSERT INTO purchases (id, supplier_id, purchase_date) VALUES (1, 1, $1)`, d3)
	exec(t, pool, `INSERT INTO purchase_details (purchase_id, product_id, qty, unit_price) VALUES (1, 1, 20, 28000)`)
	exec(t, pool, `INSERT INTO deliveries (id, customer_id, delivery_date) VALUES (1, 1, $1)`, d2)
	exec(t, pool, `INSERT INTO delivery_details (delivery_id, product_id, qty, unit_price) VALUES (1, 1, 5, 50000)`)
	exec(t, pool, `INSERT INTO stock_adjustments (product_id, adjustment_date, amount, description) VALUES (1, $1, -2, 'breakage')`, d1)
	exec(t, pool, `INSERT INTO draws (product_id, draw_date, amount, description) VALUES (1, $1, 1, 'demo unit')`, d1)
	exec(t, pool, `INSERT INTO stock_matches (product_id, match_date, qty, description) VALUES (1, $1, 12, 'count')`, d0)

	svc := core.NewProductService(db.ManagerForPool(pool))
	detail, err := svc.Detail(context.Background(), 1)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}

	// 20 purchased - 5 delivered - 2 adjusted - 1 drawn. The match row is an
	// observation and never enters the balance.
	if detail.Totals.CurrentStock != 12 {
		t.Errorf("currentStock: want 12, got %v", detail.Totals.CurrentStock)
	}

	if len(detail.StockMovements) != 5 {
		t.Fatalf("stockMovements: want 5, got %d", len(detail.StockMovements))
	}
	// Newest first: match today, then the two same-day rows, delivery, purchase.
	if detail.StockMovements[0].Kind != "match" {
		t.Errorf("first movement: want match, got %s", detail.StockMovements[0].Kind)
	}
	if detail.StockMovements[4].Kind != "purchase" || detail.StockMovements[4].Qty != 20 {
		t.Errorf("last movement: got %+v", detail.StockMovements[4])
	}
	for _, m := range detail.StockMovements {
		switch m.Kind {
		case "delivery":
			if m.Qty != -5 {
				t.Errorf("delivery qty: want -5, got %v", m.Qty)
			}
			if m.Ref == nil || *m.Ref != "DLV-1" {
				t.Errorf("delivery ref: got %v", m.Ref)
			}
		case "draw":
			if m.Qty != -1 {
				t.Errorf("draw qty: want -1, got %v", m.Qty)
			}
		case "adjustment":
			if m.Qty != -2 {
				t.Errorf("adjustment qty: want -2, got %v", m.Qty)
			}
		}
	}

	if detail.LatestStockMatch == nil {
		t.Fatal("latestStockMatch: want value, got nil")
	}
	if detail.LatestStockMatch.Qty == nil || *detail.LatestStockMatch.Qty != 12 {
		t.Errorf("latestStockMatch qty: got %v", detail.LatestStockMatch.Qty)
	}
	if detail.LatestStockMatch.Date == nil || *detail.LatestStockMatch.Date != d0 {
		t.Errorf("latestStockMatch date: got %v", detail.LatestStockMatch.Date)
	}
}

func TestProductDetail_KeepStockSinceWindow(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	seedProducts(t, pool)
	exec(t, pool, `INSERT INTO customers (id, full_name) VALUES (1, 'John Baker')`)

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -10).Format("2006-01-02")
	before := now.AddDate(0, 0, -20).Format("2006-01-02")
	after := now.AddDate(0, 0, -5).Format("2006-01-02")

	exec(t, pool, `UPDATE products SET keep_stock_since = $1 WHERE id = 1`, cutoff)
	// The older purchase predates the window and must not count.
	exec(t, pool, `INSERT INTO purchases (id, supplier_id, purchase_date) VALUES (1, 1, $1), (2, 1, $2)`, before, after)
	exec(t, pool, `
		INSERT INTO purchase_details (purchase_id, product_id, qty, unit_price) VALUES
		(1, 1, 100, 28000),
		(2, 1, 8, 28000)`)

	svc := core.NewProductService(db.ManagerForPool(pool))
	detail, err := svc.Detail(context.Background(), 1)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if detail.Totals.CurrentStock != 8 {
		t.Errorf("currentStock: want 8 (windowed), got %v", detail.Totals.CurrentStock)
	}
	// Lifetime totals ignore the stock window.
	if detail.Totals.PurchasedQty != 108 {
		t.Errorf("purchasedQty: want 108, got %v", detail.Totals.PurchasedQty)
	}
}

func TestProductDetail_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewProductService(db.ManagerForPool(pool))
	_, err := svc.Detail(context.Background(), 42)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
