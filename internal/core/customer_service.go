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

// CustomerService provides read-only customer reporting queries.
type CustomerService interface {
	// List returns one page of customers matching the request. Search is a
	// case-insensitive substring match over name, phone, address and region.
	List(ctx context.Context, req ListRequest) (*CustomerPage, error)

	// Overview returns the customer dashboard summary.
	Overview(ctx context.Context) (*CustomersOverview, error)

	// Detail returns the composite analytics DTO for one customer, or
	// ErrNotFound if the id does not exist.
	Detail(ctx context.Context, id int) (*CustomerDetail, error)
}

type customerService struct {
	db *db.Manager
}

// NewCustomerService constructs a CustomerService backed by the shared pool
// manager.
func NewCustomerService(m *db.Manager) CustomerService {
	return &customerService{db: m}
}

const customerColumns = `
	c.id, c.full_name, c.phone, c.address, c.created_at, c.updated_at,
	c.rs_member, c.receive_dr_discount, c.region_id, r.name,
	c.note, c.account_name, c.account_number, c.is_active`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&c.ID, &c.FullName, &c.Phone, &c.Address, &createdAt, &updatedAt,
		&c.RSMember, &c.ReceiveDrDiscount, &c.RegionID, &c.RegionName,
		&c.Note, &c.AccountName, &c.AccountNumber, &c.IsActive,
	); err != nil {
		return nil, err
	}
	c.CreatedAt = isoTime(createdAt)
	c.UpdatedAt = isoTime(updatedAt)
	return &c, nil
}

// ── List ──────────────────────────────────────────────────────────────────────

func (s *customerService) List(ctx context.Context, req ListRequest) (*CustomerPage, error) {
	pool, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	p := normalizeList(req, customersSort)

	base := ` FROM customers c LEFT JOIN regions r ON r.id = c.region_id`
	var where string
	var args []any
	if p.search != "" {
		args = append(args, searchPattern(p.search))
		where = ` WHERE (c.full_name ILIKE $1 OR c.phone ILIKE $1 OR c.address ILIKE $1 OR r.name ILIKE $1)`
	}

	dataQ := `SELECT` + customerColumns + base + where +
		fmt.Sprintf(" ORDER BY %s LIMIT %d OFFSET %d", p.orderBy, p.limit, p.offset)
	countQ := `SELECT COUNT(*)` + base + where

	page := &CustomerPage{Data: []Customer{}, Limit: p.limit, Offset: p.offset}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := pool.Query(gctx, dataQ, args...)
		if err != nil {
			return fmt.Errorf("query customers: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			c, err := scanCustomer(rows)
			if err != nil {
				return fmt.Errorf("scan customer: %w", err)
			}
			page.Data = append(page.Data, *c)
		}
		return rows.Err()
	})
	g.Go(func() error {
		if err := pool.QueryRow(gctx, countQ, args...).Scan(&page.Total); err != nil {
			return fmt.Errorf("count customers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

// ── Overview ──────────────────────────────────────────────────────────────────

func (s *customerService) Overview(ctx context.Context) (*CustomersOverview, error) {
	pool, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	ov := &CustomersOverview{TopRegions: []RegionCount{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		const q = `
			SELECT
				(SELECT COUNT(*) FROM customers),
				(SELECT COUNT(*) FROM customers WHERE is_active IS TRUE),
				(SELECT COUNT(*) FROM customers WHERE is_active IS NOT TRUE),
				(SELECT COUNT(*) FROM customers WHERE rs_member IS TRUE),
				(SELECT COUNT(*) FROM customers WHERE receive_dr_discount IS TRUE),
				(SELECT COUNT(DISTINCT customer_id) FROM invoices
				  WHERE invoice_date >= NOW() - INTERVAL '30 days'),
				(SELECT MAX(invoice_date) FROM invoices)`
		var lastInvoice *time.Time
		if err := pool.QueryRow(gctx, q).Scan(
			&ov.Total, &ov.Active, &ov.Inactive,
			&ov.RSMember, &ov.ReceiveDrDiscount,
			&ov.WithInvoices30d, &lastInvoice,
		); err != nil {
			return fmt.Errorf("customers overview stats: %w", err)
		}
		ov.LastInvoiceDate = isoDatePtr(lastInvoice)
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT COALESCE(r.name, 'Unspecified') AS region_name, COUNT(*) AS cnt
			FROM customers c
			LEFT JOIN regions r ON r.id = c.region_id
			GROUP BY 1
			ORDER BY cnt DESC, region_name ASC
			LIMIT 5`
		rows, err := pool.Query(gctx, q)
		if err != nil {
			return fmt.Errorf("query top regions: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var rc RegionCount
			if err := rows.Scan(&rc.RegionName, &rc.Count); err != nil {
				return fmt.Errorf("scan region count: %w", err)
			}
			ov.TopRegions = append(ov.TopRegions, rc)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ov, nil
}

// ── Detail ────────────────────────────────────────────────────────────────────

// Order-value buckets are fixed: every detail carries all four, zero-filled.
var orderValueBucketLabels = [4]string{"<100K", "100K-500K", "500K-1M", "1M+"}

// fillBuckets expands sparse bucket counts into the full fixed bucket list.
func fillBuckets(counts map[int]int) []BucketSlice {
	out := make([]BucketSlice, 0, len(orderValueBucketLabels))
	for i, label := range orderValueBucketLabels {
		out = append(out, BucketSlice{Label: label, Count: counts[i]})
	}
	return out
}

// recencyDays returns whole days elapsed since last, or nil if last is nil.
func recencyDays(now time.Time, last *time.Time) *int {
	if last == nil {
		return nil
	}
	days := int(now.Sub(*last).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

func (s *customerService) Detail(ctx context.Context, id int) (*CustomerDetail, error) {
	pool, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	cust, err := s.fetch(ctx, pool, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	months := monthSpine(now, trendMonths)
	since := months[0]

	d := &CustomerDetail{
		Customer:          *cust,
		CategoryBreakdown: []CategorySlice{},
	}
	var lastInvoice, lastDelivery *time.Time

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		const q = `SELECT COUNT(*), MAX(invoice_date) FROM invoices WHERE customer_id = $1`
		if err := pool.QueryRow(gctx, q, id).Scan(&d.InvoiceCount, &lastInvoice); err != nil {
			return fmt.Errorf("customer invoice stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		const q = `SELECT COUNT(*), MAX(delivery_date) FROM deliveries WHERE customer_id = $1`
		if err := pool.QueryRow(gctx, q, id).Scan(&d.DeliveryCount, &lastDelivery); err != nil {
			return fmt.Errorf("customer delivery stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT date_trunc('month', invoice_date)::date AS bucket, COUNT(*)
			FROM invoices
			WHERE customer_id = $1 AND invoice_date >= $2
			GROUP BY 1`
		buckets, err := queryCountBuckets(gctx, pool, q, id, since)
		if err != nil {
			return fmt.Errorf("customer invoice trend: %w", err)
		}
		d.InvoiceTrend = fillCounts(months, buckets, monthLabel)
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT date_trunc('month', delivery_date)::date AS bucket, COUNT(*)
			FROM deliveries
			WHERE customer_id = $1 AND delivery_date >= $2
			GROUP BY 1`
		buckets, err := queryCountBuckets(gctx, pool, q, id, since)
		if err != nil {
			return fmt.Errorf("customer delivery trend: %w", err)
		}
		d.DeliveryTrend = fillCounts(months, buckets, monthLabel)
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT date_trunc('month', d.delivery_date)::date AS bucket,
			       SUM(dd.qty * dd.unit_price)
			FROM deliveries d
			JOIN delivery_details dd ON dd.delivery_id = d.id
			WHERE d.customer_id = $1 AND d.delivery_date >= $2
			GROUP BY 1`
		buckets, err := queryAmountBuckets(gctx, pool, q, id, since)
		if err != nil {
			return fmt.Errorf("customer spend trend: %w", err)
		}
		d.SpendTrend = fillAmounts(months, buckets, monthLabel)
		return nil
	})
	g.Go(func() error {
		const q = `
			SELECT COALESCE(pc.name, 'Uncategorized') AS label,
			       SUM(dd.qty * dd.unit_price) AS amount
			FROM deliveries d
			JOIN delivery_details dd ON dd.delivery_id = d.id
			JOIN products p ON p.id = dd.product_id
			LEFT JOIN product_categories pc ON pc.id = p.category_id
			WHERE d.customer_id = $1
			GROUP BY 1
			ORDER BY amount DESC, label ASC
			LIMIT 8`
		rows, err := pool.Query(gctx, q, id)
		if err != nil {
			return fmt.Errorf("customer category breakdown: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var label string
			var amount decimal.Decimal
			if err := rows.Scan(&label, &amount); err != nil {
				return fmt.Errorf("scan category slice: %w", err)
			}
			d.CategoryBreakdown = append(d.CategoryBreakdown, CategorySlice{Label: label, Amount: fnum(amount)})
		}
		return rows.Err()
	})
	g.Go(func() error {
		const q = `
			SELECT CASE
			         WHEN t.total < 100000 THEN 0
			         WHEN t.total < 500000 THEN 1
			         WHEN t.total < 1000000 THEN 2
			         ELSE 3
			       END AS bucket,
			       COUNT(*)
			FROM (
				SELECT d.id, SUM(dd.qty * dd.unit_price) AS total
				FROM deliveries d
				JOIN delivery_details dd ON dd.delivery_id = d.id
				WHERE d.customer_id = $1
				GROUP BY d.id
			) t
			GROUP BY 1`
		rows, err := pool.Query(gctx, q, id)
		if err != nil {
			return fmt.Errorf("customer order value buckets: %w", err)
		}
		defer rows.Close()
		counts := map[int]int{}
		for rows.Next() {
			var bucket, count int
			if err := rows.Scan(&bucket, &count); err != nil {
				return fmt.Errorf("scan order value bucket: %w", err)
			}
			counts[bucket] = count
		}
		if err := rows.Err(); err != nil {
			return err
		}
		d.OrderValueBuckets = fillBuckets(counts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.LastInvoiceDate = isoDatePtr(lastInvoice)
	d.LastDeliveryDate = isoDatePtr(lastDelivery)
	d.LastActivityDate = laterDate(lastInvoice, lastDelivery)

	d.RFM.RecencyDays = recencyDays(now, lastDelivery)
	d.RFM.Frequency = d.DeliveryCount
	for _, p := range d.SpendTrend {
		d.RFM.Monetary += p.Amount
	}
	return d, nil
}

func (s *customerService) fetch(ctx context.Context, pool *pgxpool.Pool, id int) (*Customer, error) {
	q := `SELECT` + customerColumns + `
		FROM customers c
		LEFT JOIN regions r ON r.id = c.region_id
		WHERE c.id = $1`
	c, err := scanCustomer(pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch customer %d: %w", id, err)
	}
	return c, nil
}

// laterDate returns the later of two nullable dates as an ISO string.
func laterDate(a, b *time.Time) *string {
	switch {
	case a == nil:
		return isoDatePtr(b)
	case b == nil:
		return isoDatePtr(a)
	case a.After(*b):
		return isoDatePtr(a)
	default:
		return isoDatePtr(b)
	}
}

// queryCountBuckets runs a two-column (bucket date, count) query into a map
// keyed for spine fill.
func queryCountBuckets(ctx context.Context, pool *pgxpool.Pool, q string, args ...any) (map[string]int, error) {
	rows, err := pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var bucket time.Time
		var count int
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, err
		}
		out[bucketKey(bucket)] = count
	}
	return out, rows.Err()
}

// queryAmountBuckets is queryCountBuckets for summed numeric columns.
func queryAmountBuckets(ctx context.Context, pool *pgxpool.Pool, q string, args ...any) (map[string]float64, error) {
	rows, err := pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var bucket time.Time
		var amount decimal.Decimal
		if err := rows.Scan(&bucket, &amount); err != nil {
			return nil, err
		}
		out[bucketKey(bucket)] = fnum(amount)
	}
	return out, rows.Err()
}
