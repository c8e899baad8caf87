package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Customers ─────────────────────────────────────────────────────────────────

// Customer is one row of the customer list. Nullable columns are pointers so
// NULL survives the trip to the presentation layer instead of collapsing to
// "" or 0.
type Customer struct {
	ID                int     `json:"id"`
	FullName          string  `json:"fullName"`
	Phone             *string `json:"phone"`
	Address           *string `json:"address"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
	RSMember          *bool   `json:"rsMember"`
	ReceiveDrDiscount *bool   `json:"receiveDrDiscount"`
	RegionID          *int    `json:"regionId"`
	RegionName        *string `json:"regionName"`
	Note              *string `json:"note"`
	AccountName       *string `json:"accountName"`
	AccountNumber     *string `json:"accountNumber"`
	IsActive          *bool   `json:"isActive"`
}

// CustomerPage is a paginated customer list. Total is the filtered,
// un-paginated row count.
type CustomerPage struct {
	Data   []Customer `json:"data"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// RegionCount is one entry of the top-regions leaderboard.
type RegionCount struct {
	RegionName string `json:"regionName"`
	Count      int    `json:"count"`
}

type CustomersOverview struct {
	Total             int           `json:"total"`
	Active            int           `json:"active"`
	Inactive          int           `json:"inactive"`
	RSMember          int           `json:"rsMember"`
	ReceiveDrDiscount int           `json:"receiveDrDiscount"`
	WithInvoices30d   int           `json:"withInvoices30d"`
	LastInvoiceDate   *string       `json:"lastInvoiceDate"`
	TopRegions        []RegionCount `json:"topRegions"`
}

// TrendPoint is one bucket of a count trend series.
type TrendPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TrendAmountPoint is one bucket of a monetary trend series.
type TrendAmountPoint struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// CategorySlice is one slice of a spend-by-category breakdown.
type CategorySlice struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// BucketSlice is one fixed order-value bucket with its delivery count.
type BucketSlice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RFM is the Recency/Frequency/Monetary customer-value triple.
// RecencyDays is nil for customers with no deliveries.
type RFM struct {
	RecencyDays *int    `json:"recencyDays"`
	Frequency   int     `json:"frequency"`
	Monetary    float64 `json:"monetary"`
}

type CustomerDetail struct {
	Customer          Customer           `json:"customer"`
	InvoiceCount      int                `json:"invoiceCount"`
	DeliveryCount     int                `json:"deliveryCount"`
	LastInvoiceDate   *string            `json:"lastInvoiceDate"`
	LastDeliveryDate  *string            `json:"lastDeliveryDate"`
	LastActivityDate  *string            `json:"lastActivityDate"`
	InvoiceTrend      []TrendPoint       `json:"invoiceTrend"`
	DeliveryTrend     []TrendPoint       `json:"deliveryTrend"`
	SpendTrend        []TrendAmountPoint `json:"spendTrend"`
	CategoryBreakdown []CategorySlice    `json:"categoryBreakdown"`
	OrderValueBuckets []BucketSlice      `json:"orderValueBuckets"`
	RFM               RFM                `json:"rfm"`
}

// ── Products ──────────────────────────────────────────────────────────────────

type Product struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	ResellerPrice  *float64 `json:"resellerPrice"`
	Cost           float64  `json:"cost"`
	Unit           string   `json:"unit"`
	CategoryID     *int     `json:"categoryId"`
	CategoryName   *string  `json:"categoryName"`
	SupplierID     *int     `json:"supplierId"`
	SupplierName   *string  `json:"supplierName"`
	KeepStockSince *string  `json:"keepStockSince"`
	RestockNumber  *float64 `json:"restockNumber"`
	IsActive       *bool    `json:"isActive"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
}

type ProductPage struct {
	Data   []Product `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// TopItem is one (label, metric) pair of a leaderboard widget.
type TopItem struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type ProductsOverview struct {
	Total            int       `json:"total"`
	Active           int       `json:"active"`
	Inactive         int       `json:"inactive"`
	Categories       int       `json:"categories"`
	Suppliers        int       `json:"suppliers"`
	Purchased30d     float64   `json:"purchased30d"`
	Sold30d          float64   `json:"sold30d"`
	LastPurchaseDate *string   `json:"lastPurchaseDate"`
	LastSaleDate     *string   `json:"lastSaleDate"`
	TopCategories    []TopItem `json:"topCategories"`
	TopSuppliers     []TopItem `json:"topSuppliers"`
	TopSellers30d    []TopItem `json:"topSellers30d"`
}

// ProductTrendPoint is one month of sales or purchase activity: revenue next
// to the overall cost of the same lines.
type ProductTrendPoint struct {
	Label       string  `json:"label"`
	Revenue     float64 `json:"revenue"`
	OverallCost float64 `json:"overallCost"`
}

// ProductQtyTrendPoint is one week of unit movement. Month carries the
// "Jan 2006" caption of the week start for chart tooltips.
type ProductQtyTrendPoint struct {
	Label string  `json:"label"`
	Qty   float64 `json:"qty"`
	Month string  `json:"month"`
}

// StockMovement is a single dated stock-affecting event. Outbound kinds
// (delivery, draw) carry negative quantities.
type StockMovement struct {
	Date        string  `json:"date"`
	Kind        string  `json:"kind"` // purchase | delivery | adjustment | match | draw
	Qty         float64 `json:"qty"`
	Description *string `json:"description"`
	Ref         *string `json:"ref"`
}

// StockMatchInfo is the most recent physical count for a product.
type StockMatchInfo struct {
	Date        *string  `json:"date"`
	Qty         *float64 `json:"qty"`
	Description *string  `json:"description"`
}

type ProductTotals struct {
	SoldQty          float64 `json:"soldQty"`
	PurchasedQty     float64 `json:"purchasedQty"`
	Revenue          float64 `json:"revenue"`
	COGS             float64 `json:"cogs"`
	Margin           float64 `json:"margin"`
	LastSaleDate     *string `json:"lastSaleDate"`
	LastPurchaseDate *string `json:"lastPurchaseDate"`
	CurrentStock     float64 `json:"currentStock"`
}

type ProductDetail struct {
	Product          Product                `json:"product"`
	Totals           ProductTotals          `json:"totals"`
	SalesTrend       []ProductTrendPoint    `json:"salesTrend"`
	PurchaseTrend    []ProductTrendPoint    `json:"purchaseTrend"`
	QtyTrend         []ProductQtyTrendPoint `json:"qtyTrend"`
	StockMovements   []StockMovement        `json:"stockMovements"`
	TopCustomers     []TopItem              `json:"topCustomers"`
	LatestStockMatch *StockMatchInfo        `json:"latestStockMatch"`
}

// ── Suppliers ─────────────────────────────────────────────────────────────────

// Supplier is one row of the supplier list. ProductCount, SoldQty and
// Revenue are computed aggregates, not stored columns.
type Supplier struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	AccountNumber *string `json:"accountNumber"`
	AccountName   *string `json:"accountName"`
	ProductCount  int     `json:"productCount"`
	SoldQty       float64 `json:"soldQty"`
	Revenue       float64 `json:"revenue"`
}

type SupplierPage struct {
	Data   []Supplier `json:"data"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type SuppliersOverview struct {
	Total        int     `json:"total"`
	Products     int     `json:"products"`
	SoldQty      float64 `json:"soldQty"`
	Revenue      float64 `json:"revenue"`
	LastSaleDate *string `json:"lastSaleDate"`
}

// SupplierTrendPoint is one week of unit movement across a supplier's
// products.
type SupplierTrendPoint struct {
	Label string  `json:"label"`
	Qty   float64 `json:"qty"`
}

// SupplierTopProductPoint is one (week, product) cell of the stacked
// top-products chart.
type SupplierTopProductPoint struct {
	Label       string  `json:"label"`
	Qty         float64 `json:"qty"`
	ProductID   int     `json:"productId"`
	ProductName string  `json:"productName"`
}

// SupplierInfo is the supplier header of a detail page.
type SupplierInfo struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	AccountNumber *string `json:"accountNumber"`
	AccountName   *string `json:"accountName"`
	ProductCount  int     `json:"productCount"`
}

type SupplierTotals struct {
	SoldQty      float64 `json:"soldQty"`
	Revenue      float64 `json:"revenue"`
	LastSaleDate *string `json:"lastSaleDate"`
}

type SupplierDetail struct {
	Supplier         SupplierInfo              `json:"supplier"`
	Totals           SupplierTotals            `json:"totals"`
	QtyTrend         []SupplierTrendPoint      `json:"qtyTrend"`
	TopProductTrends []SupplierTopProductPoint `json:"topProductTrends"`
	TopProducts      []TopItem                 `json:"topProducts"`
}

// ── Normalization helpers ─────────────────────────────────────────────────────

// isoTime renders a timestamp in the canonical RFC 3339 form DTOs carry
// across the process boundary.
func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// isoDate renders a date column as YYYY-MM-DD.
func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func isoDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := isoDate(*t)
	return &s
}

// fnum converts a scanned numeric into the float64 DTO representation.
// Precision loss is an accepted tolerance of the reporting context.
func fnum(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func fnumPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := fnum(*d)
	return &f
}
