package app

import (
	"context"

	"inventory-reports/internal/core"
	"inventory-reports/internal/db"
)

// ApplicationService is the single interface all presentation adapters call.
// It decouples transport from the query layer. Implementations contain no
// display logic of any kind.
type ApplicationService interface {
	// PingDatabase runs the health probe round trip.
	PingDatabase(ctx context.Context) (*db.PingResult, error)

	// ListCustomers returns one page of customers.
	ListCustomers(ctx context.Context, req core.ListRequest) (*core.CustomerPage, error)

	// CustomersOverview returns the customer dashboard summary.
	CustomersOverview(ctx context.Context) (*core.CustomersOverview, error)

	// CustomerDetail returns analytics for one customer, or core.ErrNotFound.
	CustomerDetail(ctx context.Context, id int) (*core.CustomerDetail, error)

	// ListProducts returns one page of products.
	ListProducts(ctx context.Context, req core.ListRequest) (*core.ProductPage, error)

	// ProductsOverview returns the product dashboard summary.
	ProductsOverview(ctx context.Context) (*core.ProductsOverview, error)

	// ProductDetail returns analytics for one product, or core.ErrNotFound.
	ProductDetail(ctx context.Context, id int) (*core.ProductDetail, error)

	// ListSuppliers returns one page of suppliers with computed aggregates.
	ListSuppliers(ctx context.Context, req core.ListRequest) (*core.SupplierPage, error)

	// SuppliersOverview returns the supplier dashboard summary.
	SuppliersOverview(ctx context.Context) (*core.SuppliersOverview, error)

	// SupplierDetail returns analytics for one supplier, or core.ErrNotFound.
	SupplierDetail(ctx context.Context, id int) (*core.SupplierDetail, error)
}
