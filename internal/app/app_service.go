package app

import (
	"context"

	"inventory-reports/internal/core"
	"inventory-reports/internal/db"
)

type appService struct {
	db        *db.Manager
	customers core.CustomerService
	products  core.ProductService
	suppliers core.SupplierService
}

// NewAppService wires the core services behind the ApplicationService seam.
func NewAppService(
	m *db.Manager,
	customers core.CustomerService,
	products core.ProductService,
	suppliers core.SupplierService,
) ApplicationService {
	return &appService{
		db:        m,
		customers: customers,
		products:  products,
		suppliers: suppliers,
	}
}

func (s *appService) PingDatabase(ctx context.Context) (*db.PingResult, error) {
	return s.db.Ping(ctx)
}

func (s *appService) ListCustomers(ctx context.Context, req core.ListRequest) (*core.CustomerPage, error) {
	return s.customers.List(ctx, req)
}

func (s *appService) CustomersOverview(ctx context.Context) (*core.CustomersOverview, error) {
	return s.customers.Overview(ctx)
}

func (s *appService) CustomerDetail(ctx context.Context, id int) (*core.CustomerDetail, error) {
	return s.customers.Detail(ctx, id)
}

func (s *appService) ListProducts(ctx context.Context, req core.ListRequest) (*core.ProductPage, error) {
	return s.products.List(ctx, req)
}

func (s *appService) ProductsOverview(ctx context.Context) (*core.ProductsOverview, error) {
	return s.products.Overview(ctx)
}

func (s *appService) ProductDetail(ctx context.Context, id int) (*core.ProductDetail, error) {
	return s.products.Detail(ctx, id)
}

func (s *appService) ListSuppliers(ctx context.Context, req core.ListRequest) (*core.SupplierPage, error) {
	return s.suppliers.List(ctx, req)
}

func (s *appService) SuppliersOverview(ctx context.Context) (*core.SuppliersOverview, error) {
	return s.suppliers.Overview(ctx)
}

func (s *appService) SupplierDetail(ctx context.Context, id int) (*core.SupplierDetail, error) {
	return s.suppliers.Detail(ctx, id)
}
