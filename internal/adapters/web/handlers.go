package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"inventory-reports/internal/app"
	"inventory-reports/internal/core"
)

// Handler exposes the ApplicationService over HTTP/JSON.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.ping)
	r.Get("/api/database/ping", h.ping)

	r.Route("/api/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Get("/overview", h.customersOverview)
		r.Get("/export", h.exportCustomers)
		r.Get("/{id}", h.customerDetail)
	})
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/overview", h.productsOverview)
		r.Get("/export", h.exportProducts)
		r.Get("/{id}", h.productDetail)
	})
	r.Route("/api/suppliers", func(r chi.Router) {
		r.Get("/", h.listSuppliers)
		r.Get("/overview", h.suppliersOverview)
		r.Get("/export", h.exportSuppliers)
		r.Get("/{id}", h.supplierDetail)
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.PingDatabase(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// parseListRequest reads the shared list query parameters. Absent limit and
// offset stay nil so the query layer applies its defaults; out-of-range
// values are clamped there, not here.
func parseListRequest(r *http.Request) core.ListRequest {
	q := r.URL.Query()
	req := core.ListRequest{
		Search:  strings.TrimSpace(q.Get("search")),
		SortBy:  q.Get("sortBy"),
		SortDir: q.Get("sortDir"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Limit = &n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Offset = &n
		}
	}
	return req
}

// pathID parses the {id} route parameter. Non-integer ids are rejected
// before any query is issued.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "id must be an integer", "VALIDATION_ERROR", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
