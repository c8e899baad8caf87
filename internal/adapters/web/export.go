package web

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"inventory-reports/internal/core"
)

// exportPageSize is the internal page size used when streaming a CSV export.
// Exports walk the full filtered list page by page regardless of the caller's
// limit/offset params.
const exportPageSize = 100

func exportRequest(r *http.Request, offset int) core.ListRequest {
	req := parseListRequest(r)
	limit := exportPageSize
	req.Limit = &limit
	req.Offset = &offset
	return req
}

// beginCSV sets download headers and returns a writer. Headers are only sent
// once the first page has been fetched successfully, so query errors still
// produce a JSON error response.
func beginCSV(w http.ResponseWriter, filename string) *csv.Writer {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return csv.NewWriter(w)
}

// csvSafe prevents CSV formula injection by prefixing cells that begin with a
// formula-triggering character with a single quote.
func csvSafe(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

func csvStr(s *string) string {
	if s == nil {
		return ""
	}
	return csvSafe(*s)
}

func csvBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func csvFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func csvFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return csvFloat(*f)
}

func (h *Handler) exportCustomers(w http.ResponseWriter, r *http.Request) {
	offset := 0
	page, err := h.svc.ListCustomers(r.Context(), exportRequest(r, offset))
	if err != nil {
		respondError(w, r, err)
		return
	}

	cw := beginCSV(w, "customers.csv")
	cw.Write([]string{"id", "fullName", "phone", "address", "region", "rsMember", "receiveDrDiscount", "isActive", "createdAt", "updatedAt"})
	for {
		for _, c := range page.Data {
			cw.Write([]string{
				strconv.Itoa(c.ID),
				csvSafe(c.FullName),
				csvStr(c.Phone),
				csvStr(c.Address),
				csvStr(c.RegionName),
				csvBool(c.RSMember),
				csvBool(c.ReceiveDrDiscount),
				csvBool(c.IsActive),
				c.CreatedAt,
				c.UpdatedAt,
			})
		}
		if len(page.Data) < exportPageSize {
			break
		}
		offset += exportPageSize
		page, err = h.svc.ListCustomers(r.Context(), exportRequest(r, offset))
		if err != nil {
			log.Printf("request %s: export customers aborted at offset %d: %v", requestIDFromContext(r.Context()), offset, err)
			break
		}
	}
	cw.Flush()
}

func (h *Handler) exportProducts(w http.ResponseWriter, r *http.Request) {
	offset := 0
	page, err := h.svc.ListProducts(r.Context(), exportRequest(r, offset))
	if err != nil {
		respondError(w, r, err)
		return
	}

	cw := beginCSV(w, "products.csv")
	cw.Write([]string{"id", "name", "price", "resellerPrice", "cost", "unit", "category", "supplier", "isActive", "createdAt", "updatedAt"})
	for {
		for _, p := range page.Data {
			cw.Write([]string{
				strconv.Itoa(p.ID),
				csvSafe(p.Name),
				csvFloat(p.Price),
				csvFloatPtr(p.ResellerPrice),
				csvFloat(p.Cost),
				csvSafe(p.Unit),
				csvStr(p.CategoryName),
				csvStr(p.SupplierName),
				csvBool(p.IsActive),
				p.CreatedAt,
				p.UpdatedAt,
			})
		}
		if len(page.Data) < exportPageSize {
			break
		}
		offset += exportPageSize
		page, err = h.svc.ListProducts(r.Context(), exportRequest(r, offset))
		if err != nil {
			log.Printf("request %s: export products aborted at offset %d: %v", requestIDFromContext(r.Context()), offset, err)
			break
		}
	}
	cw.Flush()
}

func (h *Handler) exportSuppliers(w http.ResponseWriter, r *http.Request) {
	offset := 0
	page, err := h.svc.ListSuppliers(r.Context(), exportRequest(r, offset))
	if err != nil {
		respondError(w, r, err)
		return
	}

	cw := beginCSV(w, "suppliers.csv")
	cw.Write([]string{"id", "name", "accountName", "accountNumber", "productCount", "soldQty", "revenue"})
	for {
		for _, s := range page.Data {
			cw.Write([]string{
				strconv.Itoa(s.ID),
				csvSafe(s.Name),
				csvStr(s.AccountName),
				csvStr(s.AccountNumber),
				strconv.Itoa(s.ProductCount),
				csvFloat(s.SoldQty),
				csvFloat(s.Revenue),
			})
		}
		if len(page.Data) < exportPageSize {
			break
		}
		offset += exportPageSize
		page, err = h.svc.ListSuppliers(r.Context(), exportRequest(r, offset))
		if err != nil {
			log.Printf("request %s: export suppliers aborted at offset %d: %v", requestIDFromContext(r.Context()), offset, err)
			break
		}
	}
	cw.Flush()
}
