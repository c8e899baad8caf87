package core

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 20
	minLimit     = 1
	maxLimit     = 100
)

// ListRequest carries the common pagination/search/sort inputs of every
// list operation. Nil Limit/Offset mean "use defaults"; explicit values are
// clamped, never rejected.
type ListRequest struct {
	Search  string `json:"search"`
	Limit   *int   `json:"limit"`
	Offset  *int   `json:"offset"`
	SortBy  string `json:"sortBy"`
	SortDir string `json:"sortDir"`
}

// listParams is the normalized, injection-safe form of a ListRequest: the
// ORDER BY body is resolved from the entity allow-list, never from input.
type listParams struct {
	search  string
	limit   int
	offset  int
	orderBy string
}

// sortSpec maps the logical sort keys of one entity to orderable SQL
// expressions. Every resolved ORDER BY ends with the primary key ascending
// so pagination stays deterministic when the sort column has ties.
type sortSpec struct {
	columns    map[string]string
	defaultKey string
	tiebreak   string
}

func (s sortSpec) resolve(sortBy, sortDir string) string {
	expr, ok := s.columns[sortBy]
	if !ok {
		expr = s.columns[s.defaultKey]
	}
	dir := "ASC"
	if strings.EqualFold(sortDir, "desc") {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, %s ASC", expr, dir, s.tiebreak)
}

var customersSort = sortSpec{
	columns: map[string]string{
		"fullName":  "c.full_name",
		"phone":     "c.phone",
		"region":    "r.name",
		"createdAt": "c.created_at",
		"updatedAt": "c.updated_at",
		"isActive":  "c.is_active",
	},
	defaultKey: "fullName",
	tiebreak:   "c.id",
}

var productsSort = sortSpec{
	columns: map[string]string{
		"name":      "p.name",
		"price":     "p.price",
		"cost":      "p.cost",
		"category":  "pc.name",
		"supplier":  "s.name",
		"createdAt": "p.created_at",
		"updatedAt": "p.updated_at",
		"isActive":  "p.is_active",
	},
	defaultKey: "name",
	tiebreak:   "p.id",
}

// Supplier sort keys point at the aggregate aliases of the grouped list
// query rather than stored columns.
var suppliersSort = sortSpec{
	columns: map[string]string{
		"name":         "s.name",
		"productCount": "product_count",
		"soldQty":      "sold_qty",
		"revenue":      "revenue",
	},
	defaultKey: "name",
	tiebreak:   "s.id",
}

// normalizeList clamps pagination values and resolves the sort expression.
// Out-of-range inputs are normalized silently, not rejected.
func normalizeList(req ListRequest, spec sortSpec) listParams {
	limit := defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
		if limit < minLimit {
			limit = minLimit
		}
		if limit > maxLimit {
			limit = maxLimit
		}
	}

	offset := 0
	if req.Offset != nil && *req.Offset > 0 {
		offset = *req.Offset
	}

	return listParams{
		search:  strings.TrimSpace(req.Search),
		limit:   limit,
		offset:  offset,
		orderBy: spec.resolve(req.SortBy, req.SortDir),
	}
}

// searchPattern turns a free-text term into the ILIKE substring pattern
// shared by the data and count queries of a list call.
func searchPattern(term string) string {
	return "%" + term + "%"
}
