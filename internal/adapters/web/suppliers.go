package web

import "net/http"

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListSuppliers(r.Context(), parseListRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, page)
}

func (h *Handler) suppliersOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.SuppliersOverview(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, ov)
}

func (h *Handler) supplierDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.SupplierDetail(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, detail)
}
