package web

import "net/http"

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListProducts(r.Context(), parseListRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, page)
}

func (h *Handler) productsOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.ProductsOverview(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, ov)
}

func (h *Handler) productDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.ProductDetail(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, detail)
}
