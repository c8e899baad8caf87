package web

import "net/http"

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListCustomers(r.Context(), parseListRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, page)
}

func (h *Handler) customersOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.CustomersOverview(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, ov)
}

func (h *Handler) customerDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.CustomerDetail(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, detail)
}
