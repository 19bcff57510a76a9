package handler

import (
	"net/http"

	"github.com/sakif/sitebook/internal/service"
)

// ContractorHandler exposes ContractorService over HTTP.
//
// All routes require authentication. Contractors have no public listing.
type ContractorHandler struct {
	contractors *service.ContractorService
	resp        *Responder
}

func NewContractorHandler(contractors *service.ContractorService, resp *Responder) *ContractorHandler {
	return &ContractorHandler{contractors: contractors, resp: resp}
}

// HandleList returns the caller's contractors ordered by name.
//
// HTTP: GET /api/contractors?limit=&offset=
func (h *ContractorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	contractors, err := h.contractors.List(r.Context(), user.ID, opts)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contractors)
}

// HandleCreate creates a contractor owned by the caller.
//
// HTTP: POST /api/contractors
// REQUEST BODY: {"name": "Acme Roofing", "email": "info@acme.com", "trades": ["roofing"]}
//
// A 409 means another contractor, possibly another user's, already has the
// email address.
func (h *ContractorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}

	var in service.CreateContractorInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	contractor, err := h.contractors.Create(r.Context(), user.ID, in)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contractor)
}

// HandleGet returns one contractor. 404 if it does not exist, 403 if it belongs
// to someone else.
//
// HTTP: GET /api/contractors/{id}
func (h *ContractorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}

	contractor, err := h.contractors.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contractor)
}

// HandleUpdate applies a partial update. PUT and PATCH behave the same:
// fields missing from the body are left unchanged.
//
// HTTP: PUT|PATCH /api/contractors/{id}
func (h *ContractorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}

	var in service.UpdateContractorInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	contractor, err := h.contractors.Update(r.Context(), user.ID, r.PathValue("id"), in)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contractor)
}

// HandleDelete removes a contractor and echoes its id.
//
// HTTP: DELETE /api/contractors/{id}
func (h *ContractorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.contractors.Delete(r.Context(), user.ID, id); err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteAck{Message: "contractor deleted", ID: id})
}
