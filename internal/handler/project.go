package handler

import (
	"net/http"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/middleware"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/service"
)

// ProjectHandler exposes ProjectService over HTTP.
//
// Every method except HandleListPublic runs behind auth.RequireAuth and
// middleware.Provision, so the local user is already in the context.
type ProjectHandler struct {
	projects *service.ProjectService
	resp     *Responder
}

func NewProjectHandler(projects *service.ProjectService, resp *Responder) *ProjectHandler {
	return &ProjectHandler{projects: projects, resp: resp}
}

// HandleListPublic returns every public project in reduced form.
//
// HTTP: GET /api/projects/public (no auth)
func (h *ProjectHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	projects, err := h.projects.ListPublic(r.Context(), opts)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// HandleList returns the caller's projects, newest first.
//
// HTTP: GET /api/projects?limit=&offset=
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	projects, err := h.projects.List(r.Context(), user.ID, opts)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// HandleCreate creates a project owned by the caller.
//
// HTTP: POST /api/projects
// REQUEST BODY: {"name": "Deck", "address": "12 Harbour Rd", "budget": 12500}
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}

	var in service.CreateProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	project, err := h.projects.Create(r.Context(), user.ID, in)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// HandleGet returns one project. 404 if it does not exist, 403 if it belongs
// to someone else.
//
// HTTP: GET /api/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}

	project, err := h.projects.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// HandleUpdate applies a partial update. PUT and PATCH behave the same:
// fields missing from the body are left unchanged.
//
// HTTP: PUT|PATCH /api/projects/{id}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}

	var in service.UpdateProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	project, err := h.projects.Update(r.Context(), user.ID, r.PathValue("id"), in)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// HandleDelete removes a project and echoes its id.
//
// HTTP: DELETE /api/projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.resp)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.projects.Delete(r.Context(), user.ID, id); err != nil {
		h.resp.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteAck{Message: "project deleted", ID: id})
}

// currentUser reads the provisioned user or writes 401.
func currentUser(w http.ResponseWriter, r *http.Request, resp *Responder) (*model.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		resp.WriteError(w, r, apperror.Unauthenticated("authentication required"))
		return nil, false
	}
	return user, true
}
