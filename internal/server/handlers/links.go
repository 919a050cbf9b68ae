package handlers

import (
	"net/http"

	"github.com/go-chi/chi"

	"git.home.luguber.info/inful/linkbio/internal/events"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/links"
	"git.home.luguber.info/inful/linkbio/internal/observability"
	"git.home.luguber.info/inful/linkbio/internal/server/responses"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

// LinkHandlers serves the link API.
type LinkHandlers struct {
	links        *links.Service
	errorAdapter *errors.HTTPErrorAdapter
}

// NewLinkHandlers creates the link API handlers.
func NewLinkHandlers(svc *links.Service, adapter *errors.HTTPErrorAdapter) *LinkHandlers {
	return &LinkHandlers{links: svc, errorAdapter: adapter}
}

type reorderRequest struct {
	Items []store.ReorderItem `json:"items"`
}

// HandleList returns the user's links in display order.
func (h *LinkHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	list, err := h.links.List(r.Context(), u.ID)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, list)
}

// HandleCreate adds a link.
func (h *LinkHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	var req links.CreateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	link, err := h.links.Create(r.Context(), u.ID, req)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, link)
}

// HandleUpdate applies a partial update to a link the user owns.
func (h *LinkHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	var req links.UpdateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	link, err := h.links.Update(r.Context(), u.ID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, link)
}

// HandleDelete removes a link the user owns.
func (h *LinkHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := h.links.Delete(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, responses.MessageResponse{Message: "Link deleted successfully"})
}

// HandleReorder assigns new orders to a batch of links in one transaction.
func (h *LinkHandlers) HandleReorder(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := h.links.Reorder(r.Context(), u.ID, req.Items); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, responses.MessageResponse{Message: "Links reordered successfully"})
}

// HandleClick counts a click on any link and returns the new count. It is public.
func (h *LinkHandlers) HandleClick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	clicks, err := h.links.Click(observability.WithLinkID(r.Context(), id), id, events.VisitFromRequest(r))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, responses.ClickResponse{Clicks: clicks})
}
