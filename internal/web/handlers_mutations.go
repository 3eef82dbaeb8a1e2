package web

import (
	"net/http"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

// handleCreateRequisition creates a requisition from a JSON body.
func (s *Server) handleCreateRequisition(w http.ResponseWriter, r *http.Request) {
	var in core.RequisitionInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, err)
		return
	}

	d, err := s.service.CreateRequisition(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/requisitions/"+d.ID.String())
	writeJSON(w, http.StatusCreated, d)
}

type addItemsRequest struct {
	Items []core.PurchaseItem `json:"items"`
}

// handleAddItems appends items to a Pending requisition.
func (s *Server) handleAddItems(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	var body addItemsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		fail(w, r, err)
		return
	}

	req, err := s.service.AddItems(r.Context(), id, body.Items)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// handleTransitionStatus moves a requisition along the workflow.
func (s *Server) handleTransitionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	var body statusRequest
	if err := decodeJSON(w, r, &body); err != nil {
		fail(w, r, err)
		return
	}
	to, err := core.ParseStatus(body.Status)
	if err != nil {
		fail(w, r, err)
		return
	}

	req, err := s.service.TransitionStatus(r.Context(), id, to, body.Note)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// handleDuplicateRequisition copies a requisition's items into a new
// Pending requisition.
func (s *Server) handleDuplicateRequisition(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	d, err := s.service.DuplicateRequisition(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/requisitions/"+d.ID.String())
	writeJSON(w, http.StatusCreated, d)
}
