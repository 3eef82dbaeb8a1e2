package web

// Bulk import endpoints. Item files are validated into a preview that is
// committed into a requisition in a second request; component files are
// stored directly when every row is valid.

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/partsdesk/internal/core"
	"github.com/JonMunkholm/partsdesk/internal/logging"
	"github.com/JonMunkholm/partsdesk/internal/web/templates"
)

// handleImportItems validates an uploaded item file and returns the preview.
// A file where every row failed still yields a preview with status 200; the
// client decides from the error list.
func (s *Server) handleImportItems(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}

	p, err := s.service.PreviewImport(r.Context(), name, data)
	if err != nil {
		fail(w, r, err)
		return
	}

	if isHTMX(r) {
		renderHTML(w, r, http.StatusOK, templates.ImportPreview(p))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id, err := previewParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	p, err := s.service.GetImportPreview(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if isHTMX(r) {
		renderHTML(w, r, http.StatusOK, templates.ImportPreview(p))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type commitRequest struct {
	RequisitionID string `json:"requisitionId"`
}

type commitResponse struct {
	Requisition core.Requisition `json:"requisition"`
	Added       int              `json:"added"`
}

// handleCommitImport adds a preview's valid items to a requisition.
func (s *Server) handleCommitImport(w http.ResponseWriter, r *http.Request) {
	previewID, err := previewParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	var body commitRequest
	if err := decodeJSON(w, r, &body); err != nil {
		fail(w, r, err)
		return
	}
	reqID, err := uuid.Parse(body.RequisitionID)
	if err != nil {
		fail(w, r, &core.InputError{Errors: []core.ValidationError{{
			Field: "requisitionId", Message: "requisitionId must be a UUID", Value: body.RequisitionID,
		}}})
		return
	}

	// Count before committing; the preview is gone afterwards.
	p, err := s.service.GetImportPreview(previewID)
	if err != nil {
		fail(w, r, err)
		return
	}
	added := len(p.ValidItems)

	req, err := s.service.CommitImport(r.Context(), previewID, reqID)
	if err != nil {
		fail(w, r, err)
		return
	}

	if isHTMX(r) {
		renderHTML(w, r, http.StatusOK, templates.CommitResult(req, added))
		return
	}
	writeJSON(w, http.StatusOK, commitResponse{Requisition: req, Added: added})
}

func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	id, err := previewParam(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.service.DiscardImport(id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportStatus reports limiter usage for dashboards and load balancers.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ImportStatus())
}

// handleImportComponents imports an inventory file for one component kind.
// Any row error rejects the whole file with 422 and the error list.
func (s *Server) handleImportComponents(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseComponentKind(chi.URLParam(r, "kind"))
	if err != nil {
		fail(w, r, err)
		return
	}

	name, data, err := s.readUpload(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}

	res, err := s.service.ImportComponents(r.Context(), kind, name, data)
	if err != nil {
		fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if len(res.Errors) > 0 || res.Inserted == 0 {
		status = http.StatusUnprocessableEntity
		logging.WithFields(r.Context(), "kind", kind, "file", name).
			Info("component import rejected", "errors", len(res.Errors))
	}
	writeJSON(w, status, res)
}

// previewParam parses the preview id; malformed ids are unknown previews.
func previewParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "previewID"))
	if err != nil {
		return uuid.Nil, core.ErrPreviewNotFound
	}
	return id, nil
}
