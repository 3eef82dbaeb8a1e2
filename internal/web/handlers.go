package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

// handleListRequisitions lists requisitions, newest first. Optional
// ?status= and ?project= narrow the result.
func (s *Server) handleListRequisitions(w http.ResponseWriter, r *http.Request) {
	var f core.RequisitionFilter

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st, err := core.ParseStatus(raw)
		if err != nil {
			fail(w, r, err)
			return
		}
		f.Status = st
	}
	f.ProjectCode = r.URL.Query().Get("project")

	reqs, err := s.service.ListRequisitions(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []core.Requisition{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *Server) handleGetRequisition(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	d, err := s.service.GetRequisition(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRequisitionStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.RequisitionStats(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleRequisitionPDF renders into a buffer first so a failure can still be
// reported as a normal error response.
func (s *Server) handleRequisitionPDF(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.service.ExportRequisitionPDF(r.Context(), id, &buf); err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="requisition-%s.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
