package web

import (
	"net/http"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

// handleRequisitionTimeline returns the events recorded for a requisition,
// oldest first.
func (s *Server) handleRequisitionTimeline(w http.ResponseWriter, r *http.Request) {
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

	events := d.Timeline
	if events == nil {
		events = []core.RequisitionEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
