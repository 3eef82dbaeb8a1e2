package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.service.ListProjects(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if projects == nil {
		projects = []core.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in core.ProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, err)
		return
	}

	p, err := s.service.CreateProject(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/projects/"+p.Code)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetProject(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	allocs, err := s.service.ListAllocations(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if allocs == nil {
		allocs = []core.Allocation{}
	}
	writeJSON(w, http.StatusOK, allocs)
}

type allocateRequest struct {
	Allocations []core.AllocationRequest `json:"allocations"`
}

// handleAllocate reserves inventory for a project. Either every request is
// satisfied or stock is left unchanged.
func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var body allocateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		fail(w, r, err)
		return
	}

	allocs, err := s.service.AllocateComponents(r.Context(), chi.URLParam(r, "code"), body.Allocations)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, allocs)
}

// handleListComponents lists inventory for the {kind} path segment, or all
// of it on /api/components.
func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	var kind core.ComponentKind
	if raw := strings.TrimSpace(chi.URLParam(r, "kind")); raw != "" {
		k, err := core.ParseComponentKind(raw)
		if err != nil {
			fail(w, r, err)
			return
		}
		kind = k
	}

	comps, err := s.service.ListComponents(r.Context(), kind)
	if err != nil {
		fail(w, r, err)
		return
	}
	if comps == nil {
		comps = []core.Component{}
	}
	writeJSON(w, http.StatusOK, comps)
}

func (s *Server) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	kind, err := core.ParseComponentKind(chi.URLParam(r, "kind"))
	if err != nil {
		fail(w, r, err)
		return
	}

	c, err := s.service.GetComponent(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if c.Kind != kind {
		fail(w, r, fmt.Errorf("%s component %s: %w", kind, id, core.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
