package web

// Shared request helpers and the small endpoints that do not belong to a
// resource.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

const (
	// maxJSONBody bounds JSON request bodies.
	maxJSONBody = 1 << 20

	// multipartOverhead is allowed on top of the file size limit for the
	// multipart envelope.
	multipartOverhead = 64 << 10
)

// uuidParam parses a UUID path parameter. A malformed id is reported as not
// found since it cannot name an existing record.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %q", core.ErrNotFound, name, raw)
	}
	return id, nil
}

// readUpload returns the name and contents of the "file" form field. The
// body is capped at the configured import size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := s.cfg.Import.MaxFileSize
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return "", nil, fmt.Errorf("%w: exceeds %d bytes", core.ErrFileTooLarge, limit)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return "", nil, errNoFile
		}
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	data, err := core.ReadLimited(file, limit)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(header.Filename), data, nil
}

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMe returns the authenticated user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.service.CurrentUser(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
