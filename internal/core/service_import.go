package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PreviewImport validates an item file and keeps the result until it is
// committed, discarded or expires.
func (s *Service) PreviewImport(ctx context.Context, fileName string, data []byte) (*ImportPreview, error) {
	if s.opts.MaxFileSize > 0 && int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), s.opts.MaxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	res := ImportItems(fileName, data)

	p := newImportPreview(fileName, res, s.now().Add(s.opts.PreviewTTL))
	p.CreatedBy = actorID(ctx)
	s.previews.put(p)

	slog.InfoContext(ctx, "import validated",
		"preview_id", p.ID,
		"file", fileName,
		"rows", res.TotalRows,
		"valid", len(res.ValidItems),
		"errors", len(res.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return p, nil
}

// GetImportPreview returns a live preview.
func (s *Service) GetImportPreview(id uuid.UUID) (*ImportPreview, error) {
	p, ok := s.previews.get(id, s.now())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPreviewNotFound, id)
	}
	return p, nil
}

// CommitImport adds a preview's valid items to a requisition. The preview is
// claimed for the duration of the commit and restored if the items could not
// be stored, so concurrent commits of one preview cannot both succeed.
func (s *Service) CommitImport(ctx context.Context, previewID, requisitionID uuid.UUID) (Requisition, error) {
	p, ok := s.previews.take(previewID, s.now())
	if !ok {
		return Requisition{}, fmt.Errorf("%w: %s", ErrPreviewNotFound, previewID)
	}
	if len(p.ValidItems) == 0 {
		s.previews.put(p)
		return Requisition{}, ErrNothingToCommit
	}

	req, err := s.AddItems(ctx, requisitionID, p.ValidItems)
	if err != nil {
		s.previews.put(p)
		return Requisition{}, err
	}

	slog.InfoContext(ctx, "import committed", "preview_id", previewID, "requisition_id", requisitionID, "items", len(p.ValidItems))
	return req, nil
}

// DiscardImport forgets a preview.
func (s *Service) DiscardImport(previewID uuid.UUID) error {
	if !s.previews.remove(previewID) {
		return fmt.Errorf("%w: %s", ErrPreviewNotFound, previewID)
	}
	return nil
}

// PurgeExpiredPreviews drops expired previews and returns how many were removed.
func (s *Service) PurgeExpiredPreviews() int {
	return s.previews.purge(s.now())
}

// ImportStatus reports limiter usage and how many previews are held.
type ImportStatus struct {
	Limiter  ImportLimiterStatus `json:"limiter"`
	Previews int                 `json:"previews"`
}

// ImportStatus returns the current import load.
func (s *Service) ImportStatus() ImportStatus {
	return ImportStatus{
		Limiter:  s.limiter.Status(),
		Previews: s.previews.len(),
	}
}

// ComponentImportResult summarises a component file import.
type ComponentImportResult struct {
	Kind      ComponentKind     `json:"kind"`
	TotalRows int               `json:"totalRows"`
	Inserted  int               `json:"inserted"`
	Errors    []ValidationError `json:"errors"`
}

// ParseComponents decodes and validates a component file without storing
// anything. Components are returned only when every row is valid.
func ParseComponents(kind ComponentKind, fileName string, data []byte) (*ComponentImportResult, []Component, error) {
	schema, err := ComponentSchema(kind)
	if err != nil {
		return nil, nil, err
	}

	res := &ComponentImportResult{Kind: kind, Errors: []ValidationError{}}

	table, err := ReadTable(fileName, data)
	if err != nil {
		res.Errors = append(res.Errors, fileError(fileName, err))
		return res, nil, nil
	}
	res.TotalRows = len(table.Rows)

	valid, errs := validateTable(table, schema.Fields)
	if len(errs) > 0 {
		res.Errors = append(res.Errors, errs...)
		return res, nil, nil
	}

	comps := make([]Component, 0, len(valid))
	for _, nr := range valid {
		c := schema.BuildComponent(nr.Record)
		c.Kind = kind
		comps = append(comps, c)
	}
	return res, comps, nil
}

// ImportComponents validates a component file and, when every row is valid,
// inserts all rows in one store call.
func (s *Service) ImportComponents(ctx context.Context, kind ComponentKind, fileName string, data []byte) (*ComponentImportResult, error) {
	if s.opts.MaxFileSize > 0 && int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), s.opts.MaxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	res, comps, err := ParseComponents(kind, fileName, data)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 || len(comps) == 0 {
		return res, nil
	}

	now := s.now().UTC()
	for i := range comps {
		comps[i].ID = uuid.New()
		comps[i].CreatedAt = now
	}
	if err := s.store.InsertComponents(ctx, comps); err != nil {
		return nil, fmt.Errorf("import %s components: %w", kind, err)
	}
	res.Inserted = len(comps)

	slog.InfoContext(ctx, "components imported", "kind", kind, "file", fileName, "inserted", res.Inserted)
	return res, nil
}
