package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CreateRequisition validates the input and stores a new Pending requisition.
func (s *Service) CreateRequisition(ctx context.Context, in RequisitionInput) (RequisitionDetail, error) {
	in.ProjectCode = normalizeProjectCode(in.ProjectCode)

	var errs []ValidationError
	if in.ProjectCode == "" {
		errs = append(errs, ValidationError{Field: "projectCode", Message: "projectCode is required"})
	}
	pt, ok := ParsePurchaseType(string(in.PurchaseType))
	switch {
	case strings.TrimSpace(string(in.PurchaseType)) == "":
		errs = append(errs, ValidationError{Field: "purchaseType", Message: "purchaseType is required"})
	case !ok:
		errs = append(errs, ValidationError{Field: "purchaseType", Message: "unknown purchase type", Value: string(in.PurchaseType)})
	}
	if len(in.Items) == 0 {
		errs = append(errs, ValidationError{Field: "items", Message: "at least one item is required"})
	}
	for i, item := range in.Items {
		errs = append(errs, ValidateItem(i+1, item)...)
	}
	if len(errs) > 0 {
		return RequisitionDetail{}, &InputError{Errors: errs}
	}

	requester := in.RequestedBy
	if u := UserFromContext(ctx); u != nil {
		requester = u.ID.String()
	}
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return RequisitionDetail{}, invalidField("requestedBy", "requestedBy is required", "")
	}

	project, err := s.store.GetProject(ctx, in.ProjectCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RequisitionDetail{}, invalidField("projectCode", "project does not exist", in.ProjectCode)
		}
		return RequisitionDetail{}, fmt.Errorf("create requisition: %w", err)
	}

	items := make([]PurchaseItem, len(in.Items))
	for i, item := range in.Items {
		items[i] = ApplyItemDefaults(item)
	}

	req := s.newRequisition(project.Code, pt, requester, strings.TrimSpace(in.Notes), items)
	ev := newEvent(ctx, req.ID, ActionCreated)
	ev.ToStatus = StatusPending
	ev.Note = fmt.Sprintf("%d items", len(items))

	if err := s.store.CreateRequisition(ctx, req, items, ev); err != nil {
		return RequisitionDetail{}, fmt.Errorf("create requisition: %w", err)
	}
	s.invalidateStats(ctx)

	slog.InfoContext(ctx, "requisition created",
		"requisition_id", req.ID,
		"project", req.ProjectCode,
		"items", len(items),
		"total_value", req.TotalValue,
	)
	return s.GetRequisition(ctx, req.ID)
}

func (s *Service) newRequisition(project string, pt PurchaseType, requester, notes string, items []PurchaseItem) Requisition {
	now := s.now().UTC()
	return Requisition{
		ID:           uuid.New(),
		ProjectCode:  project,
		PurchaseType: pt,
		RequestedBy:  requester,
		Notes:        notes,
		DateCreated:  now,
		Status:       StatusPending,
		TotalValue:   TotalValue(items),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ListRequisitions returns requisitions newest first.
func (s *Service) ListRequisitions(ctx context.Context, f RequisitionFilter) ([]Requisition, error) {
	f.ProjectCode = normalizeProjectCode(f.ProjectCode)
	reqs, err := s.store.ListRequisitions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list requisitions: %w", err)
	}
	return reqs, nil
}

// GetRequisition loads a requisition with items, requester and timeline.
func (s *Service) GetRequisition(ctx context.Context, id uuid.UUID) (RequisitionDetail, error) {
	req, err := s.store.GetRequisition(ctx, id)
	if err != nil {
		return RequisitionDetail{}, fmt.Errorf("get requisition %s: %w", id, err)
	}

	detail := RequisitionDetail{Requisition: req}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := s.store.ListRequisitionItems(gctx, id)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		detail.Items = items
		return nil
	})
	g.Go(func() error {
		events, err := s.store.ListEvents(gctx, id)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		detail.Timeline = events
		return nil
	})
	g.Go(func() error {
		uid, err := uuid.Parse(req.RequestedBy)
		if err != nil {
			return nil
		}
		u, err := s.store.GetUser(gctx, uid)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get requester: %w", err)
		}
		detail.Requester = &u
		return nil
	})

	if err := g.Wait(); err != nil {
		return RequisitionDetail{}, fmt.Errorf("get requisition %s: %w", id, err)
	}
	if detail.Items == nil {
		detail.Items = []RequisitionItem{}
	}
	if detail.Timeline == nil {
		detail.Timeline = []RequisitionEvent{}
	}
	return detail, nil
}

// AddItems appends items to a Pending requisition and returns it with the
// recomputed total.
func (s *Service) AddItems(ctx context.Context, id uuid.UUID, items []PurchaseItem) (Requisition, error) {
	if len(items) == 0 {
		return Requisition{}, invalidField("items", "at least one item is required", "")
	}

	var errs []ValidationError
	for i, item := range items {
		errs = append(errs, ValidateItem(i+1, item)...)
	}
	if len(errs) > 0 {
		return Requisition{}, &InputError{Errors: errs}
	}

	clean := make([]PurchaseItem, len(items))
	for i, item := range items {
		clean[i] = ApplyItemDefaults(item)
	}

	ev := newEvent(ctx, id, ActionItemsAdded)
	ev.Note = fmt.Sprintf("%d items", len(clean))

	req, err := s.store.AppendItems(ctx, id, clean, ev)
	if err != nil {
		return Requisition{}, fmt.Errorf("add items to %s: %w", id, err)
	}
	s.invalidateStats(ctx)

	slog.InfoContext(ctx, "requisition items added", "requisition_id", id, "items", len(clean), "total_value", req.TotalValue)
	return req, nil
}

// TransitionStatus moves a requisition along the workflow.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, to RequisitionStatus, note string) (Requisition, error) {
	to, err := ParseStatus(string(to))
	if err != nil {
		return Requisition{}, err
	}

	cur, err := s.store.GetRequisition(ctx, id)
	if err != nil {
		return Requisition{}, fmt.Errorf("transition %s: %w", id, err)
	}
	if !CanTransition(cur.Status, to) {
		return Requisition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, to)
	}

	ev := newEvent(ctx, id, ActionStatusChanged)
	ev.FromStatus = cur.Status
	ev.ToStatus = to
	ev.Note = strings.TrimSpace(note)

	req, err := s.store.UpdateStatus(ctx, id, cur.Status, to, ev)
	if err != nil {
		return Requisition{}, fmt.Errorf("transition %s: %w", id, err)
	}
	s.invalidateStats(ctx)

	slog.InfoContext(ctx, "requisition status changed", "requisition_id", id, "from", cur.Status, "to", to)
	return req, nil
}

// Approve moves a Pending requisition to Approved.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, note string) (Requisition, error) {
	return s.TransitionStatus(ctx, id, StatusApproved, note)
}

// Reject moves a Pending requisition to Rejected.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, note string) (Requisition, error) {
	return s.TransitionStatus(ctx, id, StatusRejected, note)
}

// Cancel cancels a requisition that has not completed.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, note string) (Requisition, error) {
	return s.TransitionStatus(ctx, id, StatusCancelled, note)
}

// DuplicateRequisition creates a new Pending requisition with copies of the
// source's items. The caller becomes the requester when authenticated.
func (s *Service) DuplicateRequisition(ctx context.Context, id uuid.UUID) (RequisitionDetail, error) {
	src, err := s.GetRequisition(ctx, id)
	if err != nil {
		return RequisitionDetail{}, err
	}
	if len(src.Items) == 0 {
		return RequisitionDetail{}, invalidField("items", "requisition has no items to copy", id.String())
	}

	requester := src.RequestedBy
	if u := UserFromContext(ctx); u != nil {
		requester = u.ID.String()
	}

	items := itemsOf(src.Items)
	req := s.newRequisition(src.ProjectCode, src.PurchaseType, requester, src.Notes, items)
	ev := newEvent(ctx, req.ID, ActionDuplicated)
	ev.ToStatus = StatusPending
	ev.Note = "copied from " + id.String()

	if err := s.store.CreateRequisition(ctx, req, items, ev); err != nil {
		return RequisitionDetail{}, fmt.Errorf("duplicate requisition %s: %w", id, err)
	}
	s.invalidateStats(ctx)

	slog.InfoContext(ctx, "requisition duplicated", "source_id", id, "requisition_id", req.ID)
	return s.GetRequisition(ctx, req.ID)
}

// RequisitionStats returns the dashboard numbers, from cache when fresh.
func (s *Service) RequisitionStats(ctx context.Context) (RequisitionStats, error) {
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, StatsCacheKey)
		if err != nil {
			slog.Warn("stats cache read failed", "error", err)
		}
		if ok {
			var st RequisitionStats
			if err := json.Unmarshal(raw, &st); err == nil {
				return st, nil
			}
		}
	}
	return s.RefreshStats(ctx)
}

// RefreshStats recomputes the dashboard numbers and caches them.
func (s *Service) RefreshStats(ctx context.Context) (RequisitionStats, error) {
	var (
		counts map[RequisitionStatus]int
		total  float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.store.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.SumTotalValue(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return RequisitionStats{}, fmt.Errorf("requisition stats: %w", err)
	}

	st := RequisitionStats{
		Pending:    counts[StatusPending],
		Approved:   counts[StatusApproved],
		InProgress: counts[StatusInProgress],
		Completed:  counts[StatusCompleted],
		TotalValue: total,
	}
	for _, n := range counts {
		st.Total += n
	}

	if s.cache != nil {
		if raw, err := json.Marshal(st); err == nil {
			if err := s.cache.Set(ctx, StatsCacheKey, raw, s.opts.StatsTTL); err != nil {
				slog.Warn("stats cache write failed", "error", err)
			}
		}
	}
	return st, nil
}
