package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultProjectCodes are seeded on a fresh install so requisitions can be
// raised immediately.
var DefaultProjectCodes = []string{
	"PROJ-ALPHA", "PROJ-BETA", "PROJ-GAMMA", "PROJ-DELTA", "PROJ-EPSILON", "PROJ-ZETA",
}

// ProjectStatuses lists the accepted project phases.
var ProjectStatuses = []ProjectStatus{
	ProjectDesign, ProjectPrototyping, ProjectInProgress, ProjectTesting, ProjectCompleted,
}

// ProjectInput is the payload for creating a project.
type ProjectInput struct {
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	StartDate   *time.Time    `json:"startDate,omitempty"`
	EndDate     *time.Time    `json:"endDate,omitempty"`
}

// CreateProject validates and stores a project. Codes are upper-cased and
// must be unique.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	code := normalizeProjectCode(in.Code)
	name := strings.TrimSpace(in.Name)

	var errs []ValidationError
	if code == "" {
		errs = append(errs, ValidationError{Field: "code", Message: "code is required"})
	}
	if name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	}
	status := in.Status
	if status == "" {
		status = ProjectDesign
	} else if !validProjectStatus(status) {
		errs = append(errs, ValidationError{Field: "status", Message: "unknown project status", Value: string(status)})
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		errs = append(errs, ValidationError{Field: "endDate", Message: "endDate must not be before startDate", Value: in.EndDate.Format(time.DateOnly)})
	}
	if len(errs) > 0 {
		return Project{}, &InputError{Errors: errs}
	}

	p := Project{
		ID:          uuid.New(),
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return Project{}, fmt.Errorf("create project %s: %w", code, err)
	}

	slog.InfoContext(ctx, "project created", "code", code)
	return p, nil
}

// normalizeProjectCode returns the stored form of a project code.
func normalizeProjectCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validProjectStatus(st ProjectStatus) bool {
	for _, v := range ProjectStatuses {
		if v == st {
			return true
		}
	}
	return false
}

// EnsureDefaultProjects creates any missing DefaultProjectCodes and returns
// how many were added.
func (s *Service) EnsureDefaultProjects(ctx context.Context) (int, error) {
	added := 0
	for _, code := range DefaultProjectCodes {
		_, err := s.store.GetProject(ctx, code)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return added, fmt.Errorf("seed projects: %w", err)
		}

		name := strings.TrimPrefix(code, "PROJ-")
		name = "Project " + name[:1] + strings.ToLower(name[1:])
		if _, err := s.CreateProject(ctx, ProjectInput{Code: code, Name: name}); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// ListProjects returns all projects ordered by code.
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns a project by code.
func (s *Service) GetProject(ctx context.Context, code string) (Project, error) {
	code = normalizeProjectCode(code)
	p, err := s.store.GetProject(ctx, code)
	if err != nil {
		return Project{}, fmt.Errorf("get project %s: %w", code, err)
	}
	return p, nil
}

// AllocateComponents assigns on-hand stock to a project. Either every
// request succeeds or none does.
func (s *Service) AllocateComponents(ctx context.Context, projectCode string, reqs []AllocationRequest) ([]Allocation, error) {
	p, err := s.GetProject(ctx, projectCode)
	if err != nil {
		return nil, err
	}

	if len(reqs) == 0 {
		return nil, invalidField("allocations", "at least one allocation is required", "")
	}
	var errs []ValidationError
	for i, r := range reqs {
		if r.ComponentID == uuid.Nil {
			errs = append(errs, ValidationError{Row: i + 1, Field: "componentId", Message: "componentId is required"})
		}
		if r.Quantity <= 0 {
			errs = append(errs, ValidationError{Row: i + 1, Field: "quantity", Message: "quantity must be greater than zero", Value: fmt.Sprint(r.Quantity)})
		}
	}
	if len(errs) > 0 {
		return nil, &InputError{Errors: errs}
	}

	now := s.now().UTC()
	allocs := make([]Allocation, len(reqs))
	for i, r := range reqs {
		allocs[i] = Allocation{
			ID:          uuid.New(),
			ProjectCode: p.Code,
			ComponentID: r.ComponentID,
			Quantity:    r.Quantity,
			AllocatedAt: now,
		}
	}

	if err := s.store.Allocate(ctx, allocs); err != nil {
		return nil, fmt.Errorf("allocate to %s: %w", p.Code, err)
	}

	slog.InfoContext(ctx, "components allocated", "project", p.Code, "allocations", len(allocs))
	return allocs, nil
}

// ListAllocations returns a project's allocations, newest first.
func (s *Service) ListAllocations(ctx context.Context, projectCode string) ([]Allocation, error) {
	p, err := s.GetProject(ctx, projectCode)
	if err != nil {
		return nil, err
	}
	allocs, err := s.store.ListAllocations(ctx, p.Code)
	if err != nil {
		return nil, fmt.Errorf("list allocations for %s: %w", p.Code, err)
	}
	return allocs, nil
}

// ListComponents returns the inventory of one kind, or all of it when kind
// is empty.
func (s *Service) ListComponents(ctx context.Context, kind ComponentKind) ([]Component, error) {
	comps, err := s.store.ListComponents(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s components: %w", kind, err)
	}
	return comps, nil
}

// GetComponent returns one inventory row.
func (s *Service) GetComponent(ctx context.Context, id uuid.UUID) (Component, error) {
	c, err := s.store.GetComponent(ctx, id)
	if err != nil {
		return Component{}, fmt.Errorf("get component %s: %w", id, err)
	}
	return c, nil
}
