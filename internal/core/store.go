package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence boundary. Implementations return errors wrapping
// ErrNotFound, ErrDuplicate, ErrRequisitionLocked, ErrInvalidTransition and
// ErrInsufficientStock where documented.
type Store interface {
	// CreateRequisition stores the requisition, its items (numbered from 1)
	// and the creation event in one transaction.
	CreateRequisition(ctx context.Context, req Requisition, items []PurchaseItem, ev RequisitionEvent) error
	ListRequisitions(ctx context.Context, f RequisitionFilter) ([]Requisition, error)
	GetRequisition(ctx context.Context, id uuid.UUID) (Requisition, error)
	// ListRequisitionItems returns items ordered by creation, then line.
	ListRequisitionItems(ctx context.Context, id uuid.UUID) ([]RequisitionItem, error)
	// AppendItems adds items to a Pending requisition, recomputes its total
	// with TotalValue and records ev, all in one transaction. It fails with
	// ErrRequisitionLocked when the requisition is no longer Pending.
	AppendItems(ctx context.Context, id uuid.UUID, items []PurchaseItem, ev RequisitionEvent) (Requisition, error)
	// UpdateStatus moves a requisition from one status to another. It fails
	// with ErrInvalidTransition when the current status is not from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to RequisitionStatus, ev RequisitionEvent) (Requisition, error)
	ListEvents(ctx context.Context, id uuid.UUID) ([]RequisitionEvent, error)
	CountByStatus(ctx context.Context) (map[RequisitionStatus]int, error)
	SumTotalValue(ctx context.Context) (float64, error)

	CreateProject(ctx context.Context, p Project) error
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, code string) (Project, error)

	// InsertComponents stores all rows or none.
	InsertComponents(ctx context.Context, comps []Component) error
	ListComponents(ctx context.Context, kind ComponentKind) ([]Component, error)
	GetComponent(ctx context.Context, id uuid.UUID) (Component, error)

	// Allocate decrements on-hand stock and records the allocations in one
	// transaction. It fails with ErrInsufficientStock if any component has
	// fewer units than requested.
	Allocate(ctx context.Context, allocs []Allocation) error
	ListAllocations(ctx context.Context, projectCode string) ([]Allocation, error)

	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	UserByToken(ctx context.Context, token string) (User, error)

	Ping(ctx context.Context) error
	Close() error
}

// Cache stores small serialized values with a TTL.
type Cache interface {
	// Get reports false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
