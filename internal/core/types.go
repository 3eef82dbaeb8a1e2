package core

import (
	"time"

	"github.com/google/uuid"
)

// RequisitionStatus is the approval state of a purchase requisition.
type RequisitionStatus string

const (
	StatusPending    RequisitionStatus = "Pending"
	StatusApproved   RequisitionStatus = "Approved"
	StatusRejected   RequisitionStatus = "Rejected"
	StatusInProgress RequisitionStatus = "In Progress"
	StatusCompleted  RequisitionStatus = "Completed"
	StatusCancelled  RequisitionStatus = "Cancelled"
)

// AllStatuses lists every requisition status in workflow order.
var AllStatuses = []RequisitionStatus{
	StatusPending, StatusApproved, StatusRejected, StatusInProgress, StatusCompleted, StatusCancelled,
}

// PurchaseType classifies why a requisition is raised.
type PurchaseType string

const (
	PurchaseProto       PurchaseType = "Proto"
	PurchaseProduction  PurchaseType = "Production"
	PurchaseTesting     PurchaseType = "Testing"
	PurchaseMaintenance PurchaseType = "Maintenance"
	PurchaseResearch    PurchaseType = "Research"
	PurchaseAsset       PurchaseType = "asset"
	PurchaseConsumable  PurchaseType = "consumable"
)

// PurchaseTypes lists the accepted purchase types.
var PurchaseTypes = []PurchaseType{
	PurchaseProto, PurchaseProduction, PurchaseTesting, PurchaseMaintenance,
	PurchaseResearch, PurchaseAsset, PurchaseConsumable,
}

// PurchaseItem is one fully typed line ready to be attached to a requisition.
// It is the output of a successful import row and the input of AddItems.
type PurchaseItem struct {
	ItemName      string  `json:"itemName"`
	ItemCode      string  `json:"itemCode"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	Units         string  `json:"units"`
	Vendor        string  `json:"vendor"`
	Cost          float64 `json:"cost"` // unit cost
	Currency      string  `json:"currency"`
	AlternatePart string  `json:"alternatePart"`
	Link          string  `json:"link"`
	Remarks       string  `json:"remarks"`
}

// Requisition is a request to purchase a set of items for a project.
type Requisition struct {
	ID           uuid.UUID         `json:"id"`
	ProjectCode  string            `json:"projectCode"`
	PurchaseType PurchaseType      `json:"purchaseType"`
	RequestedBy  string            `json:"requestedBy"`
	Notes        string            `json:"notes"`
	DateCreated  time.Time         `json:"dateCreated"`
	Status       RequisitionStatus `json:"status"`
	TotalValue   float64           `json:"totalValue"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// RequisitionItem is a stored line of a requisition.
type RequisitionItem struct {
	ID            uuid.UUID `json:"id"`
	RequisitionID uuid.UUID `json:"requisitionId"`
	Line          int       `json:"line"`
	PurchaseItem
	CreatedAt time.Time `json:"createdAt"`
}

// RequisitionDetail is a requisition with everything the detail view shows.
type RequisitionDetail struct {
	Requisition
	Items     []RequisitionItem  `json:"items"`
	Requester *User              `json:"requester,omitempty"`
	Timeline  []RequisitionEvent `json:"timeline"`
}

// RequisitionFilter narrows ListRequisitions. Zero fields match everything.
type RequisitionFilter struct {
	Status      RequisitionStatus
	ProjectCode string
}

// RequisitionInput is the payload for creating a requisition.
type RequisitionInput struct {
	ProjectCode  string         `json:"projectCode"`
	PurchaseType PurchaseType   `json:"purchaseType"`
	RequestedBy  string         `json:"requestedBy,omitempty"`
	Notes        string         `json:"notes"`
	Items        []PurchaseItem `json:"items"`
}

// RequisitionStats backs the summary cards on the requisition list.
type RequisitionStats struct {
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	Approved   int     `json:"approved"`
	InProgress int     `json:"inProgress"`
	Completed  int     `json:"completed"`
	TotalValue float64 `json:"totalValue"`
}

// ProjectStatus is the lifecycle phase of a project.
type ProjectStatus string

const (
	ProjectDesign      ProjectStatus = "Design"
	ProjectPrototyping ProjectStatus = "Prototyping"
	ProjectInProgress  ProjectStatus = "In Progress"
	ProjectTesting     ProjectStatus = "Testing"
	ProjectCompleted   ProjectStatus = "Completed"
)

// Project groups requisitions and component allocations.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	StartDate   *time.Time    `json:"startDate,omitempty"`
	EndDate     *time.Time    `json:"endDate,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// ComponentKind is the inventory family a component belongs to.
type ComponentKind string

const (
	KindResistor   ComponentKind = "resistor"
	KindCapacitor  ComponentKind = "capacitor"
	KindTransistor ComponentKind = "transistor"
	KindMOSFET     ComponentKind = "mosfet"
)

// ComponentKinds lists the supported inventory families.
var ComponentKinds = []ComponentKind{KindResistor, KindCapacitor, KindTransistor, KindMOSFET}

// Component is one inventory row. Family-specific ratings (tolerance,
// voltage, collector current...) live in Attributes.
type Component struct {
	ID             uuid.UUID         `json:"id"`
	Kind           ComponentKind     `json:"kind"`
	Category       string            `json:"category"`
	Value          string            `json:"value"`
	ManufacturerPN string            `json:"manufacturerPn"`
	Description    string            `json:"description"`
	Package        string            `json:"package"`
	Quantity       int               `json:"quantity"`
	Location       string            `json:"location"`
	Remarks        string            `json:"remarks"`
	Attributes     map[string]string `json:"attributes"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Allocation assigns on-hand component stock to a project.
type Allocation struct {
	ID          uuid.UUID `json:"id"`
	ProjectCode string    `json:"projectCode"`
	ComponentID uuid.UUID `json:"componentId"`
	Quantity    int       `json:"quantity"`
	AllocatedAt time.Time `json:"allocatedAt"`
}

// AllocationRequest asks for Quantity units of a component.
type AllocationRequest struct {
	ComponentID uuid.UUID `json:"componentId"`
	Quantity    int       `json:"quantity"`
}

// User is an authenticated caller.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	APIToken  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
