package sqlite

import (
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

// Row models mirror the PostgreSQL schema so both stores hold the same data.

type userRow struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	Email     string    `gorm:"not null;uniqueIndex"`
	FullName  string    `gorm:"not null;default:''"`
	APIToken  string    `gorm:"column:api_token;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

type projectRow struct {
	ID          uuid.UUID `gorm:"type:text;primaryKey"`
	Code        string    `gorm:"not null;uniqueIndex"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"not null;default:''"`
	Status      string    `gorm:"not null"`
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time `gorm:"not null"`
}

func (projectRow) TableName() string { return "projects" }

type requisitionRow struct {
	ID           uuid.UUID `gorm:"type:text;primaryKey"`
	ProjectCode  string    `gorm:"not null;index"`
	PurchaseType string    `gorm:"not null"`
	RequestedBy  string    `gorm:"not null"`
	Notes        string    `gorm:"not null;default:''"`
	DateCreated  time.Time `gorm:"not null"`
	Status       string    `gorm:"not null;index"`
	TotalValue   float64   `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (requisitionRow) TableName() string { return "requisitions" }

type itemRow struct {
	ID            uuid.UUID `gorm:"type:text;primaryKey"`
	RequisitionID uuid.UUID `gorm:"type:text;not null;uniqueIndex:idx_item_line"`
	Line          int       `gorm:"not null;uniqueIndex:idx_item_line"`
	ItemName      string    `gorm:"not null"`
	ItemCode      string    `gorm:"not null"`
	Description   string
	Quantity      float64 `gorm:"not null"`
	Units         string  `gorm:"not null"`
	Vendor        string
	Cost          float64 `gorm:"not null"`
	Currency      string  `gorm:"not null"`
	AlternatePart string
	Link          string
	Remarks       string
	CreatedAt     time.Time `gorm:"not null"`
}

func (itemRow) TableName() string { return "requisition_items" }

type eventRow struct {
	ID            uuid.UUID `gorm:"type:text;primaryKey"`
	RequisitionID uuid.UUID `gorm:"type:text;not null;index"`
	Action        string    `gorm:"not null"`
	FromStatus    string
	ToStatus      string
	ActorID       string
	Note          string
	CreatedAt     time.Time `gorm:"not null"`
}

func (eventRow) TableName() string { return "requisition_events" }

type componentRow struct {
	ID             uuid.UUID `gorm:"type:text;primaryKey"`
	Kind           string    `gorm:"not null;index"`
	Category       string
	Value          string
	ManufacturerPN string `gorm:"column:manufacturer_pn;not null"`
	Description    string
	Package        string
	Quantity       int `gorm:"not null"`
	Location       string
	Remarks        string
	Attributes     map[string]string `gorm:"serializer:json"`
	CreatedAt      time.Time         `gorm:"not null"`
}

func (componentRow) TableName() string { return "components" }

type allocationRow struct {
	ID          uuid.UUID `gorm:"type:text;primaryKey"`
	ProjectCode string    `gorm:"not null;index"`
	ComponentID uuid.UUID `gorm:"type:text;not null"`
	Quantity    int       `gorm:"not null"`
	AllocatedAt time.Time `gorm:"not null"`
}

func (allocationRow) TableName() string { return "allocations" }

// allModels is the AutoMigrate set.
var allModels = []any{
	&userRow{}, &projectRow{}, &requisitionRow{}, &itemRow{},
	&eventRow{}, &componentRow{}, &allocationRow{},
}

func toRequisitionRow(r core.Requisition) requisitionRow {
	return requisitionRow{
		ID:           r.ID,
		ProjectCode:  r.ProjectCode,
		PurchaseType: string(r.PurchaseType),
		RequestedBy:  r.RequestedBy,
		Notes:        r.Notes,
		DateCreated:  r.DateCreated,
		Status:       string(r.Status),
		TotalValue:   r.TotalValue,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r requisitionRow) toCore() core.Requisition {
	return core.Requisition{
		ID:           r.ID,
		ProjectCode:  r.ProjectCode,
		PurchaseType: core.PurchaseType(r.PurchaseType),
		RequestedBy:  r.RequestedBy,
		Notes:        r.Notes,
		DateCreated:  r.DateCreated,
		Status:       core.RequisitionStatus(r.Status),
		TotalValue:   r.TotalValue,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toItemRows(reqID uuid.UUID, firstLine int, items []core.PurchaseItem, at time.Time) []itemRow {
	rows := make([]itemRow, len(items))
	for i, it := range items {
		rows[i] = itemRow{
			ID:            uuid.New(),
			RequisitionID: reqID,
			Line:          firstLine + i,
			ItemName:      it.ItemName,
			ItemCode:      it.ItemCode,
			Description:   it.Description,
			Quantity:      it.Quantity,
			Units:         it.Units,
			Vendor:        it.Vendor,
			Cost:          it.Cost,
			Currency:      it.Currency,
			AlternatePart: it.AlternatePart,
			Link:          it.Link,
			Remarks:       it.Remarks,
			CreatedAt:     at,
		}
	}
	return rows
}

func (r itemRow) toCore() core.RequisitionItem {
	return core.RequisitionItem{
		ID:            r.ID,
		RequisitionID: r.RequisitionID,
		Line:          r.Line,
		PurchaseItem: core.PurchaseItem{
			ItemName:      r.ItemName,
			ItemCode:      r.ItemCode,
			Description:   r.Description,
			Quantity:      r.Quantity,
			Units:         r.Units,
			Vendor:        r.Vendor,
			Cost:          r.Cost,
			Currency:      r.Currency,
			AlternatePart: r.AlternatePart,
			Link:          r.Link,
			Remarks:       r.Remarks,
		},
		CreatedAt: r.CreatedAt,
	}
}

func toEventRow(ev core.RequisitionEvent) eventRow {
	return eventRow{
		ID:            ev.ID,
		RequisitionID: ev.RequisitionID,
		Action:        string(ev.Action),
		FromStatus:    string(ev.FromStatus),
		ToStatus:      string(ev.ToStatus),
		ActorID:       ev.ActorID,
		Note:          ev.Note,
		CreatedAt:     ev.CreatedAt,
	}
}

func (r eventRow) toCore() core.RequisitionEvent {
	return core.RequisitionEvent{
		ID:            r.ID,
		RequisitionID: r.RequisitionID,
		Action:        core.EventAction(r.Action),
		FromStatus:    core.RequisitionStatus(r.FromStatus),
		ToStatus:      core.RequisitionStatus(r.ToStatus),
		ActorID:       r.ActorID,
		Note:          r.Note,
		CreatedAt:     r.CreatedAt,
	}
}

func toProjectRow(p core.Project) projectRow {
	return projectRow{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		CreatedAt:   p.CreatedAt,
	}
}

func (r projectRow) toCore() core.Project {
	return core.Project{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Status:      core.ProjectStatus(r.Status),
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		CreatedAt:   r.CreatedAt,
	}
}

func toComponentRow(c core.Component) componentRow {
	return componentRow{
		ID:             c.ID,
		Kind:           string(c.Kind),
		Category:       c.Category,
		Value:          c.Value,
		ManufacturerPN: c.ManufacturerPN,
		Description:    c.Description,
		Package:        c.Package,
		Quantity:       c.Quantity,
		Location:       c.Location,
		Remarks:        c.Remarks,
		Attributes:     c.Attributes,
		CreatedAt:      c.CreatedAt,
	}
}

func (r componentRow) toCore() core.Component {
	return core.Component{
		ID:             r.ID,
		Kind:           core.ComponentKind(r.Kind),
		Category:       r.Category,
		Value:          r.Value,
		ManufacturerPN: r.ManufacturerPN,
		Description:    r.Description,
		Package:        r.Package,
		Quantity:       r.Quantity,
		Location:       r.Location,
		Remarks:        r.Remarks,
		Attributes:     r.Attributes,
		CreatedAt:      r.CreatedAt,
	}
}

func (r allocationRow) toCore() core.Allocation {
	return core.Allocation{
		ID:          r.ID,
		ProjectCode: r.ProjectCode,
		ComponentID: r.ComponentID,
		Quantity:    r.Quantity,
		AllocatedAt: r.AllocatedAt,
	}
}

func (r userRow) toCore() core.User {
	return core.User{
		ID:        r.ID,
		Email:     r.Email,
		FullName:  r.FullName,
		APIToken:  r.APIToken,
		CreatedAt: r.CreatedAt,
	}
}
