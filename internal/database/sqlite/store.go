// Package sqlite implements core.Store on an embedded SQLite database through
// gorm and the pure-Go glebarez driver. It backs single-node deployments, the
// CLI and the integration tests.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

// Store is a SQLite-backed core.Store.
type Store struct {
	db *gorm.DB
}

var _ core.Store = (*Store)(nil)

// DSNFromURL strips the sqlite:// or sqlite: scheme from a DATABASE_URL.
func DSNFromURL(databaseURL string) string {
	lower := strings.ToLower(databaseURL)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		return databaseURL[len("sqlite://"):]
	case strings.HasPrefix(lower, "sqlite:"):
		return databaseURL[len("sqlite:"):]
	}
	return databaseURL
}

// Open opens (creating if needed) the database at dsn and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// One connection: SQLite has a single writer, and each :memory:
	// connection would otherwise see its own empty database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mapErr translates gorm and driver errors to core sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return core.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", core.ErrDuplicate, err)
	}
	return err
}

// ----------------------------------------------------------------------------
// Requisitions
// ----------------------------------------------------------------------------

func (s *Store) CreateRequisition(ctx context.Context, req core.Requisition, items []core.PurchaseItem, ev core.RequisitionEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toRequisitionRow(req)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert requisition: %w", mapErr(err))
		}
		if len(items) > 0 {
			rows := toItemRows(req.ID, 1, items, req.CreatedAt)
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert items: %w", mapErr(err))
			}
		}
		evRow := toEventRow(ev)
		if err := tx.Create(&evRow).Error; err != nil {
			return fmt.Errorf("insert event: %w", mapErr(err))
		}
		return nil
	})
}

func (s *Store) ListRequisitions(ctx context.Context, f core.RequisitionFilter) ([]core.Requisition, error) {
	q := s.db.WithContext(ctx).Model(&requisitionRow{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.ProjectCode != "" {
		q = q.Where("project_code = ?", f.ProjectCode)
	}

	var rows []requisitionRow
	if err := q.Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query requisitions: %w", err)
	}

	out := make([]core.Requisition, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out, nil
}

func (s *Store) GetRequisition(ctx context.Context, id uuid.UUID) (core.Requisition, error) {
	return getRequisition(s.db.WithContext(ctx), id)
}

func getRequisition(db *gorm.DB, id uuid.UUID) (core.Requisition, error) {
	var row requisitionRow
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		return core.Requisition{}, fmt.Errorf("requisition %s: %w", id, mapErr(err))
	}
	return row.toCore(), nil
}

func (s *Store) ListRequisitionItems(ctx context.Context, id uuid.UUID) ([]core.RequisitionItem, error) {
	return listItems(s.db.WithContext(ctx), id)
}

func listItems(db *gorm.DB, id uuid.UUID) ([]core.RequisitionItem, error) {
	var rows []itemRow
	if err := db.Where("requisition_id = ?", id).Order("created_at").Order("line").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	out := make([]core.RequisitionItem, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out, nil
}

func (s *Store) AppendItems(ctx context.Context, id uuid.UUID, items []core.PurchaseItem, ev core.RequisitionEvent) (core.Requisition, error) {
	var out core.Requisition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := getRequisition(tx, id)
		if err != nil {
			return err
		}
		if req.Status != core.StatusPending {
			return fmt.Errorf("%w: status is %s", core.ErrRequisitionLocked, req.Status)
		}

		var maxLine int
		if err := tx.Model(&itemRow{}).Where("requisition_id = ?", id).
			Select("COALESCE(MAX(line), 0)").Row().Scan(&maxLine); err != nil {
			return fmt.Errorf("max line: %w", err)
		}

		rows := toItemRows(id, maxLine+1, items, ev.CreatedAt)
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert items: %w", mapErr(err))
			}
		}

		all, err := listItems(tx, id)
		if err != nil {
			return err
		}
		lines := make([]core.PurchaseItem, len(all))
		for i, it := range all {
			lines[i] = it.PurchaseItem
		}
		req.TotalValue = core.TotalValue(lines)
		req.UpdatedAt = ev.CreatedAt

		if err := tx.Model(&requisitionRow{}).Where("id = ?", id).Updates(map[string]any{
			"total_value": req.TotalValue,
			"updated_at":  req.UpdatedAt,
		}).Error; err != nil {
			return fmt.Errorf("update total: %w", err)
		}

		evRow := toEventRow(ev)
		if err := tx.Create(&evRow).Error; err != nil {
			return fmt.Errorf("insert event: %w", mapErr(err))
		}
		out = req
		return nil
	})
	return out, err
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to core.RequisitionStatus, ev core.RequisitionEvent) (core.Requisition, error) {
	var out core.Requisition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&requisitionRow{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(map[string]any{"status": string(to), "updated_at": ev.CreatedAt})
		if res.Error != nil {
			return fmt.Errorf("update status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			if _, err := getRequisition(tx, id); err != nil {
				return err
			}
			return fmt.Errorf("%w: requisition %s is no longer %s", core.ErrInvalidTransition, id, from)
		}

		evRow := toEventRow(ev)
		if err := tx.Create(&evRow).Error; err != nil {
			return fmt.Errorf("insert event: %w", mapErr(err))
		}

		req, err := getRequisition(tx, id)
		if err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

func (s *Store) ListEvents(ctx context.Context, id uuid.UUID) ([]core.RequisitionEvent, error) {
	var rows []eventRow
	if err := s.db.WithContext(ctx).Where("requisition_id = ?", id).
		Order("created_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	out := make([]core.RequisitionEvent, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out, nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[core.RequisitionStatus]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	if err := s.db.WithContext(ctx).Model(&requisitionRow{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}

	counts := make(map[core.RequisitionStatus]int, len(rows))
	for _, r := range rows {
		counts[core.RequisitionStatus(r.Status)] = r.N
	}
	return counts, nil
}

func (s *Store) SumTotalValue(ctx context.Context) (float64, error) {
	var total float64
	if err := s.db.WithContext(ctx).Model(&requisitionRow{}).
		Select("COALESCE(SUM(total_value), 0)").Row().Scan(&total); err != nil {
		return 0, fmt.Errorf("sum total value: %w", err)
	}
	return total, nil
}

// ----------------------------------------------------------------------------
// Projects
// ----------------------------------------------------------------------------

func (s *Store) CreateProject(ctx context.Context, p core.Project) error {
	row := toProjectRow(p)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert project %s: %w", p.Code, mapErr(err))
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context) ([]core.Project, error) {
	var rows []projectRow
	if err := s.db.WithContext(ctx).Order("code").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	out := make([]core.Project, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out, nil
}

func (s *Store) GetProject(ctx context.Context, code string) (core.Project, error) {
	var row projectRow
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&row).Error; err != nil {
		return core.Project{}, fmt.Errorf("project %s: %w", code, mapErr(err))
	}
	return row.toCore(), nil
}

// ----------------------------------------------------------------------------
// Components and allocations
// ----------------------------------------------------------------------------

func (s *Store) InsertComponents(ctx context.Context, comps []core.Component) error {
	if len(comps) == 0 {
		return nil
	}
	rows := make([]componentRow, len(comps))
	for i, c := range comps {
		rows[i] = toComponentRow(c)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
			return fmt.Errorf("insert components: %w", mapErr(err))
		}
		return nil
	})
}

func (s *Store) ListComponents(ctx context.Context, kind core.ComponentKind) ([]core.Component, error) {
	var rows []componentRow
	q := s.db.WithContext(ctx)
	if kind != "" {
		q = q.Where("kind = ?", string(kind))
	}
	if err := q.Order("kind").Order("manufacturer_pn").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	out := make([]core.Component, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out, nil
}

func (s *Store) GetComponent(ctx context.Context, id uuid.UUID) (core.Component, error) {
	var row componentRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return core.Component{}, fmt.Errorf("component %s: %w", id, mapErr(err))
	}
	return row.toCore(), nil
}

func (s *Store) Allocate(ctx context.Context, allocs []core.Allocation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range allocs {
			res := tx.Model(&componentRow{}).
				Where("id = ? AND quantity >= ?", a.ComponentID, a.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", a.Quantity))
			if res.Error != nil {
				return fmt.Errorf("decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				var n int64
				if err := tx.Model(&componentRow{}).Where("id = ?", a.ComponentID).Count(&n).Error; err != nil {
					return fmt.Errorf("check component: %w", err)
				}
				if n == 0 {
					return fmt.Errorf("component %s: %w", a.ComponentID, core.ErrNotFound)
				}
				return fmt.Errorf("%w: component %s", core.ErrInsufficientStock, a.ComponentID)
			}

			row := allocationRow{
				ID:          a.ID,
				ProjectCode: a.ProjectCode,
				ComponentID: a.ComponentID,
				Quantity:    a.Quantity,
				AllocatedAt: a.AllocatedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert allocation: %w", mapErr(err))
			}
		}
		return nil
	})
}

func (s *Store) ListAllocations(ctx context.Context, projectCode string) ([]core.Allocation, error) {
	var rows []allocationRow
	if err := s.db.WithContext(ctx).Where("project_code = ?", projectCode).
		Order("allocated_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query allocations: %w", err)
	}
	out := make([]core.Allocation, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Users
// ----------------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	row := userRow{ID: u.ID, Email: u.Email, FullName: u.FullName, APIToken: u.APIToken, CreatedAt: u.CreatedAt}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert user %s: %w", u.Email, mapErr(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return core.User{}, fmt.Errorf("user %s: %w", id, mapErr(err))
	}
	return row.toCore(), nil
}

func (s *Store) UserByToken(ctx context.Context, token string) (core.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("api_token = ?", token).First(&row).Error; err != nil {
		return core.User{}, fmt.Errorf("user by token: %w", mapErr(err))
	}
	return row.toCore(), nil
}
