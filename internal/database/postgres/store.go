// Package postgres implements core.Store on PostgreSQL with a pgx pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PoolConfig tunes the connection pool. Zero fields keep pgx defaults.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a PostgreSQL-backed core.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// Open connects a pool and verifies it with a ping.
func Open(ctx context.Context, databaseURL string, pc PoolConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if pc.MaxConns > 0 {
		poolConfig.MaxConns = int32(pc.MaxConns)
	}
	if pc.MinConns > 0 {
		poolConfig.MinConns = int32(pc.MinConns)
	}
	if pc.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = pc.MaxConnLifetime
	}
	if pc.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = pc.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// mapErr translates driver errors to core sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", core.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Requisitions
// ----------------------------------------------------------------------------

const requisitionColumns = `id, project_code, purchase_type, requested_by, notes, date_created,
	status, total_value, created_at, updated_at`

func scanRequisition(row pgx.Row) (core.Requisition, error) {
	var r core.Requisition
	var pt, status string
	err := row.Scan(&r.ID, &r.ProjectCode, &pt, &r.RequestedBy, &r.Notes, &r.DateCreated,
		&status, &r.TotalValue, &r.CreatedAt, &r.UpdatedAt)
	r.PurchaseType = core.PurchaseType(pt)
	r.Status = core.RequisitionStatus(status)
	return r, err
}

func (s *Store) CreateRequisition(ctx context.Context, req core.Requisition, items []core.PurchaseItem, ev core.RequisitionEvent) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO requisitions (`+requisitionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			req.ID, req.ProjectCode, string(req.PurchaseType), req.RequestedBy, req.Notes, req.DateCreated,
			string(req.Status), req.TotalValue, req.CreatedAt, req.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert requisition: %w", mapErr(err))
		}
		if err := insertItems(ctx, tx, req.ID, 1, items, req.CreatedAt); err != nil {
			return err
		}
		return insertEvent(ctx, tx, ev)
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, reqID uuid.UUID, firstLine int, items []core.PurchaseItem, at time.Time) error {
	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(`INSERT INTO requisition_items (id, requisition_id, line, item_name, item_code,
			description, quantity, units, vendor, cost, currency, alternate_part, link, remarks, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			uuid.New(), reqID, firstLine+i, it.ItemName, it.ItemCode, it.Description, it.Quantity,
			it.Units, it.Vendor, it.Cost, it.Currency, it.AlternatePart, it.Link, it.Remarks, at)
	}

	br := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert item: %w", mapErr(err))
		}
	}
	return br.Close()
}

func insertEvent(ctx context.Context, db DBTX, ev core.RequisitionEvent) error {
	_, err := db.Exec(ctx, `INSERT INTO requisition_events
		(id, requisition_id, action, from_status, to_status, actor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID, ev.RequisitionID, string(ev.Action), string(ev.FromStatus), string(ev.ToStatus),
		ev.ActorID, ev.Note, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", mapErr(err))
	}
	return nil
}

func (s *Store) ListRequisitions(ctx context.Context, f core.RequisitionFilter) ([]core.Requisition, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ProjectCode != "" {
		args = append(args, f.ProjectCode)
		conditions = append(conditions, fmt.Sprintf("project_code = $%d", len(args)))
	}

	query := `SELECT ` + requisitionColumns + ` FROM requisitions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requisitions: %w", err)
	}
	defer rows.Close()

	var out []core.Requisition
	for rows.Next() {
		r, err := scanRequisition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan requisition: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRequisition(ctx context.Context, id uuid.UUID) (core.Requisition, error) {
	return getRequisition(ctx, s.pool, id, false)
}

func getRequisition(ctx context.Context, db DBTX, id uuid.UUID, forUpdate bool) (core.Requisition, error) {
	query := `SELECT ` + requisitionColumns + ` FROM requisitions WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	r, err := scanRequisition(db.QueryRow(ctx, query, id))
	if err != nil {
		return core.Requisition{}, fmt.Errorf("requisition %s: %w", id, mapErr(err))
	}
	return r, nil
}

func (s *Store) ListRequisitionItems(ctx context.Context, id uuid.UUID) ([]core.RequisitionItem, error) {
	return listItems(ctx, s.pool, id)
}

func listItems(ctx context.Context, db DBTX, id uuid.UUID) ([]core.RequisitionItem, error) {
	rows, err := db.Query(ctx, `SELECT id, requisition_id, line, item_name, item_code, description,
		quantity, units, vendor, cost, currency, alternate_part, link, remarks, created_at
		FROM requisition_items WHERE requisition_id = $1 ORDER BY created_at, line`, id)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []core.RequisitionItem
	for rows.Next() {
		var it core.RequisitionItem
		if err := rows.Scan(&it.ID, &it.RequisitionID, &it.Line, &it.ItemName, &it.ItemCode,
			&it.Description, &it.Quantity, &it.Units, &it.Vendor, &it.Cost, &it.Currency,
			&it.AlternatePart, &it.Link, &it.Remarks, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) AppendItems(ctx context.Context, id uuid.UUID, items []core.PurchaseItem, ev core.RequisitionEvent) (core.Requisition, error) {
	var out core.Requisition
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		req, err := getRequisition(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if req.Status != core.StatusPending {
			return fmt.Errorf("%w: status is %s", core.ErrRequisitionLocked, req.Status)
		}

		var maxLine int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(line), 0) FROM requisition_items WHERE requisition_id = $1`, id,
		).Scan(&maxLine); err != nil {
			return fmt.Errorf("max line: %w", err)
		}

		now := ev.CreatedAt
		if err := insertItems(ctx, tx, id, maxLine+1, items, now); err != nil {
			return err
		}

		all, err := listItems(ctx, tx, id)
		if err != nil {
			return err
		}
		req.TotalValue = core.TotalValue(itemsOf(all))
		req.UpdatedAt = now

		if _, err := tx.Exec(ctx, `UPDATE requisitions SET total_value = $2, updated_at = $3 WHERE id = $1`,
			id, req.TotalValue, req.UpdatedAt); err != nil {
			return fmt.Errorf("update total: %w", err)
		}
		if err := insertEvent(ctx, tx, ev); err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to core.RequisitionStatus, ev core.RequisitionEvent) (core.Requisition, error) {
	var out core.Requisition
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		r, err := scanRequisition(tx.QueryRow(ctx, `UPDATE requisitions SET status = $3, updated_at = $4
			WHERE id = $1 AND status = $2 RETURNING `+requisitionColumns,
			id, string(from), string(to), ev.CreatedAt))
		if errors.Is(err, pgx.ErrNoRows) {
			if _, gerr := getRequisition(ctx, tx, id, false); gerr != nil {
				return gerr
			}
			return fmt.Errorf("%w: requisition %s is no longer %s", core.ErrInvalidTransition, id, from)
		}
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if err := insertEvent(ctx, tx, ev); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

func (s *Store) ListEvents(ctx context.Context, id uuid.UUID) ([]core.RequisitionEvent, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, requisition_id, action, from_status, to_status,
		actor_id, note, created_at FROM requisition_events
		WHERE requisition_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []core.RequisitionEvent
	for rows.Next() {
		var (
			ev               core.RequisitionEvent
			action, from, to string
		)
		if err := rows.Scan(&ev.ID, &ev.RequisitionID, &action, &from, &to,
			&ev.ActorID, &ev.Note, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Action = core.EventAction(action)
		ev.FromStatus = core.RequisitionStatus(from)
		ev.ToStatus = core.RequisitionStatus(to)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) CountByStatus(ctx context.Context) (map[core.RequisitionStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM requisitions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[core.RequisitionStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[core.RequisitionStatus(status)] = n
	}
	return counts, rows.Err()
}

func (s *Store) SumTotalValue(ctx context.Context) (float64, error) {
	var total float64
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_value), 0) FROM requisitions`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum total value: %w", err)
	}
	return total, nil
}

func itemsOf(lines []core.RequisitionItem) []core.PurchaseItem {
	out := make([]core.PurchaseItem, len(lines))
	for i, l := range lines {
		out[i] = l.PurchaseItem
	}
	return out
}

// ----------------------------------------------------------------------------
// Projects
// ----------------------------------------------------------------------------

const projectColumns = `id, code, name, description, status, start_date, end_date, created_at`

func scanProject(row pgx.Row) (core.Project, error) {
	var (
		p      core.Project
		status string
	)
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &status, &p.StartDate, &p.EndDate, &p.CreatedAt)
	p.Status = core.ProjectStatus(status)
	return p, err
}

func (s *Store) CreateProject(ctx context.Context, p core.Project) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Code, p.Name, p.Description, string(p.Status), p.StartDate, p.EndDate, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project %s: %w", p.Code, mapErr(err))
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, code string) (core.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE code = $1`, code))
	if err != nil {
		return core.Project{}, fmt.Errorf("project %s: %w", code, mapErr(err))
	}
	return p, nil
}

// ----------------------------------------------------------------------------
// Components and allocations
// ----------------------------------------------------------------------------

const componentColumns = `id, kind, category, value, manufacturer_pn, description, package,
	quantity, location, remarks, attributes, created_at`

func scanComponent(row pgx.Row) (core.Component, error) {
	var (
		c     core.Component
		kind  string
		attrs []byte
	)
	if err := row.Scan(&c.ID, &kind, &c.Category, &c.Value, &c.ManufacturerPN, &c.Description,
		&c.Package, &c.Quantity, &c.Location, &c.Remarks, &attrs, &c.CreatedAt); err != nil {
		return core.Component{}, err
	}
	c.Kind = core.ComponentKind(kind)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &c.Attributes); err != nil {
			return core.Component{}, fmt.Errorf("decode attributes: %w", err)
		}
	}
	return c, nil
}

func (s *Store) InsertComponents(ctx context.Context, comps []core.Component) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		for _, c := range comps {
			attrs, err := json.Marshal(c.Attributes)
			if err != nil {
				return fmt.Errorf("encode attributes: %w", err)
			}
			if c.Attributes == nil {
				attrs = []byte("{}")
			}
			if _, err := tx.Exec(ctx, `INSERT INTO components (`+componentColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				c.ID, string(c.Kind), c.Category, c.Value, c.ManufacturerPN, c.Description,
				c.Package, c.Quantity, c.Location, c.Remarks, attrs, c.CreatedAt); err != nil {
				return fmt.Errorf("insert component %s: %w", c.ManufacturerPN, mapErr(err))
			}
		}
		return nil
	})
}

func (s *Store) ListComponents(ctx context.Context, kind core.ComponentKind) ([]core.Component, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+componentColumns+` FROM components
		WHERE ($1 = '' OR kind = $1) ORDER BY kind, manufacturer_pn, id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	defer rows.Close()

	var out []core.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetComponent(ctx context.Context, id uuid.UUID) (core.Component, error) {
	c, err := scanComponent(s.pool.QueryRow(ctx, `SELECT `+componentColumns+` FROM components WHERE id = $1`, id))
	if err != nil {
		return core.Component{}, fmt.Errorf("component %s: %w", id, mapErr(err))
	}
	return c, nil
}

func (s *Store) Allocate(ctx context.Context, allocs []core.Allocation) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		for _, a := range allocs {
			tag, err := tx.Exec(ctx, `UPDATE components SET quantity = quantity - $2
				WHERE id = $1 AND quantity >= $2`, a.ComponentID, a.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				var exists bool
				if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM components WHERE id = $1)`,
					a.ComponentID).Scan(&exists); err != nil {
					return fmt.Errorf("check component: %w", err)
				}
				if !exists {
					return fmt.Errorf("component %s: %w", a.ComponentID, core.ErrNotFound)
				}
				return fmt.Errorf("%w: component %s", core.ErrInsufficientStock, a.ComponentID)
			}

			if _, err := tx.Exec(ctx, `INSERT INTO allocations (id, project_code, component_id, quantity, allocated_at)
				VALUES ($1, $2, $3, $4, $5)`,
				a.ID, a.ProjectCode, a.ComponentID, a.Quantity, a.AllocatedAt); err != nil {
				return fmt.Errorf("insert allocation: %w", mapErr(err))
			}
		}
		return nil
	})
}

func (s *Store) ListAllocations(ctx context.Context, projectCode string) ([]core.Allocation, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, project_code, component_id, quantity, allocated_at
		FROM allocations WHERE project_code = $1 ORDER BY allocated_at, id`, projectCode)
	if err != nil {
		return nil, fmt.Errorf("query allocations: %w", err)
	}
	defer rows.Close()

	var out []core.Allocation
	for rows.Next() {
		var a core.Allocation
		if err := rows.Scan(&a.ID, &a.ProjectCode, &a.ComponentID, &a.Quantity, &a.AllocatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ----------------------------------------------------------------------------
// Users
// ----------------------------------------------------------------------------

const userColumns = `id, email, full_name, api_token, created_at`

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.APIToken, &u.CreatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.FullName, u.APIToken, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.Email, mapErr(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return core.User{}, fmt.Errorf("user %s: %w", id, mapErr(err))
	}
	return u, nil
}

func (s *Store) UserByToken(ctx context.Context, token string) (core.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE api_token = $1`, token))
	if err != nil {
		return core.User{}, fmt.Errorf("user by token: %w", mapErr(err))
	}
	return u, nil
}
