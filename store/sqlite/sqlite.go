/*
Package sqlite provides the SQL-backed implementation of engine.TxStore.

PURPOSE:
  Persists the six engine entities (agents, sales, commissions, bonuses,
  clawbacks, hierarchy snapshots) in SQLite or PostgreSQL. The driver is
  chosen from the DSN: "postgres://..." selects lib/pq, anything else is
  treated as a SQLite path (use ":memory:" for tests).

DATA REPRESENTATION:
  - Monetary amounts are stored as decimal strings, never floats. All
    arithmetic happens in Go on decimal.Decimal; SQL only stores and
    retrieves the exact text.
  - Timestamps are RFC 3339 UTC strings with a fixed-width fractional
    part, so lexicographic comparison in SQL matches chronological order
    (relied on by ActiveSalesInRange).

MUTATION CONTRACT:
  Mirrors engine.Store: sales are only ever flipped to cancelled,
  commissions/clawbacks/snapshots are append-only, and bonuses have a
  single UPDATE path for the upsert.

CONCURRENCY:
  SQLite runs with a single connection (SetMaxOpenConns(1)) so writers
  serialize at the pool instead of racing into SQLITE_BUSY. PostgreSQL
  relies on serializable transactions for the multi-row engine
  operations.

TRANSACTIONS:
  WithTx hands the callback a store backed by *sql.Tx, so reads inside a
  transaction observe its own uncommitted writes. Cancellation depends on
  this: the bonus recomputation must see the is_cancelled flip made
  moments earlier in the same transaction.

USAGE:
  st, err := sqlite.New("./commission.db")       // SQLite
  st, err := sqlite.New("postgres://...")        // PostgreSQL
  if err != nil { ... }
  defer st.Close()
  eng := engine.New(st)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/engine"
)

// Store implements engine.TxStore on top of database/sql.
type Store struct {
	db       *sql.DB
	postgres bool
	conn
}

// New opens the database for the given DSN and migrates the schema.
func New(dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
		pg  = strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	)
	if pg {
		db, err = sql.Open("postgres", dsn)
	} else {
		db, err = sql.Open("sqlite3", dsn+"?_foreign_keys=on&_journal_mode=WAL")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if !pg {
		// One connection: writers queue in the pool instead of hitting
		// SQLITE_BUSY, and ":memory:" keeps a single coherent database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, postgres: pg}
	s.conn = conn{q: db, postgres: pg}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the schema. The DDL is restricted to the dialect both
// engines share: TEXT ids and amounts, INTEGER levels, BOOLEAN flags.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		level INTEGER NOT NULL,
		parent_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		policy_number TEXT NOT NULL UNIQUE,
		policy_value TEXT NOT NULL,
		sale_date TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS commissions (
		id TEXT PRIMARY KEY,
		amount TEXT NOT NULL,
		commission_type TEXT NOT NULL,
		sale_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		payout_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bonuses (
		id TEXT PRIMARY KEY,
		amount TEXT NOT NULL,
		bonus_type TEXT NOT NULL,
		period TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (agent_id, period, bonus_type)
	);

	CREATE TABLE IF NOT EXISTS clawbacks (
		id TEXT PRIMARY KEY,
		amount TEXT NOT NULL,
		original_commission_id TEXT,
		original_bonus_id TEXT,
		sale_id TEXT NOT NULL,
		processed_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hierarchy_snapshots (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		upline_level INTEGER NOT NULL,
		upline_agent_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agents_parent ON agents(parent_id);
	CREATE INDEX IF NOT EXISTS idx_sales_agent_date ON sales(agent_id, sale_date);
	CREATE INDEX IF NOT EXISTS idx_commissions_sale ON commissions(sale_id);
	CREATE INDEX IF NOT EXISTS idx_commissions_agent ON commissions(agent_id);
	CREATE INDEX IF NOT EXISTS idx_bonuses_agent_period ON bonuses(agent_id, period, bonus_type);
	CREATE INDEX IF NOT EXISTS idx_clawbacks_sale ON clawbacks(sale_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_sale ON hierarchy_snapshots(sale_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (engine.TxStore interface)
// =============================================================================

// WithTx executes fn against a store bound to a database transaction.
// Reads inside fn go through the transaction and see its own writes.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	var opts *sql.TxOptions
	if s.postgres {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&conn{q: tx, postgres: s.postgres}); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// QUERY EXECUTION
// =============================================================================

// dbtx is the querying surface shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn implements engine.Store over either a pooled connection or a
// transaction. Queries are written with ?-placeholders and rebound to
// $n for PostgreSQL.
type conn struct {
	q        dbtx
	postgres bool
}

func (c *conn) bind(query string) string {
	if !c.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (c *conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.bind(query), args...)
}

func (c *conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.bind(query), args...)
}

func (c *conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.bind(query), args...)
}

// timeLayout is RFC 3339 UTC with a fixed-width fractional part. The zero
// padding keeps every stored timestamp the same length, so string order
// equals time order even for sub-second values (RFC3339Nano trims trailing
// zeros, which would sort "…00.5Z" before "…00Z").
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseDec(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// AGENTS
// =============================================================================

func scanAgent(sc scanner) (engine.Agent, error) {
	var (
		a       engine.Agent
		parent  sql.NullString
		created string
	)
	if err := sc.Scan(&a.ID, &a.Name, &a.Level, &parent, &created); err != nil {
		return engine.Agent{}, err
	}
	if parent.Valid {
		id := engine.AgentID(parent.String)
		a.ParentID = &id
	}
	var err error
	if a.CreatedAt, err = parseTime(created); err != nil {
		return engine.Agent{}, fmt.Errorf("agent %s: bad created_at: %w", a.ID, err)
	}
	return a, nil
}

func (c *conn) CreateAgent(ctx context.Context, a engine.Agent) error {
	var parent any
	if a.ParentID != nil {
		parent = string(*a.ParentID)
	}
	_, err := c.exec(ctx, `
		INSERT INTO agents (id, name, level, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(a.ID), a.Name, int(a.Level), parent, fmtTime(a.CreatedAt))
	return err
}

func (c *conn) GetAgent(ctx context.Context, id engine.AgentID) (*engine.Agent, error) {
	row := c.queryRow(ctx, `
		SELECT id, name, level, parent_id, created_at
		FROM agents WHERE id = ?`, string(id))
	a, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *conn) UpdateAgent(ctx context.Context, a engine.Agent) error {
	var parent any
	if a.ParentID != nil {
		parent = string(*a.ParentID)
	}
	res, err := c.exec(ctx, `
		UPDATE agents SET name = ?, level = ?, parent_id = ? WHERE id = ?`,
		a.Name, int(a.Level), parent, string(a.ID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrAgentNotFound
	}
	return nil
}

func (c *conn) DeleteAgent(ctx context.Context, id engine.AgentID) error {
	res, err := c.exec(ctx, `DELETE FROM agents WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrAgentNotFound
	}
	return nil
}

func (c *conn) listAgentsWhere(ctx context.Context, where string, args ...any) ([]engine.Agent, error) {
	rows, err := c.query(ctx, `
		SELECT id, name, level, parent_id, created_at
		FROM agents `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (c *conn) ListAgents(ctx context.Context) ([]engine.Agent, error) {
	return c.listAgentsWhere(ctx, "")
}

func (c *conn) AgentsByLevel(ctx context.Context, level engine.Level) ([]engine.Agent, error) {
	return c.listAgentsWhere(ctx, "WHERE level = ?", int(level))
}

func (c *conn) ChildAgents(ctx context.Context, id engine.AgentID) ([]engine.Agent, error) {
	return c.listAgentsWhere(ctx, "WHERE parent_id = ?", string(id))
}

func (c *conn) AgentSaleCount(ctx context.Context, id engine.AgentID) (int, error) {
	var n int
	err := c.queryRow(ctx, `SELECT COUNT(*) FROM sales WHERE agent_id = ?`, string(id)).Scan(&n)
	return n, err
}

// =============================================================================
// SALES
// =============================================================================

func scanSale(sc scanner) (engine.Sale, error) {
	var (
		s               engine.Sale
		value           string
		saleDate, crtAt string
	)
	if err := sc.Scan(&s.ID, &s.PolicyNumber, &value, &saleDate, &s.AgentID, &s.IsCancelled, &crtAt); err != nil {
		return engine.Sale{}, err
	}
	var err error
	if s.PolicyValue, err = parseDec(value); err != nil {
		return engine.Sale{}, fmt.Errorf("sale %s: bad policy_value: %w", s.ID, err)
	}
	if s.SaleDate, err = parseTime(saleDate); err != nil {
		return engine.Sale{}, fmt.Errorf("sale %s: bad sale_date: %w", s.ID, err)
	}
	if s.CreatedAt, err = parseTime(crtAt); err != nil {
		return engine.Sale{}, fmt.Errorf("sale %s: bad created_at: %w", s.ID, err)
	}
	return s, nil
}

const saleColumns = `id, policy_number, policy_value, sale_date, agent_id, is_cancelled, created_at`

func (c *conn) CreateSale(ctx context.Context, s engine.Sale) error {
	_, err := c.exec(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(s.ID), s.PolicyNumber, s.PolicyValue.String(), fmtTime(s.SaleDate),
		string(s.AgentID), s.IsCancelled, fmtTime(s.CreatedAt))
	return err
}

func (c *conn) getSaleWhere(ctx context.Context, where string, arg any) (*engine.Sale, error) {
	row := c.queryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE `+where, arg)
	s, err := scanSale(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *conn) GetSale(ctx context.Context, id engine.SaleID) (*engine.Sale, error) {
	return c.getSaleWhere(ctx, "id = ?", string(id))
}

func (c *conn) SaleByPolicyNumber(ctx context.Context, policyNumber string) (*engine.Sale, error) {
	return c.getSaleWhere(ctx, "policy_number = ?", policyNumber)
}

func (c *conn) ListSales(ctx context.Context) ([]engine.Sale, error) {
	rows, err := c.query(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY sale_date DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *conn) MarkSaleCancelled(ctx context.Context, id engine.SaleID) error {
	res, err := c.exec(ctx, `UPDATE sales SET is_cancelled = TRUE WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrSaleNotFound
	}
	return nil
}

func (c *conn) ActiveSalesInRange(ctx context.Context, agentIDs []engine.AgentID, from, to time.Time) ([]engine.Sale, error) {
	if len(agentIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(agentIDs)), ", ")
	args := make([]any, 0, len(agentIDs)+2)
	for _, id := range agentIDs {
		args = append(args, string(id))
	}
	// Fixed-width RFC 3339 UTC strings compare lexicographically in date order.
	args = append(args, fmtTime(from), fmtTime(to))

	rows, err := c.query(ctx, `
		SELECT `+saleColumns+` FROM sales
		WHERE agent_id IN (`+placeholders+`)
		  AND is_cancelled = FALSE
		  AND sale_date >= ? AND sale_date < ?
		ORDER BY sale_date, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// =============================================================================
// COMMISSIONS
// =============================================================================

func scanCommission(sc scanner) (engine.Commission, error) {
	var (
		cm             engine.Commission
		amount, payout string
	)
	if err := sc.Scan(&cm.ID, &amount, &cm.Type, &cm.SaleID, &cm.AgentID, &payout); err != nil {
		return engine.Commission{}, err
	}
	var err error
	if cm.Amount, err = parseDec(amount); err != nil {
		return engine.Commission{}, fmt.Errorf("commission %s: bad amount: %w", cm.ID, err)
	}
	if cm.PayoutDate, err = parseTime(payout); err != nil {
		return engine.Commission{}, fmt.Errorf("commission %s: bad payout_date: %w", cm.ID, err)
	}
	return cm, nil
}

const commissionColumns = `id, amount, commission_type, sale_id, agent_id, payout_date`

func (c *conn) CreateCommission(ctx context.Context, cm engine.Commission) error {
	_, err := c.exec(ctx, `
		INSERT INTO commissions (`+commissionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(cm.ID), cm.Amount.String(), string(cm.Type),
		string(cm.SaleID), string(cm.AgentID), fmtTime(cm.PayoutDate))
	return err
}

func (c *conn) listCommissionsWhere(ctx context.Context, where string, args ...any) ([]engine.Commission, error) {
	rows, err := c.query(ctx, `
		SELECT `+commissionColumns+` FROM commissions `+where+` ORDER BY payout_date DESC, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Commission
	for rows.Next() {
		cm, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

func (c *conn) CommissionsBySale(ctx context.Context, id engine.SaleID) ([]engine.Commission, error) {
	return c.listCommissionsWhere(ctx, "WHERE sale_id = ?", string(id))
}

func (c *conn) ListCommissions(ctx context.Context) ([]engine.Commission, error) {
	return c.listCommissionsWhere(ctx, "")
}

// =============================================================================
// BONUSES
// =============================================================================

func scanBonus(sc scanner) (engine.Bonus, error) {
	var (
		b                        engine.Bonus
		amount, created, updated string
	)
	if err := sc.Scan(&b.ID, &amount, &b.Type, &b.Period, &b.AgentID, &created, &updated); err != nil {
		return engine.Bonus{}, err
	}
	var err error
	if b.Amount, err = parseDec(amount); err != nil {
		return engine.Bonus{}, fmt.Errorf("bonus %s: bad amount: %w", b.ID, err)
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return engine.Bonus{}, fmt.Errorf("bonus %s: bad created_at: %w", b.ID, err)
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return engine.Bonus{}, fmt.Errorf("bonus %s: bad updated_at: %w", b.ID, err)
	}
	return b, nil
}

const bonusColumns = `id, amount, bonus_type, period, agent_id, created_at, updated_at`

func (c *conn) CreateBonus(ctx context.Context, b engine.Bonus) error {
	_, err := c.exec(ctx, `
		INSERT INTO bonuses (`+bonusColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(b.ID), b.Amount.String(), string(b.Type), b.Period,
		string(b.AgentID), fmtTime(b.CreatedAt), fmtTime(b.UpdatedAt))
	return err
}

func (c *conn) UpdateBonusAmount(ctx context.Context, id engine.BonusID, amount decimal.Decimal, updatedAt time.Time) error {
	_, err := c.exec(ctx, `
		UPDATE bonuses SET amount = ?, updated_at = ? WHERE id = ?`,
		amount.String(), fmtTime(updatedAt), string(id))
	return err
}

func (c *conn) BonusFor(ctx context.Context, agentID engine.AgentID, period string, typ engine.BonusType) (*engine.Bonus, error) {
	row := c.queryRow(ctx, `
		SELECT `+bonusColumns+` FROM bonuses
		WHERE agent_id = ? AND period = ? AND bonus_type = ?`,
		string(agentID), period, string(typ))
	b, err := scanBonus(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *conn) ListBonuses(ctx context.Context) ([]engine.Bonus, error) {
	rows, err := c.query(ctx, `SELECT `+bonusColumns+` FROM bonuses ORDER BY period DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Bonus
	for rows.Next() {
		b, err := scanBonus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// =============================================================================
// CLAWBACKS
// =============================================================================

func scanClawback(sc scanner) (engine.Clawback, error) {
	var (
		cb                engine.Clawback
		amount, processed string
		commID, bonusID   sql.NullString
	)
	if err := sc.Scan(&cb.ID, &amount, &commID, &bonusID, &cb.SaleID, &processed); err != nil {
		return engine.Clawback{}, err
	}
	var err error
	if cb.Amount, err = parseDec(amount); err != nil {
		return engine.Clawback{}, fmt.Errorf("clawback %s: bad amount: %w", cb.ID, err)
	}
	if cb.ProcessedDate, err = parseTime(processed); err != nil {
		return engine.Clawback{}, fmt.Errorf("clawback %s: bad processed_date: %w", cb.ID, err)
	}
	if commID.Valid {
		id := engine.CommissionID(commID.String)
		cb.OriginalCommissionID = &id
	}
	if bonusID.Valid {
		id := engine.BonusID(bonusID.String)
		cb.OriginalBonusID = &id
	}
	return cb, nil
}

func (c *conn) CreateClawback(ctx context.Context, cb engine.Clawback) error {
	var commID, bonusID any
	if cb.OriginalCommissionID != nil {
		commID = string(*cb.OriginalCommissionID)
	}
	if cb.OriginalBonusID != nil {
		bonusID = string(*cb.OriginalBonusID)
	}
	_, err := c.exec(ctx, `
		INSERT INTO clawbacks (id, amount, original_commission_id, original_bonus_id, sale_id, processed_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(cb.ID), cb.Amount.String(), commID, bonusID,
		string(cb.SaleID), fmtTime(cb.ProcessedDate))
	return err
}

func (c *conn) ListClawbacks(ctx context.Context) ([]engine.Clawback, error) {
	rows, err := c.query(ctx, `
		SELECT id, amount, original_commission_id, original_bonus_id, sale_id, processed_date
		FROM clawbacks ORDER BY processed_date DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Clawback
	for rows.Next() {
		cb, err := scanClawback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cb)
	}
	return out, rows.Err()
}

// =============================================================================
// HIERARCHY SNAPSHOTS
// =============================================================================

func (c *conn) CreateSnapshot(ctx context.Context, sn engine.HierarchySnapshot) error {
	_, err := c.exec(ctx, `
		INSERT INTO hierarchy_snapshots (id, sale_id, agent_id, upline_level, upline_agent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(sn.ID), string(sn.SaleID), string(sn.AgentID),
		sn.UplineLevel, string(sn.UplineAgentID), fmtTime(sn.CreatedAt))
	return err
}

func (c *conn) SnapshotsBySale(ctx context.Context, id engine.SaleID) ([]engine.HierarchySnapshot, error) {
	rows, err := c.query(ctx, `
		SELECT id, sale_id, agent_id, upline_level, upline_agent_id, created_at
		FROM hierarchy_snapshots WHERE sale_id = ? ORDER BY upline_level`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.HierarchySnapshot
	for rows.Next() {
		var (
			sn      engine.HierarchySnapshot
			created string
		)
		if err := rows.Scan(&sn.ID, &sn.SaleID, &sn.AgentID, &sn.UplineLevel, &sn.UplineAgentID, &created); err != nil {
			return nil, err
		}
		if sn.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("snapshot %s: bad created_at: %w", sn.ID, err)
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}
