package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/gauntlet/internal/queryir"
	"github.com/roach88/gauntlet/internal/results"
)

//go:embed schema.sql
var schemaSQL string

// currentSchemaVersion is stamped into user_version. Databases written by a
// newer version are refused.
const currentSchemaVersion = 1

// SQLiteStore keeps a result table in a SQLite database.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite creates or opens the database at path and applies pragmas and
// the schema. It is safe to call on an existing database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{path: path, db: db}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns every stored row in write order. When no layout has been
// written, the result is an empty table with the reserved columns.
func (s *SQLiteStore) Load(ctx context.Context) (*results.Table, error) {
	cols, err := loadColumns(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return results.EmptyTable(), nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT row_json FROM result_rows ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	t := results.NewTable(cols...)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row, err := results.UnmarshalRow([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		t.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return t, nil
}

// Write replaces the stored layout and rows in a single transaction.
// A row rewritten unchanged keeps the run ID it was stored with; every
// other row is attributed to the run ID in ctx.
func (s *SQLiteStore) Write(ctx context.Context, t *results.Table, front []string) error {
	cols := OrderColumns(t.Columns, front)
	if err := checkColumns(cols); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	origins, err := rowOrigins(ctx, tx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM result_rows`); err != nil {
		return fmt.Errorf("clear rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM result_columns`); err != nil {
		return fmt.Errorf("clear columns: %w", err)
	}
	if err := insertColumns(ctx, tx, cols, 0); err != nil {
		return err
	}
	runID := RunIDFromContext(ctx)
	for _, row := range t.Rows {
		row = queryir.Project(row, cols)
		id := runID
		if hash, err := results.RowHash(row); err == nil {
			if origin, ok := origins[hash]; ok {
				id = origin
			}
		}
		if err := insertRow(ctx, tx, row, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Appender widens the stored layout with columns and returns a writer that
// inserts one row per call. Each insert commits on its own.
func (s *SQLiteStore) Appender(ctx context.Context, columns []string) (Appender, error) {
	if err := checkColumns(columns); err != nil {
		return nil, fmt.Errorf("append %s: %w", s.path, err)
	}
	existing, err := loadColumns(ctx, s.db)
	if err != nil {
		return nil, err
	}
	layout := widen(existing, columns)
	if len(layout) > len(existing) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()
		if err := insertColumns(ctx, tx, layout[len(existing):], len(existing)); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
	}
	return &sqliteAppender{ctx: ctx, db: s.db, columns: layout, runID: RunIDFromContext(ctx)}, nil
}

// RunSummary counts the stored rows written by one run.
type RunSummary struct {
	RunID string `json:"run_id"`
	Rows  int    `json:"rows"`
}

// Runs returns the run IDs that produced the stored rows, oldest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, COUNT(*) FROM result_rows
		GROUP BY run_id
		ORDER BY MIN(seq)
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.RunID, &rs.Rows); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// rowOrigins maps each stored row hash to the run ID it was written by.
// Later rows win.
func rowOrigins(ctx context.Context, tx *sql.Tx) (map[string]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT row_hash, run_id FROM result_rows ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query row origins: %w", err)
	}
	defer rows.Close()

	origins := make(map[string]string)
	for rows.Next() {
		var hash, runID string
		if err := rows.Scan(&hash, &runID); err != nil {
			return nil, fmt.Errorf("scan row origin: %w", err)
		}
		origins[hash] = runID
	}
	return origins, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func loadColumns(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM result_columns ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func insertColumns(ctx context.Context, ex execer, cols []string, offset int) error {
	for i, c := range cols {
		if _, err := ex.ExecContext(ctx,
			`INSERT INTO result_columns (position, name) VALUES (?, ?)`, offset+i, c); err != nil {
			return fmt.Errorf("insert column %q: %w", c, err)
		}
	}
	return nil
}

func insertRow(ctx context.Context, ex execer, row results.Row, runID string) error {
	data, err := results.MarshalCanonical(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	hash, err := results.RowHash(row)
	if err != nil {
		return fmt.Errorf("hash row: %w", err)
	}
	p, _ := row.Pair()

	var runtime sql.NullFloat64
	switch v := row.Get(results.ColRuntimeSecs).(type) {
	case results.Float:
		runtime = sql.NullFloat64{Float64: float64(v), Valid: !results.IsNull(v)}
	case results.Int:
		runtime = sql.NullFloat64{Float64: float64(v), Valid: true}
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO result_rows (validation_id, model_id, runtime_secs, row_json, row_hash, run_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ValidationID, p.ModelID, runtime, string(data), hash, runID)
	if err != nil {
		return fmt.Errorf("insert row %s: %w", p, err)
	}
	return nil
}

type sqliteAppender struct {
	ctx     context.Context
	db      *sql.DB
	columns []string
	runID   string
}

func (a *sqliteAppender) Append(row results.Row) error {
	return insertRow(a.ctx, a.db, queryir.Project(row, a.columns), a.runID)
}

func (a *sqliteAppender) Columns() []string {
	return a.columns
}

func (a *sqliteAppender) Close() error {
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables and indexes if they don't exist and stamps
// the schema version.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *SQLiteStore) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
