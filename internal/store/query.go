package store

import (
	"context"
	"fmt"

	"github.com/roach88/gauntlet/internal/queryir"
	"github.com/roach88/gauntlet/internal/querysql"
	"github.com/roach88/gauntlet/internal/results"
)

// Querier is implemented by stores that can filter rows without loading
// the whole table.
type Querier interface {
	Query(ctx context.Context, sel queryir.Select) (*results.Table, error)
}

// Query returns the rows and columns of s selected by sel, in stored
// order. Stores that implement Querier filter natively; the rest are
// loaded and filtered in memory.
func Query(ctx context.Context, s Store, sel queryir.Select) (*results.Table, error) {
	if q, ok := s.(Querier); ok {
		return q.Query(ctx, sel)
	}
	t, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return queryir.Apply(sel, t)
}

// Query compiles sel to SQL and decodes the matching rows.
func (s *SQLiteStore) Query(ctx context.Context, sel queryir.Select) (*results.Table, error) {
	layout, err := loadColumns(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if len(layout) == 0 {
		layout = results.ReservedColumns
	}
	if err := queryir.Validate(sel, layout); err != nil {
		return nil, err
	}

	query, params, err := querysql.Compile(sel)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	cols := queryir.Layout(sel, layout)
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
		t.Rows = append(t.Rows, queryir.Project(row, cols))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return t, nil
}
