// Package store runs the analytical side of the assistant: an embedded
// DuckDB database holding the currently loaded sales dataset.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"

	"retail-insights/internal/domain"
	"retail-insights/internal/schema"
	"retail-insights/internal/sqlgen"
)

// Store wraps a DuckDB connection plus the metadata of the dataset
// currently loaded into it. A Store starts empty; queries against an
// empty store fail with an UnavailableError until LoadCSV succeeds.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu   sync.RWMutex
	meta *domain.Metadata
}

// Open creates a Store backed by DuckDB at path. An empty path opens an
// in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadCSV replaces the dataset table with the contents of the CSV at
// csvPath. The file is ingested with every column as VARCHAR first, then
// rewritten with Amount and Qty cast to DOUBLE (unparseable values become
// NULL). On success the store's metadata is refreshed from DuckDB's
// information schema.
func (s *Store) LoadCSV(ctx context.Context, csvPath, table string) (*domain.Metadata, error) {
	raw := table + "_raw"

	loadSQL := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv(%s, header=true, all_varchar=true)",
		quoteIdent(raw), sqlgen.Literal(csvPath),
	)
	if _, err := s.db.ExecContext(ctx, loadSQL); err != nil {
		return nil, fmt.Errorf("read csv %s: %w", csvPath, err)
	}

	rawCols, err := s.tableColumns(ctx, raw)
	if err != nil {
		return nil, err
	}

	// Rebuild the table with numeric columns cast. TRY_CAST turns junk
	// values into NULL instead of failing the load.
	exprs := make([]string, len(rawCols))
	for i, c := range rawCols {
		switch c.Name {
		case "Amount", "Qty":
			exprs[i] = fmt.Sprintf("TRY_CAST(%s AS DOUBLE) AS %s", quoteIdent(c.Name), quoteIdent(c.Name))
		default:
			exprs[i] = quoteIdent(c.Name)
		}
	}
	castSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT %s FROM %s",
		quoteIdent(table), strings.Join(exprs, ", "), quoteIdent(raw))
	if _, err := s.db.ExecContext(ctx, castSQL); err != nil {
		return nil, fmt.Errorf("normalize dataset: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DROP TABLE "+quoteIdent(raw)); err != nil {
		return nil, fmt.Errorf("drop staging table: %w", err)
	}

	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	meta := schema.BuildMetadata(table, cols)
	s.mu.Lock()
	s.meta = meta
	s.mu.Unlock()

	s.logger.Info("dataset loaded", "path", csvPath, "table", table, "columns", len(cols))
	return meta, nil
}

// Metadata returns the loaded dataset's metadata, or an UnavailableError
// when no dataset has been loaded yet.
func (s *Store) Metadata() (*domain.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return nil, domain.ErrUnavailable("no dataset loaded")
	}
	return s.meta, nil
}

// Execute runs a read-only statement and materializes the full result.
// Every statement passes the SELECT-only gate immediately before
// execution, including statements generated internally.
func (s *Store) Execute(ctx context.Context, query string) (*domain.QueryResult, error) {
	if _, err := s.Metadata(); err != nil {
		return nil, err
	}
	if err := sqlgen.AssertSelectOnly(query); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var resultRows [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return &domain.QueryResult{
		Columns:  cols,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// tableColumns reads the column set of a table in ordinal order.
func (s *Store) tableColumns(ctx context.Context, table string) ([]domain.Column, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position",
		table)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", table, err)
	}
	defer rows.Close() //nolint:errcheck

	var cols []domain.Column
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan column info: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column info: %w", err)
	}
	if len(cols) == 0 {
		return nil, domain.ErrNotFound("table %q has no columns", table)
	}
	return cols, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
