package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-insights/internal/domain"
	"retail-insights/internal/sqlgen"
)

const sampleCSV = `Order ID,Date,Status,Category,Qty,Amount,ship-state
405-1,04-30-22,Shipped,Set,1,647.62,CA
405-2,04-30-22,Cancelled,kurta,1,0,NY
405-3,04-29-22,Shipped - Delivered to Buyer,kurta,2,329.00,CA
405-4,04-29-22,Shipped,Western Dress,1,753.33,TX
`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func loadSample(t *testing.T, s *Store) *domain.Metadata {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	meta, err := s.LoadCSV(context.Background(), path, "sales")
	require.NoError(t, err)
	return meta
}

func TestMetadataBeforeLoad(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Metadata()
	var uerr *domain.UnavailableError
	assert.ErrorAs(t, err, &uerr)

	_, err = s.Execute(context.Background(), "SELECT 1")
	assert.ErrorAs(t, err, &uerr)
}

func TestLoadCSV(t *testing.T) {
	s := newTestStore(t)
	meta := loadSample(t, s)

	assert.Equal(t, "sales", meta.Table)
	assert.Equal(t,
		[]string{"Order ID", "Date", "Status", "Category", "Qty", "Amount", "ship-state"},
		meta.ColumnNames())
	assert.Contains(t, meta.Description, "Dataset columns:")

	byName := map[string]string{}
	for _, c := range meta.Columns {
		byName[c.Name] = c.Type
	}
	assert.Equal(t, "DOUBLE", byName["Amount"])
	assert.Equal(t, "DOUBLE", byName["Qty"])
	assert.Equal(t, "VARCHAR", byName["Status"])
}

func TestExecuteBuiltQuery(t *testing.T) {
	s := newTestStore(t)
	meta := loadSample(t, s)

	p := &domain.QueryPlan{
		Metrics: []string{"shipped_amount", "orders"},
		GroupBy: []string{"Category"},
		Sort:    []domain.SortKey{{By: "shipped_amount", Order: "desc"}},
		Limit:   10,
	}
	query := sqlgen.Build(p, meta.ColumnNames(), meta.Table)

	res, err := s.Execute(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, []string{"Category", "shipped_amount", "orders"}, res.Columns)
	assert.Equal(t, 3, res.RowCount)
	// Western Dress has the largest shipped total.
	assert.Equal(t, "Western Dress", res.Rows[0][0])
}

func TestExecuteFilters(t *testing.T) {
	s := newTestStore(t)
	meta := loadSample(t, s)

	p := &domain.QueryPlan{
		Metrics: []string{"units"},
		Filters: map[string]any{"ship-state": []any{"CA"}},
		Limit:   10,
	}
	res, err := s.Execute(context.Background(), sqlgen.Build(p, meta.ColumnNames(), meta.Table))
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount)
	// 1 (Set) + 2 (kurta), both shipped from CA.
	assert.EqualValues(t, 3, res.Rows[0][0])
}

func TestExecuteRejectsUnsafeSQL(t *testing.T) {
	s := newTestStore(t)
	loadSample(t, s)

	_, err := s.Execute(context.Background(), "DROP TABLE sales")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = s.Execute(context.Background(), "SELECT 1; DELETE FROM sales")
	assert.ErrorAs(t, err, &verr)
}

func TestLoadCSVReplacesDataset(t *testing.T) {
	s := newTestStore(t)
	loadSample(t, s)

	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("Order ID,Amount\n1,5\n"), 0o644))
	meta, err := s.LoadCSV(context.Background(), path, "sales")
	require.NoError(t, err)

	assert.Equal(t, []string{"Order ID", "Amount"}, meta.ColumnNames())

	res, err := s.Execute(context.Background(), "SELECT COUNT(*) FROM sales")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Rows[0][0])
}
