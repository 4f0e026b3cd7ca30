package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-insights/internal/domain"
)

func TestDigest(t *testing.T) {
	res := &domain.QueryResult{
		Columns: []string{"Category", "shipped_amount"},
		Rows: [][]any{
			{"Set", 647.62},
			{"kurta", 329.0},
			{"Top", 100.0},
		},
		RowCount: 3,
	}

	d := Digest(res, 2)

	assert.Equal(t, 3, d.Rows)
	assert.Equal(t, []string{"Category", "shipped_amount"}, d.Columns)
	require.Len(t, d.Sample, 2)
	assert.Equal(t, map[string]any{"Category": "Set", "shipped_amount": 647.62}, d.Sample[0])
}

func TestDigestEmptyResult(t *testing.T) {
	d := Digest(&domain.QueryResult{Columns: []string{"x"}}, 8)
	assert.Equal(t, 0, d.Rows)
	assert.Empty(t, d.Sample)

	assert.Equal(t, domain.ResultDigest{}, Digest(nil, 8))
}

func TestDigestNormalizesValues(t *testing.T) {
	res := &domain.QueryResult{
		Columns:  []string{"name", "min_date"},
		Rows:     [][]any{{[]byte("kurta"), time.Date(2022, 4, 30, 0, 0, 0, 0, time.UTC)}},
		RowCount: 1,
	}

	d := Digest(res, 8)
	assert.Equal(t, "kurta", d.Sample[0]["name"])
	assert.Equal(t, "2022-04-30", d.Sample[0]["min_date"])
}
