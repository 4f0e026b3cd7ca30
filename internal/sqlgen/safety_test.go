package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-insights/internal/domain"
)

func TestAssertSelectOnlyAccepts(t *testing.T) {
	assert.NoError(t, AssertSelectOnly("SELECT 1"))
	assert.NoError(t, AssertSelectOnly("  select Amount from sales limit 5"))
	assert.NoError(t, AssertSelectOnly("SELECT \"Category\"\nFROM sales\nLIMIT 10"))
}

func TestAssertSelectOnlyRejectsNonSelect(t *testing.T) {
	err := AssertSelectOnly("DROP TABLE sales")
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAssertSelectOnlyRejectsBannedKeywords(t *testing.T) {
	cases := []string{
		"SELECT 1; DROP TABLE sales",
		"SELECT * FROM sales WHERE 1=1; DELETE FROM sales",
		"select 1 union select * from pragma_database_list",
		"SELECT 1 /* insert */",
		"SELECT * FROM sales; ATTACH ':memory:' AS x",
		"select 1; copy sales to 'out.csv'",
	}
	for _, sql := range cases {
		assert.Error(t, AssertSelectOnly(sql), "expected rejection: %s", sql)
	}
}

func TestAssertSelectOnlyRejectsEmpty(t *testing.T) {
	assert.Error(t, AssertSelectOnly(""))
	assert.Error(t, AssertSelectOnly("   "))
}
