package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Re-running seed must never duplicate rows: every seeded table either has
// its rows replaced wholesale or upserts on its natural key.
func TestSeedIsRepeatablePerTable(t *testing.T) {
	assert.Contains(t, ledgerTables, "sale_records")
	assert.Contains(t, ledgerTables, "prep_log")

	keyed := map[string]string{
		"dispatch_records": dispatchInsertSQL,
		"dishes":           dishInsertSQL,
		"recipes":          recipeInsertSQL,
	}
	for table, stmt := range keyed {
		assert.Contains(t, stmt, "ON CONFLICT", table)
	}
}
