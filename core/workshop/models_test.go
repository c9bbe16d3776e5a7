package workshop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable(t *testing.T) {
	tbl, err := ParseTable([]byte(`{
		"Holz": 12,
		"Glas": {"capacity": 8, "bands": ["band2", "band2"]},
		"Metall": {"capacity": 5, "bands": []}
	}`))
	require.NoError(t, err)
	assert.Equal(t, Table{
		"Holz":   {Capacity: 12, Bands: AllBands},
		"Glas":   {Capacity: 8, Bands: Bands{Band2}},
		"Metall": {Capacity: 5, Bands: Bands{}},
	}, tbl)
	assert.Equal(t, []string{"Glas", "Holz", "Metall"}, tbl.Names())

	_, err = ParseTable([]byte(`{"Holz": -1}`))
	assert.Error(t, err)
	_, err = ParseTable([]byte(`{"Holz": "many"}`))
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "kunst ii", NormalizeName("  Kunst   II "))
	assert.Equal(t, "Kunst II", CleanName("  Kunst \t II "))
	assert.Equal(t, Bands{Band1, Band2}, Bands{Band2, "band3", Band1, Band2}.Normalized())
	assert.Equal(t, Band2, Band1.Other())
	assert.Equal(t, Band1, Band2.Other())

	w := Workshop{Name: "Holz", NotParallel: []string{"Metall"}}
	assert.True(t, w.Excludes("Metall"))
	assert.False(t, w.Excludes("Glas"))

	typed := Workshop{Name: "Metall", NotParallel: []string{" holz "}}
	assert.True(t, typed.Excludes("Holz"), "names are compared in their normalized form")
}
