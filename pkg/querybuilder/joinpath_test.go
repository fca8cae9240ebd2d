package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexadash/dcx/internal/testutil"
)

func TestFindJoinPathDirect(t *testing.T) {
	tables := testutil.NewFleetCatalog().Tables

	path := findJoinPath(tables, "h_viaje", "c_ruta")
	require.Len(t, path, 1)
	assert.Equal(t, "c_ruta", path[0].Alias)
}

func TestFindJoinPathTwoHops(t *testing.T) {
	tables := testutil.NewFleetCatalog().Tables

	path := findJoinPath(tables, "h_viaje", "c_zona")
	require.Len(t, path, 2)
	assert.Equal(t, "c_ruta", path[0].Alias)
	assert.Equal(t, "c_zona", path[1].Alias)
}

func TestFindJoinPathSameTable(t *testing.T) {
	tables := testutil.NewFleetCatalog().Tables

	path := findJoinPath(tables, "h_viaje", "h_viaje")
	require.NotNil(t, path)
	assert.Empty(t, path)
}

func TestFindJoinPathNoPath(t *testing.T) {
	tables := testutil.NewFleetCatalog().Tables

	assert.Nil(t, findJoinPath(tables, "h_viaje", "c_concepto"))
	assert.Nil(t, findJoinPath(tables, "h_viaje", "missing"))
}

func TestFindJoinPathDeterministic(t *testing.T) {
	tables := testutil.NewFleetCatalog().Tables

	first := findJoinPath(tables, "h_viaje", "c_zona")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, findJoinPath(tables, "h_viaje", "c_zona"))
	}
}
