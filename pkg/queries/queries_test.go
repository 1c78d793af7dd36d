package queries

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_AllTemplatesCarryOnePlaceholder(t *testing.T) {
	for _, name := range Names() {
		tpl, err := Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, 1, strings.Count(tpl, FilterPlaceholder), name)
	}
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("no_such_query")
	assert.Error(t, err)
}

func TestRender_InjectsFilter(t *testing.T) {
	q, err := Render("pagos", "fecha_archivo >= '2025-06-01'")
	require.NoError(t, err)
	assert.Contains(t, q, "WHERE fecha_archivo >= '2025-06-01'")
	assert.NotContains(t, q, FilterPlaceholder)
}

func TestRender_EmptyFilterMeansFullRefresh(t *testing.T) {
	q, err := Render("ejecutivos", "")
	require.NoError(t, err)
	assert.Contains(t, q, "WHERE 1=1")
}
