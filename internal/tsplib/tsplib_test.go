package tsplib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInstance = `NAME: square4
COMMENT: unit square
TYPE: TSP
DIMENSION: 4
EDGE_WEIGHT_TYPE: EUC_2D
NODE_COORD_SECTION
1 0.0 0.0
2 1.0 0.0
3 1.0 1.0
4 0.0 1.0
EOF
`

func TestParseSampleInstance(t *testing.T) {
	inst, err := Parse(strings.NewReader(sampleInstance))
	require.NoError(t, err)

	assert.Equal(t, "square4", inst.Name)
	assert.Equal(t, "TSP", inst.Type)
	assert.Equal(t, "EUC_2D", inst.EdgeWeightType)
	assert.Equal(t, 4, inst.Dimension)
	require.Len(t, inst.Coords, 4)
	assert.Equal(t, 1.0, inst.Coords[1].X)
	assert.Equal(t, 1.0, inst.Coords[2].Y)

	p, err := inst.Problem()
	require.NoError(t, err)
	d, err := p.TourDistance([]int{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 4.0, d)
}

func TestParseStopsAfterDimensionCoords(t *testing.T) {
	// No EOF marker; the coordinate section ends once DIMENSION entries
	// have been read.
	content := strings.Replace(sampleInstance, "EOF\n", "", 1)
	inst, err := Parse(strings.NewReader(content))
	require.NoError(t, err)
	assert.Len(t, inst.Coords, 4)
}

func TestParseRejectsUnsupportedType(t *testing.T) {
	content := strings.Replace(sampleInstance, "TYPE: TSP", "TYPE: ATSP", 1)
	_, err := Parse(strings.NewReader(content))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestParseRejectsUnsupportedEdgeWeightType(t *testing.T) {
	content := strings.Replace(sampleInstance, "EDGE_WEIGHT_TYPE: EUC_2D", "EDGE_WEIGHT_TYPE: GEO", 1)
	_, err := Parse(strings.NewReader(content))
	assert.ErrorIs(t, err, ErrUnsupportedEdgeWeight)
}

func TestParseRejectsMissingDimension(t *testing.T) {
	content := strings.Replace(sampleInstance, "DIMENSION: 4\n", "", 1)
	_, err := Parse(strings.NewReader(content))
	assert.ErrorIs(t, err, ErrMissingDimension)
}

func TestParseRejectsCoordCountMismatch(t *testing.T) {
	content := strings.Replace(sampleInstance, "DIMENSION: 4", "DIMENSION: 6", 1)
	_, err := Parse(strings.NewReader(content))
	assert.ErrorIs(t, err, ErrCoordCount)
}

func TestParseSkipsMalformedCoordLines(t *testing.T) {
	content := strings.Replace(sampleInstance, "2 1.0 0.0", "2 not-a-number 0.0\n2 1.0 0.0", 1)
	inst, err := Parse(strings.NewReader(content))
	require.NoError(t, err)
	assert.Len(t, inst.Coords, 4)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.tsp"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square4.tsp")
	require.NoError(t, os.WriteFile(path, []byte(sampleInstance), 0o644))

	inst, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, inst.Dimension)
}

func TestKnownOptimum(t *testing.T) {
	opt, ok := KnownOptimum("Berlin52")
	require.True(t, ok)
	assert.Equal(t, 7542.0, opt)

	_, ok = KnownOptimum("square4")
	assert.False(t, ok)
}
