package landmask

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/fire_risk_grid/internal/models"
)

// square возвращает полигон-квадрат по долготе/широте
func square(lonMin, latMin, lonMax, latMax float64) geom.Polygon {
	return geom.Polygon{{
		{X: lonMin, Y: latMin},
		{X: lonMax, Y: latMin},
		{X: lonMax, Y: latMax},
		{X: lonMin, Y: latMax},
		{X: lonMin, Y: latMin},
	}}
}

func TestContains_PolygonMembership(t *testing.T) {
	m, err := New([]geom.Polygonal{square(-120, 35, -118, 37)})
	require.NoError(t, err)

	assert.True(t, m.Contains(models.GridPoint{Latitude: 36, Longitude: -119}))
	assert.False(t, m.Contains(models.GridPoint{Latitude: 36, Longitude: -125}))
	assert.False(t, m.Contains(models.GridPoint{Latitude: 40, Longitude: -119}))
}

func TestContains_Hole(t *testing.T) {
	lake := square(-119.5, 35.5, -118.5, 36.5)[0]
	slices.Reverse(lake)
	land := square(-120, 35, -118, 37)
	land = append(land, lake)

	m, err := New([]geom.Polygonal{land})
	require.NoError(t, err)

	assert.False(t, m.Contains(models.GridPoint{Latitude: 36, Longitude: -119}), "point in lake")
	assert.True(t, m.Contains(models.GridPoint{Latitude: 35.2, Longitude: -119.8}))
}

func TestContains_Idempotent(t *testing.T) {
	m, err := New([]geom.Polygonal{square(-120, 35, -118, 37)}, WithOceanRules(CaliforniaOceanRules...))
	require.NoError(t, err)

	points := []models.GridPoint{
		{Latitude: 36, Longitude: -119},
		{Latitude: 33, Longitude: -122},
		{Latitude: 36, Longitude: -117},
	}
	for _, p := range points {
		first := m.Contains(p)
		second := m.Contains(p)
		assert.Equal(t, first, second, "point %+v", p)
	}
}

func TestContains_OceanRules(t *testing.T) {
	// Полигон намеренно накрывает океан, чтобы проверить отдельные правила
	m, err := New(
		[]geom.Polygonal{square(-126, 30, -110, 45)},
		WithOceanRules(CaliforniaOceanRules...),
	)
	require.NoError(t, err)

	assert.False(t, m.Contains(models.GridPoint{Latitude: 37.5, Longitude: -123.5}))
	assert.False(t, m.Contains(models.GridPoint{Latitude: 35.5, Longitude: -122.8}))
	assert.False(t, m.Contains(models.GridPoint{Latitude: 33.5, Longitude: -121.8}))
	assert.True(t, m.Contains(models.GridPoint{Latitude: 39, Longitude: -123.5}))
	assert.True(t, m.Contains(models.GridPoint{Latitude: 33.5, Longitude: -117}))
}

func TestContains_AreaOfInterest(t *testing.T) {
	m, err := New(
		[]geom.Polygonal{square(-126, 30, -110, 45)},
		WithAreaOfInterest(32.5, 42.0, -124.4, -114.0),
	)
	require.NoError(t, err)

	assert.True(t, m.Contains(models.GridPoint{Latitude: 32.5, Longitude: -114.0}), "bounds are inclusive")
	assert.False(t, m.Contains(models.GridPoint{Latitude: 43, Longitude: -120}))
	assert.False(t, m.Contains(models.GridPoint{Latitude: 36, Longitude: -113}))
}

func TestFilter(t *testing.T) {
	m, err := New([]geom.Polygonal{square(-120, 35, -118, 37)})
	require.NoError(t, err)

	in := slices.Values([]models.GridPoint{
		{Latitude: 36, Longitude: -119},
		{Latitude: 36, Longitude: -125},
		{Latitude: 35.5, Longitude: -118.5},
	})

	out := slices.Collect(m.Filter(in))
	assert.Equal(t, []models.GridPoint{
		{Latitude: 36, Longitude: -119},
		{Latitude: 35.5, Longitude: -118.5},
	}, out)
}

func TestNew_Empty(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBoundaryUnavailable)
}

func TestLoadShapefile_Missing(t *testing.T) {
	_, err := LoadShapefile(filepath.Join(t.TempDir(), "missing.shp"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBoundaryUnavailable)
}

type landShape struct {
	geom.Polygon
	Name string
}

type stationShape struct {
	geom.Point
	Name string
}

// writeShapefile записывает записи archetype-типа в shapefile во временном каталоге
func writeShapefile[T any](t *testing.T, records ...T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boundary.shp")

	var archetype T
	enc, err := shp.NewEncoder(path, archetype)
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, enc.Encode(r))
	}
	enc.Close()
	return path
}

func TestLoadShapefile_Polygons(t *testing.T) {
	// Подготовка
	path := writeShapefile(t, landShape{Polygon: square(-120, 35, -118, 37), Name: "land"})

	// Действие
	m, err := LoadShapefile(path)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Contains(models.GridPoint{Latitude: 36, Longitude: -119}))
	assert.False(t, m.Contains(models.GridPoint{Latitude: 36, Longitude: -121}))
}

func TestLoadShapefile_WithOptions(t *testing.T) {
	path := writeShapefile(t, landShape{Polygon: square(-124, 32, -118, 40), Name: "coast"})

	m, err := LoadShapefile(path,
		WithAreaOfInterest(33, 39, -123.5, -118.5),
		WithOceanRules(CaliforniaOceanRules...),
	)
	require.NoError(t, err)

	assert.True(t, m.Contains(models.GridPoint{Latitude: 37, Longitude: -120}))
	// Западнее -123.0 и южнее 38.0 считается океаном
	assert.False(t, m.Contains(models.GridPoint{Latitude: 37, Longitude: -123.2}))
	// Вне области интереса
	assert.False(t, m.Contains(models.GridPoint{Latitude: 39.5, Longitude: -120}))
}

func TestLoadShapefile_NotPolygons(t *testing.T) {
	path := writeShapefile(t, stationShape{Point: geom.Point{X: -119, Y: 36}, Name: "station"})

	_, err := LoadShapefile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBoundaryUnavailable)
}
