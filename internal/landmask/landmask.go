package landmask

import (
	"errors"
	"fmt"
	"iter"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"

	"github.com/shenikar/fire_risk_grid/internal/models"
)

// ErrBoundaryUnavailable - граница суши не загружена; запуск без неё невозможен
var ErrBoundaryUnavailable = errors.New("land boundary unavailable")

// pointPad - полуширина прямоугольника запроса к R-дереву в градусах
const pointPad = 1e-9

// OceanRule исключает точки западнее WestOf и южнее SouthOf
type OceanRule struct {
	WestOf  float64
	SouthOf float64
}

func (r OceanRule) excludes(p models.GridPoint) bool {
	return p.Longitude < r.WestOf && p.Latitude < r.SouthOf
}

// CaliforniaOceanRules - прибрежные зоны океана у Калифорнии
var CaliforniaOceanRules = []OceanRule{
	{WestOf: -123.0, SouthOf: 38.0},
	{WestOf: -122.5, SouthOf: 36.0},
	{WestOf: -121.5, SouthOf: 34.0},
}

// landPolygon хранит полигон суши в R-дереве
type landPolygon struct {
	geom.Polygonal
}

// Mask решает, относится ли точка к суше внутри области интереса.
// После создания не изменяется и безопасна для параллельного чтения.
type Mask struct {
	tree   *rtree.Rtree
	count  int
	area   *geom.Bounds
	oceans []OceanRule
}

// Option настраивает Mask
type Option func(*Mask)

// WithAreaOfInterest отбрасывает точки вне прямоугольника (границы включительно)
func WithAreaOfInterest(latMin, latMax, lonMin, lonMax float64) Option {
	return func(m *Mask) {
		m.area = &geom.Bounds{
			Min: geom.Point{X: lonMin, Y: latMin},
			Max: geom.Point{X: lonMax, Y: latMax},
		}
	}
}

// WithOceanRules задаёт дополнительные правила исключения океана
func WithOceanRules(rules ...OceanRule) Option {
	return func(m *Mask) {
		m.oceans = append([]OceanRule(nil), rules...)
	}
}

// New строит маску по набору полигонов суши (координаты X - долгота, Y - широта)
func New(polygons []geom.Polygonal, opts ...Option) (*Mask, error) {
	if len(polygons) == 0 {
		return nil, fmt.Errorf("%w: no polygons", ErrBoundaryUnavailable)
	}
	m := &Mask{tree: rtree.NewTree(25, 50)}
	for _, p := range polygons {
		if p == nil {
			continue
		}
		m.tree.Insert(&landPolygon{Polygonal: p})
		m.count++
	}
	if m.count == 0 {
		return nil, fmt.Errorf("%w: no polygons", ErrBoundaryUnavailable)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// LoadShapefile читает полигоны суши из shapefile в WGS84
func LoadShapefile(path string, opts ...Option) (*Mask, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrBoundaryUnavailable, path, err)
	}
	defer dec.Close()

	var polygons []geom.Polygonal
	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("%w: %s: land shapes need to be polygons, got %T", ErrBoundaryUnavailable, path, g)
		}
		polygons = append(polygons, p)
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrBoundaryUnavailable, path, err)
	}

	return New(polygons, opts...)
}

// Len возвращает количество полигонов суши
func (m *Mask) Len() int {
	return m.count
}

// Contains сообщает, лежит ли точка на суше и в области интереса.
// Точка на границе полигона сушей не считается.
func (m *Mask) Contains(p models.GridPoint) bool {
	if m.area != nil && !inBounds(m.area, p) {
		return false
	}
	for _, rule := range m.oceans {
		if rule.excludes(p) {
			return false
		}
	}
	return m.onLand(p)
}

// Filter пропускает только точки, для которых Contains истинно
func (m *Mask) Filter(points iter.Seq[models.GridPoint]) iter.Seq[models.GridPoint] {
	return func(yield func(models.GridPoint) bool) {
		for p := range points {
			if !m.Contains(p) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

func (m *Mask) onLand(p models.GridPoint) bool {
	pt := geom.Point{X: p.Longitude, Y: p.Latitude}
	query := &geom.Bounds{
		Min: geom.Point{X: pt.X - pointPad, Y: pt.Y - pointPad},
		Max: geom.Point{X: pt.X + pointPad, Y: pt.Y + pointPad},
	}
	for _, candidate := range m.tree.SearchIntersect(query) {
		land, ok := candidate.(*landPolygon)
		if !ok {
			continue
		}
		if pt.Within(land.Polygonal) == geom.Inside {
			return true
		}
	}
	return false
}

func inBounds(b *geom.Bounds, p models.GridPoint) bool {
	return p.Longitude >= b.Min.X && p.Longitude <= b.Max.X &&
		p.Latitude >= b.Min.Y && p.Latitude <= b.Max.Y
}
