package grid

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/shenikar/fire_risk_grid/internal/models"
)

// ErrInvalidRegion возвращается при попытке построить некорректную область
var ErrInvalidRegion = errors.New("invalid region")

// Region - прямоугольная область с равномерной сеткой rows x cols.
// Обе границы по каждой оси входят в сетку.
type Region struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
	Rows   int     `json:"rows"`
	Cols   int     `json:"cols"`
}

// NewRegion проверяет границы и разрешение и возвращает область
func NewRegion(latMin, latMax, lonMin, lonMax float64, rows, cols int) (Region, error) {
	for _, v := range []float64{latMin, latMax, lonMin, lonMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Region{}, fmt.Errorf("%w: bounds must be finite", ErrInvalidRegion)
		}
	}
	if latMin >= latMax {
		return Region{}, fmt.Errorf("%w: lat_min %v must be less than lat_max %v", ErrInvalidRegion, latMin, latMax)
	}
	if lonMin >= lonMax {
		return Region{}, fmt.Errorf("%w: lon_min %v must be less than lon_max %v", ErrInvalidRegion, lonMin, lonMax)
	}
	if latMin < -90 || latMax > 90 || lonMin < -180 || lonMax > 180 {
		return Region{}, fmt.Errorf("%w: bounds outside WGS84 range", ErrInvalidRegion)
	}
	if rows <= 0 || cols <= 0 {
		return Region{}, fmt.Errorf("%w: resolution %dx%d must be positive", ErrInvalidRegion, rows, cols)
	}
	return Region{
		LatMin: latMin,
		LatMax: latMax,
		LonMin: lonMin,
		LonMax: lonMax,
		Rows:   rows,
		Cols:   cols,
	}, nil
}

// Len возвращает количество узлов сетки
func (r Region) Len() int {
	return r.Rows * r.Cols
}

// Contains сообщает, лежит ли точка внутри прямоугольника области
func (r Region) Contains(p models.GridPoint) bool {
	return p.Latitude >= r.LatMin && p.Latitude <= r.LatMax &&
		p.Longitude >= r.LonMin && p.Longitude <= r.LonMax
}

// Points возвращает ленивую последовательность узлов: по возрастанию широты,
// внутри строки по возрастанию долготы. Последовательность можно обходить повторно.
func (r Region) Points() iter.Seq[models.GridPoint] {
	return func(yield func(models.GridPoint) bool) {
		lats := linspace(r.LatMin, r.LatMax, r.Rows)
		lons := linspace(r.LonMin, r.LonMax, r.Cols)
		for _, lat := range lats {
			for _, lon := range lons {
				if !yield(models.GridPoint{Latitude: lat, Longitude: lon}) {
					return
				}
			}
		}
	}
}

// linspace повторяет numpy.linspace с endpoint=True: последнее значение
// принудительно равно stop, чтобы не терять его на ошибке округления.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
