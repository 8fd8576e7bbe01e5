package weather

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s2"

	"github.com/shenikar/fire_risk_grid/internal/features"
	"github.com/shenikar/fire_risk_grid/internal/models"
)

// EarthRadiusKm - средний радиус Земли (IUGG)
const EarthRadiusKm = 6371.0088

// tieToleranceKm - расстояния, отличающиеся меньше чем на эту величину, считаются равными
const tieToleranceKm = 1e-9

// ErrNoObservations - нет ни одного наблюдения для сопоставления
var ErrNoObservations = errors.New("no weather data available")

// Match - ближайшее наблюдение и расстояние до него
type Match struct {
	Index       int
	Observation models.Observation
	DistanceKm  float64
}

// DistanceKm возвращает расстояние по большому кругу между двумя точками
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKm
}

// Nearest находит наблюдение, ближайшее к точке. При равных расстояниях
// побеждает наблюдение с меньшим индексом. Наблюдения с некорректными
// координатами (расстояние NaN) не участвуют. Полный перебор O(m) на точку;
// для больших наборов наблюдений сюда встраивается пространственный индекс.
func Nearest(point models.GridPoint, observations []models.Observation) (Match, error) {
	if len(observations) == 0 {
		return Match{}, ErrNoObservations
	}

	best := Match{Index: -1}
	for i, obs := range observations {
		d := DistanceKm(point.Latitude, point.Longitude, obs.Latitude, obs.Longitude)
		if math.IsNaN(d) {
			continue
		}
		if best.Index < 0 || d < best.DistanceKm-tieToleranceKm {
			best = Match{Index: i, Observation: obs, DistanceKm: d}
		}
	}
	if best.Index < 0 {
		return Match{}, fmt.Errorf("%w: no observation has valid coordinates", ErrNoObservations)
	}
	return best, nil
}

// Resolve возвращает погодную часть вектора признаков для точки
func Resolve(point models.GridPoint, observations []models.Observation) (features.Vector, error) {
	match, err := Nearest(point, observations)
	if err != nil {
		return nil, err
	}

	vec := make(features.Vector, len(models.WeatherFields))
	for _, name := range models.WeatherFields {
		v, ok := match.Observation.Fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s in observation %d", features.ErrMissingFeature, name, match.Index)
		}
		vec[name] = v
	}
	return vec, nil
}
