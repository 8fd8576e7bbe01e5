package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shenikar/fire_risk_grid/internal/models"
)

// Названия признаков, которые добавляются к погодным полям
const (
	FeatureLatitude  = "latitude"
	FeatureLongitude = "longitude"
	FeatureDayNight  = "daynight_encoded"
)

// Границы светлого времени суток по местному времени: [DayStartHour, DayEndHour)
const (
	DayStartHour = 6
	DayEndHour   = 18
)

// ErrMissingFeature - модели требуется признак, которого нет в векторе
var ErrMissingFeature = errors.New("missing feature")

// Vector - именованный набор числовых признаков точки
type Vector map[string]float64

// Ordered раскладывает вектор в порядке, ожидаемом моделью.
// Отсутствующий или нечисловой признак - ошибка, значения по умолчанию не подставляются.
func (v Vector) Ordered(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		val, ok := v[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, name)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("%w: %s is not a finite number", ErrMissingFeature, name)
		}
		out[i] = val
	}
	return out, nil
}

// DayNight возвращает 0 днём и 1 ночью по местному времени зоны zone
func DayNight(instant time.Time, zone *time.Location) int {
	if zone == nil {
		zone = time.UTC
	}
	hour := instant.In(zone).Hour()
	if hour >= DayStartHour && hour < DayEndHour {
		return 0
	}
	return 1
}

// Assemble собирает полный вектор: координаты точки, погодные поля и признак дня/ночи
func Assemble(point models.GridPoint, weather Vector, dayNight int) Vector {
	vec := make(Vector, len(weather)+3)
	vec[FeatureLatitude] = point.Latitude
	vec[FeatureLongitude] = point.Longitude
	for k, v := range weather {
		vec[k] = v
	}
	vec[FeatureDayNight] = float64(dayNight)
	return vec
}
