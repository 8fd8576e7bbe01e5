package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shenikar/fire_risk_grid/internal/models"
)

// ObservationRepository читает таблицу weather_data, заполняемую загрузчиком NOAA GSOD
type ObservationRepository struct {
	db     DB
	logger *logrus.Logger
}

func NewObservationRepository(db DB, logger *logrus.Logger) *ObservationRepository {
	return &ObservationRepository{db: db, logger: logger}
}

// Observations возвращает последнее наблюдение каждой станции.
// Строки без координат или обязательных полей пропускаются.
func (r *ObservationRepository) Observations(ctx context.Context) ([]models.Observation, error) {
	log := r.logger.WithFields(logrus.Fields{
		"source": "db",
		"table":  "weather_data",
	})

	query := `
		SELECT DISTINCT ON ("STATION")
			"STATION",
			"DATE",
			"LATITUDE",
			"LONGITUDE",
			"TEMP",
			"DEWP",
			"SLP",
			"WDSP",
			"GUST",
			"PRCP",
			"MAX",
			"MIN"
		FROM weather_data
		WHERE "STATION" IS NOT NULL
		ORDER BY "STATION", "DATE" DESC NULLS LAST;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather data: %w", err)
	}
	defer rows.Close()

	observations := make([]models.Observation, 0)
	for rows.Next() {
		var (
			station  float64
			date     *time.Time
			lat, lon *float64
			values   = make([]*float64, len(models.WeatherFields))
		)
		dest := []any{&station, &date, &lat, &lon}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan weather row: %w", err)
		}

		stationID := strconv.FormatFloat(station, 'f', -1, 64)
		if lat == nil || lon == nil {
			log.WithField("station", stationID).Warn("Skipping weather row without coordinates")
			continue
		}

		obs := models.Observation{
			Station:   stationID,
			Latitude:  *lat,
			Longitude: *lon,
			Fields:    make(map[string]float64, len(models.WeatherFields)),
		}
		if date != nil {
			obs.Timestamp = date.UTC()
		}
		for i, name := range models.WeatherFields {
			if values[i] != nil {
				obs.Fields[name] = *values[i]
			}
		}
		if !obs.Complete() {
			log.WithField("station", stationID).Warn("Skipping incomplete weather row")
			continue
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error weather iteration: %w", err)
	}

	log.WithField("count", len(observations)).Debug("Weather observations loaded")
	return observations, nil
}
