package weather

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shenikar/fire_risk_grid/internal/models"
)

// Source отдаёт неизменяемый срез наблюдений на момент запуска конвейера
type Source interface {
	Observations(ctx context.Context) ([]models.Observation, error)
}

// csvColumns сопоставляет заголовки выгрузки california_weather_data.csv с полями
var csvColumns = map[string]string{
	"Mean Temperature (.1 Fahrenheit)":    models.FieldTemp,
	"Mean Dew Point (.1 Fahrenheit)":      models.FieldDewPoint,
	"Mean Sea Level Pressure (.1 mb)":     models.FieldSeaLevel,
	"Mean Wind Speed (.1 knots)":          models.FieldWindSpeed,
	"Maximum Wind Gust (.1 knots)":        models.FieldGust,
	"Precipitation Amount (.01 inches)":   models.FieldPrecip,
	"Maximum Temperature (.1 Fahrenheit)": models.FieldMaxTemp,
	"Minimum Temperature (.1 Fahrenheit)": models.FieldMinTemp,
}

var csvDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// CSVSource читает наблюдения из CSV-файла
type CSVSource struct {
	path   string
	logger *logrus.Logger
}

// NewCSVSource создает источник наблюдений из файла path
func NewCSVSource(path string, logger *logrus.Logger) *CSVSource {
	return &CSVSource{path: path, logger: logger}
}

// Observations читает файл целиком. Строки без обязательных числовых полей пропускаются.
func (s *CSVSource) Observations(ctx context.Context) ([]models.Observation, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weather csv: %w", err)
	}
	defer f.Close()

	return s.decode(ctx, f)
}

func (s *CSVSource) decode(ctx context.Context, r io.Reader) ([]models.Observation, error) {
	log := s.logger.WithFields(logrus.Fields{
		"source": "csv",
		"path":   s.path,
	})

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read weather csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	latCol, okLat := index["Latitude"]
	lonCol, okLon := index["Longitude"]
	if !okLat || !okLon {
		return nil, errors.New("weather csv must have Latitude and Longitude columns")
	}

	observations := make([]models.Observation, 0)
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read weather csv line %d: %w", line, err)
		}

		obs, err := parseRecord(record, index, latCol, lonCol)
		if err != nil {
			log.WithError(err).WithField("line", line).Warn("Skipping weather row")
			continue
		}
		observations = append(observations, obs)
	}

	log.WithField("count", len(observations)).Debug("Weather observations loaded")
	return observations, nil
}

func parseRecord(record []string, index map[string]int, latCol, lonCol int) (models.Observation, error) {
	lat, err := parseField(record, latCol)
	if err != nil {
		return models.Observation{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseField(record, lonCol)
	if err != nil {
		return models.Observation{}, fmt.Errorf("longitude: %w", err)
	}

	obs := models.Observation{
		Latitude:  lat,
		Longitude: lon,
		Fields:    make(map[string]float64, len(csvColumns)),
	}
	for column, field := range csvColumns {
		col, ok := index[column]
		if !ok {
			return models.Observation{}, fmt.Errorf("column %q not found", column)
		}
		v, err := parseField(record, col)
		if err != nil {
			return models.Observation{}, fmt.Errorf("%s: %w", field, err)
		}
		obs.Fields[field] = v
	}

	if col, ok := index["Station"]; ok && col < len(record) {
		obs.Station = strings.TrimSpace(record[col])
	}
	if col, ok := index["Date"]; ok && col < len(record) {
		obs.Timestamp = parseDate(record[col])
	}
	return obs, nil
}

func parseField(record []string, col int) (float64, error) {
	if col >= len(record) {
		return 0, errors.New("value missing")
	}
	raw := strings.TrimSpace(record[col])
	if raw == "" {
		return 0, errors.New("value missing")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("value is not finite")
	}
	return v, nil
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
