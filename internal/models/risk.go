package models

import (
	"time"

	"github.com/google/uuid"
)

// GridPoint - узел сетки в градусах WGS84
type GridPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RiskEstimate - вероятность пожара в узле сетки
type RiskEstimate struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Probability float64   `json:"probability"`
	Timestamp   time.Time `json:"timestamp"`
}

// Snapshot - полный набор оценок одного запуска конвейера
type Snapshot struct {
	ID          uuid.UUID      `json:"id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Estimates   []RiskEstimate `json:"estimates"`
}

// Above возвращает оценки с вероятностью не ниже threshold
func (s *Snapshot) Above(threshold float64) []RiskEstimate {
	out := make([]RiskEstimate, 0)
	for _, e := range s.Estimates {
		if e.Probability >= threshold {
			out = append(out, e)
		}
	}
	return out
}

// BoundingBox - прямоугольная область в градусах, границы включаются
type BoundingBox struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// Contains проверяет, попадает ли оценка в область
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}
