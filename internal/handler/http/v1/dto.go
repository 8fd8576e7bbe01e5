package v1

import (
	"time"

	"github.com/google/uuid"
)

// RiskQuery параметры запроса текущей карты риска
// @Description Параметры запроса текущей карты риска
type RiskQuery struct {
	MinProbability float64 `form:"min_probability" validate:"gte=0,lte=1"`
}

// AlertsQuery параметры запроса точек повышенного риска
// @Description Порог и необязательная прямоугольная область
type AlertsQuery struct {
	Threshold *float64 `form:"threshold" validate:"omitempty,gte=0,lte=1"`
	LatMin    *float64 `form:"lat_min" validate:"omitempty,gte=-90,lte=90"`
	LatMax    *float64 `form:"lat_max" validate:"omitempty,gte=-90,lte=90"`
	LonMin    *float64 `form:"lon_min" validate:"omitempty,gte=-180,lte=180"`
	LonMax    *float64 `form:"lon_max" validate:"omitempty,gte=-180,lte=180"`
}

// TopQuery параметры запроса точек с наибольшим риском
// @Description Количество возвращаемых точек
type TopQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

// RiskEstimateResponse DTO оценки риска в узле сетки
// @Description DTO оценки риска в узле сетки
type RiskEstimateResponse struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Probability float64   `json:"probability"`
	Timestamp   time.Time `json:"timestamp"`
}

// SnapshotResponse DTO для ответа с текущей картой риска
// @Description DTO для ответа с текущей картой риска
type SnapshotResponse struct {
	ID          uuid.UUID              `json:"id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Count       int                    `json:"count"`
	Estimates   []RiskEstimateResponse `json:"estimates"`
}

// RunResponse DTO для ответа о завершенном запуске конвейера
// @Description DTO для ответа о завершенном запуске конвейера
type RunResponse struct {
	SnapshotID  uuid.UUID `json:"snapshot_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Estimates   int       `json:"estimates"`
}
