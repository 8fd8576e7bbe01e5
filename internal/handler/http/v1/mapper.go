package v1

import "github.com/shenikar/fire_risk_grid/internal/models"

// ModelToEstimateResponse преобразует доменную модель в DTO для ответа
func ModelToEstimateResponse(model models.RiskEstimate) RiskEstimateResponse {
	return RiskEstimateResponse{
		Latitude:    model.Latitude,
		Longitude:   model.Longitude,
		Probability: model.Probability,
		Timestamp:   model.Timestamp,
	}
}

// ModelsToEstimateResponses преобразует слайс моделей в слайс DTO
func ModelsToEstimateResponses(models []models.RiskEstimate) []RiskEstimateResponse {
	responses := make([]RiskEstimateResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToEstimateResponse(model)
	}
	return responses
}

// ModelToSnapshotResponse преобразует снимок в DTO для ответа
func ModelToSnapshotResponse(model *models.Snapshot) *SnapshotResponse {
	return &SnapshotResponse{
		ID:          model.ID,
		GeneratedAt: model.GeneratedAt,
		Count:       len(model.Estimates),
		Estimates:   ModelsToEstimateResponses(model.Estimates),
	}
}

// AlertsQueryToArea возвращает область из запроса или nil, если она не задана
func AlertsQueryToArea(q AlertsQuery) *models.BoundingBox {
	if q.LatMin == nil || q.LatMax == nil || q.LonMin == nil || q.LonMax == nil {
		return nil
	}
	return &models.BoundingBox{
		LatMin: *q.LatMin,
		LatMax: *q.LatMax,
		LonMin: *q.LonMin,
		LonMax: *q.LonMax,
	}
}
