package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/fire_risk_grid/internal/config"
	"github.com/shenikar/fire_risk_grid/internal/service"
)

const defaultTopLimit = 5

type Handler struct {
	riskService service.RiskService
	logger      *logrus.Logger
	validate    *validator.Validate
	cfg         *config.Config
}

func NewHandler(riskService service.RiskService, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		riskService: riskService,
		logger:      logger,
		validate:    validator.New(),
		cfg:         cfg,
	}
}

// @Summary Get the current risk map
// @Description Get every land grid point of the latest snapshot, optionally filtered by probability.
// @Tags Risk
// @Accept json
// @Produce json
// @Param min_probability query number false "Lower probability bound" default(0)
// @Success 200 {object} SnapshotResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 404 {object} map[string]string "No snapshot yet"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /risk [get]
func (h *Handler) getRisk(c *gin.Context) {
	var input RiskQuery
	log := h.logger.WithField("method", "getRisk")

	if err := c.ShouldBindQuery(&input); err != nil {
		log.WithError(err).Warn("Failed to bind query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.riskService.GetLatest(c.Request.Context(), input.MinProbability)
	if err != nil {
		h.writeServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToSnapshotResponse(snapshot))
}

// @Summary Get high-risk points
// @Description Get points of the latest snapshot at or above the threshold, optionally inside a bounding box.
// @Tags Risk
// @Accept json
// @Produce json
// @Param threshold query number false "Probability threshold, configured alert threshold by default"
// @Param lat_min query number false "Bounding box south edge"
// @Param lat_max query number false "Bounding box north edge"
// @Param lon_min query number false "Bounding box west edge"
// @Param lon_max query number false "Bounding box east edge"
// @Success 200 {array} RiskEstimateResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 404 {object} map[string]string "No snapshot yet"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /risk/alerts [get]
func (h *Handler) getAlerts(c *gin.Context) {
	var input AlertsQuery
	log := h.logger.WithField("method", "getAlerts")

	if err := c.ShouldBindQuery(&input); err != nil {
		log.WithError(err).Warn("Failed to bind query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	area := AlertsQueryToArea(input)
	partial := input.LatMin != nil || input.LatMax != nil || input.LonMin != nil || input.LonMax != nil
	if area == nil && partial {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat_min, lat_max, lon_min and lon_max must be set together"})
		return
	}
	if area != nil && (area.LatMin > area.LatMax || area.LonMin > area.LonMax) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bounding box minimum exceeds maximum"})
		return
	}

	threshold := h.cfg.AlertThreshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}

	estimates, err := h.riskService.Alerts(c.Request.Context(), threshold, area)
	if err != nil {
		h.writeServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToEstimateResponses(estimates))
}

// @Summary Get the highest-risk points
// @Description Get the points of the latest snapshot with the highest probability.
// @Tags Risk
// @Accept json
// @Produce json
// @Param limit query int false "Number of points" default(5)
// @Success 200 {array} RiskEstimateResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 404 {object} map[string]string "No snapshot yet"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /risk/top [get]
func (h *Handler) getTop(c *gin.Context) {
	var input TopQuery
	log := h.logger.WithField("method", "getTop")

	if err := c.ShouldBindQuery(&input); err != nil {
		log.WithError(err).Warn("Failed to bind query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Limit == 0 {
		input.Limit = defaultTopLimit
	}

	estimates, err := h.riskService.Top(c.Request.Context(), input.Limit)
	if err != nil {
		h.writeServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToEstimateResponses(estimates))
}

// @Summary Trigger a risk run
// @Description Score the whole grid and replace the current snapshot. Requires API key.
// @Tags Risk
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} RunResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Run already in progress"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /risk/runs [post]
func (h *Handler) createRun(c *gin.Context) {
	log := h.logger.WithField("method", "createRun")

	snapshot, err := h.riskService.Run(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, RunResponse{
		SnapshotID:  snapshot.ID,
		GeneratedAt: snapshot.GeneratedAt,
		Estimates:   len(snapshot.Estimates),
	})
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeServiceError переводит ошибку сервиса в HTTP-статус
func (h *Handler) writeServiceError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, service.ErrSnapshotNotFound):
		log.WithError(err).Warn("Snapshot not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "risk snapshot not found"})
	case errors.Is(err, service.ErrRunInProgress):
		log.WithError(err).Warn("Run rejected")
		c.JSON(http.StatusConflict, gin.H{"error": "risk run already in progress"})
	default:
		log.WithError(err).Error("Failed to process request in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
