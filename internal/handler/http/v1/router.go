package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршруты чтения карты риска
	risk := api.Group("/risk")
	{
		risk.GET("", h.getRisk)
		risk.GET("/alerts", h.getAlerts)
		risk.GET("/top", h.getTop)

		// Ручной запуск пересчета доступен только по API-ключу
		risk.POST("/runs", APIKeyAuthMiddleware(h.cfg, h.logger), h.createRun)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
