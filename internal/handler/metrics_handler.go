package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"property-portal/internal/middleware"
	"property-portal/internal/service"
)

type MetricsHandler struct {
	Service *service.MetricsService
}

func (h *MetricsHandler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/metrics", h.Dashboard)
	protected.GET("/me", h.Me)
}

// GET /api/metrics
func (h *MetricsHandler) Dashboard(c *gin.Context) {
	d, err := h.Service.Dashboard(c.Request.Context(), middleware.RequesterFrom(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/me
func (h *MetricsHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.UserFrom(c))
}
