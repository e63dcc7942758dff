package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
)

// HealthController reports process and storage health
type HealthController struct {
	ping   func(ctx context.Context) error
	driver string
}

// NewHealthController creates a HealthController. ping may be nil for storage
// that cannot become unavailable.
func NewHealthController(driver string, ping func(ctx context.Context) error) *HealthController {
	return &HealthController{ping: ping, driver: driver}
}

// Health reports whether the API and its storage are reachable
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 503 {object} dto.APIResponse "Storage unreachable"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	if c.ping != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.ping(pingCtx); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unreachable").WithDetails(err.Error())
			ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(errorDetail))
			return
		}
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"status":  "ok",
		"storage": c.driver,
	}))
}
