package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/pkg/response"
)

type statisticsReader interface {
	Summary(ctx context.Context, days, limit int) (*models.StatisticsSummary, error)
}

// StatisticsHandler exposes page-view statistics to admins.
type StatisticsHandler struct {
	stats statisticsReader
}

// NewStatisticsHandler creates a new handler.
func NewStatisticsHandler(stats statisticsReader) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

// Summary godoc
// @Summary Page-view statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window in days" default(30)
// @Param limit query int false "Max pages" default(20)
// @Success 200 {object} response.Envelope
// @Router /admin/statistics [get]
func (h *StatisticsHandler) Summary(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	summary, err := h.stats.Summary(c.Request.Context(), days, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
