package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/lentera-backend/internal/response"
	"github.com/stemsi/lentera-backend/internal/service"
)

// DashboardHandler serves the instructor dashboard.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard godoc
// GET /api/v1/instructor/dashboard
// Returns summary counts, assignment status distribution, upcoming
// assignments and recent graded results.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	data, err := h.dashboardService.GetDashboardData(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"dashboard": data})
}
