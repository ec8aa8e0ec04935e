package api

import (
	"net/http"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	viewer  Viewer
	metrics *monitoring.Metrics
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	Status    string `json:"status"`
	DesktopID string `json:"desktop_id"`
	Attempts  int    `json:"attempts"`
	ViewerID  string `json:"viewer_id,omitempty"`
}

// StateResponse is the body of GET /state
type StateResponse struct {
	Version uint64             `json:"version"`
	Desktop types.DesktopState `json:"desktop"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) status(c *gin.Context) {
	if h.viewer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no viewer attached"})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{
		Status:    h.viewer.Status().String(),
		DesktopID: h.viewer.DesktopID(),
		Attempts:  h.viewer.Attempts(),
		ViewerID:  h.viewer.ViewerID(),
	})
}

func (h *handlers) state(c *gin.Context) {
	if h.viewer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no viewer attached"})
		return
	}
	state, version := h.viewer.State()
	c.JSON(http.StatusOK, StateResponse{Version: version, Desktop: state})
}

func (h *handlers) metricsSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
