package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursegen-backend/internal/normcorpus"
)

type HealthHandler struct {
	registry *normcorpus.Registry
}

func NewHealthHandler(registry *normcorpus.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "norms": h.registry.Len()})
}
