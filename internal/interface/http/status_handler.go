package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/incluiaqui/incluiaqui-server/pkg/response"
)

// StatusHandler serves the liveness endpoints.
type StatusHandler struct{}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

func (h *StatusHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"version": "v1"}, "Root module is running")
}

func (h *StatusHandler) AuthStatus(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"version": "v1"}, "Auth module is running")
}
