package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/incluiaqui/incluiaqui-server/internal/interface/http"
)

// StatusModule exposes the liveness endpoints.
type StatusModule struct {
	Handler *handlers.StatusHandler
}

func NewStatusModule(h *handlers.StatusHandler) *StatusModule {
	return &StatusModule{Handler: h}
}

func (m *StatusModule) Register(rg *gin.RouterGroup) {
	rg.GET("/auth/status", m.Handler.AuthStatus)
}
