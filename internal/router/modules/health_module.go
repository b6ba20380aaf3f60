package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/Barklim/bio/internal/interface/http"
)

// HealthModule exposes the unauthenticated liveness and version endpoints.
type HealthModule struct {
	Handler *handlers.HealthHandler
}

func NewHealthModule(h *handlers.HealthHandler) *HealthModule {
	return &HealthModule{Handler: h}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/", m.Handler.Health)
	rg.GET("/version", m.Handler.Version)
}
