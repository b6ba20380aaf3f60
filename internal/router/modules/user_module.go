package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Barklim/bio/internal/application"
	handlers "github.com/Barklim/bio/internal/interface/http"
	"github.com/Barklim/bio/internal/interface/middleware"
	"github.com/Barklim/bio/pkg/helpers"
)

// UserModule wires the bearer-protected user CRUD and search routes.
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    *application.AuthService
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, auth *application.AuthService, jwt *helpers.JWTManager, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Auth: auth, JWT: jwt, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	protected := rg.Group("/")
	protected.Use(middleware.Auth(m.Auth, m.JWT))
	protected.Use(
		middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		protected.GET("/users", m.Handler.List)
		protected.GET("/users/search", m.Handler.Search)
		protected.GET("/users/:id", m.Handler.Get)
		protected.POST("/users", m.Handler.Create)
		protected.PATCH("/users/:id", m.Handler.Update)
		protected.DELETE("/users/:id", m.Handler.Delete)
	}
}
