package router

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Barklim/bio/config"
	"github.com/Barklim/bio/internal/application"
	handlers "github.com/Barklim/bio/internal/interface/http"
	"github.com/Barklim/bio/internal/router/modules"
	"github.com/Barklim/bio/pkg/helpers"
)

// Deps carries every component the route modules need. They are built once
// in the composition root (cmd/main) and passed down explicitly; there are
// no package-level singletons.
type Deps struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	Redis  *redis.Client
	JWT    *helpers.JWTManager
	Auth   *application.AuthService
	Users  *application.UserService
}

// InitModules registers all feature modules with the router registry.
func InitModules(r *Registry, d Deps) {
	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(d.Cfg.AppName, d.Cfg.Env)))
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(d.Auth, d.Logger), d.Redis))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(d.Users, d.Logger), d.Auth, d.JWT, d.Redis))
}
