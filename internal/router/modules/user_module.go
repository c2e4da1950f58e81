package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/incluiaqui/incluiaqui-server/internal/interface/http"
	"github.com/incluiaqui/incluiaqui-server/internal/interface/middleware"
)

// UserModule wires the user CRUD, search and image-upload routes.
//
// POST /users and POST /users/:id/image are rate-limited per IP; reads get a
// softer shared limit.
type UserModule struct {
	Handler *handlers.UserHandler
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	createLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	readLimiter := middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())

	users := rg.Group("/users")
	users.Use(readLimiter)
	{
		users.POST("", createLimiter, m.Handler.Create)
		users.GET("", m.Handler.List)
		users.GET("/search", m.Handler.SearchUsers)
		users.GET("/:id", m.Handler.Get)
		users.PATCH("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
		users.POST("/:id/image", createLimiter, m.Handler.UploadImage)
	}
}
