package routes

import (
	"github.com/gin-gonic/gin"

	"salescrm/internal/authz"
	"salescrm/internal/handlers"
	"salescrm/internal/logger"
	"salescrm/internal/middleware"
)

type Auth struct {
	Secret  []byte
	Viewers middleware.ViewerResolver
	Log     logger.Logger
}

func SetupRoutes(
	r *gin.Engine,
	auth Auth,
	boardHandler *handlers.BoardHandler,
	leadHandler *handlers.LeadHandler,
	syncHandler *handlers.SyncHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", syncHandler.Health)

	// ---- protected
	r.Use(middleware.AuthMiddleware(auth.Secret, auth.Viewers, auth.Log))

	r.GET("/stages", boardHandler.Stages)

	board := r.Group("/board")
	{
		board.GET("", boardHandler.Get)
		board.GET("/stream", boardHandler.Stream)
		board.POST("/moves", boardHandler.Move)
	}

	leads := r.Group("/leads")
	{
		leads.GET("", leadHandler.List)
		leads.GET("/:id", leadHandler.GetByID)
		leads.GET("/:id/history", leadHandler.History)
	}

	r.POST("/sync", middleware.RequireRoles(authz.RoleAdmin, authz.RoleCEO), syncHandler.Refresh)

	return r
}
