package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"panelsound/internal/logger"
	"panelsound/internal/service"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler returns a handler over services. A nil log discards output.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{services: services, log: log}
}

// InitRoutes builds the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	auth := router.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}

	api := router.Group("/api/v1", h.operatorMiddleware)
	{
		panel := api.Group("/panel")
		{
			panel.GET("/state", h.getState)
		}
		api.GET("/logs/", h.getLogs)
		api.POST("/events", h.injectEvent)
	}

	router.GET("/ws", h.wsConnect)

	return router
}
