package routes

import (
	"PhotoReveal/controllers"
	"PhotoReveal/services/registry"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, reg *registry.Registry) {
	router.GET("/health", controllers.Health(db))

	api := router.Group("/api")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", controllers.CreateSession(reg))
			sessions.GET("/:code", controllers.GetSession(reg))
		}
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
