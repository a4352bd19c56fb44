package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/yigit/handbook/internal/app/controllers"
	"github.com/yigit/handbook/internal/pkg/metrics"

	_ "github.com/yigit/handbook/docs" // registers the swagger spec
)

// SetupOps mounts the endpoints that sit outside the versioned API
func SetupOps(router *gin.Engine, health *controllers.HealthController) {
	router.GET("/ping", health.Ping)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL("/swagger/doc.json"),
		ginSwagger.DefaultModelsExpandDepth(1)))
}
