package api

import (
	"net/http"

	"github.com/fyerfyer/pdf-embed-service/api/handler"
	"github.com/fyerfyer/pdf-embed-service/api/middleware"
	"github.com/fyerfyer/pdf-embed-service/api/model"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(
	uploadHandler *handler.UploadHandler,
	healthHandler *handler.HealthHandler,
) *gin.Engine {
	router := gin.New()

	// 应用全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.SetTraceID())
	router.Use(middleware.Cors())
	router.Use(middleware.ErrorHandler())

	// 上传文件的内存缓冲上限
	router.MaxMultipartMemory = model.MaxFileSize

	api := router.Group("/api")
	{
		// 上传文档 - POST /api/upload
		api.POST("/upload", uploadHandler.Upload)

		// 查询上传状态 - GET /api/upload/:id/status
		api.GET("/upload/:id/status", uploadHandler.GetStatus)

		// 健康检查 - GET /api/health
		api.GET("/health", healthHandler.Health)
	}

	// 未知路由统一返回404
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, model.NewErrorResponse("unknown endpoint"))
	})

	return router
}
