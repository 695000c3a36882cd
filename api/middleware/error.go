package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/fyerfyer/pdf-embed-service/api/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 应用中的错误类型常量
const (
	ErrorTypeValidation = "VALIDATION_ERROR" // 输入验证错误
	ErrorTypeUpstream   = "UPSTREAM_ERROR"   // 上游下载错误
	ErrorTypeNotFound   = "NOT_FOUND_ERROR"  // 资源不存在错误
	ErrorTypeInternal   = "INTERNAL_ERROR"   // 内部服务器错误
)

// AppError 应用错误结构体
// 处理器把各阶段错误转换为AppError交给错误中间件统一输出
type AppError struct {
	Type    string // 错误类型
	Message string // 错误消息
	Code    int    // HTTP状态码
}

// Error 实现error接口
func (e AppError) Error() string {
	return e.Type + ": " + e.Message
}

// NewValidationError 创建输入验证错误(400)
func NewValidationError(message string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    http.StatusBadRequest,
	}
}

// NewUpstreamError 创建上游下载错误，状态码由失败原因决定
func NewUpstreamError(message string, code int) AppError {
	return AppError{
		Type:    ErrorTypeUpstream,
		Message: message,
		Code:    code,
	}
}

// NewNotFoundError 创建资源不存在错误(404)
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewInternalError 创建内部服务器错误(500)
func NewInternalError(message string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Code:    http.StatusInternalServerError,
	}
}

// ErrorHandler 统一错误处理中间件
// 捕获panic并把处理器上报的错误转换为单一的JSON错误响应
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(logrus.Fields{
					"error": err,
					"stack": string(debug.Stack()),
					"path":  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					model.NewErrorResponse("An unexpected error occurred"))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		traceID := TraceID(c)

		switch e := err.(type) {
		case AppError:
			log.WithFields(logrus.Fields{
				"error_type": e.Type,
				"trace_id":   traceID,
				"path":       c.Request.URL.Path,
			}).Error(e.Message)

			c.JSON(e.Code, model.NewErrorResponse(e.Message))

		case *AppError:
			log.WithFields(logrus.Fields{
				"error_type": e.Type,
				"trace_id":   traceID,
				"path":       c.Request.URL.Path,
			}).Error(e.Message)

			c.JSON(e.Code, model.NewErrorResponse(e.Message))

		default:
			// 未分类的错误一律作为内部服务器错误处理
			log.WithFields(logrus.Fields{
				"trace_id": traceID,
				"path":     c.Request.URL.Path,
			}).Error(err.Error())

			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(err.Error()))
		}

		c.Abort()
	}
}

// HandleError 在处理器中使用的错误上报辅助函数
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}

// Cors 跨域资源共享中间件
// 允许所有来源，OPTIONS预检请求直接返回200
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
