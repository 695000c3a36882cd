package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/fyerfyer/pdf-embed-service/api/middleware"
	"github.com/fyerfyer/pdf-embed-service/api/model"
	"github.com/fyerfyer/pdf-embed-service/internal/cache"
	"github.com/fyerfyer/pdf-embed-service/internal/pdf"
	"github.com/fyerfyer/pdf-embed-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UploadHandler 处理文档上传相关的API请求
type UploadHandler struct {
	pipeline *services.PipelineService // 上传处理管线
	status   *services.StatusTracker   // 上传状态跟踪器
	logger   *logrus.Logger            // 日志记录器
}

// NewUploadHandler 创建新的上传处理器
func NewUploadHandler(pipeline *services.PipelineService, status *services.StatusTracker) *UploadHandler {
	return &UploadHandler{
		pipeline: pipeline,
		status:   status,
		logger:   middleware.GetLogger(),
	}
}

// Upload 处理文档上传请求
// POST /api/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	var req model.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Invalid upload request")
		middleware.HandleError(c, middleware.NewValidationError("invalid request parameters"))
		return
	}

	uploadID := middleware.TraceID(c)
	if uploadID == "" {
		uploadID = uuid.New().String()
	}

	if h.status != nil {
		h.status.Begin(uploadID)
	}

	// 上传层校验：字段大小与文件类型在管线启动前拦截
	if len(req.URL) > model.MaxFieldSize {
		middleware.HandleError(c, middleware.NewValidationError("Field value too long"))
		return
	}

	input := services.UploadInput{
		Type: services.SourceType(req.Type),
		URL:  req.URL,
	}

	// 文件部分只在file类型请求中读取，url类型直接忽略
	if services.SourceType(req.Type) == services.SourceFile && req.Document != nil {
		if req.Document.Header.Get("Content-Type") != "application/pdf" {
			middleware.HandleError(c, middleware.NewValidationError("Only PDF files are allowed"))
			return
		}
		if req.Document.Size > model.MaxFileSize {
			middleware.HandleError(c, middleware.NewValidationError("File too large"))
			return
		}

		data, err := readFile(req.Document)
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"error":    err.Error(),
				"filename": req.Document.Filename,
			}).Error("Failed to read uploaded file")
			middleware.HandleError(c, middleware.NewInternalError("failed to read uploaded file"))
			return
		}
		input.Data = data
	}

	h.logger.WithFields(logrus.Fields{
		"upload_id": uploadID,
		"type":      req.Type,
	}).Info("Processing upload request")

	// 管线一旦启动就运行到完成或失败，客户端断开不会中断处理
	result, err := h.pipeline.Process(context.Background(), uploadID, input)
	if err != nil {
		middleware.HandleError(c, translateError(err))
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		Success: true,
		Message: "document processed successfully",
		Status:  result.Stages,
		Data: model.UploadData{
			UploadID:   result.UploadID,
			TextLength: result.TextLength,
			ChunkCount: result.ChunkCount,
			Metadata:   result.Metadata,
		},
	})
}

// GetStatus 查询上传处理状态
// GET /api/upload/:id/status
func (h *UploadHandler) GetStatus(c *gin.Context) {
	var req model.StatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid upload id"))
		return
	}

	status, err := h.status.Get(req.ID)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			middleware.HandleError(c, middleware.NewNotFoundError("upload not found"))
			return
		}
		h.logger.WithFields(logrus.Fields{
			"error":     err.Error(),
			"upload_id": req.ID,
		}).Error("Failed to load upload status")
		middleware.HandleError(c, middleware.NewInternalError("failed to load upload status"))
		return
	}

	c.JSON(http.StatusOK, status)
}

// readFile 读取上传文件的全部字节
func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, model.MaxFileSize+1))
}

// translateError 把管线错误映射为带HTTP状态码的应用错误
// 请求类错误映射为400，上游下载错误按原因映射，其余为500
func translateError(err error) middleware.AppError {
	switch {
	case services.IsRequestError(err):
		return middleware.NewValidationError(err.Error())
	case errors.Is(err, pdf.ErrNotFound):
		return middleware.NewUpstreamError(err.Error(), http.StatusNotFound)
	case errors.Is(err, pdf.ErrAccessDenied):
		return middleware.NewUpstreamError(err.Error(), http.StatusForbidden)
	case errors.Is(err, pdf.ErrDownloadTimeout):
		return middleware.NewUpstreamError(err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, pdf.ErrDownloadFailed):
		return middleware.NewUpstreamError(err.Error(), http.StatusBadGateway)
	default:
		return middleware.NewInternalError(err.Error())
	}
}
