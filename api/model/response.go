package model

import (
	"github.com/fyerfyer/pdf-embed-service/internal/pdf"
)

// ErrorResponse 错误响应体
// 只包含错误消息，不暴露堆栈或内部细节
type ErrorResponse struct {
	Error string `json:"error"` // 错误消息
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// UploadData 上传处理结果摘要
// 向量不返回给调用方
type UploadData struct {
	UploadID   string        `json:"uploadId"`   // 上传ID，可用于状态查询
	TextLength int           `json:"textLength"` // 提取文本的长度
	ChunkCount int           `json:"chunkCount"` // 分块数量
	Metadata   *pdf.Metadata `json:"metadata"`   // 文档元数据，可能为null
}

// UploadResponse 上传成功响应
type UploadResponse struct {
	Success bool       `json:"success"` // 是否成功
	Message string     `json:"message"` // 响应消息
	Status  []string   `json:"status"`  // 按顺序完成的阶段名列表
	Data    UploadData `json:"data"`    // 处理结果摘要
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string  `json:"status"`    // 服务状态
	Timestamp string  `json:"timestamp"` // 当前时间(RFC3339)
	Uptime    float64 `json:"uptime"`    // 运行时长(秒)
}
