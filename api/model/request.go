package model

import "mime/multipart"

// 上传表单字段的大小限制
const (
	// MaxFileSize 文件字段大小上限(5MiB)
	MaxFileSize = 5 << 20
	// MaxFieldSize 其他表单字段大小上限(1MiB)
	MaxFieldSize = 1 << 20
)

// UploadRequest 文档上传请求
// type为file时携带document文件，为url时携带url字段
type UploadRequest struct {
	Type     string                `form:"type"`     // 来源类型：file 或 url
	URL      string                `form:"url"`      // 远程PDF地址（type=url时）
	Document *multipart.FileHeader `form:"document"` // 上传的PDF文件（type=file时）
}

// StatusRequest 上传状态查询请求
type StatusRequest struct {
	ID string `uri:"id" binding:"required"` // 上传ID
}
