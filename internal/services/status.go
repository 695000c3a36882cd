package services

import (
	"encoding/json"
	"time"

	"github.com/fyerfyer/pdf-embed-service/internal/cache"
	"github.com/sirupsen/logrus"
)

// UploadStage 上传处理阶段
type UploadStage string

const (
	// StagePending 等待处理
	StagePending UploadStage = "pending"
	// StageValidating 请求与PDF格式校验中
	StageValidating UploadStage = "validating"
	// StageFetching 从远程URL下载中
	StageFetching UploadStage = "fetching"
	// StageExtracting 文本与元数据提取中
	StageExtracting UploadStage = "extracting"
	// StageChunking 文本分块中
	StageChunking UploadStage = "chunking"
	// StageEmbedding 向量生成中
	StageEmbedding UploadStage = "embedding"
	// StageCompleted 处理完成
	StageCompleted UploadStage = "completed"
	// StageFailed 处理失败
	StageFailed UploadStage = "failed"
)

// UploadStatus 单次上传的处理状态
// 生命周期与请求一致，仅在TTL窗口内可查询，不做持久化
type UploadStatus struct {
	UploadID        string    `json:"upload_id"`        // 上传ID
	Stage           string    `json:"stage"`            // 当前阶段
	StagesCompleted []string  `json:"stages_completed"` // 已完成的阶段名列表
	Error           string    `json:"error,omitempty"`  // 失败原因（如果有）
	UpdatedAt       time.Time `json:"updated_at"`       // 最后更新时间
}

// statusTTL 状态条目的存活时间
const statusTTL = time.Hour

// statusKeyPrefix 状态缓存键前缀
const statusKeyPrefix = "upload"

// StatusTracker 上传状态跟踪器
// 将各阶段进度写入缓存，供状态查询接口读取
type StatusTracker struct {
	cache  cache.Cache
	logger *logrus.Logger
}

// NewStatusTracker 创建新的状态跟踪器
func NewStatusTracker(c cache.Cache, logger *logrus.Logger) *StatusTracker {
	if logger == nil {
		logger = logrus.New()
	}
	return &StatusTracker{
		cache:  c,
		logger: logger,
	}
}

// Begin 初始化一次上传的状态记录
func (t *StatusTracker) Begin(uploadID string) {
	t.save(&UploadStatus{
		UploadID:        uploadID,
		Stage:           string(StagePending),
		StagesCompleted: []string{},
		UpdatedAt:       time.Now(),
	})
}

// EnterStage 记录进入新阶段，上一阶段计入已完成列表
func (t *StatusTracker) EnterStage(uploadID string, stage UploadStage) {
	status, err := t.Get(uploadID)
	if err != nil {
		status = &UploadStatus{
			UploadID:        uploadID,
			StagesCompleted: []string{},
		}
	}

	if status.Stage != "" && status.Stage != string(StagePending) {
		status.StagesCompleted = append(status.StagesCompleted, status.Stage)
	}
	status.Stage = string(stage)
	status.UpdatedAt = time.Now()
	t.save(status)
}

// Complete 标记上传处理完成
func (t *StatusTracker) Complete(uploadID string) {
	t.EnterStage(uploadID, StageCompleted)
}

// Fail 标记上传处理失败并记录失败原因
func (t *StatusTracker) Fail(uploadID string, reason string) {
	status, err := t.Get(uploadID)
	if err != nil {
		status = &UploadStatus{
			UploadID:        uploadID,
			StagesCompleted: []string{},
		}
	}

	status.Stage = string(StageFailed)
	status.Error = reason
	status.UpdatedAt = time.Now()
	t.save(status)
}

// Get 查询上传状态，不存在或已过期时返回cache.ErrKeyNotFound
func (t *StatusTracker) Get(uploadID string) (*UploadStatus, error) {
	value, found, err := t.cache.Get(cache.Key(statusKeyPrefix, uploadID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, cache.ErrKeyNotFound
	}

	var status UploadStatus
	if err := json.Unmarshal([]byte(value), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// save 序列化并写入缓存，写入失败只记录日志
func (t *StatusTracker) save(status *UploadStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		t.logger.WithField("upload_id", status.UploadID).
			Warnf("Failed to marshal upload status: %v", err)
		return
	}

	if err := t.cache.Set(cache.Key(statusKeyPrefix, status.UploadID), string(data), statusTTL); err != nil {
		t.logger.WithField("upload_id", status.UploadID).
			Warnf("Failed to save upload status: %v", err)
	}
}
