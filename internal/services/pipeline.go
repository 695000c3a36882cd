package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/fyerfyer/pdf-embed-service/internal/document"
	"github.com/fyerfyer/pdf-embed-service/internal/embedding"
	"github.com/fyerfyer/pdf-embed-service/internal/pdf"
	"github.com/sirupsen/logrus"
)

// 请求校验阶段的错误，处理器层映射为400
var (
	// ErrInvalidRequestType 请求类型不是file或url
	ErrInvalidRequestType = errors.New("invalid request type: must be 'file' or 'url'")

	// ErrMissingFile file类型请求缺少文件
	ErrMissingFile = errors.New("no file provided")

	// ErrMissingURL url类型请求缺少URL
	ErrMissingURL = errors.New("no URL provided")

	// ErrInvalidURLFormat URL无法解析
	ErrInvalidURLFormat = errors.New("invalid URL format")

	// ErrUnsupportedURLScheme URL协议不是http或https
	ErrUnsupportedURLScheme = errors.New("unsupported URL scheme: only http and https are allowed")
)

// 内部处理阶段的错误，处理器层映射为500
var (
	// ErrChunkingFailed 文本分块失败
	ErrChunkingFailed = errors.New("could not split document into chunks")

	// ErrEmbeddingFailed 向量生成失败
	ErrEmbeddingFailed = errors.New("could not create embeddings")
)

// SourceType 上传来源类型
type SourceType string

const (
	// SourceFile 直接上传的文件
	SourceFile SourceType = "file"
	// SourceURL 远程URL
	SourceURL SourceType = "url"
)

// UploadInput 管线的输入
// Type为file时Data有效，为url时URL有效
type UploadInput struct {
	Type SourceType // 来源类型
	URL  string     // 远程PDF地址
	Data []byte     // 上传的文件字节
}

// PipelineResult 管线处理成功的结果
// 向量本身不返回给调用方，只返回处理摘要
type PipelineResult struct {
	UploadID   string        // 上传ID
	Stages     []string      // 按顺序完成的阶段名
	TextLength int           // 提取文本的长度
	ChunkCount int           // 分块数量
	Metadata   *pdf.Metadata // 文档元数据，可能为null
}

// PipelineService 上传处理管线
// 按校验→下载→提取→分块→向量化的固定顺序串行执行，
// 任一阶段失败立即短路，不返回部分结果
type PipelineService struct {
	fetcher   *pdf.Fetcher
	extractor *pdf.Extractor
	splitter  document.Splitter
	embedder  embedding.Client
	status    *StatusTracker
	logger    *logrus.Logger
}

// PipelineOption 管线配置选项
type PipelineOption func(*PipelineService)

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) PipelineOption {
	return func(s *PipelineService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStatusTracker 设置状态跟踪器
func WithStatusTracker(tracker *StatusTracker) PipelineOption {
	return func(s *PipelineService) {
		s.status = tracker
	}
}

// NewPipelineService 创建一个新的上传处理管线
func NewPipelineService(
	fetcher *pdf.Fetcher,
	extractor *pdf.Extractor,
	splitter document.Splitter,
	embedder embedding.Client,
	opts ...PipelineOption,
) *PipelineService {
	srv := &PipelineService{
		fetcher:   fetcher,
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		logger:    logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// Process 执行完整的上传处理管线
// 返回处理摘要，任一阶段失败时返回该阶段的错误
func (s *PipelineService) Process(ctx context.Context, uploadID string, input UploadInput) (*PipelineResult, error) {
	log := s.logger.WithField("upload_id", uploadID)

	var stages []string
	done := func(stage UploadStage) {
		stages = append(stages, string(stage))
	}
	fail := func(stage UploadStage, err error) error {
		log.WithFields(logrus.Fields{
			"stage": string(stage),
			"error": err.Error(),
		}).Error("Pipeline stage failed")
		if s.status != nil {
			s.status.Fail(uploadID, err.Error())
		}
		return err
	}

	// 阶段一：请求校验
	s.enterStage(uploadID, StageValidating)
	if err := validateInput(input); err != nil {
		return nil, fail(StageValidating, err)
	}

	// 阶段二：获取PDF字节流
	var buffer []byte
	switch input.Type {
	case SourceURL:
		s.enterStage(uploadID, StageFetching)
		log.WithField("url", input.URL).Info("Downloading PDF from URL")

		data, err := s.fetcher.Fetch(ctx, input.URL)
		if err != nil {
			return nil, fail(StageFetching, err)
		}
		buffer = data
		done(StageValidating)
		done(StageFetching)

	case SourceFile:
		// 上传文件与URL下载结果执行同样的格式校验
		if err := pdf.ValidateBuffer(input.Data); err != nil {
			return nil, fail(StageValidating, err)
		}
		buffer = input.Data
		done(StageValidating)
	}

	// 阶段三：文本与元数据提取
	s.enterStage(uploadID, StageExtracting)
	log.Info("Extracting text content")

	doc, err := s.extractor.Extract(buffer)
	if err != nil {
		return nil, fail(StageExtracting, err)
	}
	done(StageExtracting)

	// 阶段四：文本分块
	s.enterStage(uploadID, StageChunking)

	chunks, err := s.splitter.Split(doc.ExtractedText)
	if err != nil {
		return nil, fail(StageChunking, fmt.Errorf("%w: %v", ErrChunkingFailed, err))
	}
	done(StageChunking)

	log.WithField("chunks", len(chunks)).Info("Document split into chunks")

	// 阶段五：向量生成
	// 向量化失败与其他阶段一样被捕获并转换，不向上层泄漏未处理错误
	s.enterStage(uploadID, StageEmbedding)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fail(StageEmbedding, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
	}
	if len(vectors) != len(chunks) {
		return nil, fail(StageEmbedding, fmt.Errorf("%w: expected %d vectors, got %d",
			ErrEmbeddingFailed, len(chunks), len(vectors)))
	}
	done(StageEmbedding)

	if s.status != nil {
		s.status.Complete(uploadID)
	}

	log.WithFields(logrus.Fields{
		"text_length": len(doc.ExtractedText),
		"chunks":      len(chunks),
		"embeddings":  len(vectors),
	}).Info("Document processed successfully")

	return &PipelineResult{
		UploadID:   uploadID,
		Stages:     stages,
		TextLength: len(doc.ExtractedText),
		ChunkCount: len(chunks),
		Metadata:   doc.Metadata,
	}, nil
}

// enterStage 更新状态跟踪器中的当前阶段
func (s *PipelineService) enterStage(uploadID string, stage UploadStage) {
	if s.status != nil {
		s.status.EnterStage(uploadID, stage)
	}
}

// validateInput 校验请求形状
// url类型在任何网络调用发生前完成协议检查
func validateInput(input UploadInput) error {
	switch input.Type {
	case SourceFile:
		if len(input.Data) == 0 {
			return ErrMissingFile
		}
		return nil

	case SourceURL:
		if input.URL == "" {
			return ErrMissingURL
		}
		u, err := url.Parse(input.URL)
		if err != nil {
			return ErrInvalidURLFormat
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ErrUnsupportedURLScheme
		}
		return nil

	default:
		return ErrInvalidRequestType
	}
}

// IsRequestError 判断错误是否属于请求校验错误（调用方可修复，映射为400）
func IsRequestError(err error) bool {
	return errors.Is(err, ErrInvalidRequestType) ||
		errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrMissingURL) ||
		errors.Is(err, ErrInvalidURLFormat) ||
		errors.Is(err, ErrUnsupportedURLScheme) ||
		errors.Is(err, pdf.ErrInvalidPDFFormat) ||
		errors.Is(err, pdf.ErrHTMLContent)
}
