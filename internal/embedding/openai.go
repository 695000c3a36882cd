package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// defaultOpenAIModel OpenAI默认嵌入模型
const defaultOpenAIModel = "text-embedding-3-small"

// OpenAIClient OpenAI兼容嵌入API客户端
// 也可通过BaseURL指向其他OpenAI兼容服务
type OpenAIClient struct {
	client    *openai.Client // OpenAI API客户端
	model     string         // 模型名称
	batchSize int            // 单次请求的最大文本数量
}

// NewOpenAIClient 创建新的OpenAI嵌入客户端
func NewOpenAIClient(opts ...Option) (Client, error) {
	cfg := NewConfig(opts...)

	if cfg.APIKey == "" {
		return nil, NewEmbeddingError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		batchSize: cfg.BatchSize,
	}, nil
}

// Name 返回模型名称
func (c *OpenAIClient) Name() string {
	return c.model
}

// Embed 生成单条文本的向量表示
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, NewEmbeddingError(ErrCodeEmptyInput, ErrMsgEmptyInput)
	}

	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, NewEmbeddingError(ErrCodeServerError, "no embedding vectors returned")
	}

	return vectors[0], nil
}

// EmbedBatch 批量生成文本的向量表示
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if c.batchSize > 0 && len(texts) > c.batchSize {
		return nil, NewEmbeddingError(ErrCodeInvalidRequest, ErrMsgBatchTooLarge)
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("embedding API error: %v", err))
	}

	if len(resp.Data) != len(texts) {
		return nil, NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
	}

	// 按响应中的索引还原输入顺序
	result := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			continue
		}
		result[item.Index] = item.Embedding
	}

	return result, nil
}

// 注册OpenAI客户端
func init() {
	RegisterClient("openai", NewOpenAIClient)
}
