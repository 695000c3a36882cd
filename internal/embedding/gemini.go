package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// defaultGeminiModel Gemini默认嵌入模型
const defaultGeminiModel = "gemini-embedding-001"

// GeminiClient Gemini嵌入API客户端
// 通过官方genai SDK调用embedContent接口
type GeminiClient struct {
	client     *genai.Client // genai客户端
	model      string        // 模型名称
	dimensions int           // 输出向量维度，0表示模型默认
	batchSize  int           // 单次请求的最大文本数量
}

// NewGeminiClient 创建新的Gemini嵌入客户端
func NewGeminiClient(opts ...Option) (Client, error) {
	cfg := NewConfig(opts...)

	if cfg.APIKey == "" {
		return nil, NewEmbeddingError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, NewEmbeddingError(ErrCodeInvalidRequest,
			fmt.Sprintf("failed to create gemini client: %v", err))
	}

	return &GeminiClient{
		client:     client,
		model:      model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
	}, nil
}

// Name 返回模型名称
func (c *GeminiClient) Name() string {
	return c.model
}

// Embed 生成单条文本的向量表示
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
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
// 一次请求携带全部文本，返回顺序与输入一致
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if c.batchSize > 0 && len(texts) > c.batchSize {
		return nil, NewEmbeddingError(ErrCodeInvalidRequest, ErrMsgBatchTooLarge)
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	var config *genai.EmbedContentConfig
	if c.dimensions > 0 {
		config = &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(c.dimensions)),
		}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("embedding API error: %v", err))
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, NewEmbeddingError(ErrCodeServerError,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)))
	}

	result := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		result[i] = emb.Values
	}

	return result, nil
}

// 注册Gemini客户端
func init() {
	RegisterClient("gemini", NewGeminiClient)
}
