package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyerfyer/pdf-embed-service/internal/document"
	"github.com/fyerfyer/pdf-embed-service/internal/pdf"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder 测试用的嵌入客户端
// 记录收到的文本并返回与索引对应的向量
type fakeEmbedder struct {
	received []string
	err      error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.received = append([]string{}, texts...)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 0.5}
	}
	return vectors, nil
}

func (f *fakeEmbedder) Name() string {
	return "fake-model"
}

// buildServicePDF 生成内存中的单页测试PDF
func buildServicePDF(t *testing.T, text string) []byte {
	t.Helper()

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Arial", "", 12)
	doc.Cell(40, 10, text)

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

// newTestPipeline 创建带假嵌入客户端和内存状态跟踪器的管线
func newTestPipeline(t *testing.T) (*PipelineService, *fakeEmbedder, *StatusTracker) {
	t.Helper()

	embedder := &fakeEmbedder{}
	tracker := newTestTracker(t)
	pipeline := NewPipelineService(
		pdf.NewFetcher(pdf.DefaultFetcherConfig(), nil),
		pdf.NewExtractor(nil),
		document.NewTextSplitter(document.DefaultSplitterConfig()),
		embedder,
		WithStatusTracker(tracker),
	)
	return pipeline, embedder, tracker
}

// TestPipelineService_Process_File 测试文件上传的完整处理流程
func TestPipelineService_Process_File(t *testing.T) {
	t.Run("valid pdf file", func(t *testing.T) {
		pipeline, embedder, tracker := newTestPipeline(t)
		data := buildServicePDF(t, "This is a PDF test.")

		result, err := pipeline.Process(context.Background(), "upload-file-1", UploadInput{
			Type: SourceFile,
			Data: data,
		})
		require.NoError(t, err)

		assert.Equal(t, "upload-file-1", result.UploadID)
		assert.Equal(t, []string{
			string(StageValidating),
			string(StageExtracting),
			string(StageChunking),
			string(StageEmbedding),
		}, result.Stages)
		assert.Greater(t, result.TextLength, 0)
		assert.Equal(t, len(embedder.received), result.ChunkCount)
		require.NotNil(t, result.Metadata)
		assert.Equal(t, 1, result.Metadata.NumPages)

		// 状态跟踪器记录为已完成
		status, err := tracker.Get("upload-file-1")
		require.NoError(t, err)
		assert.Equal(t, string(StageCompleted), status.Stage)
	})

	t.Run("missing file data", func(t *testing.T) {
		pipeline, _, _ := newTestPipeline(t)

		_, err := pipeline.Process(context.Background(), "upload-file-2", UploadInput{
			Type: SourceFile,
		})
		assert.ErrorIs(t, err, ErrMissingFile)
		assert.True(t, IsRequestError(err))
	})

	t.Run("invalid pdf bytes", func(t *testing.T) {
		pipeline, embedder, tracker := newTestPipeline(t)

		_, err := pipeline.Process(context.Background(), "upload-file-3", UploadInput{
			Type: SourceFile,
			Data: []byte("plain text, not a pdf"),
		})
		assert.ErrorIs(t, err, pdf.ErrInvalidPDFFormat)
		assert.True(t, IsRequestError(err))
		assert.Empty(t, embedder.received)

		status, err := tracker.Get("upload-file-3")
		require.NoError(t, err)
		assert.Equal(t, string(StageFailed), status.Stage)
		assert.NotEmpty(t, status.Error)
	})

	t.Run("html masquerading as pdf", func(t *testing.T) {
		pipeline, _, _ := newTestPipeline(t)

		_, err := pipeline.Process(context.Background(), "upload-file-4", UploadInput{
			Type: SourceFile,
			Data: []byte("%PDF <html><body>fake</body></html>"),
		})
		assert.ErrorIs(t, err, pdf.ErrHTMLContent)
		assert.True(t, IsRequestError(err))
	})

	t.Run("embedder failure is wrapped", func(t *testing.T) {
		pipeline, embedder, tracker := newTestPipeline(t)
		embedder.err = errors.New("quota exceeded")
		data := buildServicePDF(t, "embedding failure case")

		_, err := pipeline.Process(context.Background(), "upload-file-5", UploadInput{
			Type: SourceFile,
			Data: data,
		})
		assert.ErrorIs(t, err, ErrEmbeddingFailed)
		assert.False(t, IsRequestError(err))

		status, err := tracker.Get("upload-file-5")
		require.NoError(t, err)
		assert.Equal(t, string(StageFailed), status.Stage)
	})
}

// TestPipelineService_Process_URL 测试URL上传的完整处理流程
func TestPipelineService_Process_URL(t *testing.T) {
	t.Run("valid pdf url", func(t *testing.T) {
		data := buildServicePDF(t, "remote document content")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(data)
		}))
		defer server.Close()

		pipeline, embedder, _ := newTestPipeline(t)

		result, err := pipeline.Process(context.Background(), "upload-url-1", UploadInput{
			Type: SourceURL,
			URL:  server.URL,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{
			string(StageValidating),
			string(StageFetching),
			string(StageExtracting),
			string(StageChunking),
			string(StageEmbedding),
		}, result.Stages)
		assert.Greater(t, result.ChunkCount, 0)
		assert.Len(t, embedder.received, result.ChunkCount)
	})

	t.Run("missing url", func(t *testing.T) {
		pipeline, _, _ := newTestPipeline(t)

		_, err := pipeline.Process(context.Background(), "upload-url-2", UploadInput{
			Type: SourceURL,
		})
		assert.ErrorIs(t, err, ErrMissingURL)
	})

	t.Run("unsupported scheme rejected before any request", func(t *testing.T) {
		pipeline, _, _ := newTestPipeline(t)

		_, err := pipeline.Process(context.Background(), "upload-url-3", UploadInput{
			Type: SourceURL,
			URL:  "ftp://example.com/file.pdf",
		})
		assert.ErrorIs(t, err, ErrUnsupportedURLScheme)
		assert.True(t, IsRequestError(err))
	})

	t.Run("remote not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		pipeline, _, tracker := newTestPipeline(t)

		_, err := pipeline.Process(context.Background(), "upload-url-4", UploadInput{
			Type: SourceURL,
			URL:  server.URL,
		})
		assert.ErrorIs(t, err, pdf.ErrNotFound)

		status, err := tracker.Get("upload-url-4")
		require.NoError(t, err)
		assert.Equal(t, string(StageFailed), status.Stage)
	})

	t.Run("remote html page rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body>error page</body></html>"))
		}))
		defer server.Close()

		pipeline, _, _ := newTestPipeline(t)

		_, err := pipeline.Process(context.Background(), "upload-url-5", UploadInput{
			Type: SourceURL,
			URL:  server.URL,
		})
		assert.ErrorIs(t, err, pdf.ErrInvalidPDFFormat)
	})
}

// TestPipelineService_Process_InvalidType 测试非法请求类型
func TestPipelineService_Process_InvalidType(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t)

	_, err := pipeline.Process(context.Background(), "upload-bad-type", UploadInput{
		Type: SourceType("ftp"),
	})
	assert.ErrorIs(t, err, ErrInvalidRequestType)
	assert.True(t, IsRequestError(err))
}

// TestIsRequestError 测试请求错误分类
func TestIsRequestError(t *testing.T) {
	requestErrors := []error{
		ErrInvalidRequestType,
		ErrMissingFile,
		ErrMissingURL,
		ErrInvalidURLFormat,
		ErrUnsupportedURLScheme,
		pdf.ErrInvalidPDFFormat,
		pdf.ErrHTMLContent,
	}
	for _, err := range requestErrors {
		assert.True(t, IsRequestError(err), err.Error())
	}

	internalErrors := []error{
		ErrChunkingFailed,
		ErrEmbeddingFailed,
		pdf.ErrDownloadFailed,
		pdf.ErrNotFound,
		errors.New("something else"),
	}
	for _, err := range internalErrors {
		assert.False(t, IsRequestError(err), err.Error())
	}
}
