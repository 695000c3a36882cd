package document

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestText 生成由唯一编号单词组成的长文本，每8个单词成段
// 单词互不重复，便于精确测量分块之间的实际重叠
func buildTestText(words int) string {
	var sb strings.Builder
	for i := 0; i < words; i++ {
		sb.WriteString(fmt.Sprintf("word%04d", i))
		if (i+1)%8 == 0 {
			sb.WriteString("\n\n")
		} else {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// overlapLen 返回a的后缀与b的前缀的最长公共长度
func overlapLen(a, b string) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(a, b[:n]) {
			return n
		}
	}
	return 0
}

// TestTextSplitter_Split 测试递归文本分段
func TestTextSplitter_Split(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		splitter := NewTextSplitter(DefaultSplitterConfig())

		chunks, err := splitter.Split("")
		require.NoError(t, err)
		assert.Empty(t, chunks)

		chunks, err = splitter.Split("   \n\n\t  ")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("short text yields single chunk", func(t *testing.T) {
		splitter := NewTextSplitter(DefaultSplitterConfig())

		chunks, err := splitter.Split("  a short document\n")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "a short document", chunks[0].Text)
		assert.Equal(t, 0, chunks[0].Index)
	})

	t.Run("chunk size and overlap bounds", func(t *testing.T) {
		config := DefaultSplitterConfig()
		splitter := NewTextSplitter(config)
		text := buildTestText(2000)

		chunks, err := splitter.Split(text)
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)

		for i, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk.Text), config.ChunkSize)
			assert.Equal(t, i, chunk.Index)
			// 分块内容必须来自原文
			assert.Contains(t, text, chunk.Text)
		}

		for i := 1; i < len(chunks); i++ {
			assert.LessOrEqual(t, overlapLen(chunks[i-1].Text, chunks[i].Text), config.ChunkOverlap)
		}
	})

	t.Run("order preserved", func(t *testing.T) {
		splitter := NewTextSplitter(DefaultSplitterConfig())
		text := buildTestText(2000)

		chunks, err := splitter.Split(text)
		require.NoError(t, err)

		// 分块在原文中的起始位置单调不减
		prev := -1
		for _, chunk := range chunks {
			pos := strings.Index(text, chunk.Text)
			require.GreaterOrEqual(t, pos, 0)
			assert.GreaterOrEqual(t, pos, prev)
			prev = pos
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		splitter := NewTextSplitter(DefaultSplitterConfig())
		text := buildTestText(1500)

		first, err := splitter.Split(text)
		require.NoError(t, err)
		second, err := splitter.Split(text)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("no separator falls back to fixed windows", func(t *testing.T) {
		config := SplitterConfig{ChunkSize: 100, ChunkOverlap: 20}
		splitter := NewTextSplitter(config)

		// 无分隔符的连续文本，用递增数字串避免内容周期性重复
		var sb strings.Builder
		for i := 0; i < 150; i++ {
			sb.WriteString(fmt.Sprintf("%03d", i))
		}
		text := sb.String()

		chunks, err := splitter.Split(text)
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk.Text), config.ChunkSize)
		}

		// 固定窗口的重叠恰好为配置值
		assert.Equal(t, config.ChunkOverlap, overlapLen(chunks[0].Text, chunks[1].Text))
	})

	t.Run("paragraphs kept together when they fit", func(t *testing.T) {
		splitter := NewTextSplitter(DefaultSplitterConfig())
		text := "first paragraph.\n\nsecond paragraph."

		chunks, err := splitter.Split(text)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0].Text)
	})

	t.Run("invalid config is normalized", func(t *testing.T) {
		splitter := NewTextSplitter(SplitterConfig{ChunkSize: -1, ChunkOverlap: -5})
		assert.Equal(t, 1500, splitter.config.ChunkSize)
		assert.Equal(t, 0, splitter.config.ChunkOverlap)

		splitter = NewTextSplitter(SplitterConfig{ChunkSize: 100, ChunkOverlap: 100})
		assert.Equal(t, 50, splitter.config.ChunkOverlap)
	})
}
