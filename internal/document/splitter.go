package document

import (
	"fmt"
	"strings"
)

// Content 表示分割后的文本块
type Content struct {
	Text  string // 文本块内容
	Index int    // 文本块在序列中的位置
}

// Splitter 文本分段器接口
// 负责将长文本分割成适合向量化的小段
type Splitter interface {
	// Split 将文本分割成有序的文本块序列
	Split(text string) ([]Content, error)
}

// SplitterConfig 分段器配置
type SplitterConfig struct {
	ChunkSize    int      // 分块目标大小（字符数）
	ChunkOverlap int      // 相邻分块的重叠大小（字符数）
	Separators   []string // 递归分割使用的分隔符，按优先级排列
}

// DefaultSplitterConfig 返回默认分段器配置
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		Separators:   []string{"\n\n", "\n", " ", ""},
	}
}

// TextSplitter 递归字符文本分段器
// 按分隔符优先级递归分割文本：优先保持段落完整，段落过长时降级到
// 换行、空格，最后按固定长度硬切。对相同输入产生相同的分割结果
type TextSplitter struct {
	config SplitterConfig
}

// NewTextSplitter 创建新的文本分段器
func NewTextSplitter(config SplitterConfig) *TextSplitter {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1500
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 2
	}
	if len(config.Separators) == 0 {
		config.Separators = []string{"\n\n", "\n", " ", ""}
	}
	return &TextSplitter{config: config}
}

// Split 将文本分割成内容块
func (s *TextSplitter) Split(text string) ([]Content, error) {
	if strings.TrimSpace(text) == "" {
		return []Content{}, nil
	}

	chunks, err := s.splitRecursive(text, s.config.Separators)
	if err != nil {
		return nil, err
	}

	contents := make([]Content, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		contents = append(contents, Content{
			Text:  chunk,
			Index: len(contents),
		})
	}

	return contents, nil
}

// splitRecursive 用当前优先级最高的有效分隔符分割文本
// 过长的片段继续用低优先级分隔符递归分割，最后合并为带重叠的分块
func (s *TextSplitter) splitRecursive(text string, separators []string) ([]string, error) {
	if len(separators) == 0 {
		return nil, fmt.Errorf("no separator available for splitting")
	}

	// 选择第一个出现在文本中的分隔符，空字符串作为兜底
	separator := separators[len(separators)-1]
	rest := separators[len(separators):]
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	splits := s.splitText(text, separator)

	var result []string
	var pending []string

	for _, piece := range splits {
		if len(piece) <= s.config.ChunkSize {
			pending = append(pending, piece)
			continue
		}

		// 先合并已累积的小片段，再递归处理超长片段
		if len(pending) > 0 {
			result = append(result, s.mergeSplits(pending)...)
			pending = nil
		}

		if len(rest) == 0 {
			// 没有更细的分隔符可用，按固定长度硬切
			result = append(result, s.splitByLength(piece)...)
			continue
		}

		sub, err := s.splitRecursive(piece, rest)
		if err != nil {
			return nil, err
		}
		result = append(result, sub...)
	}

	if len(pending) > 0 {
		result = append(result, s.mergeSplits(pending)...)
	}

	return result, nil
}

// splitText 按分隔符分割文本并保留分隔符在片段尾部
func (s *TextSplitter) splitText(text string, separator string) []string {
	if separator == "" {
		return s.splitByLength(text)
	}

	parts := strings.Split(text, separator)
	var splits []string
	for i, part := range parts {
		if i < len(parts)-1 {
			part += separator
		}
		if part != "" {
			splits = append(splits, part)
		}
	}
	return splits
}

// mergeSplits 将小片段合并成接近目标大小的分块
// 片段尾部保留了原分隔符，直接拼接即可还原原文顺序；
// 分块满后从头部弹出片段，保留不超过重叠大小的尾部作为下一块的开头
func (s *TextSplitter) mergeSplits(splits []string) []string {
	var chunks []string
	var current []string
	total := 0

	for _, piece := range splits {
		if total+len(piece) > s.config.ChunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, ""))

			// 收缩窗口直到满足重叠上限
			for total > s.config.ChunkOverlap ||
				(total+len(piece) > s.config.ChunkSize && total > 0) {
				total -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += len(piece)
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}

	return chunks
}

// splitByLength 按固定长度分割文本，相邻窗口保留重叠
func (s *TextSplitter) splitByLength(text string) []string {
	if len(text) <= s.config.ChunkSize {
		return []string{text}
	}

	step := s.config.ChunkSize - s.config.ChunkOverlap
	if step <= 0 {
		step = s.config.ChunkSize
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.config.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}

	return chunks
}
