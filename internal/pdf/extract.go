package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

// Metadata PDF文档元数据
// 字段均为尽力提取，缺失时为null
type Metadata struct {
	Title            *string `json:"title"`            // 标题
	Author           *string `json:"author"`           // 作者
	Subject          *string `json:"subject"`          // 主题
	Keywords         *string `json:"keywords"`         // 关键词
	Creator          *string `json:"creator"`          // 创建工具
	Producer         *string `json:"producer"`         // 生成器
	CreationDate     *string `json:"creationDate"`     // 创建时间
	ModificationDate *string `json:"modificationDate"` // 修改时间
	PDFVersion       *string `json:"pdfVersion"`       // PDF格式版本
	NumPages         int     `json:"numPages"`         // 页数
	IsEncrypted      bool    `json:"isEncrypted"`      // 是否加密
	IsLinearized     bool    `json:"isLinearized"`     // 是否线性化
}

// ExtractedDocument 文本提取结果
type ExtractedDocument struct {
	ExtractedText string    `json:"extractedText"` // 全文文本
	Metadata      *Metadata `json:"metadata"`      // 文档元数据，提取失败时为null
}

// readPDFInfo 文档信息读取函数，测试中可替换
var readPDFInfo = api.PDFInfo

// Extractor PDF文本与元数据提取器
// 基于pdfcpu从已校验的PDF字节流中提取纯文本和文档信息
type Extractor struct {
	logger *logrus.Logger
}

// NewExtractor 创建一个新的提取器
func NewExtractor(logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Extractor{logger: logger}
}

// Extract 提取PDF的全文文本和元数据
// 文档加载失败时返回提取错误；元数据提取失败只记录日志并置为null，
// 不影响文本提取结果
func (e *Extractor) Extract(data []byte) (*ExtractedDocument, error) {
	conf := model.NewDefaultConfiguration()

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	metadata := e.extractMetadata(data, conf)

	// 按页码顺序逐页提取文本，页内文本项用空格连接，每页以换行符结尾
	var text strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrExtractionFailed, pageNr, err)
		}

		pageText := ""
		if r != nil {
			content, err := io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("%w: page %d: %v", ErrExtractionFailed, pageNr, err)
			}
			pageText = textFromContent(content)
		}

		text.WriteString(pageText)
		text.WriteString("\n")
	}

	return &ExtractedDocument{
		ExtractedText: text.String(),
		Metadata:      metadata,
	}, nil
}

// extractMetadata 尽力提取文档元数据，失败时返回nil
func (e *Extractor) extractMetadata(data []byte, conf *model.Configuration) *Metadata {
	info, err := readPDFInfo(bytes.NewReader(data), "", nil, false, conf)
	if err != nil {
		e.logger.WithField("error", err.Error()).Warn("Failed to extract PDF metadata")
		return nil
	}

	return &Metadata{
		Title:            nullable(info.Title),
		Author:           nullable(info.Author),
		Subject:          nullable(info.Subject),
		Keywords:         nullable(strings.Join(info.Keywords, ", ")),
		Creator:          nullable(info.Creator),
		Producer:         nullable(info.Producer),
		CreationDate:     nullable(info.CreationDate),
		ModificationDate: nullable(info.ModificationDate),
		PDFVersion:       nullable(info.Version),
		NumPages:         info.PageCount,
		IsEncrypted:      info.Encrypted,
		IsLinearized:     info.Linearized,
	}
}

// nullable 空字符串转为nil，序列化为JSON的null
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// textFromContent 从解码后的页面内容流中收集文本项
// 依次提取括号字符串字面量并用单个空格连接，覆盖Tj和TJ数组中的
// 字面量元素；十六进制字符串(<...>)和TJ数组中的字距数字会被跳过
func textFromContent(content []byte) string {
	var items []string
	i := 0
	for i < len(content) {
		if content[i] != '(' {
			i++
			continue
		}

		// 解析括号字面量，处理转义与嵌套括号
		var sb strings.Builder
		depth := 1
		i++
		for i < len(content) && depth > 0 {
			c := content[i]
			switch c {
			case '\\':
				if i+1 < len(content) {
					i++
					switch content[i] {
					case 'n':
						sb.WriteByte('\n')
					case 'r':
						sb.WriteByte('\r')
					case 't':
						sb.WriteByte('\t')
					case '(', ')', '\\':
						sb.WriteByte(content[i])
					default:
						sb.WriteByte(content[i])
					}
				}
			case '(':
				depth++
				sb.WriteByte(c)
			case ')':
				depth--
				if depth > 0 {
					sb.WriteByte(c)
				}
			default:
				sb.WriteByte(c)
			}
			i++
		}

		if s := strings.TrimSpace(sb.String()); s != "" {
			items = append(items, s)
		}
	}

	return strings.Join(items, " ")
}
