package pdf

import (
	"bytes"
	"strings"
)

// pdfSignature PDF文件的魔数，合法文件必须以它开头
var pdfSignature = []byte("%PDF")

// htmlSniffLen HTML嗅探检查的字节数
const htmlSniffLen = 100

// ValidateBuffer 校验字节缓冲区是否为合法的PDF
// 先检查4字节文件签名，再对前100字节做大小写不敏感的HTML嗅探，
// 防止服务器返回错误页面却伪装成PDF下载
func ValidateBuffer(data []byte) error {
	if len(data) < len(pdfSignature) || !bytes.Equal(data[:len(pdfSignature)], pdfSignature) {
		return ErrInvalidPDFFormat
	}

	head := data
	if len(head) > htmlSniffLen {
		head = head[:htmlSniffLen]
	}

	s := strings.ToLower(string(head))
	if strings.Contains(s, "<html") || strings.Contains(s, "<!doctype") {
		return ErrHTMLContent
	}

	return nil
}
