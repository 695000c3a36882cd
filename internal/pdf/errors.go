package pdf

import "errors"

var (
	// ErrInvalidPDFFormat 缺少PDF文件签名错误
	ErrInvalidPDFFormat = errors.New("file is not a valid PDF - missing PDF signature")

	// ErrHTMLContent 内容实际为HTML页面错误
	ErrHTMLContent = errors.New("file appears to be HTML, not a PDF")

	// ErrDownloadTimeout 下载超时错误
	ErrDownloadTimeout = errors.New("request timeout - PDF download took too long")

	// ErrNotFound 远程PDF不存在错误
	ErrNotFound = errors.New("PDF not found at the provided URL")

	// ErrAccessDenied 远程PDF访问被拒绝错误
	ErrAccessDenied = errors.New("access denied to PDF URL")

	// ErrDownloadFailed 其他下载失败错误，包装底层错误信息
	ErrDownloadFailed = errors.New("failed to download PDF")

	// ErrExtractionFailed 文档加载或文本提取失败错误
	ErrExtractionFailed = errors.New("could not extract text from PDF")
)
