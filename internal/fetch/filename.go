package fetch

import (
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// PartialPrefix 标记仍在写入中的临时文件；缓存层据此识别未完成的条目。
const PartialPrefix = ".rds-partial-"

// MismatchPrefix 标记摘要校验失败后保留下来的文件，缓存层永远不会信任它。
const MismatchPrefix = ".rds-mismatch-"

const fallbackFilename = "download"

// filenameFromResponse 优先使用 Content-Disposition（filename* 优于 filename），
// 否则退回最终请求 URL 的最后一段路径。
func filenameFromResponse(resp *http.Response) string {
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := sanitizeFilename(params["filename"]); name != "" {
				return name
			}
		}
	}

	if resp.Request != nil && resp.Request.URL != nil {
		if name := filenameFromURL(resp.Request.URL); name != "" {
			return name
		}
	}
	return fallbackFilename
}

func filenameFromURL(u *url.URL) string {
	segment := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}
	return sanitizeFilename(segment)
}

// sanitizeFilename 只保留 base name，拒绝空串与 "."、".."，避免写出输出目录。
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	if strings.HasPrefix(name, PartialPrefix) || strings.HasPrefix(name, MismatchPrefix) {
		name = "_" + name
	}
	return name
}
