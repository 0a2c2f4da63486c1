package cache

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher 是缓存层依赖的下载能力，*fetch.Fetcher 即为默认实现。
type Fetcher interface {
	Fetch(ctx context.Context, url, checksum, outputDir string) (string, error)
}

// Request 描述一次缓存下载请求，按调用构造，不做持久化。
type Request struct {
	URL       string
	Checksum  string
	OutputDir string
	// ReadOnly 只查询缓存：没有可用条目时返回 CacheUnavailableError，不访问网络。
	ReadOnly bool
	// SkipVerify 命中缓存时跳过摘要复核，直接信任已有条目。
	SkipVerify bool
}

// CacheUnavailableError 表示调用方要求只读缓存，但缓存中没有可用条目。
type CacheUnavailableError struct {
	URL      string
	Checksum string
	Reason   string
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("no usable cache entry for %s (checksum %s): %s", e.URL, e.Checksum, e.Reason)
}

// ErrCacheInvariant 表示刚写入的条目与随后读出的文件名不一致，属于程序缺陷。
var ErrCacheInvariant = errors.New("cache invariant violated")

type entryState int

const (
	entryAbsent entryState = iota
	entryServed
	entryUnusable
)

// entryStatus 记录一次缓存读取的结果；reason 用于告警与只读模式的错误信息。
type entryStatus struct {
	state  entryState
	reason string
}

func absent(reason string) entryStatus {
	return entryStatus{state: entryAbsent, reason: reason}
}

func unusable(reason string) entryStatus {
	return entryStatus{state: entryUnusable, reason: reason}
}
