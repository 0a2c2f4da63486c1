package component

import "fmt"

// UnsupportedError 表示组件与目标架构或 Android 版本不兼容。
type UnsupportedError struct {
	Kind   string
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("component %s is not supported: %s", e.Kind, e.Reason)
}

// SourceNotFoundError 表示目录中没有 (kind, android, arch) 对应的下载源。
type SourceNotFoundError struct {
	Kind    string
	Android string
	Arch    string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("no download source for %s (android %s, %s); add a [[Source]] entry to the config file", e.Kind, e.Android, e.Arch)
}
