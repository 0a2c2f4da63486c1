package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var supportedLogFormats = map[string]struct{}{
	"json": {},
	"text": {},
}

// Validate 针对语义级别做进一步校验，防止非法配置进入构建流程。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := &c.Global
	g.LogFormat = strings.ToLower(strings.TrimSpace(g.LogFormat))
	if _, ok := supportedLogFormats[g.LogFormat]; !ok {
		return newFieldError("Global.LogFormat", "仅支持 json/text")
	}
	if g.MaxRetries < 0 {
		return newFieldError("Global.MaxRetries", "不能为负数")
	}
	if g.InitialBackoff.DurationValue() <= 0 {
		return newFieldError("Global.InitialBackoff", "必须大于 0")
	}
	if g.FetchTimeout.DurationValue() < 0 {
		return newFieldError("Global.FetchTimeout", "不能为负数")
	}
	if strings.TrimSpace(g.PullCommand) == "" {
		return newFieldError("Global.PullCommand", "不能为空")
	}
	if strings.TrimSpace(g.BuildCommand) == "" {
		return newFieldError("Global.BuildCommand", "不能为空")
	}
	if err := validateImage(g.RedroidImage); err != nil {
		return fmt.Errorf("Global.RedroidImage: %w", err)
	}

	return ValidateSources(c.Sources)
}

// ValidateSources 规范化并校验 [[Source]] 列表，内置目录与用户配置共用同一套规则。
func ValidateSources(sources []SourceConfig) error {
	seen := map[string]struct{}{}
	for i := range sources {
		src := &sources[i]
		src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
		src.Arch = strings.TrimSpace(src.Arch)
		src.Android = strings.TrimSpace(src.Android)
		src.Checksum = strings.ToLower(strings.TrimSpace(src.Checksum))

		if src.Kind == "" {
			return newFieldError(sourceField(i, "Kind"), "不能为空")
		}
		if src.Android == "" {
			return newFieldError(sourceField(i, "Android"), "不能为空")
		}
		if src.Arch == "" {
			return newFieldError(sourceField(i, "Arch"), "不能为空")
		}
		if err := validateSourceURL(src.URL); err != nil {
			return fmt.Errorf("%s: %w", sourceField(i, "URL"), err)
		}
		if !isHexDigest(src.Checksum) {
			return newFieldError(sourceField(i, "Checksum"), "必须是 32/40/64 位十六进制摘要")
		}
		if _, exists := seen[src.Key()]; exists {
			return newFieldError(sourceField(i, "Kind/Android/Arch"), "重复")
		}
		seen[src.Key()] = struct{}{}
	}

	return nil
}

func validateImage(image string) error {
	image = strings.TrimSpace(image)
	if image == "" {
		return errors.New("镜像名不能为空")
	}
	if strings.Contains(image, "@") {
		return errors.New("镜像名不应包含 digest")
	}
	if idx := strings.LastIndex(image, ":"); idx > strings.LastIndex(image, "/") {
		return errors.New("镜像名不应包含 tag")
	}
	return nil
}

func validateSourceURL(raw string) error {
	if raw == "" {
		return errors.New("缺少下载地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("下载地址缺少 Host: %s", raw)
	}
	return nil
}

func isHexDigest(value string) bool {
	switch len(value) {
	case 32, 40, 64:
	default:
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}
