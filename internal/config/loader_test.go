package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTempConfig 把内容写入临时 config.toml 并返回路径。
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func TestLoadFailsWithInvalidSource(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "invalid.toml")); err == nil {
		t.Fatalf("非 http/https 下载源应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
LogLevel = "info"
InitialBackoff = "boom"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.MaxRetries != 3 {
		t.Fatalf("MaxRetries 默认值应为 3，得到 %d", cfg.Global.MaxRetries)
	}
	if cfg.Global.InitialBackoff.DurationValue() != 300*time.Millisecond {
		t.Fatalf("InitialBackoff 默认值应为 300ms，得到 %s", cfg.Global.InitialBackoff.DurationValue())
	}
	if !cfg.Global.Progress {
		t.Fatalf("Progress 默认应开启")
	}
	if cfg.Global.BuildCommand != "docker buildx build" {
		t.Fatalf("BuildCommand 默认值异常: %s", cfg.Global.BuildCommand)
	}
	if cfg.Global.CacheDir != "" {
		t.Fatalf("CacheDir 未配置时应留空，由调用方决定平台默认目录")
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("RDS_MAXRETRIES", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.MaxRetries != 7 {
		t.Fatalf("环境变量应覆盖 MaxRetries，得到 %d", cfg.Global.MaxRetries)
	}
}
