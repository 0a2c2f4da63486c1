package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "300ms"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述一次运行共享的参数：日志、缓存目录、下载重试与构建命令。
type GlobalConfig struct {
	LogLevel       string   `mapstructure:"LogLevel"`
	LogFormat      string   `mapstructure:"LogFormat"`
	LogFilePath    string   `mapstructure:"LogFilePath"`
	LogMaxSize     int      `mapstructure:"LogMaxSize"`
	LogMaxBackups  int      `mapstructure:"LogMaxBackups"`
	LogCompress    bool     `mapstructure:"LogCompress"`
	CacheDir       string   `mapstructure:"CacheDir"`
	MaxRetries     int      `mapstructure:"MaxRetries"`
	InitialBackoff Duration `mapstructure:"InitialBackoff"`
	FetchTimeout   Duration `mapstructure:"FetchTimeout"`
	Progress       bool     `mapstructure:"Progress"`
	PullCommand    string   `mapstructure:"PullCommand"`
	BuildCommand   string   `mapstructure:"BuildCommand"`
	RedroidImage   string   `mapstructure:"RedroidImage"`
}

// SourceConfig 为某个组件在特定 Android 版本/架构下补充或覆盖下载源。
type SourceConfig struct {
	Kind     string `mapstructure:"Kind"`
	Android  string `mapstructure:"Android"`
	Arch     string `mapstructure:"Arch"`
	URL      string `mapstructure:"URL"`
	Checksum string `mapstructure:"Checksum"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global  GlobalConfig   `mapstructure:",squash"`
	Sources []SourceConfig `mapstructure:"Source"`
}

// Key 返回 kind/android/arch 组合键，catalog 以此去重。
func (s SourceConfig) Key() string {
	return fmt.Sprintf("%s/%s/%s", s.Kind, s.Android, s.Arch)
}
