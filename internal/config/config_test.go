package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadValidFile(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.MaxRetries != 5 {
		t.Fatalf("MaxRetries 应被解析，得到 %d", cfg.Global.MaxRetries)
	}
	if cfg.Global.InitialBackoff.DurationValue() != 500*time.Millisecond {
		t.Fatalf("InitialBackoff 解析错误: %s", cfg.Global.InitialBackoff.DurationValue())
	}
	if cfg.Global.FetchTimeout.DurationValue() != 2*time.Minute {
		t.Fatalf("纯数字应按秒解析，得到 %s", cfg.Global.FetchTimeout.DurationValue())
	}
	if !filepath.IsAbs(cfg.Global.CacheDir) {
		t.Fatalf("CacheDir 应转换为绝对路径，得到 %s", cfg.Global.CacheDir)
	}
	if cfg.Global.BuildCommand != "podman build" {
		t.Fatalf("BuildCommand 应被覆盖，得到 %s", cfg.Global.BuildCommand)
	}
	if cfg.Global.PullCommand != "docker image pull" {
		t.Fatalf("PullCommand 应保留默认值，得到 %s", cfg.Global.PullCommand)
	}
	if len(cfg.Sources) != 1 {
		t.Fatalf("应解析出 1 个 Source，得到 %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Checksum != "c9572672d1045594448068079b34c350" {
		t.Fatalf("Checksum 应被规范为小写，得到 %s", cfg.Sources[0].Checksum)
	}
}

func TestValidateRejectsNegativeRetries(t *testing.T) {
	cfg := validConfig()
	cfg.Global.MaxRetries = -1
	err := cfg.Validate()
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("期望 FieldError，得到 %v", err)
	}
	if fieldErr.Field != "Global.MaxRetries" {
		t.Fatalf("字段路径错误: %s", fieldErr.Field)
	}
}

func TestValidateImageName(t *testing.T) {
	testCases := []struct {
		name      string
		image     string
		shouldErr bool
	}{
		{"docker hub", "docker.io/redroid/redroid", false},
		{"registry with port", "localhost:5000/redroid", false},
		{"with tag", "redroid/redroid:16.0.0", true},
		{"with digest", "redroid/redroid@sha256:abc", true},
		{"empty", " ", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Global.RedroidImage = tc.image
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error for image %q", tc.image)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error for image %q: %v", tc.image, err)
			}
		})
	}
}

func TestValidateSourceChecksum(t *testing.T) {
	testCases := []struct {
		name      string
		checksum  string
		shouldErr bool
	}{
		{"md5", "d41d8cd98f00b204e9800998ecf8427e", false},
		{"sha256", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", false},
		{"short", "d41d8cd9", true},
		{"not hex", "zz1d8cd98f00b204e9800998ecf8427e", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Sources[0].Checksum = tc.checksum
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error for checksum %q", tc.checksum)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error for checksum %q: %v", tc.checksum, err)
			}
		})
	}
}

func TestValidateRejectsDuplicateSources(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = append(cfg.Sources, cfg.Sources[0])
	if err := cfg.Validate(); err == nil {
		t.Fatalf("重复的 Source 应当报错")
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Global.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("未知日志格式应当报错")
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			LogLevel:       "info",
			LogFormat:      "text",
			MaxRetries:     3,
			InitialBackoff: Duration(300 * time.Millisecond),
			PullCommand:    "docker image pull",
			BuildCommand:   "docker buildx build",
			RedroidImage:   "docker.io/redroid/redroid",
		},
		Sources: []SourceConfig{
			{
				Kind:     "ndk",
				Android:  "12.0.0",
				Arch:     "x86_64",
				URL:      "https://example.com/ndk.zip",
				Checksum: "c9572672d1045594448068079b34c350",
			},
		},
	}
}
