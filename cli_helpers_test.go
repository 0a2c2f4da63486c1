package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var (
	outBuf *bytes.Buffer
	errBuf *bytes.Buffer
)

// useBufferWriters 在测试期间把 stdOut/stdErr 换成内存缓冲，结束后恢复。
func useBufferWriters(t *testing.T) {
	t.Helper()

	prevOut, prevErr := stdOut, stdErr
	outBuf, errBuf = &bytes.Buffer{}, &bytes.Buffer{}
	stdOut, stdErr = outBuf, errBuf
	t.Cleanup(func() {
		stdOut, stdErr = prevOut, prevErr
	})
}

func stdOutBuffer() *bytes.Buffer { return outBuf }

func stdErrBuffer() *bytes.Buffer { return errBuf }

// configFixture 返回 internal/config/testdata 下的样例配置；go test 以包目录（仓库根）为工作目录。
func configFixture(name string) string {
	return filepath.Join("internal", "config", "testdata", name)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}
