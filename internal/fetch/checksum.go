package fetch

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// ErrInvalidChecksum 表示调用方提供的摘要不是受支持长度的十六进制串。
var ErrInvalidChecksum = errors.New("invalid checksum")

// NormalizeChecksum 统一为小写并去掉首尾空白，缓存目录以规范化后的值命名。
func NormalizeChecksum(checksum string) string {
	return strings.ToLower(strings.TrimSpace(checksum))
}

// ValidateChecksum 检查摘要格式：32 位为 MD5，40 位为 SHA-1，64 位为 SHA-256。
func ValidateChecksum(checksum string) error {
	_, err := newHash(NormalizeChecksum(checksum))
	return err
}

func newHash(checksum string) (hash.Hash, error) {
	if _, err := hex.DecodeString(checksum); err != nil {
		return nil, fmt.Errorf("%w: %q is not hex", ErrInvalidChecksum, checksum)
	}
	switch len(checksum) {
	case md5.Size * 2:
		return md5.New(), nil
	case sha1.Size * 2:
		return sha1.New(), nil
	case sha256.Size * 2:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported length %d", ErrInvalidChecksum, len(checksum))
	}
}

// HashFile 以 checksum 对应的算法计算文件摘要，返回小写十六进制结果。
func HashFile(path, checksum string) (string, error) {
	h, err := newHash(NormalizeChecksum(checksum))
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
