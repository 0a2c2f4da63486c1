package fetch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/redroid-script/rds/internal/logging"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 300 * time.Millisecond
	maxBackoffInterval    = 30 * time.Second
)

// Shared transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewHTTPClient 返回下载共用的 http.Client。timeout 为 0 时不限制整体耗时，
// 大文件下载只受重试次数约束。
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: defaultTransport.Clone(),
	}
}

// Options 配置 Fetcher。Client、Logger、InitialBackoff 为零值时使用默认值；
// MaxRetries 为负数时使用默认重试次数，0 表示只尝试一次。
type Options struct {
	Client         *http.Client
	Logger         *logrus.Logger
	MaxRetries     int
	InitialBackoff time.Duration
	// Progress 非空时以字节进度条的形式输出下载进度（CLI 中为 stderr）。
	Progress io.Writer
}

// Fetcher downloads a URL into a directory and verifies it against an
// expected checksum.
type Fetcher struct {
	client         *http.Client
	logger         *logrus.Logger
	maxRetries     int
	initialBackoff time.Duration
	progress       io.Writer
}

// New 根据 Options 构建 Fetcher。
func New(opts Options) *Fetcher {
	f := &Fetcher{
		client:         opts.Client,
		logger:         opts.Logger,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		progress:       opts.Progress,
	}
	if f.client == nil {
		f.client = NewHTTPClient(0)
	}
	if f.logger == nil {
		f.logger = logging.Discard()
	}
	if f.maxRetries < 0 {
		f.maxRetries = defaultMaxRetries
	}
	if f.initialBackoff <= 0 {
		f.initialBackoff = defaultInitialBackoff
	}
	return f
}

// Fetch streams rawURL into outputDir, naming the file after the response's
// Content-Disposition (or the URL), and returns that filename once the
// content hashes to checksum. A mismatch yields *IntegrityError and leaves the
// content in outputDir under MismatchPrefix, never under filename; exhausted
// retries or permanent failures yield *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, checksum, outputDir string) (string, error) {
	checksum = NormalizeChecksum(checksum)
	if err := ValidateChecksum(checksum); err != nil {
		return "", &FetchError{URL: rawURL, Checksum: checksum, Err: err}
	}

	fields := logging.FetchFields(rawURL, checksum)
	fields["dir"] = outputDir
	f.logger.WithFields(fields).Debug("fetch_start")

	var (
		attempts int
		result   attemptResult
	)
	operation := func() error {
		attempts++
		res, err := f.attempt(ctx, rawURL, checksum, outputDir)
		if err != nil {
			return err
		}
		result = res
		return nil
	}
	notify := func(err error, wait time.Duration) {
		f.logger.WithFields(fields).WithError(err).WithFields(logrus.Fields{
			"action":  "fetch_retry",
			"attempt": attempts,
			"wait":    wait.String(),
		}).Warn("transient fetch failure, retrying")
	}

	if err := backoff.RetryNotify(operation, f.newBackOff(ctx), notify); err != nil {
		return "", &FetchError{URL: rawURL, Checksum: checksum, Attempts: attempts, Err: err}
	}

	if result.actual != checksum {
		return "", &IntegrityError{
			URL:      rawURL,
			Path:     result.path,
			Expected: checksum,
			Actual:   result.actual,
		}
	}

	f.logger.WithFields(fields).WithFields(logrus.Fields{
		"action":   "fetch_complete",
		"filename": result.filename,
		"size":     humanize.Bytes(uint64(result.size)),
		"attempts": attempts,
	}).Info("download verified")
	return result.filename, nil
}

func (f *Fetcher) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = f.initialBackoff
	exp.MaxInterval = maxBackoffInterval
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(f.maxRetries)), ctx)
}

type attemptResult struct {
	filename string
	path     string
	actual   string
	size     int64
}

// attempt 执行一次完整下载。可重试的错误原样返回，其余错误包装为 backoff.Permanent。
func (f *Fetcher) attempt(ctx context.Context, rawURL, checksum, outputDir string) (attemptResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return attemptResult{}, backoff.Permanent(err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return attemptResult{}, backoff.Permanent(ctx.Err())
		}
		return attemptResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if statusErr.Transient() {
			return attemptResult{}, statusErr
		}
		return attemptResult{}, backoff.Permanent(statusErr)
	}

	hasher, err := newHash(checksum)
	if err != nil {
		return attemptResult{}, backoff.Permanent(err)
	}

	filename := filenameFromResponse(resp)
	tmp, err := os.CreateTemp(outputDir, PartialPrefix+"*")
	if err != nil {
		return attemptResult{}, backoff.Permanent(fmt.Errorf("create temp file in %s: %w", outputDir, err))
	}
	tmpName := tmp.Name()

	var sink io.Writer = io.MultiWriter(tmp, hasher)
	bar := f.newProgressBar(resp.ContentLength, filename)
	if bar != nil {
		sink = io.MultiWriter(sink, bar)
	}

	written, copyErr := io.Copy(sink, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpName)
		if ctx.Err() != nil {
			return attemptResult{}, backoff.Permanent(ctx.Err())
		}
		if isLocalWriteError(copyErr) {
			return attemptResult{}, backoff.Permanent(copyErr)
		}
		return attemptResult{}, fmt.Errorf("stream body: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return attemptResult{}, backoff.Permanent(closeErr)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	result := attemptResult{
		filename: filename,
		actual:   hex.EncodeToString(hasher.Sum(nil)),
		size:     written,
	}

	// 摘要不符的内容只以 MismatchPrefix 命名保留，不占用最终文件名。
	if result.actual != checksum {
		result.path = filepath.Join(outputDir, MismatchPrefix+filename)
		if err := os.Rename(tmpName, result.path); err != nil {
			result.path = tmpName
		}
		return result, nil
	}

	result.path = filepath.Join(outputDir, filename)
	if err := os.Rename(tmpName, result.path); err != nil {
		os.Remove(tmpName)
		return attemptResult{}, backoff.Permanent(fmt.Errorf("move download into place: %w", err))
	}
	return result, nil
}

// isLocalWriteError 区分本地磁盘写入失败（不可重试）与网络读取失败。
func isLocalWriteError(err error) bool {
	var pathErr *os.PathError
	return errors.As(err, &pathErr)
}
