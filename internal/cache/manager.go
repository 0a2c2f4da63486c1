package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/redroid-script/rds/internal/fetch"
	"github.com/redroid-script/rds/internal/logging"
)

const appDirName = "rds"

// DefaultRoot 返回平台约定的用户缓存目录下的 rds 子目录。
func DefaultRoot() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// Manager 在共享磁盘缓存之上包装 Fetcher。root 由调用方显式传入，目录在首次写入时才创建。
type Manager struct {
	root    string
	fetcher Fetcher
	logger  *logrus.Logger
}

// NewManager 构建缓存管理器；logger 为空时丢弃日志。
func NewManager(root string, fetcher Fetcher, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		root:    filepath.Clean(root),
		fetcher: fetcher,
		logger:  logger,
	}
}

// Root 返回缓存根目录。
func (m *Manager) Root() string {
	return m.root
}

// EntryDir 返回 checksum 对应的条目目录。
func (m *Manager) EntryDir(checksum string) string {
	return filepath.Join(m.root, fetch.NormalizeChecksum(checksum))
}

// FetchCached delivers a verified copy of the resource into req.OutputDir and
// returns its filename. A valid cache entry is served without touching the
// network; otherwise the resource is downloaded into the cache and served
// from there, and if the cache cannot be used at all the resource is
// downloaded straight into req.OutputDir.
func (m *Manager) FetchCached(ctx context.Context, req Request) (string, error) {
	checksum := fetch.NormalizeChecksum(req.Checksum)
	if err := fetch.ValidateChecksum(checksum); err != nil {
		return "", &fetch.FetchError{URL: req.URL, Checksum: checksum, Err: err}
	}
	req.Checksum = checksum
	entryDir := m.EntryDir(checksum)

	name, status := m.serveFromCache(req, entryDir, !req.SkipVerify)
	if status.state == entryServed {
		return name, nil
	}

	if req.ReadOnly {
		return "", &CacheUnavailableError{URL: req.URL, Checksum: checksum, Reason: status.reason}
	}

	if status.state == entryAbsent {
		name, served, err := m.populate(ctx, req, entryDir)
		if served || err != nil {
			return name, err
		}
	}

	m.logger.WithFields(logging.FetchFields(req.URL, checksum)).WithField("action", "fetch_uncached").Debug("downloading without cache")
	return m.fetcher.Fetch(ctx, req.URL, checksum, req.OutputDir)
}

// populate 下载到条目目录后经 serveFromCache 读出。served 为 false 且 err 为空时，
// 调用方降级为直接下载到输出目录。
func (m *Manager) populate(ctx context.Context, req Request, entryDir string) (string, bool, error) {
	if err := m.prepareEntry(entryDir); err != nil {
		m.warn(req, entryDir, "cache directory not writable", err)
		return "", false, nil
	}

	downloaded, err := m.fetcher.Fetch(ctx, req.URL, req.Checksum, entryDir)
	if err != nil {
		if isEntryWriteError(err, entryDir) {
			m.warn(req, entryDir, "cache write failed", err)
			return "", false, nil
		}
		return "", false, err
	}

	served, fresh := m.serveFromCache(req, entryDir, true)
	if fresh.state != entryServed {
		m.warn(req, entryDir, "freshly populated entry unusable: "+fresh.reason, nil)
		return "", false, nil
	}
	if served != downloaded {
		return "", false, fmt.Errorf("%w: downloaded %q into %s but served %q", ErrCacheInvariant, downloaded, entryDir, served)
	}
	return served, true, nil
}

// isEntryWriteError 判断下载失败是否源自条目目录内的本地文件操作（磁盘满、创建临时文件失败等）。
func isEntryWriteError(err error, entryDir string) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return within(entryDir, pathErr.Path)
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return within(entryDir, linkErr.New)
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// serveFromCache 校验条目并复制到输出目录。失败从不返回错误，而是以 entryStatus 说明原因，
// 由调用方决定降级或报错。
func (m *Manager) serveFromCache(req Request, entryDir string, verify bool) (string, entryStatus) {
	info, err := os.Stat(entryDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", absent("no cache entry")
		}
		m.warn(req, entryDir, "cache entry not accessible", err)
		return "", unusable("cache entry not accessible")
	}
	if !info.IsDir() {
		m.warn(req, entryDir, "cache entry is not a directory", nil)
		return "", unusable("cache entry is not a directory")
	}

	if err := checkAccess(entryDir, accessRead|accessExec); err != nil {
		m.warn(req, entryDir, "cache entry not listable", err)
		return "", unusable("cache entry not listable")
	}
	entries, err := os.ReadDir(entryDir)
	if err != nil {
		m.warn(req, entryDir, "cache entry not listable", err)
		return "", unusable("cache entry not listable")
	}

	switch len(entries) {
	case 0:
		return "", absent("cache entry is empty")
	case 1:
	default:
		m.warn(req, entryDir, "more than one file in cache entry", nil)
		return "", unusable("more than one file in cache entry")
	}

	name := entries[0].Name()
	cached := filepath.Join(entryDir, name)
	if strings.HasPrefix(name, fetch.PartialPrefix) {
		m.warn(req, cached, "entry is still being populated", nil)
		return "", unusable("entry is still being populated")
	}
	if strings.HasPrefix(name, fetch.MismatchPrefix) {
		m.warn(req, cached, "cached file failed verification", nil)
		return "", unusable("cached file failed verification")
	}
	if !entries[0].Type().IsRegular() {
		m.warn(req, cached, "cached file is not a regular file", nil)
		return "", unusable("cached file is not a regular file")
	}
	if err := checkAccess(cached, accessRead); err != nil {
		m.warn(req, cached, "cached file not readable", err)
		return "", unusable("cached file not readable")
	}

	if verify {
		actual, err := fetch.HashFile(cached, req.Checksum)
		if err != nil {
			m.warn(req, cached, "cached file not readable", err)
			return "", unusable("cached file not readable")
		}
		if actual != req.Checksum {
			m.warn(req, cached, "cached file corrupted, redownloading", nil)
			return "", unusable("cached file corrupted")
		}
	}

	dest := filepath.Join(req.OutputDir, name)
	cloned, err := copyFile(cached, dest)
	if err != nil {
		m.warn(req, cached, "copy from cache failed", err)
		return "", unusable("copy from cache failed")
	}

	fields := logging.FetchFields(req.URL, req.Checksum)
	fields["action"] = "cache_hit"
	fields["filename"] = name
	fields["cloned"] = cloned
	fields["verified"] = verify
	if info, err := os.Stat(dest); err == nil {
		fields["size"] = humanize.Bytes(uint64(info.Size()))
	}
	m.logger.WithFields(fields).Info("served from cache")
	return name, entryStatus{state: entryServed}
}

// prepareEntry 按需创建缓存根目录与条目目录，并确认条目目录最终可写。
func (m *Manager) prepareEntry(entryDir string) error {
	if err := ensureDir(m.root); err != nil {
		return err
	}
	if err := ensureDir(entryDir); err != nil {
		return err
	}
	return checkWritableDir(entryDir)
}

// ensureDir 创建缺失的目录，创建前要求最近的已存在祖先目录可读写、可进入且未挂载为只读。
func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	parent, err := nearestExistingDir(filepath.Dir(dir))
	if err != nil {
		return err
	}
	if err := checkWritableDir(parent); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

func nearestExistingDir(dir string) (string, error) {
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s exists and is not a directory", dir)
			}
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing ancestor for %s", dir)
		}
		dir = parent
	}
}

// checkWritableDir 要求目录具备读写与进入权限，且所在文件系统未以只读方式挂载。
func checkWritableDir(dir string) error {
	if err := checkAccess(dir, accessRead|accessWrite|accessExec); err != nil {
		return err
	}
	readOnly, err := readOnlyMount(dir)
	if err != nil {
		return fmt.Errorf("statfs %s: %w", dir, err)
	}
	if readOnly {
		return fmt.Errorf("%s is on a read-only filesystem", dir)
	}
	return nil
}

// warn 是缓存降级告警的唯一出口，字段固定为 action/reason/checksum/path。
func (m *Manager) warn(req Request, path, reason string, err error) {
	entry := m.logger.WithFields(logging.FetchFields(req.URL, req.Checksum)).WithFields(logrus.Fields{
		"action": "cache_degraded",
		"reason": reason,
		"path":   path,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(reason)
}
