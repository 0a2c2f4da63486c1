package component

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/redroid-script/rds/internal/cache"
	"github.com/redroid-script/rds/internal/image"
	"github.com/redroid-script/rds/internal/logging"
)

// CachedFetcher 是安装器依赖的下载能力，*cache.Manager 为默认实现。
type CachedFetcher interface {
	FetchCached(ctx context.Context, req cache.Request) (string, error)
}

// Target 描述一次构建的目标平台与构建上下文。
type Target struct {
	BuildDir string
	Android  image.AndroidTag
	Arch     string
	RunID    string
}

// Installer 是所有组件共用的安装驱动：兼容性检查、查找下载源、经缓存下载、调用组件解包。
type Installer struct {
	Fetcher CachedFetcher
	Catalog *Catalog
	Logger  *logrus.Logger
	// ScratchRoot 为空时使用系统临时目录。
	ScratchRoot string
}

// Install 安装单个组件到 target.BuildDir/<CopyDir>。
func (i *Installer) Install(ctx context.Context, def Definition, target Target) error {
	logger := i.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	androidArch, err := def.Check(target.Arch, target.Android)
	if err != nil {
		return err
	}
	entry := logger.WithFields(logging.ComponentFields(target.RunID, def.Kind, target.Android.Major, androidArch))
	if def.Deprecated != "" {
		entry.WithField("action", "component_deprecated").Warn(def.Deprecated)
	}

	src, ok := i.Catalog.Lookup(def.Kind, target.Android.Base, androidArch)
	if !ok {
		return &SourceNotFoundError{Kind: def.Kind, Android: target.Android.Base, Arch: androidArch}
	}

	scratch, err := os.MkdirTemp(i.ScratchRoot, "rds-"+def.Kind+"-")
	if err != nil {
		return fmt.Errorf("component %s: create scratch dir: %w", def.Kind, err)
	}
	defer os.RemoveAll(scratch)

	downloadDir := filepath.Join(scratch, "download")
	workDir := filepath.Join(scratch, "work")
	for _, dir := range []string{downloadDir, workDir} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			return fmt.Errorf("component %s: %w", def.Kind, err)
		}
	}

	started := time.Now()
	name, err := i.Fetcher.FetchCached(ctx, cache.Request{
		URL:       src.URL,
		Checksum:  src.Checksum,
		OutputDir: downloadDir,
	})
	if err != nil {
		return fmt.Errorf("component %s: %w", def.Kind, err)
	}

	copyDir := filepath.Join(target.BuildDir, def.CopyDir)
	if err := os.MkdirAll(copyDir, 0o755); err != nil {
		return fmt.Errorf("component %s: %w", def.Kind, err)
	}

	job := ExtractJob{
		Archive: filepath.Join(downloadDir, name),
		WorkDir: workDir,
		CopyDir: copyDir,
		Logger:  entry,
	}
	if err := def.Extract(ctx, job); err != nil {
		return fmt.Errorf("component %s: extract %s: %w", def.Kind, name, err)
	}

	entry.WithFields(logrus.Fields{
		"action":   "component_installed",
		"archive":  name,
		"copy_dir": def.CopyDir,
		"elapsed":  time.Since(started).String(),
	}).Info("component installed")
	return nil
}
