// Package pipeline 串联一次完整的镜像定制：校验参数、拉取基础镜像、并发安装组件、
// 生成 Dockerfile 并构建最终标签。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/redroid-script/rds/internal/component"
	"github.com/redroid-script/rds/internal/image"
	"github.com/redroid-script/rds/internal/logging"
)

// Architectures 是支持的 docker 目标架构。
var Architectures = []string{"amd64", "arm64"}

// ImageBuilder 抽象外部容器工具，*image.Builder 为默认实现。
type ImageBuilder interface {
	Pull(ctx context.Context, platform, ref string) error
	Build(ctx context.Context, platform, tag, contextDir string) error
}

// ComponentInstaller 抽象组件安装，*component.Installer 为默认实现。
type ComponentInstaller interface {
	Install(ctx context.Context, def component.Definition, target component.Target) error
}

// Options 描述一次构建请求。
type Options struct {
	Image    string
	Android  string
	Arch     string
	Gapps    string
	NDK      bool
	Widevine bool

	Builder   ImageBuilder
	Installer ComponentInstaller
	Logger    *logrus.Logger
	// Notice 接收面向用户的提示（CLI 中为 stderr），stdout 只保留最终标签。
	Notice io.Writer
	// WorkRoot 为空时构建上下文创建在系统临时目录。
	WorkRoot string
}

// Plan 是参数校验后的构建计划。
type Plan struct {
	Tag        image.AndroidTag
	Arch       string
	Components []component.Definition
}

// CopyDirs 按选择顺序返回各组件的构建上下文目录。
func (p Plan) CopyDirs() []string {
	dirs := make([]string, 0, len(p.Components))
	for _, def := range p.Components {
		dirs = append(dirs, def.CopyDir)
	}
	return dirs
}

// Prepare 校验参数并解析出组件列表，所有兼容性错误都在拉取镜像之前暴露。
func Prepare(opts Options) (Plan, error) {
	if !supportedArch(opts.Arch) {
		return Plan{}, fmt.Errorf("architecture %q is not supported (use amd64 or arm64)", opts.Arch)
	}
	tag, err := image.ParseAndroidTag(opts.Android)
	if err != nil {
		return Plan{}, err
	}

	var kinds []string
	if opts.Gapps != "" {
		kinds = append(kinds, opts.Gapps)
	}
	if opts.NDK {
		kinds = append(kinds, "ndk")
	}
	if opts.Widevine {
		kinds = append(kinds, "widevine")
	}

	plan := Plan{Tag: tag, Arch: opts.Arch}
	for i, kind := range kinds {
		def, ok := component.Resolve(kind)
		if !ok {
			return Plan{}, fmt.Errorf("unknown component %q", kind)
		}
		if i == 0 && opts.Gapps != "" && def.Group != component.GroupGapps {
			return Plan{}, fmt.Errorf("%q is not a GMS provider (choose one of %v)", kind, component.Kinds(component.GroupGapps))
		}
		if _, err := def.Check(opts.Arch, tag); err != nil {
			return Plan{}, err
		}
		plan.Components = append(plan.Components, def)
	}
	return plan, nil
}

// Run 执行完整流程并返回构建出的镜像标签。
func Run(ctx context.Context, opts Options) (string, error) {
	if opts.Builder == nil || opts.Installer == nil {
		return "", errors.New("pipeline requires a builder and an installer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	notice := opts.Notice
	if notice == nil {
		notice = io.Discard
	}

	plan, err := Prepare(opts)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()
	entry := logger.WithFields(logrus.Fields{"run_id": runID, "android": plan.Tag.Major, "arch": plan.Arch})
	if warning := plan.Tag.Warning(); warning != "" {
		entry.WithField("action", "android_lifecycle").Warn(warning)
	}

	platform := image.Platform(plan.Arch)
	baseRef := image.BaseRef(opts.Image, plan.Tag)
	fmt.Fprintf(notice, "Using %s %s revision %s as base image\n", platform, baseRef, plan.Tag.Revision)

	if err := opts.Builder.Pull(ctx, platform, baseRef); err != nil {
		return "", err
	}

	buildDir, err := os.MkdirTemp(opts.WorkRoot, "rds-build-")
	if err != nil {
		return "", fmt.Errorf("create build context: %w", err)
	}
	defer os.RemoveAll(buildDir)

	target := component.Target{BuildDir: buildDir, Android: plan.Tag, Arch: plan.Arch, RunID: runID}
	if err := installAll(ctx, opts.Installer, plan.Components, target); err != nil {
		return "", err
	}

	if _, err := image.WriteDockerfile(buildDir, baseRef, plan.CopyDirs()); err != nil {
		return "", err
	}

	patched := image.PatchedTag(opts.Image, plan.Tag, plan.CopyDirs())
	if err := opts.Builder.Build(ctx, platform, patched, buildDir); err != nil {
		return "", err
	}

	entry.WithFields(logrus.Fields{"action": "image_built", "tag": patched}).Info("image built")
	return patched, nil
}

// installAll 并发安装各组件；每个组件写入独立的 CopyDir，错误汇总后一并返回。
func installAll(ctx context.Context, installer ComponentInstaller, defs []component.Definition, target component.Target) error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
	)
	for _, def := range defs {
		wg.Add(1)
		go func(def component.Definition) {
			defer wg.Done()
			if err := installer.Install(ctx, def, target); err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
		}(def)
	}
	wg.Wait()
	return result.ErrorOrNil()
}

func supportedArch(arch string) bool {
	for _, a := range Architectures {
		if a == arch {
			return true
		}
	}
	return false
}
