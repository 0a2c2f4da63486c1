// Package opengapps 注册 OpenGApps (pico) GMS 提供方，仅支持 Android 11 及以下。
package opengapps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmgilman/go/exec"

	"github.com/redroid-script/rds/internal/component"
)

const Kind = "opengapps"

// nonAPKPackages 只包含配置文件，解包后复制 <app>/common/* 到 system/。
var nonAPKPackages = map[string]struct{}{
	"defaultetc-common.tar.lz":        {},
	"defaultframework-common.tar.lz":  {},
	"googlepixelconfig-common.tar.lz": {},
	"vending-common.tar.lz":           {},
}

// skippedPackages 中的开机向导会阻塞 redroid 启动。
var skippedPackages = map[string]struct{}{
	"setupwizarddefault-x86_64.tar.lz": {},
	"setupwizardtablet-x86_64.tar.lz":  {},
}

// TarCommand 是解压 .tar.lz 使用的命令，测试中可替换。
var TarCommand = []string{"tar", "--lzip", "-xf"}

func init() {
	component.MustRegister(component.Definition{
		Kind:        Kind,
		Description: "OpenGApps pico (Android 11 and older)",
		CopyDir:     Kind,
		Group:       component.GroupGapps,
		Constraint:  "<= 11",
		Architectures: map[string]string{
			"amd64": "x86_64",
			"arm64": "arm64-v8a",
		},
		Extract: extract,
	})
}

func extract(ctx context.Context, job component.ExtractJob) error {
	unpacked := filepath.Join(job.WorkDir, "zip")
	if err := component.ExtractZip(job.Archive, unpacked); err != nil {
		return err
	}

	packages, err := component.SortedEntries(filepath.Join(unpacked, "Core"))
	if err != nil {
		return fmt.Errorf("list Core packages: %w", err)
	}

	for _, pkg := range packages {
		if _, skip := skippedPackages[pkg]; skip || !strings.HasSuffix(pkg, ".tar.lz") {
			continue
		}

		appDir := filepath.Join(job.WorkDir, "appunpack", strings.TrimSuffix(pkg, ".tar.lz"))
		if err := os.MkdirAll(appDir, 0o755); err != nil {
			return err
		}
		if err := untarLzip(ctx, filepath.Join(unpacked, "Core", pkg), appDir); err != nil {
			return err
		}

		if _, ok := nonAPKPackages[pkg]; ok {
			err = installCommon(appDir, job.CopyDir)
		} else {
			err = installPrivApp(appDir, job.CopyDir)
		}
		if err != nil {
			return fmt.Errorf("install %s: %w", pkg, err)
		}
		job.Logger.WithField("package", pkg).Debug("opengapps package installed")
	}
	return nil
}

func untarLzip(ctx context.Context, archive, dest string) error {
	args := append(append([]string{}, TarCommand...), archive, "-C", dest)
	if _, err := exec.New(exec.WithInheritEnv()).WithContext(ctx).Run(args...); err != nil {
		return fmt.Errorf("unpack %s: %w", filepath.Base(archive), err)
	}
	return nil
}

// installPrivApp 处理 <app>/<dpi>/<priv-app>/<Name>/ 布局，复制到 system/priv-app/<Name>。
func installPrivApp(appDir, copyDir string) error {
	app, err := component.SoleEntry(appDir)
	if err != nil {
		return err
	}
	dpiDirs, err := component.SortedEntries(filepath.Join(appDir, app))
	if err != nil {
		return err
	}
	if len(dpiDirs) == 0 {
		return fmt.Errorf("%s has no density directory", app)
	}
	dpi := filepath.Join(appDir, app, dpiDirs[0])

	privDirs, err := component.SortedEntries(dpi)
	if err != nil {
		return err
	}
	if len(privDirs) == 0 {
		return fmt.Errorf("%s has no app directory", dpi)
	}
	src := filepath.Join(dpi, privDirs[0])

	apps, err := component.SortedEntries(src)
	if err != nil {
		return err
	}
	for _, name := range apps {
		if err := component.CopyTree(filepath.Join(src, name), filepath.Join(copyDir, "system", "priv-app", name)); err != nil {
			return err
		}
	}
	return nil
}

// installCommon 复制 <app>/common/* 到 system/。
func installCommon(appDir, copyDir string) error {
	app, err := component.SoleEntry(appDir)
	if err != nil {
		return err
	}
	common := filepath.Join(appDir, app, "common")
	dirs, err := component.SortedEntries(common)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := component.CopyTree(filepath.Join(common, dir), filepath.Join(copyDir, "system", dir)); err != nil {
			return err
		}
	}
	return nil
}
