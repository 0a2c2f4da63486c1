// Package widevine 注册 Widevine L3 DRM 模块。
package widevine

import (
	"context"
	"path/filepath"

	"github.com/redroid-script/rds/internal/component"
)

const Kind = "widevine"

func init() {
	component.MustRegister(component.Definition{
		Kind:        Kind,
		Description: "Widevine DRM (L3)",
		CopyDir:     Kind,
		Group:       component.GroupAddon,
		Constraint:  ">= 9",
		Architectures: map[string]string{
			"amd64": "x86_64",
			"arm64": "arm64",
		},
		Extract: extract,
	})
}

func extract(_ context.Context, job component.ExtractJob) error {
	if err := component.ExtractZip(job.Archive, job.WorkDir); err != nil {
		return err
	}
	top, err := component.SoleEntry(job.WorkDir)
	if err != nil {
		return err
	}
	return component.CopyTree(filepath.Join(job.WorkDir, top, "prebuilts"), filepath.Join(job.CopyDir, "vendor"))
}
