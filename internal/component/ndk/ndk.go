// Package ndk 注册 libndk ARM 翻译层，仅适用于 amd64 宿主上的 Android 11/12。
package ndk

import (
	"context"
	"path/filepath"

	"github.com/redroid-script/rds/internal/component"
)

const Kind = "ndk"

func init() {
	component.MustRegister(component.Definition{
		Kind:        Kind,
		Description: "libndk translation (run ARM apps on x86_64)",
		CopyDir:     Kind,
		Group:       component.GroupAddon,
		Constraint:  ">= 11, < 13",
		Architectures: map[string]string{
			"amd64": "x86_64",
		},
		Extract: extract,
	})
}

// extract 归档内只有一个顶层目录，其 prebuilts/ 对应镜像中的 /system。
func extract(_ context.Context, job component.ExtractJob) error {
	if err := component.ExtractZip(job.Archive, job.WorkDir); err != nil {
		return err
	}
	top, err := component.SoleEntry(job.WorkDir)
	if err != nil {
		return err
	}
	return component.CopyTree(filepath.Join(job.WorkDir, top, "prebuilts"), filepath.Join(job.CopyDir, "system"))
}
