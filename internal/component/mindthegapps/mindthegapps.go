// Package mindthegapps 注册 MindTheGapps GMS 提供方，推荐用于 Android 12 及以上。
package mindthegapps

import (
	"context"
	"path/filepath"

	"github.com/redroid-script/rds/internal/component"
)

// Kind 是命令行与配置中使用的组件名，同时作为构建上下文目录名。
const Kind = "mindthegapps"

func init() {
	component.MustRegister(component.Definition{
		Kind:        Kind,
		Description: "MindTheGapps GMS package (recommended for stability)",
		CopyDir:     Kind,
		Group:       component.GroupGapps,
		Constraint:  ">= 12",
		Architectures: map[string]string{
			"amd64": "x86_64",
			"arm64": "arm64",
		},
		Extract: extract,
	})
}

// extract 解包后只保留 system/，合并到 <copy>/system。
func extract(_ context.Context, job component.ExtractJob) error {
	if err := component.ExtractZip(job.Archive, job.WorkDir); err != nil {
		return err
	}
	return component.CopyTree(filepath.Join(job.WorkDir, "system"), filepath.Join(job.CopyDir, "system"))
}
