// Package litegapps 注册 LiteGapps GMS 提供方。
package litegapps

import (
	"context"
	"path/filepath"

	"github.com/redroid-script/rds/internal/component"
)

const Kind = "litegapps"

func init() {
	component.MustRegister(component.Definition{
		Kind:        Kind,
		Description: "LiteGapps GMS package",
		CopyDir:     Kind,
		Group:       component.GroupGapps,
		Constraint:  ">= 9",
		Architectures: map[string]string{
			"amd64": "x86_64",
			"arm64": "arm64",
		},
		Deprecated: "litegapps is deprecated as it has no documentation available",
		Extract:    extract,
	})
}

func extract(_ context.Context, job component.ExtractJob) error {
	if err := component.ExtractZip(job.Archive, job.WorkDir); err != nil {
		return err
	}
	return component.CopyTree(filepath.Join(job.WorkDir, "system"), filepath.Join(job.CopyDir, "system"))
}
