package component

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/redroid-script/rds/internal/image"
)

// Group 区分互斥的 GMS 提供方与可叠加的附加组件。
type Group string

const (
	GroupGapps Group = "gapps"
	GroupAddon Group = "addon"
)

// ExtractJob 是交给各组件解包函数的输入。
type ExtractJob struct {
	// Archive 是已校验的下载文件。
	Archive string
	// WorkDir 是可随意写入的临时目录，安装结束后删除。
	WorkDir string
	// CopyDir 是构建上下文中该组件的目录，对应 Dockerfile 中的 COPY <dir> /。
	CopyDir string
	Logger  *logrus.Entry
}

// Extractor 把下载文件解包为镜像根目录下的文件布局。
type Extractor func(ctx context.Context, job ExtractJob) error

// Definition 描述一种组件：兼容范围、构建上下文目录以及解包方式。
type Definition struct {
	Kind        string
	Description string
	CopyDir     string
	Group       Group
	// Constraint 是针对 Android 基础版本（如 13.0.0）的 semver 约束。
	Constraint string
	// Architectures 将 docker 架构（amd64/arm64）映射为下载源使用的 Android ABI 名称。
	Architectures map[string]string
	// Deprecated 非空时在安装前输出告警。
	Deprecated string
	Extract    Extractor
}

// Check 校验架构与 Android 版本，返回下载源使用的 ABI 名称。
func (d Definition) Check(arch string, tag image.AndroidTag) (string, error) {
	androidArch, ok := d.Architectures[arch]
	if !ok {
		return "", &UnsupportedError{
			Kind:   d.Kind,
			Reason: fmt.Sprintf("architecture %s is not supported (supported: %s)", arch, strings.Join(d.SupportedArchitectures(), ", ")),
		}
	}

	if d.Constraint != "" {
		constraint, err := semver.NewConstraint(d.Constraint)
		if err != nil {
			return "", fmt.Errorf("component %s: invalid constraint %q: %w", d.Kind, d.Constraint, err)
		}
		if !constraint.Check(tag.Version()) {
			return "", &UnsupportedError{
				Kind:   d.Kind,
				Reason: fmt.Sprintf("android %s does not satisfy %s", tag.Major, d.Constraint),
			}
		}
	}
	return androidArch, nil
}

// SupportedArchitectures 返回排序后的 docker 架构列表。
func (d Definition) SupportedArchitectures() []string {
	out := make([]string, 0, len(d.Architectures))
	for arch := range d.Architectures {
		out = append(out, arch)
	}
	sort.Strings(out)
	return out
}
