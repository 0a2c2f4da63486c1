package image

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Feature64Only 标记只运行 64 位二进制的 redroid 镜像。
const Feature64Only = "64only"

// Lifecycle 描述某个 Android 版本在 redroid 上的维护状态。
type Lifecycle int

const (
	LifecycleSupported Lifecycle = iota
	// LifecycleMixedMode 表示受支持的版本但镜像为 32/64 位混合模式。
	LifecycleMixedMode
	// LifecycleLegacy 表示 9/10/11，已不再获得安全更新。
	LifecycleLegacy
)

var majorsBySeries = map[int][]string{
	9:  {"9.0.0", "9.0.0_r220830", "9.0.0_r220709", "9.0.0_r220514", "9.0.0_r220107"},
	10: {"10.0.0", "10.0.0_r220830", "10.0.0_r220709", "10.0.0_r220514", "10.0.0_r220107", "10.0.0_r210930"},
	11: {"11.0.0_r220830", "11.0.0_r221023", "11.0.0"},
	12: {"12.0.0", "12.0.0_64only", "12.0.0_64only_r220830"},
	13: {"13.0.0", "13.0.0_64only", "13.0.0_r220830", "13.0.0_r220817"},
	14: {"14.0.0", "14.0.0_64only"},
	15: {"15.0.0", "15.0.0_64only"},
	16: {"16.0.0", "16.0.0_64only"},
}

const lastLegacySeries = 11

var knownMajors = func() map[string]int {
	out := make(map[string]int)
	for series, majors := range majorsBySeries {
		for _, major := range majors {
			out[major] = series
		}
	}
	return out
}()

// KnownMajors 返回排序后的全部受识别 Android major 标签。
func KnownMajors() []string {
	out := make([]string, 0, len(knownMajors))
	for major := range knownMajors {
		out = append(out, major)
	}
	sort.Strings(out)
	return out
}

// AndroidTag is a parsed redroid image tag such as "16.0.0_64only-latest".
type AndroidTag struct {
	Raw      string
	Major    string
	Base     string
	Features []string
	Revision string
	Series   int
}

// ParseAndroidTag 拆分 "<major>-<revision>"，并要求 major 出现在已知版本表中。
func ParseAndroidTag(raw string) (AndroidTag, error) {
	raw = strings.TrimSpace(raw)
	major, revision, ok := strings.Cut(raw, "-")
	if !ok || major == "" || revision == "" || strings.Contains(revision, "-") {
		return AndroidTag{}, fmt.Errorf("android version %q must look like <major>-<revision>", raw)
	}

	series, known := knownMajors[major]
	if !known {
		return AndroidTag{}, fmt.Errorf("android version %q is not supported", major)
	}

	parts := strings.Split(major, "_")
	return AndroidTag{
		Raw:      raw,
		Major:    major,
		Base:     parts[0],
		Features: parts[1:],
		Revision: revision,
		Series:   series,
	}, nil
}

// HasFeature 判断 major 是否带有指定的下划线特性段。
func (t AndroidTag) HasFeature(feature string) bool {
	for _, f := range t.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Lifecycle 返回版本的维护状态。
func (t AndroidTag) Lifecycle() Lifecycle {
	switch {
	case t.Series <= lastLegacySeries:
		return LifecycleLegacy
	case !t.HasFeature(Feature64Only):
		return LifecycleMixedMode
	default:
		return LifecycleSupported
	}
}

// Warning 返回需要提示给用户的弃用信息，受支持的版本返回空串。
func (t AndroidTag) Warning() string {
	switch t.Lifecycle() {
	case LifecycleLegacy:
		return "the requested Android version is legacy and no longer receives security updates, please update ASAP"
	case LifecycleMixedMode:
		return "images running in mixed mode (32-bit and 64-bit binaries) are unsupported, please move to a 64only image ASAP"
	default:
		return ""
	}
}

// Version 返回 Base 对应的语义化版本，供组件兼容性约束使用。
func (t AndroidTag) Version() *semver.Version {
	return semver.MustParse(t.Base)
}
