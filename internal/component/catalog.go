package component

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"

	"github.com/spf13/viper"

	"github.com/redroid-script/rds/internal/config"
)

// AnyAndroid 作为 Android 字段时匹配所有版本。
const AnyAndroid = "*"

//go:embed catalog.toml
var builtinCatalog []byte

// Source 是某个组件在特定 Android 版本与 ABI 下的下载地址和摘要。
type Source = config.SourceConfig

// Catalog 以 kind/android/arch 为键保存下载源。
type Catalog struct {
	sources map[string]Source
}

// NewCatalog 构建目录；后出现的同键条目覆盖先前的条目。
func NewCatalog(sources ...[]Source) *Catalog {
	c := &Catalog{sources: make(map[string]Source)}
	for _, list := range sources {
		c.Merge(list)
	}
	return c
}

// LoadCatalog 读取内置目录，再叠加用户配置中的 [[Source]]（已由 config.Validate 规范化）。
func LoadCatalog(overrides []Source) (*Catalog, error) {
	builtin, err := parseCatalog(builtinCatalog)
	if err != nil {
		return nil, fmt.Errorf("load builtin catalog: %w", err)
	}
	return NewCatalog(builtin, overrides), nil
}

func parseCatalog(data []byte) ([]Source, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	var doc struct {
		Sources []Source `mapstructure:"Source"`
	}
	if err := v.Unmarshal(&doc); err != nil {
		return nil, err
	}
	if err := config.ValidateSources(doc.Sources); err != nil {
		return nil, err
	}
	return doc.Sources, nil
}

// Merge 写入或覆盖下载源。
func (c *Catalog) Merge(sources []Source) {
	for _, src := range sources {
		c.sources[src.Key()] = src
	}
}

// Lookup 先按精确的 Android 基础版本查找，再退回通配条目。
func (c *Catalog) Lookup(kind, android, arch string) (Source, bool) {
	kind = normalizeKind(kind)
	if src, ok := c.sources[Source{Kind: kind, Android: android, Arch: arch}.Key()]; ok {
		return src, true
	}
	src, ok := c.sources[Source{Kind: kind, Android: AnyAndroid, Arch: arch}.Key()]
	return src, ok
}

// List 返回按键排序的全部下载源。
func (c *Catalog) List() []Source {
	keys := make([]string, 0, len(c.sources))
	for key := range c.sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Source, 0, len(keys))
	for _, key := range keys {
		out = append(out, c.sources[key])
	}
	return out
}
