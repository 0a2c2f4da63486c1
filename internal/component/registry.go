package component

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var globalRegistry = newRegistry()

type registry struct {
	mu    sync.RWMutex
	kinds map[string]Definition
}

func newRegistry() *registry {
	return &registry{kinds: make(map[string]Definition)}
}

// Register 将组件定义加入全局注册表，重复或不完整的定义会返回错误。
func Register(def Definition) error {
	return globalRegistry.register(def)
}

// MustRegister 在注册失败时 panic，适合组件 init() 中调用。
func MustRegister(def Definition) {
	if err := Register(def); err != nil {
		panic(err)
	}
}

// Resolve 返回指定 kind 的组件定义，大小写不敏感。
func Resolve(kind string) (Definition, bool) {
	return globalRegistry.resolve(kind)
}

// List 返回按 kind 排序的组件定义。
func List() []Definition {
	return globalRegistry.list()
}

// Kinds 返回指定分组（为空表示全部）的 kind 列表，用于 CLI 帮助与校验。
func Kinds(group Group) []string {
	var out []string
	for _, def := range List() {
		if group == "" || def.Group == group {
			out = append(out, def.Kind)
		}
	}
	return out
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

func (r *registry) register(def Definition) error {
	kind := normalizeKind(def.Kind)
	if kind == "" {
		return fmt.Errorf("component kind is required")
	}
	if def.CopyDir == "" {
		return fmt.Errorf("component %s: copy dir is required", kind)
	}
	if def.Extract == nil {
		return fmt.Errorf("component %s: extractor is required", kind)
	}
	if len(def.Architectures) == 0 {
		return fmt.Errorf("component %s: at least one architecture is required", kind)
	}
	def.Kind = kind

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[kind]; exists {
		return fmt.Errorf("component %s already registered", kind)
	}
	r.kinds[kind] = def
	return nil
}

func (r *registry) resolve(kind string) (Definition, bool) {
	normalized := normalizeKind(kind)
	if normalized == "" {
		return Definition{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.kinds[normalized]
	return def, ok
}

func (r *registry) list() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.kinds))
	for key := range r.kinds {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Definition, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.kinds[key])
	}
	return result
}
