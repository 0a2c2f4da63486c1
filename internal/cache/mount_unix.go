//go:build unix && !linux && !darwin

package cache

// readOnlyMount 在其余 unix 平台上不探测挂载标志，写入失败时由 access(2) 或 mkdir 暴露。
func readOnlyMount(string) (bool, error) {
	return false, nil
}
