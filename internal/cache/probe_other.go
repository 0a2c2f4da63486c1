//go:build !unix

package cache

import (
	"fmt"
	"os"
)

// checkAccess 在没有 access(2) 的平台上只检查路径存在且写权限位未被清除。
func checkAccess(path string, mode accessMode) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode&accessWrite != 0 && info.Mode().Perm()&0o200 == 0 {
		return fmt.Errorf("%s is not writable", path)
	}
	return nil
}

func readOnlyMount(string) (bool, error) {
	return false, nil
}
