package cache

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// cloneFile 使用 clonefile(2)（APFS）；目标已存在时先删除，因为 clonefile 不会覆盖。
func cloneFile(src, dst string, _ os.FileMode) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return unix.Clonefile(src, dst, unix.CLONE_NOFOLLOW)
}
