//go:build unix

package cache

import (
	"os"

	"golang.org/x/sys/unix"
)

// checkAccess 使用 access(2) 检查当前进程对 path 的有效权限。
func checkAccess(path string, mode accessMode) error {
	var bits uint32
	if mode&accessRead != 0 {
		bits |= unix.R_OK
	}
	if mode&accessWrite != 0 {
		bits |= unix.W_OK
	}
	if mode&accessExec != 0 {
		bits |= unix.X_OK
	}
	if err := unix.Access(path, bits); err != nil {
		return &os.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}
