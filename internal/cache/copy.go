package cache

import (
	"fmt"
	"io"
	"os"
)

// copyFile 把缓存文件物化到 dst：优先使用写时复制克隆，不支持时退回字节复制。
// 两种方式都会保留权限位与修改时间。
func copyFile(src, dst string) (cloned bool, err error) {
	info, err := os.Stat(src)
	if err != nil {
		return false, err
	}

	if cloneErr := cloneFile(src, dst, info.Mode().Perm()); cloneErr == nil {
		cloned = true
	} else if err := byteCopy(src, dst, info.Mode().Perm()); err != nil {
		return false, err
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return cloned, fmt.Errorf("chmod %s: %w", dst, err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return cloned, fmt.Errorf("chtimes %s: %w", dst, err)
	}
	return cloned, nil
}

func byteCopy(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
