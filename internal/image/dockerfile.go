package image

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DockerfileName 是写入构建上下文的文件名。
const DockerfileName = "Dockerfile"

// PatchedModifier 始终位于标签修饰列表首位。
const PatchedModifier = "patched"

// Platform 返回 docker 的 --platform 取值。
func Platform(arch string) string {
	return "linux/" + arch
}

// BaseRef 组合基础镜像引用，例如 docker.io/redroid/redroid:16.0.0_64only-latest。
func BaseRef(image string, tag AndroidTag) string {
	return image + ":" + tag.Raw
}

// PatchedTag 返回 <image>:<major>_patched_<copydirs...>-<revision>。
func PatchedTag(image string, tag AndroidTag, copyDirs []string) string {
	modifiers := append([]string{PatchedModifier}, copyDirs...)
	return fmt.Sprintf("%s:%s_%s-%s", image, tag.Major, strings.Join(modifiers, "_"), tag.Revision)
}

// RenderDockerfile 生成 FROM + 每个组件一行 COPY 的内容，始终使用 LF 换行。
func RenderDockerfile(baseRef string, copyDirs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n", baseRef)
	for _, dir := range copyDirs {
		fmt.Fprintf(&b, "COPY %s /\n", dir)
	}
	return b.String()
}

// WriteDockerfile 将 Dockerfile 写入构建上下文目录并返回其路径。
func WriteDockerfile(contextDir, baseRef string, copyDirs []string) (string, error) {
	path := filepath.Join(contextDir, DockerfileName)
	if err := os.WriteFile(path, []byte(RenderDockerfile(baseRef, copyDirs)), 0o644); err != nil {
		return "", fmt.Errorf("write dockerfile: %w", err)
	}
	return path, nil
}
