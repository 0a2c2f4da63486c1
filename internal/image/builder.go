package image

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jmgilman/go/exec"
	"github.com/mattn/go-shellwords"
	"github.com/sirupsen/logrus"

	"github.com/redroid-script/rds/internal/logging"
)

// Builder 调用外部容器工具完成镜像拉取与构建，命令行由配置中的字符串拆分而来。
type Builder struct {
	pull   []string
	build  []string
	base   exec.Executor
	logger *logrus.Logger
}

// NewBuilder 解析 pull/build 命令（例如 "docker image pull"、"podman build"），
// 子进程的 stdout/stderr 都转发到 out，避免污染只输出最终标签的 stdout。
func NewBuilder(pullCommand, buildCommand string, out io.Writer, logger *logrus.Logger) (*Builder, error) {
	pull, err := splitCommand("pull", pullCommand)
	if err != nil {
		return nil, err
	}
	build, err := splitCommand("build", buildCommand)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &Builder{
		pull:  pull,
		build: build,
		base: exec.New(
			exec.WithInheritEnv(),
			exec.WithStdout(out),
			exec.WithStderr(out),
			exec.WithPassthrough(),
		),
		logger: logger,
	}, nil
}

func splitCommand(name, command string) ([]string, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse %s command %q: %w", name, command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%s command is empty", name)
	}
	return args, nil
}

// Pull 拉取指定平台的基础镜像。
func (b *Builder) Pull(ctx context.Context, platform, ref string) error {
	return b.run(ctx, "image_pull", b.pull, "--platform="+platform, ref)
}

// Build 以 contextDir 为构建上下文生成 tag。
func (b *Builder) Build(ctx context.Context, platform, tag, contextDir string) error {
	return b.run(ctx, "image_build", b.build, "--platform="+platform, "-t", tag, contextDir)
}

func (b *Builder) run(ctx context.Context, action string, command []string, extra ...string) error {
	args := append(append([]string{}, command...), extra...)
	b.logger.WithFields(logrus.Fields{"action": action, "command": args}).Info("running container tool")

	if _, err := b.base.Clone().WithContext(ctx).Run(args...); err != nil {
		var execErr *exec.ExecError
		if errors.As(err, &execErr) {
			return fmt.Errorf("%s: %s exited with code %d: %w", action, args[0], execErr.ExitCode, err)
		}
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}
