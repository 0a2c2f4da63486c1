package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/redroid-script/rds/internal/cache"
	"github.com/redroid-script/rds/internal/component"
	_ "github.com/redroid-script/rds/internal/component/all"
	"github.com/redroid-script/rds/internal/config"
	"github.com/redroid-script/rds/internal/fetch"
	"github.com/redroid-script/rds/internal/image"
	"github.com/redroid-script/rds/internal/logging"
	"github.com/redroid-script/rds/internal/pipeline"
	"github.com/redroid-script/rds/internal/version"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	defaultAndroidVersion = "16.0.0_64only-latest"
	configEnv             = "RDS_CONFIG"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath string
	cacheDir   string
	noProgress bool
	verbose    bool

	redroidImage string
	android      string
	arch         string
	gapps        string
	ndk          bool
	widevine     bool
}

// cacheFetchOptions 对应 `rds cache fetch` 的参数。
type cacheFetchOptions struct {
	url        string
	checksum   string
	outputDir  string
	readOnly   bool
	skipVerify bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

// usageError 标记参数错误，对应退出码 2。
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute 构建命令树并执行，返回退出码，方便测试。
func execute(ctx context.Context, args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdOut)
	root.SetErr(stdErr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stdErr, "rds: %v\n", err)
		var usage usageError
		if errors.As(err, &usage) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{configPath: os.Getenv(configEnv)}

	root := &cobra.Command{
		Use:           "rds",
		Short:         "Build redroid images with GMS, ndk translation and widevine baked in",
		Version:       version.Full(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("redroid-image") {
				opts.redroidImage = ""
			}
			return runBuild(cmd.Context(), opts)
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	persistent := root.PersistentFlags()
	persistent.StringVar(&opts.configPath, "config", opts.configPath, "配置文件路径（可被 "+configEnv+" 指定）")
	persistent.StringVar(&opts.cacheDir, "cache-dir", "", "下载缓存目录（默认使用用户缓存目录下的 rds）")
	persistent.BoolVar(&opts.noProgress, "no-progress", false, "不显示下载进度条")
	persistent.BoolVarP(&opts.verbose, "verbose", "v", false, "输出 debug 级别日志")

	flags := root.Flags()
	flags.StringVar(&opts.redroidImage, "redroid-image", "docker.io/redroid/redroid", "redroid 基础镜像仓库")
	flags.StringVar(&opts.android, "android-version", defaultAndroidVersion, "redroid 镜像 tag，例如 13.0.0_64only-latest")
	flags.StringVar(&opts.arch, "architecture", hostArchitecture(), "目标架构 (amd64|arm64)")
	flags.StringVar(&opts.gapps, "gapps", "", "GMS 提供方 ("+joinKinds(component.GroupGapps)+")")
	flags.BoolVarP(&opts.ndk, "install-ndk-translation", "n", false, "安装 libndk_translation（仅 amd64）")
	flags.BoolVarP(&opts.widevine, "install-widevine", "w", false, "安装 widevine DRM")

	root.AddCommand(newCacheCommand(&opts), newComponentsCommand(), newVersionCommand())
	return root
}

func newCacheCommand(opts *cliOptions) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and use the verified download cache",
	}

	var fetchOpts cacheFetchOptions
	fetchCmd := &cobra.Command{
		Use:   "fetch <url> <checksum> <out-dir>",
		Short: "Deliver a verified copy of url into out-dir, using the cache when possible",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(3)(cmd, args); err != nil {
				return usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fetchOpts.url, fetchOpts.checksum, fetchOpts.outputDir = args[0], args[1], args[2]
			return runCacheFetch(cmd.Context(), *opts, fetchOpts)
		},
	}
	fetchCmd.Flags().BoolVar(&fetchOpts.readOnly, "read-only", false, "只读取缓存，不访问网络也不写入缓存")
	fetchCmd.Flags().BoolVar(&fetchOpts.skipVerify, "skip-verify", false, "信任已有缓存条目，不重新计算摘要")

	dirCmd := &cobra.Command{
		Use:   "dir",
		Short: "Print the cache root directory",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			root, err := resolveCacheDir(*opts, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdOut, root)
			return nil
		},
	}

	cacheCmd.AddCommand(fetchCmd, dirCmd)
	return cacheCmd
}

func newComponentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List installable components",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, def := range component.List() {
				line := fmt.Sprintf("%-14s %-6s %s", def.Kind, def.Group, def.Description)
				if def.Deprecated != "" {
					line += " (deprecated)"
				}
				fmt.Fprintln(stdOut, line)
			}
			return nil
		},
	}
}

// app 持有一次运行共享的配置、日志与缓存管理器。
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	manager *cache.Manager
}

// bootstrap 按“配置 → 日志 → Fetcher → 缓存”的顺序初始化运行环境。
func bootstrap(opts cliOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	root, err := resolveCacheDir(opts, cfg)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.Options{
		Client:         fetch.NewHTTPClient(cfg.Global.FetchTimeout.DurationValue()),
		Logger:         logger,
		MaxRetries:     cfg.Global.MaxRetries,
		InitialBackoff: cfg.Global.InitialBackoff.DurationValue(),
		Progress:       progressWriter(cfg, opts),
	})

	fields := logging.BaseFields("startup", opts.configPath)
	fields["cache_dir"] = root
	fields["sources"] = len(cfg.Sources)
	fields["version"] = version.Full()
	logger.WithFields(fields).Debug("配置加载完成")

	return &app{
		cfg:     cfg,
		logger:  logger,
		manager: cache.NewManager(root, fetcher, logger),
	}, nil
}

// runBuild 执行默认的镜像定制流程，stdout 只输出最终标签。
func runBuild(ctx context.Context, opts cliOptions) error {
	a, err := bootstrap(opts)
	if err != nil {
		return err
	}

	catalog, err := component.LoadCatalog(a.cfg.Sources)
	if err != nil {
		return err
	}
	builder, err := image.NewBuilder(a.cfg.Global.PullCommand, a.cfg.Global.BuildCommand, stdErr, a.logger)
	if err != nil {
		return err
	}

	redroidImage := opts.redroidImage
	if redroidImage == "" {
		redroidImage = a.cfg.Global.RedroidImage
	}

	tag, err := pipeline.Run(ctx, pipeline.Options{
		Image:    redroidImage,
		Android:  opts.android,
		Arch:     opts.arch,
		Gapps:    opts.gapps,
		NDK:      opts.ndk,
		Widevine: opts.widevine,
		Builder:  builder,
		Installer: &component.Installer{
			Fetcher: a.manager,
			Catalog: catalog,
			Logger:  a.logger,
		},
		Logger: a.logger,
		Notice: stdErr,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdOut, tag)
	return nil
}

// runCacheFetch 直接暴露缓存管理器：把校验过的文件放入 out-dir 并打印文件名。
func runCacheFetch(ctx context.Context, opts cliOptions, fetchOpts cacheFetchOptions) error {
	a, err := bootstrap(opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fetchOpts.outputDir, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	name, err := a.manager.FetchCached(ctx, cache.Request{
		URL:        fetchOpts.url,
		Checksum:   fetchOpts.checksum,
		OutputDir:  fetchOpts.outputDir,
		ReadOnly:   fetchOpts.readOnly,
		SkipVerify: fetchOpts.skipVerify,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdOut, name)
	return nil
}

// selectedComponents 返回本次构建需要下载的组件数量。
func (o cliOptions) selectedComponents() int {
	n := 0
	if o.gapps != "" {
		n++
	}
	if o.ndk {
		n++
	}
	if o.widevine {
		n++
	}
	return n
}

// progressWriter 决定进度条输出位置。多个组件并发下载时各自的进度条会在同一终端上互相覆盖，此时关闭进度条。
func progressWriter(cfg *config.Config, opts cliOptions) io.Writer {
	if !cfg.Global.Progress || opts.noProgress || opts.selectedComponents() > 1 {
		return nil
	}
	return stdErr
}

// resolveCacheDir 的优先级：--cache-dir > 配置 CacheDir > 用户缓存目录。
func resolveCacheDir(opts cliOptions, cfg *config.Config) (string, error) {
	if opts.cacheDir != "" {
		return opts.cacheDir, nil
	}
	if cfg.Global.CacheDir != "" {
		return cfg.Global.CacheDir, nil
	}
	return cache.DefaultRoot()
}

func hostArchitecture() string {
	switch runtime.GOARCH {
	case "arm64":
		return "arm64"
	default:
		return "amd64"
	}
}
