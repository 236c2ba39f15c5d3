// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/sharesmallbiz/pkg/app"
	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage"
)

var (
	// configPath 配置文件或所在目录.
	configPath string
	// debug 输出更多调试信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:           "sharesmallbiz",
		Short:         "ShareSmallBiz community portal server",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       configs.AppVersion,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print debug output")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerKeywordCommands()
	registerTokenCommands()
	registerJobCommands()
}

// Execute runs the root command. SIGINT/SIGTERM 会取消命令的 context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig 只加载配置，不连接任何存储.
func loadConfig() (*configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, err
	}

	return configs.GetConfig(), nil
}

// withServices 初始化存储与服务后执行 fn，结束后释放连接.
func withServices(ctx context.Context, fn func(*configs.AppConfig, *storage.Manager, *service.Services) error) error {
	config, manager, err := app.Bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer manager.Close()

	return fn(config, manager, app.NewServices(config, manager))
}
