package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrpremium/go-storefront-service/internal/config"
)

// rootOptions 全局参数
type rootOptions struct {
	logLevel  string
	logFormat string
}

// Execute 执行命令行，出错时退出
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCommand(opts)

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront API server",
		Long: `Storefront API server for a small digital-goods shop.

Serves the product catalog with sanitized descriptions, checkout and
order receipts, and the admin console API. Without a subcommand it
starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve.RunE(cmd, args)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: json)")

	root.AddCommand(serve)
	root.AddCommand(newSanitizeCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// loadConfig 加载配置，命令行参数覆盖环境变量
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	return cfg, nil
}
