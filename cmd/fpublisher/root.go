package main

import (
	"context"
	"fmt"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform/media"
	"Fpublisher/internal/service"
	"Fpublisher/internal/utils"

	"github.com/spf13/cobra"
)

var debugFlag bool

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fpublisher",
		Short: "Drive platform publish pages with a browser",
		Long: "fpublisher fills the native video publish form of netease, sohu, alipay, pinduoduo, " +
			"vivovideo, yiche and yidian from a SyncData payload, step by step.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	cmd.AddCommand(newPublishCommand())
	cmd.AddCommand(newPlatformsCommand())
	cmd.AddCommand(newServeCommand())

	return cmd
}

// setup 初始化配置和日志，返回的清理函数需在退出前调用
func setup() (*service.LogService, func(), error) {
	if err := config.Init(); err != nil {
		return nil, nil, fmt.Errorf("init config: %w", err)
	}
	if debugFlag {
		config.Config.DebugMode = true
	}
	if err := utils.InitLogger(); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	utils.SetDebug(config.Config.DebugMode)

	logs := service.NewLogService()
	utils.SetLogService(logs)

	cleanup := func() {
		logs.Close()
		utils.CloseLogger()
	}
	return logs, cleanup, nil
}

// newMediaRouter http/https/file 之外，配置了对象存储时追加 s3
func newMediaRouter(ctx context.Context) (*media.Router, error) {
	cfg := config.Config
	router := media.NewRouter(cfg.HTTPTimeout)
	if cfg.S3Endpoint == "" && cfg.S3AccessKey == "" {
		return router, nil
	}

	s3, err := media.NewS3FetcherFromConfig(ctx, media.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}
	router.Handle("s3", s3)
	return router, nil
}
