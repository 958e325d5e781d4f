package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Fpublisher/internal/app"
	"Fpublisher/internal/config"
	"Fpublisher/internal/database"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/scheduler"
	"Fpublisher/internal/service"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the task scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := config.Config
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := database.Open(cfg.DbPath, cfg.DebugMode)
			if err != nil {
				return err
			}

			router, err := newMediaRouter(ctx)
			if err != nil {
				return err
			}

			pool := browser.NewPoolFromConfig()
			defer pool.Close()

			registry := platform.DefaultRegistry()
			publisher := service.NewPublishService(db, &service.BrowserSessions{Pool: pool}, registry, router)
			publisher.Location = cfg.Location
			publisher.RunTimeout = cfg.RunTimeout
			publisher.Screenshots = true

			sched := scheduler.NewScheduler(db, publisher, cfg.Workers, cfg.ScheduleSpec, cfg.Location)
			sched.SetObserver(func(e types.Event) {
				if changed, ok := e.(types.TaskStatusChangedEvent); ok {
					utils.Debug(fmt.Sprintf("任务 %s: %s -> %s", changed.TaskID, changed.OldStatus, changed.NewStatus))
				}
			})
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			server := app.NewServer(
				service.NewTaskService(db, registry, cfg.Location),
				service.NewFileService(db),
				logs,
				registry,
				sched,
				cfg.Location,
			)
			server.SetPoolStats(pool.GetStats)
			return server.ListenAndServe(ctx, cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides FPUBLISHER_ADDR")
	return cmd
}
