package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/platform/pipeline"
	"Fpublisher/internal/service"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"

	"github.com/spf13/cobra"
)

type publishOptions struct {
	platform       string
	payloadPath    string
	url            string
	coverFromVideo bool
	coverAt        time.Duration
	jsonOutput     bool
}

func newPublishCommand() *cobra.Command {
	opts := &publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Fill one platform's publish page from a payload file",
		Args:  cobra.NoArgs,
		Example: `  fpublisher publish --platform sohu --payload ./sync.json
  fpublisher publish --platform yidian --payload ./sync.json --url "https://mp.yidianzixun.com/#/Writing/videoEditor"
  cat sync.json | fpublisher publish --platform netease --payload -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "", "Target platform (see `fpublisher platforms`)")
	cmd.Flags().StringVar(&opts.payloadPath, "payload", "", "SyncData payload JSON file, - for stdin")
	cmd.Flags().StringVar(&opts.url, "url", "", "Publish page URL, defaults to the platform's page")
	cmd.Flags().BoolVar(&opts.coverFromVideo, "cover-from-video", false, "Extract a cover frame with ffmpeg when the payload has none")
	cmd.Flags().DurationVar(&opts.coverAt, "cover-at", time.Second, "Frame offset used by --cover-from-video")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the report as JSON")
	cmd.Flags().SortFlags = false
	_ = cmd.MarkFlagRequired("platform")
	_ = cmd.MarkFlagRequired("payload")

	return cmd
}

func runPublish(cmd *cobra.Command, opts *publishOptions) error {
	data, err := readPayload(cmd.InOrStdin(), opts.payloadPath)
	if err != nil {
		return err
	}

	_, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	payload, err := types.ParsePayload(data, config.Config.Location)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.coverFromVideo && payload.Cover == nil {
		if err := attachVideoCover(ctx, payload, opts.coverAt); err != nil {
			utils.Warn(fmt.Sprintf("抽取封面失败，继续发布: %v", err))
		}
	}

	router, err := newMediaRouter(ctx)
	if err != nil {
		return err
	}

	pool := browser.NewPoolFromConfig()
	defer pool.Close()

	svc := service.NewPublishService(nil, &service.BrowserSessions{Pool: pool}, platform.DefaultRegistry(), router)
	svc.Location = config.Config.Location
	svc.RunTimeout = config.Config.RunTimeout
	svc.Screenshots = true

	report, err := svc.PublishPage(ctx, "", opts.platform, opts.url, payload)
	if err != nil {
		return err
	}

	if err := printReport(cmd.OutOrStdout(), report, opts.jsonOutput); err != nil {
		return err
	}
	if report.State != pipeline.StateCompleted {
		return fmt.Errorf("%s 发布中止于 %s: %s", report.Platform, report.AbortedAt, report.Reason)
	}
	return nil
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

// attachVideoCover 仅支持本地视频，远程视频不为抽帧单独下载
func attachVideoCover(ctx context.Context, payload *types.ContentPayload, at time.Duration) error {
	path, ok := localVideoPath(payload.Video)
	if !ok {
		return fmt.Errorf("视频不是本地文件")
	}
	cover, err := utils.ExtractCover(ctx, path, config.Config.ThumbnailPath, at)
	if err != nil {
		return err
	}
	payload.Cover = &types.MediaRef{FileName: cover.Name, MimeType: cover.MimeType, Inline: cover}
	return nil
}

func localVideoPath(ref *types.MediaRef) (string, bool) {
	if ref == nil || ref.Inline != nil || ref.SourceURL == "" {
		return "", false
	}
	if strings.HasPrefix(ref.SourceURL, "file:") {
		u, err := url.Parse(ref.SourceURL)
		if err != nil {
			return "", false
		}
		if u.Path != "" {
			return u.Path, true
		}
		return u.Opaque, u.Opaque != ""
	}
	if strings.Contains(ref.SourceURL, "://") {
		return "", false
	}
	if _, err := os.Stat(ref.SourceURL); err != nil {
		return "", false
	}
	return ref.SourceURL, true
}

func printReport(out io.Writer, report *pipeline.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "%s run %s: %s\n", report.Platform, report.RunID, report.State)
	for _, step := range report.Steps {
		line := fmt.Sprintf("  %-16s %-8s %s", step.Step, step.Outcome, step.Duration.Round(time.Millisecond))
		if step.Reason != "" {
			line += "  " + step.Reason
		}
		if step.Detail != "" {
			line += "  (" + step.Detail + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
