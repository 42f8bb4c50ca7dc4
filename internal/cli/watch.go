package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/internal/app"
	"github.com/meetscribe/meetscribe/internal/inbox"
	"github.com/meetscribe/meetscribe/internal/output"
)

func NewWatchCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the inbox directory and process new recordings",
		Long:  "Watch the configured inbox directory and run the pipeline for every new audio file. Files are processed one at a time; stop with Ctrl+C.",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			if _, err := os.Stat(deps.Config.InboxDir); err != nil {
				return fmt.Errorf("inbox directory: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			formatter.Info("Watching " + deps.Config.InboxDir + " (Ctrl+C to stop)")

			watcher := &inbox.Watcher{
				Dir: deps.Config.InboxDir,
				Log: deps.App.Log.Named("inbox"),
				Process: func(ctx context.Context, path string) error {
					formatter.Info("Processing " + path)
					return runProcess(ctx, deps, path, app.ProcessOptions{}, formatter)
				},
			}

			err := watcher.Run(ctx)
			if errors.Is(err, context.Canceled) {
				formatter.Info("Stopped")
				return nil
			}
			return err
		},
	}
}
