package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/internal/app"
	"github.com/meetscribe/meetscribe/internal/domain/meeting"
	"github.com/meetscribe/meetscribe/internal/output"
)

func NewProcessCmd(deps *Dependencies) *cobra.Command {
	var name string
	var keepAudio, keepTranscript, noAudio, noTranscript bool

	cmd := &cobra.Command{
		Use:   "process <audio-file>",
		Short: "Process one recording into a vault note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			opts := app.ProcessOptions{Name: name}
			if keepAudio || noAudio {
				v := keepAudio
				opts.KeepAudio = &v
			}
			if keepTranscript || noTranscript {
				v := keepTranscript
				opts.KeepTranscript = &v
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runProcess(ctx, deps, args[0], opts, formatter)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Meeting name, overrides the generated title")
	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "Keep the source audio in the vault")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Do not keep the source audio")
	cmd.Flags().BoolVar(&keepTranscript, "keep-transcript", false, "Keep the full transcript in the vault")
	cmd.Flags().BoolVar(&noTranscript, "no-transcript", false, "Do not keep the full transcript")
	cmd.MarkFlagsMutuallyExclusive("keep-audio", "no-audio")
	cmd.MarkFlagsMutuallyExclusive("keep-transcript", "no-transcript")

	return cmd
}

func runProcess(ctx context.Context, deps *Dependencies, path string, opts app.ProcessOptions, formatter *output.Formatter) error {
	started := time.Now()

	result, err := deps.App.ProcessFile(ctx, path, opts, formatter.Progress)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			formatter.Cancelled()
			return nil
		}
		var merr *meeting.Error
		if errors.As(err, &merr) && merr.Detail != "" {
			deps.App.Log.Debug("engine diagnostics", "detail", merr.Detail)
		}
		return err
	}

	formatter.RunComplete(result, time.Since(started))
	return nil
}
