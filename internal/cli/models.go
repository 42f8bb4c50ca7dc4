package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/internal/output"
)

func NewModelsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage local model files",
	}

	cmd.AddCommand(newModelsDownloadCmd(deps))
	cmd.AddCommand(newModelsValidateCmd(deps))
	cmd.AddCommand(newModelsRemoveCmd(deps))

	return cmd
}

func newModelsDownloadCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download any missing models",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lastPercent := -1
			err := deps.App.Models.EnsureReady(ctx, func(frac float64) {
				percent := int(frac * 100)
				if percent/10 != lastPercent/10 {
					lastPercent = percent
					fmt.Fprintf(os.Stdout, "  ⬇️  %d%%\n", percent)
				}
			})
			if err != nil {
				return err
			}

			formatter.Success("All models present")
			return nil
		},
	}
}

func newModelsValidateCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that model files are present and intact",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			missing, invalid, err := deps.App.Models.Validate()
			if err != nil {
				return err
			}

			if len(missing) == 0 && len(invalid) == 0 {
				formatter.Success("All models valid")
				return nil
			}
			for _, name := range missing {
				formatter.SetupCheck(name, false, "missing (run 'meetscribe models download')")
			}
			for _, desc := range invalid {
				formatter.SetupCheck(desc, false, "invalid size")
			}
			return fmt.Errorf("%d model problem(s)", len(missing)+len(invalid))
		},
	}
}

func newModelsRemoveCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model>...",
		Short: "Delete local model files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			if err := deps.App.Models.Remove(args); err != nil {
				return err
			}
			formatter.Success("Removed: " + strings.Join(args, ", "))
			return nil
		},
	}
}
