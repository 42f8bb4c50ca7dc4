package cli

import (
	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/config"
	"github.com/meetscribe/meetscribe/internal/app"
	"github.com/meetscribe/meetscribe/internal/version"
)

type Dependencies struct {
	App    *app.App
	Config *config.Config
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meetscribe",
		Short: "Turn meeting recordings into structured vault notes",
		Long:  "A CLI tool that transcribes meeting audio locally, structures it into a summary with decisions and action items, and writes the results atomically into your notes vault.",
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewProcessCmd(deps))
	rootCmd.AddCommand(NewWatchCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewModelsCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}
