package cli

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/meetscribe/meetscribe/internal/output"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ok := true

			binaries := []struct{ name, bin string }{
				{"ffmpeg", "ffmpeg"},
				{"whisper", deps.Config.WhisperBin},
				{"summarizer", deps.Config.LlamaBin},
			}
			for _, b := range binaries {
				if _, err := exec.LookPath(b.bin); err != nil {
					f.SetupCheck(b.name, false, b.bin+" not found on PATH")
					ok = false
				} else {
					f.SetupCheck(b.name, true, b.bin)
				}
			}

			if deps.Config.DiarizeBin == "" {
				f.SetupCheck("diarization", true, "disabled (optional)")
			} else if _, err := exec.LookPath(deps.Config.DiarizeBin); err != nil {
				f.SetupCheck("diarization", false, deps.Config.DiarizeBin+" not found on PATH")
			} else {
				f.SetupCheck("diarization", true, deps.Config.DiarizeBin)
			}

			if _, err := deps.App.Vault.ResolveRoot(); err != nil {
				f.SetupCheck("vault", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("vault", true, deps.Config.VaultDir)
			}

			missing, invalid, err := deps.App.Models.Validate()
			if err != nil {
				return err
			}
			if len(missing)+len(invalid) > 0 {
				f.SetupCheck("models", false, "run 'meetscribe models download'")
			} else {
				f.SetupCheck("models", true, deps.Config.ModelsDir)
			}

			if ok {
				f.Success("\nReady to process recordings")
			} else {
				f.Warning("\nSome prerequisites are missing")
			}
			return nil
		},
	}
}
