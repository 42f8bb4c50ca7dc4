// Package media prepares source audio for the engines.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// PrepareAudio converts a source file into the mono 16 kHz WAV the engines
// expect, staging the result in scratchDir. Sources that are already WAV are
// still resampled; whisper is strict about its input format.
func PrepareAudio(ctx context.Context, sourcePath, scratchDir string) (string, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("ffmpeg not found: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	out := filepath.Join(scratchDir, base+"_16k.wav")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", sourcePath,
		"-ac", "1", "-ar", "16000",
		"-f", "wav",
		out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg: %w\n%s", err, strings.TrimSpace(string(output)))
	}
	return out, nil
}

// Duration reads the playing time of a WAV file from its header.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	d, err := wav.NewDecoder(f).Duration()
	if err != nil {
		return 0, fmt.Errorf("reading wav header: %w", err)
	}
	return d, nil
}
