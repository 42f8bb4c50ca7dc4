// Package transcribe runs the local speech-to-text engine.
package transcribe

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
	"github.com/meetscribe/meetscribe/internal/engine"
)

// Whisper shells out to a whisper.cpp binary and parses its JSON output.
type Whisper struct {
	BinPath   string // whisper-cli executable
	ModelPath string // ggml model file
	Log       hclog.Logger
}

func NewWhisper(bin, model string, log hclog.Logger) *Whisper {
	return &Whisper{BinPath: bin, ModelPath: model, Log: log.Named("whisper")}
}

// whisperOutput matches the file whisper.cpp emits with --output-json.
// Offsets are milliseconds from the start of the audio.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe runs the engine against audioPath, staging output in scratchDir.
func (w *Whisper) Transcribe(ctx context.Context, audioPath, scratchDir string) (*meeting.Transcript, error) {
	if err := engine.Check(w.BinPath, w.ModelPath); err != nil {
		return nil, err
	}

	outPrefix := filepath.Join(scratchDir, "transcript")
	cmd := exec.CommandContext(ctx, w.BinPath,
		"--model", w.ModelPath,
		"--file", audioPath,
		"--output-json",
		"--output-file", outPrefix,
		"--no-prints",
	)

	w.Log.Debug("running transcription", "command", cmd.String())
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, engine.ClassifyExit("transcription", err, out)
	}

	data, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, &meeting.Error{Kind: meeting.EngineFailed, Msg: "transcription produced no output", Err: err}
	}

	var parsed whisperOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &meeting.Error{Kind: meeting.EngineFailed, Msg: "parsing transcription output", Err: err}
	}

	tr := &meeting.Transcript{}
	var text strings.Builder
	for _, seg := range parsed.Transcription {
		s := meeting.TranscriptSegment{
			Start: float64(seg.Offsets.From) / 1000,
			End:   float64(seg.Offsets.To) / 1000,
			Text:  strings.TrimSpace(seg.Text),
		}
		if s.Text == "" {
			continue
		}
		tr.Segments = append(tr.Segments, s)
		text.WriteString(s.Text + " ")
	}
	tr.Text = strings.TrimSpace(text.String())

	w.Log.Info("transcription complete", "segments", len(tr.Segments))
	return tr, nil
}
