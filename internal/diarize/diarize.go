// Package diarize identifies who spoke when. Diarization is advisory: the
// pipeline treats any failure here as "no speaker data" and carries on.
package diarize

import (
	"context"
	"encoding/json"
	"os/exec"

	"github.com/hashicorp/go-hclog"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
	"github.com/meetscribe/meetscribe/internal/engine"
)

// Diarizer produces speaker segments for an audio file.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]meeting.SpeakerSegment, error)
}

// Disabled reports no speaker data, for setups without a diarization engine.
type Disabled struct{}

func (Disabled) Diarize(context.Context, string) ([]meeting.SpeakerSegment, error) {
	return nil, nil
}

// Command shells out to an external diarization tool that prints a JSON array
// of {"start", "end", "speaker"} objects on stdout.
type Command struct {
	BinPath string
	Args    []string
	Log     hclog.Logger
}

func NewCommand(bin string, args []string, log hclog.Logger) *Command {
	return &Command{BinPath: bin, Args: args, Log: log.Named("diarize")}
}

type diarizeSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker int     `json:"speaker"`
}

func (c *Command) Diarize(ctx context.Context, audioPath string) ([]meeting.SpeakerSegment, error) {
	if err := engine.Check(c.BinPath, ""); err != nil {
		return nil, err
	}

	args := append(append([]string{}, c.Args...), audioPath)
	cmd := exec.CommandContext(ctx, c.BinPath, args...)

	c.Log.Debug("running diarization", "command", cmd.String())
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, engine.ClassifyExit("diarization", err, nil)
	}

	var parsed []diarizeSegment
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, &meeting.Error{Kind: meeting.EngineFailed, Msg: "parsing diarization output", Err: err}
	}

	segments := make([]meeting.SpeakerSegment, 0, len(parsed))
	for _, s := range parsed {
		segments = append(segments, meeting.SpeakerSegment{Start: s.Start, End: s.End, Speaker: s.Speaker})
	}

	c.Log.Info("diarization complete", "segments", len(segments))
	return segments, nil
}
