// Package summarize runs the local text-generation engine under a strict
// JSON contract and offers a one-shot repair pass for malformed output.
package summarize

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
	"github.com/meetscribe/meetscribe/internal/engine"
)

// DefaultMaxOutputBytes bounds how much engine output the pipeline accepts.
const DefaultMaxOutputBytes = 1 << 20

const summaryPrompt = `You are given a timestamped meeting timeline. Respond with exactly one JSON object and nothing else, using this schema:
{"title": string, "date": "YYYY-MM-DD", "summary": string, "decisions": [string], "openQuestions": [string], "keyPoints": [string], "actionItems": [{"owner": string, "task": string, "due": "YYYY-MM-DD or empty string"}]}
Every list must be present, empty if nothing applies. The meeting took place on %DATE%.

Timeline:
`

const repairPrompt = `The following text was supposed to be a single valid JSON object but is malformed. Respond with the corrected JSON object and nothing else:

`

// Llama shells out to a llama.cpp binary in single-prompt mode.
type Llama struct {
	BinPath        string
	ModelPath      string
	MaxOutputBytes int
	Log            hclog.Logger
}

func NewLlama(bin, model string, log hclog.Logger) *Llama {
	return &Llama{BinPath: bin, ModelPath: model, MaxOutputBytes: DefaultMaxOutputBytes, Log: log.Named("llama")}
}

// Summarize asks the engine for a structured summary of the timeline text.
// The returned text is raw engine output; the caller owns extraction and
// decoding.
func (l *Llama) Summarize(ctx context.Context, timeline string, date time.Time) (string, error) {
	prompt := replaceDate(summaryPrompt, date) + timeline
	return l.generate(ctx, "summarization", prompt)
}

// RepairJSON asks the engine to fix malformed JSON it produced earlier.
func (l *Llama) RepairJSON(ctx context.Context, raw string) (string, error) {
	return l.generate(ctx, "json repair", repairPrompt+raw)
}

func (l *Llama) generate(ctx context.Context, what, prompt string) (string, error) {
	if err := engine.Check(l.BinPath, l.ModelPath); err != nil {
		return "", err
	}

	limit := l.MaxOutputBytes
	if limit <= 0 {
		limit = DefaultMaxOutputBytes
	}

	cmd := exec.CommandContext(ctx, l.BinPath,
		"--model", l.ModelPath,
		"--no-display-prompt",
		"--prompt", prompt,
	)
	stdout := &cappedBuffer{limit: limit}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	l.Log.Debug("running generation", "task", what, "prompt_bytes", len(prompt))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", engine.ClassifyExit(what, err, stderr.Bytes())
	}

	if stdout.exceeded() {
		return "", meeting.Errf(meeting.EngineFailed, "%s output exceeded %d bytes", what, limit)
	}

	l.Log.Debug("generation complete", "task", what, "output_bytes", stdout.total)
	return stdout.buf.String(), nil
}

// cappedBuffer retains at most limit bytes while counting everything written,
// so a runaway engine cannot grow memory without bound before the ceiling
// check. Overflow is discarded rather than erroring, which keeps the engine
// draining its pipe until it exits.
type cappedBuffer struct {
	limit int
	total int64
	buf   bytes.Buffer
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	b.total += int64(n)
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			p = p[:room]
		}
		b.buf.Write(p)
	}
	return n, nil
}

func (b *cappedBuffer) exceeded() bool { return b.total > int64(b.limit) }

func replaceDate(prompt string, date time.Time) string {
	return strings.ReplaceAll(prompt, "%DATE%", date.Format("2006-01-02"))
}
