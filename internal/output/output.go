package output

import (
	"fmt"
	"io"
	"time"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
)

// Formatter writes user-facing status lines. Diagnostics go to the structured
// logger; this is only what a person watching the terminal should see.
type Formatter struct {
	w         io.Writer
	lastStage meeting.Stage
	started   bool
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

// Progress prints one line per stage transition rather than echoing every
// fractional update.
func (f *Formatter) Progress(p meeting.Progress) {
	if f.started && p.Stage == f.lastStage {
		return
	}
	f.started = true
	f.lastStage = p.Stage

	switch p.Stage {
	case meeting.StageDownloadingModels:
		fmt.Fprintf(f.w, "⬇️  Preparing models...\n")
	case meeting.StageTranscribing:
		fmt.Fprintf(f.w, "📝 Transcribing audio...\n")
	case meeting.StageSummarizing:
		fmt.Fprintf(f.w, "🤖 Structuring summary...\n")
	case meeting.StageWriting:
		title := ""
		if p.Extraction != nil {
			title = " \"" + p.Extraction.Title + "\""
		}
		fmt.Fprintf(f.w, "💾 Writing%s to vault...\n", title)
	}
}

func (f *Formatter) RunComplete(result *meeting.Result, duration time.Duration) {
	fmt.Fprintf(f.w, "\n📁 Note saved: %s", result.NotePath)
	if result.AudioPath != "" {
		fmt.Fprintf(f.w, " (audio: %s)", result.AudioPath)
	}
	fmt.Fprintf(f.w, "\n⏱️  Processed in %s\n", formatDuration(duration))
}

func (f *Formatter) Cancelled() {
	fmt.Fprintf(f.w, "🚫 Run cancelled\n")
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) MeetingListHeader() {
	fmt.Fprintf(f.w, "📁 Meetings:\n\n")
}

func (f *Formatter) MeetingListItem(date, title string, durationSec float64, fallback bool) {
	marker := "✅"
	if fallback {
		marker = "📝" // transcript preserved, but no structured summary
	}
	fmt.Fprintf(f.w, "  %s %s  %s (%s)\n", marker, date, title,
		formatDuration(time.Duration(durationSec*float64(time.Second))))
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
