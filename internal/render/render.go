// Package render turns pipeline data into text content. Everything here is a
// pure function over its inputs: the same extraction and segments always
// produce the same bytes.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
)

// Timeline builds the text handed to the summarizer: speaker-labeled
// transcript lines interleaved with ancillary timeline events, all
// timestamped relative to the start of the recording.
func Timeline(segments []meeting.AttributedSegment, events []meeting.TimelineEvent, startedAt time.Time) string {
	var b strings.Builder

	for _, ev := range events {
		offset := ev.At.Sub(startedAt).Seconds()
		if offset < 0 {
			offset = 0
		}
		fmt.Fprintf(&b, "[%s] (context) %s\n", timestamp(offset), strings.TrimSpace(ev.Text))
	}
	if len(events) > 0 {
		b.WriteString("\n")
	}

	for _, seg := range segments {
		fmt.Fprintf(&b, "[%s] Speaker %d: %s\n", timestamp(seg.Start), seg.Speaker, strings.TrimSpace(seg.Text))
	}
	return b.String()
}

// NoteOptions controls the cross-references embedded in a rendered note.
type NoteOptions struct {
	AudioPath      string // relative vault path, empty when audio is not kept
	TranscriptPath string // relative vault path, empty when transcript is not kept
	Duration       time.Duration
}

// Note renders the meeting note markdown from a validated extraction.
func Note(e *meeting.Extraction, opts NoteOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", e.Title)
	fmt.Fprintf(&b, "- Date: %s\n", e.Date)
	if opts.Duration > 0 {
		fmt.Fprintf(&b, "- Duration: %s\n", opts.Duration.Round(time.Second))
	}
	if opts.AudioPath != "" {
		fmt.Fprintf(&b, "- Audio: [[%s]]\n", opts.AudioPath)
	}
	if opts.TranscriptPath != "" {
		fmt.Fprintf(&b, "- Transcript: [[%s]]\n", opts.TranscriptPath)
	}
	b.WriteString("\n## Summary\n\n")
	if e.Summary != "" {
		b.WriteString(e.Summary + "\n")
	} else {
		b.WriteString("(no summary)\n")
	}

	section(&b, "Key Points", e.KeyPoints)
	section(&b, "Decisions", e.Decisions)
	section(&b, "Open Questions", e.OpenQuestions)

	if len(e.ActionItems) > 0 {
		b.WriteString("\n## Action Items\n\n")
		for _, item := range e.ActionItems {
			line := "- [ ] " + item.Task
			if item.Owner != "" {
				line += " (" + item.Owner + ")"
			}
			if item.Due != "" {
				line += " - due " + item.Due
			}
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

func section(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", heading)
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}

// TranscriptText renders the persisted transcript artifact: one timestamped,
// speaker-labeled line per segment.
func TranscriptText(segments []meeting.AttributedSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "[%s - %s] Speaker %d: %s\n",
			timestamp(seg.Start), timestamp(seg.End), seg.Speaker, strings.TrimSpace(seg.Text))
	}
	return b.String()
}

func timestamp(sec float64) string {
	d := time.Duration(sec * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
