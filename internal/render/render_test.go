package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
)

func attributed(start, end float64, speaker int, text string) meeting.AttributedSegment {
	return meeting.AttributedSegment{
		TranscriptSegment: meeting.TranscriptSegment{Start: start, End: end, Text: text},
		Speaker:           speaker,
	}
}

func TestTimeline(t *testing.T) {
	started := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	segments := []meeting.AttributedSegment{
		attributed(0, 4, 1, "good morning everyone"),
		attributed(4, 9, 2, "let's get started"),
	}
	events := []meeting.TimelineEvent{
		{At: started.Add(2 * time.Second), Text: "slide: Q3 roadmap"},
	}

	out := Timeline(segments, events, started)

	assert.Contains(t, out, "[00:02] (context) slide: Q3 roadmap")
	assert.Contains(t, out, "[00:00] Speaker 1: good morning everyone")
	assert.Contains(t, out, "[00:04] Speaker 2: let's get started")
}

func TestTimeline_Deterministic(t *testing.T) {
	started := time.Now()
	segments := []meeting.AttributedSegment{attributed(0, 1, 0, "hi")}

	assert.Equal(t, Timeline(segments, nil, started), Timeline(segments, nil, started))
}

func TestNote_FullExtraction(t *testing.T) {
	e := &meeting.Extraction{
		Title:         "Weekly Sync",
		Date:          "2026-08-26",
		Summary:       "We planned the release.",
		Decisions:     []string{"ship Friday"},
		OpenQuestions: []string{"who owns rollback?"},
		KeyPoints:     []string{"release is on track"},
		ActionItems: []meeting.ActionItem{
			{Owner: "sam", Task: "tag the build", Due: "2026-08-28"},
			{Task: "update changelog"},
		},
	}

	out := Note(e, NoteOptions{
		AudioPath:      "Audio/2026-08-26 - Weekly Sync.wav",
		TranscriptPath: "Transcripts/2026-08-26 - Weekly Sync.txt",
		Duration:       32 * time.Minute,
	})

	assert.True(t, strings.HasPrefix(out, "# Weekly Sync\n"))
	assert.Contains(t, out, "- Date: 2026-08-26")
	assert.Contains(t, out, "- Duration: 32m0s")
	assert.Contains(t, out, "[[Audio/2026-08-26 - Weekly Sync.wav]]")
	assert.Contains(t, out, "[[Transcripts/2026-08-26 - Weekly Sync.txt]]")
	assert.Contains(t, out, "We planned the release.")
	assert.Contains(t, out, "- ship Friday")
	assert.Contains(t, out, "- who owns rollback?")
	assert.Contains(t, out, "- [ ] tag the build (sam) - due 2026-08-28")
	assert.Contains(t, out, "- [ ] update changelog\n")
}

func TestNote_OmitsUnkeptReferences(t *testing.T) {
	e := &meeting.Extraction{Title: "t", Date: "2026-08-26",
		Decisions: []string{}, OpenQuestions: []string{}, KeyPoints: []string{}, ActionItems: []meeting.ActionItem{}}

	out := Note(e, NoteOptions{})

	assert.NotContains(t, out, "Audio:")
	assert.NotContains(t, out, "Transcript:")
	assert.NotContains(t, out, "## Decisions")
	assert.NotContains(t, out, "## Action Items")
}

func TestTranscriptText(t *testing.T) {
	segments := []meeting.AttributedSegment{
		attributed(0, 4.2, 1, " hello "),
		attributed(3661, 3670, 2, "an hour in"),
	}

	out := TranscriptText(segments)

	assert.Contains(t, out, "[00:00 - 00:04] Speaker 1: hello\n")
	assert.Contains(t, out, "[01:01:01 - 01:01:10] Speaker 2: an hour in\n")
}
