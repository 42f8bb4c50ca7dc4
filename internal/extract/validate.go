package extract

import (
	"time"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
)

// FallbackSummary is the fixed summary used when structuring fails entirely.
const FallbackSummary = "A structured summary could not be generated for this meeting. The full transcript is preserved below."

const isoDate = "2006-01-02"

// Validate normalizes a structurally valid extraction in place. If the date
// field does not parse as an ISO date it is replaced with recordingDate; nil
// list fields become empty so every list is always present. Nothing else is
// touched, and a structurally valid extraction is never rejected.
func Validate(e *meeting.Extraction, recordingDate time.Time) {
	if _, err := time.Parse(isoDate, e.Date); err != nil {
		e.Date = recordingDate.Format(isoDate)
	}
	if e.Decisions == nil {
		e.Decisions = []string{}
	}
	if e.OpenQuestions == nil {
		e.OpenQuestions = []string{}
	}
	if e.KeyPoints == nil {
		e.KeyPoints = []string{}
	}
	if e.ActionItems == nil {
		e.ActionItems = []meeting.ActionItem{}
	}
}

// Fallback builds the placeholder extraction used when decoding the
// summarizer output fails even after one repair attempt. It always succeeds
// and leaves no field nil.
func Fallback(recordingDate time.Time) *meeting.Extraction {
	date := recordingDate.Format(isoDate)
	return &meeting.Extraction{
		Title:         "Untitled Meeting " + date,
		Date:          date,
		Summary:       FallbackSummary,
		Decisions:     []string{},
		OpenQuestions: []string{},
		KeyPoints:     []string{},
		ActionItems:   []meeting.ActionItem{},
	}
}
