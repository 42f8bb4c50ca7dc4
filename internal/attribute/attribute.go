// Package attribute merges a time-stamped transcript with time-stamped
// diarization output into a speaker-labeled timeline.
package attribute

import "github.com/meetscribe/meetscribe/internal/domain/meeting"

// DefaultSpeaker is assigned when no speaker segment overlaps a transcript
// segment, or when diarization produced nothing at all.
const DefaultSpeaker = 0

// Assign labels every transcript segment with the speaker whose segment
// overlaps it the most. Ties go to the speaker segment with the earliest
// start. The result preserves the order and cardinality of the transcript
// input exactly, and the function never fails.
func Assign(segments []meeting.TranscriptSegment, speakers []meeting.SpeakerSegment) []meeting.AttributedSegment {
	out := make([]meeting.AttributedSegment, 0, len(segments))

	for _, seg := range segments {
		out = append(out, meeting.AttributedSegment{
			TranscriptSegment: seg,
			Speaker:           bestSpeaker(seg, speakers),
		})
	}
	return out
}

func bestSpeaker(seg meeting.TranscriptSegment, speakers []meeting.SpeakerSegment) int {
	best := DefaultSpeaker
	bestOverlap := 0.0
	bestStart := 0.0

	for _, sp := range speakers {
		ov := overlap(seg, sp)
		if ov <= 0 {
			continue
		}
		if ov > bestOverlap || (ov == bestOverlap && sp.Start < bestStart) {
			best = sp.Speaker
			bestOverlap = ov
			bestStart = sp.Start
		}
	}
	return best
}

func overlap(a meeting.TranscriptSegment, b meeting.SpeakerSegment) float64 {
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	end := a.End
	if b.End < end {
		end = b.End
	}
	return end - start
}
