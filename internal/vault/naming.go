package vault

import (
	"path/filepath"
	"strings"
)

// UntitledPlaceholder substitutes for titles that sanitize down to nothing.
const UntitledPlaceholder = "Untitled"

// ArtifactPaths is the destination layout of one committed batch, relative to
// the vault root. Audio and Transcript are empty when the artifact is not
// kept. This layout is the external contract: notes are foldered by year and
// month, audio and transcripts are flat date-prefixed files.
type ArtifactPaths struct {
	Note       string
	Audio      string
	Transcript string
}

// Names computes the destination paths for a meeting dated isoDate
// (YYYY-MM-DD). audioExt carries the source audio's extension, dot included.
func Names(notesRoot, audioRoot, transcriptRoot, isoDate, title, audioExt string, keepAudio, keepTranscript bool) ArtifactPaths {
	clean := SanitizeTitle(title)
	base := isoDate + " - " + clean

	year, month := "0000", "00"
	if len(isoDate) >= 7 {
		year, month = isoDate[:4], isoDate[5:7]
	}

	p := ArtifactPaths{
		Note: filepath.Join(notesRoot, year, month, base+".md"),
	}
	if keepAudio {
		if audioExt == "" {
			audioExt = ".wav"
		}
		p.Audio = filepath.Join(audioRoot, base+audioExt)
	}
	if keepTranscript {
		p.Transcript = filepath.Join(transcriptRoot, base+".txt")
	}
	return p
}

// SanitizeTitle makes a meeting title safe to embed in a file name: path
// separators and reserved filesystem characters are stripped, whitespace is
// collapsed, and empty or dot-only results become a fixed placeholder.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			// dropped
		default:
			if r >= 0x20 {
				b.WriteRune(r)
			}
		}
	}

	clean := strings.Join(strings.Fields(b.String()), " ")
	if strings.Trim(clean, ". ") == "" {
		return UntitledPlaceholder
	}
	return clean
}
