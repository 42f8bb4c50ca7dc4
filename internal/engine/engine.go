// Package engine holds shared plumbing for the external subprocess engines
// (transcription, diarization, summarization).
package engine

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
)

// Check verifies an engine executable (and optionally its model file) exists.
func Check(bin, model string) error {
	if _, err := exec.LookPath(bin); err != nil {
		return meeting.Errf(meeting.EngineMissing, "executable %s not found", bin)
	}
	if model != "" {
		if _, err := os.Stat(model); err != nil {
			return meeting.Errf(meeting.EngineMissing, "model %s not found", model)
		}
	}
	return nil
}

// ClassifyExit turns a subprocess failure into a classified engine error.
// Captured output rides along as transient diagnostic detail only; it is
// never persisted.
func ClassifyExit(what string, err error, output []byte) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		detail := strings.TrimSpace(string(exitErr.Stderr))
		if detail == "" {
			detail = strings.TrimSpace(string(output))
		}
		return &meeting.Error{
			Kind:   meeting.EngineFailed,
			Msg:    fmt.Sprintf("%s exited with code %d", what, exitErr.ExitCode()),
			Detail: detail,
			Err:    err,
		}
	}
	return &meeting.Error{Kind: meeting.EngineFailed, Msg: what, Err: err}
}
