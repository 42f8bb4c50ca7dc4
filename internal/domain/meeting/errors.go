package meeting

import "fmt"

// FailureKind classifies why a run failed. Cancellation is not a failure;
// it surfaces as context.Canceled, never as an Error.
type FailureKind int

const (
	// EngineMissing means a required executable or model file is absent.
	EngineMissing FailureKind = iota
	// EngineFailed means an engine exited abnormally or produced output the
	// pipeline could not accept (for example, exceeding the output ceiling).
	EngineFailed
	// JSONInvalid means the summarizer output could not be decoded even after
	// repair. It is absorbed by the fallback extraction and never surfaces as
	// a run failure; the kind exists for logging.
	JSONInvalid
	// ModelUnavailable means model readiness could not be established.
	ModelUnavailable
	// DestinationUnavailable means the vault root could not be resolved.
	DestinationUnavailable
	// WriteFailed means an I/O failure occurred during the vault commit.
	WriteFailed
)

func (k FailureKind) String() string {
	switch k {
	case EngineMissing:
		return "engine missing"
	case EngineFailed:
		return "engine failed"
	case JSONInvalid:
		return "invalid json"
	case ModelUnavailable:
		return "model unavailable"
	case DestinationUnavailable:
		return "destination unavailable"
	case WriteFailed:
		return "write failed"
	default:
		return "unknown failure"
	}
}

// Error is a classified pipeline failure. Detail carries captured engine
// output for debugging; it is surfaced transiently and never persisted.
type Error struct {
	Kind   FailureKind
	Msg    string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on the failure kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Errf builds a classified error with a formatted message.
func Errf(kind FailureKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
