package vault

import "github.com/meetscribe/meetscribe/internal/domain/meeting"

// Artifacts is the bounded set of byte payloads one meeting commit may carry.
// Audio and Transcript are nil when not kept.
type Artifacts struct {
	Note       []byte
	Audio      []byte
	Transcript []byte
}

// Commit writes a batch of artifacts under one access scope. Writes happen in
// a fixed order, note last, so a partially failed commit never leaves a note
// referencing an artifact that was not written. Each individual write is
// atomic; the batch as a whole is not, and a failure aborts the remaining
// writes.
func (v *Vault) Commit(artifacts Artifacts, paths ArtifactPaths) (*meeting.Result, error) {
	scope, err := v.Acquire()
	if err != nil {
		return nil, err
	}
	defer scope.Release()

	if artifacts.Transcript != nil && paths.Transcript != "" {
		if err := scope.WriteFile(paths.Transcript, artifacts.Transcript); err != nil {
			return nil, err
		}
		v.log.Debug("transcript written", "path", paths.Transcript)
	}

	result := &meeting.Result{NotePath: paths.Note}

	if artifacts.Audio != nil && paths.Audio != "" {
		if err := scope.WriteFile(paths.Audio, artifacts.Audio); err != nil {
			return nil, err
		}
		v.log.Debug("audio written", "path", paths.Audio)
		result.AudioPath = paths.Audio
	}

	if err := scope.WriteFile(paths.Note, artifacts.Note); err != nil {
		return nil, err
	}
	v.log.Debug("note written", "path", paths.Note)

	return result, nil
}
