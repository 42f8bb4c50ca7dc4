// Package vault persists meeting artifacts into the user-owned destination
// tree. All writes for one meeting go through a single scoped access and are
// individually atomic: a concurrent reader sees either the complete file or
// no file.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
)

// Vault is the destination directory tree for notes, audio and transcripts.
type Vault struct {
	root string
	log  hclog.Logger
}

func New(root string, log hclog.Logger) *Vault {
	return &Vault{root: root, log: log.Named("vault")}
}

// ResolveRoot verifies the vault root exists and is a directory.
func (v *Vault) ResolveRoot() (string, error) {
	info, err := os.Stat(v.root)
	if err != nil {
		return "", &meeting.Error{
			Kind: meeting.DestinationUnavailable,
			Msg:  fmt.Sprintf("vault root %s", v.root),
			Err:  err,
		}
	}
	if !info.IsDir() {
		return "", meeting.Errf(meeting.DestinationUnavailable, "vault root %s is not a directory", v.root)
	}
	return v.root, nil
}

// Scope is a bounded access window on the vault. It is acquired once per
// write batch and must be released on every exit path.
type Scope struct {
	root     string
	lockPath string
	released bool
	log      hclog.Logger
}

// Acquire opens one access scope covering an entire write batch. The scope is
// backed by an exclusive lock file under the vault root holding the owning
// PID; a second concurrent acquisition fails rather than queueing, since
// callers are expected to serialize runs against the same vault. A lock whose
// owning process is gone (a run killed mid-commit) is reclaimed.
func (v *Vault) Acquire() (*Scope, error) {
	root, err := v.ResolveRoot()
	if err != nil {
		return nil, err
	}

	lockPath := filepath.Join(root, ".meetscribe.lock")
	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			v.log.Debug("vault scope acquired", "root", root)
			return &Scope{root: root, lockPath: lockPath, log: v.log}, nil
		}
		if !os.IsExist(err) {
			return nil, &meeting.Error{Kind: meeting.DestinationUnavailable, Msg: "acquiring vault lock", Err: err}
		}
		if attempt == 0 && !lockOwnerAlive(lockPath) {
			v.log.Warn("reclaiming stale vault lock", "path", lockPath)
			os.Remove(lockPath)
			continue
		}
		return nil, meeting.Errf(meeting.DestinationUnavailable,
			"vault is locked by another writer (%s); delete the file if no run is active", lockPath)
	}
}

// lockOwnerAlive reports whether the process recorded in the lock file still
// exists. Anything unreadable or unparsable counts as alive: the holder may
// not have written its PID yet, and a held lock must never be reclaimed.
func lockOwnerAlive(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return true
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Release ends the access window. It is idempotent so it can sit in a defer
// alongside early returns.
func (s *Scope) Release() {
	if s.released {
		return
	}
	s.released = true
	if err := os.Remove(s.lockPath); err != nil {
		s.log.Warn("releasing vault lock", "error", err)
	}
	s.log.Debug("vault scope released")
}

// WriteFile atomically writes data at rel under the vault root, creating
// parent directories as needed. The file is staged in the destination
// directory and renamed into place so it either appears complete or not at
// all.
func (s *Scope) WriteFile(rel string, data []byte) error {
	if s.released {
		return meeting.Errf(meeting.WriteFailed, "write after scope release: %s", rel)
	}

	full := filepath.Join(s.root, rel)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &meeting.Error{Kind: meeting.WriteFailed, Msg: "creating " + dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".tmp-")
	if err != nil {
		return &meeting.Error{Kind: meeting.WriteFailed, Msg: "staging " + rel, Err: err}
	}

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		if werr == nil {
			werr = cerr
		}
		return &meeting.Error{Kind: meeting.WriteFailed, Msg: "writing " + rel, Err: werr}
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return &meeting.Error{Kind: meeting.WriteFailed, Msg: "placing " + rel, Err: err}
	}
	return nil
}
