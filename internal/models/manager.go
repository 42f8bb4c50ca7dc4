// Package models manages the local model files the engines depend on.
// Checksum verification is delegated to the download source; presence and
// size are what the manager validates.
package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
)

// Spec describes one required model file.
type Spec struct {
	Name string // file name under the models directory
	URL  string // download source
	Size int64  // expected size in bytes, 0 to skip size validation
}

// Manager downloads, validates and removes model files under one directory.
type Manager struct {
	Dir    string
	Specs  []Spec
	Client *http.Client
	Log    hclog.Logger
}

func NewManager(dir string, specs []Spec, log hclog.Logger) *Manager {
	return &Manager{Dir: dir, Specs: specs, Client: http.DefaultClient, Log: log.Named("models")}
}

func (m *Manager) path(name string) string { return filepath.Join(m.Dir, name) }

// EnsureReady downloads any missing model, reporting overall progress in
// [0, 1] through onProgress. Present models are not re-verified here; use
// Validate for that.
func (m *Manager) EnsureReady(ctx context.Context, onProgress func(float64)) error {
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	var missing []Spec
	for _, spec := range m.Specs {
		if _, err := os.Stat(m.path(spec.Name)); err != nil {
			missing = append(missing, spec)
		}
	}
	if len(missing) == 0 {
		onProgress(1)
		return nil
	}

	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return &meeting.Error{Kind: meeting.ModelUnavailable, Msg: "creating models directory", Err: err}
	}

	for i, spec := range missing {
		base := float64(i) / float64(len(missing))
		span := 1.0 / float64(len(missing))
		if err := m.download(ctx, spec, func(frac float64) {
			onProgress(base + frac*span)
		}); err != nil {
			return err
		}
	}
	onProgress(1)
	return nil
}

func (m *Manager) download(ctx context.Context, spec Spec, onProgress func(float64)) error {
	m.Log.Info("downloading model", "name", spec.Name, "url", spec.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		return &meeting.Error{Kind: meeting.ModelUnavailable, Msg: spec.Name, Err: err}
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &meeting.Error{Kind: meeting.ModelUnavailable, Msg: "fetching " + spec.Name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return meeting.Errf(meeting.ModelUnavailable, "fetching %s: HTTP %d", spec.Name, resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = spec.Size
	}

	tmp, err := os.CreateTemp(m.Dir, "."+spec.Name+".part-")
	if err != nil {
		return &meeting.Error{Kind: meeting.ModelUnavailable, Msg: "staging " + spec.Name, Err: err}
	}
	defer os.Remove(tmp.Name())

	var written int64
	buf := make([]byte, 1<<20)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				tmp.Close()
				return &meeting.Error{Kind: meeting.ModelUnavailable, Msg: "writing " + spec.Name, Err: werr}
			}
			written += int64(n)
			if total > 0 {
				onProgress(float64(written) / float64(total))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			tmp.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &meeting.Error{Kind: meeting.ModelUnavailable, Msg: "downloading " + spec.Name, Err: rerr}
		}
	}
	if err := tmp.Close(); err != nil {
		return &meeting.Error{Kind: meeting.ModelUnavailable, Msg: "closing " + spec.Name, Err: err}
	}

	if err := os.Rename(tmp.Name(), m.path(spec.Name)); err != nil {
		return &meeting.Error{Kind: meeting.ModelUnavailable, Msg: "placing " + spec.Name, Err: err}
	}

	m.Log.Info("model ready", "name", spec.Name, "bytes", written)
	return nil
}

// Validate reports models that are absent and models whose size does not
// match their spec.
func (m *Manager) Validate() (missing, invalid []string, err error) {
	for _, spec := range m.Specs {
		info, statErr := os.Stat(m.path(spec.Name))
		switch {
		case statErr != nil:
			missing = append(missing, spec.Name)
		case spec.Size > 0 && info.Size() != spec.Size:
			invalid = append(invalid, fmt.Sprintf("%s (got %d bytes, want %d)", spec.Name, info.Size(), spec.Size))
		}
	}
	return missing, invalid, nil
}

// Remove deletes the named models. Unknown names are ignored; a missing file
// is not an error.
func (m *Manager) Remove(names []string) error {
	known := make(map[string]bool, len(m.Specs))
	for _, spec := range m.Specs {
		known[spec.Name] = true
	}

	for _, name := range names {
		if !known[name] {
			m.Log.Warn("skipping unknown model", "name", name)
			continue
		}
		if err := os.Remove(m.path(name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
		m.Log.Info("model removed", "name", name)
	}
	return nil
}
