// Package inbox watches a drop directory for new audio files and hands each
// one to a processing callback, serially. One file is fully processed before
// the next starts, so vault writes never race.
package inbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// audioExts are the file types the watcher picks up.
var audioExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".mp4":  true,
	".mkv":  true,
	".webm": true,
}

// settleDelay is how long a file must be untouched before it is considered
// fully written. Recorders and sync clients write large files in bursts.
const settleDelay = 2 * time.Second

// Watcher monitors one directory and queues new audio files for processing.
type Watcher struct {
	Dir     string
	Process func(ctx context.Context, path string) error
	Log     hclog.Logger
}

// Run watches until the context is cancelled. Files already present in the
// directory at startup are queued first.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.Dir); err != nil {
		return err
	}

	queue := make(chan string, 64)

	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return err
	}
	go func() {
		for _, e := range entries {
			if e.IsDir() || !isAudio(e.Name()) {
				continue
			}
			select {
			case queue <- filepath.Join(w.Dir, e.Name()):
			case <-ctx.Done():
				return
			}
		}
	}()

	go w.collect(ctx, watcher, queue)

	w.Log.Info("watching inbox", "dir", w.Dir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path := <-queue:
			if err := w.handle(ctx, path); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.Log.Error("processing failed", "file", path, "error", err)
			}
		}
	}
}

// collect turns filesystem events into queue entries, waiting for each file
// to settle before queueing it.
func (w *Watcher) collect(ctx context.Context, watcher *fsnotify.Watcher, queue chan<- string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isAudio(event.Name) {
				continue
			}
			go func(path string) {
				if !w.settled(ctx, path) {
					return
				}
				select {
				case queue <- path:
				case <-ctx.Done():
				}
			}(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.Log.Warn("watch error", "error", err)
		}
	}
}

// settled waits until path's size stops changing, or reports false when the
// file disappears or the context ends.
func (w *Watcher) settled(ctx context.Context, path string) bool {
	var lastSize int64 = -1
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(settleDelay):
		}

		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()
	}
}

func (w *Watcher) handle(ctx context.Context, path string) error {
	w.Log.Info("new recording", "file", path)
	return w.Process(ctx, path)
}

func isAudio(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	return audioExts[strings.ToLower(filepath.Ext(name))]
}
