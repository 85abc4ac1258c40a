package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/wippyai/svg-raster/host"
)

// watch renders every file once and then again whenever one of them is
// written or replaced, until ctx is done. Directories are watched rather
// than files so editors that save through a rename are still seen.
func watch(ctx context.Context, r *host.Renderer, files []string, cfg Config, stderr io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	targets := make(map[string]string, len(files))
	dirs := make(map[string]struct{})
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		targets[abs] = file
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	render := func(file string) {
		dest, size, err := renderFile(ctx, r, file, cfg, len(files), nil)
		report(stderr, file, dest, size, err, true)
	}
	for _, file := range files {
		render(file)
	}
	fmt.Fprintf(stderr, "watching %d file(s), press Ctrl+C to stop\n", len(files))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if file, ok := watched(ev, targets); ok {
				render(file)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "Error: watch: %v\n", err)
		}
	}
}

// watched reports whether ev changes one of targets, and which input it is.
func watched(ev fsnotify.Event, targets map[string]string) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return "", false
	}
	file, ok := targets[filepath.Clean(ev.Name)]
	return file, ok
}
