package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatched(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "logo.svg")
	targets := map[string]string{target: "logo.svg"}

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		{"unclean path", fsnotify.Event{Name: dir + "/./logo.svg", Op: fsnotify.Write}, true},
		{"chmod", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: target, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "other.svg"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, ok := watched(tt.ev, targets)
			if ok != tt.want {
				t.Fatalf("watched = %v, want %v", ok, tt.want)
			}
			if ok && file != "logo.svg" {
				t.Errorf("file = %q, want the input name", file)
			}
		})
	}
}

// syncBuffer lets the test read what the watch goroutine writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "square.svg", `<svg width='2' height='2'/>`)
	out := filepath.Join(dir, "square.png")
	exists := func() bool {
		_, err := os.Stat(out)
		return err == nil
	}

	cfg := defaultConfig()
	ctx, cancel := context.WithCancel(context.Background())
	r, err := newRenderer(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close(context.Background())

	var stderr syncBuffer
	done := make(chan error, 1)
	go func() { done <- watch(ctx, r, []string{in}, cfg, &stderr) }()

	waitFor(t, "initial render", exists)
	if err := os.Remove(out); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "square.svg", `<svg width='3' height='3'/>`)
	waitFor(t, "render after write", exists)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	if !bytes.Contains([]byte(stderr.String()), []byte("watching 1 file")) {
		t.Errorf("stderr = %q", stderr.String())
	}
}
