package main

import (
	"bytes"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		output  string
		input   string
		count   int
		want    string
		wantErr bool
	}{
		{"next to input", "", "art/logo.svg", 1, filepath.Join("art", "logo.png"), false},
		{"no extension", "", "logo", 1, "logo.png", false},
		{"stdout", "-", "logo.svg", 1, "-", false},
		{"trailing slash", "out/", "art/logo.svg", 2, filepath.Join("out", "logo.png"), false},
		{"existing dir", dir, "art/logo.svg", 3, filepath.Join(dir, "logo.png"), false},
		{"explicit file", "x.png", "logo.svg", 1, "x.png", false},
		{"file for many inputs", "x.png", "logo.svg", 2, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outputPath(tt.output, tt.input, tt.count)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("outputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "scale: 3\nsans_serif: Custom\nfonts: [a.ttf]\nmax_surface_pixels: 1000\ncache_size: 8\n")
	unknown := writeFile(t, dir, "unknown.yaml", "scael: 3\n")

	t.Run("file values", func(t *testing.T) {
		f, err := parseFlags([]string{"-c", good, "in.svg"}, io.Discard)
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := f.config()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Scale != 3 || cfg.SansSerif != "Custom" || cfg.Monospace != embeddedMonospace || cfg.MaxSurfacePixels != 1000 || cfg.CacheSize != 8 {
			t.Errorf("config = %+v", cfg)
		}
	})

	t.Run("flags override file", func(t *testing.T) {
		f, err := parseFlags([]string{"-c", good, "-s", "0.5", "--sans-serif", "Flag", "-f", "b.ttf", "in.svg"}, io.Discard)
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := f.config()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Scale != 0.5 || cfg.SansSerif != "Flag" {
			t.Errorf("scale=%v sans=%q", cfg.Scale, cfg.SansSerif)
		}
		if len(cfg.Fonts) != 2 || cfg.Fonts[0] != "a.ttf" || cfg.Fonts[1] != "b.ttf" {
			t.Errorf("fonts = %v", cfg.Fonts)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		if _, err := loadConfig(unknown); err == nil {
			t.Error("loadConfig accepted an unknown key")
		}
	})

	t.Run("bad scale", func(t *testing.T) {
		f, err := parseFlags([]string{"-s", "0", "in.svg"}, io.Discard)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.config(); err == nil {
			t.Error("config accepted scale 0")
		}
	})
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "square.svg", `<svg width='2' height='2'><rect width='2' height='2' fill='red'/></svg>`)
	out := filepath.Join(dir, "square-out.png")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-o", out, "-s", "2", in}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 4 || cfg.Height != 4 {
		t.Errorf("size = %dx%d, want 4x4", cfg.Width, cfg.Height)
	}
}

func TestRun_Stdout(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "text.svg",
		`<svg width='40' height='20'><text x='2' y='15' font-family='sans-serif'>Hi</text></svg>`)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-o", "-", in}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if _, err := png.Decode(&stdout); err != nil {
		t.Errorf("stdout is not a PNG: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	zero := writeFile(t, dir, "zero.svg", `<svg width='0' height='5'/>`)
	ok := writeFile(t, dir, "ok.svg", `<svg width='1' height='1'/>`)

	tests := []struct {
		name string
		args []string
		code int
		text string
	}{
		{"no inputs", nil, 2, "no input files"},
		{"unknown flag", []string{"--nope"}, 2, "unknown flag"},
		{"zero dimensions", []string{zero}, 1, "zero dimensions"},
		{"missing file", []string{filepath.Join(dir, "missing.svg")}, 1, "missing.svg"},
		{"stdout with many inputs", []string{"-o", "-", ok, ok}, 2, "only one input"},
		{"missing guest", []string{"--wasm", filepath.Join(dir, "none.wasm"), ok}, 1, "read guest"},
		{"watch to stdout", []string{"--watch", "-o", "-", ok}, 2, "cannot write to stdout"},
		{"watch and interactive", []string{"-w", "-i", ok}, 2, "cannot be combined"},
		{"negative cache", []string{"--cache-size", "-1", ok}, 2, "cache_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Fatalf("exit %d, want %d: %s", code, tt.code, stderr.String())
			}
			if !strings.Contains(stderr.String(), tt.text) {
				t.Errorf("stderr %q does not mention %q", stderr.String(), tt.text)
			}
		})
	}
}

func TestRun_Verbose(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "square.svg", `<svg width='2' height='2'/>`)

	var stderr bytes.Buffer
	if code := run([]string{"-v", "--cache-size", "4", in}, io.Discard, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	want := "square.svg -> " + filepath.Join(dir, "square.png")
	if !strings.Contains(stderr.String(), want) || !strings.Contains(stderr.String(), " B)") {
		t.Errorf("stderr %q does not report %q with a size", stderr.String(), want)
	}
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	if code := run([]string{"--version"}, &stdout, io.Discard); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout.String(), version) {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestInteractiveModel(t *testing.T) {
	m := newInteractiveModel(nil, []string{"a.svg", "b.svg"}, defaultConfig())

	keys := func(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

	m.Update(keys("+"))
	m.Update(keys("+"))
	if m.cfg.Scale != 1.5 {
		t.Errorf("scale after ++ = %v, want 1.5", m.cfg.Scale)
	}
	for range 10 {
		m.Update(keys("-"))
	}
	if m.cfg.Scale != minScale {
		t.Errorf("scale floor = %v, want %v", m.cfg.Scale, minScale)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}

	m.Update(renderedMsg{file: "b.svg", dest: "b.png", scale: 1, width: 4, height: 4, bytes: 70})
	if v := m.View(); !strings.Contains(v, "4x4") || !strings.Contains(v, "b.png") {
		t.Errorf("view does not show the result:\n%s", v)
	}

	_, cmd := m.Update(keys("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
