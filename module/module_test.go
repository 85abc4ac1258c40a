package module

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/wippyai/svg-raster/abi"
	rterrors "github.com/wippyai/svg-raster/errors"
	"github.com/wippyai/svg-raster/fontdb"
)

func newModule(t *testing.T) *Module {
	t.Helper()
	m := New(Config{MemoryLimitPages: 256})
	m.FontInit()
	return m
}

// stage copies data into freshly allocated module memory.
func stage(t *testing.T, m *Module, data []byte) (uint32, uint32) {
	t.Helper()
	n := uint32(len(data))
	addr := m.Allocate(n)
	if err := m.Memory().Write(addr, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return addr, n
}

func render(t *testing.T, m *Module, svg string, scale float64) int32 {
	t.Helper()
	addr, n := stage(t, m, []byte(svg))
	defer m.Release(addr, n)
	return m.Render(addr, n, math.Float64bits(scale))
}

func errorText(t *testing.T, m *Module) string {
	t.Helper()
	b, err := m.Memory().Read(m.ErrorAddress(), m.ErrorLength())
	if err != nil {
		t.Fatalf("reading error buffer: %v", err)
	}
	return string(b)
}

func resultPNG(t *testing.T, m *Module) []byte {
	t.Helper()
	b, err := m.Memory().Read(m.ResultAddress(), m.ResultLength())
	if err != nil {
		t.Fatalf("reading result buffer: %v", err)
	}
	return bytes.Clone(b)
}

func wantKind(t *testing.T, m *Module, kind rterrors.Kind) {
	t.Helper()
	got := rterrors.FromMessage(errorText(t, m))
	if got.Kind != kind {
		t.Errorf("error kind = %q, want %q (message %q)", got.Kind, kind, errorText(t, m))
	}
}

func TestRender_Sizes(t *testing.T) {
	tests := []struct {
		name  string
		svg   string
		scale float64
		w, h  int
	}{
		{"doubled", `<svg width='2' height='2'/>`, 2.0, 4, 4},
		{"unit", `<svg xmlns='http://www.w3.org/2000/svg' width='7' height='3'/>`, 1.0, 7, 3},
		{"fractional rounds up", `<svg width='5' height='1'/>`, 0.5, 3, 1},
		{"viewBox only", `<svg viewBox='0 0 20 10'/>`, 1.0, 20, 10},
		{"physical units", `<svg width='1in' height='0.5in'/>`, 1.0, 96, 48},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModule(t)
			if st := render(t, m, tt.svg, tt.scale); st != abi.StatusOK {
				t.Fatalf("Render = %d, error %q", st, errorText(t, m))
			}
			if m.ErrorLength() != 0 {
				t.Errorf("error buffer not empty after success: %q", errorText(t, m))
			}
			img, err := png.Decode(bytes.NewReader(resultPNG(t, m)))
			if err != nil {
				t.Fatalf("result is not a PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.w || b.Dy() != tt.h {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.w, tt.h)
			}
		})
	}
}

func TestRender_Failures(t *testing.T) {
	tests := []struct {
		name  string
		svg   string
		scale float64
		kind  rterrors.Kind
		text  string
	}{
		{"zero width", `<svg width='0' height='5'/>`, 1.0, rterrors.KindEmptyOutput, "zero dimensions"},
		{"zero scale", `<svg width='4' height='4'/>`, 0, rterrors.KindEmptyOutput, "zero dimensions"},
		{"negative scale", `<svg width='4' height='4'/>`, -1, rterrors.KindEmptyOutput, "zero dimensions"},
		{"NaN scale", `<svg width='4' height='4'/>`, math.NaN(), rterrors.KindEmptyOutput, "zero dimensions"},
		{"malformed", `<svg width='4'`, 1.0, rterrors.KindParseError, ""},
		{"wrong root", `<html/>`, 1.0, rterrors.KindParseError, ""},
		{"negative size", `<svg width='-4' height='4'/>`, 1.0, rterrors.KindParseError, ""},
		{"huge surface", `<svg width='100000' height='100000'/>`, 1.0, rterrors.KindSurfaceAllocation, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModule(t)
			if st := render(t, m, tt.svg, tt.scale); st != abi.StatusError {
				t.Fatalf("Render = %d, want %d", st, abi.StatusError)
			}
			if m.ResultLength() != 0 || m.ResultAddress() != 0 {
				t.Errorf("result buffer = (%#x, %d), want empty", m.ResultAddress(), m.ResultLength())
			}
			wantKind(t, m, tt.kind)
			if tt.text != "" && !strings.Contains(errorText(t, m), tt.text) {
				t.Errorf("error %q does not mention %q", errorText(t, m), tt.text)
			}
		})
	}
}

func TestRender_SurfaceLimit(t *testing.T) {
	m := New(Config{MemoryLimitPages: 256, MaxSurfacePixels: 10})
	m.FontInit()

	if st := render(t, m, `<svg width='2' height='2'/>`, 2.0); st != abi.StatusError {
		t.Fatalf("Render = %d, want error for 16 pixels over a limit of 10", st)
	}
	wantKind(t, m, rterrors.KindSurfaceAllocation)

	if st := render(t, m, `<svg width='3' height='3'/>`, 1.0); st != abi.StatusOK {
		t.Fatalf("Render under the limit = %d: %s", st, errorText(t, m))
	}
}

func TestRender_NotInitialized(t *testing.T) {
	m := New(Config{MemoryLimitPages: 256})
	if st := render(t, m, `<svg width='2' height='2'/>`, 1.0); st != abi.StatusError {
		t.Fatalf("Render before init = %d, want error", st)
	}
	wantKind(t, m, rterrors.KindNotInitialized)
	if !strings.Contains(errorText(t, m), "not initialized") {
		t.Errorf("error = %q", errorText(t, m))
	}
}

func TestRender_OutOfBounds(t *testing.T) {
	m := newModule(t)
	addr := m.Memory().Base() + m.Memory().Size() - 2
	if st := m.Render(addr, 16, math.Float64bits(1)); st != abi.StatusError {
		t.Fatalf("Render past memory = %d, want error", st)
	}
	wantKind(t, m, rterrors.KindOutOfBounds)
}

func TestInvalidUTF8(t *testing.T) {
	bad := []byte{'<', 's', 0xff, 0xfe}

	tests := []struct {
		name string
		call func(m *Module, addr, n uint32) int32
	}{
		{"render", func(m *Module, addr, n uint32) int32 { return m.Render(addr, n, math.Float64bits(1)) }},
		{"sans-serif", (*Module).FontSetSansSerif},
		{"monospace", (*Module).FontSetMonospace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModule(t)
			addr, n := stage(t, m, bad)
			defer m.Release(addr, n)

			if st := tt.call(m, addr, n); st != abi.StatusError {
				t.Fatalf("status = %d, want error", st)
			}
			wantKind(t, m, rterrors.KindInvalidUTF8)
			if !strings.Contains(errorText(t, m), "byte 2") {
				t.Errorf("error %q should name byte 2", errorText(t, m))
			}

			lease, err := m.Fonts().Borrow()
			if err != nil {
				t.Fatal(err)
			}
			defer lease.Release()
			if got := lease.Family(fontdb.SansSerif); got != "Arial" {
				t.Errorf("sans-serif family changed to %q", got)
			}
			if got := lease.Family(fontdb.Monospace); got != "Courier New" {
				t.Errorf("monospace family changed to %q", got)
			}
		})
	}
}

func TestFonts_BeforeInit(t *testing.T) {
	m := New(Config{MemoryLimitPages: 256})
	name := []byte("Go")
	addr, n := stage(t, m, name)
	defer m.Release(addr, n)

	for _, call := range []func(uint32, uint32) int32{m.FontSetSansSerif, m.FontSetMonospace, m.FontAdd} {
		if st := call(addr, n); st != abi.StatusError {
			t.Fatalf("font op before init = %d, want error", st)
		}
		wantKind(t, m, rterrors.KindNotInitialized)
	}
}

func TestFonts_SetAndReinit(t *testing.T) {
	m := newModule(t)

	fontAddr, fontLen := stage(t, m, goregular.TTF)
	if st := m.FontAdd(fontAddr, fontLen); st != abi.StatusOK {
		t.Fatalf("FontAdd = %d: %s", st, errorText(t, m))
	}
	m.Release(fontAddr, fontLen)

	nameAddr, nameLen := stage(t, m, []byte("Go"))
	defer m.Release(nameAddr, nameLen)
	if st := m.FontSetSansSerif(nameAddr, nameLen); st != abi.StatusOK {
		t.Fatalf("FontSetSansSerif = %d", st)
	}
	if st := m.FontSetMonospace(nameAddr, nameLen); st != abi.StatusOK {
		t.Fatalf("FontSetMonospace = %d", st)
	}

	lease, err := m.Fonts().Borrow()
	if err != nil {
		t.Fatal(err)
	}
	if lease.Len() != 1 || lease.Family(fontdb.SansSerif) != "Go" || lease.Family(fontdb.Monospace) != "Go" {
		t.Errorf("after setup: len=%d sans=%q mono=%q", lease.Len(),
			lease.Family(fontdb.SansSerif), lease.Family(fontdb.Monospace))
	}
	lease.Release()

	svg := `<svg width='80' height='40'>` +
		`<text x='2' y='32' font-family='Go' font-size='30'>H</text>` +
		`<text x='40' y='32' font-family='sans-serif' font-size='30'>H</text></svg>`
	if st := render(t, m, svg, 1.0); st != abi.StatusOK {
		t.Fatalf("Render = %d: %s", st, errorText(t, m))
	}
	if !inked(t, m) {
		t.Fatal("text with the loaded font rendered no pixels")
	}

	m.FontInit()
	if st := render(t, m, svg, 1.0); st != abi.StatusOK {
		t.Fatalf("Render after re-init = %d: %s", st, errorText(t, m))
	}
	if inked(t, m) {
		t.Error("render after re-init still drew text with the discarded font")
	}

	lease, err = m.Fonts().Borrow()
	if err != nil {
		t.Fatal(err)
	}
	defer lease.Release()
	if lease.Len() != 0 {
		t.Errorf("re-init kept %d faces", lease.Len())
	}
	if got := lease.Family(fontdb.SansSerif); got != "Arial" {
		t.Errorf("re-init kept sans-serif family %q", got)
	}
}

func TestFonts_Garbage(t *testing.T) {
	m := newModule(t)
	addr, n := stage(t, m, []byte("definitely not a font"))
	defer m.Release(addr, n)

	if st := m.FontAdd(addr, n); st != abi.StatusOK {
		t.Fatalf("FontAdd(garbage) = %d, want ok", st)
	}
	lease, _ := m.Fonts().Borrow()
	defer lease.Release()
	if lease.Len() != 0 {
		t.Errorf("garbage added %d faces", lease.Len())
	}
}

func TestFonts_FailureKeepsResult(t *testing.T) {
	m := newModule(t)
	if st := render(t, m, `<svg width='2' height='2'/>`, 1.0); st != abi.StatusOK {
		t.Fatalf("Render = %d", st)
	}
	want := resultPNG(t, m)

	bad := []byte{0xc3}
	addr, n := stage(t, m, bad)
	defer m.Release(addr, n)
	if st := m.FontSetSansSerif(addr, n); st != abi.StatusError {
		t.Fatalf("FontSetSansSerif = %d, want error", st)
	}
	if !bytes.Equal(resultPNG(t, m), want) {
		t.Error("font failure changed the result buffer")
	}
	if m.ErrorLength() == 0 {
		t.Error("font failure left no error message")
	}
}

func TestFonts_Contention(t *testing.T) {
	m := newModule(t)
	lease, err := m.Fonts().Borrow()
	if err != nil {
		t.Fatal(err)
	}

	addr, n := stage(t, m, []byte("Go"))
	defer m.Release(addr, n)
	if st := m.FontSetSansSerif(addr, n); st != abi.StatusError {
		t.Fatalf("mutation during lease = %d, want error", st)
	}
	wantKind(t, m, rterrors.KindContention)

	lease.Release()
	lease.Release()
	if st := m.FontSetSansSerif(addr, n); st != abi.StatusOK {
		t.Fatalf("mutation after release = %d: %s", st, errorText(t, m))
	}
	if s := m.Fonts().State(); s != fontdb.StateIdle {
		t.Errorf("state = %v, want idle", s)
	}
}

func TestRender_ClearsPreviousError(t *testing.T) {
	m := newModule(t)
	if st := render(t, m, `<svg width='0' height='5'/>`, 1.0); st != abi.StatusError {
		t.Fatal("expected failure")
	}
	if m.ErrorLength() == 0 {
		t.Fatal("no error message")
	}
	if st := render(t, m, `<svg width='1' height='1'/>`, 1.0); st != abi.StatusOK {
		t.Fatalf("Render = %d", st)
	}
	if m.ErrorLength() != 0 || m.ErrorAddress() != 0 {
		t.Errorf("error buffer = (%#x, %d), want empty", m.ErrorAddress(), m.ErrorLength())
	}
}

func TestRender_Text(t *testing.T) {
	m := newModule(t)
	fontAddr, fontLen := stage(t, m, goregular.TTF)
	if st := m.FontAdd(fontAddr, fontLen); st != abi.StatusOK {
		t.Fatalf("FontAdd = %d", st)
	}
	m.Release(fontAddr, fontLen)

	name := []byte("Go")
	nameAddr, nameLen := stage(t, m, name)
	m.FontSetSansSerif(nameAddr, nameLen)
	m.Release(nameAddr, nameLen)

	svg := `<svg width='40' height='40'><text x='2' y='32' font-family='sans-serif' font-size='30'>H</text></svg>`
	if st := render(t, m, svg, 1.0); st != abi.StatusOK {
		t.Fatalf("Render = %d: %s", st, errorText(t, m))
	}
	if !inked(t, m) {
		t.Error("text rendered no pixels")
	}
}

// inked reports whether the last render result has any non-transparent pixel.
func inked(t *testing.T, m *Module) bool {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(resultPNG(t, m)))
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				return true
			}
		}
	}
	return false
}

func TestRender_TinyDashes(t *testing.T) {
	m := newModule(t)

	svg := `<svg width='10' height='10'><line x1='0' y1='0' x2='5' y2='5' stroke='red' stroke-dasharray='1e-300'/></svg>`
	if st := render(t, m, svg, 1.0); st != abi.StatusOK {
		t.Fatalf("Render = %d: %s", st, errorText(t, m))
	}
	if st := render(t, m, `<svg width='2' height='2'/>`, 2.0); st != abi.StatusOK {
		t.Fatalf("Render after tiny dashes = %d: %s", st, errorText(t, m))
	}
}

func TestAllocator(t *testing.T) {
	m := newModule(t)

	zero := m.Allocate(0)
	if zero == 0 {
		t.Error("zero-size allocation returned null")
	}
	m.Release(zero, 0)

	a := m.Allocate(32)
	b := m.Allocate(32)
	if a == 0 || b == 0 || a == b {
		t.Fatalf("allocations %#x and %#x", a, b)
	}

	t.Run("size mismatch panics", func(t *testing.T) {
		defer func() {
			r := recover()
			err, ok := r.(error)
			if !ok {
				t.Fatalf("recovered %v, want an error", r)
			}
			if !errors.Is(err, &rterrors.Error{Phase: rterrors.PhaseMemory, Kind: rterrors.KindSizeMismatch}) {
				t.Errorf("panic = %v, want size_mismatch", err)
			}
		}()
		m.Release(a, 16)
	})

	m.Release(a, 32)
	m.Release(b, 32)

	render(t, m, `<svg width='1' height='1'/>`, 1.0)
	if live := m.Arena().Live(); live != 1 {
		t.Errorf("live allocations = %d, want only the result buffer", live)
	}
}

func TestAllocator_OutOfMemory(t *testing.T) {
	m := New(Config{MemoryLimitPages: 2})
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, &rterrors.Error{Phase: rterrors.PhaseMemory, Kind: rterrors.KindAllocation}) {
			t.Fatalf("recovered %v, want allocation failure", r)
		}
	}()
	m.Allocate(3 * 64 * 1024)
}

func TestPixels(t *testing.T) {
	tests := []struct {
		in   float64
		want uint32
	}{
		{0, 0},
		{-3, 0},
		{math.NaN(), 0},
		{math.Inf(-1), 0},
		{0.01, 1},
		{2, 2},
		{2.0000001, 3},
		{math.Inf(1), math.MaxUint32},
		{1e12, math.MaxUint32},
	}
	for _, tt := range tests {
		if got := pixels(tt.in); got != tt.want {
			t.Errorf("pixels(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
