package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseParse,
				Kind:   KindParseError,
				Path:   []string{"svg", "g", "path"},
				Detail: "unexpected command",
			},
			contains: []string{"[parse]", "parse_error", "svg.g.path", "unexpected command"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseMemory,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[memory]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindEncodingError,
				Detail: "png encode failed",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[encode]", "encoding_error", "png encode failed", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindEncodingError,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseFonts,
		Kind:  KindNotInitialized,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseFonts, Kind: KindNotInitialized}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindNotInitialized}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseFonts, Kind: KindContention}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseFonts, Kind: KindNotInitialized}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseParse, KindParseError).
		Path("svg", "rect").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "length", "word").
		Build()

	if err.Phase != PhaseParse {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseParse)
	}
	if err.Kind != KindParseError {
		t.Errorf("Kind = %v, want %v", err.Kind, KindParseError)
	}
	if len(err.Path) != 2 || err.Path[0] != "svg" || err.Path[1] != "rect" {
		t.Errorf("Path = %v, want [svg rect]", err.Path)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected length, got word" {
		t.Errorf("Detail = %v, want 'expected length, got word'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("InvalidUTF8", func(t *testing.T) {
		err := InvalidUTF8(PhaseDecode, nil, []byte{'o', 'k', 0xff, 0xfe})
		if err.Kind != KindInvalidUTF8 {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidUTF8)
		}
		if err.Value != 2 {
			t.Errorf("Value = %v, want index 2", err.Value)
		}
		if !strings.Contains(err.Detail, "byte 2") {
			t.Errorf("Detail = %q, should name byte 2", err.Detail)
		}
	})

	t.Run("NotInitialized", func(t *testing.T) {
		err := NotInitialized(PhaseFonts, "font database")
		if err.Kind != KindNotInitialized {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotInitialized)
		}
		if err.Detail != "font database not initialized" {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("Contention", func(t *testing.T) {
		err := Contention(PhaseFonts, "font database", 2)
		if err.Kind != KindContention || err.Value != uint32(2) {
			t.Errorf("Kind=%v Value=%v", err.Kind, err.Value)
		}
	})

	t.Run("EmptyOutput", func(t *testing.T) {
		err := EmptyOutput(0, 5)
		if err.Kind != KindEmptyOutput {
			t.Errorf("Kind = %v, want %v", err.Kind, KindEmptyOutput)
		}
		if !strings.Contains(err.Detail, "zero dimensions") {
			t.Errorf("Detail = %q, should mention zero dimensions", err.Detail)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseMemory, 1024, 8)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		err := SizeMismatch(PhaseMemory, 0x100, 3, 4)
		if err.Kind != KindSizeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindSizeMismatch)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseMemory, nil, 10, 5, 12)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != uint32(10) {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})
}

func TestFromMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		detail string
	}{
		{
			name:   "kind only",
			err:    &Error{Phase: PhaseLayout, Kind: KindEmptyOutput},
			detail: "",
		},
		{
			name:   "with detail",
			err:    EmptyOutput(0, 5),
			detail: "SVG has zero dimensions (0x5)",
		},
		{
			name:   "with path",
			err:    ParseFailed([]string{"svg", "path"}, "bad number", nil),
			detail: "bad number",
		},
		{
			name:   "with cause",
			err:    ParseFailed(nil, "malformed markup", errors.New("XML syntax error on line 1")),
			detail: "malformed markup (caused by: XML syntax error on line 1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromMessage(tt.err.Error())
			if !errors.Is(got, tt.err) {
				t.Fatalf("FromMessage(%q) = %+v, want phase %s kind %s", tt.err.Error(), got, tt.err.Phase, tt.err.Kind)
			}
			if got.Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", got.Detail, tt.detail)
			}
			if strings.Join(got.Path, ".") != strings.Join(tt.err.Path, ".") {
				t.Errorf("Path = %v, want %v", got.Path, tt.err.Path)
			}
		})
	}

	t.Run("foreign text", func(t *testing.T) {
		got := FromMessage("font_db not initialized")
		if got.Kind != KindGuestError || got.Phase != PhaseHost {
			t.Errorf("got %s/%s, want host/guest_error", got.Phase, got.Kind)
		}
		if got.Detail != "font_db not initialized" {
			t.Errorf("Detail = %q", got.Detail)
		}
	})
}

func TestMissingExportsError(t *testing.T) {
	t.Run("absent and mistyped", func(t *testing.T) {
		err := &MissingExportsError{Exports: []MissingExport{
			{Name: "render"},
			{Name: "alloc_mem", Reason: "params [i64], want [i32]"},
		}}
		msg := err.Error()
		for _, s := range []string{"2 unusable", "render: not exported", "alloc_mem: params"} {
			if !strings.Contains(msg, s) {
				t.Errorf("error %q should contain %q", msg, s)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		err := &MissingExportsError{}
		if !strings.Contains(err.Error(), "no exports specified") {
			t.Errorf("empty error should have specific message, got: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := &MissingExportsError{Exports: []MissingExport{{Name: "render"}}}
		if !errors.Is(err, &MissingExportsError{}) {
			t.Error("errors.Is should match MissingExportsError")
		}
	})
}
