package abi

import (
	"regexp"
	"strings"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/svg-raster/errors"
)

// Export names of the guest module.
const (
	Allocate         = "alloc_mem"
	Release          = "dealloc_mem"
	FontInit         = "font_db_init"
	FontSetSansSerif = "font_db_set_sans_serif"
	FontSetMonospace = "font_db_set_monospace"
	FontAdd          = "font_db_add"
	Render           = "render"
	ResultAddress    = "result_ptr"
	ResultLength     = "result_len"
	ErrorAddress     = "error_ptr"
	ErrorLength      = "error_len"
)

// Status codes returned by fallible operations.
const (
	StatusOK    int32 = 0
	StatusError int32 = -1
)

// WIT describes every export as a WIT function type. Addresses and lengths
// are u32, the render scale is the raw bit pattern of an f64 passed as u64.
const WIT = `interface svg-raster {
	alloc_mem: func(size: u32) -> u32;
	dealloc_mem: func(addr: u32, size: u32);
	font_db_init: func();
	font_db_set_sans_serif: func(addr: u32, len: u32) -> s32;
	font_db_set_monospace: func(addr: u32, len: u32) -> s32;
	font_db_add: func(addr: u32, len: u32) -> s32;
	render: func(addr: u32, len: u32, scale-bits: u64) -> s32;
	result_ptr: func() -> u32;
	result_len: func() -> u32;
	error_ptr: func() -> u32;
	error_len: func() -> u32;
}`

// Names lists the exports in declaration order.
var Names = []string{
	Allocate, Release,
	FontInit, FontSetSansSerif, FontSetMonospace, FontAdd,
	Render,
	ResultAddress, ResultLength, ErrorAddress, ErrorLength,
}

// Signature is the parsed type of one export.
type Signature struct {
	Name    string
	Params  []wit.Type
	Results []wit.Type
}

var (
	signatures     map[string]*Signature
	signaturesErr  error
	signaturesOnce sync.Once
)

// Signatures returns the parsed WIT signature of every export, keyed by name.
func Signatures() (map[string]*Signature, error) {
	signaturesOnce.Do(func() {
		signatures, signaturesErr = parseFunctions(WIT)
	})
	return signatures, signaturesErr
}

// Lookup returns the signature of one export.
func Lookup(name string) (*Signature, error) {
	sigs, err := Signatures()
	if err != nil {
		return nil, err
	}
	sig, ok := sigs[name]
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseLoad, "unknown export "+name)
	}
	return sig, nil
}

var funcPattern = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

// parseFunctions extracts "name: func(params) -> result" declarations.
func parseFunctions(text string) (map[string]*Signature, error) {
	funcs := make(map[string]*Signature)

	for _, match := range funcPattern.FindAllStringSubmatch(text, -1) {
		sig := &Signature{Name: match[1]}

		if params := strings.TrimSpace(match[2]); params != "" {
			for _, p := range strings.Split(params, ",") {
				typ := p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					typ = p[idx+1:]
				}
				t, err := wit.ParseType(strings.TrimSpace(typ))
				if err != nil {
					return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "parse param type "+typ)
				}
				sig.Params = append(sig.Params, t)
			}
		}

		if result := strings.TrimSpace(match[3]); result != "" {
			t, err := wit.ParseType(result)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "parse result type "+result)
			}
			sig.Results = []wit.Type{t}
		}

		funcs[sig.Name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "no functions found in WIT text")
	}
	return funcs, nil
}
