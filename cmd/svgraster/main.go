// Command svgraster renders SVG files to PNG.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/svg-raster/fontdb"
	"github.com/wippyai/svg-raster/host"
	"github.com/wippyai/svg-raster/module"
	"github.com/wippyai/svg-raster/raster"
	"github.com/wippyai/svg-raster/scene"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type flags struct {
	set         *pflag.FlagSet
	output      string
	scale       float64
	fonts       []string
	sansSerif   string
	monospace   string
	configPath  string
	wasmPath    string
	cacheSize   int
	verbose     bool
	interactive bool
	watch       bool
	showVersion bool
	showHelp    bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{set: pflag.NewFlagSet("svgraster", pflag.ContinueOnError)}
	fs := f.set
	fs.SetOutput(stderr)
	fs.StringVarP(&f.output, "output", "o", "", "Output file or directory, - for stdout (default: input name with .png)")
	fs.Float64VarP(&f.scale, "scale", "s", 1, "Scale factor applied to the intrinsic size")
	fs.StringArrayVarP(&f.fonts, "font", "f", nil, "TrueType/OpenType font file to load (repeatable)")
	fs.StringVar(&f.sansSerif, "sans-serif", "", "Family used for sans-serif")
	fs.StringVar(&f.monospace, "monospace", "", "Family used for monospace")
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	fs.StringVar(&f.wasmPath, "wasm", "", "Run a compiled guest module under wazero instead of in-process")
	fs.IntVar(&f.cacheSize, "cache-size", 0, "Keep this many rendered PNGs in memory (0 disables the cache)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Log debug output to stderr")
	fs.BoolVarP(&f.interactive, "interactive", "i", false, "Interactive mode with TUI")
	fs.BoolVarP(&f.watch, "watch", "w", false, "Re-render inputs whenever they change")
	fs.BoolVar(&f.showVersion, "version", false, "Show version information")
	fs.BoolVarP(&f.showHelp, "help", "h", false, "Show help message")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// config loads the config file, if any, and applies explicitly set flags
// over it.
func (f *flags) config() (Config, error) {
	cfg := defaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = loadConfig(f.configPath); err != nil {
			return cfg, err
		}
	}

	fs := f.set
	if fs.Changed("output") {
		cfg.Output = f.output
	}
	if fs.Changed("scale") {
		cfg.Scale = f.scale
	}
	if fs.Changed("sans-serif") {
		cfg.SansSerif = f.sansSerif
	}
	if fs.Changed("monospace") {
		cfg.Monospace = f.monospace
	}
	if fs.Changed("wasm") {
		cfg.Wasm = f.wasmPath
	}
	if fs.Changed("cache-size") {
		cfg.CacheSize = f.cacheSize
	}
	cfg.Fonts = append(cfg.Fonts, f.fonts...)
	return cfg, cfg.validate()
}

func run(args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if f.showHelp {
		printHelp(stderr, f.set)
		return 0
	}
	if f.showVersion {
		fmt.Fprintf(stdout, "svgraster version %s\n", version)
		return 0
	}

	files := f.set.Args()
	if len(files) == 0 {
		fmt.Fprintln(stderr, "Error: no input files")
		printHelp(stderr, f.set)
		return 2
	}

	cfg, err := f.config()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if f.interactive && f.watch {
		fmt.Fprintln(stderr, "Error: --interactive and --watch cannot be combined")
		return 2
	}
	if cfg.Output == "-" && (f.interactive || f.watch) {
		fmt.Fprintln(stderr, "Error: interactive and watch modes cannot write to stdout")
		return 2
	}
	if cfg.Output == "-" && len(files) > 1 {
		fmt.Fprintln(stderr, "Error: only one input can be written to stdout")
		return 2
	}

	logger := newLogger(f.verbose, stderr)
	defer func() { _ = logger.Sync() }()
	setLoggers(logger)

	ctx := context.Background()
	r, err := newRenderer(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer r.Close(ctx)

	if f.interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(stderr, "Error: interactive mode needs a terminal")
			return 2
		}
		if err := runInteractive(r, files, cfg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if f.watch {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := watch(ctx, r, files, cfg, stderr); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	status := 0
	for _, file := range files {
		dest, size, err := renderFile(ctx, r, file, cfg, len(files), stdout)
		report(stderr, file, dest, size, err, f.verbose)
		if err != nil {
			status = 1
		}
	}
	return status
}

// report prints the outcome of one render. Successes are only shown when
// verbose is set.
func report(w io.Writer, file, dest string, size int, err error, verbose bool) {
	switch {
	case err != nil:
		fmt.Fprintf(w, "Error: %s: %v\n", file, err)
	case verbose && dest == "-":
		fmt.Fprintf(w, "%s -> stdout (%s)\n", file, humanize.Bytes(uint64(size)))
	case verbose:
		fmt.Fprintf(w, "%s -> %s (%s)\n", file, dest, humanize.Bytes(uint64(size)))
	}
}

func newRenderer(ctx context.Context, cfg Config) (*host.Renderer, error) {
	fonts, err := fontData(cfg)
	if err != nil {
		return nil, err
	}

	var ex host.Exports
	if cfg.Wasm != "" {
		wasm, err := os.ReadFile(cfg.Wasm)
		if err != nil {
			return nil, fmt.Errorf("read guest: %w", err)
		}
		ex, err = host.Load(ctx, wasm, host.Config{MemoryLimitPages: cfg.MemoryLimitPages, Stderr: os.Stderr})
		if err != nil {
			return nil, err
		}
	} else {
		ex = host.NewLocal(module.New(cfg.module()))
	}

	r, err := host.NewRenderer(ctx, ex, host.RendererConfig{
		SansSerif: cfg.SansSerif,
		Monospace: cfg.Monospace,
		Fonts:     fonts,
		CacheSize: cfg.CacheSize,
	})
	if err != nil {
		_ = ex.Close(ctx)
		return nil, err
	}
	return r, nil
}

// renderFile renders file and writes the PNG where outputPath says,
// returning the destination and the PNG size.
func renderFile(ctx context.Context, r *host.Renderer, file string, cfg Config, count int, stdout io.Writer) (string, int, error) {
	svg, err := os.ReadFile(file)
	if err != nil {
		return "", 0, err
	}
	out, err := r.Render(ctx, svg, cfg.Scale)
	if err != nil {
		return "", 0, err
	}

	dest, err := outputPath(cfg.Output, file, count)
	if err != nil {
		return "", 0, err
	}
	if dest == "-" {
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return "", 0, fmt.Errorf("refusing to write PNG to a terminal")
		}
		_, err := stdout.Write(out)
		return dest, len(out), err
	}
	return dest, len(out), os.WriteFile(dest, out, 0o644)
}

// outputPath picks where the PNG for input goes. An empty output writes
// next to the input, a directory (existing, or named with a trailing
// slash) receives one file per input, and anything else is a file name
// that only works for a single input.
func outputPath(output, input string, count int) (string, error) {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".png"
	switch {
	case output == "":
		return filepath.Join(filepath.Dir(input), name), nil
	case output == "-":
		return output, nil
	case strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)):
		return filepath.Join(output, name), nil
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, name), nil
	}
	if count > 1 {
		return "", fmt.Errorf("output %s is not a directory but %d inputs were given", output, count)
	}
	return output, nil
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

func setLoggers(l *zap.Logger) {
	module.SetLogger(l.Named("module"))
	fontdb.SetLogger(l.Named("fontdb"))
	scene.SetLogger(l.Named("scene"))
	raster.SetLogger(l.Named("raster"))
	host.SetLogger(l.Named("host"))
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: svgraster [flags] file.svg...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render SVG files to PNG. The Go fonts are built in and used for")
	fmt.Fprintln(w, "sans-serif and monospace unless configured otherwise.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
