package main

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wippyai/svg-raster/host"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	scaleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	scaleStep = 0.25
	minScale  = 0.25
	maxScale  = 32
)

type interactiveModel struct {
	err       error
	renderer  *host.Renderer
	last      *renderedMsg
	cfg       Config
	files     []string
	spinner   spinner.Model
	selected  int
	rendering bool
}

type renderedMsg struct {
	err    error
	file   string
	dest   string
	scale  float64
	width  int
	height int
	bytes  int
}

func newInteractiveModel(r *host.Renderer, files []string, cfg Config) *interactiveModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &interactiveModel{
		renderer: r,
		files:    files,
		cfg:      cfg,
		spinner:  sp,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.files)-1 {
				m.selected++
			}

		case "+", "=":
			m.cfg.Scale = min(m.cfg.Scale+scaleStep, maxScale)

		case "-", "_":
			m.cfg.Scale = max(m.cfg.Scale-scaleStep, minScale)

		case "enter":
			if m.rendering {
				return m, nil
			}
			m.rendering = true
			return m, tea.Batch(m.spinner.Tick, m.render(m.files[m.selected], m.cfg.Scale))
		}

	case renderedMsg:
		m.rendering = false
		m.last = &msg

	case spinner.TickMsg:
		if !m.rendering {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// render returns a command that renders file at scale and writes the
// result where batch mode would.
func (m *interactiveModel) render(file string, scale float64) tea.Cmd {
	r, output, count := m.renderer, m.cfg.Output, len(m.files)
	return func() tea.Msg {
		res := renderedMsg{file: file, scale: scale}

		svg, err := os.ReadFile(file)
		if err != nil {
			res.err = err
			return res
		}
		out, err := r.Render(context.Background(), svg, scale)
		if err != nil {
			res.err = err
			return res
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(out))
		if err != nil {
			res.err = err
			return res
		}
		res.width, res.height, res.bytes = cfg.Width, cfg.Height, len(out)

		if res.dest, err = outputPath(output, file, count); err != nil {
			res.err = err
			return res
		}
		res.err = os.WriteFile(res.dest, out, 0o644)
		return res
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SVG Raster"))
	b.WriteString(" ")
	b.WriteString(scaleStyle.Render(fmt.Sprintf("scale %.2fx", m.cfg.Scale)))
	b.WriteString("\n\n")

	for i, f := range m.files {
		line := filepath.Base(f)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + fileStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.rendering:
		b.WriteString(m.spinner.View())
		b.WriteString(" rendering...")
	case m.last != nil && m.last.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s: %v", filepath.Base(m.last.file), m.last.err)))
	case m.last != nil:
		b.WriteString(resultStyle.Render(fmt.Sprintf("%s -> %s (%dx%d, %s at %.2fx)",
			filepath.Base(m.last.file), m.last.dest, m.last.width, m.last.height,
			humanize.Bytes(uint64(m.last.bytes)), m.last.scale)))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ select • +/- scale • enter render • q quit"))

	return b.String()
}

func runInteractive(r *host.Renderer, files []string, cfg Config) error {
	p := tea.NewProgram(newInteractiveModel(r, files, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
