// Package tui renders the live spectrum in the terminal using Bubble Tea.
package tui

import (
	"fmt"
	"strings"
	"time"

	"spectra/internal/analysis"
	"spectra/internal/config"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065"))

	peakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E05252")).
			Bold(true)
)

// keyMap defines the spectrum view key bindings.
type keyMap struct {
	Quit     key.Binding
	Window   key.Binding
	Reset    key.Binding
	GainUp   key.Binding
	GainDown key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	Window:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "window")),
	Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	GainUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "gain up")),
	GainDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "gain down")),
}

// windowCycle is the order the w key steps through.
var windowCycle = []analysis.WindowType{
	analysis.Hann,
	analysis.Hamming,
	analysis.Blackman,
	analysis.Bartlett,
	analysis.Kaiser,
}

type tickMsg time.Time

// SpectrumModel is the Bubble Tea model for the live spectrum view. It pulls
// the coordinator on every tick, so a stalled pipeline only freezes the
// picture, never the UI.
type SpectrumModel struct {
	coordinator *analysis.Coordinator
	processor   *analysis.SpectrumProcessor
	peaks       *analysis.PeakTracker

	interval time.Duration
	bars     int
	lastTick time.Time
	levels   []float64

	width  int
	height int
	ready  bool
}

// NewSpectrumModel builds the model from the display configuration.
func NewSpectrumModel(cfg *config.Config, coordinator *analysis.Coordinator) SpectrumModel {
	frameRate := cfg.Display.FrameRate
	if frameRate <= 0 {
		frameRate = 60
	}
	return SpectrumModel{
		coordinator: coordinator,
		processor:   analysis.NewSpectrumProcessor(cfg.Display.Smoothing),
		peaks:       analysis.NewPeakTracker(cfg.Display.PeakHold, cfg.Display.PeakFall),
		interval:    time.Second / time.Duration(frameRate),
		bars:        cfg.Display.Bars,
		lastTick:    time.Now(),
	}
}

func (m SpectrumModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init schedules the first frame pull.
func (m SpectrumModel) Init() tea.Cmd {
	return m.tick()
}

// Update handles resize, key and tick messages.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Window):
			m.coordinator.SetWindowType(m.nextWindow())
		case key.Matches(msg, keys.Reset):
			m.coordinator.ResetState()
			m.processor.Reset()
			m.peaks.Reset()
		case key.Matches(msg, keys.GainUp):
			gain := m.coordinator.Gain()
			gain.SetAmplification(gain.Amplification() + 0.1)
		case key.Matches(msg, keys.GainDown):
			gain := m.coordinator.Gain()
			next := gain.Amplification() - 0.1
			if next < 0 {
				next = 0
			}
			gain.SetAmplification(next)
		}

	case tickMsg:
		now := time.Time(msg)
		deltaTime := now.Sub(m.lastTick).Seconds()
		m.lastTick = now

		if data := m.coordinator.GetCurrentSpectrum(); data != nil {
			barCount := m.barCount()
			_, levels := m.processor.ProcessSpectrum(data.Magnitudes, barCount)
			m.levels = levels
			for i, v := range levels {
				m.peaks.Update(i, v, deltaTime)
			}
		}
		return m, m.tick()
	}

	return m, nil
}

// barCount fits the configured bar count to the current terminal width.
func (m SpectrumModel) barCount() int {
	bars := m.bars
	if m.ready && m.width > 0 && bars > m.width {
		bars = m.width
	}
	if bars < 1 {
		bars = 1
	}
	return bars
}

// View renders the bars bottom-up with peak caps.
func (m SpectrumModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	gain := m.coordinator.Gain()
	header := titleStyle.Render("spectra") + " " +
		infoStyle.Render(fmt.Sprintf("window: %s  amp: %.1f  [w]indow [r]eset [+/-] gain [q]uit",
			m.coordinator.WindowType(), gain.Amplification()))

	rows := m.height - 2
	if rows < 1 {
		rows = 1
	}
	if len(m.levels) == 0 {
		return header + "\n" + strings.Repeat("\n", rows-1)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')

	barCell := barStyle.Render("█")
	peakCell := peakStyle.Render("▀")

	for row := 0; row < rows; row++ {
		// Level this row represents, 1.0 at the top row.
		level := float64(rows-row) / float64(rows)
		for i, v := range m.levels {
			peak := m.peaks.GetPeak(i)
			switch {
			case peak >= level && peak < level+1.0/float64(rows) && peak > v:
				b.WriteString(peakCell)
			case v >= level:
				b.WriteString(barCell)
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}

	return b.String()
}

func (m SpectrumModel) nextWindow() analysis.WindowType {
	current := m.coordinator.WindowType()
	for i, w := range windowCycle {
		if w == current {
			return windowCycle[(i+1)%len(windowCycle)]
		}
	}
	return windowCycle[0]
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(cfg *config.Config, coordinator *analysis.Coordinator) error {
	program := tea.NewProgram(
		NewSpectrumModel(cfg, coordinator),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}
