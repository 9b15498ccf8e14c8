package main

import (
	"errors"
	"math"
	"os"
	"strings"
	"time"

	"gearflip/internal/duel"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	meterWidth     = 41
	meterFrame     = 16 * time.Millisecond
	meterBaseSpeed = 0.012
	meterSweetSpot = 0.12
)

var errMeterCancelled = errors.New("meter cancelled")

var (
	meterTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	meterTrack  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	meterSweet  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	meterNeedle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	meterHelp   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	meterBox    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("6")).Padding(0, 1)
)

type meterTick time.Time

type meterModel struct {
	label     string
	pos       float64
	dir       float64
	speed     float64
	stopped   bool
	cancelled bool
}

// meterSpeed makes later rounds of longer duels swing faster.
func meterSpeed(round, totalRounds int) float64 {
	return meterBaseSpeed * duel.TimingScale(round, totalRounds) / duel.TimingScale(1, 1)
}

// meterAccuracy maps a needle position in [0,1] to timing accuracy: 1 at the
// centre, 0 at either end.
func meterAccuracy(pos float64) float64 {
	return math.Max(0, math.Min(1, 1-2*math.Abs(pos-0.5)))
}

func newMeterModel(label string, speed float64) meterModel {
	return meterModel{label: label, dir: 1, speed: speed}
}

func meterNext() tea.Cmd {
	return tea.Tick(meterFrame, func(t time.Time) tea.Msg { return meterTick(t) })
}

func (m meterModel) Init() tea.Cmd {
	return meterNext()
}

func (m meterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case " ", "enter":
			m.stopped = true
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	case meterTick:
		if m.stopped {
			return m, nil
		}
		m.pos += m.dir * m.speed
		if m.pos >= 1 {
			m.pos, m.dir = 1, -1
		}
		if m.pos <= 0 {
			m.pos, m.dir = 0, 1
		}
		return m, meterNext()
	}
	return m, nil
}

func (m meterModel) View() string {
	needle := int(math.Round(m.pos * float64(meterWidth-1)))
	sweet := meterSweetSpot
	half := int(sweet * float64(meterWidth))
	mid := meterWidth / 2

	var bar strings.Builder
	for i := 0; i < meterWidth; i++ {
		switch {
		case i == needle:
			bar.WriteString(meterNeedle.Render("|"))
		case i >= mid-half && i <= mid+half:
			bar.WriteString(meterSweet.Render("="))
		default:
			bar.WriteString(meterTrack.Render("-"))
		}
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		meterTitle.Render(m.label),
		"["+bar.String()+"]",
		meterHelp.Render("space/enter to hit it, q to back out"),
	)
	return meterBox.Render(body) + "\n"
}

// runMeter plays the timing meter and returns an accuracy in [0,1]. Without a
// terminal it asks for the number instead.
func runMeter(label string, round, totalRounds int) (float64, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return promptFloat("Timing accuracy (0-1)", 0, 1)
	}
	final, err := tea.NewProgram(newMeterModel(label, meterSpeed(round, totalRounds))).Run()
	if err != nil {
		return 0, err
	}
	m, ok := final.(meterModel)
	if !ok || m.cancelled {
		return 0, errMeterCancelled
	}
	return meterAccuracy(m.pos), nil
}
