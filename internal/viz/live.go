package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/dynland/sysid/internal/dynamo"
	"github.com/dynland/sysid/internal/model"
)

const historyCapacity = 240

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Live steps a model at a fixed frame rate and plots the state histories.
type Live struct {
	mdl  *model.Model
	name string

	x0 dynamo.State
	x  dynamo.State
	u  dynamo.Input
	t  float64

	history [][]float64
	running bool
	err     error

	frameRate int
}

func NewLive(mdl *model.Model, name string, x0 []float64, u []float64, frameRate int) Live {
	if frameRate <= 0 {
		frameRate = 30
	}
	nx, _, _ := mdl.Size()
	history := make([][]float64, nx)
	for i := range history {
		history[i] = make([]float64, 0, historyCapacity)
	}
	return Live{
		mdl:       mdl,
		name:      name,
		x0:        dynamo.State(x0).Clone(),
		x:         dynamo.State(x0).Clone(),
		u:         u,
		history:   history,
		running:   true,
		frameRate: frameRate,
	}
}

func (l Live) Init() tea.Cmd {
	return l.tick()
}

func (l Live) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(l.frameRate), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (l Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return l, tea.Quit
		case " ":
			l.running = !l.running
		case "r":
			l.x = l.x0.Clone()
			l.t = 0
			l.err = nil
			for i := range l.history {
				l.history[i] = l.history[i][:0]
			}
			l.running = true
		}
		return l, nil

	case TickMsg:
		if l.running && l.err == nil {
			next, err := l.mdl.Integrate(l.x, l.u, nil)
			if err != nil {
				l.err = err
				l.running = false
			} else {
				l.x = next
				l.t += l.mdl.SamplingTime()
				for i := range l.history {
					l.history[i] = append(l.history[i], l.x[i])
					if len(l.history[i]) > historyCapacity {
						l.history[i] = l.history[i][1:]
					}
				}
			}
		}
		return l, l.tick()
	}
	return l, nil
}

func (l Live) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s  t=%.2fs", l.name, l.t)))
	b.WriteString("\n")

	for i, h := range l.history {
		if len(h) < 2 {
			continue
		}
		b.WriteString(graphStyle.Render(asciigraph.Plot(h,
			asciigraph.Height(5),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(fmt.Sprintf("x%d", i)),
		)))
		b.WriteString("\n")
	}

	state := make([]string, 0, len(l.x))
	for i, v := range l.x {
		state = append(state, fmt.Sprintf("x%d=%.3f", i, v))
	}
	b.WriteString(labelStyle.Render(strings.Join(state, "  ")))
	b.WriteString("\n")

	if l.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("integration failed: %v", l.err)))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space pause - r reset - q quit"))
	return b.String()
}

// Run starts the live view and blocks until it exits.
func Run(l Live) error {
	_, err := tea.NewProgram(l).Run()
	return err
}
