package header

import (
	"fmt"

	"aprsnoop/packet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const title = "APRSnoop"

// Model holds the header's state
type Model struct {
	width    int
	station  string
	received int
}

// New creates a header for the given station callsign.
func New(station string) Model {
	return Model{width: 80, station: station}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case *packet.Packet:
		m.received++
	}
	return m, nil
}

// Received is the number of packets seen so far.
func (m Model) Received() int { return m.received }

func (m Model) View() string {
	text := title
	if m.station != "" {
		text += " - " + m.station
	}
	text += fmt.Sprintf(" - %d packets", m.received)

	style := lipgloss.NewStyle().
		Bold(true).
		Background(lipgloss.Color("63")).
		Foreground(lipgloss.Color("255")).
		Width(m.width).
		Align(lipgloss.Center)

	return style.Render(text)
}
