package sidebar

import (
	"fmt"
	"strings"

	"aprsnoop/packet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// entry is one heard station and the kind of its last report.
type entry struct {
	call string
	kind string
}

// Model lists recently heard stations, newest first, each once.
type Model struct {
	width   int
	height  int
	entries []entry
}

// New creates a new sidebar model
func New() Model {
	return Model{width: 20, height: 24}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// capacity is the number of stations that fit: the box loses two lines
// to its border and one to the title.
func (m Model) capacity() int {
	if n := m.height - 3; n > 1 {
		return n
	}
	return 1
}

// Add moves the station to the top of the list.
func (m *Model) Add(call, kind string) {
	for i, e := range m.entries {
		if e.call == call {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	m.entries = append([]entry{{call: call, kind: kind}}, m.entries...)
	if limit := m.capacity(); len(m.entries) > limit {
		m.entries = m.entries[:limit]
	}
}

// Stations returns the listed callsigns, newest first.
func (m Model) Stations() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.call
	}
	return out
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if limit := m.capacity(); len(m.entries) > limit {
			m.entries = m.entries[:limit]
		}
	case *packet.Packet:
		m.Add(msg.From, kindTag(msg.DeclaredFormat()))
	}
	return m, nil
}

// kindTag is a one letter hint of the report kind.
func kindTag(format string) string {
	switch format {
	case packet.FormatUncompressed, packet.FormatCompressed, packet.FormatMicE:
		return "P"
	case packet.FormatObject:
		return "O"
	case packet.FormatWeather:
		return "W"
	case packet.FormatStatus:
		return "S"
	case packet.FormatMessage:
		return "M"
	case packet.FormatTelemetry:
		return "T"
	}
	return "?"
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(m.width - 2).
		Height(m.height - 2).
		Padding(0, 1)

	inner := m.width - 2 - 2 // border, padding
	title := lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		Width(inner).
		Render("Heard")

	lines := []string{title}
	for i, e := range m.entries {
		if i >= m.height-3 {
			break
		}
		lines = append(lines, fmt.Sprintf("%.*s", max(inner, 0), e.kind+" "+e.call))
	}
	return style.Render(strings.Join(lines, "\n"))
}
