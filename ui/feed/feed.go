// Package feed shows the lines the format handlers print.
package feed

import (
	"bytes"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxLines bounds the history kept for scrolling back after a resize.
const maxLines = 500

// LineMsg carries one rendered output line.
type LineMsg string

// Model holds the feed panel's state
type Model struct {
	width  int
	height int
	lines  []string // oldest first
}

// New creates an empty feed panel with the given total height.
func New(height int) Model {
	return Model{width: 80, height: height}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case LineMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > maxLines {
			m.lines = m.lines[len(m.lines)-maxLines:]
		}
	}
	return m, nil
}

// Lines returns the lines that fit the panel, oldest first.
func (m Model) Lines() []string {
	n := m.height - 2 // border
	if n < 0 {
		n = 0
	}
	if len(m.lines) < n {
		n = len(m.lines)
	}
	return m.lines[len(m.lines)-n:]
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(m.width - 2).
		Height(m.height - 2).
		Padding(0, 1)

	contentWidth := m.width - 2 - 2 // border, padding
	if contentWidth < 0 {
		contentWidth = 0
	}

	lines := m.Lines()
	out := make([]string, len(lines))
	for i, l := range lines {
		if r := []rune(l); len(r) > contentWidth {
			l = string(r[:contentWidth])
		}
		out[i] = l
	}
	return style.Render(strings.Join(out, "\n"))
}

// Writer turns writes into LineMsg values, one per complete line. Partial
// lines are held until their newline arrives.
type Writer struct {
	mu   sync.Mutex
	send func(tea.Msg)
	buf  bytes.Buffer
}

var _ io.Writer = (*Writer)(nil)

// NewWriter returns a Writer delivering lines through send, usually a
// tea.Program's Send.
func NewWriter(send func(tea.Msg)) *Writer {
	return &Writer{send: send}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.buf.Write(p)
	var lines []string
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		lines = append(lines, strings.TrimRight(string(w.buf.Next(i+1)), "\r\n"))
	}
	w.mu.Unlock()

	for _, l := range lines {
		w.send(LineMsg(l))
	}
	return len(p), nil
}
