package feed

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestWriter_SplitsLines(t *testing.T) {
	var got []tea.Msg
	w := NewWriter(func(m tea.Msg) { got = append(got, m) })

	fmt.Fprintf(w, "status(N0CALL): hi\n")
	fmt.Fprintf(w, "partial")
	assert.Len(t, got, 1)
	fmt.Fprintf(w, " line\nnext\r\n")

	assert.Equal(t, []tea.Msg{
		LineMsg("status(N0CALL): hi"),
		LineMsg("partial line"),
		LineMsg("next"),
	}, got)
}

func TestModel_KeepsNewestThatFit(t *testing.T) {
	m := New(4) // two visible lines
	for _, l := range []string{"a", "b", "c"} {
		m, _ = m.Update(LineMsg(l))
	}
	assert.Equal(t, []string{"b", "c"}, m.Lines())

	m, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Equal(t, []string{"a", "b", "c"}, m.Lines())
	assert.Contains(t, m.View(), "c")
}

func TestModel_HistoryBounded(t *testing.T) {
	m := New(3)
	for i := 0; i < maxLines+10; i++ {
		m, _ = m.Update(LineMsg(fmt.Sprint(i)))
	}
	assert.Len(t, m.lines, maxLines)
	assert.Equal(t, fmt.Sprint(maxLines+9), m.lines[len(m.lines)-1])
}
