package main

import (
	"testing"

	"aprsnoop/config"
	"aprsnoop/packet"
	"aprsnoop/ui/feed"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	mm, ok := next.(model)
	require.True(t, ok)
	return mm
}

func TestModel_RoutesMessages(t *testing.T) {
	conf := config.Default()
	conf.Station.Callsign = "K1ABC"
	conf.Map.ShapePath = ""

	m := initialModel(conf)
	require.NoError(t, m.err)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	lat, lon := 47.5, 15.0
	m = update(t, m, &packet.Packet{
		From:      "OE5XYZ",
		Format:    packet.Ptr(packet.FormatUncompressed),
		Latitude:  &lat,
		Longitude: &lon,
	})
	m = update(t, m, feed.LineMsg("position(OE5XYZ): coordinates(47.5, 15), altitude(n/a), comment(n/a),"))

	assert.Equal(t, 1, m.headerModel.Received())
	assert.Equal(t, []string{"OE5XYZ"}, m.sidebarModel.Stations())

	view := m.View()
	assert.Contains(t, view, "APRSnoop - K1ABC - 1 packets")
	assert.Contains(t, view, "position(OE5XYZ)")
}

func TestModel_FeedClosed(t *testing.T) {
	conf := config.Default()
	conf.Map.ShapePath = ""
	m := update(t, initialModel(conf), feedClosedMsg{})

	require.Error(t, m.err)
	assert.Contains(t, m.View(), "connection closed after 0 packets")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_BadShapefile(t *testing.T) {
	conf := config.Default()
	conf.Map.ShapePath = "/nonexistent/map.shp"
	m := initialModel(conf)
	assert.Error(t, m.err)
}
