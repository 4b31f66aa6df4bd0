package main

import (
	"fmt"

	"aprsnoop/config"
	"aprsnoop/packet"
	"aprsnoop/ui/feed"
	"aprsnoop/ui/header"
	mapview "aprsnoop/ui/map"
	"aprsnoop/ui/sidebar"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	sidebarWidth = 22
	feedHeight   = 9
)

// feedClosedMsg tells the view that the transport has ended.
type feedClosedMsg struct{}

// model holds the application's state
type model struct {
	width  int
	height int

	headerModel  header.Model
	mapModel     mapview.Model
	feedModel    feed.Model
	sidebarModel sidebar.Model

	err error
}

// initialModel creates the starting model. A map that cannot be loaded
// shows as an error screen.
func initialModel(conf config.Config) model {
	mapMod, err := mapview.New(conf)
	if err != nil {
		return model{err: err}
	}
	return model{
		width:        80,
		height:       24,
		headerModel:  header.New(conf.Station.Callsign),
		mapModel:     mapMod,
		feedModel:    feed.New(feedHeight),
		sidebarModel: sidebar.New(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case *packet.Packet:
		m.headerModel, _ = m.headerModel.Update(msg)
		m.sidebarModel, _ = m.sidebarModel.Update(msg)
		m.mapModel, _ = m.mapModel.Update(msg)

	case feed.LineMsg:
		m.feedModel, _ = m.feedModel.Update(msg)

	case feedClosedMsg:
		m.err = fmt.Errorf("connection closed after %d packets", m.headerModel.Received())

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

		headerHeight := 1
		mainHeight := max(m.height-headerHeight-feedHeight, 1)

		m.headerModel, _ = m.headerModel.Update(tea.WindowSizeMsg{Width: m.width, Height: headerHeight})
		m.sidebarModel, _ = m.sidebarModel.Update(tea.WindowSizeMsg{Width: sidebarWidth, Height: mainHeight})
		m.mapModel, _ = m.mapModel.Update(tea.WindowSizeMsg{Width: m.width - sidebarWidth, Height: mainHeight})
		m.feedModel, _ = m.feedModel.Update(tea.WindowSizeMsg{Width: m.width, Height: feedHeight})

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		default:
			m.mapModel, _ = m.mapModel.Update(msg)
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Border(lipgloss.DoubleBorder(), true).
			BorderForeground(lipgloss.Color("9")).
			Padding(1).
			Align(lipgloss.Center, lipgloss.Center)
		return errorStyle.Render("Error:\n\n" + m.err.Error() + "\n\nPress any key to quit.")
	}

	middle := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarModel.View(), m.mapModel.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.headerModel.View(), middle, m.feedModel.View())
}
