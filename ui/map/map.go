// Package mapview draws heard stations over a shapefile outline.
package mapview

import (
	"fmt"
	"log"
	"strings"

	"aprsnoop/config"
	"aprsnoop/location"
	"aprsnoop/packet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonas-p/go-shp"
)

// Constants for Panning and Zooming
const (
	panFactor  = 0.1
	zoomFactor = 1.2
)

// worldBounds is the view used when no shapefile is loaded.
var worldBounds = shp.Box{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}

// plot is the last known position of one station or object.
type plot struct {
	label    string
	lon, lat float64
	marker   rune
}

// Model holds the map's state
type Model struct {
	width  int
	height int

	polygons       []*shp.Polygon
	originalBounds shp.Box
	viewBounds     shp.Box

	homeLon, homeLat float64
	hasHome          bool

	plots []plot // in first-heard order
}

// loadMapData reads the polygons of a shapefile and their combined bounds.
func loadMapData(path string) ([]*shp.Polygon, shp.Box, error) {
	shapeFile, err := shp.Open(path)
	if err != nil {
		return nil, shp.Box{}, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer shapeFile.Close()

	var polygons []*shp.Polygon
	var points []shp.Point
	for shapeFile.Next() {
		_, shape := shapeFile.Shape()
		polygon, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		polygons = append(polygons, polygon)
		box := polygon.BBox()
		points = append(points, shp.Point{X: box.MinX, Y: box.MinY}, shp.Point{X: box.MaxX, Y: box.MaxY})
	}
	if len(polygons) == 0 {
		return nil, shp.Box{}, fmt.Errorf("no polygons found in shapefile %s", path)
	}
	return polygons, shp.BBoxFromPoints(points), nil
}

// New creates a map. With an empty shape path the map has no outline and
// spans the world. The station gridsquare, when valid, is marked with H and
// the view is centered on it at the configured zoom.
func New(conf config.Config) (Model, error) {
	m := Model{
		width:          80,
		height:         23,
		originalBounds: worldBounds,
		viewBounds:     worldBounds,
	}

	if path := conf.Map.ShapePath; path != "" {
		polygons, bounds, err := loadMapData(path)
		if err != nil {
			return Model{}, err
		}
		m.polygons = polygons
		m.originalBounds = bounds
		m.viewBounds = bounds
	}

	if grid := conf.Station.GridSquare; grid != "" {
		lat, lon, err := location.GridSquareCenter(grid)
		if err != nil {
			log.Printf("Warning: Could not parse station gridsquare '%s': %v", grid, err)
		} else {
			m.homeLat, m.homeLon, m.hasHome = lat, lon, true
		}
	}
	if m.hasHome && conf.Map.DefaultZoom > 1.0 {
		m.setCenterAndZoom(m.homeLon, m.homeLat, conf.Map.DefaultZoom)
	}
	return m, nil
}

func (m Model) Init() tea.Cmd { return nil }

func (m *Model) setCenterAndZoom(lon, lat, zoomLevel float64) {
	w := (m.originalBounds.MaxX - m.originalBounds.MinX) / zoomLevel
	h := (m.originalBounds.MaxY - m.originalBounds.MinY) / zoomLevel
	m.viewBounds = shp.Box{MinX: lon - w/2, MaxX: lon + w/2, MinY: lat - h/2, MaxY: lat + h/2}
}

func (m *Model) zoomByFactor(factor float64) {
	cx := (m.viewBounds.MinX + m.viewBounds.MaxX) / 2
	cy := (m.viewBounds.MinY + m.viewBounds.MaxY) / 2
	w := (m.viewBounds.MaxX - m.viewBounds.MinX) * factor
	h := (m.viewBounds.MaxY - m.viewBounds.MinY) * factor
	if w > m.originalBounds.MaxX-m.originalBounds.MinX || h > m.originalBounds.MaxY-m.originalBounds.MinY {
		m.viewBounds = m.originalBounds
		return
	}
	m.viewBounds = shp.Box{MinX: cx - w/2, MaxX: cx + w/2, MinY: cy - h/2, MaxY: cy + h/2}
}

func (m *Model) pan(dx, dy float64) {
	panX := (m.viewBounds.MaxX - m.viewBounds.MinX) * dx
	panY := (m.viewBounds.MaxY - m.viewBounds.MinY) * dy
	m.viewBounds.MinX += panX
	m.viewBounds.MaxX += panX
	m.viewBounds.MinY += panY
	m.viewBounds.MaxY += panY
}

// ZoomLevel is how many times narrower the view is than the full map.
func (m Model) ZoomLevel() float64 {
	if m.viewBounds.MaxX == m.viewBounds.MinX {
		return 1.0
	}
	return (m.originalBounds.MaxX - m.originalBounds.MinX) / (m.viewBounds.MaxX - m.viewBounds.MinX)
}

// markerFor picks the map symbol for a report kind.
func markerFor(pkt *packet.Packet) rune {
	switch {
	case pkt.Weather != nil:
		return 'W'
	case pkt.DeclaredFormat() == packet.FormatObject:
		return 'O'
	}
	return '*'
}

// place records a positioned packet, replacing the earlier plot of the
// same station or object.
func (m *Model) place(pkt *packet.Packet) {
	if !pkt.HasPosition() {
		return
	}
	label := pkt.From
	if pkt.ObjectName != nil {
		label = strings.TrimSpace(*pkt.ObjectName)
	}
	p := plot{label: label, lon: *pkt.Longitude, lat: *pkt.Latitude, marker: markerFor(pkt)}
	for i := range m.plots {
		if m.plots[i].label == label {
			m.plots[i] = p
			return
		}
	}
	m.plots = append(m.plots, p)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case *packet.Packet:
		m.place(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "k", "up":
			m.pan(0, panFactor)
		case "l", "down":
			m.pan(0, -panFactor)
		case "j", "left":
			m.pan(-panFactor, 0)
		case ";", "right":
			m.pan(panFactor, 0)
		case "K":
			m.zoomByFactor(1 / zoomFactor)
		case "L":
			m.zoomByFactor(zoomFactor)
		case "r":
			m.viewBounds = m.originalBounds
		}
	}
	return m, nil
}

// project converts lon/lat to cell coordinates in a w x h viewport. The
// result may fall outside the viewport.
func (m Model) project(lon, lat float64, w, h int) (int, int) {
	spanX := m.viewBounds.MaxX - m.viewBounds.MinX
	spanY := m.viewBounds.MaxY - m.viewBounds.MinY
	if spanX == 0 {
		spanX = 1e-6
	}
	if spanY == 0 {
		spanY = 1e-6
	}
	x := (lon - m.viewBounds.MinX) / spanX
	y := (m.viewBounds.MaxY - lat) / spanY // screen y grows downwards
	return int(x * float64(w)), int(y * float64(h))
}

func (m Model) renderViewport(w, h int) string {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}

	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", w))
	}
	set := func(x, y int, r rune) bool {
		if x < 0 || x >= w || y < 0 || y >= h {
			return false
		}
		grid[y][x] = r
		return true
	}

	for _, polygon := range m.polygons {
		b := polygon.BBox()
		if b.MaxX < m.viewBounds.MinX || b.MinX > m.viewBounds.MaxX ||
			b.MaxY < m.viewBounds.MinY || b.MinY > m.viewBounds.MaxY {
			continue
		}
		for _, pt := range polygon.Points {
			x, y := m.project(pt.X, pt.Y, w, h)
			set(x, y, '.')
		}
	}

	if m.hasHome {
		x, y := m.project(m.homeLon, m.homeLat, w, h)
		set(x, y, 'H')
	}

	for _, p := range m.plots {
		x, y := m.project(p.lon, p.lat, w, h)
		if !set(x, y, p.marker) || y+1 >= h {
			continue
		}
		// Label under the marker where the row is still blank.
		label := []rune(p.label)
		start := x - len(label)/2
		for i, r := range label {
			if px := start + i; px >= 0 && px < w && grid[y+1][px] == ' ' {
				grid[y+1][px] = r
			}
		}
	}

	var b strings.Builder
	for i, row := range grid {
		b.WriteString(string(row))
		if i < len(grid)-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(m.width - 2).
		Height(m.height - 2)

	w := m.width - style.GetHorizontalFrameSize()
	h := m.height - style.GetVerticalFrameSize()
	return style.Render(m.renderViewport(w, h))
}
