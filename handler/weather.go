package handler

import (
	"fmt"
	"strings"

	"aprsnoop/packet"
)

// Weather handles weather reports, including those sent as plain position
// reports.
type Weather struct{ base }

func (h *Weather) Name() string   { return "Weather Reports" }
func (h *Weather) Format() string { return "wx" }

func (h *Weather) Handle(pkt *packet.Packet) {
	wx := pkt.Weather
	if wx == nil {
		return
	}

	location := packet.NonEmpty(pkt.From)
	if place := h.locator.Lookup(pkt); place != nil {
		location = h.locator.CoarseLocation(place)
	}

	temperature := packet.NA
	if wx.Temperature != nil {
		temperature = fmt.Sprintf("%.1f", *wx.Temperature)
	}

	parts := []string{
		fmt.Sprintf("weather(%s):", location),
		fmt.Sprintf("temp(%s),", temperature),
		fmt.Sprintf("humidity(%s),", packet.Int(wx.Humidity)),
		fmt.Sprintf("pressure(%s),", packet.Float(wx.Pressure)),
		fmt.Sprintf("wind(%s),", packet.Float(wx.WindSpeed)),
	}
	fmt.Fprintln(h.out, strings.Join(parts, " "))
}
