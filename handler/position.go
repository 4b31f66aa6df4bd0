package handler

import (
	"fmt"
	"strings"

	"aprsnoop/packet"
)

// Position handles normal, compressed and Mic-E position reports.
type Position struct{ base }

func (h *Position) Name() string   { return "Position Reports" }
func (h *Position) Format() string { return "uncompressed,compressed,mic-e" }

func (h *Position) Handle(pkt *packet.Packet) {
	var location string
	if place := h.locator.Lookup(pkt); place != nil {
		location = h.locator.PreciseLocation(place)
	}

	parts := []string{
		fmt.Sprintf("position(%s):", packet.NonEmpty(pkt.From)),
		fmt.Sprintf("coordinates(%s,%s),", packet.Float(pkt.Latitude), packet.Float(pkt.Longitude)),
		fmt.Sprintf("altitude(%s),", packet.Float(pkt.Altitude)),
		fmt.Sprintf("comment(%s),", packet.Str(pkt.Comment)),
	}
	if location != "" {
		parts = append(parts, fmt.Sprintf("location(%s),", location))
	}
	fmt.Fprintln(h.out, strings.Join(parts, " "))
}

// Object handles object reports. The place is rendered coarsely since
// objects are often only roughly placed.
type Object struct{ base }

func (h *Object) Name() string   { return "Objects Reports" }
func (h *Object) Format() string { return "object" }

func (h *Object) Handle(pkt *packet.Packet) {
	var location string
	if place := h.locator.Lookup(pkt); place != nil {
		location = h.locator.CoarseLocation(place)
	}

	name := packet.NA
	if pkt.ObjectName != nil {
		name = strings.TrimSpace(*pkt.ObjectName)
	}

	parts := []string{
		fmt.Sprintf("object(%s):", packet.NonEmpty(pkt.From)),
		fmt.Sprintf("coordinates(%s,%s),", packet.Float(pkt.Latitude), packet.Float(pkt.Longitude)),
		fmt.Sprintf("altitude(%s),", packet.Float(pkt.Altitude)),
		fmt.Sprintf("course(%s),", packet.Int(pkt.Course)),
		fmt.Sprintf("object_name(%s),", name),
		fmt.Sprintf("comment(%s),", packet.Str(pkt.Comment)),
	}
	if location != "" {
		parts = append(parts, fmt.Sprintf("location(%s),", location))
	}
	fmt.Fprintln(h.out, strings.Join(parts, " "))
}
