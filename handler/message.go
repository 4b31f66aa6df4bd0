package handler

import (
	"fmt"

	"aprsnoop/packet"
	"aprsnoop/telemetry"
)

// Status handles status reports.
type Status struct{ base }

func (h *Status) Name() string   { return "Status Reports" }
func (h *Status) Format() string { return "status" }

func (h *Status) Handle(pkt *packet.Packet) {
	fmt.Fprintf(h.out, "status(%s): %s\n", packet.NonEmpty(pkt.From), packet.Str(pkt.Status))
}

// Message handles person to person messages and bulletins.
type Message struct{ base }

func (h *Message) Name() string   { return "Messages" }
func (h *Message) Format() string { return "message" }

func (h *Message) Handle(pkt *packet.Packet) {
	fmt.Fprintf(h.out, "message(%s): to(%s), from(%s), text(%s)\n",
		packet.Str(pkt.Addressee), packet.NonEmpty(pkt.To), packet.NonEmpty(pkt.From), packet.Str(pkt.Text))
}

// Telemetry hands telemetry definition messages to the reassembler, which
// writes a line only once a definition is complete.
type Telemetry struct {
	reassembler *telemetry.Reassembler
}

func (h *Telemetry) Name() string   { return "Telemetry" }
func (h *Telemetry) Format() string { return "telemetry-message" }

func (h *Telemetry) Handle(pkt *packet.Packet) {
	if h.reassembler == nil {
		return
	}
	h.reassembler.Handle(pkt)
}

// Generic is the fallback for packets without a more specific handler.
type Generic struct{ base }

func (h *Generic) Name() string   { return "Generic" }
func (h *Generic) Format() string { return "generic" }

func (h *Generic) Handle(pkt *packet.Packet) {
	fmt.Fprintf(h.out, "generic(%s): format(%s), raw(%s)\n",
		packet.NonEmpty(pkt.From), pkt.DeclaredFormat(), packet.NonEmpty(pkt.Raw))
}
