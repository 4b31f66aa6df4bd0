// Package handler renders decoded APRS packets as one-line summaries. Each
// report kind has its own Handler; the Dispatcher picks one per packet.
package handler

import (
	"io"

	"aprsnoop/location"
	"aprsnoop/packet"
	"aprsnoop/telemetry"
)

// Handler renders one kind of packet.
type Handler interface {
	// Name is a human readable label.
	Name() string
	// Format is the comma separated list of format tags handled.
	Format() string
	// Handle writes zero or one line for pkt.
	Handle(pkt *packet.Packet)
}

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Out       io.Writer
	Locator   *location.Locator
	Telemetry *telemetry.Reassembler
}

// base carries what every handler needs.
type base struct {
	out     io.Writer
	locator *location.Locator
}
