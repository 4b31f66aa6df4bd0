package handler

import (
	"strings"

	"aprsnoop/logging"
	"aprsnoop/metrics"
	"aprsnoop/packet"
)

// Dispatcher selects the handler for a packet. The handler set is fixed at
// construction.
type Dispatcher struct {
	handlers []Handler
	weather  Handler
}

// NewDispatcher builds every handler around deps. The order matters for
// tags that are substrings of others: "message" is registered before
// "telemetry-message" so plain messages never reach the telemetry handler.
func NewDispatcher(deps Deps) *Dispatcher {
	b := base{out: deps.Out, locator: deps.Locator}
	weather := &Weather{base: b}
	return &Dispatcher{
		handlers: []Handler{
			&Generic{base: b},
			&Position{base: b},
			&Object{base: b},
			weather,
			&Status{base: b},
			&Message{base: b},
			&Telemetry{reassembler: deps.Telemetry},
		},
		weather: weather,
	}
}

// Handlers returns the registered handlers in match order.
func (d *Dispatcher) Handlers() []Handler {
	return append([]Handler(nil), d.handlers...)
}

// Classify returns the handler for pkt. Packets carrying a weather record
// always go to the weather handler, whatever format they declare, since
// weather is often sent in plain position reports. Otherwise the first
// handler whose format list contains the declared format wins.
func (d *Dispatcher) Classify(pkt *packet.Packet) (Handler, bool) {
	if pkt.Weather != nil {
		return d.weather, true
	}

	format := pkt.DeclaredFormat()
	for _, h := range d.handlers {
		if strings.Contains(h.Format(), format) {
			return h, true
		}
	}
	return nil, false
}

// Dispatch classifies pkt and runs its handler. It reports whether a
// handler was found.
func (d *Dispatcher) Dispatch(pkt *packet.Packet) bool {
	h, ok := d.Classify(pkt)
	if !ok {
		metrics.UnhandledTotal.Inc()
		logging.Debugf("no handler for packet %s", pkt)
		return false
	}
	metrics.HandledTotal.WithLabelValues(h.Name()).Inc()
	h.Handle(pkt)
	return true
}
