package aprs

import (
	"fmt"
	"strconv"
	"strings"

	"aprsnoop/packet"
)

// message is a parsed ':' report.
type message struct {
	Addressee string
	Text      string
	MsgNo     string
}

// parseMessage parses a message body (after the ':' data type).
// Format: ADDRESSEE:text{id  with the addressee padded to 9 characters.
func parseMessage(body string) (message, error) {
	if len(body) < 10 {
		return message{}, fmt.Errorf("message packet too short")
	}
	if body[9] != ':' {
		return message{}, fmt.Errorf("missing message body separator ':'")
	}

	to := strings.TrimSpace(body[0:9])
	if to == "" {
		return message{}, fmt.Errorf("message recipient is blank")
	}

	m := message{Addressee: to, Text: body[10:]}
	if i := strings.LastIndex(m.Text, "{"); i > 0 {
		m.MsgNo = strings.TrimSpace(m.Text[i+1:])
		m.Text = m.Text[:i]
	}
	m.Text = strings.TrimSpace(m.Text)
	return m, nil
}

// telemetryPrefixes are the telemetry definition messages a station sends
// to itself to describe the channels of its T# reports.
var telemetryPrefixes = []string{"PARM.", "UNIT.", "EQNS.", "BITS."}

func isTelemetryDefinition(text string) bool {
	for _, p := range telemetryPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// splitList splits a comma separated definition list, keeping empty items
// so positions stay aligned with channels.
func splitList(s string) []string {
	items := strings.Split(s, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

// applyTelemetryDefinition fills the telemetry fields of pkt from text.
func applyTelemetryDefinition(pkt *packet.Packet, text string) error {
	kind, rest := text[:4], text[5:]
	switch kind {
	case "PARM":
		pkt.TParm = splitList(rest)
	case "UNIT":
		pkt.TUnit = splitList(rest)
	case "EQNS":
		values := splitList(rest)
		if len(values)%3 != 0 {
			return fmt.Errorf("EQNS needs coefficient triples, got %d values", len(values))
		}
		eqns := make([]packet.Equation, 0, len(values)/3)
		for i := 0; i < len(values); i += 3 {
			var abc [3]float64
			for j := range abc {
				if values[i+j] == "" {
					continue
				}
				v, err := strconv.ParseFloat(values[i+j], 64)
				if err != nil {
					return fmt.Errorf("invalid EQNS coefficient %q: %w", values[i+j], err)
				}
				abc[j] = v
			}
			eqns = append(eqns, packet.Equation{A: abc[0], B: abc[1], C: abc[2]})
		}
		pkt.TEqns = eqns
	case "BITS":
		pkt.TBits = &rest
	}
	return nil
}
