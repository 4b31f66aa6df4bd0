// Package aprs turns APRS-IS lines and AX.25 frames into packet records.
// It decodes the report kinds aprsnoop renders; anything else comes back as
// a generic packet carrying only its header and raw text.
package aprs

import (
	"fmt"
	"regexp"
	"strings"

	"aprsnoop/packet"
)

var timestampRegex = regexp.MustCompile(`^\d{6}[zh/]`)

// Parse decodes one TNC2 formatted line as received from APRS-IS.
func Parse(line []byte) (*packet.Packet, error) {
	h, payload, err := splitTNC2(line)
	if err != nil {
		return nil, fmt.Errorf("header parse failed: %w", err)
	}
	return decode(h, payload, strings.TrimSpace(string(line)))
}

// ParseAX25 decodes one raw AX.25 UI frame as received from a KISS TNC.
func ParseAX25(frame []byte) (*packet.Packet, error) {
	h, payload, err := splitAX25(frame)
	if err != nil {
		return nil, fmt.Errorf("AX.25 parse failed: %w", err)
	}
	raw := h.From + ">" + strings.Join(append([]string{h.To}, h.Path...), ",") + ":" + string(payload)
	return decode(h, payload, strings.TrimSpace(raw))
}

func decode(h header, payload []byte, raw string) (*packet.Packet, error) {
	body := strings.TrimRight(string(payload), "\r\n")
	if len(body) == 0 {
		return nil, fmt.Errorf("empty APRS payload")
	}

	pkt := &packet.Packet{Raw: raw, From: h.From, To: h.To}

	var err error
	switch dataType := body[0]; dataType {
	case '!', '=':
		err = decodePosition(pkt, body[1:])
	case '/', '@':
		if len(body) < 8 || !timestampRegex.MatchString(body[1:]) {
			return nil, fmt.Errorf("timestamped position without timestamp")
		}
		err = decodePosition(pkt, body[8:])
	case ';':
		err = decodeObject(pkt, body[1:])
	case '`', '\'':
		err = decodeMicE(pkt, h.To, body[1:])
	case '_':
		err = decodePositionlessWeather(pkt, body[1:])
	case '>':
		decodeStatus(pkt, body[1:])
	case ':':
		err = decodeMessage(pkt, body[1:])
	default:
		// Position without a leading data type: the first '!' within the
		// first 40 characters starts it.
		if i := strings.IndexByte(body, '!'); i > 0 && i < 40 {
			if decodePosition(pkt, body[i+1:]) == nil {
				break
			}
		}
		return pkt, nil
	}
	if err != nil {
		return nil, err
	}
	return pkt, nil
}

func decodePosition(pkt *packet.Packet, body string) error {
	pos, err := parsePositionBody(body)
	if err != nil {
		return fmt.Errorf("position parse failed: %w", err)
	}
	format := packet.FormatUncompressed
	if pos.Compressed {
		format = packet.FormatCompressed
	}
	setPosition(pkt, pos, format)
	return nil
}

func setPosition(pkt *packet.Packet, pos position, format string) {
	pkt.Format = &format
	pkt.Latitude = &pos.Lat
	pkt.Longitude = &pos.Lon
	pkt.Altitude = pos.Altitude
	pkt.Course = pos.Course
	pkt.Speed = pos.Speed

	comment := pos.Comment
	if pos.IsWeather() {
		var rest string
		pkt.Weather, rest = parseWeather(comment)
		comment = rest
	}
	if comment != "" {
		pkt.Comment = &comment
	}
}

// decodeObject handles ;NAME_____*DDHHMMzPOSITION.
func decodeObject(pkt *packet.Packet, body string) error {
	if len(body) < 17 {
		return fmt.Errorf("object packet too short")
	}
	if body[9] != '*' && body[9] != '_' {
		return fmt.Errorf("invalid object marker: %c", body[9])
	}
	if !timestampRegex.MatchString(body[10:]) {
		return fmt.Errorf("object without timestamp")
	}

	pos, err := parsePositionBody(body[17:])
	if err != nil {
		return fmt.Errorf("object position parse failed: %w", err)
	}
	setPosition(pkt, pos, packet.FormatObject)
	name := body[:9]
	pkt.ObjectName = &name
	return nil
}

func decodeMicE(pkt *packet.Packet, dest, body string) error {
	pos, err := parseMicE(dest, body)
	if err != nil {
		return fmt.Errorf("Mic-E parse failed: %w", err)
	}
	setPosition(pkt, pos, packet.FormatMicE)
	return nil
}

// decodePositionlessWeather handles _MMDDHHMMc...s...g...t...
func decodePositionlessWeather(pkt *packet.Packet, body string) error {
	if len(body) < 8 {
		return fmt.Errorf("weather report too short")
	}
	format := packet.FormatWeather
	pkt.Format = &format
	var rest string
	pkt.Weather, rest = parseWeather(body[8:])
	if rest != "" {
		pkt.Comment = &rest
	}
	return nil
}

func decodeStatus(pkt *packet.Packet, body string) {
	if timestampRegex.MatchString(body) {
		body = body[7:]
	}
	format := packet.FormatStatus
	status := strings.TrimSpace(body)
	pkt.Format = &format
	pkt.Status = &status
}

func decodeMessage(pkt *packet.Packet, body string) error {
	m, err := parseMessage(body)
	if err != nil {
		return fmt.Errorf("message parse failed: %w", err)
	}
	pkt.Addressee = &m.Addressee
	pkt.Text = &m.Text
	if m.MsgNo != "" {
		pkt.MsgNo = &m.MsgNo
	}

	format := packet.FormatMessage
	if isTelemetryDefinition(m.Text) {
		format = packet.FormatTelemetry
		if err := applyTelemetryDefinition(pkt, m.Text); err != nil {
			return fmt.Errorf("telemetry definition parse failed: %w", err)
		}
	}
	pkt.Format = &format
	return nil
}
