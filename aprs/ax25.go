package aprs

import (
	"bytes"
	"fmt"
	"strings"
)

// controlUI is the AX.25 control byte of an unnumbered information frame.
const controlUI byte = 0x03

// header is the addressing part of a packet.
type header struct {
	From string
	To   string
	Path []string
}

// splitTNC2 separates a TNC2 text line (CALL>DEST,PATH:payload), as
// delivered by APRS-IS, into header and information field.
func splitTNC2(line []byte) (header, []byte, error) {
	sep := bytes.IndexByte(line, ':')
	if sep == -1 {
		return header{}, nil, fmt.Errorf("no header separator ':' found")
	}
	head, payload := string(line[:sep]), line[sep+1:]

	gt := strings.Index(head, ">")
	if gt == -1 {
		return header{}, nil, fmt.Errorf("no source callsign separator '>' found in header: %s", head)
	}
	from := head[:gt]
	if len(from) == 0 || len(from) > 9 {
		return header{}, nil, fmt.Errorf("invalid source callsign: %q", from)
	}

	route := strings.Split(head[gt+1:], ",")
	if route[0] == "" {
		return header{}, nil, fmt.Errorf("missing destination in header: %s", head)
	}
	return header{From: from, To: route[0], Path: route[1:]}, payload, nil
}

// splitAX25 does the same for a raw AX.25 UI frame from a KISS TNC.
func splitAX25(frame []byte) (header, []byte, error) {
	if len(frame) < 16 { // dest(7) + src(7) + ctrl(1) + pid(1)
		return header{}, nil, fmt.Errorf("frame too short for AX.25")
	}

	to, err := parseAddressBytes(frame[0:7])
	if err != nil {
		return header{}, nil, fmt.Errorf("invalid AX.25 destination address: %w", err)
	}
	from, err := parseAddressBytes(frame[7:14])
	if err != nil {
		return header{}, nil, fmt.Errorf("invalid AX.25 source address: %w", err)
	}
	h := header{From: from, To: to}

	// The address field ends at the first byte with the low bit set.
	end := 14
	for frame[end-1]&0x01 == 0 {
		if end+7 > len(frame) {
			return header{}, nil, fmt.Errorf("unterminated AX.25 address field")
		}
		digi, err := parseAddressBytes(frame[end : end+7])
		if err != nil {
			return header{}, nil, fmt.Errorf("invalid AX.25 digipeater address: %w", err)
		}
		if frame[end+6]&0x80 != 0 {
			digi += "*"
		}
		h.Path = append(h.Path, digi)
		end += 7
	}

	if end+2 > len(frame) {
		return header{}, nil, fmt.Errorf("missing AX.25 control/PID fields")
	}
	if frame[end] != controlUI {
		return header{}, nil, fmt.Errorf("not a UI frame (control: 0x%02X)", frame[end])
	}
	// The PID byte is not checked; some TNCs send values other than 0xF0.
	return h, frame[end+2:], nil
}

// parseAddressBytes decodes a 7-byte AX.25 address into CALL or CALL-SSID.
func parseAddressBytes(addr []byte) (string, error) {
	if len(addr) != 7 {
		return "", fmt.Errorf("address length is not 7 bytes")
	}

	var call strings.Builder
	for i := 0; i < 6; i++ {
		c := addr[i] >> 1
		if c == ' ' || c == 0 {
			continue
		}
		if c < '0' || c > 'Z' {
			return "", fmt.Errorf("invalid character 0x%02X in callsign", c)
		}
		call.WriteByte(c)
	}
	if call.Len() == 0 {
		return "", fmt.Errorf("decoded callsign is empty")
	}

	if ssid := (addr[6] >> 1) & 0x0F; ssid > 0 {
		return fmt.Sprintf("%s-%d", call.String(), ssid), nil
	}
	return call.String(), nil
}
