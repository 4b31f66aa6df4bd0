package kiss

import (
	"bufio"
	"bytes"
	"io"
)

// KISS protocol constants
const (
	FEND  byte = 0xC0 // Frame End
	FESC  byte = 0xDB // Frame Escape
	TFEND byte = 0xDC // Transposed Frame End
	TFESC byte = 0xDD // Transposed Frame Escape
)

// cmdData is the KISS command nibble of a data frame. The high nibble of
// the type byte is the TNC port.
const cmdData byte = 0x00

// Decoder reads KISS frames from an io.Reader
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder creates a new KISS frame decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// ReadFrame returns the next non-empty frame, type byte included, with
// escapes undone. Bytes outside a frame are discarded.
func (d *Decoder) ReadFrame() ([]byte, error) {
	var frame bytes.Buffer
	inFrame := false

	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}

		switch {
		case b == FEND:
			if inFrame && frame.Len() > 0 {
				return frame.Bytes(), nil
			}
			// FEND FEND is an empty frame, or this opens one.
			inFrame = true
		case !inFrame:
		case b == FESC:
			b, err = d.r.ReadByte()
			if err != nil {
				return nil, err
			}
			switch b {
			case TFEND:
				frame.WriteByte(FEND)
			case TFESC:
				frame.WriteByte(FESC)
			default:
				frame.WriteByte(b)
			}
		default:
			frame.WriteByte(b)
		}
	}
}

// Encode wraps an AX.25 frame as a KISS data frame for port 0.
func Encode(ax25 []byte) []byte {
	out := make([]byte, 0, len(ax25)+4)
	out = append(out, FEND, cmdData)
	for _, b := range ax25 {
		switch b {
		case FEND:
			out = append(out, FESC, TFEND)
		case FESC:
			out = append(out, FESC, TFESC)
		default:
			out = append(out, b)
		}
	}
	return append(out, FEND)
}
