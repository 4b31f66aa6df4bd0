package packet

import (
	"fmt"
	"strconv"
	"strings"
)

// Declared format tags, using the vocabulary of the usual APRS decoders.
const (
	FormatUncompressed = "uncompressed"
	FormatCompressed   = "compressed"
	FormatMicE         = "mic-e"
	FormatObject       = "object"
	FormatWeather      = "wx"
	FormatStatus       = "status"
	FormatMessage      = "message"
	FormatTelemetry    = "telemetry-message"
	FormatGeneric      = "generic"
)

// NA is rendered in place of any field the packet does not carry.
const NA = "n/a"

// Equation holds the a,b,c coefficients of a telemetry channel
// (value = a*x^2 + b*x + c).
type Equation struct {
	A, B, C float64
}

func (e Equation) String() string {
	return FormatFloat(e.A) + "," + FormatFloat(e.B) + "," + FormatFloat(e.C)
}

// Weather is the weather record carried by wx reports. Every field is optional.
type Weather struct {
	Temperature   *float64 // Celsius
	Humidity      *int     // percent
	Pressure      *float64 // hPa
	WindSpeed     *float64 // m/s
	WindDirection *int     // degrees
	WindGust      *float64 // m/s
	Rain1h        *float64 // mm
}

// Packet is one decoded APRS report. Fields are only set when the report
// carries them: nil pointers and nil slices mean "absent", a non-nil empty
// slice means the field was present but empty.
type Packet struct {
	Raw string

	From      string
	To        string
	Addressee *string
	Format    *string

	// Position, object and weather reports
	Latitude   *float64
	Longitude  *float64
	Altitude   *float64 // meters
	Course     *int
	Speed      *float64 // km/h
	ObjectName *string
	Comment    *string
	Weather    *Weather

	// Status reports
	Status *string

	// Messages
	Text  *string
	MsgNo *string

	// Telemetry definition messages
	TParm []string
	TUnit []string
	TEqns []Equation
	TBits *string
}

// DeclaredFormat returns the format tag, or FormatGeneric when absent.
func (p *Packet) DeclaredFormat() string {
	if p.Format == nil || *p.Format == "" {
		return FormatGeneric
	}
	return *p.Format
}

// HasPosition reports whether both coordinates are present.
func (p *Packet) HasPosition() bool {
	return p.Latitude != nil && p.Longitude != nil
}

func (p *Packet) String() string {
	return fmt.Sprintf("%s>%s [%s]", p.From, p.To, p.DeclaredFormat())
}

// Ptr returns a pointer to v. Handy for building packets by hand.
func Ptr[T any](v T) *T {
	return &v
}

// FormatFloat renders f in its shortest round-trip form.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Str renders an optional string, NA when absent.
func Str(s *string) string {
	if s == nil {
		return NA
	}
	return *s
}

// Float renders an optional float, NA when absent.
func Float(f *float64) string {
	if f == nil {
		return NA
	}
	return FormatFloat(*f)
}

// Int renders an optional int, NA when absent.
func Int(i *int) string {
	if i == nil {
		return NA
	}
	return strconv.Itoa(*i)
}

// NonEmpty returns s, or NA if s is blank.
func NonEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return NA
	}
	return s
}
