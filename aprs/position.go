package aprs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// normalPosRegex matches an uncompressed position:
// 1 lat deg, 2 lat min, 3 N/S, 4 symbol table, 5 lon deg, 6 lon min, 7 E/W,
// 8 symbol, 9 comment.
var normalPosRegex = regexp.MustCompile(
	`^(\d{2})([0-9 ]{2}\.[0-9 ]{2})([NnSs])` +
		`([\/\\0-9A-Z])` +
		`(\d{3})([0-9 ]{2}\.[0-9 ]{2})([EeWw])` +
		`([\x21-\x7e])` +
		`(.*)$`,
)

var (
	courseSpeedRegex = regexp.MustCompile(`^([0-9 .]{3})/([0-9 .]{3})`)
	altitudeRegex    = regexp.MustCompile(`/A=(-?\d{5,6})`)
)

const (
	knotsToKmh   = 1.852
	feetToMeters = 0.3048
)

// position is what the position parsers extract from a report body.
type position struct {
	Lat, Lon   float64
	SymTable   byte
	Symbol     byte
	Compressed bool
	Course     *int
	Speed      *float64 // km/h
	Altitude   *float64 // meters
	Comment    string
}

// IsWeather reports whether the symbol is the weather station icon.
func (p position) IsWeather() bool {
	return p.Symbol == '_'
}

// parseLat converts DDMM.hh plus hemisphere to decimal degrees. Spaces
// from position ambiguity are read as the middle of the range.
func parseLat(degStr, minStr, dirStr string) (float64, error) {
	minStr = strings.ReplaceAll(minStr, " ", "5")

	deg, err := strconv.ParseFloat(degStr, 64)
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(minStr, 64)
	if err != nil {
		return 0, err
	}

	lat := deg + min/60.0
	switch dirStr {
	case "S", "s":
		lat = -lat
	case "N", "n":
	default:
		return 0, fmt.Errorf("invalid latitude hemisphere: %s", dirStr)
	}
	if lat < -90 || lat > 90 {
		return 0, fmt.Errorf("latitude out of range: %f", lat)
	}
	return lat, nil
}

// parseLon converts DDDMM.hh plus hemisphere to decimal degrees.
func parseLon(degStr, minStr, dirStr string) (float64, error) {
	minStr = strings.ReplaceAll(minStr, " ", "5")

	deg, err := strconv.ParseFloat(degStr, 64)
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(minStr, 64)
	if err != nil {
		return 0, err
	}

	lon := deg + min/60.0
	switch dirStr {
	case "W", "w":
		lon = -lon
	case "E", "e":
	default:
		return 0, fmt.Errorf("invalid longitude hemisphere: %s", dirStr)
	}
	if lon < -180 || lon > 180 {
		return 0, fmt.Errorf("longitude out of range: %f", lon)
	}
	return lon, nil
}

// parsePositionBody parses a position that starts at body[0], either
// uncompressed (starts with a latitude digit) or compressed (starts with
// the symbol table).
func parsePositionBody(body string) (position, error) {
	if body == "" {
		return position{}, fmt.Errorf("empty position")
	}
	if body[0] >= '0' && body[0] <= '9' {
		return parseNormal(body)
	}
	return parseCompressed(body)
}

func parseNormal(body string) (position, error) {
	m := normalPosRegex.FindStringSubmatch(body)
	if m == nil {
		return position{}, fmt.Errorf("invalid uncompressed position format")
	}

	lat, err := parseLat(m[1], m[2], m[3])
	if err != nil {
		return position{}, fmt.Errorf("failed to parse latitude: %w", err)
	}
	lon, err := parseLon(m[5], m[6], m[7])
	if err != nil {
		return position{}, fmt.Errorf("failed to parse longitude: %w", err)
	}

	pos := position{Lat: lat, Lon: lon, SymTable: m[4][0], Symbol: m[8][0]}
	pos.Comment = pos.parseExtensions(m[9])
	return pos, nil
}

// parseExtensions pulls the course/speed data extension and the altitude
// out of a comment and returns what is left. Weather stations use the
// course/speed slot for wind, so it is left in place for them. Compressed
// positions carry course and speed in the cs bytes instead.
func (p *position) parseExtensions(comment string) string {
	if !p.IsWeather() && !p.Compressed {
		if m := courseSpeedRegex.FindStringSubmatch(comment); m != nil {
			if c, err := strconv.Atoi(strings.TrimSpace(m[1])); err == nil {
				p.Course = &c
			}
			if s, err := strconv.ParseFloat(strings.TrimSpace(m[2]), 64); err == nil {
				kmh := s * knotsToKmh
				p.Speed = &kmh
			}
			comment = comment[len(m[0]):]
		}
	}

	if m := altitudeRegex.FindStringSubmatchIndex(comment); m != nil {
		if ft, err := strconv.Atoi(comment[m[2]:m[3]]); err == nil {
			alt := float64(ft) * feetToMeters
			p.Altitude = &alt
		}
		comment = comment[:m[0]] + comment[m[1]:]
	}
	return strings.TrimSpace(comment)
}

// base91 decodes a base-91 number as used by compressed positions.
func base91(s string) (int, error) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := int(s[i]) - 33
		if c < 0 || c > 90 {
			return 0, fmt.Errorf("invalid base91 character %q", s[i])
		}
		n = n*91 + c
	}
	return n, nil
}

// parseCompressed decodes the 13 byte compressed position format:
// table, YYYY, XXXX, symbol, c, s, t.
func parseCompressed(body string) (position, error) {
	if len(body) < 13 {
		return position{}, fmt.Errorf("compressed position too short")
	}
	table := body[0]
	if !(table == '/' || table == '\\' || (table >= 'A' && table <= 'Z') || (table >= 'a' && table <= 'j')) {
		return position{}, fmt.Errorf("invalid compressed symbol table %q", table)
	}

	y, err := base91(body[1:5])
	if err != nil {
		return position{}, err
	}
	x, err := base91(body[5:9])
	if err != nil {
		return position{}, err
	}

	pos := position{
		Lat:        90 - float64(y)/380926.0,
		Lon:        -180 + float64(x)/190463.0,
		SymTable:   table,
		Symbol:     body[9],
		Compressed: true,
	}

	c, s, t := body[10], body[11], body[12]
	if c != ' ' {
		cv, sv := int(c)-33, int(s)-33
		switch {
		case (int(t)-33)&0x18 == 0x10:
			alt := math.Pow(1.002, float64(cv*91+sv)) * feetToMeters
			pos.Altitude = &alt
		case cv >= 0 && cv <= 89:
			course := cv * 4
			speed := (math.Pow(1.08, float64(sv)) - 1) * knotsToKmh
			pos.Course = &course
			pos.Speed = &speed
		}
	}

	pos.Comment = pos.parseExtensions(body[13:])
	return pos, nil
}
