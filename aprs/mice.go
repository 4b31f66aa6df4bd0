package aprs

import (
	"fmt"
	"strings"
)

// micEDigit decodes one Mic-E destination character into its latitude
// digit. Ambiguity characters (K, L, Z) read as 0.
func micEDigit(c byte) (int, error) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'A' && c <= 'J':
		return int(c - 'A'), nil
	case c >= 'P' && c <= 'Y':
		return int(c - 'P'), nil
	case c == 'K' || c == 'L' || c == 'Z':
		return 0, nil
	}
	return 0, fmt.Errorf("invalid Mic-E destination character %q", c)
}

// parseMicE decodes a Mic-E report. The latitude and the N/S, E/W and
// longitude offset flags live in the destination callsign; longitude,
// speed, course and symbol in the information field (after the type byte).
func parseMicE(dest string, body string) (position, error) {
	if i := strings.IndexByte(dest, '-'); i >= 0 {
		dest = dest[:i]
	}
	if len(dest) != 6 {
		return position{}, fmt.Errorf("Mic-E destination must be 6 characters: %q", dest)
	}
	if len(body) < 8 {
		return position{}, fmt.Errorf("Mic-E information field too short")
	}

	var d [6]int
	for i := 0; i < 6; i++ {
		v, err := micEDigit(dest[i])
		if err != nil {
			return position{}, err
		}
		d[i] = v
	}
	lat := float64(d[0]*10+d[1]) + (float64(d[2]*10+d[3])+float64(d[4]*10+d[5])/100)/60
	if dest[3] < 'P' {
		lat = -lat
	}

	lonDeg := int(body[0]) - 28
	if dest[4] >= 'P' {
		lonDeg += 100
	}
	switch {
	case lonDeg >= 180 && lonDeg <= 189:
		lonDeg -= 80
	case lonDeg >= 190 && lonDeg <= 199:
		lonDeg -= 190
	}
	lonMin := int(body[1]) - 28
	if lonMin >= 60 {
		lonMin -= 60
	}
	lonHun := int(body[2]) - 28
	lon := float64(lonDeg) + (float64(lonMin)+float64(lonHun)/100)/60
	if dest[5] >= 'P' {
		lon = -lon
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return position{}, fmt.Errorf("Mic-E position out of range")
	}

	sp, dc, se := int(body[3])-28, int(body[4])-28, int(body[5])-28
	speed := sp*10 + dc/10
	course := (dc%10)*100 + se
	if speed >= 800 {
		speed -= 800
	}
	if course >= 400 {
		course -= 400
	}
	kmh := float64(speed) * knotsToKmh

	pos := position{
		Lat:      lat,
		Lon:      lon,
		Symbol:   body[6],
		SymTable: body[7],
		Course:   &course,
		Speed:    &kmh,
	}

	comment := body[8:]
	// Optional altitude: three base-91 digits then '}', meters above -10km.
	if i := strings.IndexByte(comment, '}'); i >= 3 {
		if v, err := base91(comment[i-3 : i]); err == nil {
			alt := float64(v - 10000)
			pos.Altitude = &alt
			comment = comment[:i-3] + comment[i+1:]
		}
	}
	pos.Comment = strings.TrimSpace(comment)
	return pos, nil
}
