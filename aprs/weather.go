package aprs

import (
	"strconv"
	"strings"

	"aprsnoop/packet"
)

const (
	mphToMs       = 0.44704
	hundredthInMm = 0.254
)

// weatherFieldWidths gives the value width of each single letter weather
// field. Unknown letters end parsing; whatever follows is the comment.
var weatherFieldWidths = map[byte]int{
	'c': 3, // wind direction
	's': 3, // sustained wind speed, mph
	'g': 3, // gust, mph
	't': 3, // temperature, F
	'r': 3, // rain last hour, 1/100 in
	'p': 3, // rain last 24h
	'P': 3, // rain since midnight
	'h': 2, // humidity, 00 is 100%
	'b': 5, // pressure, 1/10 mbar
	'L': 3, // luminosity
	'l': 3,
	'#': 3, // raw rain counter
}

// parseWeather reads weather fields from the start of s. Fields that are
// blank or dotted ("...") are left unset. It returns the record and the
// remaining text.
func parseWeather(s string) (*packet.Weather, string) {
	wx := &packet.Weather{}

	// A position report with the weather symbol starts with DDD/SSS.
	if len(s) >= 7 && s[3] == '/' {
		if d, ok := wxInt(s[0:3]); ok {
			wx.WindDirection = &d
		}
		if v, ok := wxInt(s[4:7]); ok {
			ms := float64(v) * mphToMs
			wx.WindSpeed = &ms
		}
		s = s[7:]
	}

	for len(s) > 0 {
		width, ok := weatherFieldWidths[s[0]]
		if !ok || len(s) < 1+width {
			break
		}
		key, raw := s[0], s[1:1+width]
		s = s[1+width:]

		v, ok := wxInt(raw)
		if !ok {
			continue
		}
		switch key {
		case 'c':
			wx.WindDirection = &v
		case 's':
			ms := float64(v) * mphToMs
			wx.WindSpeed = &ms
		case 'g':
			ms := float64(v) * mphToMs
			wx.WindGust = &ms
		case 't':
			c := (float64(v) - 32) / 1.8
			wx.Temperature = &c
		case 'r':
			mm := float64(v) * hundredthInMm
			wx.Rain1h = &mm
		case 'h':
			if v == 0 {
				v = 100
			}
			wx.Humidity = &v
		case 'b':
			hpa := float64(v) / 10
			wx.Pressure = &hpa
		}
	}
	return wx, strings.TrimSpace(s)
}

func wxInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Trim(raw, ".") == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
