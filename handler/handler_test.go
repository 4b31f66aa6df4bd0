package handler

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"aprsnoop/clock"
	"aprsnoop/location"
	"aprsnoop/packet"
	"aprsnoop/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	place *location.Place
	err   error
	calls int
}

func (s *stubGeocoder) Reverse(ctx context.Context, lat, lon float64) (*location.Place, error) {
	s.calls++
	return s.place, s.err
}

var hallstatt = &location.Place{Address: map[string]string{
	"village":      "Hallstatt",
	"state":        "Upper Austria",
	"country_code": "at",
}}

func newDispatcher(t *testing.T, g location.Geocoder) (*Dispatcher, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	clk := clock.NewManual(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	var loc *location.Locator
	if g != nil {
		loc = location.NewLocator(location.NewCache(g, time.Hour, clk))
	}
	r := telemetry.New(out, telemetry.WithClock(clk))
	t.Cleanup(r.Stop)
	return NewDispatcher(Deps{Out: out, Locator: loc, Telemetry: r}), out
}

func withFormat(format string) *packet.Packet {
	return &packet.Packet{From: "N0CALL", To: "APRS", Format: packet.Ptr(format)}
}

func TestClassify_ByDeclaredFormat(t *testing.T) {
	d, _ := newDispatcher(t, nil)

	tests := []struct {
		format string
		want   string
	}{
		{"uncompressed", "Position Reports"},
		{"compressed", "Position Reports"},
		{"mic-e", "Position Reports"},
		{"object", "Objects Reports"},
		{"wx", "Weather Reports"},
		{"status", "Status Reports"},
		{"message", "Messages"},
		{"telemetry-message", "Telemetry"},
		{"generic", "Generic"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			h, ok := d.Classify(withFormat(tt.format))
			require.True(t, ok)
			assert.Equal(t, tt.want, h.Name())
		})
	}
}

func TestClassify_MissingFormatIsGeneric(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	h, ok := d.Classify(&packet.Packet{From: "N0CALL"})
	require.True(t, ok)
	assert.Equal(t, "Generic", h.Name())
}

func TestClassify_WeatherAlwaysWins(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	for _, format := range []string{"uncompressed", "compressed", "object", "message", "telemetry-message", "bogus", ""} {
		p := withFormat(format)
		p.Weather = &packet.Weather{}
		h, ok := d.Classify(p)
		require.True(t, ok, format)
		assert.Equal(t, "Weather Reports", h.Name(), format)
	}
}

func TestClassify_UnknownFormat(t *testing.T) {
	d, out := newDispatcher(t, nil)
	for _, format := range []string{"beacon", "thirdparty", "nmea", "user-defined"} {
		_, ok := d.Classify(withFormat(format))
		assert.False(t, ok, format)
		assert.False(t, d.Dispatch(withFormat(format)), format)
	}
	assert.Empty(t, out.String())
}

func TestClassify_FirstMatchWins(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	names := make([]string, 0)
	for _, h := range d.Handlers() {
		names = append(names, h.Name())
	}
	assert.Equal(t, []string{"Generic", "Position Reports", "Objects Reports", "Weather Reports", "Status Reports", "Messages", "Telemetry"}, names)

	// "e" is a substring of several tags; the earliest registered one wins.
	h, ok := d.Classify(withFormat("e"))
	require.True(t, ok)
	assert.Equal(t, "Generic", h.Name())
}

func TestPosition_Handle(t *testing.T) {
	g := &stubGeocoder{place: hallstatt}
	d, out := newDispatcher(t, g)

	p := withFormat("uncompressed")
	p.Latitude = packet.Ptr(47.5622)
	p.Longitude = packet.Ptr(13.6493)
	p.Altitude = packet.Ptr(511.0)
	p.Comment = packet.Ptr("Lakeside digi")
	require.True(t, d.Dispatch(p))
	require.True(t, d.Dispatch(p))

	want := "position(N0CALL): coordinates(47.5622,13.6493), altitude(511), comment(Lakeside digi), location(Hallstatt, Upper Austria, AT),\n"
	assert.Equal(t, want+want, out.String())
	assert.Equal(t, 1, g.calls)
}

func TestPosition_HandleMissingFields(t *testing.T) {
	d, out := newDispatcher(t, &stubGeocoder{place: hallstatt})
	d.Dispatch(withFormat("mic-e"))
	assert.Equal(t, "position(N0CALL): coordinates(n/a,n/a), altitude(n/a), comment(n/a),\n", out.String())
}

func TestPosition_GeocodeFailureOmitsLocation(t *testing.T) {
	g := &stubGeocoder{err: errors.New("503")}
	d, out := newDispatcher(t, g)

	p := withFormat("compressed")
	p.Latitude = packet.Ptr(1.5)
	p.Longitude = packet.Ptr(-2.25)
	d.Dispatch(p)
	d.Dispatch(p)

	assert.Equal(t, 2, g.calls)
	assert.NotContains(t, out.String(), "location(")
}

func TestObject_Handle(t *testing.T) {
	d, out := newDispatcher(t, &stubGeocoder{place: hallstatt})

	p := withFormat("object")
	p.Latitude = packet.Ptr(47.5)
	p.Longitude = packet.Ptr(13.5)
	p.Course = packet.Ptr(270)
	p.ObjectName = packet.Ptr("HAMFEST  ")
	p.Comment = packet.Ptr("Sat 9-14")
	d.Dispatch(p)

	assert.Equal(t,
		"object(N0CALL): coordinates(47.5,13.5), altitude(n/a), course(270), object_name(HAMFEST), comment(Sat 9-14), location(Hallstatt AT),\n",
		out.String())
}

func TestWeather_Handle(t *testing.T) {
	tests := []struct {
		name string
		geo  location.Geocoder
		pkt  func() *packet.Packet
		want string
	}{
		{
			name: "full report without geocoding",
			pkt: func() *packet.Packet {
				p := withFormat("uncompressed")
				p.Weather = &packet.Weather{
					Temperature: packet.Ptr(21.666),
					Humidity:    packet.Ptr(55),
					Pressure:    packet.Ptr(1013.2),
					WindSpeed:   packet.Ptr(3.58),
				}
				return p
			},
			want: "weather(N0CALL): temp(21.7), humidity(55), pressure(1013.2), wind(3.58),\n",
		},
		{
			name: "zero temperature is a reading",
			pkt: func() *packet.Packet {
				p := withFormat("wx")
				p.Weather = &packet.Weather{Temperature: packet.Ptr(0.0)}
				return p
			},
			want: "weather(N0CALL): temp(0.0), humidity(n/a), pressure(n/a), wind(n/a),\n",
		},
		{
			name: "coarse place replaces sender",
			geo:  &stubGeocoder{place: hallstatt},
			pkt: func() *packet.Packet {
				p := withFormat("wx")
				p.Latitude = packet.Ptr(47.5)
				p.Longitude = packet.Ptr(13.6)
				p.Weather = &packet.Weather{}
				return p
			},
			want: "weather(Hallstatt AT): temp(n/a), humidity(n/a), pressure(n/a), wind(n/a),\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, out := newDispatcher(t, tt.geo)
			d.Dispatch(tt.pkt())
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestWeather_WithoutRecordPrintsNothing(t *testing.T) {
	d, out := newDispatcher(t, nil)
	d.Dispatch(withFormat("wx"))
	assert.Empty(t, out.String())
}

func TestStatusAndMessage_Handle(t *testing.T) {
	d, out := newDispatcher(t, nil)

	s := withFormat("status")
	s.Status = packet.Ptr("On the air")
	d.Dispatch(s)

	m := withFormat("message")
	m.Addressee = packet.Ptr("K1ABC")
	m.Text = packet.Ptr("hello there")
	d.Dispatch(m)

	d.Dispatch(withFormat("message"))

	assert.Equal(t,
		"status(N0CALL): On the air\n"+
			"message(K1ABC): to(APRS), from(N0CALL), text(hello there)\n"+
			"message(n/a): to(APRS), from(N0CALL), text(n/a)\n",
		out.String())
}

func TestTelemetry_HandleThroughDispatcher(t *testing.T) {
	d, out := newDispatcher(t, nil)

	send := func(mod func(*packet.Packet)) {
		p := withFormat("telemetry-message")
		p.Addressee = packet.Ptr("N0CALL")
		mod(p)
		require.True(t, d.Dispatch(p))
	}
	send(func(p *packet.Packet) { p.TParm = []string{"Vbat"} })
	send(func(p *packet.Packet) { p.TUnit = []string{"V"} })
	assert.Empty(t, out.String())
	send(func(p *packet.Packet) { p.TEqns = []packet.Equation{{B: 0.1}} })

	assert.Equal(t,
		"telemetry(N0CALL): to(APRS), from(N0CALL), data(time=2024-03-01T12:00:00Z values=[[Vbat 0,0.1,0 V]])\n",
		out.String())
}

func TestGeneric_Handle(t *testing.T) {
	d, out := newDispatcher(t, nil)
	p := &packet.Packet{From: "N0CALL", To: "APRS", Raw: "N0CALL>APRS:}thirdparty"}
	d.Dispatch(p)
	assert.Equal(t, "generic(N0CALL): format(generic), raw(N0CALL>APRS:}thirdparty)\n", out.String())
}
