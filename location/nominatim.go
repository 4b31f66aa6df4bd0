package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"aprsnoop/metrics"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Geocoder resolves coordinates to a place. A returned error is a geocode
// service failure; callers must not cache it.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*Place, error)
}

// Nominatim is a Geocoder backed by the Nominatim /reverse endpoint.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatim creates a client for baseURL. The public instance requires a
// descriptive User-Agent. A zero timeout selects 10s.
func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Nominatim{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

type nominatimResponse struct {
	Place
	Error string `json:"error"`
}

// Reverse queries /reverse for the place at lat, lon.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	t0 := time.Now()
	resp, err := n.client.Do(req)
	metrics.GeocoderDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("nominatim returned %s: %s", resp.Status, body)
	}

	var r nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if r.Error != "" {
		return nil, fmt.Errorf("nominatim error: %s", r.Error)
	}
	return &r.Place, nil
}
