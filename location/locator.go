package location

import (
	"context"

	"aprsnoop/packet"
)

// Locator is what the format handlers use to annotate packets with a place.
// A Locator built with a nil cache has reverse geocoding turned off and
// never resolves anything.
type Locator struct {
	cache *Cache
}

// NewLocator returns a Locator backed by cache, which may be nil.
func NewLocator(cache *Cache) *Locator {
	return &Locator{cache: cache}
}

// Enabled reports whether lookups can resolve places.
func (l *Locator) Enabled() bool {
	return l != nil && l.cache != nil
}

// Lookup resolves the packet's coordinates. It returns nil when lookups are
// off, the packet has no position, or the geocoder failed.
func (l *Locator) Lookup(pkt *packet.Packet) *Place {
	if !l.Enabled() || !pkt.HasPosition() {
		return nil
	}
	return l.cache.Lookup(context.Background(), *pkt.Latitude, *pkt.Longitude)
}

// PreciseLocation formats p as village or county, state and country code.
func (l *Locator) PreciseLocation(p *Place) string { return PreciseLocation(p) }

// CoarseLocation formats p as the smallest named area and country code.
func (l *Locator) CoarseLocation(p *Place) string { return CoarseLocation(p) }
