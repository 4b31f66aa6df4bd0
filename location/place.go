package location

import (
	"strings"

	"aprsnoop/packet"
)

// Place is the result of a reverse geocode. Address holds the structured
// address parts keyed the way Nominatim names them (village, county,
// county_district, state, country_code, ...). Missing parts are absent keys.
type Place struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

func (p *Place) part(key string) (string, bool) {
	v, ok := p.Address[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (p *Place) first(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := p.part(k); ok {
			return v, true
		}
	}
	return "", false
}

// PreciseLocation describes a place as "<village|county_district|county>,
// <state>, <CC>", skipping parts that are missing.
func PreciseLocation(p *Place) string {
	if p == nil || len(p.Address) == 0 {
		return packet.NA
	}

	var pieces []string
	if v, ok := p.first("village", "county_district", "county"); ok {
		pieces = append(pieces, v)
	}
	if v, ok := p.part("state"); ok {
		pieces = append(pieces, v)
	}
	if v, ok := p.part("country_code"); ok {
		pieces = append(pieces, strings.ToUpper(v))
	}
	return strings.Join(pieces, ", ")
}

// CoarseLocation describes a place as "<place> <CC>", where place is the
// first of village, county_district, county and state.
func CoarseLocation(p *Place) string {
	if p == nil || len(p.Address) == 0 {
		return packet.NA
	}

	loc := packet.NA
	if cc, ok := p.part("country_code"); ok {
		loc = strings.ToUpper(cc)
	}
	if v, ok := p.first("village", "county_district", "county", "state"); ok {
		loc = v + " " + loc
	}
	return loc
}
