package aprs

import (
	"fmt"
	"strings"
)

// ReadOnlyPasscode logs in to APRS-IS without the right to transmit.
const ReadOnlyPasscode = -1

// Passcode computes the APRS-IS passcode for a callsign. The SSID is
// ignored.
func Passcode(callsign string) (int, error) {
	call, _, _ := strings.Cut(strings.ToUpper(callsign), "-")
	if len(call) < 1 || len(call) > 6 {
		return 0, fmt.Errorf("invalid callsign format for passcode: %s", callsign)
	}

	hash := 0x73e2
	for i := 0; i < len(call); i++ {
		if i%2 == 0 {
			hash ^= int(call[i]) << 8
		} else {
			hash ^= int(call[i])
		}
	}
	return hash & 0x7fff, nil
}
