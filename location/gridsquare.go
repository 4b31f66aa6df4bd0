package location

import (
	"fmt"
	"strings"
)

// GridSquareCenter returns the latitude and longitude of the center of a
// 4 or 6 character Maidenhead locator such as "FN31" or "FN31pr".
func GridSquareCenter(grid string) (lat, lon float64, err error) {
	grid = strings.ToUpper(strings.TrimSpace(grid))
	if len(grid) != 4 && len(grid) != 6 {
		return 0, 0, fmt.Errorf("gridsquare must be 4 or 6 characters: %q", grid)
	}
	if grid[0] < 'A' || grid[0] > 'R' || grid[1] < 'A' || grid[1] > 'R' {
		return 0, 0, fmt.Errorf("invalid gridsquare field in %q", grid)
	}
	if grid[2] < '0' || grid[2] > '9' || grid[3] < '0' || grid[3] > '9' {
		return 0, 0, fmt.Errorf("invalid gridsquare square in %q", grid)
	}

	// Field is 20x10 degrees, square 2x1.
	lon = float64(grid[0]-'A')*20 - 180 + float64(grid[2]-'0')*2
	lat = float64(grid[1]-'A')*10 - 90 + float64(grid[3]-'0')

	if len(grid) == 4 {
		return lat + 0.5, lon + 1, nil
	}
	if grid[4] < 'A' || grid[4] > 'X' || grid[5] < 'A' || grid[5] > 'X' {
		return 0, 0, fmt.Errorf("invalid gridsquare subsquare in %q", grid)
	}
	// Subsquare is 5x2.5 minutes.
	lon += float64(grid[4]-'A')*(2.0/24) + 1.0/24
	lat += float64(grid[5]-'A')*(1.0/24) + 0.5/24
	return lat, lon, nil
}
