package commands

import (
	"fmt"
	"strconv"
)

func parseCoordinates(latRaw, lngRaw string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", latRaw, err)
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", lngRaw, err)
	}
	return lat, lng, nil
}
