// Package geo provides geographic primitives: great-circle distance and the
// DIGIPIN grid code used when a member record carries a pin instead of raw
// coordinates.
// This is part of the platform layer and contains no business logic.
package geo

import (
	"fmt"
	"math"
	"strings"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// (lat, lng) pairs given in degrees. Inputs are not validated; NaN propagates.
func Haversine(aLat, aLng, bLat, bLng float64) float64 {
	dLat := toRadians(bLat - aLat)
	dLng := toRadians(bLng - aLng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat +
		math.Cos(toRadians(aLat))*math.Cos(toRadians(bLat))*sinLng*sinLng

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DIGIPIN is a 10-symbol grid code over the Indian bounding box. Each level
// subdivides the current cell into a 4x4 grid addressed by one symbol; row 0
// of the symbol grid is the northernmost band.
const (
	digipinLevels = 10

	digipinMinLat = 2.5
	digipinMaxLat = 38.5
	digipinMinLng = 63.5
	digipinMaxLng = 99.5
)

var digipinGrid = [4][4]byte{
	{'F', 'C', '9', '8'},
	{'J', '3', '2', '7'},
	{'K', '4', '5', '6'},
	{'L', 'M', 'P', 'T'},
}

// EncodeDigipin converts a coordinate to its 10-symbol DIGIPIN, formatted with
// hyphens after the third and sixth symbols.
func EncodeDigipin(lat, lng float64) (string, error) {
	if lat < digipinMinLat || lat > digipinMaxLat || lng < digipinMinLng || lng > digipinMaxLng {
		return "", fmt.Errorf("coordinate (%.4f, %.4f) outside digipin bounds", lat, lng)
	}

	minLat, maxLat := digipinMinLat, digipinMaxLat
	minLng, maxLng := digipinMinLng, digipinMaxLng

	var sb strings.Builder
	for level := 1; level <= digipinLevels; level++ {
		latDiv := (maxLat - minLat) / 4
		lngDiv := (maxLng - minLng) / 4

		row := 3 - int((lat-minLat)/latDiv)
		col := int((lng - minLng) / lngDiv)
		row = clampIndex(row)
		col = clampIndex(col)

		sb.WriteByte(digipinGrid[row][col])
		if level == 3 || level == 6 {
			sb.WriteByte('-')
		}

		maxLat = minLat + latDiv*float64(4-row)
		minLat = maxLat - latDiv
		minLng = minLng + lngDiv*float64(col)
		maxLng = minLng + lngDiv
	}

	return sb.String(), nil
}

// DecodeDigipin resolves a DIGIPIN (hyphens optional) to the center of its
// grid cell.
func DecodeDigipin(code string) (lat, lng float64, err error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
	if len(cleaned) != digipinLevels {
		return 0, 0, fmt.Errorf("digipin must have %d symbols, got %d", digipinLevels, len(cleaned))
	}

	minLat, maxLat := digipinMinLat, digipinMaxLat
	minLng, maxLng := digipinMinLng, digipinMaxLng

	for i := 0; i < len(cleaned); i++ {
		row, col, ok := lookupDigipinSymbol(cleaned[i])
		if !ok {
			return 0, 0, fmt.Errorf("invalid digipin symbol %q", cleaned[i])
		}

		latDiv := (maxLat - minLat) / 4
		lngDiv := (maxLng - minLng) / 4

		maxLat = minLat + latDiv*float64(4-row)
		minLat = maxLat - latDiv
		minLng = minLng + lngDiv*float64(col)
		maxLng = minLng + lngDiv
	}

	return (minLat + maxLat) / 2, (minLng + maxLng) / 2, nil
}

func lookupDigipinSymbol(symbol byte) (row, col int, ok bool) {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if digipinGrid[r][c] == symbol {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > 3 {
		return 3
	}
	return i
}
