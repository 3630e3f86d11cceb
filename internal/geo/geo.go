// Package geo provides geolocation utilities: great-circle distance for
// ranking and geohash encoding for privacy-preserving location display.
package geo

import (
	"math"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// DefaultPrecision is the default geohash precision for public display.
// Six characters give roughly ±0.61 km accuracy, coarse enough not to
// pinpoint exact venues.
const DefaultPrecision = 6

// FullPrecision is the precision coordinates are encoded at internally
// (roughly ±2.4 m) before being rounded for display.
const FullPrecision = 9

// Haversine returns the great-circle distance in kilometers between two
// points given in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// base32 is the geohash base32 alphabet (excludes 'a', 'i', 'l', 'o').
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// validGeohashChars is a lookup for valid geohash characters.
var validGeohashChars = map[rune]bool{
	'0': true, '1': true, '2': true, '3': true, '4': true,
	'5': true, '6': true, '7': true, '8': true, '9': true,
	'b': true, 'c': true, 'd': true, 'e': true, 'f': true,
	'g': true, 'h': true, 'j': true, 'k': true, 'm': true,
	'n': true, 'p': true, 'q': true, 'r': true, 's': true,
	't': true, 'u': true, 'v': true, 'w': true, 'x': true,
	'y': true, 'z': true,
}

// Encode encodes latitude and longitude into a geohash string with the
// specified precision using the standard base32 algorithm.
func Encode(lat, lng float64, precision int) string {
	if precision < 1 {
		precision = DefaultPrecision
	}

	latRange := [2]float64{-90.0, 90.0}
	lngRange := [2]float64{-180.0, 180.0}

	var geohash strings.Builder
	geohash.Grow(precision)

	bits := 0
	var ch uint

	even := true
	for geohash.Len() < precision {
		if even {
			// Longitude
			mid := (lngRange[0] + lngRange[1]) / 2
			if lng > mid {
				ch |= (1 << (4 - bits))
				lngRange[0] = mid
			} else {
				lngRange[1] = mid
			}
		} else {
			// Latitude
			mid := (latRange[0] + latRange[1]) / 2
			if lat > mid {
				ch |= (1 << (4 - bits))
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}

		even = !even
		bits++

		if bits == 5 {
			geohash.WriteByte(base32[ch])
			bits = 0
			ch = 0
		}
	}

	return geohash.String()
}

// Round truncates a geohash to the given precision for coarse display.
// Returns empty string for invalid input or precision < 1; inputs
// shorter than precision are returned lowercased as is.
func Round(input string, precision int) string {
	if input == "" || precision < 1 {
		return ""
	}

	lower := strings.ToLower(input)
	for _, c := range lower {
		if !validGeohashChars[c] {
			return ""
		}
	}

	if len(lower) <= precision {
		return lower
	}
	return lower[:precision]
}
