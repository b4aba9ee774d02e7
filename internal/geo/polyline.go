package geo

import "strings"

// EncodePolyline encodes points using the Google encoded-polyline algorithm
// at the standard 5-decimal precision.
func EncodePolyline(points []Point) string {
	var sb strings.Builder
	var prevLat, prevLng int64

	for _, p := range points {
		latE5 := roundE5(p.Lat)
		lngE5 := roundE5(p.Lng)

		writeDelta(&sb, latE5-prevLat)
		writeDelta(&sb, lngE5-prevLng)

		prevLat = latE5
		prevLng = lngE5
	}
	return sb.String()
}

// DecodePolyline decodes an encoded polyline back into points. A truncated
// trailing chunk is dropped rather than treated as an error; upstream route
// providers occasionally clip long polylines mid-coordinate.
func DecodePolyline(encoded string) []Point {
	var points []Point
	var lat, lng int64
	i := 0

	for i < len(encoded) {
		dLat, next, ok := readDelta(encoded, i)
		if !ok {
			break
		}
		dLng, after, ok := readDelta(encoded, next)
		if !ok {
			break
		}
		lat += dLat
		lng += dLng
		i = after
		points = append(points, Point{Lat: float64(lat) / 1e5, Lng: float64(lng) / 1e5})
	}
	return points
}

func roundE5(v float64) int64 {
	if v < 0 {
		return int64(v*1e5 - 0.5)
	}
	return int64(v*1e5 + 0.5)
}

func writeDelta(sb *strings.Builder, delta int64) {
	value := delta << 1
	if delta < 0 {
		value = ^value
	}
	for value >= 0x20 {
		sb.WriteByte(byte((0x20 | (value & 0x1f)) + 63))
		value >>= 5
	}
	sb.WriteByte(byte(value + 63))
}

func readDelta(encoded string, i int) (delta int64, next int, ok bool) {
	var value int64
	var shift uint
	for {
		if i >= len(encoded) {
			return 0, i, false
		}
		b := int64(encoded[i]) - 63
		i++
		value |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if value&1 != 0 {
		delta = ^(value >> 1)
	} else {
		delta = value >> 1
	}
	return delta, i, true
}
