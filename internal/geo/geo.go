// Package geo holds the pure geometric primitives the route pipeline is
// built on: bearings, great-circle distances, polyline sampling and the
// encoded-polyline codec. Nothing in this package performs I/O.
package geo

import "math"

const earthRadiusM = 6371000.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bearing returns the initial bearing in degrees [0, 360) from a to b.
func Bearing(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLng := radians(b.Lng - a.Lng)

	x := math.Sin(dLng) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Mod(degrees(math.Atan2(x, y))+360, 360)
	return deg
}

// BearingDiff returns the absolute angular difference between two bearings,
// normalized to [0, 180].
func BearingDiff(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// HaversineM returns the great-circle distance between a and b in metres.
func HaversineM(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// HaversineKm returns the great-circle distance between a and b in kilometres.
func HaversineKm(a, b Point) float64 {
	return HaversineM(a, b) / 1000
}

// PathDistanceM returns the distance in metres along the polyline between
// indices i and j (inclusive endpoints, i <= j).
func PathDistanceM(points []Point, i, j int) float64 {
	if i > j {
		i, j = j, i
	}
	if i < 0 {
		i = 0
	}
	if j > len(points)-1 {
		j = len(points) - 1
	}
	var total float64
	for k := i; k < j; k++ {
		total += HaversineM(points[k], points[k+1])
	}
	return total
}

// DetourRatio returns the path distance between indices i and j of the
// polyline divided by their straight-line distance. A ratio far above 1
// means the path between the two points wanders; the spur detector uses
// this to tell an out-and-back stub from legitimate loop geometry.
// Returns +Inf when the straight-line distance is effectively zero.
func DetourRatio(points []Point, i, j int) float64 {
	straight := HaversineM(points[i], points[j])
	if straight < 1 {
		return math.Inf(1)
	}
	return PathDistanceM(points, i, j) / straight
}

// NearestIndex returns the index of the polyline point closest to p.
func NearestIndex(points []Point, p Point) int {
	best := 0
	bestDist := math.Inf(1)
	for i, pt := range points {
		if d := HaversineM(p, pt); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// PathSample is one point taken from a polyline at a fixed spacing,
// annotated with its source index and cumulative path distance.
type PathSample struct {
	Point Point
	Index int
	PathM float64
}

// SampleEvery walks the polyline and emits one sample roughly every
// intervalM metres of path distance. The first point is always included.
func SampleEvery(points []Point, intervalM float64) []PathSample {
	if len(points) == 0 {
		return nil
	}
	samples := []PathSample{{Point: points[0], Index: 0, PathM: 0}}
	var cumulative, sinceLast float64
	for i := 1; i < len(points); i++ {
		d := HaversineM(points[i-1], points[i])
		cumulative += d
		sinceLast += d
		if sinceLast >= intervalM {
			samples = append(samples, PathSample{Point: points[i], Index: i, PathM: cumulative})
			sinceLast = 0
		}
	}
	return samples
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
