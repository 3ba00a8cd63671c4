// Package sampling holds the random draws behind every synthetic record:
// points in a disk, timestamps in an interval and activity-channel values.
// Every function takes the generator explicitly; nothing here touches the
// global math/rand source.
package sampling

import (
	"math"
	"math/rand"
)

// MetersPerDegree converts a radius in metres to degrees.
const MetersPerDegree = 111300.0

// SamplePoint returns a point uniformly distributed by area inside the disk of
// radiusMeters around (centerLat, centerLon).
//
// The latitude offset is divided by cos(centerLon) (radians), not
// cos(centerLat). Existing datasets were produced with this correction.
func SamplePoint(rng *rand.Rand, centerLat, centerLon, radiusMeters float64) (lat, lon float64) {
	x, y := diskOffset(rng, radiusMeters/MetersPerDegree)
	return centerLat + x/math.Cos(centerLon), centerLon + y
}

// diskOffset draws the raw Cartesian offset in degrees, uniform by area.
func diskOffset(rng *rand.Rand, radiusDeg float64) (x, y float64) {
	u := rng.Float64()
	v := rng.Float64()
	w := radiusDeg * math.Sqrt(u)
	t := 2 * math.Pi * v
	return w * math.Cos(t), w * math.Sin(t)
}
