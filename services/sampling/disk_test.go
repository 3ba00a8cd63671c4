package sampling

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	berlinLat = 52.520659
	berlinLon = 13.411305
)

// unwarp undoes the longitude-cosine correction so the offset is back in the
// raw disk frame.
func unwarp(lat, lon float64) (x, y float64) {
	return (lat - berlinLat) * math.Cos(berlinLon), lon - berlinLon
}

func TestSamplePoint_WithinRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	radiusDeg := 20000 / MetersPerDegree

	for i := 0; i < 50000; i++ {
		lat, lon := SamplePoint(rng, berlinLat, berlinLon, 20000)
		x, y := unwarp(lat, lon)
		require.LessOrEqual(t, math.Hypot(x, y), radiusDeg+1e-12, "draw %d", i)
	}
}

func TestSamplePoint_ZeroRadiusIsCentre(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	lat, lon := SamplePoint(rng, berlinLat, berlinLon, 0)
	assert.Equal(t, berlinLat, lat)
	assert.Equal(t, berlinLon, lon)
}

func TestSamplePoint_LongitudeSpread(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	radiusDeg := 20000 / MetersPerDegree

	maxLon := 0.0
	for i := 0; i < 20000; i++ {
		_, lon := SamplePoint(rng, berlinLat, berlinLon, 20000)
		maxLon = math.Max(maxLon, math.Abs(lon-berlinLon))
	}
	assert.LessOrEqual(t, maxLon, radiusDeg)
	assert.Greater(t, maxLon, 0.9*radiusDeg)
}

// The squared normalised radius of an area-uniform disk sample is U(0,1).
func TestSamplePoint_UniformByArea(t *testing.T) {
	const (
		n    = 100000
		bins = 10
	)
	rng := rand.New(rand.NewSource(42))
	radiusDeg := 20000 / MetersPerDegree

	var counts [bins]int
	for i := 0; i < n; i++ {
		lat, lon := SamplePoint(rng, berlinLat, berlinLon, 20000)
		x, y := unwarp(lat, lon)
		r2 := (x*x + y*y) / (radiusDeg * radiusDeg)
		b := int(r2 * bins)
		if b == bins {
			b--
		}
		counts[b]++
	}

	expected := float64(n) / bins
	chi2 := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	// 9 degrees of freedom, p = 0.001
	assert.Less(t, chi2, 27.88, "counts %v", counts)
}

func TestSamplePoint_Deterministic(t *testing.T) {
	a := rand.New(rand.NewSource(7))
	b := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		lat1, lon1 := SamplePoint(a, berlinLat, berlinLon, 1000)
		lat2, lon2 := SamplePoint(b, berlinLat, berlinLon, 1000)
		require.Equal(t, lat1, lat2)
		require.Equal(t, lon1, lon2)
	}
}
