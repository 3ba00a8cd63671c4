package sampling

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"mobility-synth/models"
)

func TestSampleChannel_PresenceFrequency(t *testing.T) {
	const n = 200000
	rng := rand.New(rand.NewSource(11))
	p := models.DefaultChannelTable().Channel(models.OnBicycle)

	present := 0
	for i := 0; i < n; i++ {
		if SampleChannel(rng, p).IsPresent() {
			present++
		}
	}
	assert.InDelta(t, 0.102, float64(present)/n, 0.004)
}

func TestSampleChannel_DegenerateGaussian(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	table := models.DefaultChannelTable()

	for _, a := range []models.Activity{models.Tilting, models.ExitingVehicle} {
		p := table.Channel(a)
		p.Presence = 1
		for i := 0; i < 1000; i++ {
			v, ok := SampleChannel(rng, p).Float()
			assert.True(t, ok)
			assert.Equal(t, 100.0, v, a.String())
		}
	}
}

func TestSampleChannel_PresenceBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	never := models.ChannelParams{Presence: 0, GaussianParams: models.GaussianParams{Mean: 5, StdDev: 1}}
	always := models.ChannelParams{Presence: 1, GaussianParams: models.GaussianParams{Mean: 5, StdDev: 1}}

	for i := 0; i < 10000; i++ {
		assert.False(t, SampleChannel(rng, never).IsPresent())
		assert.True(t, SampleChannel(rng, always).IsPresent())
	}
}

func TestSampleAccuracy_Moments(t *testing.T) {
	const n = 100000
	rng := rand.New(rand.NewSource(14))
	p := models.DefaultChannelTable().Accuracy

	var sum, sumSq float64
	negative := 0
	for i := 0; i < n; i++ {
		v := SampleAccuracy(rng, p)
		sum += v
		sumSq += v * v
		if v < 0 {
			negative++
		}
	}
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)

	assert.InDelta(t, 51.48, mean, 0.5)
	assert.InDelta(t, 32.90, std, 0.5)
	// accuracy is not clamped, so a visible share of draws is negative
	assert.Greater(t, negative, 0)
}

func TestSampleActivities_ValuesAreFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(15))
	table := models.DefaultChannelTable()

	var out [models.NumActivities]models.Value
	for i := 0; i < 1000; i++ {
		SampleActivities(rng, table, &out)
		for _, v := range out {
			if v.IsPresent() {
				assert.True(t, v.IsFinite())
			}
		}
	}
}

func TestGaussian_ZeroStdDevKeepsStream(t *testing.T) {
	a := rand.New(rand.NewSource(16))
	b := rand.New(rand.NewSource(16))

	Gaussian(a, models.GaussianParams{Mean: 3, StdDev: 0})
	Gaussian(b, models.GaussianParams{Mean: 3, StdDev: 2})
	assert.Equal(t, a.Int63(), b.Int63())
}
