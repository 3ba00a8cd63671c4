package sampling

import (
	"math/rand"

	"mobility-synth/models"
)

// SampleChannel performs the presence draw for one activity channel and, when
// the channel is present, the magnitude draw.
func SampleChannel(rng *rand.Rand, p models.ChannelParams) models.Value {
	if rng.Float64() < p.Presence {
		return models.Present(Gaussian(rng, p.GaussianParams))
	}
	return models.Missing
}

// SampleAccuracy draws the location accuracy. It has no presence gate.
func SampleAccuracy(rng *rand.Rand, p models.GaussianParams) float64 {
	return Gaussian(rng, p)
}

// Gaussian draws from N(mean, stddev). A zero stddev returns mean exactly.
func Gaussian(rng *rand.Rand, p models.GaussianParams) float64 {
	if p.StdDev == 0 {
		rng.NormFloat64() // keep the draw count fixed
		return p.Mean
	}
	return p.Mean + p.StdDev*rng.NormFloat64()
}

// SampleActivities fills one record's activity channels in column order.
func SampleActivities(rng *rand.Rand, table models.ChannelTable, out *[models.NumActivities]models.Value) {
	for i := range out {
		out[i] = SampleChannel(rng, table.Activities[i])
	}
}
