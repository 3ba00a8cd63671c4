package controller

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobility-synth/models"
)

const calibrationDoc = `{"locations": [
  {"latitudeE7": 1, "longitudeE7": 1, "accuracy": 10,
   "activity": [{"activity": [{"type": "STILL", "confidence": 60}, {"type": "TILTING", "confidence": 100}]}]},
  {"latitudeE7": 1, "longitudeE7": 1, "accuracy": 30,
   "activity": [{"activity": [{"type": "STILL", "confidence": 80}]}]},
  {"latitudeE7": 1, "longitudeE7": 1, "accuracy": 20},
  {"latitudeE7": 1, "longitudeE7": 1, "accuracy": 20},
  {"accuracy": 999}
]}`

func TestCalibrationController_Run(t *testing.T) {
	observe(t)

	report, err := NewCalibrationController(models.DefaultChannelTable()).Run(
		context.Background(), strings.NewReader(calibrationDoc))
	require.NoError(t, err)

	assert.EqualValues(t, 4, report.Locations)
	assert.EqualValues(t, 1, report.Skipped)
	assert.EqualValues(t, 4, report.AccuracySamples)

	assert.InDelta(t, 20, report.Table.Accuracy.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(50), report.Table.Accuracy.StdDev, 1e-9)

	still := report.Table.Channel(models.Still)
	assert.InDelta(t, 0.5, still.Presence, 1e-9)
	assert.InDelta(t, 70, still.Mean, 1e-9)
	assert.InDelta(t, 10, still.StdDev, 1e-9)

	tilting := report.Table.Channel(models.Tilting)
	assert.InDelta(t, 0.25, tilting.Presence, 1e-9)
	assert.Equal(t, 100.0, tilting.Mean)
	assert.Zero(t, tilting.StdDev)

	assert.Equal(t, models.ChannelParams{}, report.Table.Channel(models.OnBicycle))
	assert.EqualValues(t, 2, report.ChannelSamples[models.Still])
	require.NoError(t, report.Table.Validate())
}

func TestCalibrationController_KeepsAccuracyWithoutSamples(t *testing.T) {
	observe(t)

	base := models.DefaultChannelTable()
	doc := `[{"latitudeE7": 1, "longitudeE7": 1}]`
	report, err := NewCalibrationController(base).Run(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, base.Accuracy, report.Table.Accuracy)
}

func TestCalibrationController_Errors(t *testing.T) {
	observe(t)
	cc := NewCalibrationController(models.DefaultChannelTable())

	_, err := cc.Run(context.Background(), strings.NewReader(`{"locations": []}`))
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = cc.Run(context.Background(), strings.NewReader(`{"locations": [`))
	assert.Error(t, err)
}
