package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"

	"mobility-synth/models"
	"mobility-synth/services/ingest"
	"mobility-synth/utils"
)

// ErrNoSamples is returned when a history document holds no usable location.
var ErrNoSamples = errors.New("no location samples")

// CalibrationReport is the channel table derived from a location history plus
// the counts it was derived from.
type CalibrationReport struct {
	Table           models.ChannelTable
	Locations       uint64
	Skipped         uint64
	AccuracySamples uint64
	ChannelSamples  [models.NumActivities]uint64
}

// CalibrationController derives channel parameters from real
// activity-recognition data: per channel, presence is the fraction of
// locations that report it and the Gaussian is fitted to the reported
// confidences.
type CalibrationController struct {
	base   models.ChannelTable
	buffer int
}

// NewCalibrationController uses base for accuracy when the history carries
// no accuracy values.
func NewCalibrationController(base models.ChannelTable) *CalibrationController {
	return &CalibrationController{base: base, buffer: 1024}
}

// Run streams src and fits the table.
func (cc *CalibrationController) Run(ctx context.Context, src io.Reader) (*CalibrationReport, error) {
	reader := ingest.NewLocationHistoryReader(src, cc.buffer)
	reader.Start(ctx)

	var accuracy runningStats
	var channels [models.NumActivities]runningStats
	var total uint64

	for s := range reader.Out {
		total++
		if v, ok := s.Accuracy.Float(); ok {
			accuracy.add(v)
		}
		for i, v := range s.Activities {
			if f, ok := v.Float(); ok {
				channels[i].add(f)
			}
		}
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	_, skipped := reader.Stats()
	if total == 0 {
		return nil, fmt.Errorf("%w (skipped %d)", ErrNoSamples, skipped)
	}

	report := &CalibrationReport{
		Table:           cc.base,
		Locations:       total,
		Skipped:         skipped,
		AccuracySamples: accuracy.n,
	}
	if accuracy.n > 0 {
		report.Table.Accuracy = accuracy.params()
	} else {
		utils.L().Warn("history has no accuracy values, keeping configured accuracy")
	}
	for i := range channels {
		report.ChannelSamples[i] = channels[i].n
		report.Table.Activities[i] = models.ChannelParams{
			Presence:       float64(channels[i].n) / float64(total),
			GaussianParams: channels[i].params(),
		}
	}

	utils.L().Info("calibration finished",
		zap.Uint64("locations", total), zap.Uint64("skipped", skipped))
	return report, nil
}

// runningStats is Welford's online mean/variance.
type runningStats struct {
	n    uint64
	mean float64
	m2   float64
}

func (s *runningStats) add(x float64) {
	s.n++
	d := x - s.mean
	s.mean += d / float64(s.n)
	s.m2 += d * (x - s.mean)
}

// params returns the mean and population standard deviation.
func (s *runningStats) params() models.GaussianParams {
	if s.n == 0 {
		return models.GaussianParams{}
	}
	return models.GaussianParams{Mean: s.mean, StdDev: math.Sqrt(s.m2 / float64(s.n))}
}
