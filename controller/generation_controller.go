package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mobility-synth/models"
	"mobility-synth/services/sampling"
	"mobility-synth/utils"
)

// ErrInvalidCount is returned for negative or overflowing record counts.
var ErrInvalidCount = errors.New("invalid count")

// GenerationParams fully describes one generation run.
type GenerationParams struct {
	Identities         int
	SamplesPerIdentity int

	CenterLat    float64
	CenterLon    float64
	RadiusMeters float64

	Start    string
	End      string
	Layout   string         // Go time layout of Start, End and the output
	Location *time.Location // nil means time.Local

	Channels models.ChannelTable

	Seed    *int64 // nil draws a fresh seed from the clock
	Workers int    // identities generated concurrently; <1 means 1
}

// ParamsFromConfig resolves the config file representation into run
// parameters.
func ParamsFromConfig(cfg *utils.GeneratorConfig) (GenerationParams, error) {
	g := cfg.Generation
	layout, err := utils.StrftimeLayout(g.TimeFormat)
	if err != nil {
		return GenerationParams{}, err
	}
	loc, err := utils.LoadLocation(g.Location)
	if err != nil {
		return GenerationParams{}, err
	}
	return GenerationParams{
		Identities:         g.Identities,
		SamplesPerIdentity: g.SamplesPerIdentity,
		CenterLat:          g.CenterLat,
		CenterLon:          g.CenterLon,
		RadiusMeters:       g.RadiusMeters,
		Start:              g.Start,
		End:                g.End,
		Layout:             layout,
		Location:           loc,
		Channels:           cfg.Channels,
		Seed:               g.Seed,
		Workers:            g.Workers,
	}, nil
}

// GenerationController assembles the dataset: identities fan out over a
// bounded worker group and each writes its batch into its own window of the
// pre-sized record slice.
//
// Every identity draws from its own generator, seeded from a master generator
// in identity order, so the output depends on the seed alone and not on the
// number of workers.
type GenerationController struct {
	params   GenerationParams
	interval *sampling.IntervalSampler
	seed     int64

	completed uint64
}

// NewGenerationController validates the parameters and parses the interval.
func NewGenerationController(p GenerationParams) (*GenerationController, error) {
	if p.Identities < 0 {
		return nil, fmt.Errorf("%w: identities must be >= 0, got %d", ErrInvalidCount, p.Identities)
	}
	if p.SamplesPerIdentity < 0 {
		return nil, fmt.Errorf("%w: samples per identity must be >= 0, got %d", ErrInvalidCount, p.SamplesPerIdentity)
	}
	if p.SamplesPerIdentity > 0 && p.Identities > math.MaxInt/p.SamplesPerIdentity {
		return nil, fmt.Errorf("%w: %d x %d records overflows", ErrInvalidCount, p.Identities, p.SamplesPerIdentity)
	}
	if p.Workers < 1 {
		p.Workers = 1
	}

	interval, err := sampling.NewIntervalSampler(p.Start, p.End, p.Layout, p.Location)
	if err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if p.Seed != nil {
		seed = *p.Seed
	}

	return &GenerationController{
		params:   p,
		interval: interval,
		seed:     seed,
	}, nil
}

// Seed returns the master seed in effect, so unseeded runs can be replayed.
func (gc *GenerationController) Seed() int64 { return gc.seed }

// Completed returns how many identities have been generated so far.
func (gc *GenerationController) Completed() uint64 { return atomic.LoadUint64(&gc.completed) }

// Generate builds the dataset. Any error, including cancellation, aborts the
// run and no partial dataset is returned.
func (gc *GenerationController) Generate(ctx context.Context) (*models.Dataset, error) {
	p := gc.params
	ds := models.NewDataset(p.Identities, p.SamplesPerIdentity)
	if ds.Len() == 0 {
		utils.L().Info("generation skipped, empty dataset",
			zap.Int("identities", p.Identities), zap.Int("per_identity", p.SamplesPerIdentity))
		return ds, nil
	}

	started := time.Now()
	utils.L().Info("generation started",
		zap.Int("identities", p.Identities),
		zap.Int("per_identity", p.SamplesPerIdentity),
		zap.Int("workers", p.Workers),
		zap.Int64("seed", gc.seed))

	master := rand.New(rand.NewSource(gc.seed))
	seeds := make([]int64, p.Identities)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)

	for id := 0; id < p.Identities; id++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gc.fillBatch(id, rand.New(rand.NewSource(seeds[id])), ds.Batch(id))
			atomic.AddUint64(&gc.completed, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	utils.L().Info("generation finished",
		zap.Int("rows", ds.Len()),
		zap.Duration("elapsed", time.Since(started)))
	return ds, nil
}

// fillBatch produces one identity's records. Draw order per record: point,
// timestamp, accuracy, then the activity channels in column order.
func (gc *GenerationController) fillBatch(identity int, rng *rand.Rand, batch []models.Record) {
	p := gc.params
	for i := range batch {
		rec := &batch[i]
		rec.Identity = identity
		rec.Latitude, rec.Longitude = sampling.SamplePoint(rng, p.CenterLat, p.CenterLon, p.RadiusMeters)
		rec.Timestamp = gc.interval.Sample(rng)
		rec.Accuracy = sampling.SampleAccuracy(rng, p.Channels.Accuracy)
		sampling.SampleActivities(rng, p.Channels, &rec.Activities)
	}
}

// Generate is a one-shot NewGenerationController + Generate.
func Generate(ctx context.Context, p GenerationParams) (*models.Dataset, error) {
	gc, err := NewGenerationController(p)
	if err != nil {
		return nil, err
	}
	return gc.Generate(ctx)
}
