package sampling

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrTimestampParse wraps a bound that does not match the layout.
	ErrTimestampParse = errors.New("timestamp parse")
	// ErrInvertedInterval is returned when start is after end.
	ErrInvertedInterval = errors.New("interval start after end")
)

// IntervalSampler draws timestamps uniformly from a closed interval and
// renders them with the layout the bounds were given in. Resolution is one
// second.
type IntervalSampler struct {
	layout string
	loc    *time.Location
	start  int64 // unix seconds
	span   int64 // end - start, seconds
}

// NewIntervalSampler parses both bounds with layout in loc (time.Local when
// nil).
func NewIntervalSampler(start, end, layout string, loc *time.Location) (*IntervalSampler, error) {
	if loc == nil {
		loc = time.Local
	}
	st, err := time.ParseInLocation(layout, start, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q: %w", ErrTimestampParse, start, err)
	}
	et, err := time.ParseInLocation(layout, end, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q: %w", ErrTimestampParse, end, err)
	}
	if st.After(et) {
		return nil, fmt.Errorf("%w: %q > %q", ErrInvertedInterval, start, end)
	}
	return &IntervalSampler{
		layout: layout,
		loc:    loc,
		start:  st.Unix(),
		span:   et.Unix() - st.Unix(),
	}, nil
}

// Sample returns one timestamp in [start, end].
func (s *IntervalSampler) Sample(rng *rand.Rand) string {
	return s.Time(rng).Format(s.layout)
}

// Time is Sample before rendering.
func (s *IntervalSampler) Time(rng *rand.Rand) time.Time {
	p := rng.Float64()
	offset := int64(p * float64(s.span)) // truncation keeps the result <= end
	return time.Unix(s.start+offset, 0).In(s.loc)
}

// Layout returns the Go layout used for parsing and rendering.
func (s *IntervalSampler) Layout() string { return s.layout }

// Location returns the zone the bounds were parsed in.
func (s *IntervalSampler) Location() *time.Location { return s.loc }

// SampleTimestamp is the one-shot form of IntervalSampler.
func SampleTimestamp(rng *rand.Rand, start, end, layout string, loc *time.Location) (string, error) {
	s, err := NewIntervalSampler(start, end, layout, loc)
	if err != nil {
		return "", err
	}
	return s.Sample(rng), nil
}
