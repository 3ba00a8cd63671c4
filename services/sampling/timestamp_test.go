package sampling

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dmyLayout = "02/01/2006 15:04:05"

func TestIntervalSampler_WithinBounds(t *testing.T) {
	s, err := NewIntervalSampler("09/03/2020 12:00:00", "23/03/2020 12:00:00", dmyLayout, time.UTC)
	require.NoError(t, err)

	lo := time.Date(2020, 3, 9, 12, 0, 0, 0, time.UTC)
	hi := time.Date(2020, 3, 23, 12, 0, 0, 0, time.UTC)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		ts := s.Sample(rng)
		parsed, err := time.ParseInLocation(dmyLayout, ts, time.UTC)
		require.NoError(t, err, ts)
		require.False(t, parsed.Before(lo), ts)
		require.False(t, parsed.After(hi), ts)
	}
}

func TestIntervalSampler_DegenerateInterval(t *testing.T) {
	s, err := NewIntervalSampler("01/01/2021 00:00:00", "01/01/2021 00:00:00", dmyLayout, time.UTC)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 10; i++ {
		assert.Equal(t, "01/01/2021 00:00:00", s.Sample(rng))
	}
}

func TestIntervalSampler_TwentyFourHourClock(t *testing.T) {
	s, err := NewIntervalSampler("01/01/2021 13:00:00", "01/01/2021 13:00:10", dmyLayout, time.UTC)
	require.NoError(t, err)

	ts := s.Sample(rand.New(rand.NewSource(5)))
	assert.Regexp(t, `^01/01/2021 13:00:(0\d|10)$`, ts)
}

func TestIntervalSampler_Errors(t *testing.T) {
	_, err := NewIntervalSampler("2020-03-09", "23/03/2020 12:00:00", dmyLayout, time.UTC)
	assert.ErrorIs(t, err, ErrTimestampParse)

	_, err = NewIntervalSampler("09/03/2020 12:00:00", "not a date", dmyLayout, time.UTC)
	assert.ErrorIs(t, err, ErrTimestampParse)

	_, err = NewIntervalSampler("23/03/2020 12:00:00", "09/03/2020 12:00:00", dmyLayout, time.UTC)
	assert.ErrorIs(t, err, ErrInvertedInterval)
}

func TestIntervalSampler_NilLocationIsLocal(t *testing.T) {
	s, err := NewIntervalSampler("09/03/2020 12:00:00", "09/03/2020 12:00:00", dmyLayout, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Local, s.Location())
	assert.Equal(t, dmyLayout, s.Layout())
}

func TestSampleTimestamp(t *testing.T) {
	ts, err := SampleTimestamp(rand.New(rand.NewSource(1)),
		"09/03/2020 12:00:00", "09/03/2020 12:00:00", dmyLayout, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "09/03/2020 12:00:00", ts)

	_, err = SampleTimestamp(rand.New(rand.NewSource(1)), "x", "y", dmyLayout, time.UTC)
	assert.ErrorIs(t, err, ErrTimestampParse)
}
