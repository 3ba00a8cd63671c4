package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	var zero Value
	assert.False(t, zero.IsPresent())
	assert.Equal(t, Missing, zero)
	assert.Equal(t, "NaN", zero.CSV())
	assert.Nil(t, zero.Ptr())
	assert.False(t, zero.IsFinite())

	v := Present(12.5)
	f, ok := v.Float()
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)
	assert.Equal(t, "12.5", v.CSV())
	assert.Equal(t, 12.5, *v.Ptr())
	assert.True(t, v.IsFinite())

	// A present zero is not missing.
	assert.Equal(t, "0", Present(0).CSV())
	assert.False(t, Present(math.Inf(1)).IsFinite())
}

func TestRecord_CSV(t *testing.T) {
	r := Record{
		Identity:  3,
		Timestamp: "09/03/2020 13:05:00",
		Latitude:  52.5,
		Longitude: 13.4,
		Accuracy:  -4.25,
	}
	r.Activities[Tilting] = Present(100)
	r.Activities[Still] = Present(64.08)

	header := r.CSVHeader()
	row := r.CSVRow()
	assert.Len(t, header, 13)
	assert.Len(t, row, len(header))
	assert.Equal(t, []string{
		"3", "09/03/2020 13:05:00", "52.5", "13.4", "-4.25",
		"NaN", "64.08", "NaN", "NaN", "NaN", "100", "NaN", "",
	}, row)
	assert.Equal(t, "infection_risk", header[12])
	assert.Equal(t, Present(100), r.Activity(Tilting))
}

func TestDataset_Batches(t *testing.T) {
	ds := NewDataset(3, 4)
	assert.Equal(t, 12, ds.Len())

	for id := 0; id < 3; id++ {
		b := ds.Batch(id)
		assert.Len(t, b, 4)
		for i := range b {
			b[i].Identity = id
		}
	}
	for i, r := range ds.Records {
		assert.Equal(t, i/4, r.Identity)
	}

	empty := NewDataset(0, 10)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, Record{}.CSVHeader(), empty.Columns())
}
