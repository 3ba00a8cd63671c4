package models

import "math"

// MissingMarker is how a Missing value is rendered in the persisted table.
// It is a sentinel string, not an IEEE NaN.
const MissingMarker = "NaN"

// Value is an activity-channel reading: either Present with a magnitude or
// Missing. The zero Value is Missing.
type Value struct {
	v  float64
	ok bool
}

// Present wraps a magnitude.
func Present(v float64) Value { return Value{v: v, ok: true} }

// Missing is the absent reading.
var Missing = Value{}

// IsPresent reports whether the channel reported a value.
func (x Value) IsPresent() bool { return x.ok }

// Float returns the magnitude and whether it is present.
func (x Value) Float() (float64, bool) { return x.v, x.ok }

// Ptr returns a pointer to the magnitude, or nil when missing. Useful for
// nullable database columns.
func (x Value) Ptr() *float64 {
	if !x.ok {
		return nil
	}
	v := x.v
	return &v
}

// CSV renders the value for the persisted table.
func (x Value) CSV() string {
	if !x.ok {
		return MissingMarker
	}
	return ftoa(x.v)
}

func (x Value) String() string { return x.CSV() }

// IsFinite reports whether a present value is a finite number. Missing values
// are never finite.
func (x Value) IsFinite() bool {
	return x.ok && !math.IsNaN(x.v) && !math.IsInf(x.v, 0)
}
