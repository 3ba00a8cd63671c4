package models

import (
	"strconv"
)

// ─── shared formatting helpers (package-private) ────────────────────────

func itoa(v int) string { return strconv.Itoa(v) }

// ftoa renders the shortest decimal that round-trips, without an exponent.
func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CSVRowWriter is the interface every persisted row type must satisfy.
type CSVRowWriter interface {
	CSVHeader() []string
	CSVRow() []string
}
