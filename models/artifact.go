package models

// Artifact describes a persisted run handed to the optional storage sinks
// after the CSV file has been flushed and closed.
type Artifact struct {
	RunID      string
	SessionDir string
	CSVPath    string
	Dataset    *Dataset
}
