package models

// HistorySample is one location entry read from a location-history export:
// a fix plus whatever activity-recognition channels were reported with it.
type HistorySample struct {
	TimestampMs int64                `json:"timestamp_ms"`
	Latitude    float64              `json:"latitude"`
	Longitude   float64              `json:"longitude"`
	Accuracy    Value                `json:"-"` // metres; missing when not reported
	Activities  [NumActivities]Value `json:"-"` // confidence 0-100 per channel
}
