package models

// Record holds one synthetic GPS + activity-recognition observation.
type Record struct {
	Identity   int                  `json:"id"`
	Timestamp  string               `json:"time"` // rendered in the run's time format
	Latitude   float64              `json:"lat"`
	Longitude  float64              `json:"lon"`
	Accuracy   float64              `json:"accuracy"` // metres, never missing
	Activities [NumActivities]Value `json:"-"`
	// infection_risk is a declared column that the generator never fills.
}

// Activity returns the reading for one channel.
func (r *Record) Activity(a Activity) Value { return r.Activities[a] }

// CSVHeader returns the ordered column names of the persisted table.
func (Record) CSVHeader() []string {
	h := []string{"id", "time", "lat", "lon", "accuracy"}
	h = append(h, activityNames[:]...)
	return append(h, "infection_risk")
}

// CSVRow serialises the record. Missing channels become MissingMarker and the
// infection_risk column is always empty.
func (r *Record) CSVRow() []string {
	row := make([]string, 0, 5+NumActivities+1)
	row = append(row,
		itoa(r.Identity),
		r.Timestamp,
		ftoa(r.Latitude),
		ftoa(r.Longitude),
		ftoa(r.Accuracy),
	)
	for _, v := range r.Activities {
		row = append(row, v.CSV())
	}
	return append(row, "")
}

var _ CSVRowWriter = (*Record)(nil)
