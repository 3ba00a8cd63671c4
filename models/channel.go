package models

import "fmt"

// Activity identifies one activity-recognition channel. The numeric order is
// the column order in the persisted table.
type Activity int

const (
	InVehicle Activity = iota
	Still
	OnBicycle
	OnFoot
	Unknown
	Tilting
	ExitingVehicle

	NumActivities = 7
)

var activityNames = [NumActivities]string{
	"IN_VEHICLE", "STILL", "ON_BICYCLE", "ON_FOOT",
	"UNKNOWN", "TILTING", "EXITING_VEHICLE",
}

func (a Activity) String() string {
	if a >= 0 && int(a) < NumActivities {
		return activityNames[a]
	}
	return "UNKNOWN_ACTIVITY"
}

// Activities lists every channel in column order.
func Activities() []Activity {
	out := make([]Activity, NumActivities)
	for i := range out {
		out[i] = Activity(i)
	}
	return out
}

// ParseActivity maps a channel name (as it appears in activity-recognition
// output) back to an Activity.
func ParseActivity(name string) (Activity, bool) {
	for i, n := range activityNames {
		if n == name {
			return Activity(i), true
		}
	}
	return 0, false
}

// GaussianParams describes a normal distribution. StdDev may be zero, which
// makes every draw equal to Mean.
type GaussianParams struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
}

// ChannelParams couples a Bernoulli presence probability with the Gaussian
// used for the magnitude when the channel is present.
type ChannelParams struct {
	Presence       float64 `json:"presence" yaml:"presence"`
	GaussianParams `yaml:",inline"`
}

// ChannelTable holds the calibrated parameters for accuracy and every
// activity channel.
type ChannelTable struct {
	Accuracy   GaussianParams               `yaml:"accuracy"`
	Activities [NumActivities]ChannelParams `yaml:"-"`
}

// DefaultChannelTable returns the calibrated constants used when no table is
// configured.
func DefaultChannelTable() ChannelTable {
	return ChannelTable{
		Accuracy: GaussianParams{Mean: 51.48, StdDev: 32.90},
		Activities: [NumActivities]ChannelParams{
			InVehicle:      {Presence: 0.149, GaussianParams: GaussianParams{Mean: 26.75, StdDev: 24.38}},
			Still:          {Presence: 0.24, GaussianParams: GaussianParams{Mean: 64.08, StdDev: 37.27}},
			OnBicycle:      {Presence: 0.102, GaussianParams: GaussianParams{Mean: 8.24, StdDev: 8.62}},
			OnFoot:         {Presence: 0.11, GaussianParams: GaussianParams{Mean: 24.30, StdDev: 29.94}},
			Unknown:        {Presence: 0.146, GaussianParams: GaussianParams{Mean: 16.87, StdDev: 22.21}},
			Tilting:        {Presence: 0.125, GaussianParams: GaussianParams{Mean: 100, StdDev: 0}},
			ExitingVehicle: {Presence: 0.005, GaussianParams: GaussianParams{Mean: 100, StdDev: 0}},
		},
	}
}

// Channel returns the parameters for one activity.
func (t ChannelTable) Channel(a Activity) ChannelParams { return t.Activities[a] }

// Validate checks that probabilities lie in [0,1] and deviations are not
// negative.
func (t ChannelTable) Validate() error {
	if t.Accuracy.StdDev < 0 {
		return fmt.Errorf("accuracy: negative stddev %v", t.Accuracy.StdDev)
	}
	for i, p := range t.Activities {
		a := Activity(i)
		if p.Presence < 0 || p.Presence > 1 {
			return fmt.Errorf("%s: presence %v outside [0,1]", a, p.Presence)
		}
		if p.StdDev < 0 {
			return fmt.Errorf("%s: negative stddev %v", a, p.StdDev)
		}
	}
	return nil
}

// MarshalYAML writes the table keyed by channel name.
func (t ChannelTable) MarshalYAML() (interface{}, error) {
	out := make(map[string]interface{}, NumActivities+1)
	out["accuracy"] = t.Accuracy
	for i, p := range t.Activities {
		out[activityNames[i]] = p
	}
	return out, nil
}

// UnmarshalYAML reads a table keyed by channel name. Channels absent from the
// document keep the values already in t, so a partial table overrides only
// what it names.
func (t *ChannelTable) UnmarshalYAML(unmarshal func(interface{}) error) error {
	raw := map[string]struct {
		Presence *float64 `yaml:"presence"`
		Mean     *float64 `yaml:"mean"`
		StdDev   *float64 `yaml:"stddev"`
	}{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	for name, r := range raw {
		if name == "accuracy" {
			if r.Mean != nil {
				t.Accuracy.Mean = *r.Mean
			}
			if r.StdDev != nil {
				t.Accuracy.StdDev = *r.StdDev
			}
			continue
		}
		a, ok := ParseActivity(name)
		if !ok {
			return fmt.Errorf("unknown channel %q", name)
		}
		p := &t.Activities[a]
		if r.Presence != nil {
			p.Presence = *r.Presence
		}
		if r.Mean != nil {
			p.Mean = *r.Mean
		}
		if r.StdDev != nil {
			p.StdDev = *r.StdDev
		}
	}
	return nil
}
