package models

// Dataset is the assembled table: records grouped identity-major, each
// identity in [0, Identities) owning exactly SamplesPerIdentity consecutive
// records. It is not modified after the generator returns it.
type Dataset struct {
	Identities         int
	SamplesPerIdentity int
	Records            []Record
}

// NewDataset allocates the full record slice up front.
func NewDataset(identities, perIdentity int) *Dataset {
	return &Dataset{
		Identities:         identities,
		SamplesPerIdentity: perIdentity,
		Records:            make([]Record, identities*perIdentity),
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Records) }

// Batch returns the records belonging to one identity.
func (d *Dataset) Batch(identity int) []Record {
	lo := identity * d.SamplesPerIdentity
	return d.Records[lo : lo+d.SamplesPerIdentity]
}

// Columns returns the persisted column names.
func (d *Dataset) Columns() []string { return Record{}.CSVHeader() }
