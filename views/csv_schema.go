package views

// CSVSchema defines the column layout of every table this tool writes.
// This file serves as the single source of truth for column ordering.

// TableKind identifies a persisted table for schema lookups.
type TableKind int

const (
	TableTraces TableKind = iota
	TablePostgresTraces
)

var tableNames = map[TableKind]string{
	TableTraces:         "traces",
	TablePostgresTraces: "postgres_traces",
}

func (k TableKind) String() string {
	if n, ok := tableNames[k]; ok {
		return n
	}
	return "unknown"
}

// SchemaColumns returns the canonical column list for a table.
// The CSV row itself is produced by models.Record.CSVRow; this table is used
// for the header and to validate that the two agree.
var SchemaColumns = map[TableKind][]string{
	TableTraces: {
		"id", "time", "lat", "lon", "accuracy",
		"IN_VEHICLE", "STILL", "ON_BICYCLE", "ON_FOOT",
		"UNKNOWN", "TILTING", "EXITING_VEHICLE",
		"infection_risk",
	},
	TablePostgresTraces: {
		"run_id", "id", "time", "lat", "lon", "accuracy",
		"in_vehicle", "still", "on_bicycle", "on_foot",
		"unknown", "tilting", "exiting_vehicle",
		"infection_risk",
	},
}

// MatchesSchema reports whether header is exactly the schema of kind.
func MatchesSchema(kind TableKind, header []string) bool {
	want := SchemaColumns[kind]
	if len(want) != len(header) {
		return false
	}
	for i := range want {
		if want[i] != header[i] {
			return false
		}
	}
	return true
}
