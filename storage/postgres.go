// Package storage holds the optional sinks a finished run is handed to after
// its CSV file has been written.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"mobility-synth/models"
	"mobility-synth/views"
)

// DBPool abstracts pgxpool.Pool so the sink can be tested with pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PostgresSink bulk-loads a run into a table with COPY. Missing channel
// values become NULL and every row carries the run ID.
type PostgresSink struct {
	pool        DBPool
	table       pgx.Identifier
	createTable bool
	log         *zap.Logger
}

// NewPostgresSink verifies the connection. table may be schema-qualified.
func NewPostgresSink(ctx context.Context, pool DBPool, table string, createTable bool, logger *zap.Logger) (*PostgresSink, error) {
	if table == "" {
		return nil, fmt.Errorf("postgres sink: empty table name")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresSink{
		pool:        pool,
		table:       pgx.Identifier(strings.Split(table, ".")),
		createTable: createTable,
		log:         logger.Named("postgres"),
	}, nil
}

func (s *PostgresSink) Name() string { return "postgres" }

// Store copies every record of the run.
func (s *PostgresSink) Store(ctx context.Context, a models.Artifact) error {
	if s.createTable {
		if _, err := s.pool.Exec(ctx, createTableSQL(s.table)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", s.table.Sanitize(), err)
		}
	}

	records := a.Dataset.Records
	src := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		return copyRow(a.RunID, &records[i]), nil
	})

	n, err := s.pool.CopyFrom(ctx, s.table, views.SchemaColumns[views.TablePostgresTraces], src)
	if err != nil {
		return fmt.Errorf("failed to copy traces: %w", err)
	}
	if int(n) != len(records) {
		return fmt.Errorf("mismatch in copied traces count: expected %d, got %d", len(records), n)
	}

	s.log.Info("traces copied",
		zap.String("table", s.table.Sanitize()),
		zap.String("run_id", a.RunID),
		zap.Int64("rows", n))
	return nil
}

func copyRow(runID string, r *models.Record) []any {
	row := make([]any, 0, len(views.SchemaColumns[views.TablePostgresTraces]))
	row = append(row, runID, r.Identity, r.Timestamp, r.Latitude, r.Longitude, r.Accuracy)
	for _, v := range r.Activities {
		row = append(row, v.Ptr())
	}
	return append(row, nil) // infection_risk
}

func createTableSQL(table pgx.Identifier) string {
	cols := views.SchemaColumns[views.TablePostgresTraces]
	types := map[string]string{
		"run_id":   "uuid NOT NULL",
		"id":       "integer NOT NULL",
		"time":     "text NOT NULL",
		"lat":      "double precision NOT NULL",
		"lon":      "double precision NOT NULL",
		"accuracy": "double precision NOT NULL",
	}
	defs := make([]string, len(cols))
	for i, c := range cols {
		t, ok := types[c]
		if !ok {
			t = "double precision"
		}
		defs[i] = pgx.Identifier{c}.Sanitize() + " " + t
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table.Sanitize(), strings.Join(defs, ", "))
}
