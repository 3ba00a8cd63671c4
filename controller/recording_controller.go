package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"mobility-synth/models"
	"mobility-synth/utils"
	"mobility-synth/views"
)

// Sink receives a run once its CSV file is complete.
type Sink interface {
	Name() string
	Store(ctx context.Context, a models.Artifact) error
}

// RecordingController is the final pipeline stage. It writes the dataset to
// <base_dir>/<prefix>_YYYYMMDD_HHMMSS/<file_name> and then hands the run to
// each configured sink in order. A failing sink aborts the remaining ones;
// the CSV stays on disk.
type RecordingController struct {
	storageCfg *utils.StorageConfig
	sessionDir string
	csvPath    string
	sinks      []Sink

	rowsWritten uint64
}

// NewRecordingController sets up the session directory.
func NewRecordingController(storageCfg *utils.StorageConfig, sinks ...Sink) (*RecordingController, error) {
	sess := utils.SessionName(storageCfg.SessionPrefix)
	sessionDir := filepath.Join(storageCfg.BaseDir, sess)

	if !storageCfg.Overwrite {
		if _, err := os.Stat(sessionDir); err == nil {
			return nil, fmt.Errorf("session dir %s already exists (overwrite=false)", sessionDir)
		}
	}

	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	rc := &RecordingController{
		storageCfg: storageCfg,
		sessionDir: sessionDir,
		csvPath:    filepath.Join(sessionDir, storageCfg.CSV.FileName),
		sinks:      sinks,
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	utils.L().Info("recording controller ready",
		zap.String("session", sessionDir), zap.Strings("sinks", names))
	return rc, nil
}

// Persist writes the CSV, then runs every sink.
func (rc *RecordingController) Persist(ctx context.Context, runID string, ds *models.Dataset) error {
	if !views.MatchesSchema(views.TableTraces, ds.Columns()) {
		return fmt.Errorf("record columns %v do not match the %s schema", ds.Columns(), views.TableTraces)
	}

	csvCfg := rc.storageCfg.CSV
	w, err := views.NewCSVWriter(rc.csvPath, csvCfg.BufferSizeKB*1024, true,
		views.SchemaColumns[views.TableTraces])
	if err != nil {
		return err
	}
	writeRows(w, ds)
	if err := w.Close(); err != nil {
		return fmt.Errorf("write %s: %w", rc.csvPath, err)
	}
	atomic.StoreUint64(&rc.rowsWritten, w.Rows())
	utils.L().Info("csv written", zap.String("path", rc.csvPath), zap.Uint64("rows", w.Rows()))

	artifact := models.Artifact{
		RunID:      runID,
		SessionDir: rc.sessionDir,
		CSVPath:    rc.csvPath,
		Dataset:    ds,
	}
	for _, s := range rc.sinks {
		started := time.Now()
		if err := s.Store(ctx, artifact); err != nil {
			return fmt.Errorf("sink %s: %w", s.Name(), err)
		}
		utils.L().Info("sink stored run",
			zap.String("sink", s.Name()),
			zap.String("run_id", runID),
			zap.Duration("elapsed", time.Since(started)))
	}

	utils.L().Info("recording controller finished",
		zap.Uint64("rows_written", rc.RowsWritten()), zap.String("session", rc.sessionDir))
	return nil
}

// EncodeCSV writes the dataset, header included, to out. It does not touch
// the session directory or the sinks.
func EncodeCSV(out io.Writer, ds *models.Dataset) error {
	w, err := views.NewCSVStreamWriter(out, 0, true, views.SchemaColumns[views.TableTraces])
	if err != nil {
		return err
	}
	writeRows(w, ds)
	return w.Close()
}

func writeRows(w *views.CSVWriter, ds *models.Dataset) {
	for i := range ds.Records {
		w.WriteRow(ds.Records[i].CSVRow())
	}
}

// SessionDir returns the path to the session directory.
func (rc *RecordingController) SessionDir() string {
	return rc.sessionDir
}

// CSVPath returns the path of the dataset file.
func (rc *RecordingController) CSVPath() string {
	return rc.csvPath
}

// RowsWritten returns the number of data rows persisted to CSV.
func (rc *RecordingController) RowsWritten() uint64 {
	return atomic.LoadUint64(&rc.rowsWritten)
}
