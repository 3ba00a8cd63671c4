package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mobility-synth/controller"
	"mobility-synth/storage"
	"mobility-synth/utils"
)

const envPrefix = "MOBSYNTH"

// newRootCommand builds the CLI. Running it without a subcommand generates a
// dataset with the configured defaults.
func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "mobility-synth",
		Short:         "Generate synthetic GPS and activity-recognition traces",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	root.PersistentFlags().StringP("config", "c", "config/generator.yaml", "path to generator.yaml")
	root.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	root.PersistentFlags().String("log-file", "", "optional rotated JSON log file")
	_ = v.BindPFlag("logger.level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logger.log_file", root.PersistentFlags().Lookup("log-file"))

	gen := newGenerateCommand(v)
	root.Flags().AddFlagSet(gen.Flags())
	root.RunE = gen.RunE

	root.AddCommand(gen, newCalibrateCommand(v))
	return root
}

func newGenerateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a dataset and persist it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			toStdout, _ := cmd.Flags().GetBool("stdout")
			cfg, err := setup(cmd, v)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cfg, toStdout, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.IntP("identities", "n", 0, "number of synthetic identities")
	f.Int("per-id", 0, "records per identity")
	f.Float64("center-lat", 0, "latitude of the disk centre")
	f.Float64("center-lon", 0, "longitude of the disk centre")
	f.Float64("radius", 0, "disk radius in metres")
	f.String("start", "", "interval start, in --time-format")
	f.String("end", "", "interval end, in --time-format")
	f.String("time-format", "", "strftime pattern or Go layout of start, end and the output")
	f.String("location", "", "time zone for parsing and rendering (IANA name, Local or UTC)")
	f.Int64("seed", 0, "seed for a reproducible run")
	f.Int("workers", 0, "identities generated concurrently")
	f.String("out-dir", "", "base directory for session folders")
	f.Bool("overwrite", false, "reuse an existing session directory")
	f.String("postgres-url", "", "copy the run into Postgres")
	f.String("s3-bucket", "", "upload the CSV to this bucket")
	f.Bool("stdout", false, "write the CSV to stdout instead of a session directory")

	bind := map[string]string{
		"generation.identities":           "identities",
		"generation.samples_per_identity": "per-id",
		"generation.center_lat":           "center-lat",
		"generation.center_lon":           "center-lon",
		"generation.radius_m":             "radius",
		"generation.start":                "start",
		"generation.end":                  "end",
		"generation.time_format":          "time-format",
		"generation.location":             "location",
		"generation.seed":                 "seed",
		"generation.workers":              "workers",
		"storage.base_dir":                "out-dir",
		"storage.overwrite":               "overwrite",
		"storage.postgres.url":            "postgres-url",
		"storage.s3.bucket":               "s3-bucket",
	}
	for key, flag := range bind {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

func newCalibrateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate <location-history.json>",
		Short: "Fit the channel table to a location-history export",
		Long: "Reads a location-history JSON export (\"-\" for stdin) and prints a\n" +
			"channels: section for generator.yaml fitted to its activity data.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, v)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			return runCalibrate(cmd.Context(), cfg, args[0], out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringP("out", "o", "", "write the channel table here instead of stdout")
	return cmd
}

// setup loads the config file, applies env and flag overrides, validates the
// result and starts the logger. Console logs go to the command's stderr;
// stdout carries only the command's result.
func setup(cmd *cobra.Command, v *viper.Viper) (*utils.GeneratorConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := utils.LoadGeneratorConfig(path)
	if err != nil {
		return nil, err
	}
	applyOverrides(v, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	utils.InitLoggerWithWriter(cfg.Logger, zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())))
	utils.L().Info("mobility-synth starting",
		zap.String("command", cmd.Name()),
		zap.String("config", path),
		zap.Int("gomaxprocs", runtime.GOMAXPROCS(0)),
		zap.Int("pid", os.Getpid()))
	return cfg, nil
}

// applyOverrides copies every key set through a flag or a MOBSYNTH_* variable
// onto the file config.
func applyOverrides(v *viper.Viper, cfg *utils.GeneratorConfig) {
	g := &cfg.Generation
	setInt(v, "generation.identities", &g.Identities)
	setInt(v, "generation.samples_per_identity", &g.SamplesPerIdentity)
	setFloat(v, "generation.center_lat", &g.CenterLat)
	setFloat(v, "generation.center_lon", &g.CenterLon)
	setFloat(v, "generation.radius_m", &g.RadiusMeters)
	setString(v, "generation.start", &g.Start)
	setString(v, "generation.end", &g.End)
	setString(v, "generation.time_format", &g.TimeFormat)
	setString(v, "generation.location", &g.Location)
	setInt(v, "generation.workers", &g.Workers)
	if v.IsSet("generation.seed") {
		seed := v.GetInt64("generation.seed")
		g.Seed = &seed
	}

	s := &cfg.Storage
	setString(v, "storage.base_dir", &s.BaseDir)
	setBool(v, "storage.overwrite", &s.Overwrite)
	setString(v, "storage.postgres.url", &s.Postgres.URL)
	setString(v, "storage.s3.bucket", &s.S3.Bucket)
	setString(v, "storage.s3.region", &s.S3.Region)

	setString(v, "logger.level", &cfg.Logger.Level)
	setString(v, "logger.format", &cfg.Logger.Format)
	setString(v, "logger.log_file", &cfg.Logger.LogFile)
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func setFloat(v *viper.Viper, key string, dst *float64) {
	if v.IsSet(key) {
		*dst = v.GetFloat64(key)
	}
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

func runGenerate(ctx context.Context, cfg *utils.GeneratorConfig, toStdout bool, out io.Writer) error {
	params, err := controller.ParamsFromConfig(cfg)
	if err != nil {
		return err
	}
	gen, err := controller.NewGenerationController(params)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	utils.L().Info("run configured", zap.String("run_id", runID), zap.Int64("seed", gen.Seed()))

	ds, err := gen.Generate(ctx)
	if err != nil {
		return err
	}

	if toStdout {
		if cfg.Storage.Postgres.URL != "" || cfg.Storage.S3.Bucket != "" {
			utils.L().Warn("sinks are skipped when writing to stdout")
		}
		return controller.EncodeCSV(out, ds)
	}

	if !filepath.IsAbs(cfg.Storage.BaseDir) {
		if abs, err := filepath.Abs(cfg.Storage.BaseDir); err == nil {
			cfg.Storage.BaseDir = abs
		}
	}

	sinks, closeSinks, err := buildSinks(ctx, &cfg.Storage)
	if err != nil {
		return err
	}
	defer closeSinks()

	rec, err := controller.NewRecordingController(&cfg.Storage, sinks...)
	if err != nil {
		return err
	}
	if err := rec.Persist(ctx, runID, ds); err != nil {
		return err
	}

	fmt.Fprintln(out, rec.CSVPath())
	return nil
}

// buildSinks opens the configured sinks. The returned func releases them.
func buildSinks(ctx context.Context, cfg *utils.StorageConfig) ([]controller.Sink, func(), error) {
	var sinks []controller.Sink
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, closeAll, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		pg, err := storage.NewPostgresSink(ctx, pool, cfg.Postgres.Table, cfg.Postgres.CreateTable, utils.L())
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, pg)
	}

	if cfg.S3.Bucket != "" {
		client, err := storage.NewS3Client(ctx, cfg.S3.Region)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		s3Sink, err := storage.NewS3Sink(client, cfg.S3.Bucket, cfg.S3.Prefix, utils.L())
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, s3Sink)
	}

	return sinks, closeAll, nil
}

func runCalibrate(ctx context.Context, cfg *utils.GeneratorConfig, src, outPath string, out io.Writer) error {
	var r io.Reader = os.Stdin
	if src != "-" {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("open location history: %w", err)
		}
		defer f.Close()
		r = f
	}

	report, err := controller.NewCalibrationController(cfg.Channels).Run(ctx, r)
	if err != nil {
		return err
	}
	utils.L().Info("channel table fitted",
		zap.Uint64("locations", report.Locations),
		zap.Uint64("accuracy_samples", report.AccuracySamples))

	if outPath != "" {
		if err := utils.WriteChannelTable(outPath, report.Table); err != nil {
			return err
		}
		fmt.Fprintln(out, outPath)
		return nil
	}
	data, err := utils.MarshalChannelTable(report.Table)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
