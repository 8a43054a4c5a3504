package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/photoblog/resize-images/internal/config"
	"github.com/photoblog/resize-images/pkg/db"
	"github.com/photoblog/resize-images/pkg/errors"
	appfsm "github.com/photoblog/resize-images/pkg/fsm"
	"github.com/photoblog/resize-images/pkg/imagetool"
	"github.com/photoblog/resize-images/pkg/pipeline"
	"github.com/photoblog/resize-images/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LogLevel is the level of the default slog handler installed by main.
var LogLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "resize-images",
	Short: "Produce full-size and thumbnail derivatives for blog images",
	Long: `Scans the source directory for images, writes a full-size derivative
(resized to the full width when wider, copied otherwise) and a thumbnail made
from it, then deletes the processed source file.

Requires ImageMagick's identify and convert on PATH.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBatch,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}

func init() {
	LogLevel.Set(slog.LevelWarn)

	flags := rootCmd.PersistentFlags()
	flags.String("source-dir", "images", "Directory scanned for source images")
	flags.String("full-dir", "images/full", "Destination for full-size derivatives")
	flags.String("thumb-dir", "images/thumbs", "Destination for thumbnails")
	flags.Int("full-width", 1024, "Full-size derivative width in pixels")
	flags.Int("thumb-width", 512, "Thumbnail width in pixels")
	flags.Int("quality", 85, "Encoder quality passed to convert")
	flags.String("identify-bin", "identify", "Path or name of the identify binary")
	flags.String("convert-bin", "convert", "Path or name of the convert binary")
	flags.Int("workers", 1, "Number of images processed concurrently")
	flags.String("engine", config.EngineLocal, "Per-item engine: local or fsm")
	flags.String("fsm-db-path", ".artifacts/fsm", "FSM state directory (fsm engine only)")
	flags.String("catalog-path", "", "SQLite catalog of produced derivatives (disabled when empty)")
	flags.String("s3-bucket", "", "Bucket derivatives are published to (disabled when empty)")
	flags.String("s3-region", "us-east-1", "S3 region")
	flags.String("s3-prefix", "", "Key prefix for published derivatives")
	flags.String("log-level", "warn", "Structured log level: debug, info, warn, error")

	for _, name := range []string{
		"source-dir", "full-dir", "thumb-dir",
		"full-width", "thumb-width", "quality",
		"identify-bin", "convert-bin",
		"workers", "engine", "fsm-db-path",
		"catalog-path", "s3-bucket", "s3-region", "s3-prefix",
		"log-level",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// loadConfig loads and validates configuration and applies the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config invalid")
	}
	level, _ := cfg.SlogLevel()
	LogLevel.Set(level)
	return cfg, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lock, err := acquireRunLock(cfg.SourceDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	runID := uuid.NewString()
	slog.Info("run_start", "run_id", runID, "source_dir", cfg.SourceDir, "engine", cfg.Engine, "workers", cfg.Workers)

	tools := imagetool.NewShell(cfg.IdentifyBin, cfg.ConvertBin)
	for _, status := range imagetool.CheckBinaries(tools.Binaries()) {
		if !status.Available {
			slog.Warn("tool_unavailable", "command", status.Command, "detail", status.Detail)
			fmt.Fprintf(os.Stderr, "⚠️  %s; every item will fail until it is installed\n", status.Detail)
		}
	}

	sinks, closeSinks, err := buildSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	narrator := pipeline.NewNarrator(os.Stdout)
	local := storage.NewLocal()
	orch := pipeline.NewOrchestrator(tools, local, pipeline.Policy{
		FullWidth:  cfg.FullWidth,
		ThumbWidth: cfg.ThumbWidth,
		Quality:    cfg.Quality,
	}, narrator, sinks...)

	var engine pipeline.Engine = orch
	if cfg.Engine == config.EngineFSM {
		if err := ensureDirectories("", cfg.FSMDBPath); err != nil {
			return err
		}
		fsmEngine, err := appfsm.NewEngine(ctx, cfg.FSMDBPath, orch)
		if err != nil {
			return err
		}
		defer fsmEngine.Close()
		engine = fsmEngine
	}

	summary, runErr := pipeline.Run(ctx, pipeline.Options{
		RunID:     runID,
		SourceDir: cfg.SourceDir,
		FullDir:   cfg.FullDir,
		ThumbDir:  cfg.ThumbDir,
		Policy:    orch.Policy(),
		Workers:   cfg.Workers,
	}, local, engine, narrator)

	if runErr == nil || errors.Is(runErr, errors.ErrItemsFailed) {
		printSummary(os.Stdout, summary)
	}

	slog.Info("run_complete", "run_id", runID, "exit_code", errors.ExitCode(runErr))
	return runErr
}

// buildSinks opens the optional catalog and S3 publisher. The returned close
// function is always safe to call.
func buildSinks(ctx context.Context, cfg *config.Config) ([]pipeline.Sink, func(), error) {
	var sinks []pipeline.Sink
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.CatalogPath != "" {
		if err := ensureDirectories(cfg.CatalogPath, ""); err != nil {
			return nil, closeAll, err
		}
		repo, err := db.NewRepository(cfg.CatalogPath)
		if err != nil {
			return nil, closeAll, errors.Wrap(err, "db init failed")
		}
		closers = append(closers, func() { repo.Close() })
		sinks = append(sinks, repo)
	}

	if cfg.S3Bucket != "" {
		client, err := storage.NewClient(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
		if err != nil {
			closeAll()
			return nil, func() {}, errors.Wrap(err, "S3 client failed")
		}
		sinks = append(sinks, client)
	}

	return sinks, closeAll, nil
}
