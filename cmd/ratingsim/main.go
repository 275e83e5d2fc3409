// Command ratingsim plays simulated free-for-all matches over a roster with
// known hidden skills and reports how well each track's visible ratings
// recover them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ramonehamilton/skillrating/internal/charts"
	"github.com/ramonehamilton/skillrating/internal/config"
	"github.com/ramonehamilton/skillrating/internal/display"
	"github.com/ramonehamilton/skillrating/internal/metrics"
	"github.com/ramonehamilton/skillrating/internal/simulation"
	"github.com/ramonehamilton/skillrating/internal/storage"
	"github.com/ramonehamilton/skillrating/internal/tracks"
)

var (
	configPath  = flag.String("config", "", "Config file (default: ~/.skillrating/config.toml)")
	dbPath      = flag.String("db", "", "Roster database; overrides storage.path")
	trackList   = flag.String("tracks", "", "Comma-separated tracks to simulate; overrides simulation.tracks")
	chartPath   = flag.String("chart", "", "Write an HTML chart here; overrides chart.output")
	openChart   = flag.Bool("open", false, "Open the chart in a browser")
	matches     = flag.Int("matches", 0, "Matches per track; overrides simulation.matches")
	seed        = flag.Uint64("seed", 0, "Sampler seed; overrides simulation.seed")
	leaderboard = flag.Int("top", 10, "Leaderboard rows per track (0 = all)")
	performance = flag.Bool("performance", false, "Add a per-match performance estimate to the leaderboard")
	stored      = flag.Bool("stored", false, "Print the leaderboard read back from the roster database")
	reset       = flag.Bool("reset", false, "Drop the stored roster before running")
	backupDir   = flag.String("backup", "", "Back up the roster database to this directory before saving")
	watch       = flag.Bool("watch", false, "Re-run whenever the config file changes")
	debug       = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	path := *configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			log.Fatalf("Failed to resolve config path: %v", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Simulation failed: %v", err)
	}

	if !*watch {
		return
	}

	changes := make(chan *config.Config, 1)
	go func() {
		err := config.Watch(ctx, path, config.WatchOptions{}, func(c *config.Config) {
			// Keep only the newest pending config.
			select {
			case <-changes:
			default:
			}
			changes <- c
		})
		if err != nil {
			slog.Error("Config watcher stopped", "error", err)
		}
	}()

	slog.Info("Watching config for changes", "path", path)
	for {
		select {
		case <-ctx.Done():
			return
		case next := <-changes:
			applyFlags(next)
			if err := next.Validate(); err != nil {
				slog.Warn("Ignoring invalid config", "error", err)
				continue
			}
			setupLogger(next)
			if err := run(ctx, next); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Simulation failed", "error", err)
			}
		}
	}
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cfg *config.Config) {
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *trackList != "" {
		cfg.Simulation.Tracks = strings.Split(*trackList, ",")
	}
	if *chartPath != "" {
		cfg.Chart.Output = *chartPath
	}
	if *matches > 0 {
		cfg.Simulation.Matches = *matches
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
}

func setupLogger(cfg *config.Config) {
	level, err := cfg.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, cfg *config.Config) error {
	registry, err := tracks.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("build track models: %w", err)
	}
	selected, err := registry.ParseTracks(cfg.Simulation.Tracks)
	if err != nil {
		return err
	}

	var store *storage.Service
	if cfg.Storage.Path != "" {
		if *reset {
			if err := resetDatabase(cfg.Storage.Path); err != nil {
				return err
			}
		}
		dbConfig := storage.DefaultConfig(cfg.Storage.Path)
		dbConfig.AutoMigrate = cfg.Storage.AutoMigrate
		db, err := storage.Open(dbConfig)
		if err != nil {
			return fmt.Errorf("open roster database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		}()
		store = storage.NewService(db)
	}

	roster, err := loadRoster(ctx, cfg, store)
	if err != nil {
		return err
	}

	sim, err := simulation.NewSimulator(simulation.Config{
		Registry:      registry,
		Logger:        slog.Default(),
		Metrics:       metrics.NewSimulationMetrics(),
		Matches:       cfg.Simulation.Matches,
		SnapshotEvery: cfg.Simulation.SnapshotEvery,
		Seed:          cfg.Simulation.Seed,

		TrackPerformance: *performance,
	})
	if err != nil {
		return err
	}

	reports, runErr := sim.RunTracks(ctx, selected, roster)

	for _, track := range selected {
		report, ok := reports[track]
		if !ok {
			continue
		}
		model, err := registry.Model(track)
		if err != nil {
			return err
		}
		fmt.Println()
		if err := display.WriteReport(os.Stdout, report); err != nil {
			return err
		}
		if err := display.WriteLeaderboard(os.Stdout, model, report, *leaderboard); err != nil {
			return err
		}
	}
	fmt.Println()
	if err := display.WriteStats(os.Stdout, sim.Metrics().GetStats()); err != nil {
		return err
	}
	slog.Info("Reproduce with", "seed", sim.Seed())

	if store != nil {
		// Persist even a cancelled run; the ratings reflect every played match.
		saveCtx := context.WithoutCancel(ctx)
		if *backupDir != "" {
			backupPath, err := store.DB().Backup(saveCtx, storage.BackupConfig{Dir: *backupDir, Verify: true})
			if err != nil {
				return fmt.Errorf("back up roster database: %w", err)
			}
			slog.Info("Roster database backed up", "path", backupPath)
		}
		if err := store.SaveRoster(saveCtx, roster); err != nil {
			return fmt.Errorf("save roster: %w", err)
		}
		for track, report := range reports {
			if err := store.RecordHistory(saveCtx, track, roster, report.History); err != nil {
				return fmt.Errorf("save %s history: %w", track, err)
			}
		}
		slog.Info("Roster saved", "path", cfg.Storage.Path, "players", len(roster))

		if *stored {
			if err := writeStoredLeaderboards(saveCtx, registry, selected, store); err != nil {
				return err
			}
		}
	}

	if cfg.Chart.Output != "" && len(reports) > 0 {
		chartConfig := charts.DefaultChartConfig()
		chartConfig.Players = cfg.Chart.Players
		if err := charts.RenderReportsFile(cfg.Chart.Output, reports, chartConfig); err != nil {
			return err
		}
		slog.Info("Chart written", "path", cfg.Chart.Output)
		if *openChart {
			if err := charts.OpenInBrowser(cfg.Chart.Output); err != nil {
				slog.Warn("Failed to open chart", "error", err)
			}
		}
	}

	return runErr
}

// loadRoster reads the stored roster, or creates a fresh one when there is
// no store or it is empty.
func loadRoster(ctx context.Context, cfg *config.Config, store *storage.Service) ([]*tracks.Player, error) {
	if store != nil {
		roster, err := store.LoadRoster(ctx)
		if err != nil {
			return nil, fmt.Errorf("load roster: %w", err)
		}
		if len(roster) > 0 {
			slog.Info("Roster loaded", "players", len(roster))
			return roster, nil
		}
	}

	roster, err := simulation.NewRoster(cfg.Simulation.Players, cfg.Simulation.SkillMean, cfg.Simulation.SkillSpread)
	if err != nil {
		return nil, err
	}
	slog.Info("Roster created",
		"players", len(roster),
		"skillMean", cfg.Simulation.SkillMean,
		"skillSpread", cfg.Simulation.SkillSpread)
	return roster, nil
}

// resetDatabase rolls back every migration of the roster database, dropping
// its tables. They are recreated when the database is opened.
func resetDatabase(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	mgr, err := storage.NewMigrationManager(path)
	if err != nil {
		return fmt.Errorf("reset roster database: %w", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Printf("Error closing migration manager: %v", err)
		}
	}()

	if err := mgr.Down(); err != nil {
		return fmt.Errorf("reset roster database: %w", err)
	}
	slog.Info("Roster database reset", "path", path)
	return nil
}

func writeStoredLeaderboards(ctx context.Context, registry *tracks.Registry, selected []tracks.Track, store *storage.Service) error {
	for _, track := range selected {
		model, err := registry.Model(track)
		if err != nil {
			return err
		}
		entries, err := store.Leaderboard(ctx, track, model.Mu()/model.Sigma(), *leaderboard)
		if err != nil {
			return fmt.Errorf("read %s leaderboard: %w", track, err)
		}
		fmt.Printf("\nStored %s leaderboard\n", track)
		if err := display.WriteStoredLeaderboard(os.Stdout, entries); err != nil {
			return err
		}
	}
	return nil
}
