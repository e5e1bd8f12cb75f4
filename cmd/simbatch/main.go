package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"robosoccer/internal/batch"
	"robosoccer/internal/config"
	"robosoccer/internal/matchdb"
	"robosoccer/internal/shared/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML match config (defaults when empty)")
		matches    = flag.Int("matches", 10, "number of matches to play")
		workers    = flag.Int("workers", 4, "concurrent matches")
		seed       = flag.Int64("seed", 1, "seed of the first match")
		maxTicks   = flag.Uint64("max-ticks", 0, "tick cap per match, 0 plays to full time")
		replays    = flag.String("replays", "", "directory for compressed replays")
		dbPath     = flag.String("db", "", "sqlite match index")
	)
	flag.Parse()

	log := logger.New("simbatch")

	cfg := config.Defaults()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal("load config", "error", err)
		}
	}

	opt := batch.Options{
		Matches:   *matches,
		Workers:   *workers,
		BaseSeed:  *seed,
		MaxTicks:  *maxTicks,
		ReplayDir: *replays,
		Log:       log,
	}
	if *dbPath != "" {
		idx, err := matchdb.Open(*dbPath)
		if err != nil {
			log.Fatal("open match index", "error", err)
		}
		defer idx.Close()
		opt.Index = idx
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("batch starting", "matches", opt.Matches, "workers", opt.Workers, "seed", opt.BaseSeed)
	rep, err := batch.Run(ctx, cfg, opt)
	if err != nil {
		log.Error("batch finished with errors", "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(rep); encErr != nil {
		log.Fatal("write report", "error", encErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
