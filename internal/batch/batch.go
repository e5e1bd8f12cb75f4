package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"robosoccer/internal/config"
	"robosoccer/internal/match"
	"robosoccer/internal/matchdb"
	"robosoccer/internal/replay"
	"robosoccer/internal/shared/logger"
	"robosoccer/internal/shared/types"
)

var ErrUnbounded = errors.New("batch: match has no duration and no tick limit")

// Options control a batch of headless matches.
type Options struct {
	Matches  int
	Workers  int
	BaseSeed int64
	// MaxTicks caps every match. Zero runs each match to full time.
	MaxTicks uint64
	// ReplayDir, when set, receives one <seed>.jsonl.zst recording per match.
	ReplayDir string
	Index     *matchdb.Index
	Log       *logger.Logger
}

// Report aggregates a finished batch. Summaries are in seed order.
type Report struct {
	Summaries []types.MatchSummary `json:"summaries"`
	LeftWins  int                  `json:"left_wins"`
	RightWins int                  `json:"right_wins"`
	Draws     int                  `json:"draws"`
	Goals     int                  `json:"goals"`
	Shots     int                  `json:"shots"`
	Passes    int                  `json:"passes"`
}

// Run plays opt.Matches matches of cfg on a worker pool, match i using seed
// BaseSeed+i. Failed matches are left out of the report and their errors
// joined into the returned error.
func Run(ctx context.Context, cfg config.Config, opt Options) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, fmt.Errorf("batch: %w", err)
	}
	if cfg.Match.DurationSec <= 0 && opt.MaxTicks == 0 {
		return Report{}, ErrUnbounded
	}
	if opt.Matches <= 0 {
		return Report{}, nil
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = 4
	}
	workers = min(workers, opt.Matches)
	log := opt.Log
	if log == nil {
		log = logger.Discard()
	}

	results := make([]*types.MatchSummary, opt.Matches)
	errs := make([]error, opt.Matches)
	jobs := make(chan int, opt.Matches)
	for i := 0; i < opt.Matches; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					errs[i] = ctx.Err()
					continue
				}
				c := cfg
				c.Match.Seed = opt.BaseSeed + int64(i)
				sum, err := playOne(ctx, c, opt, log)
				if err != nil {
					errs[i] = fmt.Errorf("batch: seed %d: %w", c.Match.Seed, err)
					continue
				}
				results[i] = &sum
			}
		}()
	}
	wg.Wait()

	var rep Report
	for _, s := range results {
		if s == nil {
			continue
		}
		rep.Summaries = append(rep.Summaries, *s)
		switch {
		case s.ScoreLeft > s.ScoreRight:
			rep.LeftWins++
		case s.ScoreRight > s.ScoreLeft:
			rep.RightWins++
		default:
			rep.Draws++
		}
		rep.Goals += s.ScoreLeft + s.ScoreRight
		rep.Shots += s.Shots
		rep.Passes += s.Passes
	}
	return rep, errors.Join(errs...)
}

func playOne(ctx context.Context, cfg config.Config, opt Options, log *logger.Logger) (types.MatchSummary, error) {
	m, err := match.New(cfg, log)
	if err != nil {
		return types.MatchSummary{}, err
	}

	var rec *replay.Recorder
	if opt.ReplayDir != "" {
		rec, err = replay.Create(filepath.Join(opt.ReplayDir, fmt.Sprintf("%d.jsonl.zst", cfg.Match.Seed)))
		if err != nil {
			return types.MatchSummary{}, err
		}
		defer func() {
			if cerr := rec.Close(); cerr != nil {
				log.Error("replay close failed", "path", rec.Path(), "error", cerr)
			}
		}()
	}

	var events []types.GameplayEvent
	var recErr error
	err = m.Run(ctx, opt.MaxTicks, func(s types.WorldSnapshot) {
		events = append(events, s.Events...)
		if rec != nil && recErr == nil {
			recErr = rec.Write(s)
		}
	})
	if err != nil {
		return types.MatchSummary{}, err
	}
	if recErr != nil {
		return types.MatchSummary{}, recErr
	}

	sum := m.Summary()
	if opt.Index != nil {
		if err := opt.Index.RecordMatch(ctx, sum); err != nil {
			return sum, err
		}
		if err := opt.Index.RecordEvents(ctx, sum.MatchID, events); err != nil {
			return sum, err
		}
	}
	log.Info("match done", "match", sum.MatchID, "seed", sum.Seed, "left", sum.ScoreLeft, "right", sum.ScoreRight, "ticks", sum.Ticks)
	return sum, nil
}
