package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"robosoccer/internal/shared/types"
)

// ErrStop ends a Scan early without an error.
var ErrStop = errors.New("replay: stop")

// Recorder writes one snapshot per line to a zstd-compressed JSONL file.
type Recorder struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	n   int
}

// Create opens path for writing, creating parent directories.
func Create(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("replay: mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("replay: encoder: %w", err)
	}
	return &Recorder{path: path, f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (r *Recorder) Path() string { return r.path }

// Frames is the number of snapshots written so far.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func (r *Recorder) Write(s types.WorldSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return fmt.Errorf("replay: write %s: closed", r.path)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("replay: marshal tick %d: %w", s.Tick, err)
	}
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	r.n++
	return nil
}

// Close flushes and closes the file. It is safe to call twice.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	var errs []error
	errs = append(errs, r.w.Flush(), r.enc.Close(), r.f.Close())
	r.w, r.enc, r.f = nil, nil, nil
	return errors.Join(errs...)
}

// Scan calls fn for each snapshot in path, in file order. Returning ErrStop
// from fn ends the scan cleanly.
func Scan(path string, fn func(types.WorldSnapshot) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("replay: decoder: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var s types.WorldSnapshot
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			return fmt.Errorf("%s:%d: unmarshal: %w", filepath.Base(path), line, err)
		}
		if err := fn(s); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return sc.Err()
}

// ReadAll loads every snapshot of path.
func ReadAll(path string) ([]types.WorldSnapshot, error) {
	var out []types.WorldSnapshot
	err := Scan(path, func(s types.WorldSnapshot) error {
		out = append(out, s)
		return nil
	})
	return out, err
}

// Stats summarises a recording.
type Stats struct {
	MatchID    string         `json:"match_id"`
	Frames     int            `json:"frames"`
	FirstTick  uint64         `json:"first_tick"`
	LastTick   uint64         `json:"last_tick"`
	SimSeconds float64        `json:"sim_seconds"`
	ScoreLeft  int            `json:"score_left"`
	ScoreRight int            `json:"score_right"`
	Events     map[string]int `json:"events"`
}

// Summarize scans path once and counts events by type.
func Summarize(path string) (Stats, error) {
	st := Stats{Events: make(map[string]int)}
	err := Scan(path, func(s types.WorldSnapshot) error {
		if st.Frames == 0 {
			st.MatchID = s.MatchID
			st.FirstTick = s.Tick
		}
		st.Frames++
		st.LastTick = s.Tick
		st.SimSeconds = s.SimTime
		st.ScoreLeft, st.ScoreRight = s.Score.Left, s.Score.Right
		for _, e := range s.Events {
			st.Events[e.Type]++
		}
		return nil
	})
	return st, err
}
