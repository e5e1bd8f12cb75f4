package main

import (
	"encoding/json"
	"flag"
	"os"

	"robosoccer/internal/replay"
	"robosoccer/internal/shared/logger"
	"robosoccer/internal/shared/types"
)

func main() {
	file := flag.String("file", "", "replay file (.jsonl.zst)")
	dump := flag.Bool("dump", false, "print every frame as JSON")
	every := flag.Int("every", 1, "with -dump, print one frame in N")
	flag.Parse()

	log := logger.New("replay")
	if *file == "" {
		log.Fatal("missing -file")
	}

	enc := json.NewEncoder(os.Stdout)
	if *dump {
		n := 0
		step := max(1, *every)
		err := replay.Scan(*file, func(s types.WorldSnapshot) error {
			n++
			if (n-1)%step != 0 {
				return nil
			}
			return enc.Encode(s)
		})
		if err != nil {
			log.Fatal("read replay", "file", *file, "error", err)
		}
		return
	}

	st, err := replay.Summarize(*file)
	if err != nil {
		log.Fatal("summarize replay", "file", *file, "error", err)
	}
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		log.Fatal("write stats", "error", err)
	}
}
