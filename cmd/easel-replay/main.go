// Command easel-replay replays a recorded painting capture and writes
// the flattened result as a PNG, printing engine metrics on exit.
// Replays are deterministic: the same capture always produces the same
// pixels.
package main

import (
	"encoding/json"
	"flag"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/easel"
)

func main() {
	var (
		input   = flag.String("input", "", "capture file to replay (JSON)")
		output  = flag.String("output", "replay.png", "output image file")
		metrics = flag.String("metrics", "", "write metrics JSON to file ('-' for stdout)")
		verbose = flag.Bool("v", false, "enable engine logging")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("easel-replay: -input is required")
	}
	if *verbose {
		easel.SetLogger(slog.Default())
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("easel-replay: %v", err)
	}
	capture, err := easel.ReadCapture(f)
	f.Close()
	if err != nil {
		log.Fatalf("easel-replay: %v", err)
	}

	eng, err := easel.Replay(capture, nil)
	if err != nil {
		log.Fatalf("easel-replay: replay failed: %v", err)
	}
	defer eng.Close()

	frame := easel.NewCompositor(eng).Composite()
	out, err := os.Create(*output)
	if err != nil {
		log.Fatalf("easel-replay: %v", err)
	}
	if err := png.Encode(out, frame.ToImage()); err != nil {
		log.Fatalf("easel-replay: encode: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("easel-replay: %v", err)
	}

	m := eng.Metrics()
	log.Printf("easel-replay: %d strokes, %d dabs, %d history entries -> %s",
		m.StrokesCommitted, m.DabsStamped, m.UndoDepth, *output)

	if *metrics != "" {
		if err := writeMetrics(*metrics, m); err != nil {
			log.Fatalf("easel-replay: metrics: %v", err)
		}
	}
}

func writeMetrics(path string, m easel.Metrics) error {
	w := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
