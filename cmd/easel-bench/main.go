// Command easel-bench serves synthetic stylus input for latency
// benchmarking. Clients connect over WebSocket (or a chunked HTTP
// stream), send "start", and receive binary sample packets at a fixed
// frequency for a fixed duration.
//
// Each sample is 32 bytes, little-endian: x, y, pressure and timestamp
// as float64. Packets carry a batch of samples so the client exercises
// its per-frame input batching.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	benchFreqHz       = 240
	benchDurationSecs = 2
	benchBatchSize    = 10
	sampleSize        = 32
)

var upgrader = websocket.Upgrader{
	// The bench server is a local tool; any origin may connect.
	CheckOrigin: func(*http.Request) bool { return true },
}

func main() {
	port := flag.Int("port", 9000, "listen port")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler)
	mux.HandleFunc("/stream", streamHandler)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("easel-bench: listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("easel-bench: %v", err)
	}
}

func wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("easel-bench: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	msgType, msg, err := conn.ReadMessage()
	if err != nil || msgType != websocket.TextMessage || string(msg) != "start" {
		return
	}

	interval := time.Second / benchFreqHz
	deadline := time.Now().Add(benchDurationSecs * time.Second)
	gen := newSampleGen()

	for time.Now().Before(deadline) {
		loopStart := time.Now()
		if err := conn.WriteMessage(websocket.BinaryMessage, gen.nextBatch()); err != nil {
			return
		}
		if work := time.Since(loopStart); work < interval {
			time.Sleep(interval - work)
		}
	}
}

func streamHandler(w http.ResponseWriter, _ *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")

	interval := time.Second / benchFreqHz
	deadline := time.Now().Add(benchDurationSecs * time.Second)
	gen := newSampleGen()

	for time.Now().Before(deadline) {
		loopStart := time.Now()
		if _, err := w.Write(gen.nextBatch()); err != nil {
			return
		}
		flusher.Flush()
		if work := time.Since(loopStart); work < interval {
			time.Sleep(interval - work)
		}
	}
}

// sampleGen synthesizes a plausible stroke path: a sine wave swept
// across a 1024x768 canvas with pressure following a raised cosine.
type sampleGen struct {
	start time.Time
	index uint64
	buf   []byte
}

func newSampleGen() *sampleGen {
	return &sampleGen{
		start: time.Now(),
		buf:   make([]byte, sampleSize*benchBatchSize),
	}
}

func (g *sampleGen) nextBatch() []byte {
	for i := 0; i < benchBatchSize; i++ {
		t := float64(g.index) / benchFreqHz
		x := math.Mod(t*300, 1024)
		y := 384 + 200*math.Sin(t*4)
		pressure := 0.5 - 0.5*math.Cos(t*2*math.Pi)
		ts := float64(time.Since(g.start)) / float64(time.Millisecond)

		off := i * sampleSize
		binary.LittleEndian.PutUint64(g.buf[off+0:], math.Float64bits(x))
		binary.LittleEndian.PutUint64(g.buf[off+8:], math.Float64bits(y))
		binary.LittleEndian.PutUint64(g.buf[off+16:], math.Float64bits(pressure))
		binary.LittleEndian.PutUint64(g.buf[off+24:], math.Float64bits(ts))
		g.index++
	}
	return g.buf
}
