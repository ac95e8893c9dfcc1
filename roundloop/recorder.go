package roundloop

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// streamRecord is one captured fragment.
type streamRecord struct {
	Time     time.Time `json:"time"`
	RoundID  string    `json:"round_id"`
	Fragment string    `json:"fragment"`
}

// StreamRecorder captures raw stream fragments to a per-round JSONL file for
// debugging. A disabled recorder is a no-op, so callers never branch.
type StreamRecorder struct {
	file    *os.File
	roundID string
	enabled bool
}

// NewStreamRecorder opens a recorder for a round. Any setup failure disables
// the recorder rather than failing the round.
func NewStreamRecorder(dir, roundID string, enabled bool) *StreamRecorder {
	if !enabled {
		return &StreamRecorder{enabled: false}
	}
	if dir == "" {
		dir = filepath.Join("debug", "streams")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("stream recorder: create dir failed", "dir", dir, "error", err)
		return &StreamRecorder{enabled: false}
	}

	name := filepath.Join(dir, time.Now().Format("20060102_150405")+"_"+roundID+".jsonl")
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("stream recorder: open failed", "file", name, "error", err)
		return &StreamRecorder{enabled: false}
	}

	slog.Debug("stream recording on", "round", roundID, "file", name)
	return &StreamRecorder{file: f, roundID: roundID, enabled: true}
}

// Record appends one fragment as a JSONL line.
func (r *StreamRecorder) Record(fragment string) {
	if !r.enabled || r.file == nil {
		return
	}
	line, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(streamRecord{
		Time:     time.Now(),
		RoundID:  r.roundID,
		Fragment: fragment,
	})
	if err != nil {
		return
	}
	if _, err := r.file.Write(append(line, '\n')); err != nil {
		slog.Warn("stream recorder: write failed", "error", err)
	}
}

// Close releases the underlying file.
func (r *StreamRecorder) Close() {
	if r.file != nil {
		_ = r.file.Close()
	}
}
