// Package txlog is an append-only record of plan-database mutations,
// kept as structured, replayable records rather than free-form trace
// output. It is deliberately kept
// free of any dependency on internal/engine or internal/plandb: replay
// needs both, so the replay function itself lives in internal/plandb to
// avoid an import cycle.
package txlog

import (
	"encoding/json"
	"os"
	"sync"
)

// Record is one logged mutation: Kind names the operation ("createToken",
// "activate", "merge", ...), TargetKey is the entity key it applies to,
// Payload carries operation-specific detail, and Seq is the record's
// position in the log.
type Record struct {
	Seq       int64  `json:"seq"`
	Kind      string `json:"kind"`
	TargetKey int64  `json:"target_key"`
	Payload   any    `json:"payload,omitempty"`
}

// Sink receives records as they are appended, in addition to the
// in-process buffer Log always keeps. A nil Sink means in-process only.
type Sink interface {
	Write(Record) error
}

// Log is an in-process, append-only buffer of Records with an optional
// durable Sink (see NewFileSink) mirroring every append.
type Log struct {
	mu      sync.Mutex
	records []Record
	seq     int64
	sink    Sink
}

// New builds an empty log, optionally mirroring every append to sink.
func New(sink Sink) *Log {
	return &Log{sink: sink}
}

// Append records kind/target/payload under the next sequence number. A
// Sink write error leaves the record out of durable storage but is not
// propagated: logging must never fail the operation it is logging.
func (l *Log) Append(kind string, target int64, payload any) Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	r := Record{Seq: l.seq, Kind: kind, TargetKey: target, Payload: payload}
	l.records = append(l.records, r)
	if l.sink != nil {
		_ = l.sink.Write(r)
	}
	return r
}

// Records returns a copy of every record appended so far, in order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.records...)
}

// fileSink writes one JSON object per line: human-inspectable and
// grep-friendly on disk.
type fileSink struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewFileSink opens (creating/truncating) path for JSON-Lines record
// output.
func NewFileSink(path string) (Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &fileSink{f: f, enc: json.NewEncoder(f)}, nil
}

func (s *fileSink) Write(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(r)
}

// Close closes the underlying file, if any.
func (s *fileSink) Close() error {
	return s.f.Close()
}
