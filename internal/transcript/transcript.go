// Package transcript keeps the wire transcript: every editor exchange
// becomes one JSONL entry in hourly zstd-compressed files. Recording is
// asynchronous so a slow disk never stalls a command.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"

	"unrealforge.ai/internal/editor"
	"unrealforge.ai/internal/protocol"
)

// Entry is one recorded exchange.
type Entry struct {
	Time       string            `json:"ts"`
	Command    string            `json:"command"`
	Params     map[string]any    `json:"params,omitempty"`
	Status     string            `json:"status"`
	Fault      string            `json:"fault,omitempty"`
	DurationMS int64             `json:"duration_ms"`
	Response   protocol.Response `json:"response,omitempty"`
}

// Recorder implements editor.Tap. Exchanges are queued and written by a
// single background goroutine; when the queue is full the entry is dropped
// and counted rather than blocking the caller.
type Recorder struct {
	dir string
	log *log.Logger
	now func() time.Time

	ch   chan Entry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Int64

	// Owned by the writer goroutine.
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewRecorder(dir string, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.New(os.Stdout, "[transcript] ", log.LstdFlags|log.Lmicroseconds)
	}
	r := &Recorder{
		dir: dir,
		log: logger,
		now: time.Now,
		ch:  make(chan Entry, 1024),
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()
	return r
}

// RecordExchange queues one exchange. Never blocks.
func (r *Recorder) RecordExchange(x editor.Exchange) {
	if r == nil || r.closed.Load() {
		return
	}
	e := Entry{
		Time:       r.now().UTC().Format(time.RFC3339Nano),
		Command:    x.Command.Type,
		Params:     x.Command.Params,
		Status:     x.Response.Status(),
		DurationMS: x.Duration.Milliseconds(),
		Response:   x.Response,
	}
	if x.Err != nil {
		e.Fault = x.Err.Error()
	}
	select {
	case r.ch <- e:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports how many entries were discarded because the queue was
// full.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

func (r *Recorder) Close() error {
	var err error
	r.once.Do(func() {
		r.closed.Store(true)
		close(r.ch)
		r.wg.Wait()
		err = r.closeFile()
		if n := r.dropped.Load(); n > 0 {
			r.log.Printf("dropped %d entries", n)
		}
	})
	return err
}

func (r *Recorder) loop() {
	for e := range r.ch {
		if err := r.write(e); err != nil {
			r.log.Printf("write entry: %v", err)
		}
	}
}

func (r *Recorder) write(e Entry) error {
	hour := r.now().UTC().Format("2006-01-02-15")
	if hour != r.curHour {
		if err := r.rotate(hour); err != nil {
			return err
		}
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	return r.w.Flush()
}

func (r *Recorder) rotate(hour string) error {
	if err := r.closeFile(); err != nil {
		r.log.Printf("close %s: %v", r.curHour, err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(r.dir, fmt.Sprintf("transcript-%s.jsonl.zst", hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	r.f = f
	r.enc = enc
	r.w = bufio.NewWriterSize(enc, 128*1024)
	r.curHour = hour
	return nil
}

func (r *Recorder) closeFile() error {
	var err error
	if r.w != nil {
		_ = r.w.Flush()
		r.w = nil
	}
	if r.enc != nil {
		err = r.enc.Close()
		r.enc = nil
	}
	if r.f != nil {
		_ = r.f.Close()
		r.f = nil
	}
	return err
}
