package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"unrealforge.ai/internal/editor"
	"unrealforge.ai/internal/protocol"
)

var _ editor.Tap = (*Recorder)(nil)

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 1024), 16<<20)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("decode line %q: %v", sc.Text(), err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestRecorderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(dir, testLogger())

	rec.RecordExchange(editor.Exchange{
		Command:  protocol.NewCommand(protocol.CmdSpawnActor, map[string]any{"name": "Cube1"}),
		Response: protocol.SuccessResponse(map[string]any{"name": "Cube1"}),
		Duration: 12 * time.Millisecond,
	})
	rec.RecordExchange(editor.Exchange{
		Command:  protocol.NewCommand(protocol.CmdDeleteActor, map[string]any{"name": "Gone"}),
		Response: protocol.ErrorResponse("editor: timed out waiting for a complete response"),
		Err:      errors.New("editor: timed out waiting for a complete response"),
		Duration: 30 * time.Second,
	})
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "transcript-*.jsonl.zst"))
	if err != nil || len(files) == 0 {
		t.Fatalf("transcript files = %v (err %v)", files, err)
	}
	var entries []Entry
	for _, f := range files {
		entries = append(entries, readEntries(t, f)...)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Command != protocol.CmdSpawnActor || entries[0].Status != protocol.StatusSuccess {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[0].Params["name"] != "Cube1" {
		t.Fatalf("params not recorded: %+v", entries[0].Params)
	}
	if entries[1].Status != protocol.StatusError || entries[1].Fault == "" {
		t.Fatalf("fault entry = %+v", entries[1])
	}
	if entries[1].DurationMS != 30000 {
		t.Fatalf("duration = %d, want 30000", entries[1].DurationMS)
	}
}

func TestRecorderRotation(t *testing.T) {
	dir := t.TempDir()
	hour := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	r := &Recorder{dir: dir, log: testLogger(), now: func() time.Time { return hour }}

	if err := r.write(Entry{Command: "a"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	hour = hour.Add(2 * time.Minute)
	if err := r.write(Entry{Command: "b"}); err != nil {
		t.Fatalf("write after rollover: %v", err)
	}
	if err := r.closeFile(); err != nil {
		t.Fatalf("closeFile: %v", err)
	}

	for _, want := range []string{"transcript-2026-03-01-10.jsonl.zst", "transcript-2026-03-01-11.jsonl.zst"} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Fatalf("%s: %v", want, err)
		}
	}
	got := readEntries(t, filepath.Join(dir, "transcript-2026-03-01-11.jsonl.zst"))
	if len(got) != 1 || got[0].Command != "b" {
		t.Fatalf("rolled file entries = %+v", got)
	}
}

func TestRecorderClosed(t *testing.T) {
	rec := NewRecorder(t.TempDir(), testLogger())
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// After Close the recorder ignores traffic instead of panicking.
	rec.RecordExchange(editor.Exchange{Command: protocol.NewCommand("x", nil)})
	if err := rec.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
