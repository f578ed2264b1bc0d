package forge

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"unrealforge.ai/internal/actors"
	"unrealforge.ai/internal/protocol"
)

type fakeLevel struct {
	reqs    []actors.SpawnRequest
	fail    func(i int, req actors.SpawnRequest) bool
	onSpawn func(i int)
}

func (l *fakeLevel) Spawn(ctx context.Context, req actors.SpawnRequest) protocol.Response {
	i := len(l.reqs)
	l.reqs = append(l.reqs, req)
	if l.onSpawn != nil {
		l.onSpawn(i)
	}
	if l.fail != nil && l.fail(i, req) {
		return protocol.ErrorResponse("spawn failed")
	}
	return protocol.Response{
		"status": protocol.StatusSuccess,
		"result": map[string]any{"name": req.Name, "final_name": req.Name, "original_name": req.Name},
	}
}

func (l *fakeLevel) named(name string) *actors.SpawnRequest {
	for i := range l.reqs {
		if l.reqs[i].Name == name {
			return &l.reqs[i]
		}
	}
	return nil
}

type progressLog struct {
	started  int
	progress int
	ended    int
	last     *BuildResult
}

func (p *progressLog) BuildStarted(string, string)            { p.started++ }
func (p *progressLog) BuildProgress(string, string, int, int) { p.progress++ }
func (p *progressLog) BuildEnded(_, _ string, res *BuildResult) {
	p.ended++
	p.last = res
}

func testForge(level Spawner, prog Progress) *Forge {
	return New(level, prog, log.New(io.Discard, "", 0))
}

func TestBuildCountsFailures(t *testing.T) {
	level := &fakeLevel{fail: func(i int, _ actors.SpawnRequest) bool { return i%3 == 0 }}
	f := testForge(level, nil)

	res, err := f.Wall(context.Background(), WallRequest{})
	if err != nil {
		t.Fatalf("Wall: %v", err)
	}
	if res.Requested != 10 {
		t.Fatalf("requested = %d, want 10", res.Requested)
	}
	if res.Failed != 4 {
		t.Fatalf("failed = %d, want 4", res.Failed)
	}
	if res.Spawned+res.Failed != res.Requested {
		t.Fatalf("spawned %d + failed %d != requested %d", res.Spawned, res.Failed, res.Requested)
	}
	if len(res.Names) != res.Spawned {
		t.Fatalf("names %d, want %d", len(res.Names), res.Spawned)
	}
}

func TestBuildAbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	level := &fakeLevel{onSpawn: func(i int) {
		if i == 9 {
			cancel()
		}
	}}
	f := testForge(level, nil)

	res, err := f.Tower(ctx, TowerRequest{Height: 6, BaseSize: 4})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res != nil {
		t.Fatalf("result = %+v, want nil", res)
	}
	if len(level.reqs) != 10 {
		t.Fatalf("spawned %d requests after cancel, want 10", len(level.reqs))
	}
}

func TestProgressNotifications(t *testing.T) {
	level := &fakeLevel{}
	prog := &progressLog{}
	f := testForge(level, prog)

	res, err := f.Wall(context.Background(), WallRequest{Length: 30, Height: 2})
	if err != nil {
		t.Fatalf("Wall: %v", err)
	}
	if prog.started != 1 || prog.ended != 1 {
		t.Fatalf("started %d ended %d, want 1 and 1", prog.started, prog.ended)
	}
	if prog.progress != 2 {
		t.Fatalf("progress notifications = %d, want 2 for 60 spawns", prog.progress)
	}
	if prog.last != res {
		t.Fatalf("BuildEnded got a different result")
	}
}

func TestNamesPreferArbitrated(t *testing.T) {
	f := testForge(&renamingLevel{}, nil)

	res, err := f.Staircase(context.Background(), StaircaseRequest{Steps: 2})
	if err != nil {
		t.Fatalf("Staircase: %v", err)
	}
	if res.Names[0] != "Stair_0_001122" {
		t.Fatalf("names[0] = %q, want arbitrated name", res.Names[0])
	}
}

// renamingLevel reports a different final_name, the way name arbitration
// does on conflicts.
type renamingLevel struct{}

func (renamingLevel) Spawn(_ context.Context, req actors.SpawnRequest) protocol.Response {
	return protocol.Response{
		"status": protocol.StatusSuccess,
		"result": map[string]any{"final_name": req.Name + "_001122", "original_name": req.Name},
	}
}

func TestResultMap(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	res, err := f.Pyramid(context.Background(), PyramidRequest{BaseSize: 2})
	if err != nil {
		t.Fatalf("Pyramid: %v", err)
	}
	m := res.Map()
	if m["build"] != "pyramid" || m["prefix"] != "PyramidBlock" {
		t.Fatalf("map identity wrong: %v", m)
	}
	if _, ok := m["dry_run"]; ok {
		t.Fatalf("dry_run present on a real build")
	}
	if _, ok := m["elapsed_ms"]; !ok {
		t.Fatalf("missing elapsed_ms")
	}
	if m["spawned"] != 5 {
		t.Fatalf("spawned = %v, want 5", m["spawned"])
	}
}
