package history

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"unrealforge.ai/internal/editor"
	"unrealforge.ai/internal/protocol"
)

var _ editor.Tap = (*Store)(nil)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLedgerRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	s.RecordExchange(editor.Exchange{
		Command:  protocol.NewCommand(protocol.CmdSpawnActor, map[string]any{"name": "Cube1"}),
		Response: protocol.SuccessResponse(map[string]any{"name": "Cube1"}),
		Duration: 8 * time.Millisecond,
	})
	s.RecordExchange(editor.Exchange{
		Command:  protocol.NewCommand(protocol.CmdDeleteActor, map[string]any{"name": "Gone"}),
		Response: protocol.ErrorResponse("Actor not found: Gone"),
		Duration: 3 * time.Millisecond,
	})
	s.RecordBuild(BuildRecord{
		Build: "castle", Prefix: "Castle",
		Requested: 874, Spawned: 874, ElapsedMS: 1200,
		Parts: map[string]int{"walls": 430, "towers": 320},
	})
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	cmds, err := s.RecentCommands(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCommands: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("commands = %d, want 2", len(cmds))
	}
	if cmds[0].Command != protocol.CmdDeleteActor || cmds[0].Error != "Actor not found: Gone" {
		t.Fatalf("newest row = %+v", cmds[0])
	}
	if cmds[1].Command != protocol.CmdSpawnActor || cmds[1].Status != protocol.StatusSuccess {
		t.Fatalf("older row = %+v", cmds[1])
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(cmds[1].ParamsJSON), &params); err != nil || params["name"] != "Cube1" {
		t.Fatalf("params_json = %q (%v)", cmds[1].ParamsJSON, err)
	}

	builds, err := s.RecentBuilds(ctx, 10)
	if err != nil {
		t.Fatalf("RecentBuilds: %v", err)
	}
	if len(builds) != 1 || builds[0].Build != "castle" || builds[0].Spawned != 874 {
		t.Fatalf("builds = %+v", builds)
	}
	var parts map[string]int
	if err := json.Unmarshal([]byte(builds[0].PartsJSON), &parts); err != nil || parts["walls"] != 430 {
		t.Fatalf("parts_json = %q (%v)", builds[0].PartsJSON, err)
	}
}

func TestLedgerStats(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.RecordExchange(editor.Exchange{
			Command:  protocol.NewCommand(protocol.CmdSpawnActor, nil),
			Response: protocol.SuccessResponse(nil),
		})
	}
	s.RecordExchange(editor.Exchange{
		Command:  protocol.NewCommand(protocol.CmdSpawnActor, nil),
		Response: protocol.ErrorResponse("boom"),
		Err:      errors.New("boom"),
	})
	s.RecordExchange(editor.Exchange{
		Command:  protocol.NewCommand(protocol.CmdGetActorsInLevel, nil),
		Response: protocol.SuccessResponse(nil),
	})
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	stats, err := s.CommandStats(ctx)
	if err != nil {
		t.Fatalf("CommandStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats = %+v, want 2 command types", stats)
	}
	// Sorted by command name: get_actors_in_level before spawn_actor.
	if stats[0].Command != protocol.CmdGetActorsInLevel || stats[0].Count != 1 {
		t.Fatalf("stats[0] = %+v", stats[0])
	}
	if stats[1].Command != protocol.CmdSpawnActor || stats[1].Count != 4 || stats[1].Errors != 1 {
		t.Fatalf("stats[1] = %+v", stats[1])
	}
}

func TestLedgerClosed(t *testing.T) {
	s := openStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s.RecordExchange(editor.Exchange{Command: protocol.NewCommand("x", nil)})
	s.RecordBuild(BuildRecord{Build: "wall"})
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush after close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("Open accepted an empty path")
	}
}
