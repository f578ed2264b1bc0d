package actors

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"unrealforge.ai/internal/names"
	"unrealforge.ai/internal/protocol"
)

// stubCommander scripts responses per command type and records every send.
type stubCommander struct {
	mu    sync.Mutex
	sent  []protocol.Command
	reply func(typ string, params map[string]any) protocol.Response
}

func (c *stubCommander) Send(_ context.Context, typ string, params map[string]any) protocol.Response {
	c.mu.Lock()
	c.sent = append(c.sent, protocol.NewCommand(typ, params))
	c.mu.Unlock()
	if c.reply != nil {
		return protocol.Normalize(c.reply(typ, params))
	}
	return protocol.SuccessResponse(nil)
}

func (c *stubCommander) sentOfType(typ string) []protocol.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []protocol.Command
	for _, cmd := range c.sent {
		if cmd.Type == typ {
			out = append(out, cmd)
		}
	}
	return out
}

func noActors(typ string, _ map[string]any) protocol.Response {
	if typ == protocol.CmdFindActorsByName {
		return protocol.SuccessResponse(map[string]any{"actors": []any{}})
	}
	return protocol.SuccessResponse(nil)
}

func newTestService(reply func(string, map[string]any) protocol.Response) (*Service, *stubCommander, *names.Registry) {
	cmd := &stubCommander{reply: reply}
	reg := names.NewRegistryAt(time.Unix(1700001234, 0), log.New(io.Discard, "", 0))
	return NewService(cmd, reg, log.New(io.Discard, "", 0)), cmd, reg
}

func TestSpawn_ResolvesNameAndAnnotates(t *testing.T) {
	svc, cmd, reg := newTestService(noActors)
	reg.MarkCreated("Wall")

	resp := svc.Spawn(context.Background(), SpawnRequest{Name: "Wall", Type: "StaticMeshActor"})
	if resp.IsError() {
		t.Fatalf("spawn failed: %v", resp)
	}

	spawns := cmd.sentOfType(protocol.CmdSpawnActor)
	if len(spawns) != 1 {
		t.Fatalf("expected 1 spawn, got %d", len(spawns))
	}
	if got := spawns[0].Params["name"]; got != "Wall_001234" {
		t.Fatalf("resolved name = %v", got)
	}

	result := resp.Result()
	if result["final_name"] != "Wall_001234" || result["original_name"] != "Wall" {
		t.Fatalf("annotations missing: %v", result)
	}
	if ok, _ := reg.Exists(context.Background(), "Wall_001234", nil); !ok {
		t.Fatalf("spawned name not recorded")
	}
}

func TestSpawn_ConvergentOnAlreadyExists(t *testing.T) {
	calls := 0
	svc, _, reg := newTestService(func(typ string, params map[string]any) protocol.Response {
		if typ == protocol.CmdFindActorsByName {
			return protocol.SuccessResponse(map[string]any{"actors": []any{}})
		}
		calls++
		if calls == 1 {
			return protocol.SuccessResponse(map[string]any{"name": params["name"]})
		}
		return protocol.ErrorResponse("Actor with name Pillar already exists")
	})

	// Same intent twice, opting out of auto-naming so the name collides.
	req := SpawnRequest{Name: "Pillar", Type: "StaticMeshActor", NoAutoName: true}

	first := svc.Spawn(context.Background(), req)
	if first.IsError() {
		t.Fatalf("first spawn failed: %v", first)
	}

	second := svc.Spawn(context.Background(), req)
	if second.IsError() {
		t.Fatalf("convergent spawn reported error: %v", second)
	}
	result := second.Result()
	if result["concurrent"] != true || result["reason"] != "Created by concurrent process" {
		t.Fatalf("missing convergence annotations: %v", result)
	}
	if result["final_name"] != "Pillar" || result["name"] != "Pillar" {
		t.Fatalf("unexpected names: %v", result)
	}
	if ok, _ := reg.Exists(context.Background(), "Pillar", nil); !ok {
		t.Fatalf("converged name not recorded")
	}
}

func TestSpawn_OtherErrorsPassThrough(t *testing.T) {
	svc, _, reg := newTestService(func(typ string, _ map[string]any) protocol.Response {
		if typ == protocol.CmdFindActorsByName {
			return protocol.SuccessResponse(map[string]any{"actors": []any{}})
		}
		return protocol.ErrorResponse("Unknown actor type: Gelatinous")
	})
	resp := svc.Spawn(context.Background(), SpawnRequest{Name: "Blob", Type: "Gelatinous"})
	if !resp.IsError() {
		t.Fatalf("expected error passthrough, got %v", resp)
	}
	if ok, _ := reg.Exists(context.Background(), "Blob", nil); ok {
		t.Fatalf("failed spawn must not be recorded")
	}
}

func TestDelete_MarksDeletedOnSuccessOnly(t *testing.T) {
	svc, _, reg := newTestService(nil)
	reg.MarkCreated("Wall_1")
	if resp := svc.Delete(context.Background(), "Wall_1"); resp.IsError() {
		t.Fatalf("delete failed: %v", resp)
	}
	if ok, _ := reg.Exists(context.Background(), "Wall_1", nil); ok {
		t.Fatalf("name still known after delete")
	}

	svc, _, reg = newTestService(func(string, map[string]any) protocol.Response {
		return protocol.ErrorResponse("Actor not found: Wall_2")
	})
	reg.MarkCreated("Wall_2")
	if resp := svc.Delete(context.Background(), "Wall_2"); !resp.IsError() {
		t.Fatalf("expected error")
	}
	if ok, _ := reg.Exists(context.Background(), "Wall_2", nil); !ok {
		t.Fatalf("failed delete dropped the name")
	}
}

func TestLookupNames(t *testing.T) {
	svc, _, _ := newTestService(func(typ string, _ map[string]any) protocol.Response {
		return protocol.SuccessResponse(map[string]any{
			"actors": []any{
				"Tower",
				map[string]any{"name": "Tower_1", "class": "StaticMeshActor"},
				map[string]any{"class": "Nameless"},
			},
		})
	})
	got, err := svc.LookupNames(context.Background(), "Tower")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 2 || got[0] != "Tower" || got[1] != "Tower_1" {
		t.Fatalf("got %v", got)
	}

	svc, _, _ = newTestService(func(string, map[string]any) protocol.Response {
		return protocol.ErrorResponse("connect 127.0.0.1:55557: connection refused")
	})
	if _, err := svc.LookupNames(context.Background(), "Tower"); err == nil {
		t.Fatalf("expected probe error to surface")
	} else if !strings.Contains(err.Error(), "find_actors_by_name") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetTransform_OmitsUnsetParts(t *testing.T) {
	svc, cmd, _ := newTestService(nil)
	svc.SetTransform(context.Background(), TransformRequest{
		Name:     "Gate",
		Location: []float64{1, 2, 3},
	})
	sent := cmd.sentOfType(protocol.CmdSetActorTransform)
	if len(sent) != 1 {
		t.Fatalf("expected 1 command, got %d", len(sent))
	}
	p := sent[0].Params
	if p["name"] != "Gate" || p["location"] == nil {
		t.Fatalf("params: %v", p)
	}
	if _, ok := p["rotation"]; ok {
		t.Fatalf("rotation should be omitted: %v", p)
	}
	if _, ok := p["scale"]; ok {
		t.Fatalf("scale should be omitted: %v", p)
	}
}

func TestSpawnFromBlueprint(t *testing.T) {
	svc, cmd, reg := newTestService(noActors)
	resp := svc.SpawnFromBlueprint(context.Background(), "Crate_BP", "Crate", []float64{0, 0, 100}, nil)
	if resp.IsError() {
		t.Fatalf("spawn failed: %v", resp)
	}
	sent := cmd.sentOfType(protocol.CmdSpawnBlueprintActor)
	if len(sent) != 1 {
		t.Fatalf("expected 1 command, got %d", len(sent))
	}
	if sent[0].Params["blueprint_name"] != "Crate_BP" || sent[0].Params["actor_name"] != "Crate" {
		t.Fatalf("params: %v", sent[0].Params)
	}
	if ok, _ := reg.Exists(context.Background(), "Crate", nil); !ok {
		t.Fatalf("spawned name not recorded")
	}
}

func TestApplyMaterialParams(t *testing.T) {
	svc, cmd, _ := newTestService(nil)
	svc.ApplyMaterial(context.Background(), "Gate", "/Game/Materials/M_Stone", 1)
	sent := cmd.sentOfType(protocol.CmdApplyMaterialToActor)
	if len(sent) != 1 {
		t.Fatalf("expected 1 command")
	}
	p := sent[0].Params
	if p["actor_name"] != "Gate" || p["material_path"] != "/Game/Materials/M_Stone" || p["material_slot"] != 1 {
		t.Fatalf("params: %v", p)
	}
}
