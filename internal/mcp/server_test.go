package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"unrealforge.ai/internal/actors"
	"unrealforge.ai/internal/blueprints"
	"unrealforge.ai/internal/forge"
	"unrealforge.ai/internal/names"
	"unrealforge.ai/internal/protocol"
)

// scriptedEditor answers editor commands with canned success documents and
// records every command type it sees.
type scriptedEditor struct {
	mu    sync.Mutex
	calls []string
	reply func(typ string, params map[string]any) protocol.Response
}

func (e *scriptedEditor) Send(ctx context.Context, typ string, params map[string]any) protocol.Response {
	e.mu.Lock()
	e.calls = append(e.calls, typ)
	e.mu.Unlock()
	if e.reply != nil {
		return e.reply(typ, params)
	}
	switch typ {
	case protocol.CmdFindActorsByName:
		return protocol.SuccessResponse(map[string]any{"actors": []any{}})
	case protocol.CmdSpawnActor:
		name, _ := params["name"].(string)
		return protocol.SuccessResponse(map[string]any{"name": name, "final_name": name})
	default:
		return protocol.SuccessResponse(map[string]any{})
	}
}

func (e *scriptedEditor) count(typ string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c == typ {
			n++
		}
	}
	return n
}

func newTestServer(t *testing.T, ed *scriptedEditor) *Server {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	reg := names.NewRegistry(quiet)
	level := actors.NewService(ed, reg, quiet)
	bps := blueprints.NewService(ed, quiet)
	lib := blueprints.NewLibrary(bps, quiet)
	fg := forge.New(level, nil, quiet)
	s, err := NewServer(Config{
		Level:      level,
		Blueprints: bps,
		Library:    lib,
		Forge:      fg,
		Registry:   reg,
		Logger:     quiet,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func rpcPost(t *testing.T, base string, payload any) rpcResponse {
	t.Helper()
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", base+"/mcp", bytes.NewReader(b))
	req.Header.Set("content-type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()
	var out rpcResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func callTool(t *testing.T, base, name string, args any) rpcResponse {
	t.Helper()
	return rpcPost(t, base, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "call_tool",
		"params":  map[string]any{"name": name, "arguments": args},
	})
}

func TestMCP_Initialize_And_ListTools(t *testing.T) {
	s := newTestServer(t, &scriptedEditor{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	initResp := rpcPost(t, ts.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
	})
	if initResp.Error != nil {
		t.Fatalf("initialize error: %+v", initResp.Error)
	}
	rm, _ := initResp.Result.(map[string]any)
	if rm["protocolVersion"] == "" {
		t.Fatalf("missing protocolVersion in result")
	}

	lt := rpcPost(t, ts.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "list_tools",
	})
	if lt.Error != nil {
		t.Fatalf("list_tools error: %+v", lt.Error)
	}
	rm2, ok := lt.Result.(map[string]any)
	if !ok {
		t.Fatalf("unexpected list_tools result type: %T", lt.Result)
	}
	tools, ok := rm2["tools"].([]any)
	if !ok {
		t.Fatalf("missing tools array")
	}
	if len(tools) != 30 {
		t.Fatalf("expected 30 tools, got %d", len(tools))
	}
	seen := map[string]bool{}
	for _, raw := range tools {
		m, _ := raw.(map[string]any)
		name, _ := m["name"].(string)
		if name == "" {
			t.Fatalf("tool without a name: %v", raw)
		}
		if m["inputSchema"] == nil {
			t.Fatalf("tool %s has no inputSchema", name)
		}
		seen[name] = true
	}
	for _, want := range []string{"spawn_actor", "create_castle_fortress", "create_aqueduct", "clear_name_cache"} {
		if !seen[want] {
			t.Fatalf("tool %s not advertised", want)
		}
	}
}

func TestMCP_MethodAliases(t *testing.T) {
	s := newTestServer(t, &scriptedEditor{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	lt := rpcPost(t, ts.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/list",
	})
	if lt.Error != nil {
		t.Fatalf("tools/list error: %+v", lt.Error)
	}

	resp := rpcPost(t, ts.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "get_actors_in_level",
			"arguments": map[string]any{},
		},
	})
	if resp.Error != nil {
		t.Fatalf("tools/call error: %+v", resp.Error)
	}
}

func TestMCP_CallTool_Unknown(t *testing.T) {
	s := newTestServer(t, &scriptedEditor{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := callTool(t, ts.URL, "nope", map[string]any{})
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected tool not found (-32601), got %+v", resp.Error)
	}
}

func TestMCP_CallTool_SchemaRejectsBadArgs(t *testing.T) {
	s := newTestServer(t, &scriptedEditor{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	cases := []struct {
		tool string
		args map[string]any
	}{
		{"create_wall", map[string]any{"length": "five"}},
		{"create_wall", map[string]any{"hieght": 3}},
		{"create_tower", map[string]any{"tower_style": "round"}},
		{"spawn_actor", map[string]any{}},
		{"set_actor_transform", map[string]any{"name": "X", "location": []float64{1, 2}}},
	}
	for _, tc := range cases {
		resp := callTool(t, ts.URL, tc.tool, tc.args)
		if resp.Error == nil || resp.Error.Code != -32602 {
			t.Fatalf("%s with %v: expected -32602, got %+v", tc.tool, tc.args, resp.Error)
		}
	}
}

func TestMCP_SpawnActor(t *testing.T) {
	ed := &scriptedEditor{}
	s := newTestServer(t, ed)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := callTool(t, ts.URL, "spawn_actor", map[string]any{
		"name":     "Cube1",
		"location": []float64{0, 0, 100},
	})
	if resp.Error != nil {
		t.Fatalf("spawn_actor error: %+v", resp.Error)
	}
	rm, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("unexpected result type: %T", resp.Result)
	}
	if rm["status"] != protocol.StatusSuccess {
		t.Fatalf("expected success status, got %v", rm["status"])
	}
	result, _ := rm["result"].(map[string]any)
	if result["final_name"] != "Cube1" {
		t.Fatalf("expected final_name Cube1, got %v", result["final_name"])
	}
	if ed.count(protocol.CmdSpawnActor) != 1 {
		t.Fatalf("expected 1 spawn command, got %d", ed.count(protocol.CmdSpawnActor))
	}
}

func TestMCP_BuildToolDefaults(t *testing.T) {
	ed := &scriptedEditor{}
	s := newTestServer(t, ed)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := callTool(t, ts.URL, "create_wall", map[string]any{})
	if resp.Error != nil {
		t.Fatalf("create_wall error: %+v", resp.Error)
	}
	rm, _ := resp.Result.(map[string]any)
	if rm["build"] != "wall" {
		t.Fatalf("expected build wall, got %v", rm["build"])
	}
	if rm["requested"] != float64(10) || rm["spawned"] != float64(10) {
		t.Fatalf("expected 10 requested and spawned, got %v / %v", rm["requested"], rm["spawned"])
	}
	if ed.count(protocol.CmdSpawnActor) != 10 {
		t.Fatalf("expected 10 spawn commands, got %d", ed.count(protocol.CmdSpawnActor))
	}
}

func TestMCP_DryRunSkipsEditor(t *testing.T) {
	ed := &scriptedEditor{}
	s := newTestServer(t, ed)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := callTool(t, ts.URL, "create_aqueduct", map[string]any{"dry_run": true})
	if resp.Error != nil {
		t.Fatalf("create_aqueduct error: %+v", resp.Error)
	}
	rm, _ := resp.Result.(map[string]any)
	if rm["dry_run"] != true {
		t.Fatalf("expected dry_run true, got %v", rm["dry_run"])
	}
	if rm["spawned"] != float64(0) {
		t.Fatalf("expected 0 spawned, got %v", rm["spawned"])
	}
	req, _ := rm["requested"].(float64)
	if req <= 0 {
		t.Fatalf("expected positive requested count, got %v", rm["requested"])
	}
	if len(ed.calls) != 0 {
		t.Fatalf("dry run issued %d editor commands", len(ed.calls))
	}
}

func TestMCP_ClearNameCache(t *testing.T) {
	ed := &scriptedEditor{}
	s := newTestServer(t, ed)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	if resp := callTool(t, ts.URL, "spawn_actor", map[string]any{"name": "Keep1"}); resp.Error != nil {
		t.Fatalf("spawn_actor error: %+v", resp.Error)
	}

	resp := callTool(t, ts.URL, "clear_name_cache", map[string]any{})
	if resp.Error != nil {
		t.Fatalf("clear_name_cache error: %+v", resp.Error)
	}
	rm, _ := resp.Result.(map[string]any)
	result, _ := rm["result"].(map[string]any)
	if result["cleared"] != float64(1) {
		t.Fatalf("expected 1 cleared name, got %v", result["cleared"])
	}
	if result["session"] == "" {
		t.Fatalf("missing session token")
	}
}

func TestMCP_HTTPSurface(t *testing.T) {
	s := newTestServer(t, &scriptedEditor{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != 200 || string(body) != "ok" {
		t.Fatalf("healthz: status %d body %q", res.StatusCode, body)
	}

	res, err = http.Get(ts.URL + "/mcp")
	if err != nil {
		t.Fatalf("get /mcp: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /mcp, got %d", res.StatusCode)
	}

	req, _ := http.NewRequest("POST", ts.URL+"/mcp", bytes.NewReader([]byte("{not json")))
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("bad body post: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad jsonrpc, got %d", res.StatusCode)
	}
}
