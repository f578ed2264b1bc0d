// Package mcp serves the tool surface over JSON-RPC 2.0: every editor
// operation and construction routine as a named tool with a JSON schema,
// callable by any MCP host through HTTP POST /mcp.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"unrealforge.ai/internal/actors"
	"unrealforge.ai/internal/blueprints"
	"unrealforge.ai/internal/forge"
	"unrealforge.ai/internal/names"
)

const protocolVersion = "2024-11-05"

// maxBodyBytes bounds one request body.
const maxBodyBytes = 4 << 20

// tool pairs a descriptor that list_tools advertises with the handler
// call_tool dispatches to. Arguments are validated against the compiled
// schema before the handler runs.
type tool struct {
	name        string
	description string
	schema      map[string]any
	compiled    *jsonschema.Schema
	handler     func(ctx context.Context, args json.RawMessage) (any, error)
}

// Config wires the services the tools operate on. Level, Blueprints and
// Forge are required; Library and Registry enable the colored-blueprint
// cache and the name-cache tool.
type Config struct {
	Level      *actors.Service
	Blueprints *blueprints.Service
	Library    *blueprints.Library
	Forge      *forge.Forge
	Registry   *names.Registry
	Logger     *log.Logger
}

type Server struct {
	tools  []*tool
	byName map[string]*tool
	log    *log.Logger
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Level == nil {
		return nil, fmt.Errorf("nil level service")
	}
	if cfg.Blueprints == nil {
		return nil, fmt.Errorf("nil blueprint service")
	}
	if cfg.Forge == nil {
		return nil, fmt.Errorf("nil forge")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[mcp] ", log.LstdFlags|log.Lmicroseconds)
	}

	s := &Server{
		tools:  buildTools(cfg),
		byName: map[string]*tool{},
		log:    logger,
	}
	for _, t := range s.tools {
		if _, dup := s.byName[t.name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.name)
		}
		compiled, err := compileSchema(t.name, t.schema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.name, err)
		}
		t.compiled = compiled
		s.byName[t.name] = t
	}
	return s, nil
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	url := name + ".schema.json"
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return c.Compile(url)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/mcp", s.handleMCP)
	return mux
}

func (s *Server) handleMCP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		_, _ = rw.Write([]byte("bad body"))
		return
	}
	_ = r.Body.Close()

	req, err := parseRPCRequest(body)
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		_, _ = rw.Write([]byte("bad jsonrpc request"))
		return
	}

	resp := s.dispatch(r.Context(), req)
	rw.Header().Set("content-type", "application/json")
	enc := json.NewEncoder(rw)
	_ = enc.Encode(resp)
}

func (s *Server) dispatch(ctx context.Context, req rpcRequest) rpcResponse {
	switch req.Method {
	case "initialize":
		return rpcOK(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
			"serverInfo": map[string]any{"name": "unrealforge"},
		})

	case "list_tools", "tools/list":
		return rpcOK(req.ID, map[string]any{"tools": s.toolsList()})

	case "call_tool", "tools/call":
		return s.callTool(ctx, req)

	default:
		return rpcErr(req.ID, -32601, "method not found", nil)
	}
}

func (s *Server) toolsList() []map[string]any {
	out := make([]map[string]any, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, map[string]any{
			"name":        t.name,
			"description": t.description,
			"inputSchema": t.schema,
		})
	}
	return out
}

func (s *Server) callTool(ctx context.Context, req rpcRequest) rpcResponse {
	var p struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(req.Params) == 0 {
		return rpcErr(req.ID, -32602, "missing params", nil)
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return rpcErr(req.ID, -32602, "bad params", err.Error())
	}
	if p.Name == "" {
		return rpcErr(req.ID, -32602, "missing tool name", nil)
	}
	t, ok := s.byName[p.Name]
	if !ok {
		return rpcErr(req.ID, -32601, "tool not found", map[string]any{"name": p.Name})
	}

	args := p.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	var doc any
	if err := json.Unmarshal(args, &doc); err != nil {
		return rpcErr(req.ID, -32602, "arguments are not valid JSON", err.Error())
	}
	if err := t.compiled.Validate(doc); err != nil {
		return rpcErr(req.ID, -32602, "invalid arguments", err.Error())
	}

	out, err := t.handler(ctx, args)
	if err != nil {
		s.log.Printf("tool %s failed: %v", p.Name, err)
		return rpcErr(req.ID, -32000, err.Error(), nil)
	}
	return rpcOK(req.ID, out)
}
