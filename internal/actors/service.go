// Package actors exposes the level-actor operations of the editor: listing,
// lookup, transform and material changes, and the safe spawn/delete workflow
// that keeps the name registry honest and converges creation races.
package actors

import (
	"context"
	"fmt"
	"log"
	"os"

	"unrealforge.ai/internal/names"
	"unrealforge.ai/internal/protocol"
)

// Commander issues one editor command and returns the normalized response.
// *editor.Client satisfies it.
type Commander interface {
	Send(ctx context.Context, typ string, params map[string]any) protocol.Response
}

type Service struct {
	cmd Commander
	reg *names.Registry
	log *log.Logger
}

func NewService(cmd Commander, reg *names.Registry, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stdout, "[actors] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Service{cmd: cmd, reg: reg, log: logger}
}

// Registry exposes the backing name registry (cache tools, diagnostics).
func (s *Service) Registry() *names.Registry { return s.reg }

// List returns every actor in the current level.
func (s *Service) List(ctx context.Context) protocol.Response {
	return s.cmd.Send(ctx, protocol.CmdGetActorsInLevel, nil)
}

// FindByName returns actors whose name matches pattern (editor substring
// semantics).
func (s *Service) FindByName(ctx context.Context, pattern string) protocol.Response {
	return s.cmd.Send(ctx, protocol.CmdFindActorsByName, map[string]any{"pattern": pattern})
}

// LookupNames implements names.Prober on top of FindByName. Unlike the other
// operations it surfaces editor failures as errors, so existence checks can
// tell "confirmed absent" from "probe unavailable".
func (s *Service) LookupNames(ctx context.Context, pattern string) ([]string, error) {
	resp := s.FindByName(ctx, pattern)
	if resp.IsError() {
		return nil, fmt.Errorf("find_actors_by_name: %s", resp.ErrorMessage())
	}
	return actorNames(resp), nil
}

// actorNames extracts names from a find/list response. Entries are either
// plain strings or actor objects with a "name" field.
func actorNames(resp protocol.Response) []string {
	result := resp.Result()
	if result == nil {
		result = resp
	}
	raw, _ := result["actors"].([]any)
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		switch v := entry.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if name, _ := v["name"].(string); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// SpawnRequest carries the spawn_actor parameters. The zero value of
// NoAutoName keeps automatic unique-name resolution on.
type SpawnRequest struct {
	Name       string
	Type       string
	Location   []float64
	Rotation   []float64
	Scale      []float64
	StaticMesh string
	NoAutoName bool
}

// Spawn creates an actor, arbitrating its name first and converging an
// already-exists conflict into a success. The returned result carries both
// the resolved final_name and the caller's original_name.
func (s *Service) Spawn(ctx context.Context, req SpawnRequest) protocol.Response {
	final := req.Name
	if !req.NoAutoName {
		final = s.reg.Resolve(ctx, req.Name, s)
	}

	params := map[string]any{"name": final, "type": req.Type}
	if req.Location != nil {
		params["location"] = req.Location
	}
	if req.Rotation != nil {
		params["rotation"] = req.Rotation
	}
	if req.Scale != nil {
		params["scale"] = req.Scale
	}
	if req.StaticMesh != "" {
		params["static_mesh"] = req.StaticMesh
	}

	resp := s.cmd.Send(ctx, protocol.CmdSpawnActor, params)
	return s.converge(resp, final, req.Name)
}

// SpawnFromBlueprint places an instance of a compiled blueprint, with the
// same name arbitration and convergence as Spawn.
func (s *Service) SpawnFromBlueprint(ctx context.Context, blueprintName, actorName string, location, rotation []float64) protocol.Response {
	final := s.reg.Resolve(ctx, actorName, s)

	params := map[string]any{"blueprint_name": blueprintName, "actor_name": final}
	if location != nil {
		params["location"] = location
	}
	if rotation != nil {
		params["rotation"] = rotation
	}

	resp := s.cmd.Send(ctx, protocol.CmdSpawnBlueprintActor, params)
	return s.converge(resp, final, actorName)
}

// converge applies the creation outcome to the registry. An already-exists
// failure means some other caller (or a retry) won the race for a name with
// the same intent, so it is reported as success rather than error.
func (s *Service) converge(resp protocol.Response, final, requested string) protocol.Response {
	if !resp.IsError() {
		s.reg.MarkCreated(final)
		result, _ := resp["result"].(map[string]any)
		if result == nil {
			result = map[string]any{}
			resp["result"] = result
		}
		result["final_name"] = final
		result["original_name"] = requested
		return resp
	}
	if protocol.IsAlreadyExists(resp) {
		s.log.Printf("actor %q already present, converging", final)
		s.reg.MarkCreated(final)
		return protocol.Response{
			"status": protocol.StatusSuccess,
			"result": map[string]any{
				"name":          final,
				"final_name":    final,
				"original_name": requested,
				"concurrent":    true,
				"reason":        "Created by concurrent process",
			},
		}
	}
	return resp
}

// Delete removes an actor and forgets its name on success.
func (s *Service) Delete(ctx context.Context, name string) protocol.Response {
	resp := s.cmd.Send(ctx, protocol.CmdDeleteActor, map[string]any{"name": name})
	if !resp.IsError() {
		s.reg.MarkDeleted(name)
	}
	return resp
}

// TransformRequest updates an actor's transform; nil slices leave that part
// of the transform untouched.
type TransformRequest struct {
	Name     string
	Location []float64
	Rotation []float64
	Scale    []float64
}

func (s *Service) SetTransform(ctx context.Context, req TransformRequest) protocol.Response {
	params := map[string]any{"name": req.Name}
	if req.Location != nil {
		params["location"] = req.Location
	}
	if req.Rotation != nil {
		params["rotation"] = req.Rotation
	}
	if req.Scale != nil {
		params["scale"] = req.Scale
	}
	return s.cmd.Send(ctx, protocol.CmdSetActorTransform, params)
}

// AvailableMaterials lists material assets under searchPath.
func (s *Service) AvailableMaterials(ctx context.Context, searchPath string, includeEngine bool) protocol.Response {
	if searchPath == "" {
		searchPath = "/Game/"
	}
	return s.cmd.Send(ctx, protocol.CmdGetAvailableMaterials, map[string]any{
		"search_path":              searchPath,
		"include_engine_materials": includeEngine,
	})
}

// ApplyMaterial sets a material on one slot of a level actor.
func (s *Service) ApplyMaterial(ctx context.Context, actorName, materialPath string, slot int) protocol.Response {
	return s.cmd.Send(ctx, protocol.CmdApplyMaterialToActor, map[string]any{
		"actor_name":    actorName,
		"material_path": materialPath,
		"material_slot": slot,
	})
}

// MaterialInfo reports the materials currently applied to an actor.
func (s *Service) MaterialInfo(ctx context.Context, actorName string) protocol.Response {
	return s.cmd.Send(ctx, protocol.CmdGetActorMaterialInfo, map[string]any{"actor_name": actorName})
}
