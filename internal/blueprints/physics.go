package blueprints

import (
	"context"

	"unrealforge.ai/internal/actors"
	"unrealforge.ai/internal/protocol"
)

// PhysicsActorRequest describes one physics-simulated mesh actor to stand up
// from scratch: a dedicated blueprint, mesh and physics setup, per-slot
// coloring or materials, then a spawn. Build it with
// DefaultPhysicsActorRequest so the physics defaults survive partial input.
type PhysicsActorRequest struct {
	Name            string
	MeshPath        string
	Location        []float64
	Mass            float64
	SimulatePhysics bool
	GravityEnabled  bool
	// Colors are applied to material slots in order, cycling when there are
	// more slots than colors. When empty and AutoMaterials is set, project
	// materials are applied instead.
	Colors        [][]float64
	Scale         []float64
	AutoMaterials bool
}

func DefaultPhysicsActorRequest(name string) PhysicsActorRequest {
	return PhysicsActorRequest{
		Name:            name,
		MeshPath:        DefaultMesh,
		Location:        []float64{0, 0, 0},
		Mass:            1,
		SimulatePhysics: true,
		GravityEnabled:  true,
		Scale:           []float64{1, 1, 1},
		AutoMaterials:   true,
	}
}

type materialAsset struct {
	name string
	path string
}

// EnsurePhysicsActor runs the whole single-object workflow: ensure the
// <name>_BP blueprint, attach and configure its mesh, apply colors or
// materials across every slot, compile, spawn through the level service, and
// fix the spawned actor's scale. Setup steps degrade with a log line rather
// than aborting; only blueprint creation and the final spawn are fatal.
func (s *Service) EnsurePhysicsActor(ctx context.Context, level *actors.Service, req PhysicsActorRequest) protocol.Response {
	if req.Name == "" {
		return protocol.ErrorResponse("actor name is required")
	}
	if req.MeshPath == "" {
		req.MeshPath = DefaultMesh
	}
	if req.Scale == nil {
		req.Scale = []float64{1, 1, 1}
	}

	bpName := req.Name + "_BP"
	if _, resp := s.EnsureCreated(ctx, bpName, "Actor"); resp.IsError() {
		return resp
	}

	if resp := s.AddComponent(ctx, AddComponentRequest{
		BlueprintName: bpName,
		ComponentType: "StaticMeshComponent",
		ComponentName: "Mesh",
		Scale:         req.Scale,
	}); resp.IsError() {
		s.log.Printf("add component to %s failed: %s", bpName, resp.ErrorMessage())
	}
	if resp := s.SetStaticMesh(ctx, bpName, "Mesh", req.MeshPath); resp.IsError() {
		s.log.Printf("set mesh on %s failed: %s", bpName, resp.ErrorMessage())
	}

	phys := DefaultPhysics(bpName, "Mesh")
	phys.SimulatePhysics = req.SimulatePhysics
	phys.GravityEnabled = req.GravityEnabled
	phys.Mass = req.Mass
	if resp := s.SetPhysics(ctx, phys); resp.IsError() {
		s.log.Printf("set physics on %s failed: %s", bpName, resp.ErrorMessage())
	}

	// First compile makes the mesh stick before slots are inspected.
	if resp := s.Compile(ctx, bpName); resp.IsError() {
		s.log.Printf("compile %s failed: %s", bpName, resp.ErrorMessage())
	}

	var materials []materialAsset
	if req.AutoMaterials {
		materials = availableMaterials(level.AvailableMaterials(ctx, "", true))
	}

	slots, err := s.MaterialSlots(ctx, bpName, "Mesh")
	if err != nil {
		s.log.Printf("material slots for %s unavailable: %v", bpName, err)
	}

	colors := make([][]float64, 0, len(req.Colors))
	for i, c := range req.Colors {
		rgba, err := NormalizeColor(c)
		if err != nil {
			s.log.Printf("skipping color %d: %v", i, err)
			continue
		}
		colors = append(colors, rgba)
	}

	applied := make([]map[string]any, 0, len(slots))
	for i, slot := range slots {
		switch {
		case len(colors) > 0:
			color := colors[i%len(colors)]
			resp := s.SetMaterialColor(ctx, ColorRequest{
				BlueprintName: bpName,
				ComponentName: "Mesh",
				Color:         color,
				MaterialSlot:  slot,
			})
			entry := map[string]any{"slot": slot, "type": "color", "color": color, "success": !resp.IsError()}
			if resp.IsError() {
				entry["error"] = resp.ErrorMessage()
			}
			applied = append(applied, entry)
		case i < len(materials):
			m := materials[i]
			resp := s.ApplyMaterial(ctx, bpName, "Mesh", m.path, slot)
			entry := map[string]any{"slot": slot, "type": "material", "material_path": m.path, "material_name": m.name, "success": !resp.IsError()}
			if resp.IsError() {
				entry["error"] = resp.ErrorMessage()
			}
			applied = append(applied, entry)
		}
	}

	if resp := s.Compile(ctx, bpName); resp.IsError() {
		s.log.Printf("recompile %s failed: %s", bpName, resp.ErrorMessage())
	}

	result := level.SpawnFromBlueprint(ctx, bpName, req.Name, req.Location, nil)
	if result.IsError() {
		return result
	}

	spawned := req.Name
	if res := result.Result(); res != nil {
		if n, _ := res["name"].(string); n != "" {
			spawned = n
		} else if n, _ := res["final_name"].(string); n != "" {
			spawned = n
		}
	}
	if resp := level.SetTransform(ctx, actors.TransformRequest{Name: spawned, Scale: req.Scale}); resp.IsError() {
		s.log.Printf("rescale %s failed: %s", spawned, resp.ErrorMessage())
	}

	result["material_slots_applied"] = applied
	result["total_material_slots"] = len(slots)
	result["colors_provided"] = len(colors)
	result["materials_available"] = len(materials)
	return result
}

// availableMaterials parses a get_available_materials response into asset
// refs, tolerating both result-wrapped and top-level "materials" lists.
func availableMaterials(resp protocol.Response) []materialAsset {
	if resp.IsError() {
		return nil
	}
	result := resp.Result()
	if result == nil {
		result = resp
	}
	raw, _ := result["materials"].([]any)
	out := make([]materialAsset, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		path, _ := m["path"].(string)
		if path == "" {
			continue
		}
		name, _ := m["name"].(string)
		out = append(out, materialAsset{name: name, path: path})
	}
	return out
}
