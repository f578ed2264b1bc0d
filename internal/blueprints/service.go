// Package blueprints drives the editor's blueprint authoring commands: class
// creation, component and physics setup, compilation, and material work. It
// also hosts the reusable colored-blueprint library and the composite
// physics-actor workflow built from those commands.
package blueprints

import (
	"context"
	"fmt"
	"log"
	"os"

	"unrealforge.ai/internal/protocol"
)

// DefaultMesh is the engine's basic cube, used wherever a mesh path is left
// unset.
const DefaultMesh = "/Engine/BasicShapes/Cube.Cube"

// Commander issues one editor command and returns the normalized response.
type Commander interface {
	Send(ctx context.Context, typ string, params map[string]any) protocol.Response
}

type Service struct {
	cmd Commander
	log *log.Logger
}

func NewService(cmd Commander, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stdout, "[blueprints] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Service{cmd: cmd, log: logger}
}

// Create makes a new blueprint class. The response is passed through as-is;
// use EnsureCreated when an already-existing class should count as done.
func (s *Service) Create(ctx context.Context, name, parentClass string) protocol.Response {
	if parentClass == "" {
		parentClass = "Actor"
	}
	return s.cmd.Send(ctx, protocol.CmdCreateBlueprint, map[string]any{
		"name":         name,
		"parent_class": parentClass,
	})
}

// EnsureCreated creates a blueprint, treating "already exists" as reuse
// rather than failure. The bool reports whether the class is newly created;
// reuse and genuine errors both return false, distinguished by the response
// status.
func (s *Service) EnsureCreated(ctx context.Context, name, parentClass string) (bool, protocol.Response) {
	resp := s.Create(ctx, name, parentClass)
	if !resp.IsError() {
		return true, resp
	}
	if protocol.IsAlreadyExists(resp) {
		s.log.Printf("blueprint %q already exists, reusing", name)
		return false, protocol.SuccessResponse(map[string]any{"name": name, "reused": true})
	}
	return false, resp
}

// AddComponentRequest mirrors add_component_to_blueprint. The editor expects
// every key present, so unset slices and maps are sent empty.
type AddComponentRequest struct {
	BlueprintName string
	ComponentType string
	ComponentName string
	Location      []float64
	Rotation      []float64
	Scale         []float64
	Properties    map[string]any
}

func (s *Service) AddComponent(ctx context.Context, req AddComponentRequest) protocol.Response {
	props := req.Properties
	if props == nil {
		props = map[string]any{}
	}
	return s.cmd.Send(ctx, protocol.CmdAddComponentToBlueprint, map[string]any{
		"blueprint_name":       req.BlueprintName,
		"component_type":       req.ComponentType,
		"component_name":       req.ComponentName,
		"location":             emptyIfNil(req.Location),
		"rotation":             emptyIfNil(req.Rotation),
		"scale":                emptyIfNil(req.Scale),
		"component_properties": props,
	})
}

func emptyIfNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

// SetStaticMesh points a StaticMeshComponent at a mesh asset.
func (s *Service) SetStaticMesh(ctx context.Context, blueprintName, componentName, meshPath string) protocol.Response {
	if meshPath == "" {
		meshPath = DefaultMesh
	}
	return s.cmd.Send(ctx, protocol.CmdSetStaticMeshProperties, map[string]any{
		"blueprint_name": blueprintName,
		"component_name": componentName,
		"static_mesh":    meshPath,
	})
}

// PhysicsRequest mirrors set_physics_properties.
type PhysicsRequest struct {
	BlueprintName   string  `json:"blueprint_name"`
	ComponentName   string  `json:"component_name"`
	SimulatePhysics bool    `json:"simulate_physics"`
	GravityEnabled  bool    `json:"gravity_enabled"`
	Mass            float64 `json:"mass"`
	LinearDamping   float64 `json:"linear_damping"`
	AngularDamping  float64 `json:"angular_damping"`
}

// DefaultPhysics returns the editor-side defaults: simulated, gravity on,
// 1kg, light linear damping.
func DefaultPhysics(blueprintName, componentName string) PhysicsRequest {
	return PhysicsRequest{
		BlueprintName:   blueprintName,
		ComponentName:   componentName,
		SimulatePhysics: true,
		GravityEnabled:  true,
		Mass:            1,
		LinearDamping:   0.01,
	}
}

func (s *Service) SetPhysics(ctx context.Context, req PhysicsRequest) protocol.Response {
	return s.cmd.Send(ctx, protocol.CmdSetPhysicsProperties, map[string]any{
		"blueprint_name":   req.BlueprintName,
		"component_name":   req.ComponentName,
		"simulate_physics": req.SimulatePhysics,
		"gravity_enabled":  req.GravityEnabled,
		"mass":             req.Mass,
		"linear_damping":   req.LinearDamping,
		"angular_damping":  req.AngularDamping,
	})
}

// SetProperty sets one property on the blueprint's default object.
func (s *Service) SetProperty(ctx context.Context, blueprintName, propertyName string, value any) protocol.Response {
	return s.cmd.Send(ctx, protocol.CmdSetBlueprintProperty, map[string]any{
		"blueprint_name": blueprintName,
		"property_name":  propertyName,
		"property_value": value,
	})
}

// Compile compiles the blueprint so prior edits take effect.
func (s *Service) Compile(ctx context.Context, blueprintName string) protocol.Response {
	return s.cmd.Send(ctx, protocol.CmdCompileBlueprint, map[string]any{"blueprint_name": blueprintName})
}

// ApplyMaterial sets a material asset on one slot of a blueprint component.
func (s *Service) ApplyMaterial(ctx context.Context, blueprintName, componentName, materialPath string, slot int) protocol.Response {
	return s.cmd.Send(ctx, protocol.CmdApplyMaterialToBlueprint, map[string]any{
		"blueprint_name": blueprintName,
		"component_name": componentName,
		"material_path":  materialPath,
		"material_slot":  slot,
	})
}

// MaterialInfo reports the material slots of a blueprint component.
func (s *Service) MaterialInfo(ctx context.Context, blueprintName, componentName string) protocol.Response {
	return s.cmd.Send(ctx, protocol.CmdGetBlueprintMaterialInfo, map[string]any{
		"blueprint_name": blueprintName,
		"component_name": componentName,
	})
}

// MaterialSlots extracts the slot numbers from a MaterialInfo response.
// Entries are either {"slot": n, ...} objects or plain numbers; malformed
// entries fall back to their position.
func (s *Service) MaterialSlots(ctx context.Context, blueprintName, componentName string) ([]int, error) {
	resp := s.MaterialInfo(ctx, blueprintName, componentName)
	if resp.IsError() {
		return nil, fmt.Errorf("get_blueprint_material_info: %s", resp.ErrorMessage())
	}
	result := resp.Result()
	if result == nil {
		result = resp
	}
	raw, _ := result["material_slots"].([]any)
	slots := make([]int, 0, len(raw))
	for i, entry := range raw {
		switch v := entry.(type) {
		case map[string]any:
			if n, ok := v["slot"].(float64); ok {
				slots = append(slots, int(n))
			} else {
				slots = append(slots, i)
			}
		case float64:
			slots = append(slots, int(v))
		default:
			slots = append(slots, i)
		}
	}
	return slots, nil
}

// ColorRequest mirrors set_mesh_material_color. MaterialPath defaults to the
// engine's basic shape material.
type ColorRequest struct {
	BlueprintName string
	ComponentName string
	Color         []float64
	MaterialPath  string
	MaterialSlot  int
}

// SetMaterialColor writes the color into both the BaseColor and Color
// material parameters; engine materials disagree on which one they expose,
// so the operation succeeds when either write lands.
func (s *Service) SetMaterialColor(ctx context.Context, req ColorRequest) protocol.Response {
	color, err := NormalizeColor(req.Color)
	if err != nil {
		return protocol.ErrorResponse(err.Error())
	}
	path := req.MaterialPath
	if path == "" {
		path = "/Engine/BasicShapes/BasicShapeMaterial"
	}

	send := func(parameter string) protocol.Response {
		return s.cmd.Send(ctx, protocol.CmdSetMeshMaterialColor, map[string]any{
			"blueprint_name": req.BlueprintName,
			"component_name": req.ComponentName,
			"color":          color,
			"material_path":  path,
			"parameter_name": parameter,
			"material_slot":  req.MaterialSlot,
		})
	}
	baseResp := send("BaseColor")
	colorResp := send("Color")

	if baseResp.IsError() && colorResp.IsError() {
		resp := protocol.ErrorResponse(fmt.Sprintf("failed to set color parameters on slot %d", req.MaterialSlot))
		resp["base_color_result"] = baseResp
		resp["color_result"] = colorResp
		return resp
	}
	return protocol.Response{
		"status":            protocol.StatusSuccess,
		"message":           fmt.Sprintf("color applied to slot %d: %v", req.MaterialSlot, color),
		"material_slot":     req.MaterialSlot,
		"base_color_result": baseResp,
		"color_result":      colorResp,
	}
}

// NormalizeColor validates an RGB or RGBA color, fills a missing alpha with
// 1.0, and clamps every channel into [0,1].
func NormalizeColor(c []float64) ([]float64, error) {
	if len(c) != 3 && len(c) != 4 {
		return nil, fmt.Errorf("color must have 3 or 4 components, got %d", len(c))
	}
	out := make([]float64, 4)
	copy(out, c)
	if len(c) == 3 {
		out[3] = 1
	}
	for i, v := range out {
		if v < 0 {
			out[i] = 0
		} else if v > 1 {
			out[i] = 1
		}
	}
	return out, nil
}
