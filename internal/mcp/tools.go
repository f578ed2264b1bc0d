package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"unrealforge.ai/internal/actors"
	"unrealforge.ai/internal/blueprints"
	"unrealforge.ai/internal/forge"
	"unrealforge.ai/internal/names"
	"unrealforge.ai/internal/protocol"
)

// Schema fragments. Every tool takes one JSON object; unknown keys are
// rejected so misspelled parameters fail loudly instead of silently falling
// back to defaults.

func objSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func strProp() map[string]any  { return map[string]any{"type": "string"} }
func intProp() map[string]any  { return map[string]any{"type": "integer"} }
func numProp() map[string]any  { return map[string]any{"type": "number"} }
func boolProp() map[string]any { return map[string]any{"type": "boolean"} }

func enumProp(vals ...string) map[string]any {
	return map[string]any{"type": "string", "enum": vals}
}

func vec3Prop() map[string]any {
	return map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "number"},
		"minItems": 3,
		"maxItems": 3,
	}
}

// colorProp is RGB or RGBA, components 0-1.
func colorProp() map[string]any {
	return map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "number"},
		"minItems": 3,
		"maxItems": 4,
	}
}

func decodeArgs(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("bad arguments: %w", err)
	}
	return nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func buildOut(res *forge.BuildResult, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return res.Map(), nil
}

func buildTools(cfg Config) []*tool {
	reg := cfg.Registry
	if reg == nil {
		reg = cfg.Level.Registry()
	}
	var out []*tool
	out = append(out, levelTools(cfg.Level)...)
	out = append(out, blueprintTools(cfg.Blueprints)...)
	out = append(out, materialTools(cfg.Level, cfg.Blueprints)...)
	out = append(out, physicsActorTool(cfg.Level, cfg.Blueprints))
	out = append(out, constructionTools(cfg.Forge)...)
	out = append(out, cacheTool(reg, cfg.Library))
	return out
}

func levelTools(level *actors.Service) []*tool {
	return []*tool{
		{
			name:        "get_actors_in_level",
			description: "List every actor in the current level.",
			schema:      objSchema(map[string]any{}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				return level.List(ctx), nil
			},
		},
		{
			name:        "find_actors_by_name",
			description: "Find actors whose name contains the pattern.",
			schema:      objSchema(map[string]any{"pattern": strProp()}, "pattern"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Pattern string `json:"pattern"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return level.FindByName(ctx, a.Pattern), nil
			},
		},
		{
			name:        "spawn_actor",
			description: "Spawn an actor, resolving name collisions to a unique name first.",
			schema: objSchema(map[string]any{
				"name":             strProp(),
				"type":             strProp(),
				"location":         vec3Prop(),
				"rotation":         vec3Prop(),
				"scale":            vec3Prop(),
				"static_mesh":      strProp(),
				"auto_unique_name": boolProp(),
			}, "name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Name           string    `json:"name"`
					Type           string    `json:"type"`
					Location       []float64 `json:"location"`
					Rotation       []float64 `json:"rotation"`
					Scale          []float64 `json:"scale"`
					StaticMesh     string    `json:"static_mesh"`
					AutoUniqueName *bool     `json:"auto_unique_name"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return level.Spawn(ctx, actors.SpawnRequest{
					Name:       a.Name,
					Type:       a.Type,
					Location:   a.Location,
					Rotation:   a.Rotation,
					Scale:      a.Scale,
					StaticMesh: a.StaticMesh,
					NoAutoName: !boolOr(a.AutoUniqueName, true),
				}), nil
			},
		},
		{
			name:        "spawn_blueprint_actor",
			description: "Spawn an actor from a compiled blueprint class.",
			schema: objSchema(map[string]any{
				"blueprint_name": strProp(),
				"actor_name":     strProp(),
				"location":       vec3Prop(),
				"rotation":       vec3Prop(),
			}, "blueprint_name", "actor_name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					BlueprintName string    `json:"blueprint_name"`
					ActorName     string    `json:"actor_name"`
					Location      []float64 `json:"location"`
					Rotation      []float64 `json:"rotation"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return level.SpawnFromBlueprint(ctx, a.BlueprintName, a.ActorName, a.Location, a.Rotation), nil
			},
		},
		{
			name:        "delete_actor",
			description: "Delete an actor by name.",
			schema:      objSchema(map[string]any{"name": strProp()}, "name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Name string `json:"name"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return level.Delete(ctx, a.Name), nil
			},
		},
		{
			name:        "set_actor_transform",
			description: "Set an actor's location, rotation and/or scale.",
			schema: objSchema(map[string]any{
				"name":     strProp(),
				"location": vec3Prop(),
				"rotation": vec3Prop(),
				"scale":    vec3Prop(),
			}, "name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Name     string    `json:"name"`
					Location []float64 `json:"location"`
					Rotation []float64 `json:"rotation"`
					Scale    []float64 `json:"scale"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return level.SetTransform(ctx, actors.TransformRequest{
					Name:     a.Name,
					Location: a.Location,
					Rotation: a.Rotation,
					Scale:    a.Scale,
				}), nil
			},
		},
	}
}

func blueprintTools(bps *blueprints.Service) []*tool {
	return []*tool{
		{
			name:        "create_blueprint",
			description: "Create a new blueprint class from a parent class.",
			schema: objSchema(map[string]any{
				"name":         strProp(),
				"parent_class": strProp(),
			}, "name", "parent_class"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Name        string `json:"name"`
					ParentClass string `json:"parent_class"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return bps.Create(ctx, a.Name, a.ParentClass), nil
			},
		},
		{
			name:        "add_component_to_blueprint",
			description: "Add a component to a blueprint class.",
			schema: objSchema(map[string]any{
				"blueprint_name":       strProp(),
				"component_type":       strProp(),
				"component_name":       strProp(),
				"location":             vec3Prop(),
				"rotation":             vec3Prop(),
				"scale":                vec3Prop(),
				"component_properties": map[string]any{"type": "object"},
			}, "blueprint_name", "component_type", "component_name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					BlueprintName string         `json:"blueprint_name"`
					ComponentType string         `json:"component_type"`
					ComponentName string         `json:"component_name"`
					Location      []float64      `json:"location"`
					Rotation      []float64      `json:"rotation"`
					Scale         []float64      `json:"scale"`
					Properties    map[string]any `json:"component_properties"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return bps.AddComponent(ctx, blueprints.AddComponentRequest{
					BlueprintName: a.BlueprintName,
					ComponentType: a.ComponentType,
					ComponentName: a.ComponentName,
					Location:      a.Location,
					Rotation:      a.Rotation,
					Scale:         a.Scale,
					Properties:    a.Properties,
				}), nil
			},
		},
		{
			name:        "set_static_mesh_properties",
			description: "Point a StaticMeshComponent at a mesh asset.",
			schema: objSchema(map[string]any{
				"blueprint_name": strProp(),
				"component_name": strProp(),
				"static_mesh":    strProp(),
			}, "blueprint_name", "component_name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					BlueprintName string `json:"blueprint_name"`
					ComponentName string `json:"component_name"`
					StaticMesh    string `json:"static_mesh"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return bps.SetStaticMesh(ctx, a.BlueprintName, a.ComponentName, a.StaticMesh), nil
			},
		},
		{
			name:        "set_physics_properties",
			description: "Configure physics simulation on a blueprint component.",
			schema: objSchema(map[string]any{
				"blueprint_name":   strProp(),
				"component_name":   strProp(),
				"simulate_physics": boolProp(),
				"gravity_enabled":  boolProp(),
				"mass":             numProp(),
				"linear_damping":   numProp(),
				"angular_damping":  numProp(),
			}, "blueprint_name", "component_name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					BlueprintName   string   `json:"blueprint_name"`
					ComponentName   string   `json:"component_name"`
					SimulatePhysics *bool    `json:"simulate_physics"`
					GravityEnabled  *bool    `json:"gravity_enabled"`
					Mass            *float64 `json:"mass"`
					LinearDamping   *float64 `json:"linear_damping"`
					AngularDamping  *float64 `json:"angular_damping"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				req := blueprints.DefaultPhysics(a.BlueprintName, a.ComponentName)
				req.SimulatePhysics = boolOr(a.SimulatePhysics, req.SimulatePhysics)
				req.GravityEnabled = boolOr(a.GravityEnabled, req.GravityEnabled)
				if a.Mass != nil {
					req.Mass = *a.Mass
				}
				if a.LinearDamping != nil {
					req.LinearDamping = *a.LinearDamping
				}
				if a.AngularDamping != nil {
					req.AngularDamping = *a.AngularDamping
				}
				return bps.SetPhysics(ctx, req), nil
			},
		},
		{
			name:        "compile_blueprint",
			description: "Compile a blueprint so its changes take effect.",
			schema:      objSchema(map[string]any{"blueprint_name": strProp()}, "blueprint_name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					BlueprintName string `json:"blueprint_name"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return bps.Compile(ctx, a.BlueprintName), nil
			},
		},
	}
}

func materialTools(level *actors.Service, bps *blueprints.Service) []*tool {
	return []*tool{
		{
			name:        "get_available_materials",
			description: "List material assets under a content path.",
			schema: objSchema(map[string]any{
				"search_path":              strProp(),
				"include_engine_materials": boolProp(),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					SearchPath    string `json:"search_path"`
					IncludeEngine *bool  `json:"include_engine_materials"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				if a.SearchPath == "" {
					a.SearchPath = "/Game/"
				}
				return level.AvailableMaterials(ctx, a.SearchPath, boolOr(a.IncludeEngine, true)), nil
			},
		},
		{
			name:        "apply_material_to_actor",
			description: "Apply a material asset to one of an actor's slots.",
			schema: objSchema(map[string]any{
				"actor_name":    strProp(),
				"material_path": strProp(),
				"material_slot": intProp(),
			}, "actor_name", "material_path"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					ActorName    string `json:"actor_name"`
					MaterialPath string `json:"material_path"`
					MaterialSlot int    `json:"material_slot"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return level.ApplyMaterial(ctx, a.ActorName, a.MaterialPath, a.MaterialSlot), nil
			},
		},
		{
			name:        "get_actor_material_info",
			description: "Report an actor's material slots and assignments.",
			schema:      objSchema(map[string]any{"actor_name": strProp()}, "actor_name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					ActorName string `json:"actor_name"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return level.MaterialInfo(ctx, a.ActorName), nil
			},
		},
		{
			name:        "apply_material_to_blueprint",
			description: "Apply a material asset to a blueprint component slot.",
			schema: objSchema(map[string]any{
				"blueprint_name": strProp(),
				"component_name": strProp(),
				"material_path":  strProp(),
				"material_slot":  intProp(),
			}, "blueprint_name", "component_name", "material_path"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					BlueprintName string `json:"blueprint_name"`
					ComponentName string `json:"component_name"`
					MaterialPath  string `json:"material_path"`
					MaterialSlot  int    `json:"material_slot"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return bps.ApplyMaterial(ctx, a.BlueprintName, a.ComponentName, a.MaterialPath, a.MaterialSlot), nil
			},
		},
		{
			name:        "get_blueprint_material_info",
			description: "Report a blueprint component's material slots.",
			schema: objSchema(map[string]any{
				"blueprint_name": strProp(),
				"component_name": strProp(),
			}, "blueprint_name", "component_name"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					BlueprintName string `json:"blueprint_name"`
					ComponentName string `json:"component_name"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return bps.MaterialInfo(ctx, a.BlueprintName, a.ComponentName), nil
			},
		},
		{
			name:        "set_mesh_material_color",
			description: "Set a solid color on a blueprint component's material.",
			schema: objSchema(map[string]any{
				"blueprint_name": strProp(),
				"component_name": strProp(),
				"color":          colorProp(),
				"material_path":  strProp(),
				"material_slot":  intProp(),
			}, "blueprint_name", "component_name", "color"),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					BlueprintName string    `json:"blueprint_name"`
					ComponentName string    `json:"component_name"`
					Color         []float64 `json:"color"`
					MaterialPath  string    `json:"material_path"`
					MaterialSlot  int       `json:"material_slot"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return bps.SetMaterialColor(ctx, blueprints.ColorRequest{
					BlueprintName: a.BlueprintName,
					ComponentName: a.ComponentName,
					Color:         a.Color,
					MaterialPath:  a.MaterialPath,
					MaterialSlot:  a.MaterialSlot,
				}), nil
			},
		},
	}
}

func physicsActorTool(level *actors.Service, bps *blueprints.Service) *tool {
	return &tool{
		name:        "spawn_physics_blueprint_actor",
		description: "Stand up a physics-simulated mesh actor: blueprint, mesh, physics, colors or materials, compile, spawn.",
		schema: objSchema(map[string]any{
			"name":                 strProp(),
			"mesh_path":            strProp(),
			"location":             vec3Prop(),
			"mass":                 numProp(),
			"simulate_physics":     boolProp(),
			"gravity_enabled":      boolProp(),
			"colors":               map[string]any{"type": "array", "items": colorProp()},
			"color":                colorProp(),
			"scale":                vec3Prop(),
			"auto_apply_materials": boolProp(),
		}, "name"),
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var a struct {
				Name            string      `json:"name"`
				MeshPath        string      `json:"mesh_path"`
				Location        []float64   `json:"location"`
				Mass            *float64    `json:"mass"`
				SimulatePhysics *bool       `json:"simulate_physics"`
				GravityEnabled  *bool       `json:"gravity_enabled"`
				Colors          [][]float64 `json:"colors"`
				Color           []float64   `json:"color"`
				Scale           []float64   `json:"scale"`
				AutoMaterials   *bool       `json:"auto_apply_materials"`
			}
			if err := decodeArgs(raw, &a); err != nil {
				return nil, err
			}
			req := blueprints.DefaultPhysicsActorRequest(a.Name)
			if a.MeshPath != "" {
				req.MeshPath = a.MeshPath
			}
			if a.Location != nil {
				req.Location = a.Location
			}
			if a.Mass != nil {
				req.Mass = *a.Mass
			}
			req.SimulatePhysics = boolOr(a.SimulatePhysics, req.SimulatePhysics)
			req.GravityEnabled = boolOr(a.GravityEnabled, req.GravityEnabled)
			req.Colors = a.Colors
			if len(req.Colors) == 0 && len(a.Color) > 0 {
				// Legacy single-color form.
				req.Colors = [][]float64{a.Color}
			}
			if a.Scale != nil {
				req.Scale = a.Scale
			}
			req.AutoMaterials = boolOr(a.AutoMaterials, req.AutoMaterials)
			return bps.EnsurePhysicsActor(ctx, level, req), nil
		},
	}
}

func constructionTools(fg *forge.Forge) []*tool {
	return []*tool{
		{
			name:        "create_wall",
			description: "Build a straight wall of stacked blocks.",
			schema: objSchema(map[string]any{
				"length":      intProp(),
				"height":      intProp(),
				"block_size":  numProp(),
				"location":    vec3Prop(),
				"orientation": enumProp("x", "y"),
				"name_prefix": strProp(),
				"mesh":        strProp(),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Length      int       `json:"length"`
					Height      int       `json:"height"`
					BlockSize   float64   `json:"block_size"`
					Location    []float64 `json:"location"`
					Orientation string    `json:"orientation"`
					NamePrefix  string    `json:"name_prefix"`
					Mesh        string    `json:"mesh"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.Wall(ctx, forge.WallRequest{
					Length:      a.Length,
					Height:      a.Height,
					BlockSize:   a.BlockSize,
					Location:    a.Location,
					Orientation: a.Orientation,
					Prefix:      a.NamePrefix,
					Mesh:        a.Mesh,
				}))
			},
		},
		{
			name:        "create_pyramid",
			description: "Build a stepped pyramid of blocks.",
			schema: objSchema(map[string]any{
				"base_size":   intProp(),
				"block_size":  numProp(),
				"location":    vec3Prop(),
				"name_prefix": strProp(),
				"mesh":        strProp(),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					BaseSize   int       `json:"base_size"`
					BlockSize  float64   `json:"block_size"`
					Location   []float64 `json:"location"`
					NamePrefix string    `json:"name_prefix"`
					Mesh       string    `json:"mesh"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.Pyramid(ctx, forge.PyramidRequest{
					BaseSize:  a.BaseSize,
					BlockSize: a.BlockSize,
					Location:  a.Location,
					Prefix:    a.NamePrefix,
					Mesh:      a.Mesh,
				}))
			},
		},
		{
			name:        "create_staircase",
			description: "Build a straight staircase.",
			schema: objSchema(map[string]any{
				"steps":       intProp(),
				"step_size":   vec3Prop(),
				"location":    vec3Prop(),
				"name_prefix": strProp(),
				"mesh":        strProp(),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Steps      int       `json:"steps"`
					StepSize   []float64 `json:"step_size"`
					Location   []float64 `json:"location"`
					NamePrefix string    `json:"name_prefix"`
					Mesh       string    `json:"mesh"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.Staircase(ctx, forge.StaircaseRequest{
					Steps:    a.Steps,
					StepSize: a.StepSize,
					Location: a.Location,
					Prefix:   a.NamePrefix,
					Mesh:     a.Mesh,
				}))
			},
		},
		{
			name:        "create_arch",
			description: "Build a semicircular arch.",
			schema: objSchema(map[string]any{
				"radius":      numProp(),
				"segments":    intProp(),
				"location":    vec3Prop(),
				"name_prefix": strProp(),
				"mesh":        strProp(),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Radius     float64   `json:"radius"`
					Segments   int       `json:"segments"`
					Location   []float64 `json:"location"`
					NamePrefix string    `json:"name_prefix"`
					Mesh       string    `json:"mesh"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.Arch(ctx, forge.ArchRequest{
					Radius:   a.Radius,
					Segments: a.Segments,
					Location: a.Location,
					Prefix:   a.NamePrefix,
					Mesh:     a.Mesh,
				}))
			},
		},
		{
			name:        "create_tower",
			description: "Build a multi-level tower in a cylindrical, square or tapered style.",
			schema: objSchema(map[string]any{
				"height":      intProp(),
				"base_size":   intProp(),
				"block_size":  numProp(),
				"location":    vec3Prop(),
				"name_prefix": strProp(),
				"mesh":        strProp(),
				"tower_style": enumProp("cylindrical", "square", "tapered"),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Height     int       `json:"height"`
					BaseSize   int       `json:"base_size"`
					BlockSize  float64   `json:"block_size"`
					Location   []float64 `json:"location"`
					NamePrefix string    `json:"name_prefix"`
					Mesh       string    `json:"mesh"`
					TowerStyle string    `json:"tower_style"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.Tower(ctx, forge.TowerRequest{
					Height:    a.Height,
					BaseSize:  a.BaseSize,
					BlockSize: a.BlockSize,
					Location:  a.Location,
					Prefix:    a.NamePrefix,
					Mesh:      a.Mesh,
					Style:     a.TowerStyle,
				}))
			},
		},
		{
			name:        "create_maze",
			description: "Build a solvable maze with entrance and exit markers.",
			schema: objSchema(map[string]any{
				"rows":        intProp(),
				"cols":        intProp(),
				"cell_size":   numProp(),
				"wall_height": intProp(),
				"location":    vec3Prop(),
				"name_prefix": strProp(),
				"seed":        intProp(),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Rows       int       `json:"rows"`
					Cols       int       `json:"cols"`
					CellSize   float64   `json:"cell_size"`
					WallHeight int       `json:"wall_height"`
					Location   []float64 `json:"location"`
					NamePrefix string    `json:"name_prefix"`
					Seed       int64     `json:"seed"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.Maze(ctx, forge.MazeRequest{
					Rows:       a.Rows,
					Cols:       a.Cols,
					CellSize:   a.CellSize,
					WallHeight: a.WallHeight,
					Location:   a.Location,
					Prefix:     a.NamePrefix,
					Seed:       a.Seed,
				}))
			},
		},
		{
			name:        "construct_house",
			description: "Build a house with walls, door, windows and a styled roof.",
			schema: objSchema(map[string]any{
				"width":       numProp(),
				"depth":       numProp(),
				"height":      numProp(),
				"location":    vec3Prop(),
				"name_prefix": strProp(),
				"mesh":        strProp(),
				"house_style": enumProp("modern", "cottage"),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Width      float64   `json:"width"`
					Depth      float64   `json:"depth"`
					Height     float64   `json:"height"`
					Location   []float64 `json:"location"`
					NamePrefix string    `json:"name_prefix"`
					Mesh       string    `json:"mesh"`
					HouseStyle string    `json:"house_style"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.House(ctx, forge.HouseRequest{
					Width:    a.Width,
					Depth:    a.Depth,
					Height:   a.Height,
					Location: a.Location,
					Prefix:   a.NamePrefix,
					Mesh:     a.Mesh,
					Style:    a.HouseStyle,
				}))
			},
		},
		{
			name:        "create_castle_fortress",
			description: "Build a walled fortress with towers, gatehouse, keep and optional village, siege camp and moat.",
			schema: objSchema(map[string]any{
				"castle_size":           enumProp("small", "medium", "large", "epic"),
				"location":              vec3Prop(),
				"name_prefix":           strProp(),
				"include_siege_weapons": boolProp(),
				"include_village":       boolProp(),
				"include_moat":          boolProp(),
				"architectural_style":   enumProp("medieval", "fantasy", "gothic"),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					CastleSize   string    `json:"castle_size"`
					Location     []float64 `json:"location"`
					NamePrefix   string    `json:"name_prefix"`
					SiegeWeapons *bool     `json:"include_siege_weapons"`
					Village      *bool     `json:"include_village"`
					Moat         *bool     `json:"include_moat"`
					Style        string    `json:"architectural_style"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.Castle(ctx, forge.CastleRequest{
					Size:           a.CastleSize,
					Location:       a.Location,
					Prefix:         a.NamePrefix,
					Style:          a.Style,
					NoSiegeWeapons: !boolOr(a.SiegeWeapons, true),
					NoVillage:      !boolOr(a.Village, true),
					NoMoat:         !boolOr(a.Moat, true),
				}))
			},
		},
		{
			name:        "create_town",
			description: "Build a town: street grid, buildings by density and style, infrastructure.",
			schema: objSchema(map[string]any{
				"town_size":              enumProp("small", "medium", "large", "metropolis"),
				"building_density":       numProp(),
				"location":               vec3Prop(),
				"name_prefix":            strProp(),
				"include_infrastructure": boolProp(),
				"architectural_style":    enumProp("modern", "cottage", "mansion", "mixed", "downtown", "futuristic"),
				"seed":                   intProp(),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					TownSize       string    `json:"town_size"`
					Density        float64   `json:"building_density"`
					Location       []float64 `json:"location"`
					NamePrefix     string    `json:"name_prefix"`
					Infrastructure *bool     `json:"include_infrastructure"`
					Style          string    `json:"architectural_style"`
					Seed           int64     `json:"seed"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.Town(ctx, forge.TownRequest{
					Size:             a.TownSize,
					Density:          a.Density,
					Location:         a.Location,
					Prefix:           a.NamePrefix,
					Style:            a.Style,
					NoInfrastructure: !boolOr(a.Infrastructure, true),
					Seed:             a.Seed,
				}))
			},
		},
		{
			name:        "create_suspension_bridge",
			description: "Build a suspension bridge: twin towers, deck grid, parabolic cables, suspenders. dry_run reports metrics without spawning.",
			schema: objSchema(map[string]any{
				"span_length":     numProp(),
				"deck_width":      numProp(),
				"tower_height":    numProp(),
				"cable_sag_ratio": numProp(),
				"module_size":     numProp(),
				"location":        vec3Prop(),
				"orientation":     enumProp("x", "y"),
				"name_prefix":     strProp(),
				"deck_mesh":       strProp(),
				"tower_mesh":      strProp(),
				"cable_mesh":      strProp(),
				"suspender_mesh":  strProp(),
				"dry_run":         boolProp(),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					SpanLength    float64   `json:"span_length"`
					DeckWidth     float64   `json:"deck_width"`
					TowerHeight   float64   `json:"tower_height"`
					CableSagRatio float64   `json:"cable_sag_ratio"`
					ModuleSize    float64   `json:"module_size"`
					Location      []float64 `json:"location"`
					Orientation   string    `json:"orientation"`
					NamePrefix    string    `json:"name_prefix"`
					DeckMesh      string    `json:"deck_mesh"`
					TowerMesh     string    `json:"tower_mesh"`
					CableMesh     string    `json:"cable_mesh"`
					SuspenderMesh string    `json:"suspender_mesh"`
					DryRun        bool      `json:"dry_run"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.SuspensionBridge(ctx, forge.BridgeRequest{
					SpanLength:    a.SpanLength,
					DeckWidth:     a.DeckWidth,
					TowerHeight:   a.TowerHeight,
					CableSagRatio: a.CableSagRatio,
					ModuleSize:    a.ModuleSize,
					Location:      a.Location,
					Orientation:   a.Orientation,
					Prefix:        a.NamePrefix,
					DeckMesh:      a.DeckMesh,
					TowerMesh:     a.TowerMesh,
					CableMesh:     a.CableMesh,
					SuspenderMesh: a.SuspenderMesh,
					DryRun:        a.DryRun,
				}))
			},
		},
		{
			name:        "create_aqueduct",
			description: "Build a tiered Roman aqueduct: piers, arches, channel deck. dry_run reports metrics without spawning.",
			schema: objSchema(map[string]any{
				"arches":      intProp(),
				"arch_radius": numProp(),
				"pier_width":  numProp(),
				"tiers":       intProp(),
				"deck_width":  numProp(),
				"module_size": numProp(),
				"location":    vec3Prop(),
				"orientation": enumProp("x", "y"),
				"name_prefix": strProp(),
				"arch_mesh":   strProp(),
				"pier_mesh":   strProp(),
				"deck_mesh":   strProp(),
				"dry_run":     boolProp(),
			}),
			handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var a struct {
					Arches      int       `json:"arches"`
					ArchRadius  float64   `json:"arch_radius"`
					PierWidth   float64   `json:"pier_width"`
					Tiers       int       `json:"tiers"`
					DeckWidth   float64   `json:"deck_width"`
					ModuleSize  float64   `json:"module_size"`
					Location    []float64 `json:"location"`
					Orientation string    `json:"orientation"`
					NamePrefix  string    `json:"name_prefix"`
					ArchMesh    string    `json:"arch_mesh"`
					PierMesh    string    `json:"pier_mesh"`
					DeckMesh    string    `json:"deck_mesh"`
					DryRun      bool      `json:"dry_run"`
				}
				if err := decodeArgs(raw, &a); err != nil {
					return nil, err
				}
				return buildOut(fg.Aqueduct(ctx, forge.AqueductRequest{
					Arches:      a.Arches,
					ArchRadius:  a.ArchRadius,
					PierWidth:   a.PierWidth,
					Tiers:       a.Tiers,
					DeckWidth:   a.DeckWidth,
					ModuleSize:  a.ModuleSize,
					Location:    a.Location,
					Orientation: a.Orientation,
					Prefix:      a.NamePrefix,
					ArchMesh:    a.ArchMesh,
					PierMesh:    a.PierMesh,
					DeckMesh:    a.DeckMesh,
					DryRun:      a.DryRun,
				}))
			},
		},
	}
}

func cacheTool(reg *names.Registry, lib *blueprints.Library) *tool {
	return &tool{
		name:        "clear_name_cache",
		description: "Forget every known actor name and cached colored blueprint.",
		schema:      objSchema(map[string]any{}),
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			known := reg.KnownCount()
			reg.Clear()
			if lib != nil {
				lib.Clear()
			}
			return protocol.SuccessResponse(map[string]any{
				"cleared": known,
				"session": reg.Session(),
			}), nil
		},
	}
}
