// Package editorsim is an in-memory stand-in for the editor's command
// socket. It keeps actor and blueprint tables, answers with the same mixed
// document shapes the real editor produces (status documents for level
// commands, legacy success/message documents for blueprint commands), and
// backs integration tests and local development when no editor is running.
package editorsim

import (
	"fmt"
	"strings"
	"sync"

	"unrealforge.ai/internal/protocol"
)

// Actor is one placed level actor.
type Actor struct {
	Name      string
	Type      string
	Location  []float64
	Rotation  []float64
	Scale     []float64
	Mesh      string
	Materials map[int]string
}

type component struct {
	typ       string
	mesh      string
	physics   map[string]any
	materials map[int]string
	colors    map[int][]float64
}

type blueprint struct {
	parentClass string
	components  map[string]*component
	properties  map[string]any
	compiled    bool
}

// Sim holds the level state. All methods are safe for concurrent use; the
// TCP server dispatches each connection on its own goroutine.
type Sim struct {
	mu     sync.Mutex
	actors map[string]*Actor
	order  []string
	bps    map[string]*blueprint
}

func New() *Sim {
	return &Sim{
		actors: map[string]*Actor{},
		bps:    map[string]*blueprint{},
	}
}

// materialCatalog is the fixed asset list get_available_materials filters.
var materialCatalog = []struct {
	name string
	path string
}{
	{"BasicShapeMaterial", "/Engine/BasicShapes/BasicShapeMaterial"},
	{"WorldGridMaterial", "/Engine/EngineMaterials/WorldGridMaterial"},
	{"M_Brick", "/Game/Materials/M_Brick"},
	{"M_Stone", "/Game/Materials/M_Stone"},
	{"M_Glass", "/Game/Materials/M_Glass"},
}

// Handle answers one command envelope with a raw editor-shaped document.
// Documents are not normalized; that is the client's job.
func (s *Sim) Handle(cmd protocol.Command) map[string]any {
	if !protocol.IsKnownCommand(cmd.Type) {
		return errDoc("Unknown command: " + cmd.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := cmd.Params
	if p == nil {
		p = map[string]any{}
	}
	switch cmd.Type {
	case protocol.CmdGetActorsInLevel:
		return s.listActors("")
	case protocol.CmdFindActorsByName:
		return s.listActors(str(p, "pattern"))
	case protocol.CmdSpawnActor:
		return s.spawnActor(p)
	case protocol.CmdDeleteActor:
		return s.deleteActor(str(p, "name"))
	case protocol.CmdSetActorTransform:
		return s.setTransform(p)
	case protocol.CmdSpawnBlueprintActor:
		return s.spawnBlueprintActor(p)
	case protocol.CmdCreateBlueprint:
		return s.createBlueprint(p)
	case protocol.CmdAddComponentToBlueprint:
		return s.addComponent(p)
	case protocol.CmdSetStaticMeshProperties:
		return s.setStaticMesh(p)
	case protocol.CmdSetPhysicsProperties:
		return s.setPhysics(p)
	case protocol.CmdSetBlueprintProperty:
		return s.setBlueprintProperty(p)
	case protocol.CmdCompileBlueprint:
		return s.compileBlueprint(str(p, "blueprint_name"))
	case protocol.CmdGetAvailableMaterials:
		return s.availableMaterials(p)
	case protocol.CmdApplyMaterialToActor:
		return s.applyActorMaterial(p)
	case protocol.CmdGetActorMaterialInfo:
		return s.actorMaterialInfo(str(p, "actor_name"))
	case protocol.CmdApplyMaterialToBlueprint:
		return s.applyBlueprintMaterial(p)
	case protocol.CmdGetBlueprintMaterialInfo:
		return s.blueprintMaterialInfo(p)
	case protocol.CmdSetMeshMaterialColor:
		return s.setMaterialColor(p)
	}
	return errDoc("Unhandled command: " + cmd.Type)
}

// Level commands answer in the status shape.

func (s *Sim) listActors(pattern string) map[string]any {
	out := make([]any, 0, len(s.order))
	for _, name := range s.order {
		if pattern != "" && !strings.Contains(name, pattern) {
			continue
		}
		out = append(out, actorDoc(s.actors[name]))
	}
	doc := map[string]any{"actors": out}
	if pattern != "" {
		doc["pattern"] = pattern
	}
	return okDoc(doc)
}

func (s *Sim) spawnActor(p map[string]any) map[string]any {
	name := str(p, "name")
	if name == "" {
		return errDoc("Missing required parameter: name")
	}
	if _, dup := s.actors[name]; dup {
		return errDoc("Actor already exists: " + name)
	}
	a := &Actor{
		Name:      name,
		Type:      strOr(p, "type", "StaticMeshActor"),
		Location:  vec(p, "location"),
		Rotation:  vec(p, "rotation"),
		Scale:     vec(p, "scale"),
		Mesh:      str(p, "static_mesh"),
		Materials: map[int]string{},
	}
	s.actors[name] = a
	s.order = append(s.order, name)
	return okDoc(map[string]any{
		"name":          name,
		"final_name":    name,
		"original_name": name,
		"type":          a.Type,
		"location":      floats(a.Location),
	})
}

func (s *Sim) deleteActor(name string) map[string]any {
	if name == "" {
		return errDoc("Missing required parameter: name")
	}
	if _, ok := s.actors[name]; !ok {
		// Legacy failure shape, as the real delete handler answers.
		return map[string]any{"success": false, "message": "Actor not found: " + name}
	}
	delete(s.actors, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return okDoc(map[string]any{"name": name, "deleted": true})
}

func (s *Sim) setTransform(p map[string]any) map[string]any {
	name := str(p, "name")
	a, ok := s.actors[name]
	if !ok {
		return errDoc("Actor not found: " + name)
	}
	if v := vec(p, "location"); v != nil {
		a.Location = v
	}
	if v := vec(p, "rotation"); v != nil {
		a.Rotation = v
	}
	if v := vec(p, "scale"); v != nil {
		a.Scale = v
	}
	return okDoc(actorDoc(a))
}

func (s *Sim) spawnBlueprintActor(p map[string]any) map[string]any {
	bpName := str(p, "blueprint_name")
	if _, ok := s.bps[bpName]; !ok {
		return errDoc("Blueprint not found: " + bpName)
	}
	name := str(p, "actor_name")
	if name == "" {
		return errDoc("Missing required parameter: actor_name")
	}
	if _, dup := s.actors[name]; dup {
		return errDoc("Actor already exists: " + name)
	}
	a := &Actor{
		Name:      name,
		Type:      bpName,
		Location:  vec(p, "location"),
		Rotation:  vec(p, "rotation"),
		Materials: map[int]string{},
	}
	s.actors[name] = a
	s.order = append(s.order, name)
	return okDoc(map[string]any{
		"name":       name,
		"final_name": name,
		"blueprint":  bpName,
		"location":   floats(a.Location),
	})
}

// Blueprint commands answer in the legacy success/message shape.

func (s *Sim) createBlueprint(p map[string]any) map[string]any {
	name := str(p, "name")
	if name == "" {
		return map[string]any{"success": false, "message": "Missing required parameter: name"}
	}
	if _, dup := s.bps[name]; dup {
		return map[string]any{"success": false, "message": "Blueprint already exists: " + name}
	}
	s.bps[name] = &blueprint{
		parentClass: strOr(p, "parent_class", "Actor"),
		components:  map[string]*component{},
		properties:  map[string]any{},
	}
	return map[string]any{"success": true, "name": name, "parent_class": s.bps[name].parentClass}
}

func (s *Sim) addComponent(p map[string]any) map[string]any {
	bp, fail := s.blueprintOf(p)
	if fail != nil {
		return fail
	}
	compName := str(p, "component_name")
	if compName == "" {
		return map[string]any{"success": false, "message": "Missing required parameter: component_name"}
	}
	bp.components[compName] = &component{
		typ:       strOr(p, "component_type", "StaticMeshComponent"),
		physics:   map[string]any{},
		materials: map[int]string{},
		colors:    map[int][]float64{},
	}
	bp.compiled = false
	return map[string]any{"success": true, "component_name": compName}
}

func (s *Sim) setStaticMesh(p map[string]any) map[string]any {
	comp, fail := s.componentOf(p)
	if fail != nil {
		return fail
	}
	comp.mesh = str(p, "static_mesh")
	return map[string]any{"success": true, "static_mesh": comp.mesh}
}

func (s *Sim) setPhysics(p map[string]any) map[string]any {
	comp, fail := s.componentOf(p)
	if fail != nil {
		return fail
	}
	for _, k := range []string{"simulate_physics", "gravity_enabled", "mass", "linear_damping", "angular_damping"} {
		if v, ok := p[k]; ok {
			comp.physics[k] = v
		}
	}
	return map[string]any{"success": true}
}

func (s *Sim) setBlueprintProperty(p map[string]any) map[string]any {
	bp, fail := s.blueprintOf(p)
	if fail != nil {
		return fail
	}
	prop := str(p, "property_name")
	if prop == "" {
		return map[string]any{"success": false, "message": "Missing required parameter: property_name"}
	}
	bp.properties[prop] = p["property_value"]
	return map[string]any{"success": true, "property_name": prop}
}

func (s *Sim) compileBlueprint(name string) map[string]any {
	bp, ok := s.bps[name]
	if !ok {
		return map[string]any{"success": false, "message": "Blueprint not found: " + name}
	}
	bp.compiled = true
	return map[string]any{"success": true, "name": name, "compiled": true}
}

// Material commands.

func (s *Sim) availableMaterials(p map[string]any) map[string]any {
	searchPath := strOr(p, "search_path", "/Game/")
	includeEngine := true
	if v, ok := p["include_engine_materials"].(bool); ok {
		includeEngine = v
	}
	out := make([]any, 0, len(materialCatalog))
	for _, m := range materialCatalog {
		engine := strings.HasPrefix(m.path, "/Engine/")
		if engine && !includeEngine {
			continue
		}
		if !engine && !strings.HasPrefix(m.path, searchPath) {
			continue
		}
		out = append(out, map[string]any{"name": m.name, "path": m.path})
	}
	return okDoc(map[string]any{"materials": out, "search_path": searchPath})
}

func (s *Sim) applyActorMaterial(p map[string]any) map[string]any {
	name := str(p, "actor_name")
	a, ok := s.actors[name]
	if !ok {
		return errDoc("Actor not found: " + name)
	}
	path := str(p, "material_path")
	if path == "" {
		return errDoc("Missing required parameter: material_path")
	}
	slot := intOf(p, "material_slot")
	if slot < 0 {
		return errDoc(fmt.Sprintf("Invalid material slot: %d", slot))
	}
	a.Materials[slot] = path
	return okDoc(map[string]any{"actor": name, "material_path": path, "slot": float64(slot)})
}

func (s *Sim) actorMaterialInfo(name string) map[string]any {
	a, ok := s.actors[name]
	if !ok {
		return errDoc("Actor not found: " + name)
	}
	slots := 1
	for k := range a.Materials {
		if k+1 > slots {
			slots = k + 1
		}
	}
	list := make([]any, 0, slots)
	for i := 0; i < slots; i++ {
		entry := map[string]any{"slot": float64(i)}
		if path, ok := a.Materials[i]; ok {
			entry["material"] = path
		}
		list = append(list, entry)
	}
	return okDoc(map[string]any{"actor": name, "num_slots": float64(slots), "material_slots": list})
}

func (s *Sim) applyBlueprintMaterial(p map[string]any) map[string]any {
	comp, fail := s.componentOf(p)
	if fail != nil {
		return fail
	}
	path := str(p, "material_path")
	if path == "" {
		return map[string]any{"success": false, "message": "Missing required parameter: material_path"}
	}
	slot := intOf(p, "material_slot")
	comp.materials[slot] = path
	return map[string]any{"success": true, "material_path": path, "slot": float64(slot)}
}

func (s *Sim) blueprintMaterialInfo(p map[string]any) map[string]any {
	comp, fail := s.componentOf(p)
	if fail != nil {
		return fail
	}
	slots := 1
	for k := range comp.materials {
		if k+1 > slots {
			slots = k + 1
		}
	}
	for k := range comp.colors {
		if k+1 > slots {
			slots = k + 1
		}
	}
	list := make([]any, 0, slots)
	for i := 0; i < slots; i++ {
		entry := map[string]any{"slot": float64(i)}
		if path, ok := comp.materials[i]; ok {
			entry["material"] = path
		}
		list = append(list, entry)
	}
	return map[string]any{"success": true, "num_slots": float64(slots), "material_slots": list}
}

func (s *Sim) setMaterialColor(p map[string]any) map[string]any {
	comp, fail := s.componentOf(p)
	if fail != nil {
		return fail
	}
	color := vec(p, "color")
	if len(color) < 3 || len(color) > 4 {
		return map[string]any{"success": false, "message": "Color must have 3 or 4 components"}
	}
	comp.colors[intOf(p, "material_slot")] = color
	return map[string]any{"success": true, "color": floats(color)}
}

func (s *Sim) blueprintOf(p map[string]any) (*blueprint, map[string]any) {
	name := str(p, "blueprint_name")
	bp, ok := s.bps[name]
	if !ok {
		return nil, map[string]any{"success": false, "message": "Blueprint not found: " + name}
	}
	return bp, nil
}

func (s *Sim) componentOf(p map[string]any) (*component, map[string]any) {
	bp, fail := s.blueprintOf(p)
	if fail != nil {
		return nil, fail
	}
	name := str(p, "component_name")
	comp, ok := bp.components[name]
	if !ok {
		return nil, map[string]any{"success": false, "message": "Component not found: " + name}
	}
	return comp, nil
}

// Inspection for tests.

// ActorCount reports how many actors are placed.
func (s *Sim) ActorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actors)
}

// LookupActor returns a copy of one actor.
func (s *Sim) LookupActor(name string) (Actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[name]
	if !ok {
		return Actor{}, false
	}
	cp := *a
	cp.Location = append([]float64(nil), a.Location...)
	cp.Rotation = append([]float64(nil), a.Rotation...)
	cp.Scale = append([]float64(nil), a.Scale...)
	cp.Materials = map[int]string{}
	for k, v := range a.Materials {
		cp.Materials[k] = v
	}
	return cp, true
}

// HasBlueprint reports whether a blueprint exists and is compiled.
func (s *Sim) HasBlueprint(name string) (exists, compiled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.bps[name]
	if !ok {
		return false, false
	}
	return true, bp.compiled
}

// Reset drops all state.
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors = map[string]*Actor{}
	s.order = nil
	s.bps = map[string]*blueprint{}
}

// Document helpers.

func okDoc(result map[string]any) map[string]any {
	return map[string]any{"status": "success", "result": result}
}

func errDoc(msg string) map[string]any {
	return map[string]any{"status": "error", "error": msg}
}

func actorDoc(a *Actor) map[string]any {
	doc := map[string]any{
		"name":     a.Name,
		"type":     a.Type,
		"location": floats(a.Location),
		"rotation": floats(a.Rotation),
		"scale":    floats(a.Scale),
	}
	if a.Mesh != "" {
		doc["static_mesh"] = a.Mesh
	}
	return doc
}

// Param readers. Params arrive as decoded JSON, so numbers are float64.

func str(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

func strOr(p map[string]any, key, def string) string {
	if s := str(p, key); s != "" {
		return s
	}
	return def
}

func intOf(p map[string]any, key string) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func vec(p map[string]any, key string) []float64 {
	raw, ok := p[key].([]any)
	if !ok {
		// Already-typed values show up when the sim is driven in-process.
		if f, ok := p[key].([]float64); ok {
			return append([]float64(nil), f...)
		}
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, e := range raw {
		f, _ := e.(float64)
		out = append(out, f)
	}
	return out
}

func floats(v []float64) []any {
	out := make([]any, len(v))
	for i, f := range v {
		out[i] = f
	}
	return out
}
