// Package protocol defines the wire contract spoken with the Unreal editor's
// TCP command socket: one JSON command envelope per connection, one JSON
// response document back. Responses are inconsistent across editor commands,
// so this package also owns the normalization into a single canonical shape.
package protocol

import "encoding/json"

// Command types understood by the editor plugin.
const (
	// Level/actor commands.
	CmdGetActorsInLevel    = "get_actors_in_level"
	CmdFindActorsByName    = "find_actors_by_name"
	CmdSpawnActor          = "spawn_actor"
	CmdDeleteActor         = "delete_actor"
	CmdSetActorTransform   = "set_actor_transform"
	CmdSpawnBlueprintActor = "spawn_blueprint_actor"

	// Blueprint authoring commands.
	CmdCreateBlueprint         = "create_blueprint"
	CmdAddComponentToBlueprint = "add_component_to_blueprint"
	CmdSetStaticMeshProperties = "set_static_mesh_properties"
	CmdSetPhysicsProperties    = "set_physics_properties"
	CmdSetBlueprintProperty    = "set_blueprint_property"
	CmdCompileBlueprint        = "compile_blueprint"

	// Material commands.
	CmdGetAvailableMaterials    = "get_available_materials"
	CmdApplyMaterialToActor     = "apply_material_to_actor"
	CmdGetActorMaterialInfo     = "get_actor_material_info"
	CmdApplyMaterialToBlueprint = "apply_material_to_blueprint"
	CmdGetBlueprintMaterialInfo = "get_blueprint_material_info"
	CmdSetMeshMaterialColor     = "set_mesh_material_color"
)

var knownCommands = map[string]struct{}{
	CmdGetActorsInLevel:         {},
	CmdFindActorsByName:         {},
	CmdSpawnActor:               {},
	CmdDeleteActor:              {},
	CmdSetActorTransform:        {},
	CmdSpawnBlueprintActor:      {},
	CmdCreateBlueprint:          {},
	CmdAddComponentToBlueprint:  {},
	CmdSetStaticMeshProperties:  {},
	CmdSetPhysicsProperties:     {},
	CmdSetBlueprintProperty:     {},
	CmdCompileBlueprint:         {},
	CmdGetAvailableMaterials:    {},
	CmdApplyMaterialToActor:     {},
	CmdGetActorMaterialInfo:     {},
	CmdApplyMaterialToBlueprint: {},
	CmdGetBlueprintMaterialInfo: {},
	CmdSetMeshMaterialColor:     {},
}

func IsKnownCommand(typ string) bool {
	_, ok := knownCommands[typ]
	return ok
}

// Command is the two-field request envelope. Params is never serialized as
// null; an empty object stands in for "no parameters".
type Command struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

func NewCommand(typ string, params map[string]any) Command {
	if params == nil {
		params = map[string]any{}
	}
	return Command{Type: typ, Params: params}
}

func (c Command) Encode() ([]byte, error) {
	if c.Params == nil {
		c.Params = map[string]any{}
	}
	return json.Marshal(c)
}

func DecodeCommand(b []byte) (Command, error) {
	var c Command
	err := json.Unmarshal(b, &c)
	return c, err
}
