package protocol

import "testing"

func TestNormalize_NilResponse(t *testing.T) {
	r := Normalize(nil)
	if !r.IsError() {
		t.Fatalf("expected error status, got %v", r)
	}
	if r.ErrorMessage() != "No response" {
		t.Fatalf("unexpected message: %q", r.ErrorMessage())
	}
}

func TestNormalize_LegacyShapesConverge(t *testing.T) {
	cases := []Response{
		{"status": "error", "error": "Blueprint not found"},
		{"status": "error", "message": "Blueprint not found"},
		{"success": false, "error": "Blueprint not found"},
		{"success": false, "message": "Blueprint not found", "detail": "ignored"},
	}
	for i, in := range cases {
		got := Normalize(in)
		if got.Status() != StatusError {
			t.Fatalf("case %d: status = %q", i, got.Status())
		}
		if msg, _ := got["error"].(string); msg != "Blueprint not found" {
			t.Fatalf("case %d: error = %q", i, msg)
		}
	}
}

func TestNormalize_FallbackMessages(t *testing.T) {
	got := Normalize(Response{"status": "error"})
	if msg, _ := got["error"].(string); msg != "Unknown Unreal error" {
		t.Fatalf("status-shape fallback = %q", msg)
	}
	got = Normalize(Response{"success": false})
	if msg, _ := got["error"].(string); msg != "Unknown error" {
		t.Fatalf("success-shape fallback = %q", msg)
	}
}

func TestNormalize_SuccessPassthrough(t *testing.T) {
	in := Response{"status": "success", "result": map[string]any{"name": "Wall_1"}}
	got := Normalize(in)
	if got.IsError() {
		t.Fatalf("expected success, got %v", got)
	}
	if got.Result()["name"] != "Wall_1" {
		t.Fatalf("result mangled: %v", got.Result())
	}
	// success:true in the legacy shape is not a failure either.
	got = Normalize(Response{"success": true, "actors": []any{}})
	if got.IsError() {
		t.Fatalf("legacy success treated as error: %v", got)
	}
}

func TestNormalize_PresentErrorFieldUntouched(t *testing.T) {
	in := Response{"status": "error", "error": "short", "message": "long form"}
	got := Normalize(in)
	if msg, _ := got["error"].(string); msg != "short" {
		t.Fatalf("error field rewritten: %q", msg)
	}
}

func TestIsAlreadyExists(t *testing.T) {
	cases := []struct {
		r    Response
		want bool
	}{
		{ErrorResponse("Blueprint already exists: TowerBase_BP"), true},
		{ErrorResponse("Actor with name Wall_1 ALREADY EXISTS"), true},
		{Response{"success": false, "message": "actor already exists"}, false}, // not normalized yet
		{Normalize(Response{"success": false, "message": "actor already exists"}), true},
		{ErrorResponse("Blueprint not found"), false},
		{SuccessResponse(nil), false},
	}
	for i, c := range cases {
		if got := IsAlreadyExists(c.r); got != c.want {
			t.Fatalf("case %d: got %v want %v", i, got, c.want)
		}
	}
}

func TestCommandEncode_NilParams(t *testing.T) {
	b, err := Command{Type: CmdGetActorsInLevel}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != `{"type":"get_actors_in_level","params":{}}` {
		t.Fatalf("unexpected encoding: %s", b)
	}
}

func TestIsKnownCommand(t *testing.T) {
	for _, typ := range []string{
		CmdSpawnActor,
		CmdDeleteActor,
		CmdCreateBlueprint,
		CmdCompileBlueprint,
		CmdSetMeshMaterialColor,
	} {
		if !IsKnownCommand(typ) {
			t.Fatalf("expected known command: %q", typ)
		}
	}
	if IsKnownCommand("reboot_editor") {
		t.Fatalf("expected unknown command rejected")
	}
}
