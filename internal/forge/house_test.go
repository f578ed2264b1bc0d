package forge

import (
	"context"
	"testing"
)

func TestHouseModern(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	res, err := f.House(context.Background(), HouseRequest{})
	if err != nil {
		t.Fatalf("House: %v", err)
	}
	if res.Parts["floor"] != 1 || res.Parts["roof"] != 1 {
		t.Fatalf("floor %d roof %d, want 1 and 1", res.Parts["floor"], res.Parts["roof"])
	}
	if res.Parts["chimney"] != 0 {
		t.Fatalf("modern house grew a chimney")
	}
	if res.Parts["walls"] != 208 {
		t.Fatalf("walls = %d, want 208 for a 12x10x6 shell", res.Parts["walls"])
	}
	if res.Extra["footprint"] != "12x10" {
		t.Fatalf("footprint = %v", res.Extra["footprint"])
	}

	// The doorway spans the two center columns of the bottom rows.
	for _, gone := range []string{"House_Wall_front_0_5", "House_Wall_front_0_6", "House_Wall_front_1_5"} {
		if level.named(gone) != nil {
			t.Fatalf("%s spawned inside the door opening", gone)
		}
	}
	if level.named("House_Wall_front_0_4") == nil {
		t.Fatalf("wall beside the door missing")
	}
	if level.named("House_Wall_front_2_5") == nil {
		t.Fatalf("wall above the door missing")
	}
}

func TestHouseWindows(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	if _, err := f.House(context.Background(), HouseRequest{}); err != nil {
		t.Fatalf("House: %v", err)
	}
	if level.named("House_Wall_front_3_1") != nil {
		t.Fatalf("window column spawned on the front window row")
	}
	if level.named("House_Wall_front_3_0") == nil {
		t.Fatalf("wall between windows missing")
	}
	if level.named("House_Wall_left_4_1") != nil {
		t.Fatalf("side window column spawned on the upper window row")
	}
}

func TestHouseCottage(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	res, err := f.House(context.Background(), HouseRequest{Style: HouseCottage})
	if err != nil {
		t.Fatalf("House: %v", err)
	}
	if res.Parts["chimney"] != 1 {
		t.Fatalf("chimney = %d, want 1", res.Parts["chimney"])
	}
	if res.Parts["roof"] != 5 {
		t.Fatalf("roof steps = %d, want 5 for depth 10", res.Parts["roof"])
	}
	if res.Parts["walls"] != 222 {
		t.Fatalf("walls = %d, want 222 with a single window row", res.Parts["walls"])
	}
	chimney := level.named("House_Chimney")
	if chimney == nil || chimney.StaticMesh != meshCylinder {
		t.Fatalf("chimney %+v, want cylinder", chimney)
	}
	ridge := level.named("House_Roof_4")
	if ridge == nil || !locEq(ridge.Scale, 12.4, 2, 0.5) {
		t.Fatalf("top ridge %+v, want narrowed scale", ridge)
	}
}
