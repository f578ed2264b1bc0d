package forge

import (
	"context"
	"testing"
)

func TestCastleSmallParts(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	res, err := f.Castle(context.Background(), CastleRequest{Size: "small"})
	if err != nil {
		t.Fatalf("Castle: %v", err)
	}
	want := map[string]int{
		"walls":         430,
		"towers":        320,
		"keep":          85,
		"gatehouse":     14,
		"courtyard":     1,
		"siege_weapons": 3,
		"village":       6,
		"moat":          5,
		"flags":         10,
	}
	for part, n := range want {
		if res.Parts[part] != n {
			t.Fatalf("%s = %d, want %d", part, res.Parts[part], n)
		}
	}
	sum := 0
	for _, n := range res.Parts {
		sum += n
	}
	if sum != res.Spawned {
		t.Fatalf("parts sum %d != spawned %d", sum, res.Spawned)
	}
	if res.Extra["wall_sections"] != 72 {
		t.Fatalf("wall_sections = %v, want 72", res.Extra["wall_sections"])
	}
	if res.Extra["towers"] != 4 {
		t.Fatalf("towers = %v, want 4", res.Extra["towers"])
	}
}

func TestCastleGateOpening(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	if _, err := f.Castle(context.Background(), CastleRequest{Size: "small"}); err != nil {
		t.Fatalf("Castle: %v", err)
	}
	for _, gone := range []string{"Castle_Outer_Wall_front_0_9", "Castle_Outer_Wall_front_0_10"} {
		if level.named(gone) != nil {
			t.Fatalf("%s spawned inside the gate opening", gone)
		}
	}
	if level.named("Castle_Outer_Wall_front_0_8") == nil {
		t.Fatalf("wall beside the gate missing")
	}
	if level.named("Castle_Inner_Wall_front_0_5") == nil {
		t.Fatalf("inner ring should not open a gate")
	}
	bridge := level.named("Castle_Drawbridge")
	if bridge == nil {
		t.Fatalf("drawbridge missing")
	}
	if !locEq(bridge.Location, 0, -2000, -20) {
		t.Fatalf("drawbridge at %v, want centered on the gate", bridge.Location)
	}
}

func TestCastleOptionsOff(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	res, err := f.Castle(context.Background(), CastleRequest{
		Size: "small", NoSiegeWeapons: true, NoVillage: true, NoMoat: true,
	})
	if err != nil {
		t.Fatalf("Castle: %v", err)
	}
	for _, part := range []string{"siege_weapons", "village", "moat"} {
		if res.Parts[part] != 0 {
			t.Fatalf("%s = %d with the option off", part, res.Parts[part])
		}
	}
	if res.Extra["has_village"] != false || res.Extra["has_siege_weapons"] != false {
		t.Fatalf("extras %v, want options reported off", res.Extra)
	}
}

func TestCastleStyleTops(t *testing.T) {
	build := func(style string) *fakeLevel {
		level := &fakeLevel{}
		f := testForge(level, nil)
		if _, err := f.Castle(context.Background(), CastleRequest{Size: "small", Style: style}); err != nil {
			t.Fatalf("Castle %s: %v", style, err)
		}
		return level
	}

	medieval := build("medieval")
	if medieval.named("Castle_Tower_0_Merlon_0") == nil {
		t.Fatalf("medieval tower lost its merlon ring")
	}

	fantasy := build("fantasy")
	roof := fantasy.named("Castle_Tower_0_Roof")
	if roof == nil || roof.StaticMesh != meshCone {
		t.Fatalf("fantasy tower roof %+v, want cone", roof)
	}
	if fantasy.named("Castle_Tower_0_Merlon_0") != nil {
		t.Fatalf("fantasy tower also grew merlons")
	}

	gothic := build("gothic")
	spire := gothic.named("Castle_Tower_0_Spire")
	if spire == nil || !locEq(spire.Scale, 2.5, 2.5, 8) {
		t.Fatalf("gothic spire %+v", spire)
	}
}

func TestCastleEpicTowerCount(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	if _, err := f.Castle(context.Background(), CastleRequest{Size: "epic"}); err != nil {
		t.Fatalf("Castle: %v", err)
	}
	if level.named("Castle_Tower_7_0_0") == nil {
		t.Fatalf("epic castle missing its midpoint towers")
	}
}
