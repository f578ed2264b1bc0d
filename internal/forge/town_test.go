package forge

import (
	"context"
	"strings"
	"testing"
)

func TestTownDeterministicSeed(t *testing.T) {
	run := func() []string {
		level := &fakeLevel{}
		f := testForge(level, nil)
		if _, err := f.Town(context.Background(), TownRequest{Size: "small", Seed: 42}); err != nil {
			t.Fatalf("Town: %v", err)
		}
		out := make([]string, len(level.reqs))
		for i, r := range level.reqs {
			out[i] = r.Name
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("spawn %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestTownSmallFullDensity(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	res, err := f.Town(context.Background(), TownRequest{Size: "small", Density: 1, Seed: 7})
	if err != nil {
		t.Fatalf("Town: %v", err)
	}

	if res.Parts["streets"] != 8 {
		t.Fatalf("streets = %d, want 2 per boundary x 4", res.Parts["streets"])
	}
	if res.Parts["lights"] != 32 {
		t.Fatalf("lights = %d, want 2 per intersection x 16", res.Parts["lights"])
	}
	if res.Parts["vehicles"] != 12 {
		t.Fatalf("vehicles = %d, want 2 per car x 6", res.Parts["vehicles"])
	}
	if res.Parts["sidewalks"] != 9 {
		t.Fatalf("sidewalks = %d, want one per block", res.Parts["sidewalks"])
	}
	if res.Parts["traffic_lights"] != 8 {
		t.Fatalf("traffic_lights = %d, want 2 per corner x 4", res.Parts["traffic_lights"])
	}
	if res.Parts["plaza"] != 0 {
		t.Fatalf("small town grew a plaza")
	}

	stats, ok := res.Extra["town_stats"].(map[string]any)
	if !ok {
		t.Fatalf("town_stats missing: %v", res.Extra)
	}
	if stats["buildings"] != 9 {
		t.Fatalf("buildings = %v, want all 9 blocks filled at density 1", stats["buildings"])
	}
	if stats["total_actors"] != res.Spawned {
		t.Fatalf("total_actors = %v, spawned %d", stats["total_actors"], res.Spawned)
	}
	if stats["infrastructure_items"] == 0 {
		t.Fatalf("no infrastructure placed")
	}
}

func TestTownNoInfrastructure(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	res, err := f.Town(context.Background(), TownRequest{
		Size: "small", Density: 1, Seed: 7, NoInfrastructure: true,
	})
	if err != nil {
		t.Fatalf("Town: %v", err)
	}
	for part, n := range res.Parts {
		if part != "streets" && part != "buildings" && n > 0 {
			t.Fatalf("%s = %d with infrastructure off", part, n)
		}
	}
	stats := res.Extra["town_stats"].(map[string]any)
	if stats["infrastructure_items"] != 0 {
		t.Fatalf("infrastructure_items = %v, want 0", stats["infrastructure_items"])
	}
}

func TestTownDowntownHighRise(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	_, err := f.Town(context.Background(), TownRequest{
		Size: "small", Style: "downtown", Density: 1, Seed: 1,
	})
	if err != nil {
		t.Fatalf("Town: %v", err)
	}
	for _, r := range level.reqs {
		if strings.HasSuffix(r.Name, "_Body") || strings.HasSuffix(r.Name, "_Shaft") {
			t.Fatalf("downtown placed low-rise piece %s", r.Name)
		}
	}
}

func TestTownPlaza(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	res, err := f.Town(context.Background(), TownRequest{Size: "large", Seed: 3})
	if err != nil {
		t.Fatalf("Town: %v", err)
	}
	if res.Parts["plaza"] != 3 {
		t.Fatalf("plaza = %d, want slab, fountain base and jet", res.Parts["plaza"])
	}
	if level.named("Town_Fountain_Jet") == nil {
		t.Fatalf("fountain jet missing")
	}
}
