package forge

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"unrealforge.ai/internal/actors"
)

// TownRequest shapes a town: a street grid, buildings placed per density,
// and street-level infrastructure. Seed 0 draws one from the clock.
type TownRequest struct {
	Size             string  // "small", "medium", "large", "metropolis"
	Density          float64 // 0..1 share of blocks that get a building
	Location         []float64
	Prefix           string
	Style            string // "modern", "cottage", "mansion", "mixed", "downtown", "futuristic"
	NoInfrastructure bool
	Seed             int64
}

func (r TownRequest) withDefaults() TownRequest {
	if _, ok := townSizes[r.Size]; !ok {
		r.Size = "medium"
	}
	if r.Density <= 0 || r.Density > 1 {
		r.Density = 0.7
	}
	if r.Prefix == "" {
		r.Prefix = "Town"
	}
	switch r.Style {
	case "modern", "cottage", "mansion", "downtown", "futuristic":
	default:
		r.Style = "mixed"
	}
	if r.Seed == 0 {
		r.Seed = time.Now().UnixNano()
	}
	return r
}

type townDims struct {
	blocks           int
	blockSize        float64
	maxHeight        int
	population       int
	skyscraperChance float64
}

var townSizes = map[string]townDims{
	"small":      {blocks: 3, blockSize: 1500, maxHeight: 5, population: 20, skyscraperChance: 0.1},
	"medium":     {blocks: 5, blockSize: 2000, maxHeight: 10, population: 50, skyscraperChance: 0.3},
	"large":      {blocks: 7, blockSize: 2500, maxHeight: 20, population: 100, skyscraperChance: 0.5},
	"metropolis": {blocks: 10, blockSize: 3000, maxHeight: 40, population: 200, skyscraperChance: 0.7},
}

// Town builds the street grid, then fills blocks with buildings until the
// density-scaled population target is met, then adds infrastructure. Central
// blocks of mixed towns roll for skyscrapers.
func (f *Forge) Town(ctx context.Context, req TownRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "town", req.Prefix, false)
	o := originOf(req.Location)
	dims := townSizes[req.Size]
	rng := rand.New(rand.NewSource(req.Seed))

	streetW := dims.blockSize * 0.3
	buildingArea := dims.blockSize * 0.7
	target := int(float64(dims.population) * req.Density)

	b.streetGrid(req.Prefix, o, dims, streetW)

	buildings := 0
	for bx := 0; bx < dims.blocks && buildings < target; bx++ {
		for by := 0; by < dims.blocks && buildings < target; by++ {
			if rng.Float64() > req.Density {
				continue
			}
			cx := o[0] + (float64(bx)-float64(dims.blocks)/2)*dims.blockSize
			cy := o[1] + (float64(by)-float64(dims.blocks)/2)*dims.blockSize
			kind := townBuildingKind(req.Style, bx, by, dims, rng)
			b.townBuilding(kind, fmt.Sprintf("%s_Building_%d_%d", req.Prefix, bx, by),
				[3]float64{cx, cy, o[2]}, buildingArea, dims.maxHeight, rng)
			buildings++
		}
	}

	infra := 0
	if !req.NoInfrastructure {
		infra = b.townInfrastructure(req.Prefix, o, dims, streetW, target, rng)
	}

	b.res.setExtra("town_stats", map[string]any{
		"size":                 req.Size,
		"density":              req.Density,
		"blocks":               dims.blocks,
		"buildings":            buildings,
		"infrastructure_items": infra,
		"total_actors":         b.res.Spawned,
		"architectural_style":  req.Style,
	})
	return b.finish()
}

// townBuildingKind rolls a building type for one block. Downtown and
// futuristic towns are all high-rise; mixed towns keep skyscrapers near the
// center; style-specific towns still mix in street commerce.
func townBuildingKind(style string, bx, by int, d townDims, rng *rand.Rand) string {
	switch style {
	case "downtown", "futuristic":
		return pick(rng, "skyscraper", "office_tower", "apartment_complex", "shopping_mall", "parking_garage", "hotel")
	case "mixed":
		central := iabs(bx-d.blocks/2) <= 1 && iabs(by-d.blocks/2) <= 1
		if central && rng.Float64() < d.skyscraperChance {
			return pick(rng, "skyscraper", "office_tower", "apartment_complex", "hotel", "shopping_mall")
		}
		return pick(rng, "house", "tower", "mansion", "commercial", "apartment_building", "restaurant", "store")
	default:
		return pick(rng, style, style, style, "commercial", "restaurant", "store")
	}
}

// streetGrid lays road slabs on every block boundary, both directions.
func (b *builder) streetGrid(prefix string, o [3]float64, d townDims, streetW float64) {
	span := float64(d.blocks)*d.blockSize + streetW
	center := -d.blockSize / 2
	for k := 0; k <= d.blocks; k++ {
		off := (float64(k)-float64(d.blocks)/2)*d.blockSize - d.blockSize/2
		b.place("streets", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Street_V_%d", prefix, k),
			Location:   vec(o[0]+off, o[1]+center, o[2]),
			Scale:      vec(streetW/100, span/100, 0.1),
			StaticMesh: meshCube,
		})
		b.place("streets", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Street_H_%d", prefix, k),
			Location:   vec(o[0]+center, o[1]+off, o[2]),
			Scale:      vec(span/100, streetW/100, 0.1),
			StaticMesh: meshCube,
		})
	}
}

// townBuilding places one building's pieces. Unlisted kinds build as low
// commercial blocks.
func (b *builder) townBuilding(kind, name string, base [3]float64, area float64, maxH int, rng *rand.Rand) {
	x, y, z := base[0], base[1], base[2]
	switch kind {
	case "skyscraper", "office_tower", "apartment_complex", "hotel", "apartment_building":
		floors := maxH/2 + rng.Intn(maxH-maxH/2+1)
		if floors < 3 {
			floors = 3
		}
		w := area * 0.5 / 100
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Base",
			Location:   vec(x, y, z+20),
			Scale:      vec(w+1, w+1, 0.4),
			StaticMesh: meshCube,
		})
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Core",
			Location:   vec(x, y, z+40+float64(floors)*50),
			Scale:      vec(w, w, float64(floors)),
			StaticMesh: meshCube,
		})
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Crown",
			Location:   vec(x, y, z+40+float64(floors)*100+25),
			Scale:      vec(w*0.8, w*0.8, 0.5),
			StaticMesh: meshCube,
		})
		if kind == "skyscraper" {
			b.place("buildings", actors.SpawnRequest{
				Name:       name + "_Antenna",
				Location:   vec(x, y, z+40+float64(floors)*100+150),
				Scale:      vec(0.1, 0.1, 2),
				StaticMesh: meshCylinder,
			})
		}
	case "house", "cottage", "modern":
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Body",
			Location:   vec(x, y, z+100),
			Scale:      vec(area*0.35/100, area*0.3/100, 2),
			StaticMesh: meshCube,
		})
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Roof",
			Location:   vec(x, y, z+250),
			Scale:      vec(area*0.4/100, area*0.35/100, 1.2),
			StaticMesh: meshCone,
		})
	case "mansion":
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Main",
			Location:   vec(x, y, z+150),
			Scale:      vec(area*0.5/100, area*0.35/100, 3),
			StaticMesh: meshCube,
		})
		for i, side := range []float64{-1, 1} {
			b.place("buildings", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Wing_%d", name, i),
				Location:   vec(x+side*area*0.35, y, z+100),
				Scale:      vec(area*0.2/100, area*0.3/100, 2),
				StaticMesh: meshCube,
			})
		}
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Roof",
			Location:   vec(x, y, z+320),
			Scale:      vec(area*0.55/100, area*0.4/100, 0.4),
			StaticMesh: meshCube,
		})
	case "tower":
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Shaft",
			Location:   vec(x, y, z+float64(maxH)*50),
			Scale:      vec(area*0.15/100, area*0.15/100, float64(maxH)),
			StaticMesh: meshCylinder,
		})
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Top",
			Location:   vec(x, y, z+float64(maxH)*100+100),
			Scale:      vec(area*0.2/100, area*0.2/100, 2),
			StaticMesh: meshCone,
		})
	default: // shopping_mall, parking_garage, commercial, restaurant, store
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_Hall",
			Location:   vec(x, y, z+125),
			Scale:      vec(area*0.8/100, area*0.6/100, 2.5),
			StaticMesh: meshCube,
		})
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_SignPost",
			Location:   vec(x+area*0.45, y, z+200),
			Scale:      vec(0.15, 0.15, 4),
			StaticMesh: meshCylinder,
		})
		b.place("buildings", actors.SpawnRequest{
			Name:       name + "_SignBoard",
			Location:   vec(x+area*0.45, y, z+430),
			Scale:      vec(2, 0.2, 1),
			StaticMesh: meshCube,
		})
	}
}

// townInfrastructure fills in lights, vehicles, greenery and street
// furniture. Returns the number of pieces placed.
func (b *builder) townInfrastructure(prefix string, o [3]float64, d townDims, streetW float64, target int, rng *rand.Rand) int {
	before := b.res.Spawned
	span := float64(d.blocks) * d.blockSize
	boundary := func(k int) float64 {
		return (float64(k)-float64(d.blocks)/2)*d.blockSize - d.blockSize/2
	}

	for i := 0; i <= d.blocks; i++ {
		for j := 0; j <= d.blocks; j++ {
			x, y := o[0]+boundary(i), o[1]+boundary(j)
			b.place("lights", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Light_%d_%d_Pole", prefix, i, j),
				Location:   vec(x, y, o[2]+200),
				Scale:      vec(0.15, 0.15, 4),
				StaticMesh: meshCylinder,
			})
			b.place("lights", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Light_%d_%d_Lamp", prefix, i, j),
				Location:   vec(x, y, o[2]+430),
				Scale:      uniform(0.5),
				StaticMesh: meshSphere,
			})
		}
	}

	for i := 0; i < target/3; i++ {
		bnd := boundary(rng.Intn(d.blocks + 1))
		along := (rng.Float64() - 0.5) * span
		x, y := o[0]+bnd, o[1]+along
		if rng.Intn(2) == 1 {
			x, y = o[0]+along, o[1]+bnd
		}
		b.place("vehicles", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Vehicle_%d_Body", prefix, i),
			Location:   vec(x, y, o[2]+60),
			Scale:      vec(2.2, 1, 0.7),
			StaticMesh: meshCube,
		})
		b.place("vehicles", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Vehicle_%d_Cab", prefix, i),
			Location:   vec(x, y, o[2]+120),
			Scale:      vec(1, 0.9, 0.5),
			StaticMesh: meshCube,
		})
	}

	for bx := 0; bx < d.blocks; bx++ {
		for by := 0; by < d.blocks; by++ {
			if rng.Float64() > 0.5 {
				continue
			}
			x := o[0] + (float64(bx)-float64(d.blocks)/2)*d.blockSize + d.blockSize*0.3
			y := o[1] + (float64(by)-float64(d.blocks)/2)*d.blockSize + d.blockSize*0.3
			b.place("decorations", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Tree_%d_%d_Trunk", prefix, bx, by),
				Location:   vec(x, y, o[2]+100),
				Scale:      vec(0.3, 0.3, 2),
				StaticMesh: meshCylinder,
			})
			b.place("decorations", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Tree_%d_%d_Crown", prefix, bx, by),
				Location:   vec(x, y, o[2]+280),
				Scale:      uniform(1.6),
				StaticMesh: meshSphere,
			})
		}
	}

	cx, cy := o[0]+boundary(d.blocks/2), o[1]+boundary(d.blocks/2)
	for i := 0; i < 4; i++ {
		sx, sy := 1.0, 1.0
		if i%2 == 1 {
			sx = -1
		}
		if i/2 == 1 {
			sy = -1
		}
		x, y := cx+sx*streetW/2, cy+sy*streetW/2
		b.place("traffic_lights", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_TrafficLight_%d_Pole", prefix, i),
			Location:   vec(x, y, o[2]+150),
			Scale:      vec(0.12, 0.12, 3),
			StaticMesh: meshCylinder,
		})
		b.place("traffic_lights", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_TrafficLight_%d_Head", prefix, i),
			Location:   vec(x, y, o[2]+320),
			Scale:      vec(0.3, 0.3, 0.8),
			StaticMesh: meshCube,
		})
	}

	for i := 0; i < d.blocks; i++ {
		edge := o[1] + boundary(i) + d.blockSize/2
		b.place("signage", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Sign_%d_Post", prefix, i),
			Location:   vec(o[0]+span/2+200, edge, o[2]+250),
			Scale:      vec(0.2, 0.2, 5),
			StaticMesh: meshCylinder,
		})
		b.place("signage", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Sign_%d_Board", prefix, i),
			Location:   vec(o[0]+span/2+200, edge, o[2]+550),
			Scale:      vec(0.2, 4, 2),
			StaticMesh: meshCube,
		})
	}

	for bx := 0; bx < d.blocks; bx++ {
		for by := 0; by < d.blocks; by++ {
			x := o[0] + (float64(bx)-float64(d.blocks)/2)*d.blockSize
			y := o[1] + (float64(by)-float64(d.blocks)/2)*d.blockSize
			b.place("sidewalks", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Sidewalk_%d_%d", prefix, bx, by),
				Location:   vec(x, y, o[2]+5),
				Scale:      vec(d.blockSize*0.8/100, d.blockSize*0.8/100, 0.05),
				StaticMesh: meshCube,
			})
		}
	}

	for i := 0; i < d.blocks; i++ {
		y := o[1] + boundary(i) + streetW
		b.place("furniture", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Bench_%d", prefix, i),
			Location:   vec(o[0]-d.blockSize/2, y, o[2]+30),
			Scale:      vec(0.8, 0.3, 0.3),
			StaticMesh: meshCube,
		})
		b.place("utilities", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Hydrant_%d", prefix, i),
			Location:   vec(o[0]-d.blockSize/2+150, y, o[2]+40),
			Scale:      vec(0.15, 0.15, 0.5),
			StaticMesh: meshCylinder,
		})
	}

	if d.blocks >= 7 {
		px := o[0] + (float64(d.blocks/2)-float64(d.blocks)/2)*d.blockSize
		py := o[1] + (float64(d.blocks/2)-float64(d.blocks)/2)*d.blockSize
		b.place("plaza", actors.SpawnRequest{
			Name:       prefix + "_Plaza",
			Location:   vec(px, py, o[2]+8),
			Scale:      vec(d.blockSize*0.8/100, d.blockSize*0.8/100, 0.08),
			StaticMesh: meshCube,
		})
		b.place("plaza", actors.SpawnRequest{
			Name:       prefix + "_Fountain_Base",
			Location:   vec(px, py, o[2]+40),
			Scale:      vec(2.5, 2.5, 0.4),
			StaticMesh: meshCylinder,
		})
		b.place("plaza", actors.SpawnRequest{
			Name:       prefix + "_Fountain_Jet",
			Location:   vec(px, py, o[2]+160),
			Scale:      vec(0.3, 0.3, 2),
			StaticMesh: meshCylinder,
		})
	}

	return b.res.Spawned - before
}

func pick(rng *rand.Rand, options ...string) string {
	return options[rng.Intn(len(options))]
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
