package forge

import (
	"context"
	"fmt"
	"math"

	"unrealforge.ai/internal/actors"
)

// CastleRequest shapes a walled fortress. Sizes are "small", "medium",
// "large" and "epic"; styles "medieval", "fantasy" and "gothic" change the
// tower tops.
type CastleRequest struct {
	Size           string
	Location       []float64
	Prefix         string
	Style          string
	NoSiegeWeapons bool
	NoVillage      bool
	NoMoat         bool
}

func (r CastleRequest) withDefaults() CastleRequest {
	if _, ok := castleSizes[r.Size]; !ok {
		r.Size = "large"
	}
	if r.Prefix == "" {
		r.Prefix = "Castle"
	}
	switch r.Style {
	case "fantasy", "gothic":
	default:
		r.Style = "medieval"
	}
	return r
}

// castleDims are world-unit footprints and block-count heights. Walls and
// towers build from 200-unit blocks.
type castleDims struct {
	outerW, outerD float64
	innerW, innerD float64
	wallH          int
	towerCount     int
	towerH         int
	keepSize       int
	keepH          int
	villageHuts    int
	catapults      int
}

var castleSizes = map[string]castleDims{
	"small":  {outerW: 4000, outerD: 3200, innerW: 2400, innerD: 1800, wallH: 4, towerCount: 4, towerH: 8, keepSize: 3, keepH: 10, villageHuts: 3, catapults: 1},
	"medium": {outerW: 6000, outerD: 4800, innerW: 3600, innerD: 2800, wallH: 5, towerCount: 4, towerH: 10, keepSize: 4, keepH: 13, villageHuts: 5, catapults: 2},
	"large":  {outerW: 8000, outerD: 6400, innerW: 4800, innerD: 3600, wallH: 6, towerCount: 4, towerH: 12, keepSize: 5, keepH: 16, villageHuts: 8, catapults: 3},
	"epic":   {outerW: 12000, outerD: 9600, innerW: 7200, innerD: 5600, wallH: 8, towerCount: 8, towerH: 16, keepSize: 6, keepH: 20, villageHuts: 12, catapults: 4},
}

// Castle builds outer and inner curtain walls, a gatehouse, corner towers, a
// central keep with courtyard, and the optional siege camp, village and
// moat.
func (f *Forge) Castle(ctx context.Context, req CastleRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "castle", req.Prefix, false)
	o := originOf(req.Location)
	dims := castleSizes[req.Size]

	gateX := b.ringWalls("walls", req.Prefix+"_Outer", o, dims.outerW, dims.outerD, dims.wallH, true)
	b.ringWalls("walls", req.Prefix+"_Inner", o, dims.innerW, dims.innerD, dims.wallH-1, false)
	b.gatehouse(req.Prefix, o, dims, gateX)
	b.castleTowers(req.Prefix, req.Style, o, dims)
	b.keep(req.Prefix, o, dims)
	b.place("courtyard", actors.SpawnRequest{
		Name:       req.Prefix + "_Courtyard",
		Location:   vec(o[0], o[1], o[2]),
		Scale:      vec(dims.innerW/100-1, dims.innerD/100-1, 0.1),
		StaticMesh: meshCube,
	})
	if !req.NoSiegeWeapons {
		b.catapults(req.Prefix, o, dims)
	}
	if !req.NoVillage {
		b.village(req.Prefix, o, dims)
	}
	if !req.NoMoat {
		b.moat(req.Prefix, o, dims, gateX)
	}
	b.flags(req.Prefix, o, dims)

	b.res.setExtra("size", req.Size)
	b.res.setExtra("style", req.Style)
	b.res.setExtra("wall_sections", int(dims.outerW/200)*2+int(dims.outerD/200)*2)
	b.res.setExtra("towers", dims.towerCount)
	b.res.setExtra("has_village", !req.NoVillage)
	b.res.setExtra("has_siege_weapons", !req.NoSiegeWeapons)
	return b.finish()
}

// ringWalls rings a rectangle with 200-unit wall blocks and a merlon row on
// top, optionally leaving a two-block gate opening centered on the front
// wall. Returns the world x of the gate center.
func (b *builder) ringWalls(part, prefix string, o [3]float64, w, d float64, height int, gate bool) float64 {
	countX := int(w / 200)
	countY := int(d / 200)
	gateLo, gateHi := countX/2-1, countX/2
	gateX := o[0] - w/2 + (float64(gateLo+gateHi)/2+0.5)*200

	for h := 0; h <= height; h++ {
		top := h == height
		z := o[2] + float64(h)*200 + 100
		if top {
			z = o[2] + float64(height)*200 + 50
		}

		for i := 0; i < countX; i++ {
			x := o[0] - w/2 + (float64(i)+0.5)*200
			if top {
				if i%2 == 0 {
					b.merlon(part, fmt.Sprintf("%s_Merlon_front_%d", prefix, i), x, o[1]-d/2, z)
					b.merlon(part, fmt.Sprintf("%s_Merlon_back_%d", prefix, i), x, o[1]+d/2, z)
				}
				continue
			}
			if !(gate && i >= gateLo && i <= gateHi) {
				b.wallBlock(part, fmt.Sprintf("%s_Wall_front_%d_%d", prefix, h, i), x, o[1]-d/2, z)
			}
			b.wallBlock(part, fmt.Sprintf("%s_Wall_back_%d_%d", prefix, h, i), x, o[1]+d/2, z)
		}
		for j := 1; j < countY-1; j++ {
			y := o[1] - d/2 + (float64(j)+0.5)*200
			if top {
				if j%2 == 0 {
					b.merlon(part, fmt.Sprintf("%s_Merlon_left_%d", prefix, j), o[0]-w/2, y, z)
					b.merlon(part, fmt.Sprintf("%s_Merlon_right_%d", prefix, j), o[0]+w/2, y, z)
				}
				continue
			}
			b.wallBlock(part, fmt.Sprintf("%s_Wall_left_%d_%d", prefix, h, j), o[0]-w/2, y, z)
			b.wallBlock(part, fmt.Sprintf("%s_Wall_right_%d_%d", prefix, h, j), o[0]+w/2, y, z)
		}
	}
	return gateX
}

func (b *builder) wallBlock(part, name string, x, y, z float64) {
	b.place(part, actors.SpawnRequest{
		Name:       name,
		Location:   vec(x, y, z),
		Scale:      uniform(2),
		StaticMesh: meshCube,
	})
}

func (b *builder) merlon(part, name string, x, y, z float64) {
	b.place(part, actors.SpawnRequest{
		Name:       name,
		Location:   vec(x, y, z),
		Scale:      uniform(1),
		StaticMesh: meshCube,
	})
}

// gatehouse raises two flanking columns past the wall top and closes the
// gate opening with a lintel row.
func (b *builder) gatehouse(prefix string, o [3]float64, d castleDims, gateX float64) {
	y := o[1] - d.outerD/2
	flanks := [2]struct {
		side string
		x    float64
	}{{"L", gateX - 300}, {"R", gateX + 300}}

	for h := 0; h < d.wallH+2; h++ {
		z := o[2] + float64(h)*200 + 100
		for _, fl := range flanks {
			b.place("gatehouse", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Gatehouse_%s_%d", prefix, fl.side, h),
				Location:   vec(fl.x, y, z),
				Scale:      uniform(2),
				StaticMesh: meshCube,
			})
		}
	}
	for i := 0; i < 2; i++ {
		b.place("gatehouse", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Gatehouse_Lintel_%d", prefix, i),
			Location:   vec(gateX-100+float64(i)*200, y, o[2]+float64(d.wallH-1)*200+100),
			Scale:      uniform(2),
			StaticMesh: meshCube,
		})
	}
}

// castleTowers puts cylindrical towers on the outer corners, plus wall
// midpoints for the largest size. The style picks the top: merlon ring,
// cone roof, or gothic spire.
func (b *builder) castleTowers(prefix, style string, o [3]float64, d castleDims) {
	radius := 300.0
	n := int(2 * math.Pi * radius / 200)
	if n < 8 {
		n = 8
	}

	for t, p := range castleTowerSpots(o, d) {
		for level := 0; level < d.towerH; level++ {
			z := o[2] + float64(level)*200 + 100
			for i := 0; i < n; i++ {
				ang := 2 * math.Pi * float64(i) / float64(n)
				b.place("towers", actors.SpawnRequest{
					Name:       fmt.Sprintf("%s_Tower_%d_%d_%d", prefix, t, level, i),
					Location:   vec(p[0]+radius*math.Cos(ang), p[1]+radius*math.Sin(ang), z),
					Scale:      uniform(2),
					StaticMesh: meshCube,
				})
			}
		}

		topZ := o[2] + float64(d.towerH)*200
		switch style {
		case "fantasy":
			b.place("towers", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Tower_%d_Roof", prefix, t),
				Location:   vec(p[0], p[1], topZ+200),
				Scale:      vec(4.5, 4.5, 4),
				StaticMesh: meshCone,
			})
		case "gothic":
			b.place("towers", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Tower_%d_Spire", prefix, t),
				Location:   vec(p[0], p[1], topZ+400),
				Scale:      vec(2.5, 2.5, 8),
				StaticMesh: meshCone,
			})
		default:
			for i := 0; i < 8; i++ {
				ang := 2 * math.Pi * float64(i) / 8
				b.merlon("towers", fmt.Sprintf("%s_Tower_%d_Merlon_%d", prefix, t, i),
					p[0]+radius*math.Cos(ang), p[1]+radius*math.Sin(ang), topZ+50)
			}
		}
	}
}

// castleTowerSpots lists tower centers: the four outer corners, and for
// counts past four the wall midpoints clear of the gatehouse.
func castleTowerSpots(o [3]float64, d castleDims) [][2]float64 {
	w, dd := d.outerW/2, d.outerD/2
	pts := [][2]float64{
		{o[0] - w, o[1] - dd}, {o[0] + w, o[1] - dd},
		{o[0] + w, o[1] + dd}, {o[0] - w, o[1] + dd},
	}
	if d.towerCount > 4 {
		pts = append(pts,
			[2]float64{o[0], o[1] + dd},
			[2]float64{o[0] - w, o[1]},
			[2]float64{o[0] + w, o[1]},
			[2]float64{o[0] - w/2, o[1] - dd},
		)
	}
	return pts
}

// keep builds the central square donjon with its own merlon ring, roof slab
// and courtyard access.
func (b *builder) keep(prefix string, o [3]float64, d castleDims) {
	size := float64(d.keepSize) * 200
	b.ringWalls("keep", prefix+"_Keep", o, size, size, d.keepH, false)
	b.place("keep", actors.SpawnRequest{
		Name:       prefix + "_Keep_Roof",
		Location:   vec(o[0], o[1], o[2]+float64(d.keepH)*200+20),
		Scale:      vec(float64(d.keepSize)*2+0.4, float64(d.keepSize)*2+0.4, 0.4),
		StaticMesh: meshCube,
	})
}

// catapults stages siege weapons in the outer bailey, flanking the gate
// approach.
func (b *builder) catapults(prefix string, o [3]float64, d castleDims) {
	for i := 0; i < d.catapults; i++ {
		side := 1.0
		if i%2 == 1 {
			side = -1
		}
		cx := o[0] + side*(d.innerW/2+600+float64(i/2)*500)
		cy := o[1] - d.outerD/2 + 800

		b.place("siege_weapons", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Catapult_%d_Base", prefix, i),
			Location:   vec(cx, cy, o[2]+50),
			Scale:      vec(2.4, 1.6, 0.6),
			StaticMesh: meshCube,
		})
		b.place("siege_weapons", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Catapult_%d_Arm", prefix, i),
			Location:   vec(cx, cy, o[2]+200),
			Rotation:   vec(0, 45, 0),
			Scale:      vec(0.3, 0.3, 3),
			StaticMesh: meshCylinder,
		})
		b.place("siege_weapons", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Catapult_%d_Cup", prefix, i),
			Location:   vec(cx, cy+100, o[2]+330),
			Scale:      uniform(0.6),
			StaticMesh: meshSphere,
		})
	}
}

// village lines huts along the approach road outside the moat.
func (b *builder) village(prefix string, o [3]float64, d castleDims) {
	y := o[1] - (d.outerD/2 + 1800)
	startX := o[0] - float64(d.villageHuts-1)/2*700
	for i := 0; i < d.villageHuts; i++ {
		x := startX + float64(i)*700
		hy := y - float64(i%2)*500

		b.place("village", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Village_%d_Hut", prefix, i),
			Location:   vec(x, hy, o[2]+150),
			Scale:      uniform(3),
			StaticMesh: meshCube,
		})
		b.place("village", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Village_%d_Roof", prefix, i),
			Location:   vec(x, hy, o[2]+450),
			Scale:      vec(3.4, 3.4, 2),
			StaticMesh: meshCone,
		})
	}
}

// moat lays a water band around the outer walls with a drawbridge crossing
// at the gate.
func (b *builder) moat(prefix string, o [3]float64, d castleDims, gateX float64) {
	off := 400.0
	lenX := (d.outerW + 1400) / 100
	lenY := (d.outerD + 1400) / 100
	slabs := [4]struct {
		x, y, sx, sy float64
	}{
		{o[0], o[1] - d.outerD/2 - off, lenX, 6},
		{o[0], o[1] + d.outerD/2 + off, lenX, 6},
		{o[0] - d.outerW/2 - off, o[1], 6, lenY},
		{o[0] + d.outerW/2 + off, o[1], 6, lenY},
	}
	for i, s := range slabs {
		b.place("moat", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Moat_%d", prefix, i),
			Location:   vec(s.x, s.y, o[2]-40),
			Scale:      vec(s.sx, s.sy, 0.3),
			StaticMesh: meshCube,
		})
	}
	b.place("moat", actors.SpawnRequest{
		Name:       prefix + "_Drawbridge",
		Location:   vec(gateX, o[1]-d.outerD/2-off, o[2]-20),
		Scale:      vec(3, 8, 0.2),
		StaticMesh: meshCube,
	})
}

// flags crown the corner towers and the keep.
func (b *builder) flags(prefix string, o [3]float64, d castleDims) {
	spots := castleTowerSpots(o, d)[:4]
	spots = append(spots, [2]float64{o[0], o[1]})

	for i, p := range spots {
		topZ := o[2] + float64(d.towerH)*200
		if i == len(spots)-1 {
			topZ = o[2] + float64(d.keepH)*200
		}
		b.place("flags", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Flag_%d_Pole", prefix, i),
			Location:   vec(p[0], p[1], topZ+150),
			Scale:      vec(0.1, 0.1, 3),
			StaticMesh: meshCylinder,
		})
		b.place("flags", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Flag_%d_Banner", prefix, i),
			Location:   vec(p[0]+60, p[1], topZ+260),
			Scale:      vec(1.2, 0.1, 0.8),
			StaticMesh: meshCube,
		})
	}
}
