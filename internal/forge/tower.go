package forge

import (
	"context"
	"fmt"
	"math"

	"unrealforge.ai/internal/actors"
)

// Tower styles.
const (
	TowerCylindrical = "cylindrical"
	TowerSquare      = "square"
	TowerTapered     = "tapered"
)

// TowerRequest shapes a multi-level tower. BaseSize is the footprint in
// blocks.
type TowerRequest struct {
	Height    int
	BaseSize  int
	BlockSize float64
	Location  []float64
	Prefix    string
	Mesh      string
	Style     string
}

func (r TowerRequest) withDefaults() TowerRequest {
	if r.Height <= 0 {
		r.Height = 10
	}
	if r.BaseSize <= 0 {
		r.BaseSize = 4
	}
	if r.BlockSize <= 0 {
		r.BlockSize = 100
	}
	if r.Prefix == "" {
		r.Prefix = "TowerBlock"
	}
	if r.Mesh == "" {
		r.Mesh = meshCube
	}
	switch r.Style {
	case TowerSquare, TowerTapered:
	default:
		r.Style = TowerCylindrical
	}
	return r
}

// Tower builds level rings in the requested style, with cylinder details on
// the corners every third level.
func (f *Forge) Tower(ctx context.Context, req TowerRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "tower", req.Prefix, false)
	o := originOf(req.Location)
	bs := req.BlockSize
	scale := bs / 100

	for level := 0; level < req.Height; level++ {
		z := o[2] + float64(level)*bs

		switch req.Style {
		case TowerTapered:
			size := req.BaseSize - level/2
			if size < 1 {
				size = 1
			}
			b.towerRing(req.Prefix, req.Mesh, o, level, size, bs, z, scale)
		case TowerSquare:
			b.towerRing(req.Prefix, req.Mesh, o, level, req.BaseSize, bs, z, scale)
		default:
			radius := float64(req.BaseSize) / 2 * bs
			n := int(2 * math.Pi * radius / bs)
			if n < 8 {
				n = 8
			}
			for i := 0; i < n; i++ {
				angle := 2 * math.Pi * float64(i) / float64(n)
				b.place("blocks", actors.SpawnRequest{
					Name: fmt.Sprintf("%s_%d_%d", req.Prefix, level, i),
					Location: vec(
						o[0]+radius*math.Cos(angle),
						o[1]+radius*math.Sin(angle),
						z,
					),
					Scale:      uniform(scale),
					StaticMesh: req.Mesh,
				})
			}
		}

		if level%3 == 2 && level < req.Height-1 {
			r := (float64(req.BaseSize)/2 + 0.5) * bs
			for corner := 0; corner < 4; corner++ {
				angle := float64(corner) * math.Pi / 2
				b.place("details", actors.SpawnRequest{
					Name: fmt.Sprintf("%s_%d_detail_%d", req.Prefix, level, corner),
					Location: vec(
						o[0]+r*math.Cos(angle),
						o[1]+r*math.Sin(angle),
						z,
					),
					Scale:      uniform(scale * 0.7),
					StaticMesh: meshCylinder,
				})
			}
		}
	}

	b.res.setExtra("tower_style", req.Style)
	return b.finish()
}

var towerSides = [4]string{"front", "right", "back", "left"}

// towerRing places the four walls of one square tower level.
func (b *builder) towerRing(prefix, mesh string, o [3]float64, level, size int, bs, z, scale float64) {
	half := float64(size) / 2
	for side := 0; side < 4; side++ {
		for i := 0; i < size; i++ {
			fi := float64(i)
			var x, y float64
			switch side {
			case 0:
				x, y = o[0]+(fi-half+0.5)*bs, o[1]-half*bs
			case 1:
				x, y = o[0]+half*bs, o[1]+(fi-half+0.5)*bs
			case 2:
				x, y = o[0]+(half-fi-0.5)*bs, o[1]+half*bs
			default:
				x, y = o[0]-half*bs, o[1]+(half-fi-0.5)*bs
			}
			b.place("blocks", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_%d_%s_%d", prefix, level, towerSides[side], i),
				Location:   vec(x, y, z),
				Scale:      uniform(scale),
				StaticMesh: mesh,
			})
		}
	}
}
