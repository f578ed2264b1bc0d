package forge

import (
	"context"
	"fmt"

	"unrealforge.ai/internal/actors"
)

// House styles.
const (
	HouseModern  = "modern"
	HouseCottage = "cottage"
)

// HouseRequest shapes a single house. Width, Depth and Height are outer
// dimensions in world units, built from 100-unit blocks around the center
// location.
type HouseRequest struct {
	Width    float64
	Depth    float64
	Height   float64
	Location []float64
	Prefix   string
	Mesh     string
	Style    string
}

func (r HouseRequest) withDefaults() HouseRequest {
	if r.Width <= 0 {
		r.Width = 1200
	}
	if r.Depth <= 0 {
		r.Depth = 1000
	}
	if r.Height <= 0 {
		r.Height = 600
	}
	if r.Prefix == "" {
		r.Prefix = "House"
	}
	if r.Mesh == "" {
		r.Mesh = meshCube
	}
	if r.Style != HouseCottage {
		r.Style = HouseModern
	}
	return r
}

// House builds a floor slab, perimeter walls with a door and window
// openings, and a style-dependent roof. Modern houses get a flat overhung
// roof and double-height windows; cottages get a stepped ridge roof, small
// windows and a chimney.
func (f *Forge) House(ctx context.Context, req HouseRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "house", req.Prefix, false)
	o := originOf(req.Location)

	nx := blockCount(req.Width, 4)
	ny := blockCount(req.Depth, 4)
	nz := blockCount(req.Height, 3)
	halfW := float64(nx) * 50
	halfD := float64(ny) * 50

	b.place("floor", actors.SpawnRequest{
		Name:       req.Prefix + "_Floor",
		Location:   vec(o[0], o[1], o[2]),
		Scale:      vec(float64(nx), float64(ny), 0.2),
		StaticMesh: req.Mesh,
	})

	doorLo, doorHi := nx/2-1, nx/2
	winRows := []int{nz / 2}
	if req.Style == HouseModern && nz/2+1 < nz {
		winRows = append(winRows, nz/2+1)
	}

	for h := 0; h < nz; h++ {
		z := o[2] + float64(h)*100 + 50
		window := intIn(winRows, h)

		for i := 0; i < nx; i++ {
			door := i >= doorLo && i <= doorHi && h < 2
			x := o[0] - halfW + (float64(i)+0.5)*100
			if !door && !(window && i%3 == 1) {
				b.place("walls", actors.SpawnRequest{
					Name:       fmt.Sprintf("%s_Wall_front_%d_%d", req.Prefix, h, i),
					Location:   vec(x, o[1]-halfD+50, z),
					StaticMesh: req.Mesh,
				})
			}
			if !(window && i%3 == 1) {
				b.place("walls", actors.SpawnRequest{
					Name:       fmt.Sprintf("%s_Wall_back_%d_%d", req.Prefix, h, i),
					Location:   vec(x, o[1]+halfD-50, z),
					StaticMesh: req.Mesh,
				})
			}
		}
		for j := 1; j < ny-1; j++ {
			if window && j%3 == 1 {
				continue
			}
			y := o[1] - halfD + (float64(j)+0.5)*100
			b.place("walls", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Wall_left_%d_%d", req.Prefix, h, j),
				Location:   vec(o[0]-halfW+50, y, z),
				StaticMesh: req.Mesh,
			})
			b.place("walls", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Wall_right_%d_%d", req.Prefix, h, j),
				Location:   vec(o[0]+halfW-50, y, z),
				StaticMesh: req.Mesh,
			})
		}
	}

	roofBase := o[2] + float64(nz)*100
	switch req.Style {
	case HouseCottage:
		levels := 0
		for l := 0; l*2 < ny; l++ {
			b.place("roof", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Roof_%d", req.Prefix, l),
				Location:   vec(o[0], o[1], roofBase+float64(l)*50),
				Scale:      vec(float64(nx)+0.4, float64(ny-2*l), 0.5),
				StaticMesh: req.Mesh,
			})
			levels++
		}
		b.place("chimney", actors.SpawnRequest{
			Name:       req.Prefix + "_Chimney",
			Location:   vec(o[0]+halfW-150, o[1], roofBase+float64(levels)*50+50),
			Scale:      vec(0.4, 0.4, 1.2),
			StaticMesh: meshCylinder,
		})
	default:
		b.place("roof", actors.SpawnRequest{
			Name:       req.Prefix + "_Roof",
			Location:   vec(o[0], o[1], roofBase),
			Scale:      vec(float64(nx)+0.4, float64(ny)+0.4, 0.3),
			StaticMesh: req.Mesh,
		})
	}

	b.res.setExtra("style", req.Style)
	b.res.setExtra("footprint", fmt.Sprintf("%dx%d", nx, ny))
	return b.finish()
}

// blockCount converts a world-unit dimension to whole 100-unit blocks.
func blockCount(units float64, min int) int {
	n := int(units / 100)
	if n < min {
		n = min
	}
	return n
}

func intIn(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
