package forge

import (
	"context"
	"fmt"

	"unrealforge.ai/internal/actors"
)

// WallRequest shapes a straight wall of stacked blocks.
type WallRequest struct {
	Length      int
	Height      int
	BlockSize   float64
	Location    []float64
	Orientation string // "x" or "y"
	Prefix      string
	Mesh        string
}

func (r WallRequest) withDefaults() WallRequest {
	if r.Length <= 0 {
		r.Length = 5
	}
	if r.Height <= 0 {
		r.Height = 2
	}
	if r.BlockSize <= 0 {
		r.BlockSize = 100
	}
	if r.Orientation != "y" {
		r.Orientation = "x"
	}
	if r.Prefix == "" {
		r.Prefix = "WallBlock"
	}
	if r.Mesh == "" {
		r.Mesh = meshCube
	}
	return r
}

// Wall lays Length x Height blocks along one axis.
func (f *Forge) Wall(ctx context.Context, req WallRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "wall", req.Prefix, false)
	o := originOf(req.Location)
	scale := req.BlockSize / 100
	for h := 0; h < req.Height; h++ {
		for i := 0; i < req.Length; i++ {
			run := float64(i) * req.BlockSize
			loc := vec(o[0]+run, o[1], o[2]+float64(h)*req.BlockSize)
			if req.Orientation == "y" {
				loc = vec(o[0], o[1]+run, o[2]+float64(h)*req.BlockSize)
			}
			b.place("blocks", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_%d_%d", req.Prefix, h, i),
				Location:   loc,
				Scale:      uniform(scale),
				StaticMesh: req.Mesh,
			})
		}
	}
	return b.finish()
}
