package forge

import (
	"context"
	"fmt"

	"unrealforge.ai/internal/actors"
)

// PyramidRequest shapes a stepped pyramid of cubes.
type PyramidRequest struct {
	BaseSize  int
	BlockSize float64
	Location  []float64
	Prefix    string
	Mesh      string
}

func (r PyramidRequest) withDefaults() PyramidRequest {
	if r.BaseSize <= 0 {
		r.BaseSize = 3
	}
	if r.BlockSize <= 0 {
		r.BlockSize = 100
	}
	if r.Prefix == "" {
		r.Prefix = "PyramidBlock"
	}
	if r.Mesh == "" {
		r.Mesh = meshCube
	}
	return r
}

// Pyramid stacks shrinking square layers centered on the request location.
func (f *Forge) Pyramid(ctx context.Context, req PyramidRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "pyramid", req.Prefix, false)
	o := originOf(req.Location)
	scale := req.BlockSize / 100
	for level := 0; level < req.BaseSize; level++ {
		count := req.BaseSize - level
		half := float64(count-1) / 2
		for x := 0; x < count; x++ {
			for y := 0; y < count; y++ {
				b.place("blocks", actors.SpawnRequest{
					Name: fmt.Sprintf("%s_%d_%d_%d", req.Prefix, level, x, y),
					Location: vec(
						o[0]+(float64(x)-half)*req.BlockSize,
						o[1]+(float64(y)-half)*req.BlockSize,
						o[2]+float64(level)*req.BlockSize,
					),
					Scale:      uniform(scale),
					StaticMesh: req.Mesh,
				})
			}
		}
	}
	return b.finish()
}
