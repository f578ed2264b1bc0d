package forge

import (
	"context"
	"fmt"
	"math"

	"unrealforge.ai/internal/actors"
)

// ArchRequest shapes a semicircular arch standing in the xz plane.
type ArchRequest struct {
	Radius   float64
	Segments int
	Location []float64
	Prefix   string
	Mesh     string
}

func (r ArchRequest) withDefaults() ArchRequest {
	if r.Radius <= 0 {
		r.Radius = 300
	}
	if r.Segments <= 0 {
		r.Segments = 6
	}
	if r.Prefix == "" {
		r.Prefix = "ArchBlock"
	}
	if r.Mesh == "" {
		r.Mesh = meshCube
	}
	return r
}

// Arch places Segments+1 blocks along a semicircle from one footing to the
// other.
func (f *Forge) Arch(ctx context.Context, req ArchRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "arch", req.Prefix, false)
	o := originOf(req.Location)
	scale := req.Radius / 300 / 2
	for i := 0; i <= req.Segments; i++ {
		theta := math.Pi * float64(i) / float64(req.Segments)
		b.place("blocks", actors.SpawnRequest{
			Name: fmt.Sprintf("%s_%d", req.Prefix, i),
			Location: vec(
				o[0]+req.Radius*math.Cos(theta),
				o[1],
				o[2]+req.Radius*math.Sin(theta),
			),
			Scale:      uniform(scale),
			StaticMesh: req.Mesh,
		})
	}
	return b.finish()
}
