package forge

import (
	"context"
	"fmt"

	"unrealforge.ai/internal/actors"
)

// StaircaseRequest shapes a straight run of steps. StepSize is the run,
// width and rise of each step in world units.
type StaircaseRequest struct {
	Steps    int
	StepSize []float64
	Location []float64
	Prefix   string
	Mesh     string
}

func (r StaircaseRequest) withDefaults() StaircaseRequest {
	if r.Steps <= 0 {
		r.Steps = 5
	}
	if len(r.StepSize) != 3 {
		r.StepSize = []float64{100, 100, 50}
	}
	if r.Prefix == "" {
		r.Prefix = "Stair"
	}
	if r.Mesh == "" {
		r.Mesh = meshCube
	}
	return r
}

// Staircase climbs along x, one block per step.
func (f *Forge) Staircase(ctx context.Context, req StaircaseRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "staircase", req.Prefix, false)
	o := originOf(req.Location)
	sx, sy, sz := req.StepSize[0], req.StepSize[1], req.StepSize[2]
	for i := 0; i < req.Steps; i++ {
		b.place("steps", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_%d", req.Prefix, i),
			Location:   vec(o[0]+float64(i)*sx, o[1], o[2]+float64(i)*sz),
			Scale:      vec(sx/100, sy/100, sz/100),
			StaticMesh: req.Mesh,
		})
	}
	return b.finish()
}
