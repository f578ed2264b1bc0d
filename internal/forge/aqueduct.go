package forge

import (
	"context"
	"fmt"
	"math"

	"unrealforge.ai/internal/actors"
)

// AqueductRequest shapes a multi-tier Roman aqueduct: repeating arches on
// support piers, topped by a walled water channel. Piers taper ten percent
// per tier. DryRun walks the same geometry without spawning.
type AqueductRequest struct {
	Arches      int
	ArchRadius  float64
	PierWidth   float64
	Tiers       int
	DeckWidth   float64
	ModuleSize  float64
	Location    []float64
	Orientation string // "x" or "y"
	Prefix      string
	ArchMesh    string
	PierMesh    string
	DeckMesh    string
	DryRun      bool
}

func (r AqueductRequest) withDefaults() AqueductRequest {
	if r.Arches <= 0 {
		r.Arches = 18
	}
	if r.ArchRadius <= 0 {
		r.ArchRadius = 600
	}
	if r.PierWidth <= 0 {
		r.PierWidth = 200
	}
	if r.Tiers <= 0 {
		r.Tiers = 2
	}
	if r.DeckWidth <= 0 {
		r.DeckWidth = 600
	}
	if r.ModuleSize <= 0 {
		r.ModuleSize = 200
	}
	if r.Orientation != "y" {
		r.Orientation = "x"
	}
	if r.Prefix == "" {
		r.Prefix = "Aqueduct"
	}
	if r.ArchMesh == "" {
		r.ArchMesh = meshCylinder
	}
	if r.PierMesh == "" {
		r.PierMesh = meshCube
	}
	if r.DeckMesh == "" {
		r.DeckMesh = meshCube
	}
	return r
}

// Aqueduct builds tiers bottom to top, each a row of piers carrying
// semicircular arches, then lays the channel deck and side walls across the
// top tier. The structure starts at the request location and runs along the
// orientation axis.
func (f *Forge) Aqueduct(ctx context.Context, req AqueductRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "aqueduct", req.Prefix, req.DryRun)
	sp := newSpan(req.Location, req.Orientation)

	spacing := 2*req.ArchRadius + req.PierWidth
	totalLen := float64(req.Arches)*spacing + req.PierWidth
	tierH := 2*req.ArchRadius + req.PierWidth

	for tier := 0; tier < req.Tiers; tier++ {
		base := float64(tier) * tierH
		taper := 1 - 0.1*float64(tier)

		for p := 0; p <= req.Arches; p++ {
			b.place("piers", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Pier_T%d_P%d", req.Prefix, tier, p),
				Location:   sp.at(float64(p)*spacing, 0, base),
				Scale:      vec(req.PierWidth/100*taper, req.PierWidth/100*taper, tierH/100),
				StaticMesh: req.PierMesh,
			})
		}

		nseg := int(math.Pi * req.ArchRadius / req.ModuleSize)
		if nseg < 4 {
			nseg = 4
		}
		for arch := 0; arch < req.Arches; arch++ {
			archStart := float64(arch)*spacing + req.PierWidth/2
			at := func(i int) (along, up float64) {
				ang := float64(i) * math.Pi / float64(nseg)
				return archStart + req.ArchRadius + req.ArchRadius*math.Cos(ang),
					base + req.ArchRadius*math.Sin(ang)
			}
			for i := 0; i < nseg; i++ {
				x0, z0 := at(i)
				x1, z1 := at(i + 1)
				length := math.Hypot(x1-x0, z1-z0)
				angle := math.Atan2(z1-z0, x1-x0) * 180 / math.Pi
				b.place("arch_segments", actors.SpawnRequest{
					Name:       fmt.Sprintf("%s_Arch_T%d_A%d_S%d", req.Prefix, tier, arch, i),
					Location:   sp.at((x0+x1)/2, 0, (z0+z1)/2),
					Rotation:   sp.pitch(angle, 90),
					Scale:      vec(req.PierWidth/200*taper, req.PierWidth/200*taper, length/100),
					StaticMesh: req.ArchMesh,
				})
			}
		}
	}

	deckZ := float64(req.Tiers) * tierH
	nAlong := int(totalLen / req.ModuleSize)
	if nAlong < 1 {
		nAlong = 1
	}
	nAcross := int(req.DeckWidth / req.ModuleSize)
	if nAcross < 1 {
		nAcross = 1
	}
	for i := 0; i < nAlong; i++ {
		along := (float64(i) + 0.5) * req.ModuleSize
		for j := 0; j < nAcross; j++ {
			b.place("deck_segments", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Deck_%d_%d", req.Prefix, i, j),
				Location:   sp.at(along, -req.DeckWidth/2+(float64(j)+0.5)*req.ModuleSize, deckZ),
				Scale:      vec(req.ModuleSize/100, req.ModuleSize/100, 0.5),
				StaticMesh: req.DeckMesh,
			})
		}
		for side := 0; side < 2; side++ {
			across := -req.DeckWidth / 2
			if side == 1 {
				across = req.DeckWidth / 2
			}
			b.place("deck_segments", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Wall_S%d_%d", req.Prefix, side, i),
				Location:   sp.at(along, across, deckZ+100),
				Scale:      vec(req.ModuleSize/100, 0.2, 2),
				StaticMesh: req.DeckMesh,
			})
		}
	}

	b.res.setExtra("tiers", req.Tiers)
	b.res.setExtra("total_length", totalLen)
	b.res.setExtra("est_area", totalLen*req.DeckWidth)
	return b.finish()
}
