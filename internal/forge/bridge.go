package forge

import (
	"context"
	"fmt"
	"math"

	"unrealforge.ai/internal/actors"
)

// BridgeRequest shapes a suspension bridge: twin towers, a deck grid,
// parabolic main cables and vertical suspenders. DryRun walks the same
// geometry without spawning, so the metrics match a real build exactly.
type BridgeRequest struct {
	SpanLength    float64
	DeckWidth     float64
	TowerHeight   float64
	CableSagRatio float64 // sag as a fraction of the span, 0.1-0.15 typical
	ModuleSize    float64 // segment resolution; smaller means more actors
	Location      []float64
	Orientation   string // "x" or "y"
	Prefix        string
	DeckMesh      string
	TowerMesh     string
	CableMesh     string
	SuspenderMesh string
	DryRun        bool
}

func (r BridgeRequest) withDefaults() BridgeRequest {
	if r.SpanLength <= 0 {
		r.SpanLength = 6000
	}
	if r.DeckWidth <= 0 {
		r.DeckWidth = 800
	}
	if r.TowerHeight <= 0 {
		r.TowerHeight = 4000
	}
	if r.CableSagRatio <= 0 {
		r.CableSagRatio = 0.12
	}
	if r.ModuleSize <= 0 {
		r.ModuleSize = 200
	}
	if r.Orientation != "y" {
		r.Orientation = "x"
	}
	if r.Prefix == "" {
		r.Prefix = "Bridge"
	}
	if r.DeckMesh == "" {
		r.DeckMesh = meshCube
	}
	if r.TowerMesh == "" {
		r.TowerMesh = meshCube
	}
	if r.CableMesh == "" {
		r.CableMesh = meshCylinder
	}
	if r.SuspenderMesh == "" {
		r.SuspenderMesh = meshCylinder
	}
	return r
}

// SuspensionBridge builds towers at both ends of the span, hangs two main
// cables between them, grids the deck and drops suspenders every third
// module.
func (f *Forge) SuspensionBridge(ctx context.Context, req BridgeRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "suspension_bridge", req.Prefix, req.DryRun)
	sp := newSpan(req.Location, req.Orientation)

	cableOffsets := [2]float64{-req.DeckWidth / 2, req.DeckWidth / 2}

	// Towers sit on a 400-unit pedestal, so the effective cable anchor is
	// above the nominal tower height.
	effTower := 400 + req.TowerHeight
	for i, along := range [2]float64{-req.SpanLength / 2, req.SpanLength / 2} {
		b.place("towers", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Tower_%d_Base", req.Prefix, i),
			Location:   sp.at(along, 0, 200),
			Scale:      vec(5, 5, 4),
			StaticMesh: req.TowerMesh,
		})
		b.place("towers", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Tower_%d_Main", req.Prefix, i),
			Location:   sp.at(along, 0, 400+req.TowerHeight/2),
			Scale:      vec(3, 3, req.TowerHeight/100),
			StaticMesh: req.TowerMesh,
		})
		b.place("towers", actors.SpawnRequest{
			Name:       fmt.Sprintf("%s_Tower_%d_Top", req.Prefix, i),
			Location:   sp.at(along, 0, effTower),
			Scale:      vec(3.5, 3.5, 1),
			StaticMesh: req.TowerMesh,
		})
		for _, off := range cableOffsets {
			b.place("towers", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Tower_%d_Attachment_%d", req.Prefix, i, int(off)),
				Location:   sp.at(along, off, effTower),
				Scale:      uniform(0.5),
				StaticMesh: req.TowerMesh,
			})
		}
	}

	// Main cables follow y = a*x^2 - sag, anchored at the tower tops.
	sag := req.SpanLength * req.CableSagRatio
	a := 4 * sag / (req.SpanLength * req.SpanLength)
	nseg := int(req.SpanLength / req.ModuleSize)
	if nseg < 1 {
		nseg = 1
	}
	at := func(i int) (along, up float64) {
		x := -req.SpanLength/2 + float64(i)*req.SpanLength/float64(nseg)
		return x, effTower + a*x*x - sag
	}
	for ci, off := range cableOffsets {
		for i := 0; i < nseg; i++ {
			x0, z0 := at(i)
			x1, z1 := at(i + 1)
			length := math.Hypot(x1-x0, z1-z0)
			angle := math.Atan2(z1-z0, x1-x0) * 180 / math.Pi
			b.place("cable_segments", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Cable_%d_%d", req.Prefix, ci, i),
				Location:   sp.at((x0+x1)/2, off, (z0+z1)/2),
				Rotation:   sp.pitch(angle, 0),
				Scale:      vec(0.3, 0.3, length/100),
				StaticMesh: req.CableMesh,
			})
		}
	}

	nAcross := int(req.DeckWidth / req.ModuleSize)
	if nAcross < 1 {
		nAcross = 1
	}
	for i := 0; i < nseg; i++ {
		for j := 0; j < nAcross; j++ {
			b.place("deck_segments", actors.SpawnRequest{
				Name: fmt.Sprintf("%s_Deck_%d_%d", req.Prefix, i, j),
				Location: sp.at(
					-req.SpanLength/2+(float64(i)+0.5)*req.ModuleSize,
					-req.DeckWidth/2+(float64(j)+0.5)*req.ModuleSize,
					0,
				),
				Scale:      vec(req.ModuleSize/100, req.ModuleSize/100, 0.5),
				StaticMesh: req.DeckMesh,
			})
		}
	}

	spacing := req.ModuleSize * 3
	nSusp := int(req.SpanLength / spacing)
	if nSusp < 1 {
		nSusp = 1
	}
	for i := 0; i < nSusp; i++ {
		x := -req.SpanLength/2 + (float64(i)+0.5)*spacing
		cableZ := effTower + sag*(4*x*x/(req.SpanLength*req.SpanLength)-1)
		for _, off := range cableOffsets {
			b.place("suspenders", actors.SpawnRequest{
				Name:       fmt.Sprintf("%s_Suspender_%d_%d", req.Prefix, i, int(off)),
				Location:   sp.at(x, off, cableZ/2),
				Scale:      vec(0.1, 0.1, cableZ/100),
				StaticMesh: req.SuspenderMesh,
			})
		}
	}

	b.res.setExtra("span_length", req.SpanLength)
	b.res.setExtra("deck_width", req.DeckWidth)
	b.res.setExtra("est_area", req.SpanLength*req.DeckWidth)
	return b.finish()
}
