package forge

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"unrealforge.ai/internal/actors"
)

// MazeRequest shapes a solvable maze with entrance and exit markers. Seed 0
// draws one from the clock.
type MazeRequest struct {
	Rows       int
	Cols       int
	CellSize   float64
	WallHeight int
	Location   []float64
	Prefix     string
	Seed       int64
}

func (r MazeRequest) withDefaults() MazeRequest {
	if r.Rows <= 0 {
		r.Rows = 8
	}
	if r.Cols <= 0 {
		r.Cols = 8
	}
	if r.CellSize <= 0 {
		r.CellSize = 300
	}
	if r.WallHeight <= 0 {
		r.WallHeight = 3
	}
	if r.Prefix == "" {
		r.Prefix = "Maze"
	}
	if r.Seed == 0 {
		r.Seed = time.Now().UnixNano()
	}
	return r
}

// Maze carves a perfect maze with a recursive backtracker and raises the
// remaining grid walls as stacked cubes. The entrance opens on the left edge
// and the exit on the right, each flagged with a marker shape.
func (f *Forge) Maze(ctx context.Context, req MazeRequest) (*BuildResult, error) {
	req = req.withDefaults()
	b := f.begin(ctx, "maze", req.Prefix, false)
	o := originOf(req.Location)

	wall := carveMaze(req.Rows, req.Cols, rand.New(rand.NewSource(req.Seed)))
	gridH := req.Rows*2 + 1
	gridW := req.Cols*2 + 1
	cell := req.CellSize
	scale := cell / 100

	for r := 0; r < gridH; r++ {
		for c := 0; c < gridW; c++ {
			if !wall[r][c] {
				continue
			}
			for h := 0; h < req.WallHeight; h++ {
				b.place("walls", actors.SpawnRequest{
					Name: fmt.Sprintf("%s_Wall_%d_%d_%d", req.Prefix, r, c, h),
					Location: vec(
						o[0]+(float64(c)-float64(gridW)/2)*cell,
						o[1]+(float64(r)-float64(gridH)/2)*cell,
						o[2]+float64(h)*cell,
					),
					Scale:      uniform(scale),
					StaticMesh: meshCube,
				})
			}
		}
	}

	b.place("markers", actors.SpawnRequest{
		Name: req.Prefix + "_Entrance",
		Location: vec(
			o[0]-float64(gridW)/2*cell-cell,
			o[1]+(-float64(gridH)/2+1)*cell,
			o[2]+cell,
		),
		Scale:      uniform(0.5),
		StaticMesh: meshCylinder,
	})
	b.place("markers", actors.SpawnRequest{
		Name: req.Prefix + "_Exit",
		Location: vec(
			o[0]+float64(gridW)/2*cell+cell,
			o[1]+(-float64(gridH)/2+float64(req.Rows*2-1))*cell,
			o[2]+cell,
		),
		Scale:      uniform(0.5),
		StaticMesh: meshSphere,
	})

	b.res.setExtra("maze_size", fmt.Sprintf("%dx%d", req.Rows, req.Cols))
	b.res.setExtra("wall_count", b.res.Parts["walls"])
	b.res.setExtra("entrance", "Left side (cylinder marker)")
	b.res.setExtra("exit", "Right side (sphere marker)")
	return b.finish()
}

// carveMaze returns the wall grid of a perfect maze on a (2*rows+1) by
// (2*cols+1) lattice. Cells sit on odd coordinates; true marks a wall.
func carveMaze(rows, cols int, rng *rand.Rand) [][]bool {
	wall := make([][]bool, rows*2+1)
	for r := range wall {
		wall[r] = make([]bool, cols*2+1)
		for c := range wall[r] {
			wall[r][c] = true
		}
	}

	dirs := [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	var carve func(r, c int)
	carve = func(r, c int) {
		wall[r*2+1][c*2+1] = false
		for _, d := range rng.Perm(4) {
			dr, dc := dirs[d][0], dirs[d][1]
			nr, nc := r+dr, c+dc
			if nr < 0 || nr >= rows || nc < 0 || nc >= cols || !wall[nr*2+1][nc*2+1] {
				continue
			}
			wall[r*2+1+dr][c*2+1+dc] = false
			carve(nr, nc)
		}
	}
	carve(0, 0)

	wall[1][0] = false
	wall[rows*2-1][cols*2] = false
	return wall
}
