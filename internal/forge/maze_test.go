package forge

import (
	"context"
	"math/rand"
	"testing"
)

// mazePath walks the open lattice cells from entrance to exit.
func mazePath(wall [][]bool, rows, cols int) bool {
	type cell struct{ r, c int }
	start := cell{1, 0}
	goal := cell{rows*2 - 1, cols * 2}
	seen := map[cell]bool{start: true}
	queue := []cell{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == goal {
			return true
		}
		for _, d := range [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}} {
			next := cell{cur.r + d[0], cur.c + d[1]}
			if next.r < 0 || next.r >= len(wall) || next.c < 0 || next.c >= len(wall[0]) {
				continue
			}
			if wall[next.r][next.c] || seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

func TestCarveMazeSolvable(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 42, 99} {
		wall := carveMaze(4, 5, rand.New(rand.NewSource(seed)))
		if !mazePath(wall, 4, 5) {
			t.Fatalf("seed %d: no path from entrance to exit", seed)
		}
		for r := 0; r < 4; r++ {
			for c := 0; c < 5; c++ {
				if wall[r*2+1][c*2+1] {
					t.Fatalf("seed %d: cell %d,%d never carved", seed, r, c)
				}
			}
		}
	}
}

func TestMazeDeterministicSeed(t *testing.T) {
	run := func() []string {
		level := &fakeLevel{}
		f := testForge(level, nil)
		if _, err := f.Maze(context.Background(), MazeRequest{Rows: 4, Cols: 4, Seed: 42}); err != nil {
			t.Fatalf("Maze: %v", err)
		}
		out := make([]string, len(level.reqs))
		for i, r := range level.reqs {
			out[i] = r.Name
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("spawn %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestMazeBuild(t *testing.T) {
	level := &fakeLevel{}
	f := testForge(level, nil)

	res, err := f.Maze(context.Background(), MazeRequest{Seed: 7})
	if err != nil {
		t.Fatalf("Maze: %v", err)
	}
	if res.Parts["markers"] != 2 {
		t.Fatalf("markers = %d, want entrance and exit", res.Parts["markers"])
	}
	if res.Parts["walls"]%3 != 0 {
		t.Fatalf("walls = %d, want a multiple of the wall height", res.Parts["walls"])
	}
	if res.Extra["wall_count"] != res.Parts["walls"] {
		t.Fatalf("wall_count = %v, parts %d", res.Extra["wall_count"], res.Parts["walls"])
	}
	if res.Extra["maze_size"] != "8x8" {
		t.Fatalf("maze_size = %v", res.Extra["maze_size"])
	}
	entr := level.named("Maze_Entrance")
	if entr == nil || entr.StaticMesh != meshCylinder {
		t.Fatalf("entrance marker %+v, want cylinder", entr)
	}
	exit := level.named("Maze_Exit")
	if exit == nil || exit.StaticMesh != meshSphere {
		t.Fatalf("exit marker %+v, want sphere", exit)
	}
	if entr.Location[0] >= exit.Location[0] {
		t.Fatalf("entrance x %v not left of exit x %v", entr.Location[0], exit.Location[0])
	}
}
