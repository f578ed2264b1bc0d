// Package forge turns build requests into batches of actor spawns.
//
// Each builder walks a geometry, derives actor names from a prefix, and
// routes every placement through a Spawner so name arbitration and
// convergent creation apply uniformly. A failed placement is counted and
// logged, never fatal; only context cancellation aborts a build.
package forge

import (
	"context"
	"log"
	"os"
	"time"

	"unrealforge.ai/internal/actors"
	"unrealforge.ai/internal/protocol"
)

// Basic shape meshes shipped with every engine install.
const (
	meshCube     = "/Engine/BasicShapes/Cube.Cube"
	meshCylinder = "/Engine/BasicShapes/Cylinder.Cylinder"
	meshSphere   = "/Engine/BasicShapes/Sphere.Sphere"
	meshCone     = "/Engine/BasicShapes/Cone.Cone"
)

// Spawner places one actor in the level. *actors.Service satisfies it.
type Spawner interface {
	Spawn(ctx context.Context, req actors.SpawnRequest) protocol.Response
}

// Progress receives build lifecycle notifications. Calls arrive on the
// building goroutine, so implementations must return quickly.
type Progress interface {
	BuildStarted(build, prefix string)
	BuildProgress(build, prefix string, spawned, requested int)
	BuildEnded(build, prefix string, res *BuildResult)
}

type nopProgress struct{}

func (nopProgress) BuildStarted(string, string)            {}
func (nopProgress) BuildProgress(string, string, int, int) {}
func (nopProgress) BuildEnded(string, string, *BuildResult) {}

// progressEvery is the spawn interval between BuildProgress notifications.
const progressEvery = 25

// BuildResult summarizes one build: what was asked for, what landed, and how
// the pieces break down per part.
type BuildResult struct {
	Build     string
	Prefix    string
	DryRun    bool
	Requested int
	Spawned   int
	Failed    int
	Parts     map[string]int
	Names     []string
	Extra     map[string]any
	Elapsed   time.Duration
}

// Map renders the result in the vocabulary tool responses use.
func (r *BuildResult) Map() map[string]any {
	m := map[string]any{
		"build":      r.Build,
		"prefix":     r.Prefix,
		"requested":  r.Requested,
		"spawned":    r.Spawned,
		"failed":     r.Failed,
		"parts":      r.Parts,
		"elapsed_ms": r.Elapsed.Milliseconds(),
	}
	if r.DryRun {
		m["dry_run"] = true
	}
	if len(r.Names) > 0 {
		m["names"] = r.Names
	}
	for k, v := range r.Extra {
		m[k] = v
	}
	return m
}

func (r *BuildResult) setExtra(k string, v any) {
	if r.Extra == nil {
		r.Extra = map[string]any{}
	}
	r.Extra[k] = v
}

// Forge drives construction routines against a level.
type Forge struct {
	level Spawner
	prog  Progress
	log   *log.Logger
}

// New returns a Forge building through level. prog and logger may be nil.
func New(level Spawner, prog Progress, logger *log.Logger) *Forge {
	if prog == nil {
		prog = nopProgress{}
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[forge] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Forge{level: level, prog: prog, log: logger}
}

// builder carries one build's running state. The first context error sticks
// and turns every later placement into a no-op, so geometry loops need no
// cancellation checks of their own.
type builder struct {
	ctx     context.Context
	f       *Forge
	res     *BuildResult
	started time.Time
	err     error
}

func (f *Forge) begin(ctx context.Context, build, prefix string, dryRun bool) *builder {
	f.prog.BuildStarted(build, prefix)
	return &builder{
		ctx:     ctx,
		f:       f,
		started: time.Now(),
		res: &BuildResult{
			Build:  build,
			Prefix: prefix,
			DryRun: dryRun,
			Parts:  map[string]int{},
		},
	}
}

// place spawns one part. Dry runs count the placement without touching the
// level.
func (b *builder) place(part string, req actors.SpawnRequest) {
	if b.err != nil {
		return
	}
	if err := b.ctx.Err(); err != nil {
		b.err = err
		return
	}
	b.res.Requested++
	if b.res.DryRun {
		b.res.Parts[part]++
		return
	}
	if req.Type == "" {
		req.Type = "StaticMeshActor"
	}
	resp := b.f.level.Spawn(b.ctx, req)
	if resp.IsError() {
		b.res.Failed++
		b.f.log.Printf("%s: %s %q failed: %s", b.res.Build, part, req.Name, resp.ErrorMessage())
		return
	}
	b.res.Spawned++
	b.res.Parts[part]++
	b.res.Names = append(b.res.Names, placedName(resp, req.Name))
	if b.res.Spawned%progressEvery == 0 {
		b.f.prog.BuildProgress(b.res.Build, b.res.Prefix, b.res.Spawned, b.res.Requested)
	}
}

func (b *builder) finish() (*BuildResult, error) {
	b.res.Elapsed = time.Since(b.started)
	if b.err != nil {
		return nil, b.err
	}
	b.f.prog.BuildEnded(b.res.Build, b.res.Prefix, b.res)
	b.f.log.Printf("%s %q: spawned %d/%d (%d failed) in %s",
		b.res.Build, b.res.Prefix, b.res.Spawned, b.res.Requested, b.res.Failed,
		b.res.Elapsed.Round(time.Millisecond))
	return b.res, nil
}

// placedName prefers the arbitrated name reported by the level over the one
// asked for.
func placedName(resp protocol.Response, fallback string) string {
	if result, ok := resp["result"].(map[string]any); ok {
		if s, ok := result["final_name"].(string); ok && s != "" {
			return s
		}
		if s, ok := result["name"].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := resp["name"].(string); ok && s != "" {
		return s
	}
	return fallback
}

// originOf pins a request location to three axes, defaulting to the world
// origin.
func originOf(loc []float64) [3]float64 {
	var o [3]float64
	if len(loc) == 3 {
		o[0], o[1], o[2] = loc[0], loc[1], loc[2]
	}
	return o
}

func vec(x, y, z float64) []float64 { return []float64{x, y, z} }

func uniform(s float64) []float64 { return []float64{s, s, s} }
