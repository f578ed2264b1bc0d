package blueprints

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"sync"
)

// libraryKey identifies one reusable blueprint: a mesh plus a color rounded
// to hundredths, so float noise does not fragment the cache.
type libraryKey struct {
	mesh  string
	color [4]int
}

// Library caches colored physics blueprints so builders spawning thousands
// of same-looking pieces reuse one class per (mesh, color) instead of
// authoring a blueprint per piece. Names are stable across sessions, which
// lets a restarted process adopt blueprints it created earlier.
type Library struct {
	mu    sync.Mutex
	svc   *Service
	cache map[libraryKey]string
	log   *log.Logger
}

func NewLibrary(svc *Service, logger *log.Logger) *Library {
	if logger == nil {
		logger = log.New(os.Stdout, "[blueprints] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Library{svc: svc, cache: make(map[libraryKey]string), log: logger}
}

// EnsureColored returns the name of a compiled blueprint with the given mesh
// and color, creating it on first use. A blueprint left over from an earlier
// session is adopted as-is: create reports "already exists" and the name is
// cached without re-running setup.
func (l *Library) EnsureColored(ctx context.Context, mesh string, color []float64, baseName string) (string, error) {
	if mesh == "" {
		mesh = DefaultMesh
	}
	if baseName == "" {
		baseName = "Piece"
	}
	rgba, err := NormalizeColor(color)
	if err != nil {
		return "", err
	}
	key := libraryKey{mesh: mesh}
	for i, v := range rgba {
		key.color[i] = int(v*100 + 0.5)
	}

	l.mu.Lock()
	if name, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return name, nil
	}
	l.mu.Unlock()

	name := fmt.Sprintf("%s_Color_%d_BP", baseName, colorHash(key))

	created, resp := l.svc.EnsureCreated(ctx, name, "Actor")
	if resp.IsError() {
		return "", fmt.Errorf("create blueprint %s: %s", name, resp.ErrorMessage())
	}
	if created {
		if err := l.setup(ctx, name, mesh, rgba); err != nil {
			return "", err
		}
	}

	l.mu.Lock()
	l.cache[key] = name
	l.mu.Unlock()
	return name, nil
}

// setup runs the one-time component/mesh/physics/color/compile sequence on a
// freshly created blueprint. Only the component add is fatal; the later
// steps degrade to a less pretty but usable blueprint.
func (l *Library) setup(ctx context.Context, name, mesh string, rgba []float64) error {
	if resp := l.svc.AddComponent(ctx, AddComponentRequest{
		BlueprintName: name,
		ComponentType: "StaticMeshComponent",
		ComponentName: "Mesh",
	}); resp.IsError() {
		return fmt.Errorf("add component to %s: %s", name, resp.ErrorMessage())
	}
	if resp := l.svc.SetStaticMesh(ctx, name, "Mesh", mesh); resp.IsError() {
		l.log.Printf("set mesh on %s failed: %s", name, resp.ErrorMessage())
	}
	if resp := l.svc.SetPhysics(ctx, DefaultPhysics(name, "Mesh")); resp.IsError() {
		l.log.Printf("set physics on %s failed: %s", name, resp.ErrorMessage())
	}
	if resp := l.svc.SetMaterialColor(ctx, ColorRequest{
		BlueprintName: name,
		ComponentName: "Mesh",
		Color:         rgba,
	}); resp.IsError() {
		l.log.Printf("set color on %s failed: %s", name, resp.ErrorMessage())
	}
	if resp := l.svc.Compile(ctx, name); resp.IsError() {
		l.log.Printf("compile %s failed: %s", name, resp.ErrorMessage())
	}
	return nil
}

// Clear drops the cache; existing editor-side blueprints are untouched and
// will be adopted again on demand.
func (l *Library) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[libraryKey]string)
}

func (l *Library) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

func colorHash(key libraryKey) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%d|%d|%d|%d", key.mesh, key.color[0], key.color[1], key.color[2], key.color[3])
	return int(h.Sum32() % 10000)
}
