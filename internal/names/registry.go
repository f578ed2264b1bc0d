// Package names arbitrates unique actor names for creation requests. A
// Registry remembers which names this process believes exist and mints fresh
// candidates from escalating suffix strategies, optionally confirming against
// the live level through a Prober. It is advisory: the editor remains the
// authority, and creation conflicts are converged by the spawn workflow
// rather than prevented here.
package names

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxCounterAttempts = 1000

// Prober answers best-effort existence queries against the editor level.
type Prober interface {
	// LookupNames returns the names of actors matching pattern (editor-side
	// substring semantics).
	LookupNames(ctx context.Context, pattern string) ([]string, error)
}

// Registry is scoped to one logical session and safe for concurrent use.
// Nothing is persisted; a restart starts from an empty set and a new
// session token.
type Registry struct {
	mu       sync.Mutex
	known    map[string]struct{}
	counters map[string]int
	session  string
	log      *log.Logger
}

func NewRegistry(logger *log.Logger) *Registry {
	return NewRegistryAt(time.Now(), logger)
}

// NewRegistryAt pins the session token to a given start time.
func NewRegistryAt(start time.Time, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(os.Stdout, "[names] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Registry{
		known:    make(map[string]struct{}),
		counters: make(map[string]int),
		session:  sessionToken(start),
		log:      logger,
	}
}

// sessionToken is the low six digits of the unix start time: stable for the
// registry's lifetime, different across restarts.
func sessionToken(t time.Time) string {
	s := strconv.FormatInt(t.Unix(), 10)
	if len(s) > 6 {
		s = s[len(s)-6:]
	}
	return s
}

func (r *Registry) Session() string { return r.session }

// Exists reports whether name is believed to exist, checking the local set
// before probing. A non-nil error means the probe itself failed: the false
// it accompanies is "unknown", not "confirmed absent", and callers decide
// how much to trust it. Positive probe results are cached.
func (r *Registry) Exists(ctx context.Context, name string, probe Prober) (bool, error) {
	r.mu.Lock()
	_, ok := r.known[name]
	r.mu.Unlock()
	if ok {
		return true, nil
	}
	if probe == nil {
		return false, nil
	}
	found, err := probe.LookupNames(ctx, name)
	if err != nil {
		return false, fmt.Errorf("probe %q: %w", name, err)
	}
	for _, cand := range found {
		if cand == name || isGeneratedVariant(name, cand) {
			r.MarkCreated(name)
			return true, nil
		}
	}
	return false, nil
}

// isGeneratedVariant reports whether cand looks like a suffix-generated
// sibling of base ("Tower_2" for "Tower"). A bare prefix such as "Towering"
// does not count; requiring the underscore keeps legitimately distinct names
// from escalating each other.
func isGeneratedVariant(base, cand string) bool {
	return strings.HasPrefix(cand, base+"_")
}

// Resolve picks a name for a new actor: the base itself when free, then a
// session-suffixed form, then numbered suffixes from the per-base counter,
// and finally a random short suffix once the counter search is exhausted.
// Probe failures are logged and treated as "absent"; a wrong guess surfaces
// as an already-exists conflict downstream, which the creation workflow
// converges anyway.
func (r *Registry) Resolve(ctx context.Context, baseName string, probe Prober) string {
	base := strings.TrimSpace(baseName)
	if base == "" {
		base = "Actor_" + r.session
	}

	if !r.existsLenient(ctx, base, probe) {
		return base
	}

	cand := base + "_" + r.session
	if !r.existsLenient(ctx, cand, probe) {
		return cand
	}

	for i := 0; i < maxCounterAttempts; i++ {
		cand = base + "_" + strconv.Itoa(r.nextCounter(base))
		if !r.existsLenient(ctx, cand, probe) {
			return cand
		}
	}

	r.mu.Lock()
	n := r.counters[base]
	r.mu.Unlock()
	cand = fmt.Sprintf("%s_%s_%d_%s", base, r.session, n, uuid.NewString()[:8])
	r.log.Printf("counter search exhausted for %q, falling back to %s", base, cand)
	return cand
}

func (r *Registry) existsLenient(ctx context.Context, name string, probe Prober) bool {
	ok, err := r.Exists(ctx, name, probe)
	if err != nil {
		r.log.Printf("existence probe failed, assuming %q absent: %v", name, err)
		return false
	}
	return ok
}

func (r *Registry) nextCounter(base string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[base]++
	return r.counters[base]
}

// MarkCreated records a name as existing. Called after a successful spawn,
// after a convergent already-exists outcome, and on positive probes.
func (r *Registry) MarkCreated(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[name] = struct{}{}
}

// MarkDeleted forgets a name after a confirmed deletion.
func (r *Registry) MarkDeleted(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.known, name)
}

// Clear drops the known set and all counters.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known = make(map[string]struct{})
	r.counters = make(map[string]int)
}

// Known returns a sorted snapshot of the known-name set.
func (r *Registry) Known() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.known))
	for n := range r.known {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) KnownCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.known)
}
