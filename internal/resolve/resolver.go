// Package resolve orchestrates buildspec resolution: it wraps the
// normalization pipeline with a process-wide cache, discovers buildspec
// files on the configured search roots and assembles the dependency graph.
package resolve

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mitchellh/copystructure"
	"golang.org/x/sync/singleflight"

	"github.com/forgelabs/modforge/internal/builders"
	"github.com/forgelabs/modforge/internal/buildspec"
	"github.com/forgelabs/modforge/internal/config"
	"github.com/forgelabs/modforge/internal/dag"
	"github.com/forgelabs/modforge/internal/naming"
	"github.com/forgelabs/modforge/internal/osdeps"
	"github.com/forgelabs/modforge/internal/specfile"
)

// Processed is the result of resolving one buildspec block, with the
// identity and dependency summaries downstream consumers need.
type Processed struct {
	Spec         *buildspec.BuildSpec
	FullModName  string
	ShortModName string
	// Dependencies is the resolved dependency list with the buildspec's own
	// toolchain inserted as a first dependency when it is not the system
	// sentinel.
	Dependencies []*buildspec.Dependency
}

// cacheKey identifies one cached resolution. Resolutions with overrides are
// never cached.
type cacheKey struct {
	path      string
	validate  bool
	hidden    bool
	parseOnly bool
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s|%t|%t|%t", k.path, k.validate, k.hidden, k.parseOnly)
}

// pathKey identifies one discovered buildspec path.
type pathKey struct {
	name    string
	version string
}

// EscalationCycleError reports a dependency cycle discovered while escalating
// partial dependency records to fully parsed buildspecs: a buildspec on the
// escalation chain required itself again.
type EscalationCycleError struct {
	// Chain holds the source paths in escalation order, the repeated path last.
	Chain []string
}

func (e *EscalationCycleError) Error() string {
	return "dependency cycle during naming escalation: " + strings.Join(e.Chain, " -> ")
}

// Resolver wraps the resolution pipeline with caching and discovery. It is
// safe for concurrent use: at most one resolution is in flight per cache
// key, and requests for different keys proceed independently.
type Resolver struct {
	cfg      *config.Options
	builders *builders.Registry
	schemes  *naming.Registry
	naming   *naming.Service
	osProbe  osdeps.Prober
	logger   *slog.Logger

	cache Cache
	group singleflight.Group
}

// New returns a resolver for the given tool configuration. The naming
// service is wired to escalate partial dependency records through this
// resolver's own discovery.
func New(cfg *config.Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Resolver{
		cfg:      cfg,
		builders: builders.DefaultRegistry(),
		schemes:  naming.DefaultRegistry(),
		osProbe:  osdeps.NewSystemProber(logger),
		logger:   logger,
		cache:    newMemoryCache(),
	}
	r.naming = naming.NewService(cfg.NamingScheme, r.schemes, r.escalateOn(nil), logger)
	return r
}

// Naming exposes the resolver's naming service.
func (r *Resolver) Naming() *naming.Service { return r.naming }

// escalateOn returns an escalation callback bound to the given resolution
// chain. Escalation resolves a fully parsed buildspec for a partial
// dependency record via path discovery and a parse-only resolution; the
// chain guards against dependency cycles.
func (r *Resolver) escalateOn(chain []string) naming.EscalateFunc {
	return func(name, version string, hidden bool) (naming.Subject, error) {
		path, err := r.FindSpec(name, version)
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, fmt.Errorf("no buildspec found for %s version %s on robot paths %v",
				name, version, r.cfg.RobotPaths)
		}
		procs, err := r.processChain(path, nil, true, hidden, chain)
		if err != nil {
			return nil, err
		}
		if len(procs) == 0 {
			return nil, fmt.Errorf("buildspec %s contains no blocks", path)
		}
		return procs[0].Spec, nil
	}
}

// Process resolves every block of the buildspec file at path. With
// overrides set the result is computed fresh and not cached.
func (r *Resolver) Process(path string, overrides map[string]any) ([]*Processed, error) {
	return r.processChain(path, overrides, false, r.cfg.Hidden, nil)
}

// ParseOnly resolves the file without validation or per-block summaries,
// for callers that only need parameter access.
func (r *Resolver) ParseOnly(path string) ([]*Processed, error) {
	return r.processChain(path, nil, true, r.cfg.Hidden, nil)
}

// processChain resolves one file with chain holding the source paths already
// being resolved on the current escalation chain. A repeated path is a
// dependency cycle. Nested resolutions never enter the flight group: the
// outer call already holds a flight on this goroutine, so re-entering would
// block forever.
func (r *Resolver) processChain(path string, overrides map[string]any, parseOnly, hidden bool, chain []string) ([]*Processed, error) {
	validate := r.cfg.Validate && !parseOnly

	for _, seen := range chain {
		if seen == path {
			return nil, &EscalationCycleError{Chain: append(append([]string{}, chain...), path)}
		}
	}
	next := make([]string, len(chain)+1)
	copy(next, chain)
	next[len(chain)] = path

	if len(overrides) > 0 {
		return r.resolveFile(path, overrides, parseOnly, validate, hidden, next)
	}

	key := cacheKey{path: path, validate: validate, hidden: hidden, parseOnly: parseOnly}
	if procs, ok := r.cache.Specs(key); ok {
		return copyProcessed(procs)
	}

	if len(chain) > 0 {
		procs, err := r.resolveFile(path, nil, parseOnly, validate, hidden, next)
		if err != nil {
			return nil, err
		}
		r.cache.StoreSpecs(key, procs)
		return copyProcessed(procs)
	}

	// Single in-flight resolution per key; concurrent requests share it.
	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		if procs, ok := r.cache.Specs(key); ok {
			return procs, nil
		}
		procs, err := r.resolveFile(path, nil, parseOnly, validate, hidden, next)
		if err != nil {
			return nil, err
		}
		r.cache.StoreSpecs(key, procs)
		return procs, nil
	})
	if err != nil {
		return nil, err
	}
	return copyProcessed(v.([]*Processed))
}

// resolveFile runs the pipeline over every block of a source file. Naming
// queries made during the resolution escalate with the current chain so a
// cyclic dependency fails instead of hanging.
func (r *Resolver) resolveFile(path string, overrides map[string]any, parseOnly, validate, hidden bool, chain []string) ([]*Processed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading buildspec %s: %w", path, err)
	}

	blocks, err := specfile.SplitBlocks(raw, r.cfg.OnlyBlocks)
	if err != nil {
		return nil, err
	}

	nameSvc := naming.NewService(r.cfg.NamingScheme, r.schemes, r.escalateOn(chain), r.logger)

	procs := make([]*Processed, 0, len(blocks))
	for _, block := range blocks {
		spec, err := buildspec.New(block, buildspec.Options{
			Path:      path,
			Overrides: overrides,
			Validate:  validate,
			Hidden:    hidden,
			Policy: buildspec.Policy{
				ValidModuleClasses: r.cfg.ValidModuleClasses,
				ValidStops:         r.cfg.ValidStops,
				FilterDeps:         r.cfg.FilterDeps,
				CheckOSDeps:        r.cfg.CheckOSDeps,
			},
			Builders: r.builders,
			Naming:   nameSvc,
			OSProbe:  r.osProbe,
			Logger:   r.logger,
		})
		if err != nil {
			return nil, err
		}

		proc := &Processed{Spec: spec}
		if !parseOnly {
			if err := r.summarize(proc, nameSvc); err != nil {
				return nil, err
			}
		}
		procs = append(procs, proc)
	}

	r.logger.Debug("resolved buildspec", "path", path, "blocks", len(procs))
	return procs, nil
}

// summarize fills the per-block identity and dependency summaries, inserting
// the buildspec's toolchain as a dependency when it is not the sentinel.
func (r *Resolver) summarize(proc *Processed, nameSvc *naming.Service) error {
	spec := proc.Spec

	full, err := spec.FullModuleName()
	if err != nil {
		return err
	}
	short, err := spec.ShortModuleName()
	if err != nil {
		return err
	}
	proc.FullModName = full
	proc.ShortModName = short

	deps := spec.Dependencies()
	tc, err := spec.Toolchain()
	if err != nil {
		return err
	}
	if !tc.IsSystem() {
		tcDep := &buildspec.Dependency{
			Name:      tc.Name,
			Version:   tc.Version,
			Toolchain: buildspec.SystemToolchain,
			System:    true,
		}
		if tcDep.FullModName, err = nameSvc.FullModuleName(tcDep, false); err != nil {
			return err
		}
		if tcDep.ShortModName, err = nameSvc.ShortModuleName(tcDep, false); err != nil {
			return err
		}
		deps = append([]*buildspec.Dependency{tcDep}, deps...)
	}
	proc.Dependencies = deps
	return nil
}

// copyProcessed deep-copies cached results so callers never share mutable
// state with the cache or each other.
func copyProcessed(procs []*Processed) ([]*Processed, error) {
	out := make([]*Processed, len(procs))
	for i, proc := range procs {
		spec, err := proc.Spec.Copy()
		if err != nil {
			return nil, err
		}
		dup := &Processed{
			Spec:         spec,
			FullModName:  proc.FullModName,
			ShortModName: proc.ShortModName,
		}
		for _, dep := range proc.Dependencies {
			v, err := copystructure.Copy(dep)
			if err != nil {
				return nil, fmt.Errorf("copying dependency summary: %w", err)
			}
			dup.Dependencies = append(dup.Dependencies, v.(*buildspec.Dependency))
		}
		out[i] = dup
	}
	return out, nil
}

// Invalidate drops every cached resolution and discovered path.
func (r *Resolver) Invalidate() {
	r.cache.Clear()
}

// BuildGraph assembles the module dependency graph for a set of resolved
// buildspecs. Dependencies that were not themselves resolved still appear
// as nodes so install levels stay complete.
func (r *Resolver) BuildGraph(procs []*Processed) (*dag.Graph, error) {
	g := dag.NewGraph()
	for _, proc := range procs {
		g.AddNode(proc.FullModName, proc)
	}
	for _, proc := range procs {
		for _, dep := range proc.Dependencies {
			if _, ok := g.GetNode(dep.FullModName); !ok {
				g.AddNode(dep.FullModName, dep)
			}
			if err := g.AddEdge(dep.FullModName, proc.FullModName); err != nil {
				return nil, err
			}
		}
	}
	if hasCycle, path := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("dependency cycle detected: %v", path)
	}
	return g, nil
}
