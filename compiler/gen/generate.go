package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/weldlabs/weld/compiler/load"
	"github.com/weldlabs/weld/compiler/track"
)

// Runner executes compilation rounds over a module. A round invokes all
// applicable generators pass by pass until no new files are produced,
// then commits the tracking store. A failed round commits nothing.
type Runner struct {
	cfg *Config
}

// NewRunner creates a runner from the given options. A target directory
// is required.
func NewRunner(opts ...Option) (*Runner, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Target == "" {
		return nil, errors.New("weld: no target directory: use WithTarget")
	}
	return &Runner{cfg: cfg}, nil
}

// Run executes one compilation round. module is the round's symbol table
// and files its full source set; changed names the changed subset for an
// incremental round, or nil for a full build. Fatal conditions are
// reported through the configured reporter and returned.
func (r *Runner) Run(ctx context.Context, module *load.Module, files []*load.SourceFile, changed []string) error {
	if err := r.run(ctx, module, files, changed); err != nil {
		r.cfg.Reporter.Report(err)
		return err
	}
	return nil
}

func (r *Runner) run(ctx context.Context, module *load.Module, files []*load.SourceFile, changed []string) error {
	cfg := r.cfg
	if err := os.MkdirAll(cfg.Target, 0o755); err != nil {
		return err
	}

	var store *track.Store
	passFiles := files
	if cfg.TrackSources {
		var err error
		store, err = track.Open(cfg.Target)
		if err != nil {
			return err
		}
		plan := store.Plan(changedSet(files, changed), removedSet(store, files))
		if err := r.restore(module, store, plan); err != nil {
			return err
		}
		if changed != nil {
			passFiles = roundInputs(files, changed, plan)
		}
	}

	seen := make(map[string]File) // paths written this round
	fixedPoint := false
	var producers []string
	for pass := 1; pass <= cfg.MaxPasses; pass++ {
		out, err := r.invoke(ctx, &Context{Module: module, Files: passFiles, Pass: pass})
		if err != nil {
			return err
		}
		unique, err := dedupe(cfg.Target, out)
		if err != nil {
			return err
		}
		if cfg.TrackSources {
			if err := r.validateTracking(unique); err != nil {
				return err
			}
		}
		next, err := r.write(module, store, unique, seen)
		if err != nil {
			return err
		}
		if len(next) == 0 {
			fixedPoint = true
			break
		}
		passFiles = next
		producers = producerNames(unique)
	}
	if !fixedPoint {
		return NewGeneratorError(strings.Join(producers, ", "), "passes",
			fmt.Sprintf("no fixed point after %d passes", cfg.MaxPasses), nil)
	}

	if store != nil {
		r.removeStale(store)
		return store.Commit()
	}
	return nil
}

// invoke runs IsApplicable and Generate for every registered generator,
// in parallel across generators. Descriptors are collected into a single
// consistent snapshot before any filesystem write happens.
func (r *Runner) invoke(ctx context.Context, pctx *Context) ([]File, error) {
	errg, _ := errgroup.WithContext(ctx)
	errg.SetLimit(r.cfg.Workers)
	var mu sync.Mutex
	var out []File
	for _, g := range r.cfg.Generators {
		g := g
		errg.Go(func() error {
			ok, err := applicable(g, pctx)
			if err != nil || !ok {
				return err
			}
			files, err := generate(g, pctx, r.cfg.Target)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, files...)
			mu.Unlock()
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Generator < out[j].Generator
	})
	return out, nil
}

// applicable calls IsApplicable with panic containment.
func applicable(g CodeGenerator, pctx *Context) (ok bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			ok, err = false, NewGeneratorError(g.Name(), "isApplicable", fmt.Sprintf("panic: %v", v), nil)
		}
	}()
	return g.IsApplicable(pctx), nil
}

// generate calls Generate with panic containment and stamps each
// descriptor with the generator identity.
func generate(g CodeGenerator, pctx *Context, dir string) (files []File, err error) {
	defer func() {
		if v := recover(); v != nil {
			files, err = nil, NewGeneratorError(g.Name(), "generate", fmt.Sprintf("panic: %v", v), nil)
		}
	}()
	files, err = g.Generate(dir, pctx.Module, pctx.Files)
	if err != nil {
		return nil, NewGeneratorError(g.Name(), "generate", "", err)
	}
	for i := range files {
		if files[i].Generator == "" {
			files[i].Generator = g.Name()
		}
		if files[i].Path == "" {
			return nil, NewGeneratorError(g.Name(), "generate", "descriptor with empty path", nil)
		}
	}
	return files, nil
}

// validateTracking fails the round on the first untracked descriptor.
// Violations are reported once per generator identity; additional
// violating generators are surfaced through the reporter before the
// round aborts on the first.
func (r *Runner) validateTracking(files []File) error {
	var first error
	reported := make(map[string]struct{})
	for _, f := range files {
		if f.Mode != track.NoTracking {
			continue
		}
		if _, ok := reported[f.Generator]; ok {
			continue
		}
		reported[f.Generator] = struct{}{}
		err := NewTrackingError(f.Generator, filepath.Join(r.cfg.Target, f.Path))
		if first == nil {
			first = err
		} else {
			r.cfg.Reporter.Report(err)
		}
	}
	return first
}

// write commits a pass's surviving descriptors to disk and returns the
// files that are new this round, which seed the next pass.
func (r *Runner) write(module *load.Module, store *track.Store, files []File, seen map[string]File) ([]*load.SourceFile, error) {
	var next []*load.SourceFile
	for _, f := range files {
		content := f.Content
		if strings.HasSuffix(f.Path, ".go") {
			formatted, err := imports.Process(f.Path, content, nil)
			if err != nil {
				return nil, NewGeneratorError(f.Generator, "write", "formatting "+f.Path, err)
			}
			content = formatted
		}
		if prev, ok := seen[f.Path]; ok {
			if bytes.Equal(prev.Content, content) {
				continue // already written this round
			}
			// A generator may refine its own output on a later pass,
			// once chained contributions reach it. Anything else is a
			// collision.
			if prev.Generator != f.Generator {
				return nil, NewDuplicateFileError(filepath.Join(r.cfg.Target, f.Path), prev.Generator, f.Generator)
			}
		}
		abs := filepath.Join(r.cfg.Target, f.Path)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(abs, content, 0o644); err != nil {
			return nil, err
		}
		f.Sources = r.flattenSources(f.Sources, seen)
		if store != nil {
			store.Put(&track.Record{
				Path:    f.Path,
				Hash:    track.Sum(content),
				Content: content,
				Sources: f.Sources,
				Mode:    f.Mode,
				By:      f.Generator,
			})
		}
		f.Content = content
		seen[f.Path] = f
		sf := &load.SourceFile{Path: abs, Content: content}
		if strings.HasSuffix(f.Path, ".go") {
			if _, err := module.AddFile(sf); err != nil {
				return nil, NewGeneratorError(f.Generator, "write", "parsing generated file "+f.Path, err)
			}
			next = append(next, sf)
		}
	}
	return next, nil
}

// flattenSources resolves source paths that point at files generated
// earlier in the round to the generated files' own sources, so tracking
// records always reference files the next round can see.
func (r *Runner) flattenSources(sources []string, seen map[string]File) []string {
	set := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		rel, err := filepath.Rel(r.cfg.Target, s)
		if err == nil {
			if prev, ok := seen[rel]; ok {
				for _, ps := range prev.Sources {
					set[ps] = struct{}{}
				}
				continue
			}
		}
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// restore rewrites previously generated files whose sources are
// untouched this round. Restored content is reused verbatim (a cache
// hit) and its classes are made visible to this round's generators.
func (r *Runner) restore(module *load.Module, store *track.Store, plan *track.Plan) error {
	for _, rec := range plan.Restore {
		abs := filepath.Join(r.cfg.Target, rec.Path)
		cur, err := os.ReadFile(abs)
		if err != nil || track.Sum(cur) != rec.Hash {
			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(abs, rec.Content, 0o644); err != nil {
				return err
			}
		}
		store.Put(rec)
		if strings.HasSuffix(rec.Path, ".go") {
			if _, err := module.AddFile(&load.SourceFile{Path: abs, Content: rec.Content}); err != nil {
				return err
			}
		}
	}
	return nil
}

// removeStale deletes generated files whose records were not staged this
// round: their sources are gone, or their generator declined to produce
// output for them again.
func (r *Runner) removeStale(store *track.Store) {
	for _, rec := range store.Records() {
		if !store.Staged(rec.Path) {
			os.Remove(filepath.Join(r.cfg.Target, rec.Path))
		}
	}
}

// changedSet returns the round's changed source paths; a nil changed
// slice means a full build, where every file counts as changed.
func changedSet(files []*load.SourceFile, changed []string) map[string]struct{} {
	set := make(map[string]struct{})
	if changed == nil {
		for _, f := range files {
			set[f.Path] = struct{}{}
		}
		return set
	}
	for _, p := range changed {
		set[p] = struct{}{}
	}
	return set
}

// removedSet returns recorded sources that no longer exist in the
// current file set.
func removedSet(store *track.Store, files []*load.SourceFile) map[string]struct{} {
	current := make(map[string]struct{}, len(files))
	for _, f := range files {
		current[f.Path] = struct{}{}
	}
	removed := make(map[string]struct{})
	for _, rec := range store.Records() {
		for _, s := range rec.Sources {
			if _, ok := current[s]; !ok {
				removed[s] = struct{}{}
			}
		}
	}
	return removed
}

// roundInputs selects an incremental round's first-pass inputs: the
// changed files plus the files the store says must be revisited.
func roundInputs(files []*load.SourceFile, changed []string, plan *track.Plan) []*load.SourceFile {
	want := make(map[string]struct{})
	for _, p := range changed {
		want[p] = struct{}{}
	}
	for _, p := range plan.Sources() {
		want[p] = struct{}{}
	}
	var out []*load.SourceFile
	for _, f := range files {
		if _, ok := want[f.Path]; ok {
			out = append(out, f)
		}
	}
	return out
}

func producerNames(files []File) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, f := range files {
		if _, ok := seen[f.Generator]; ok {
			continue
		}
		seen[f.Generator] = struct{}{}
		out = append(out, f.Generator)
	}
	sort.Strings(out)
	return out
}
