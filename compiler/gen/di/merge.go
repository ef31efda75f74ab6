package di

import (
	"sort"

	"github.com/dave/jennifer/jen"

	"github.com/weldlabs/weld/compiler/gen"
	"github.com/weldlabs/weld/compiler/load"
	"github.com/weldlabs/weld/compiler/track"
	"github.com/weldlabs/weld/schema/annotation"
)

// MergeGenerator aggregates scope contributions into merged components.
// For every merge-annotated class it collects the module's contributions
// to the merged scopes, applies excludes and replaces, and emits a merged
// descriptor type listing the surviving modules.
//
// The generator re-runs whenever a pass's inputs declare a contribution,
// so contributions emitted by other generators in earlier passes of the
// round (notably binding modules) are folded in before the round settles.
type MergeGenerator struct{}

// Name implements gen.CodeGenerator.
func (MergeGenerator) Name() string { return "weld.merge" }

// IsApplicable reports whether the pass inputs declare a merge point or a
// contribution that an existing merge point must fold in.
func (MergeGenerator) IsApplicable(ctx *gen.Context) bool {
	set := fileSet(ctx.Files)
	merges := false
	for _, c := range ctx.Module.Classes() {
		if mergeAnnotations(c) != nil {
			merges = true
			if declaredIn(c, set) {
				return true
			}
		}
	}
	if !merges {
		return false
	}
	for _, c := range ctx.Module.Classes() {
		if contributesAny(c) && declaredIn(c, set) {
			return true
		}
	}
	return false
}

// Generate implements gen.CodeGenerator.
func (g MergeGenerator) Generate(codegenDir string, module *load.Module, files []*load.SourceFile) ([]gen.File, error) {
	var out []gen.File
	for _, m := range module.Classes() {
		ants := mergeAnnotations(m)
		if ants == nil {
			continue
		}
		var scopes []string
		moduleSet := make(map[string]struct{})
		sourceSet := map[string]struct{}{m.File: {}}
		for _, ant := range ants {
			scope, err := ant.Scope()
			if err != nil {
				return nil, wrapUsage(err, m)
			}
			excludes, err := ant.Excludes()
			if err != nil {
				return nil, wrapUsage(err, m)
			}
			merged, err := contributionsTo(module, scope, excludes)
			if err != nil {
				return nil, err
			}
			scopes = append(scopes, scope)
			for _, c := range merged {
				moduleSet[c.QualifiedName()] = struct{}{}
				sourceSet[c.File] = struct{}{}
			}
		}
		f := newFile(m.Package)
		mergedName := "Merged" + m.Name
		f.Commentf("%s is the merged view of %s: the modules contributed to its scopes after excludes and replacements.", mergedName, m.Name)
		f.Type().Id(mergedName).Struct()
		f.Commentf("Scopes lists the scopes %s merges.", m.Name)
		f.Func().Params(jen.Id(mergedName)).Id("Scopes").Params().Index().String().Block(
			jen.Return(stringSlice(scopes)),
		)
		f.Commentf("Modules lists the contributed modules merged into %s.", m.Name)
		f.Func().Params(jen.Id(mergedName)).Id("Modules").Params().Index().String().Block(
			jen.Return(stringSlice(sortedKeys(moduleSet))),
		)
		content, err := render(f)
		if err != nil {
			return nil, err
		}
		out = append(out, gen.File{
			Path:    outPath(m, "_merged.weld.go"),
			Content: content,
			Sources: sortedKeys(sourceSet),
			Mode:    track.TracksSources,
		})
	}
	return out, nil
}

// contributionsTo resolves a scope's surviving contributions: every class
// contributing to the scope, minus explicit excludes, minus classes
// replaced by a surviving contribution.
func contributionsTo(module *load.Module, scope string, excludes []string) ([]*load.Class, error) {
	excluded := make(map[string]struct{}, len(excludes))
	for _, e := range excludes {
		excluded[e] = struct{}{}
	}
	var kept []*load.Class
	replaced := make(map[string]struct{})
	for _, c := range module.Classes() {
		ant, ok := scopeContribution(c, scope)
		if !ok {
			continue
		}
		if _, skip := excluded[c.QualifiedName()]; skip {
			continue
		}
		kept = append(kept, c)
		if repl, err := ant.Replaces(); err == nil {
			for _, r := range repl {
				replaced[r] = struct{}{}
			}
		}
	}
	out := kept[:0]
	for _, c := range kept {
		if _, gone := replaced[c.QualifiedName()]; !gone {
			out = append(out, c)
		}
	}
	return out, nil
}

// scopeContribution returns the class's contribution annotation for the
// given scope, if any.
func scopeContribution(c *load.Class, scope string) (annotation.Annotation, bool) {
	for _, ant := range c.Annotations {
		if !ant.Kind.Contributes() {
			continue
		}
		if s, err := ant.Scope(); err == nil && s == scope {
			return ant, true
		}
	}
	return annotation.Annotation{}, false
}

// mergeAnnotations returns the class's merge directives, or nil.
func mergeAnnotations(c *load.Class) []annotation.Annotation {
	var out []annotation.Annotation
	for _, ant := range c.Annotations {
		if ant.Kind.Merges() {
			out = append(out, ant)
		}
	}
	return out
}

// contributesAny reports whether the class contributes to any scope.
func contributesAny(c *load.Class) bool {
	for _, ant := range c.Annotations {
		if ant.Kind.Contributes() {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func stringSlice(values []string) *jen.Statement {
	items := make([]jen.Code, len(values))
	for i, v := range values {
		items[i] = jen.Lit(v)
	}
	return jen.Index().String().Values(items...)
}
