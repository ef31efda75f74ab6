package di

import (
	"errors"

	"github.com/dave/jennifer/jen"

	"github.com/weldlabs/weld/compiler/gen"
	"github.com/weldlabs/weld/compiler/load"
	"github.com/weldlabs/weld/compiler/track"
	"github.com/weldlabs/weld/schema/annotation"
)

// weldPkg is the import path of the runtime binding registry.
const weldPkg = "github.com/weldlabs/weld"

// BindingGenerator turns contributes-binding and contributes-multibinding
// classes into module files that register the binding with the weld
// runtime registry. Each emitted module type carries a contributes-to
// directive for its scope, so a later pass's merge generator sees it as
// an ordinary contributed module.
type BindingGenerator struct{}

// Name implements gen.CodeGenerator.
func (BindingGenerator) Name() string { return "weld.bindings" }

// IsApplicable reports whether any pass input declares a binding
// contribution.
func (BindingGenerator) IsApplicable(ctx *gen.Context) bool {
	set := fileSet(ctx.Files)
	for _, c := range ctx.Module.Classes() {
		if bindingAnnotations(c) != nil && declaredIn(c, set) {
			return true
		}
	}
	return false
}

// Generate implements gen.CodeGenerator.
func (g BindingGenerator) Generate(codegenDir string, module *load.Module, files []*load.SourceFile) ([]gen.File, error) {
	set := fileSet(files)
	var out []gen.File
	for _, c := range module.Classes() {
		ants := bindingAnnotations(c)
		if ants == nil || !declaredIn(c, set) {
			continue
		}
		ctor, err := c.InjectConstructor()
		if err != nil {
			return nil, err
		}
		f := newFile(c.Package)
		moduleName := c.Name + "BindingsModule"
		scopes, regs, err := bindingRegistrations(c, ants, ctor)
		if err != nil {
			return nil, err
		}
		f.Commentf("%s registers the bindings %s contributes.", moduleName, c.Name)
		for _, scope := range scopes {
			f.Comment("weld:contributes-to " + scope)
		}
		f.Type().Id(moduleName).Struct()
		f.Func().Id("init").Params().Block(regs...)
		content, err := render(f)
		if err != nil {
			return nil, err
		}
		out = append(out, gen.File{
			Path:    outPath(c, "_bindings.weld.go"),
			Content: content,
			Sources: sourcesOf(c, ctor),
			Mode:    track.TracksSources,
		})
	}
	return out, nil
}

// bindingAnnotations returns the class's binding contributions, or nil.
func bindingAnnotations(c *load.Class) []annotation.Annotation {
	var out []annotation.Annotation
	for _, ant := range c.Annotations {
		if ant.Kind == annotation.ContributesBinding || ant.Kind == annotation.ContributesMultibinding {
			out = append(out, ant)
		}
	}
	return out
}

// bindingRegistrations renders one MustRegister call per binding
// annotation and returns the distinct scopes contributed to, in
// declaration order.
func bindingRegistrations(c *load.Class, ants []annotation.Annotation, ctor *load.Constructor) ([]string, []jen.Code, error) {
	var scopes []string
	seen := make(map[string]struct{})
	regs := make([]jen.Code, 0, len(ants))
	for _, ant := range ants {
		scope, err := ant.Scope()
		if err != nil {
			return nil, nil, wrapUsage(err, c)
		}
		bound, err := c.BoundType(ant)
		if err != nil {
			return nil, nil, wrapUsage(err, c)
		}
		if _, ok := seen[scope]; !ok {
			seen[scope] = struct{}{}
			scopes = append(scopes, scope)
		}
		provider := jen.Nil()
		if ctor != nil {
			provider = jen.Id(ctor.Name)
		}
		regs = append(regs, jen.Qual(weldPkg, "MustRegister").Call(jen.Qual(weldPkg, "Binding").Values(jen.Dict{
			jen.Id("Scope"):     jen.Lit(scope),
			jen.Id("BoundType"): jen.Lit(bound),
			jen.Id("Impl"):      jen.Lit(c.QualifiedName()),
			jen.Id("Provider"):  provider,
			jen.Id("Multi"):     jen.Lit(ant.Kind == annotation.ContributesMultibinding),
		})))
	}
	return scopes, regs, nil
}

// wrapUsage attaches the declaring element to a malformed-usage error.
func wrapUsage(err error, c *load.Class) error {
	var mu *annotation.MalformedUsageError
	if errors.As(err, &mu) && mu.Element == "" {
		return mu.WithElement(c.QualifiedName())
	}
	return err
}
