package di

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/weldlabs/weld/compiler/gen"
	"github.com/weldlabs/weld/compiler/load"
	"github.com/weldlabs/weld/compiler/track"
)

// FactoryGenerator emits a factory for every injected constructor. For a
// plain inject constructor the factory is a function mirroring the
// constructor signature; for an assisted-inject constructor it is a named
// function type plus a provider, so callers can hand the factory around
// and supply the assisted parameters at call time.
type FactoryGenerator struct{}

// Name implements gen.CodeGenerator.
func (FactoryGenerator) Name() string { return "weld.factories" }

// IsApplicable reports whether any pass input declares an injected
// constructor.
func (FactoryGenerator) IsApplicable(ctx *gen.Context) bool {
	set := fileSet(ctx.Files)
	for _, c := range ctx.Module.Classes() {
		if len(c.Constructors) > 0 && declaredIn(c, set) {
			return true
		}
	}
	return false
}

// Generate implements gen.CodeGenerator.
func (g FactoryGenerator) Generate(codegenDir string, module *load.Module, files []*load.SourceFile) ([]gen.File, error) {
	set := fileSet(files)
	var out []gen.File
	for _, c := range module.Classes() {
		if !declaredIn(c, set) {
			continue
		}
		ctor, err := c.InjectConstructor()
		if err != nil {
			return nil, err
		}
		if ctor == nil {
			continue
		}
		f := newFile(c.Package)
		if ctor.Assisted() {
			assistedFactory(f, c, ctor)
		} else {
			directFactory(f, c, ctor)
		}
		content, err := render(f)
		if err != nil {
			return nil, err
		}
		out = append(out, gen.File{
			Path:    outPath(c, "_factory.weld.go"),
			Content: content,
			Sources: sourcesOf(c, ctor),
			Mode:    track.TracksSources,
		})
	}
	return out, nil
}

// directFactory emits a plain function forwarding to the constructor.
func directFactory(f *jen.File, c *load.Class, ctor *load.Constructor) {
	f.Commentf("%sFactory constructs %s through its injected constructor.", c.Name, c.Name)
	f.Func().Id(c.Name+"Factory").Params(paramDecls(ctor)...).Add(typeExpr(ctor.Result)).Block(
		jen.Return(jen.Id(ctor.Name).Call(paramRefs(ctor)...)),
	)
}

// assistedFactory emits a factory type whose invocation supplies the
// assisted parameters.
func assistedFactory(f *jen.File, c *load.Class, ctor *load.Constructor) {
	f.Commentf("%sFactory builds %s instances from assisted parameters.", c.Name, c.Name)
	f.Type().Id(c.Name + "Factory").Func().Params(paramDecls(ctor)...).Add(typeExpr(ctor.Result))
	f.Commentf("New%sFactory returns the factory backed by %s.", c.Name, ctor.Name)
	f.Func().Id("New"+c.Name+"Factory").Params().Id(c.Name+"Factory").Block(
		jen.Return(jen.Id(ctor.Name)),
	)
}

// paramDecls renders the constructor parameter list, naming unnamed
// parameters positionally.
func paramDecls(ctor *load.Constructor) []jen.Code {
	out := make([]jen.Code, len(ctor.Params))
	for i, p := range ctor.Params {
		out[i] = jen.Id(paramName(p, i)).Add(typeExpr(p.Type))
	}
	return out
}

// paramRefs renders the forwarding call arguments.
func paramRefs(ctor *load.Constructor) []jen.Code {
	out := make([]jen.Code, len(ctor.Params))
	for i, p := range ctor.Params {
		out[i] = jen.Id(paramName(p, i))
	}
	return out
}

func paramName(p load.Param, i int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("p%d", i)
}

// render produces the file's source text.
func render(f *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
