// Package di holds the built-in weld code generators: injected-constructor
// factories, binding module registration and scope merging. Each generator
// implements gen.CodeGenerator and renders its output with Jennifer; the
// merge generator participates in chained generation by consuming the module
// files the binding generator emits in earlier passes of the same round.
package di

import (
	"path/filepath"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/weldlabs/weld/compiler/gen"
	"github.com/weldlabs/weld/compiler/load"
)

// Generators returns the built-in generator set in invocation order.
func Generators() []gen.CodeGenerator {
	return []gen.CodeGenerator{
		FactoryGenerator{},
		BindingGenerator{},
		MergeGenerator{},
	}
}

// header is the marker stamped on every generated file.
const header = "Code generated by weld. DO NOT EDIT."

// newFile creates a Jennifer file with the standard header comment.
func newFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(header)
	return f
}

// snake converts a Go identifier to its snake_case file label.
func snake(s string) string {
	return inflect.Underscore(s)
}

// outPath places a class's generated file under its package directory.
func outPath(c *load.Class, suffix string) string {
	return filepath.Join(c.Package, snake(c.Name)+suffix)
}

// typeExpr renders a source type reference. References are package-local
// or package-qualified names, optionally behind a pointer.
func typeExpr(s string) *jen.Statement {
	if rest, ok := strings.CutPrefix(s, "*"); ok {
		return jen.Op("*").Add(typeExpr(rest))
	}
	if pkg, name, ok := strings.Cut(s, "."); ok {
		return jen.Id(pkg).Dot(name)
	}
	return jen.Id(s)
}

// fileSet indexes a pass's input files by path.
func fileSet(files []*load.SourceFile) map[string]struct{} {
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		set[f.Path] = struct{}{}
	}
	return set
}

// declaredIn reports whether the class or one of its constructors is
// declared in a file of the given set.
func declaredIn(c *load.Class, set map[string]struct{}) bool {
	if _, ok := set[c.File]; ok {
		return true
	}
	for _, ctor := range c.Constructors {
		if _, ok := set[ctor.File]; ok {
			return true
		}
	}
	return false
}

// sourcesOf collects the distinct declaring files of a class and its
// constructor, in stable order.
func sourcesOf(c *load.Class, ctor *load.Constructor) []string {
	out := []string{c.File}
	if ctor != nil && ctor.File != c.File {
		out = append(out, ctor.File)
	}
	return out
}
