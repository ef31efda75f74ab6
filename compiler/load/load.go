// Package load builds the module symbol table the code generators
// consume. It parses Go source files, attaches weld directives found on
// type and constructor declarations, and exposes class lookups by name
// and by directive kind.
//
// The loader is deliberately self-contained: it consumes the sources it
// is handed and never invokes the build toolchain, so it can run inside
// a compilation round on partial file sets.
package load

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/weldlabs/weld/schema/annotation"
)

// Module is the symbol table for one compilation round. It is recomputed
// from source on every round; generated files produced mid-round are fed
// back in through AddFile.
type Module struct {
	classes map[string]*Class // by qualified name
	order   []string
	pending map[string][]*Constructor // constructors seen before their class
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{
		classes: make(map[string]*Class),
		pending: make(map[string][]*Constructor),
	}
}

// ParseFiles builds a module from the given source files.
func ParseFiles(files []*SourceFile) (*Module, error) {
	m := NewModule()
	for _, f := range files {
		if _, err := m.AddFile(f); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Load reads all Go sources under dir (excluding tests, testdata and
// hidden directories) and builds the module symbol table for them. The
// returned files are sorted by path.
func Load(dir string) (*Module, []*SourceFile, error) {
	files, err := Collect(dir)
	if err != nil {
		return nil, nil, err
	}
	m, err := ParseFiles(files)
	if err != nil {
		return nil, nil, err
	}
	return m, files, nil
}

// Collect walks dir and returns its Go source files, sorted by path.
// Test files, testdata and hidden directories are skipped.
func Collect(dir string) ([]*SourceFile, error) {
	var files []*SourceFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files = append(files, &SourceFile{Path: abs, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// AddFile parses a single source file into the module and returns the
// classes it declares. Constructors may appear in a different file than
// their class; they are attached once both sides are seen.
func (m *Module) AddFile(f *SourceFile) ([]*Class, error) {
	fset := token.NewFileSet()
	af, err := parser.ParseFile(fset, f.Path, f.Content, parser.ParseComments)
	if err != nil {
		return nil, &ParseError{File: f.Path, Cause: err}
	}
	pkg := af.Name.Name
	var added []*Class
	for _, decl := range af.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil {
					doc = d.Doc
				}
				c, err := m.loadClass(pkg, f.Path, ts, doc)
				if err != nil {
					return nil, err
				}
				if c != nil {
					added = append(added, c)
				}
			}
		case *ast.FuncDecl:
			if d.Recv != nil {
				continue
			}
			if err := m.loadConstructor(pkg, f.Path, d); err != nil {
				return nil, err
			}
		}
	}
	return added, nil
}

// Class returns the class with the given qualified name.
func (m *Module) Class(qualified string) (*Class, bool) {
	c, ok := m.classes[qualified]
	return c, ok
}

// Classes returns all classes in the module, ordered by qualified name.
func (m *Module) Classes() []*Class {
	out := make([]*Class, 0, len(m.order))
	for _, q := range m.order {
		out = append(out, m.classes[q])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName() < out[j].QualifiedName() })
	return out
}

// ClassesWith returns all classes carrying an annotation of the given
// kind, ordered by qualified name.
func (m *Module) ClassesWith(kind annotation.Kind) []*Class {
	var out []*Class
	for _, c := range m.Classes() {
		if c.Annotated(kind) {
			out = append(out, c)
		}
	}
	return out
}

func (m *Module) loadClass(pkg, file string, ts *ast.TypeSpec, doc *ast.CommentGroup) (*Class, error) {
	ants, err := directives(doc)
	if err != nil {
		wrapElement(err, pkg+"."+ts.Name.Name)
		return nil, err
	}
	for _, ant := range ants {
		if ant.Kind == annotation.Inject || ant.Kind == annotation.AssistedInject {
			return nil, annotation.NewMalformedUsageError(ant.Kind, "",
				"inject directives apply to constructor functions, not types").WithElement(pkg + "." + ts.Name.Name)
		}
	}
	c := &Class{
		Name:        ts.Name.Name,
		Package:     pkg,
		File:        file,
		Supertypes:  supertypes(ts.Type),
		Annotations: ants,
	}
	q := c.QualifiedName()
	if existing, ok := m.classes[q]; ok {
		// Redeclaration across round passes replaces the symbol but
		// keeps already attached constructors.
		c.Constructors = existing.Constructors
	} else {
		m.order = append(m.order, q)
	}
	m.classes[q] = c
	for _, ctor := range m.pending[q] {
		if err := m.attach(c, ctor); err != nil {
			return nil, err
		}
	}
	delete(m.pending, q)
	return c, nil
}

func (m *Module) loadConstructor(pkg, file string, d *ast.FuncDecl) error {
	ants, err := directives(d.Doc)
	if err != nil {
		wrapElement(err, pkg+"."+d.Name.Name)
		return err
	}
	var kind annotation.Kind
	for _, ant := range ants {
		switch ant.Kind {
		case annotation.Inject, annotation.AssistedInject:
			kind = ant.Kind
		default:
			return annotation.NewMalformedUsageError(ant.Kind, "",
				"directive applies to type declarations, not functions").WithElement(pkg + "." + d.Name.Name)
		}
	}
	if kind == annotation.Invalid {
		return nil
	}
	if d.Type.Results == nil || len(d.Type.Results.List) == 0 {
		return annotation.NewMalformedUsageError(kind, "",
			"injected constructor must return the constructed type").WithElement(pkg + "." + d.Name.Name)
	}
	result := types.ExprString(d.Type.Results.List[0].Type)
	q := strings.TrimPrefix(result, "*")
	if !strings.Contains(q, ".") {
		q = pkg + "." + q
	}
	ctor := &Constructor{Name: d.Name.Name, Kind: kind, File: file, Params: params(d.Type), Result: result}
	if c, ok := m.classes[q]; ok {
		return m.attach(c, ctor)
	}
	m.pending[q] = append(m.pending[q], ctor)
	return nil
}

// attach binds a constructor to its class, enforcing the single injected
// constructor rule.
func (m *Module) attach(c *Class, ctor *Constructor) error {
	if len(c.Constructors) > 0 {
		names := []string{c.Constructors[0].Name, ctor.Name}
		return NewMultipleInjectConstructorsError(c.QualifiedName(), names)
	}
	c.Constructors = append(c.Constructors, ctor)
	return nil
}

// directives extracts weld annotations from a doc comment.
func directives(doc *ast.CommentGroup) ([]annotation.Annotation, error) {
	if doc == nil {
		return nil, nil
	}
	var ants []annotation.Annotation
	for _, line := range doc.List {
		ant, ok, err := annotation.ParseDirective(line.Text)
		if err != nil {
			return nil, err
		}
		if ok {
			ants = append(ants, ant)
		}
	}
	return ants, nil
}

// supertypes returns the embedded types of a struct or interface
// declaration, in declaration order.
func supertypes(expr ast.Expr) []string {
	var out []string
	switch t := expr.(type) {
	case *ast.StructType:
		for _, f := range t.Fields.List {
			if len(f.Names) == 0 {
				out = append(out, strings.TrimPrefix(types.ExprString(f.Type), "*"))
			}
		}
	case *ast.InterfaceType:
		for _, f := range t.Methods.List {
			if len(f.Names) == 0 {
				out = append(out, types.ExprString(f.Type))
			}
		}
	}
	return out
}

// params flattens a constructor signature into named parameters.
func params(ft *ast.FuncType) []Param {
	var out []Param
	if ft.Params == nil {
		return out
	}
	for _, f := range ft.Params.List {
		typ := types.ExprString(f.Type)
		if len(f.Names) == 0 {
			out = append(out, Param{Type: typ})
			continue
		}
		for _, n := range f.Names {
			out = append(out, Param{Name: n.Name, Type: typ})
		}
	}
	return out
}

// wrapElement ties a malformed-usage error to its declaration when the
// parser produced it without element context.
func wrapElement(err error, element string) {
	var mu *annotation.MalformedUsageError
	if errors.As(err, &mu) && mu.Element == "" {
		mu.Element = element
	}
}
