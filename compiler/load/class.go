package load

import (
	"github.com/weldlabs/weld/schema/annotation"
)

// SourceFile is a compilation-unit input: an absolute path and its
// content. Files are immutable once presented to a generation round.
type SourceFile struct {
	Path    string
	Content []byte
}

// Param is a single constructor parameter.
type Param struct {
	Name string
	Type string
}

// Constructor is a function declaration annotated with an inject or
// assisted-inject directive whose first result is the class it builds.
type Constructor struct {
	Name   string
	Kind   annotation.Kind // annotation.Inject or annotation.AssistedInject
	Params []Param
	Result string // first result type, e.g. "*EnglishGreeter"
	File   string
}

// Assisted reports whether the constructor is an assisted-inject constructor.
func (c *Constructor) Assisted() bool {
	return c.Kind == annotation.AssistedInject
}

// Class is a declaration reference derived from a source file: package,
// short name, supertype references and the weld directives attached to it.
// Classes are transient per round and recomputed from source on each load.
type Class struct {
	Name         string // short name
	Package      string // declaring package name
	File         string // declaring source file path
	Supertypes   []string
	Annotations  []annotation.Annotation
	Constructors []*Constructor
}

// QualifiedName returns the package-qualified class name.
func (c *Class) QualifiedName() string {
	return c.Package + "." + c.Name
}

// Annotation returns the first annotation of the given kind, if any.
func (c *Class) Annotation(kind annotation.Kind) (annotation.Annotation, bool) {
	for _, ant := range c.Annotations {
		if ant.Kind == kind {
			return ant, true
		}
	}
	return annotation.Annotation{}, false
}

// Annotated reports whether the class carries an annotation of the given kind.
func (c *Class) Annotated(kind annotation.Kind) bool {
	_, ok := c.Annotation(kind)
	return ok
}

// InjectConstructor returns the class's injected constructor, or nil if
// it has none. A class may have at most one inject-style or one
// assisted-inject-style constructor; any second annotated constructor is
// a MultipleInjectConstructorsError.
func (c *Class) InjectConstructor() (*Constructor, error) {
	if len(c.Constructors) == 0 {
		return nil, nil
	}
	if len(c.Constructors) > 1 {
		names := make([]string, len(c.Constructors))
		for i, ctor := range c.Constructors {
			names[i] = ctor.Name
		}
		return nil, NewMultipleInjectConstructorsError(c.QualifiedName(), names)
	}
	return c.Constructors[0], nil
}

// BoundType resolves the bound type of a contributes-binding or
// contributes-multibinding annotation: the explicit boundType argument if
// present, otherwise the sole declared supertype.
func (c *Class) BoundType(ant annotation.Annotation) (string, error) {
	bound, err := ant.BoundType()
	if err != nil {
		return "", err
	}
	if bound != "" {
		return bound, nil
	}
	if len(c.Supertypes) != 1 {
		return "", annotation.NewMalformedUsageError(ant.Kind, "boundType",
			"bound type is ambiguous without exactly one supertype").WithElement(c.QualifiedName())
	}
	return c.Supertypes[0], nil
}
