// Package annotation models the weld DI directives and provides typed
// access to their arguments.
//
// Directives are written as comment lines on type and constructor
// declarations:
//
//	//weld:contributes-binding scope=App boundType=example.Greeter replaces=example.LegacyGreeter
//	type EnglishGreeter struct{}
//
//	//weld:inject
//	func NewEnglishGreeter(clock Clock) *EnglishGreeter { ... }
//
// Arguments may be named (key=value) or positional; positional arguments
// are resolved against the per-kind argument schema at parse time, so
// consumers always read arguments by name.
package annotation

import (
	"strings"
)

// Kind identifies a weld directive.
type Kind uint8

// Directive kinds.
const (
	Invalid Kind = iota
	ContributesTo
	ContributesBinding
	ContributesMultibinding
	MergeComponent
	MergeSubcomponent
	MergeInterfaces
	MergeModules
	Inject
	AssistedInject
)

// Prefix is the comment prefix shared by all weld directives.
const Prefix = "weld:"

var kindNames = map[Kind]string{
	ContributesTo:           "contributes-to",
	ContributesBinding:      "contributes-binding",
	ContributesMultibinding: "contributes-multibinding",
	MergeComponent:          "merge-component",
	MergeSubcomponent:       "merge-subcomponent",
	MergeInterfaces:         "merge-interfaces",
	MergeModules:            "merge-modules",
	Inject:                  "inject",
	AssistedInject:          "assisted-inject",
}

// argument field names.
const (
	argScope     = "scope"
	argReplaces  = "replaces"
	argExcludes  = "excludes"
	argBoundType = "boundType"
)

// argSchema maps each kind to its ordered argument names. Positional
// arguments fill these slots in order; accessors look arguments up by
// name only, never by index.
var argSchema = map[Kind][]string{
	ContributesTo:           {argScope, argReplaces},
	ContributesBinding:      {argScope, argBoundType, argReplaces},
	ContributesMultibinding: {argScope, argBoundType},
	MergeComponent:          {argScope, argExcludes},
	MergeSubcomponent:       {argScope, argExcludes},
	MergeInterfaces:         {argScope, argExcludes},
	MergeModules:            {argScope, argExcludes},
	Inject:                  {},
	AssistedInject:          {},
}

// String returns the directive name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Contributes reports whether the kind contributes a type to a scope.
func (k Kind) Contributes() bool {
	return k == ContributesTo || k == ContributesBinding || k == ContributesMultibinding
}

// Merges reports whether the kind merges contributions for a scope.
func (k Kind) Merges() bool {
	switch k {
	case MergeComponent, MergeSubcomponent, MergeInterfaces, MergeModules:
		return true
	}
	return false
}

// ParseKind returns the kind for a directive name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return Invalid, NewUnsupportedKindError(name)
}

// Argument is a single named directive argument.
type Argument struct {
	Name  string
	Value string
}

// Annotation is a parsed weld directive attached to a declaration.
type Annotation struct {
	Kind Kind
	Args []Argument
}

// arg returns the value of the named argument and whether it was set.
func (a Annotation) arg(name string) (string, bool) {
	for _, arg := range a.Args {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return "", false
}

// supports reports whether the annotation kind declares the named argument.
func (a Annotation) supports(name string) bool {
	for _, n := range argSchema[a.Kind] {
		if n == name {
			return true
		}
	}
	return false
}

// Scope returns the scope argument. Every contributes-* and merge-* kind
// requires a scope.
func (a Annotation) Scope() (string, error) {
	if !a.supports(argScope) {
		return "", NewMalformedUsageError(a.Kind, argScope, "directive takes no scope argument")
	}
	v, ok := a.arg(argScope)
	if !ok || v == "" {
		return "", NewMalformedUsageError(a.Kind, argScope, "missing required scope argument")
	}
	return v, nil
}

// Replaces returns the replaced contributions, or nil if none were named.
func (a Annotation) Replaces() ([]string, error) {
	if !a.supports(argReplaces) {
		return nil, NewMalformedUsageError(a.Kind, argReplaces, "directive takes no replaces argument")
	}
	return a.list(argReplaces), nil
}

// Excludes returns the excluded contributions, or nil if none were named.
func (a Annotation) Excludes() ([]string, error) {
	if !a.supports(argExcludes) {
		return nil, NewMalformedUsageError(a.Kind, argExcludes, "directive takes no excludes argument")
	}
	return a.list(argExcludes), nil
}

// BoundType returns the explicitly bound type, or "" if the binding falls
// back to the sole declared supertype.
func (a Annotation) BoundType() (string, error) {
	if !a.supports(argBoundType) {
		return "", NewMalformedUsageError(a.Kind, argBoundType, "directive takes no boundType argument")
	}
	v, _ := a.arg(argBoundType)
	return v, nil
}

// list returns a comma-separated argument as a slice.
func (a Annotation) list(name string) []string {
	v, ok := a.arg(name)
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDirective parses a single comment line into an annotation. It
// returns false if the line is not a weld directive at all, and an error
// if it is one but is malformed or names an unsupported kind.
func ParseDirective(line string) (Annotation, bool, error) {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "//"))
	if !strings.HasPrefix(line, Prefix) {
		return Annotation{}, false, nil
	}
	fields := strings.Fields(strings.TrimPrefix(line, Prefix))
	if len(fields) == 0 {
		return Annotation{}, true, NewUnsupportedKindError("")
	}
	kind, err := ParseKind(fields[0])
	if err != nil {
		return Annotation{}, true, err
	}
	ant := Annotation{Kind: kind}
	schema := argSchema[kind]
	next := 0 // next positional slot
	for _, f := range fields[1:] {
		name, value, named := strings.Cut(f, "=")
		if !named {
			if next >= len(schema) {
				return Annotation{}, true, NewMalformedUsageError(kind, f, "too many positional arguments")
			}
			name, value = schema[next], f
		}
		if !ant.supports(name) {
			return Annotation{}, true, NewMalformedUsageError(kind, name, "unknown argument")
		}
		if _, dup := ant.arg(name); dup {
			return Annotation{}, true, NewMalformedUsageError(kind, name, "duplicate argument")
		}
		ant.Args = append(ant.Args, Argument{Name: name, Value: value})
		for next < len(schema) {
			if _, set := ant.arg(schema[next]); !set {
				break
			}
			next++
		}
	}
	return ant, true, nil
}
