// Package gen drives weld code generation: it invokes the registered
// code generators round by round, checks their output for collisions,
// writes accepted files under the codegen directory and keeps the
// incremental tracking store consistent.
package gen

import (
	"github.com/weldlabs/weld/compiler/load"
	"github.com/weldlabs/weld/compiler/track"
)

// Context carries one generation pass's input to a generator.
type Context struct {
	// Module is the symbol table for the round, including classes parsed
	// from files generated in earlier passes of the same round.
	Module *load.Module

	// Files holds this pass's input files: all sources on the first
	// pass, the previous pass's generated output on later passes.
	Files []*load.SourceFile

	// Pass is the 1-based pass number within the round.
	Pass int
}

// File is a generated-file descriptor. Generators return descriptors and
// never touch the filesystem themselves; writes happen only after the
// whole pass's output has been collision-checked.
type File struct {
	// Path of the generated file, relative to the codegen directory.
	Path string

	// Content is the full file content.
	Content []byte

	// Sources lists the source file paths the content was derived from.
	// Must be set when Mode is track.TracksSources.
	Sources []string

	// Mode declares the generator's source-tracking policy for this file.
	Mode track.Mode

	// Generator is the identity of the producing generator. Filled in by
	// the runner; generators may leave it empty.
	Generator string
}

// A CodeGenerator produces generated files for classes it is interested
// in. Implementations are registered with the runner and invoked every
// pass they report themselves applicable for.
type CodeGenerator interface {
	// Name returns the generator identity used in diagnostics and
	// tracking records.
	Name() string

	// IsApplicable reports whether the generator has any work for the
	// given pass. It must be cheap, idempotent and side-effect-free; a
	// generator declining applicability is not invoked for Generate in
	// that pass.
	IsApplicable(ctx *Context) bool

	// Generate produces this pass's descriptors. codegenDir is where the
	// runner will write accepted output; generators may use it to derive
	// paths but must not write to it.
	Generate(codegenDir string, module *load.Module, files []*load.SourceFile) ([]File, error)
}
