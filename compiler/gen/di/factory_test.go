package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weldlabs/weld/compiler/gen"
	"github.com/weldlabs/weld/compiler/load"
	"github.com/weldlabs/weld/compiler/track"
)

// parse builds a module from in-memory sources keyed by path.
func parse(t *testing.T, sources map[string]string) (*load.Module, []*load.SourceFile) {
	t.Helper()
	var files []*load.SourceFile
	for path, content := range sources {
		files = append(files, &load.SourceFile{Path: path, Content: []byte(content)})
	}
	module, err := load.ParseFiles(files)
	require.NoError(t, err)
	return module, files
}

func TestFactoryGenerator_Inject(t *testing.T) {
	module, files := parse(t, map[string]string{
		"/src/greet/greeter.go": `package greet

type Clock interface{ Now() int64 }

type EnglishGreeter struct{ clock Clock }

//weld:inject
func NewEnglishGreeter(clock Clock) *EnglishGreeter {
	return &EnglishGreeter{clock: clock}
}
`,
	})

	g := FactoryGenerator{}
	require.True(t, g.IsApplicable(&gen.Context{Module: module, Files: files, Pass: 1}))

	out, err := g.Generate(t.TempDir(), module, files)
	require.NoError(t, err)
	require.Len(t, out, 1)

	f := out[0]
	assert.Equal(t, "greet/english_greeter_factory.weld.go", f.Path)
	assert.Equal(t, track.TracksSources, f.Mode)
	assert.Equal(t, []string{"/src/greet/greeter.go"}, f.Sources)

	code := string(f.Content)
	assert.Contains(t, code, "Code generated by weld. DO NOT EDIT.")
	assert.Contains(t, code, "package greet")
	assert.Contains(t, code, "func EnglishGreeterFactory(clock Clock) *EnglishGreeter")
	assert.Contains(t, code, "return NewEnglishGreeter(clock)")
}

func TestFactoryGenerator_AssistedInject(t *testing.T) {
	module, files := parse(t, map[string]string{
		"/src/svc/service.go": `package svc

type Service struct{ name string }

//weld:assisted-inject
func NewService(name string) *Service {
	return &Service{name: name}
}
`,
	})

	out, err := FactoryGenerator{}.Generate(t.TempDir(), module, files)
	require.NoError(t, err)
	require.Len(t, out, 1)

	code := string(out[0].Content)
	assert.Contains(t, code, "type ServiceFactory func(name string) *Service")
	assert.Contains(t, code, "func NewServiceFactory() ServiceFactory")
	assert.Contains(t, code, "return NewService")
}

func TestFactoryGenerator_ConstructorInSeparateFile(t *testing.T) {
	module, files := parse(t, map[string]string{
		"/src/svc/service.go": `package svc

type Service struct{}
`,
		"/src/svc/wire.go": `package svc

//weld:inject
func NewService() *Service { return &Service{} }
`,
	})

	out, err := FactoryGenerator{}.Generate(t.TempDir(), module, files)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.ElementsMatch(t, []string{"/src/svc/service.go", "/src/svc/wire.go"}, out[0].Sources)
}

func TestFactoryGenerator_NotApplicableWithoutConstructors(t *testing.T) {
	module, files := parse(t, map[string]string{
		"/src/svc/service.go": `package svc

type Service struct{}
`,
	})
	assert.False(t, FactoryGenerator{}.IsApplicable(&gen.Context{Module: module, Files: files, Pass: 1}))
}

func TestFactoryGenerator_NotApplicableForUnchangedInputs(t *testing.T) {
	module, _ := parse(t, map[string]string{
		"/src/svc/service.go": `package svc

type Service struct{}

//weld:inject
func NewService() *Service { return &Service{} }
`,
	})
	// The constructor's file is not among this pass's inputs.
	other := []*load.SourceFile{{Path: "/src/svc/unrelated.go"}}
	assert.False(t, FactoryGenerator{}.IsApplicable(&gen.Context{Module: module, Files: other, Pass: 2}))
}
