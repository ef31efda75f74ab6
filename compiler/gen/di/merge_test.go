package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weldlabs/weld/compiler/gen"
	"github.com/weldlabs/weld/compiler/load"
)

func TestMergeGenerator_Component(t *testing.T) {
	module, files := parse(t, map[string]string{
		"/src/app/modules.go": `package app

//weld:contributes-to App
type LoggingModule struct{}

//weld:contributes-to App
type MetricsModule struct{}

//weld:contributes-to Background
type SchedulerModule struct{}
`,
		"/src/app/component.go": `package app

//weld:merge-component App
type AppComponent interface{}
`,
	})

	g := MergeGenerator{}
	require.True(t, g.IsApplicable(&gen.Context{Module: module, Files: files, Pass: 1}))

	out, err := g.Generate(t.TempDir(), module, files)
	require.NoError(t, err)
	require.Len(t, out, 1)

	f := out[0]
	assert.Equal(t, "app/app_component_merged.weld.go", f.Path)
	assert.ElementsMatch(t, []string{"/src/app/component.go", "/src/app/modules.go"}, f.Sources)

	code := string(f.Content)
	assert.Contains(t, code, "type MergedAppComponent struct")
	assert.Contains(t, code, `"app.LoggingModule", "app.MetricsModule"`)
	assert.NotContains(t, code, "SchedulerModule")
	assert.Contains(t, code, `[]string{"App"}`)
}

func TestMergeGenerator_ExcludesAndReplaces(t *testing.T) {
	module, files := parse(t, map[string]string{
		"/src/app/modules.go": `package app

//weld:contributes-to App
type LegacyModule struct{}

//weld:contributes-to scope=App replaces=app.LegacyModule
type ModernModule struct{}

//weld:contributes-to App
type NoisyModule struct{}
`,
		"/src/app/component.go": `package app

//weld:merge-component scope=App excludes=app.NoisyModule
type AppComponent interface{}
`,
	})

	out, err := MergeGenerator{}.Generate(t.TempDir(), module, files)
	require.NoError(t, err)
	require.Len(t, out, 1)

	code := string(out[0].Content)
	assert.Contains(t, code, "app.ModernModule")
	assert.NotContains(t, code, `"app.LegacyModule"`)
	assert.NotContains(t, code, "NoisyModule")
}

func TestMergeGenerator_RetriggersOnContributionInputs(t *testing.T) {
	module, _ := parse(t, map[string]string{
		"/src/app/component.go": `package app

//weld:merge-component App
type AppComponent interface{}
`,
		"/src/app/modules.go": `package app

//weld:contributes-to App
type LoggingModule struct{}
`,
	})

	// A later pass whose inputs hold only the contribution still
	// re-triggers the merge.
	contribution := []*load.SourceFile{{Path: "/src/app/modules.go"}}
	assert.True(t, MergeGenerator{}.IsApplicable(&gen.Context{Module: module, Files: contribution, Pass: 2}))

	// Without any merge point nothing triggers.
	noMerge, noMergeFiles := parse(t, map[string]string{
		"/src/app/modules.go": `package app

//weld:contributes-to App
type LoggingModule struct{}
`,
	})
	assert.False(t, MergeGenerator{}.IsApplicable(&gen.Context{Module: noMerge, Files: noMergeFiles, Pass: 1}))
}

func TestMergeGenerator_SubcomponentAndInterfaces(t *testing.T) {
	module, files := parse(t, map[string]string{
		"/src/app/component.go": `package app

//weld:merge-subcomponent Session
type SessionComponent interface{}

//weld:merge-interfaces Session
type SessionViews interface{}
`,
		"/src/app/modules.go": `package app

//weld:contributes-to Session
type SessionModule struct{}
`,
	})

	out, err := MergeGenerator{}.Generate(t.TempDir(), module, files)
	require.NoError(t, err)
	require.Len(t, out, 2)

	paths := []string{out[0].Path, out[1].Path}
	assert.ElementsMatch(t, []string{
		"app/session_component_merged.weld.go",
		"app/session_views_merged.weld.go",
	}, paths)
	for _, f := range out {
		assert.Contains(t, string(f.Content), "app.SessionModule")
	}
}
