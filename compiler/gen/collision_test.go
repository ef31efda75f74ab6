package gen

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeCollapsesIdenticalContent(t *testing.T) {
	files := []File{
		{Path: "app/module.weld.go", Content: []byte("package app\n"), Generator: "first"},
		{Path: "app/module.weld.go", Content: []byte("package app\n"), Generator: "second"},
		{Path: "app/other.weld.go", Content: []byte("package app\n"), Generator: "first"},
	}

	out, err := dedupe("/tmp/gen", files)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "app/module.weld.go", out[0].Path)
	assert.Equal(t, "app/other.weld.go", out[1].Path)
}

func TestDedupeRejectsConflictingContent(t *testing.T) {
	files := []File{
		{Path: "app/module.weld.go", Content: []byte("package app\n\nvar A = 1\n"), Generator: "first"},
		{Path: "app/module.weld.go", Content: []byte("package app\n\nvar A = 2\n"), Generator: "second"},
	}

	_, err := dedupe("/tmp/gen", files)
	require.Error(t, err)
	assert.True(t, IsDuplicateFile(err))

	var dup *DuplicateFileError
	require.ErrorAs(t, err, &dup)
	assert.True(t, filepath.IsAbs(dup.Path))
	assert.Equal(t, filepath.Join("/tmp/gen", "app/module.weld.go"), dup.Path)
	assert.ElementsMatch(t, []string{"first", "second"}, dup.Generators)
	assert.Contains(t, err.Error(), "first and second")
}

func TestDedupeKeepsDistinctPaths(t *testing.T) {
	files := []File{
		{Path: "b.txt", Content: []byte("b"), Generator: "g"},
		{Path: "a.txt", Content: []byte("a"), Generator: "g"},
	}

	out, err := dedupe("/tmp/gen", files)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a.txt", out[0].Path)
	assert.Equal(t, "b.txt", out[1].Path)
}
