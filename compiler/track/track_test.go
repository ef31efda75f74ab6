package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(paths ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		m[p] = struct{}{}
	}
	return m
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Empty(t, s.Records())

	content := []byte("package out\n")
	s.Put(&Record{
		Path:    "out/a_factory.weld.go",
		Hash:    Sum(content),
		Content: content,
		Sources: []string{"/src/a.go"},
		Mode:    TracksSources,
		By:      "factory",
	})
	require.NoError(t, s.Commit())

	reopened, err := Open(dir)
	require.NoError(t, err)
	r, ok := reopened.Lookup("out/a_factory.weld.go")
	require.True(t, ok)
	assert.Equal(t, Sum(content), r.Hash)
	assert.Equal(t, content, r.Content)
	assert.Equal(t, []string{"/src/a.go"}, r.Sources)
	assert.Equal(t, TracksSources, r.Mode)
	assert.Equal(t, "factory", r.By)
}

func TestPlan(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	s.Put(&Record{Path: "gen/a.go", Sources: []string{"/src/a.go"}, Mode: TracksSources})
	s.Put(&Record{Path: "gen/b.go", Sources: []string{"/src/b.go", "/src/shared.go"}, Mode: TracksSources})
	s.Put(&Record{Path: "gen/c.go", Sources: []string{"/src/c.go"}, Mode: TracksSources})
	s.Put(&Record{Path: "gen/global.go", Mode: TracksEmpty})
	require.NoError(t, s.Commit())

	s, err = Open(dir)
	require.NoError(t, err)

	t.Run("untouched records restore", func(t *testing.T) {
		p := s.Plan(set("/src/b.go"), nil)
		restored := paths(p.Restore)
		assert.Contains(t, restored, "gen/a.go")
		assert.Contains(t, restored, "gen/c.go")
		assert.Equal(t, []string{"gen/b.go"}, paths(p.Regenerate))
		assert.Empty(t, p.Delete)
	})

	t.Run("tracks-empty records are restorable", func(t *testing.T) {
		p := s.Plan(set("/src/a.go", "/src/b.go", "/src/c.go", "/src/shared.go"), nil)
		assert.Equal(t, []string{"gen/global.go"}, paths(p.Restore))
		assert.Len(t, p.Regenerate, 3)
	})

	t.Run("fully removed sources delete the record", func(t *testing.T) {
		p := s.Plan(nil, set("/src/c.go"))
		assert.Equal(t, []string{"gen/c.go"}, paths(p.Delete))
	})

	t.Run("partially removed multi-source record regenerates", func(t *testing.T) {
		p := s.Plan(set("/src/b.go"), set("/src/shared.go"))
		assert.Equal(t, []string{"gen/b.go"}, paths(p.Regenerate))
		assert.Empty(t, p.Delete)
	})

	t.Run("plan sources widen the round input", func(t *testing.T) {
		p := s.Plan(set("/src/shared.go"), nil)
		assert.Equal(t, []string{"/src/b.go", "/src/shared.go"}, p.Sources())
	})
}

func TestCommitSemantics(t *testing.T) {
	t.Run("unstaged records are dropped", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(dir)
		require.NoError(t, err)
		s.Put(&Record{Path: "gen/a.go", Sources: []string{"/src/a.go"}, Mode: TracksSources})
		s.Put(&Record{Path: "gen/b.go", Sources: []string{"/src/b.go"}, Mode: TracksSources})
		require.NoError(t, s.Commit())

		s, err = Open(dir)
		require.NoError(t, err)
		s.Put(&Record{Path: "gen/a.go", Sources: []string{"/src/a.go"}, Mode: TracksSources})
		require.NoError(t, s.Commit())

		s, err = Open(dir)
		require.NoError(t, err)
		_, ok := s.Lookup("gen/b.go")
		assert.False(t, ok)
		assert.Len(t, s.Records(), 1)
	})

	t.Run("uncommitted round leaves prior snapshot intact", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(dir)
		require.NoError(t, err)
		s.Put(&Record{Path: "gen/a.go", Sources: []string{"/src/a.go"}, Mode: TracksSources})
		require.NoError(t, s.Commit())

		// A failed round stages records but never commits.
		s, err = Open(dir)
		require.NoError(t, err)
		s.Put(&Record{Path: "gen/poison.go", Mode: TracksEmpty})

		s, err = Open(dir)
		require.NoError(t, err)
		_, ok := s.Lookup("gen/poison.go")
		assert.False(t, ok)
		_, ok = s.Lookup("gen/a.go")
		assert.True(t, ok)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(dir)
		require.NoError(t, err)
		s.Put(&Record{Path: "gen/a.go", Mode: TracksEmpty})
		require.NoError(t, s.Commit())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, SnapshotName, entries[0].Name())
	})
}

func TestOpenCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotName), []byte("not msgpack"), 0o644))
	_, err := Open(dir)
	require.Error(t, err)
}

func TestSum(t *testing.T) {
	assert.Equal(t, Sum([]byte("x")), Sum([]byte("x")))
	assert.NotEqual(t, Sum([]byte("x")), Sum([]byte("y")))
	assert.Len(t, Sum(nil), 64)
}

func paths(rs []*Record) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Path)
	}
	return out
}
