// Package track persists the mapping from generated files to the source
// files they were derived from, so incremental builds can restore
// unchanged output instead of regenerating or, worse, silently dropping
// it.
//
// A Store is opened per build invocation, consulted to plan the round,
// fed the round's surviving records, and committed atomically at the end
// of a successful round. A failed round never touches the persisted
// snapshot.
package track

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotName is the file the store persists under the codegen directory.
const SnapshotName = ".weld-track"

// snapshotVersion guards against decoding snapshots written by an
// incompatible layout.
const snapshotVersion = 1

// Mode is a generator's declared policy for reporting source dependencies.
type Mode uint8

const (
	// NoTracking marks a descriptor whose generator never reports its
	// source dependencies. Incompatible with tracking-enabled builds.
	NoTracking Mode = iota

	// TracksEmpty declares that the descriptor intentionally has no
	// source dependency, e.g. it is synthesized from global state.
	TracksEmpty

	// TracksSources declares that the descriptor lists the exact source
	// files it was derived from.
	TracksSources
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case NoTracking:
		return "no-tracking"
	case TracksEmpty:
		return "tracks-empty"
	case TracksSources:
		return "tracks-sources"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

// A Record ties one generated file to the sources it was derived from.
// Content is recorded alongside the hash so a deleted output can be
// restored verbatim without rerunning its generator.
type Record struct {
	Path    string   `msgpack:"path"` // generated file path, relative to the codegen dir
	Hash    string   `msgpack:"hash"` // sha256 of content
	Content []byte   `msgpack:"content"`
	Sources []string `msgpack:"sources"` // contributing source file paths
	Mode    Mode     `msgpack:"mode"`
	By      string   `msgpack:"by"` // generator identity
}

type snapshot struct {
	Version int                `msgpack:"version"`
	Records map[string]*Record `msgpack:"records"`
}

// Plan is the incremental decision for one round, derived from the prior
// snapshot and the round's changed/removed source sets.
type Plan struct {
	// Restore holds records whose sources are untouched; their content
	// can be reused verbatim without invoking a generator.
	Restore []*Record

	// Regenerate holds records with at least one changed source; their
	// paths must be produced again this round.
	Regenerate []*Record

	// Delete holds records whose sources are all gone; their output is
	// stale unless something regenerates the same path.
	Delete []*Record
}

// Sources returns the union of contributing sources of the records that
// must be revisited this round, sorted.
func (p *Plan) Sources() []string {
	set := make(map[string]struct{})
	for _, r := range p.Regenerate {
		for _, s := range r.Sources {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Store persists generated-file records across builds. It is a
// single-writer resource: one store per build invocation, opened at build
// start and committed (or discarded) at build end.
type Store struct {
	dir  string
	path string

	prior  map[string]*Record // snapshot from the previous build, read-only
	staged map[string]*Record // records to persist on commit
}

// Open loads the store snapshot under the given codegen directory. A
// missing snapshot yields an empty store.
func Open(dir string) (*Store, error) {
	s := &Store{
		dir:    dir,
		path:   filepath.Join(dir, SnapshotName),
		prior:  make(map[string]*Record),
		staged: make(map[string]*Record),
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("weld: reading track snapshot %s: %w", s.path, err)
	}
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("weld: decoding track snapshot %s: %w", s.path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("weld: track snapshot %s has unsupported version %d", s.path, snap.Version)
	}
	if snap.Records != nil {
		s.prior = snap.Records
	}
	return s, nil
}

// Dir returns the codegen directory the store belongs to.
func (s *Store) Dir() string { return s.dir }

// Lookup returns the prior record for a generated path.
func (s *Store) Lookup(path string) (*Record, bool) {
	r, ok := s.prior[path]
	return r, ok
}

// Records returns all prior records, sorted by path.
func (s *Store) Records() []*Record {
	out := make([]*Record, 0, len(s.prior))
	for _, r := range s.prior {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Plan computes the incremental decision for the round. changed holds the
// source paths present in the round's changed set; removed holds source
// paths that no longer exist.
func (s *Store) Plan(changed, removed map[string]struct{}) *Plan {
	p := &Plan{}
	for _, r := range s.Records() {
		switch {
		case allRemoved(r.Sources, removed):
			p.Delete = append(p.Delete, r)
		case anyIn(r.Sources, changed):
			p.Regenerate = append(p.Regenerate, r)
		default:
			// TracksEmpty records land here: an empty source set is an
			// explicit declaration, so the record is restorable.
			p.Restore = append(p.Restore, r)
		}
	}
	return p
}

// Put stages a record for the next snapshot. Records not staged by
// commit time are dropped, which is how deleted outputs leave the store.
func (s *Store) Put(r *Record) {
	s.staged[r.Path] = r
}

// Staged reports whether a path has been staged this round.
func (s *Store) Staged(path string) bool {
	_, ok := s.staged[path]
	return ok
}

// Commit atomically replaces the persisted snapshot with the staged
// record set. It must only be called after a fully successful round; a
// failed round simply never commits and the prior snapshot stays intact.
func (s *Store) Commit() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := msgpack.Marshal(&snapshot{Version: snapshotVersion, Records: s.staged})
	if err != nil {
		return fmt.Errorf("weld: encoding track snapshot: %w", err)
	}
	tmp := s.path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("weld: writing track snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("weld: committing track snapshot: %w", err)
	}
	return nil
}

// Sum returns the content hash recorded for generated files.
func Sum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

func anyIn(paths []string, set map[string]struct{}) bool {
	for _, p := range paths {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

func allRemoved(paths []string, removed map[string]struct{}) bool {
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if _, ok := removed[p]; !ok {
			return false
		}
	}
	return true
}
