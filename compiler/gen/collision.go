package gen

import (
	"bytes"
	"path/filepath"
	"sort"
)

// dedupe verifies a pass's descriptors for target-path collisions.
// Descriptors at the same path with byte-identical content collapse to a
// single descriptor (a successful cache hit, not an error); differing
// content fails the round with a DuplicateFileError naming the producing
// generators and the absolute path. Survivors come back sorted by path.
func dedupe(codegenDir string, files []File) ([]File, error) {
	byPath := make(map[string][]File)
	for _, f := range files {
		byPath[f.Path] = append(byPath[f.Path], f)
	}
	out := make([]File, 0, len(byPath))
	for path, group := range byPath {
		first := group[0]
		for _, f := range group[1:] {
			if !bytes.Equal(f.Content, first.Content) {
				abs := path
				if !filepath.IsAbs(abs) {
					abs = filepath.Join(codegenDir, path)
				}
				return nil, NewDuplicateFileError(abs, generators(group)...)
			}
		}
		out = append(out, first)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// generators returns the distinct generator identities of a group, in
// first-seen order.
func generators(group []File) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, f := range group {
		if _, ok := seen[f.Generator]; ok {
			continue
		}
		seen[f.Generator] = struct{}{}
		out = append(out, f.Generator)
	}
	return out
}
