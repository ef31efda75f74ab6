package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce batches bursts of file events into one incremental round.
const debounce = 200 * time.Millisecond

// watch rebuilds incrementally whenever a watched source file changes,
// until the context is cancelled. A failed round is reported and watching
// continues; the next successful round commits as usual.
func watch(ctx context.Context, cfg *Config) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	target, err := filepath.Abs(cfg.Target)
	if err != nil {
		return err
	}
	for _, dir := range cfg.Sources {
		if err := addTree(fw, dir, target); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "weld: watching %s\n", strings.Join(cfg.Sources, ", "))

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := addTree(fw, event.Name, target); err != nil {
						return err
					}
					continue
				}
			}
			if !sourceFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = struct{}{}
				timer.Reset(debounce)
			}
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				if abs, err := filepath.Abs(p); err == nil {
					p = abs
				}
				changed = append(changed, p)
			}
			clear(pending)
			// Failures are reported by the runner; keep watching.
			_ = build(ctx, cfg, changed)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "weld: watch: %v\n", err)
		}
	}
}

// addTree watches dir and every subdirectory below it, skipping the
// generated-sources directory and anything the loader would skip.
func addTree(fw *fsnotify.Watcher, dir, target string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		name := d.Name()
		if path != dir {
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(path); err == nil && abs == target {
				return filepath.SkipDir
			}
		}
		return fw.Add(path)
	})
}

// sourceFile reports whether a changed path is a loader input.
func sourceFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".go") &&
		!strings.HasSuffix(base, "_test.go") &&
		!strings.HasSuffix(base, ".weld.go")
}
