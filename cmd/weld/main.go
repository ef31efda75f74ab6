// Command weld runs the weld code generators over a source tree.
//
// Configuration is read from weld.yaml, overridden by weld.properties,
// overridden by flags. With -watch the command stays resident and
// rebuilds incrementally as source files change.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/weldlabs/weld/compiler/gen"
	"github.com/weldlabs/weld/compiler/gen/di"
	"github.com/weldlabs/weld/compiler/load"
)

func main() {
	var (
		sources   = flag.String("source", "", "comma-separated source roots (default from weld.yaml)")
		target    = flag.String("target", "", "generated-sources directory (default from weld.yaml)")
		track     = flag.Bool("track", true, "enable incremental source tracking")
		maxPasses = flag.Int("max-passes", 0, "bound chained generation passes per round")
		workers   = flag.Int("workers", 0, "parallel generator invocations")
		watchMode = flag.Bool("watch", false, "stay resident and rebuild on source changes")
	)
	flag.Parse()

	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Sources = splitList(*sources)
		case "target":
			cfg.Target = *target
		case "track":
			cfg.TrackSourceFiles = track
		case "max-passes":
			cfg.MaxPasses = *maxPasses
		case "workers":
			cfg.Workers = *workers
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := build(ctx, cfg, nil); err != nil {
		// The runner already reported the failure.
		if !*watchMode {
			os.Exit(1)
		}
	}
	if *watchMode {
		if err := watch(ctx, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// build runs one compilation round. changed names the changed source
// paths for an incremental round, or nil for a full build.
func build(ctx context.Context, cfg *Config, changed []string) error {
	module, files, err := loadSources(cfg.Sources)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	opts := []gen.Option{
		gen.WithTarget(cfg.Target),
		gen.WithGenerators(di.Generators()...),
		gen.WithTrackSources(cfg.tracking()),
		gen.WithWorkers(cfg.Workers),
	}
	if cfg.MaxPasses > 0 {
		opts = append(opts, gen.WithMaxPasses(cfg.MaxPasses))
	}
	runner, err := gen.NewRunner(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return runner.Run(ctx, module, files, changed)
}

// loadSources builds one symbol table spanning all source roots.
func loadSources(dirs []string) (*load.Module, []*load.SourceFile, error) {
	var files []*load.SourceFile
	for _, dir := range dirs {
		collected, err := load.Collect(dir)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, collected...)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	module, err := load.ParseFiles(files)
	if err != nil {
		return nil, nil, err
	}
	return module, files, nil
}
