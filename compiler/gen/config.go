package gen

import (
	"fmt"
	"io"
	"os"
	"runtime"
)

// DefaultMaxPasses bounds chained generation passes within one round.
// Reaching the bound is a build failure: a generator that keeps producing
// new files from its own output would otherwise never terminate.
const DefaultMaxPasses = 10

// A Reporter receives fatal diagnostics before the round is aborted.
type Reporter interface {
	Report(err error)
}

// WriterReporter writes diagnostics to an io.Writer, one per line.
type WriterReporter struct {
	W io.Writer
}

// Report implements the Reporter interface.
func (r WriterReporter) Report(err error) {
	fmt.Fprintln(r.W, err)
}

// Config holds the runner configuration.
type Config struct {
	// Target is the generated-sources root directory.
	Target string

	// TrackSources gates incremental source tracking. When enabled,
	// descriptors with track.NoTracking fail the round.
	TrackSources bool

	// MaxPasses bounds chained generation passes per round.
	MaxPasses int

	// Workers limits parallel generator invocation per pass.
	Workers int

	// Generators is the registered generator set.
	Generators []CodeGenerator

	// Reporter receives fatal diagnostics. Defaults to stderr.
	Reporter Reporter
}

// NewConfig creates a config with defaults applied and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		MaxPasses: DefaultMaxPasses,
		Workers:   runtime.GOMAXPROCS(0),
		Reporter:  WriterReporter{W: os.Stderr},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
