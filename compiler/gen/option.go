package gen

import "errors"

// Option configures the generation runner.
type Option func(*Config) error

// WithTarget sets the generated-sources root directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return errors.New("weld: target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithGenerators registers code generators with the runner.
func WithGenerators(gens ...CodeGenerator) Option {
	return func(c *Config) error {
		for _, g := range gens {
			if g == nil {
				return errors.New("weld: nil generator")
			}
			if g.Name() == "" {
				return errors.New("weld: generator with empty name")
			}
		}
		c.Generators = append(c.Generators, gens...)
		return nil
	}
}

// WithTrackSources toggles incremental source tracking for the build.
func WithTrackSources(enabled bool) Option {
	return func(c *Config) error {
		c.TrackSources = enabled
		return nil
	}
}

// WithMaxPasses bounds chained generation passes per round.
func WithMaxPasses(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return errors.New("weld: max passes must be at least 1")
		}
		c.MaxPasses = n
		return nil
	}
}

// WithWorkers limits parallel generator invocation per pass.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n > 0 {
			c.Workers = n
		}
		return nil
	}
}

// WithReporter sets the diagnostics reporter.
func WithReporter(r Reporter) Option {
	return func(c *Config) error {
		if r == nil {
			return errors.New("weld: nil reporter")
		}
		c.Reporter = r
		return nil
	}
}
