package profile

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Config returns the profiler parameters. The zero value disables profiling.
type Config func() (mode, path string, quiet bool)

// Option derives a new Config from an existing one.
type Option func(Config) Config

// Make returns a Config with opts applied to an empty configuration.
func Make(opts ...Option) Config {
	c := Config(func() (string, string, bool) { return "", "", false })
	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// Start begins profiling and returns the handle that stops it.
//
// If c is nil, its mode is empty or unknown, or the binary was built without
// the pprof tag, Start returns a no-op. Both Start and Stop are always safe to
// call.
func (c Config) Start() Stopper {
	if c == nil {
		return ignore{}
	}

	mode, path, quiet := c()
	if mode == "" || !Supported(mode) {
		return ignore{}
	}

	return start(mode, path, quiet)
}

// Supported reports whether mode names a profiling mode in this build.
func Supported(mode string) bool {
	for _, m := range Modes() {
		if m == mode {
			return true
		}
	}

	return false
}

// WithMode sets the profiling mode. See [Modes].
func WithMode(mode string) Option {
	return func(c Config) Config {
		_, path, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithPath sets the directory profile files are written to.
func WithPath(path string) Option {
	return func(c Config) Config {
		mode, _, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithQuiet suppresses the profiler's own log lines.
func WithQuiet(quiet bool) Option {
	return func(c Config) Config {
		mode, path, _ := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

type ignore struct{}

func (ignore) Stop() {}
