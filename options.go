package bcc

import (
	"log/slog"
	"os"

	"github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc/internal/layout"
)

// DefaultContextSize is the byte length of the executable context
// block: a 128 KiB code half and a 128 KiB data half, matching the
// default build configuration of the producing toolchain.
const DefaultContextSize = 256 * 1024

// config carries the knobs shared by the reader, the writer, and
// inspection.
type config struct {
	logger      *slog.Logger
	loader      ContextLoader
	contextSize int
	pageSize    int
}

func defaultConfig() config {
	return config{
		logger:      slog.New(slog.DiscardHandler),
		loader:      MemLoader{},
		contextSize: DefaultContextSize,
		pageSize:    os.Getpagesize(),
	}
}

func (c *config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Option configures [OpenCache], [NewWriter], and [InspectCache].
type Option func(*config)

// WithLogger directs validation diagnostics to the given logger. Every
// rejected cache logs the failing check with its section and field at
// error level. The default logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextLoader selects how the context block is placed in memory.
// The default is [MemLoader].
func WithContextLoader(loader ContextLoader) Option {
	return func(c *config) {
		if loader != nil {
			c.loader = loader
		}
	}
}

// WithContextSize overrides the context block size for toolchains
// built with non-default code/data sizes. The size must be a multiple
// of the checksum word size; reader and writer must agree on it.
func WithContextSize(size int) Option {
	return func(c *config) {
		if size > 0 && size%layout.WordSize == 0 {
			c.contextSize = size
		}
	}
}

// WithPageSize overrides the page size used for context alignment
// checks. The default is the running system's page size; tests use
// this to build small, deterministic cache images.
func WithPageSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.pageSize = size
		}
	}
}
