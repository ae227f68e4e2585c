package bootstrap

import (
	"github.com/flowforge/flowforge/common/config"
	"github.com/flowforge/flowforge/common/db"
	"github.com/flowforge/flowforge/common/logger"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipDB       bool
	skipCache    bool
	customConfig *config.Config
	customLogger *logger.Logger
	dbInitHook   func(*db.DB) error
}

func defaultOptions() *options {
	return &options{}
}

// SkipDB skips database initialization (for components that don't need it)
func SkipDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// SkipCache skips cache initialization
func SkipCache() Option {
	return func(o *options) {
		o.skipCache = true
	}
}

// WithConfig uses a pre-built config instead of loading from the environment
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithLogger uses a pre-built logger
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithDBInitHook runs fn against the database right after it connects.
// Used to apply the schema on startup.
func WithDBInitHook(fn func(*db.DB) error) Option {
	return func(o *options) {
		o.dbInitHook = fn
	}
}
