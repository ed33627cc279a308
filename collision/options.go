package collision

import (
	"github.com/benbjohnson/clock"

	"go.viam.com/steric/bvh"
	"go.viam.com/steric/logging"
)

type detectOptions struct {
	workers int
	bvhOpts []bvh.Option
	logger  logging.Logger
	clock   clock.Clock
}

// Option configures Detect.
type Option func(*detectOptions)

func newDetectOptions(opts []Option) detectOptions {
	o := detectOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.logger == nil {
		o.logger = logging.Global().Sublogger("collision")
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	return o
}

// WithWorkers sets how many goroutines query the tree. Values below 2 run serially.
func WithWorkers(workers int) Option {
	return func(o *detectOptions) {
		o.workers = workers
	}
}

// WithBVHOptions sets the options used to build the reference tree.
func WithBVHOptions(opts ...bvh.Option) Option {
	return func(o *detectOptions) {
		o.bvhOpts = append(o.bvhOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *detectOptions) {
		o.logger = logger
	}
}

// WithClock sets the clock used to time a run.
func WithClock(clk clock.Clock) Option {
	return func(o *detectOptions) {
		o.clock = clk
	}
}
