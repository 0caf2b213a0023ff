package app

import (
	"time"

	"go.uber.org/zap"
)

// Option customises a service at construction time.
type Option func(*options)

type options struct {
	now      func() time.Time
	log      *zap.Logger
	notifier CompletionNotifier
}

func defaultOptions() options {
	return options{
		now: time.Now,
		log: zap.NewNop(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the wall clock; tests use it to simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithNotifier registers the receiver of attempt completion signals.
func WithNotifier(n CompletionNotifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}
