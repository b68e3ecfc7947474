package compaction

import "time"

const (
	// DefaultPartitionLayout is the yyyy/MM/dd partition naming convention.
	DefaultPartitionLayout = "2006/01/02"
)

type options struct {
	layout   string
	location *time.Location
	now      func() time.Time
}

func defaultOptions() options {
	return options{
		layout:   DefaultPartitionLayout,
		location: time.UTC,
		now:      time.Now,
	}
}

// Option configures a strategy at construction time.
type Option func(*options)

// WithPartitionLayout overrides the time layout partition paths are parsed with.
func WithPartitionLayout(layout string) Option {
	return func(o *options) {
		if layout != "" {
			o.layout = layout
		}
	}
}

// WithLocation sets the location partition dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithClock sets the time source used by date-bounded strategies.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
