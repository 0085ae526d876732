package fatfs

import (
	"time"

	"github.com/sirupsen/logrus"
)

// placeholderTime is stamped into every new directory entry unless a clock is configured.
// It is the FAT epoch, 1980-01-01 00:00:00.
var placeholderTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

type options struct {
	log        logrus.FieldLogger
	clock      func() time.Time
	skipChecks bool
}

// Option configures Open and MountFAT32.
type Option func(*options)

// WithLogger sets the logger, the logrus standard logger is used by default.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithClock sets the source of the timestamps written into new entries.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithSkipChecks skips the boot signature and jump instruction validation
// which may allow you to open not perfectly standard FAT filesystems.
// The geometry is validated anyway. Use with caution!
func WithSkipChecks() Option {
	return func(o *options) {
		o.skipChecks = true
	}
}

func newOptions(opts []Option) options {
	o := options{
		log:   logrus.StandardLogger(),
		clock: func() time.Time { return placeholderTime },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
