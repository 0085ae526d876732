// Package checkpoint decorates errors with the file and line they passed through,
// which results in something similar to a stacktrace without the cost of one.
// A sentinel attached to a checkpoint can still be found with errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From wraps err by a new checkpoint which records the caller.
// It returns nil if err == nil.
func From(err error) error {
	if err == nil || passThrough(err) {
		return err
	}

	return newCheckpoint(err, nil)
}

// Wrap adds a checkpoint to prev and attaches err as the description of that checkpoint.
// It returns nil if prev == nil, so it can be used directly on the result of a call:
//
//	var ErrSomethingSpecial = errors.New("something special went wrong")
//
//	func doIt() error {
//		err := somethingThatFails()
//		return checkpoint.Wrap(err, ErrSomethingSpecial)
//	}
//
// errors.Is(doIt(), ErrSomethingSpecial) reports true, and so does errors.Is for
// whatever somethingThatFails returned.
func Wrap(prev, err error) error {
	if prev == nil || passThrough(prev) {
		return prev
	}

	return newCheckpoint(prev, err)
}

// Wrapf is Wrap with a formatted context appended to err.
// The format may use %w to attach further sentinels.
func Wrapf(prev, err error, format string, args ...interface{}) error {
	if prev == nil || passThrough(prev) {
		return prev
	}

	described := fmt.Errorf("%w: "+format, append([]interface{}{err}, args...)...)
	// A sentinel started here, it would only be repeated.
	if prev == err {
		return newCheckpoint(described, nil)
	}
	return newCheckpoint(prev, described)
}

// Trace returns one line per checkpoint in the chain of err, outermost first.
func Trace(err error) []string {
	var lines []string
	for err != nil {
		c, ok := err.(*checkpoint)
		if !ok {
			lines = append(lines, err.Error())
			break
		}
		lines = append(lines, c.head())
		err = c.prev
	}
	return lines
}

// passThrough reports errors which must never be wrapped.
// io.EOF has to be returned as io.EOF, see https://github.com/golang/go/issues/39155
func passThrough(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

func newCheckpoint(prev, err error) *checkpoint {
	// Skip newCheckpoint and the exported function calling it.
	_, file, line, ok := runtime.Caller(2)
	if err == nil {
		err, prev = prev, nil
	}

	return &checkpoint{
		err:      err,
		prev:     prev,
		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) head() string {
	if e.callerOk {
		return fmt.Sprintf("%s:%d: %v", e.file, e.line, e.err)
	}
	return fmt.Sprintf("unknown: %v", e.err)
}

func (e *checkpoint) Error() string {
	if e.prev == nil {
		return e.err.Error()
	}
	return e.err.Error() + ": " + strings.ReplaceAll(e.prev.Error(), "\n", " ")
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return errors.As(e.err, target)
}
