//go:build !debug

// Package debug provides assertions that can be enabled with the debug build
// tag or will otherwise compile to no-ops, and the leveled logger shared by
// all subsystems.
//
// Assertions are used for checks on the hot path, e.g. per chunk or per
// command. Violations of the pipeline protocol are not assertions, they
// always panic.
package debug

// Guard more complex assertions (i.e. anything that could panic) with `if
// debug.Enabled{...}`, otherwise they can't be removed in release builds.
const Enabled = false

// Assert panics if b is false.
func Assert(b bool, message string) {}

// AssertErrNil panics if err is not nil.
func AssertErrNil(err error) {}
