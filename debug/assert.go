//go:build debug

package debug

// Guard more complex assertions (i.e. anything that could panic) with `if
// debug.Enabled{...}`, otherwise they can't be removed in release builds.
const Enabled = true

// Assert panics with message if b is false.
func Assert(b bool, message string) {
	if !b {
		panic(message)
	}
}

// AssertErrNil panics if err is not nil.
func AssertErrNil(err error) {
	if err != nil {
		panic(err)
	}
}
