// Package exitcodes defines the standard exit codes used by ncheck.
package exitcodes

// Exit code constants used by ncheck
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every enabled check passes or only warns
// * CheckFailure (1): Used when one or more checks fail
// * RuntimeErr (2): Used for runtime errors such as unreadable datasets or bad plans
const (
	Success      = 0 // All checks pass
	CheckFailure = 1 // Check failures
	RuntimeErr   = 2 // Runtime errors
)
