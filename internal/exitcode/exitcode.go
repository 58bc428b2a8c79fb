// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success also covers a declined confirmation.
	Success = 0

	// UserError covers bad args, failed validation and disallowed transitions.
	UserError = 1

	// AuthError covers a missing session or a rejected login.
	AuthError = 2

	// BackendError covers any failed API call.
	BackendError = 3
)
