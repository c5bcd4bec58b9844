package cli

// ExitError carries a process exit code from a command to main. Reason is
// printed unless it is empty.
type ExitError struct {
	Code   int
	Reason string
	// Err is the underlying failure, if any.
	Err error
}

func (e *ExitError) Error() string {
	return e.Reason
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
