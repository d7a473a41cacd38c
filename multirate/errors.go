package multirate

import "fmt"

// FatalError reports a precondition the core refuses to run under, such as
// an implicit ODE or an unrecognized SolverKind, or a nonlinear solve that
// did not converge during Driver.Run. Callers should
// treat it as unrecoverable for the current configuration; it is never
// returned for an ordinary rejected step (check returning false is not an
// error).
type FatalError struct {
	Op  string
	Msg string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("multirate: %s: %s", e.Op, e.Msg)
}

func fatalf(op, format string, args ...interface{}) error {
	return &FatalError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
