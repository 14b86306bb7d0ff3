package parse

import "fmt"

// DateFormatError aborts a parse when a retained line has a date that is not
// day/month/year.
type DateFormatError struct {
	Value string
	Line  int
	Err   error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("parse: line %d: date %q is not day/month/year: %v", e.Line, e.Value, e.Err)
}

func (e *DateFormatError) Unwrap() error {
	return e.Err
}
