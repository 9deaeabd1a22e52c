package runner

import (
	"fmt"
)

// Error is a fatal run failure attributed to the part of the run that caused it
type Error struct {
	// Component is the entity being exported, or a run stage such as "manifest"
	Component string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
