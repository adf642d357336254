package builder

import (
	"fmt"
	"strings"
)

// PathCollisionError reports two sources that resolve to the same output
// file.
type PathCollisionError struct {
	Filepath string
	First    string
	Second   string
}

func (e *PathCollisionError) Error() string {
	return strings.Join([]string{
		fmt.Sprintf("creating two files into the same path: %s", e.Filepath),
		fmt.Sprintf("file 1: %s", e.First),
		fmt.Sprintf("file 2: %s", e.Second),
	}, "\n")
}

// InvalidInjectionError reports an injector result that cannot be turned
// into source files.
type InvalidInjectionError struct {
	Value  any
	Reason string
}

func (e *InvalidInjectionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid injected file (%T): %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid injected file (%T)", e.Value)
}

// RenderError wraps a failure of the render function for one document.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
