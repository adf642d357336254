package resource

import "fmt"

// ParseError reports a source file name that does not carry a slug.
type ParseError struct {
	Path string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed file name: %s", e.Path)
}

// DataFormatError reports front matter or a data file that could not be
// decoded.
type DataFormatError struct {
	Path string
	Err  error
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("%s: invalid document data: %v", e.Path, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }
