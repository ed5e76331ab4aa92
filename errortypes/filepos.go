// Package errortypes defines the error interface shared by every stage of
// template compilation, carrying the code and file position needed for
// diagnostics.
package errortypes

import "fmt"

// Codes for the errors raised while compiling a template.  Runtime value
// resolution never raises these: missing data is tolerated at render time.
const (
	CodeUnallowedExpression = "E_UNALLOWED_EXPRESSION"
	CodeMaxArguments        = "E_MAX_ARGUMENTS"
	CodeUnclosedTag         = "E_UNCLOSED_TAG"
	CodeUnclosedMustache    = "E_UNCLOSED_MUSTACHE"
	CodeUnmatchedEndTag     = "E_UNMATCHED_END_TAG"
	CodeBadExpression       = "E_BAD_EXPRESSION"
	CodeMissingTemplate     = "E_MISSING_TEMPLATE"
)

// ErrFilePos extends the error interface to add the code and the file
// position where the error occurred.
type ErrFilePos interface {
	error
	Code() string
	File() string
	Line() int
	Col() int
}

// NewErrFilePosf creates an error conforming to the ErrFilePos interface.
func NewErrFilePosf(code, file string, line, col int, format string, args ...interface{}) error {
	return &errFilePos{
		error: fmt.Errorf(format, args...),
		code:  code,
		file:  file,
		line:  line,
		col:   col,
	}
}

// IsErrFilePos identifies whether the root cause of the provided error is of
// the ErrFilePos type.  Wrapped errors are unwrapped via Unwrap() or Cause().
func IsErrFilePos(err error) bool {
	return ToErrFilePos(err) != nil
}

// ToErrFilePos converts the input error to an ErrFilePos if possible, or nil
// if not.  If IsErrFilePos returns true, this will not return nil.
func ToErrFilePos(err error) ErrFilePos {
	if err == nil {
		return nil
	}
	err = rootCause(err)
	if out, ok := err.(ErrFilePos); ok {
		return out
	}
	return nil
}

// Code returns the error code of the root cause, or "" for errors that do not
// carry one.
func Code(err error) string {
	if fp := ToErrFilePos(err); fp != nil {
		return fp.Code()
	}
	return ""
}

func rootCause(err error) error {
	type causer interface {
		Cause() error
	}
	type wrapper interface {
		Unwrap() error
	}

	for {
		if _, ok := err.(ErrFilePos); ok {
			return err
		}
		switch e := err.(type) {
		case causer:
			err = e.Cause()
		case wrapper:
			next := e.Unwrap()
			if next == nil {
				return err
			}
			err = next
		default:
			return err
		}
	}
}

var _ ErrFilePos = &errFilePos{}

type errFilePos struct {
	error
	code string
	file string
	line int
	col  int
}

func (e *errFilePos) Code() string { return e.code }
func (e *errFilePos) File() string { return e.file }
func (e *errFilePos) Line() int    { return e.line }
func (e *errFilePos) Col() int     { return e.col }

func (e *errFilePos) Error() string {
	if e.file == "" {
		return fmt.Sprintf("%s: %v", e.code, e.error)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %v", e.file, e.line, e.col, e.code, e.error)
}
