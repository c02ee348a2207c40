package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryProtocol Category = "protocol"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
	CategoryStorage  Category = "storage"
)

// contextLines is how many file lines WithLocation captures.
const contextLines = 5

// Location is a position in a source or configuration file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// TideError is a coded error with an optional location and hint.
type TideError struct {
	// Code is the registered identifier, e.g. "E120".
	Code string

	Category Category

	// Message is a short description.
	Message string

	// Detail is a longer explanation.
	Detail string

	Location *Location

	// Context holds the file lines around Location.
	Context []string

	// Suggestion tells the user how to fix it.
	Suggestion string

	Wrapped error
}

func (e *TideError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *TideError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a TideError carrying the same code, so
// errors.Is(err, errors.New("E180")) matches any E180.
func (e *TideError) Is(target error) bool {
	t, ok := target.(*TideError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithLocation records where the error occurred and reads the surrounding
// lines when the file exists.
func (e *TideError) WithLocation(file string, line, column int) *TideError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, contextLines)
	return e
}

// WithSuggestion adds a fix hint.
func (e *TideError) WithSuggestion(s string) *TideError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *TideError) WithDetail(d string) *TideError {
	e.Detail = d
	return e
}

// Wrap sets the underlying error.
func (e *TideError) Wrap(err error) *TideError {
	e.Wrapped = err
	return e
}

func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := contextStart(targetLine, contextSize)
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines
}

// New creates a TideError from a registered code.
func New(code string) *TideError {
	template, ok := registry[code]
	if !ok {
		return &TideError{Code: code, Message: "Unknown error"}
	}
	return &TideError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates an uncoded TideError with a formatted message.
func Newf(category Category, format string, args ...any) *TideError {
	return &TideError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err itself when it already carries a TideError and
// otherwise wraps it under code.
func FromError(err error, code string) *TideError {
	if err == nil {
		return nil
	}
	var te *TideError
	if stderrors.As(err, &te) {
		return te
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first TideError in err's chain, or "".
func Code(err error) string {
	var te *TideError
	if stderrors.As(err, &te) {
		return te.Code
	}
	return ""
}

func contextStart(line, size int) int {
	if start := line - size/2; start > 1 {
		return start
	}
	return 1
}
