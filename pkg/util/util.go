package util

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Kind classifies a compilation error.
type Kind int

const (
	Lexical Kind = iota
	Syntax
	Semantic
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	case Semantic:
		return "semantic"
	}
	return "unknown"
}

var (
	ErrUnsupportedChar = errors.New("unsupported character")
	ErrIntOverflow     = errors.New("integer literal overflow")
	ErrInvalidInt      = errors.New("invalid integer literal")

	ErrUnexpectedToken = errors.New("unexpected token")
	ErrUnexpectedEOF   = errors.New("unexpected end of input")
	ErrNoFunction      = errors.New("statement outside of a function")

	ErrUndeclared     = errors.New("undeclared identifier")
	ErrTooManyArgs    = errors.New("too many arguments")
	ErrDuplicateFunc  = errors.New("duplicate function")
	ErrDuplicateParam = errors.New("duplicate parameter")
	ErrUndefinedCall  = errors.New("call to undefined function")
)

var kinds = map[error]Kind{
	ErrUnsupportedChar: Lexical,
	ErrIntOverflow:     Lexical,
	ErrInvalidInt:      Lexical,
	ErrUnexpectedToken: Syntax,
	ErrUnexpectedEOF:   Syntax,
	ErrNoFunction:      Syntax,
	ErrUndeclared:      Semantic,
	ErrTooManyArgs:     Semantic,
	ErrDuplicateFunc:   Semantic,
	ErrDuplicateParam:  Semantic,
	ErrUndefinedCall:   Semantic,
}

// Error is a fatal compilation error. It unwraps to one of the sentinel
// errors above.
type Error struct {
	Kind   Kind
	Err    error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %v: %s", e.Kind, e.Err, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error for the given sentinel. The kind is derived from
// the sentinel.
func Errorf(sentinel error, format string, args ...interface{}) error {
	kind, ok := kinds[sentinel]
	if !ok {
		kind = Syntax
	}
	return &Error{Kind: kind, Err: sentinel, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a compilation error, if err is one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

const (
	cRed    = "\033[31m"
	cYellow = "\033[33m"
	cCyan   = "\033[36m"
	cReset  = "\033[0m"
)

// Diag writes driver diagnostics prefixed with the program name.
type Diag struct {
	Prog    string
	Out     io.Writer
	Color   bool
	Verbose bool
}

// NewDiag returns a Diag writing to stderr, colored when stderr is a terminal.
func NewDiag(prog string) *Diag {
	return &Diag{Prog: prog, Out: os.Stderr, Color: IsTerminal(os.Stderr)}
}

func (d *Diag) label(color, name string) string {
	if d.Color {
		return color + name + ":" + cReset
	}
	return name + ":"
}

// Report prints err as a fatal error.
func (d *Diag) Report(err error) {
	fmt.Fprintf(d.Out, "%s: %s %v\n", d.Prog, d.label(cRed, "error"), err)
}

// Warn prints a warning message.
func (d *Diag) Warn(format string, args ...interface{}) {
	fmt.Fprintf(d.Out, "%s: %s ", d.Prog, d.label(cYellow, "warning"))
	fmt.Fprintf(d.Out, format, args...)
	fmt.Fprintln(d.Out)
}

// Info prints a progress message when verbose output is enabled.
func (d *Diag) Info(format string, args ...interface{}) {
	if !d.Verbose {
		return
	}
	fmt.Fprintf(d.Out, "%s: %s ", d.Prog, d.label(cCyan, "info"))
	fmt.Fprintf(d.Out, format, args...)
	fmt.Fprintln(d.Out)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
