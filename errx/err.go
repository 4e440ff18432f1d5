package errx

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// Error is an error carrying an HTTP status, a numeric sub-code that
// refines it, and optional client and developer facing detail. All errors
// crossing an API boundary in this module satisfy it.
type Error interface {
	error
	fmt.Formatter
	Unwrap() error
	Cause() error
	Status() int
	Code() int
	DevMsg() string
	Meta() any
	Stack() Stack
}

type Builder interface {
	WithMsg(string) Builder
	WithMsgf(format string, a ...any) Builder
	AppendMsg(string) Builder
	AppendMsgf(format string, a ...any) Builder
	WithStatus(int) Builder
	WithCode(int) Builder
	WithDevMsg(string) Builder
	WithDevMsgf(format string, a ...any) Builder
	WithMeta(any) Builder
	Err() Error
}

// Resource is the wire form of an Error, the body of every error
// response produced by the dispatcher.
type Resource struct {
	Status           int    `json:"status"`
	Code             int    `json:"code"`
	Message          string `json:"message"`
	DeveloperMessage string `json:"developer_message,omitempty"`
	Meta             any    `json:"meta,omitempty"`
}

// Payload projects err into its wire form. Status defaults to 500 and
// the sub-code to status*100 when unset.
func Payload(err Error) *Resource {
	return &Resource{
		Status:           StatusOf(err),
		Code:             err.Code(),
		Message:          err.Error(),
		DeveloperMessage: err.DevMsg(),
		Meta:             err.Meta(),
	}
}

// StatusOf returns the HTTP status of err, 500 when unset.
func StatusOf(err Error) int {
	if s := err.Status(); s > 0 {
		return s
	}
	return 500
}

type Frame struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

type Stack []Frame

func (f Frame) Format(s fmt.State, verb rune) {
	switch verb {
	case 's':
		switch {
		case s.Flag('+'):
			_, _ = io.WriteString(s, f.Name)
			_, _ = io.WriteString(s, "\n\t")
			_, _ = io.WriteString(s, f.File)
		default:
			_, _ = io.WriteString(s, path.Base(f.File))
		}
	case 'd':
		_, _ = io.WriteString(s, strconv.Itoa(f.Line))
	case 'n':
		_, _ = io.WriteString(s, funcname(f.Name))
	case 'v':
		f.Format(s, 's')
		_, _ = io.WriteString(s, ":")
		f.Format(s, 'd')
	}
}

func funcname(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}

func (s Stack) Format(st fmt.State, verb rune) {
	switch verb {
	case 'v':
		switch {
		case st.Flag('+'):
			for _, f := range s {
				_, _ = fmt.Fprintf(st, "\n%+v", f)
			}
		}
	}
}
