package errx

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

type impl struct {
	cause  error
	msg    string
	devMsg string
	status int
	code   int
	meta   any
	stack  Stack
}

func (i *impl) Error() string {
	return i.msg
}

func (i *impl) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			i.stack.Format(s, verb)
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, i.msg)
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", i.msg)
	}
}

func (i *impl) Unwrap() error {
	return i.cause
}

func (i *impl) Cause() error {
	return errors.Unwrap(i)
}

func (i *impl) Status() int {
	return i.status
}

// Code returns the sub-code, falling back to status*100 so every status
// has a stable default (400 -> 40000, 500 -> 50000).
func (i *impl) Code() int {
	if i.code == 0 && i.status > 0 {
		return i.status * 100
	}
	return i.code
}

func (i *impl) DevMsg() string {
	return i.devMsg
}

func (i *impl) Meta() any {
	return i.meta
}

func (i *impl) Stack() Stack {
	return i.stack
}

func (i *impl) copy() *impl {
	return &impl{
		cause:  i,
		msg:    i.msg,
		devMsg: i.devMsg,
		status: i.status,
		code:   i.code,
		meta:   i.meta,
		stack:  i.stack,
	}
}

func (i *impl) WithMsg(s string) Builder {
	c := i.copy()
	c.msg = s
	return c
}

func (i *impl) WithMsgf(format string, a ...any) Builder {
	c := i.copy()
	c.msg = fmt.Sprintf(format, a...)
	return c
}

func (i *impl) AppendMsg(appendMsg string) Builder {
	c := i.copy()
	if c.msg == "" {
		c.msg = appendMsg
	} else {
		c.msg = fmt.Sprintf("%s: %s", appendMsg, c.msg)
	}
	return c
}

func (i *impl) AppendMsgf(format string, a ...any) Builder {
	c := i.copy()
	appendMsg := fmt.Sprintf(format, a...)
	if c.msg == "" {
		c.msg = appendMsg
	} else {
		c.msg = fmt.Sprintf("%s: %s", appendMsg, c.msg)
	}
	return c
}

func (i *impl) WithStatus(status int) Builder {
	c := i.copy()
	c.status = status
	return c
}

func (i *impl) WithCode(code int) Builder {
	c := i.copy()
	c.code = code
	return c
}

func (i *impl) WithDevMsg(s string) Builder {
	c := i.copy()
	c.devMsg = s
	return c
}

func (i *impl) WithDevMsgf(format string, a ...any) Builder {
	c := i.copy()
	c.devMsg = fmt.Sprintf(format, a...)
	return c
}

func (i *impl) WithMeta(meta any) Builder {
	c := i.copy()
	c.meta = meta
	return c
}

func (i *impl) Err() Error {
	c := i.copy()
	if c.stack == nil {
		c.stack = callers()
	}
	return c
}

var framePattern = regexp.MustCompile(`(?m)(?P<Name>.+)\n\t(?P<File>.+):(?P<Line>\d+)`)

func parseStack(stackStr string) Stack {
	var stack Stack
	matches := framePattern.FindAllStringSubmatch(stackStr, -1)
	for _, match := range matches {
		line, _ := strconv.Atoi(match[3])
		frame := Frame{
			Name: match[1],
			File: match[2],
			Line: line,
		}
		stack = append(stack, frame)
	}
	if len(stack) == 0 {
		return nil
	}
	return stack
}

func callers() Stack {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // skip first 3 callers
	frames := runtime.CallersFrames(pcs[:n])
	var stack Stack
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.Function, "apix/errx") {
			continue
		}
		stack = append(stack, Frame{
			Name: frame.Function,
			File: frame.File,
			Line: frame.Line,
		})
		if !more {
			break
		}
	}
	return stack
}
