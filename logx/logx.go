package logx

import (
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/tencent-go/apix/errx"
)

// Setup configures the global logrus instance: JSON output with caller
// information plus a hook that unpacks errx errors into structured
// fields. The formatter and hook are installed once; the level can be
// changed by calling Setup again. Unknown level names fall back to
// info.
func Setup(level string) {
	setupOnce.Do(func() {
		logrus.AddHook(&errorHook{})
		logrus.SetFormatter(&jsonFormatter{})
		logrus.SetReportCaller(true)
	})
	logrus.SetLevel(convertLevel(level))
}

var setupOnce sync.Once

func convertLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

var json = sync.OnceValue(func() jsoniter.API {
	return jsoniter.Config{
		EscapeHTML:                    true,
		SortMapKeys:                   true,
		ValidateJsonRawMessage:        true,
		ObjectFieldMustBeSimpleString: true,
	}.Froze()
})

type jsonFormatter struct {
}

func (j *jsonFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := map[string]interface{}{}
	for s := range entry.Data {
		data[s] = entry.Data[s]
	}
	if entry.Caller != nil {
		fs := strings.Split(entry.Caller.File, "/")
		if len(fs) > 3 {
			fs = fs[len(fs)-3:]
		}
		data["file"] = fmt.Sprintf("%s:%d", strings.Join(fs, "/"), entry.Caller.Line)
	}
	data["level"] = strings.ToUpper(entry.Level.String())
	data["message"] = entry.Message
	str, err := json().Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(str, '\n'), nil
}

// errorHook expands the error field of warn and worse entries so the
// status, code and trimmed stack land as their own columns.
type errorHook struct{}

func (h *errorHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *errorHook) Fire(entry *logrus.Entry) error {
	if entry.Level > logrus.WarnLevel {
		return nil
	}
	value, withErr := entry.Data[logrus.ErrorKey]
	if !withErr {
		return nil
	}
	if err, ok := value.(error); ok {
		entry.Data["error"] = err.Error()
	}
	if xerr, ok := value.(errx.Error); ok {
		entry.Data["errorStatus"] = xerr.Status()
		entry.Data["errorCode"] = xerr.Code()
		stack := xerr.Stack()
		if len(stack) > 8 {
			stack = stack[:8]
		}
		entry.Data["stack"] = stack
		return nil
	}
	if ferr, ok := value.(xerrors.Formatter); ok {
		entry.Data["stack"] = fmt.Sprintf("%+v", ferr)
	}
	return nil
}
