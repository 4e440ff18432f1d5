package pathx

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tencent-go/apix/errx"
)

// ValueParser converts the raw text of a path segment or query value
// into the native value for one parameter type.
type ValueParser func(raw, typeArgs string) (any, errx.Error)

var trueValues = map[string]struct{}{
	"t": {}, "true": {}, "y": {}, "yes": {}, "on": {}, "ok": {}, "1": {},
}

// ToBool reports whether raw spells a truthy value (t, true, y, yes,
// on, ok, 1), case-insensitive.
func ToBool(raw string) bool {
	_, ok := trueValues[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

var parsers = map[Type]ValueParser{
	Integer: parseInteger,
	Long:    parseInteger,
	Float:   parseNumber,
	Double:  parseNumber,
	String: func(raw, _ string) (any, errx.Error) {
		return raw, nil
	},
	Password: func(raw, _ string) (any, errx.Error) {
		return raw, nil
	},
	Byte: func(raw, _ string) (any, errx.Error) {
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, badValue(Byte, raw)
		}
		return b, nil
	},
	Binary: func(raw, _ string) (any, errx.Error) {
		return []byte(raw), nil
	},
	Boolean: func(raw, _ string) (any, errx.Error) {
		return ToBool(raw), nil
	},
	Date: func(raw, _ string) (any, errx.Error) {
		v, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, badValue(Date, raw)
		}
		return v, nil
	},
	Time: func(raw, _ string) (any, errx.Error) {
		v, err := time.Parse(timeLayout, raw)
		if err != nil {
			return nil, badValue(Time, raw)
		}
		return v, nil
	},
	DateTime: func(raw, _ string) (any, errx.Error) {
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, badValue(DateTime, raw)
		}
		return v, nil
	},
	Email: func(raw, _ string) (any, errx.Error) {
		if !emailPattern.MatchString(raw) {
			return nil, badValue(Email, raw)
		}
		return raw, nil
	},
	Regex: func(raw, typeArgs string) (any, errx.Error) {
		pattern, err := regexp.Compile(typeArgs)
		if err != nil {
			return nil, errx.Wrap(err).AppendMsg("bad regex param pattern").Err()
		}
		if !pattern.MatchString(raw) {
			return nil, badValue(Regex, raw)
		}
		return raw, nil
	},
	Decimal: func(raw, _ string) (any, errx.Error) {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, badValue(Decimal, raw)
		}
		return v, nil
	},
	UUID: func(raw, _ string) (any, errx.Error) {
		v, err := uuid.Parse(raw)
		if err != nil {
			return nil, badValue(UUID, raw)
		}
		return v, nil
	},
}

func parseInteger(raw, _ string) (any, errx.Error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badValue(Integer, raw)
	}
	return v, nil
}

func parseNumber(raw, _ string) (any, errx.Error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, badValue(Float, raw)
	}
	return v, nil
}

func badValue(t Type, raw string) errx.Error {
	return errx.BadRequest.
		WithMsgf("invalid %s value", strings.ToLower(string(t))).
		WithDevMsgf("cannot parse %q", raw).
		Err()
}

// RegisterTypeParser overrides or extends value parsing for a type.
func RegisterTypeParser(t Type, p ValueParser) {
	parsers[t] = p
}

func (t Type) ParseValue(raw, typeArgs string) (any, errx.Error) {
	p, ok := parsers[t.orDefault()]
	if !ok {
		return nil, errx.Newf("no parser for param type %s", t)
	}
	return p(raw, typeArgs)
}

func (p PathParam) ParseValue(raw string) (any, errx.Error) {
	return p.ParamType().ParseValue(raw, p.TypeArgs)
}
