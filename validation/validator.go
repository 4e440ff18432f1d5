package validation

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tencent-go/apix/errx"
)

// Validatable lets a type carry its own validation; it is honoured both
// for struct fields and for whole request bodies.
type Validatable interface {
	Validate() errx.Error
}

type Validator func(value reflect.Value) errx.Error

// ValidatorBuilder inspects a field type and rule and returns a
// validator when it applies. Custom builders registered with
// RegisterValidatorBuilder take precedence over the defaults.
type ValidatorBuilder func(typ reflect.Type, rule *Rule) (Validator, bool)

var defaultValidatorBuilders = []ValidatorBuilder{
	intRangeValidatorBuilder,
	uintRangeValidatorBuilder,
	floatRangeValidatorBuilder,
	decimalRangeValidatorBuilder,
	timeRangeValidatorBuilder,
	lengthRangeValidatorBuilder,
	patternValidatorBuilder,
	enumValidatorBuilder,
}

var customValidatorBuilders []ValidatorBuilder

func RegisterValidatorBuilder(builder ValidatorBuilder) {
	customValidatorBuilders = append(customValidatorBuilders, builder)
}

func validatableValidator(value reflect.Value) errx.Error {
	if v, ok := value.Interface().(Validatable); ok {
		return v.Validate()
	}
	if value.CanAddr() {
		if v, ok := value.Addr().Interface().(Validatable); ok {
			return v.Validate()
		}
	}
	return errx.Newf("value is not validatable")
}

// parseBound turns an optional rule bound into a typed value; a bound
// that does not parse disables the whole builder, matching a bad tag
// being ignored rather than failing requests.
func parseBound[N any](raw *string, parse func(string) (N, error)) (*N, bool) {
	if raw == nil {
		return nil, true
	}
	v, err := parse(*raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func rangeValidator[N cmp.Ordered](minValue, maxValue *N, get func(reflect.Value) N, unit string) Validator {
	return func(value reflect.Value) errx.Error {
		v := get(value)
		if minValue != nil && v < *minValue {
			return errx.Validation.WithMsgf("%s must be greater than or equal to %v.", unit, *minValue).Err()
		}
		if maxValue != nil && v > *maxValue {
			return errx.Validation.WithMsgf("%s must be less than or equal to %v.", unit, *maxValue).Err()
		}
		return nil
	}
}

func intRangeValidatorBuilder(typ reflect.Type, rule *Rule) (Validator, bool) {
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return nil, false
	}
	minValue, ok := parseBound(rule.Min, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
	if !ok {
		return nil, false
	}
	maxValue, ok := parseBound(rule.Max, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
	if !ok || (minValue == nil && maxValue == nil) {
		return nil, false
	}
	return rangeValidator(minValue, maxValue, reflect.Value.Int, "value"), true
}

func uintRangeValidatorBuilder(typ reflect.Type, rule *Rule) (Validator, bool) {
	switch typ.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return nil, false
	}
	minValue, ok := parseBound(rule.Min, func(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) })
	if !ok {
		return nil, false
	}
	maxValue, ok := parseBound(rule.Max, func(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) })
	if !ok || (minValue == nil && maxValue == nil) {
		return nil, false
	}
	return rangeValidator(minValue, maxValue, reflect.Value.Uint, "value"), true
}

func floatRangeValidatorBuilder(typ reflect.Type, rule *Rule) (Validator, bool) {
	if typ.Kind() != reflect.Float32 && typ.Kind() != reflect.Float64 {
		return nil, false
	}
	minValue, ok := parseBound(rule.Min, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	if !ok {
		return nil, false
	}
	maxValue, ok := parseBound(rule.Max, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	if !ok || (minValue == nil && maxValue == nil) {
		return nil, false
	}
	return rangeValidator(minValue, maxValue, reflect.Value.Float, "value"), true
}

func lengthRangeValidatorBuilder(typ reflect.Type, rule *Rule) (Validator, bool) {
	switch typ.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
	default:
		return nil, false
	}
	minLen, ok := parseBound(rule.Min, strconv.Atoi)
	if !ok {
		return nil, false
	}
	maxLen, ok := parseBound(rule.Max, strconv.Atoi)
	if !ok || (minLen == nil && maxLen == nil) {
		return nil, false
	}
	return rangeValidator(minLen, maxLen, reflect.Value.Len, "value length"), true
}

func decimalRangeValidatorBuilder(typ reflect.Type, rule *Rule) (Validator, bool) {
	if !typ.ConvertibleTo(decimalType) {
		return nil, false
	}
	minValue, ok := parseBound(rule.Min, decimal.NewFromString)
	if !ok {
		return nil, false
	}
	maxValue, ok := parseBound(rule.Max, decimal.NewFromString)
	if !ok || (minValue == nil && maxValue == nil) {
		return nil, false
	}
	return func(value reflect.Value) errx.Error {
		d, isDecimal := value.Interface().(decimal.Decimal)
		if !isDecimal {
			return errx.Newf("value is not decimal")
		}
		if minValue != nil && d.LessThan(*minValue) {
			return errx.Validation.WithMsgf("value must be greater than or equal to %s.", *minValue).Err()
		}
		if maxValue != nil && d.GreaterThan(*maxValue) {
			return errx.Validation.WithMsgf("value must be less than or equal to %s.", *maxValue).Err()
		}
		return nil
	}, true
}

func timeRangeValidatorBuilder(typ reflect.Type, rule *Rule) (Validator, bool) {
	if !typ.ConvertibleTo(timeType) {
		return nil, false
	}
	parse := func(s string) (time.Time, error) { return time.Parse(time.RFC3339, s) }
	minTime, ok := parseBound(rule.Min, parse)
	if !ok {
		return nil, false
	}
	maxTime, ok := parseBound(rule.Max, parse)
	if !ok || (minTime == nil && maxTime == nil) {
		return nil, false
	}
	return func(value reflect.Value) errx.Error {
		t, isTime := value.Interface().(time.Time)
		if !isTime {
			return errx.Newf("value is not time")
		}
		if minTime != nil && t.Before(*minTime) {
			return errx.Validation.WithMsgf("value must be greater than or equal to %s.", *minTime).Err()
		}
		if maxTime != nil && t.After(*maxTime) {
			return errx.Validation.WithMsgf("value must be less than or equal to %s.", *maxTime).Err()
		}
		return nil
	}, true
}

func patternValidatorBuilder(typ reflect.Type, rule *Rule) (Validator, bool) {
	if typ.Kind() != reflect.String || rule.Pattern == nil {
		return nil, false
	}
	return func(value reflect.Value) errx.Error {
		if !rule.Pattern.MatchString(value.String()) {
			return errx.Validation.WithMsg("format error").Err()
		}
		return nil
	}, true
}

func enumValidatorBuilder(_ reflect.Type, rule *Rule) (Validator, bool) {
	if len(rule.Enum) == 0 {
		return nil, false
	}
	allowed := slices.Clone(rule.Enum)
	return func(value reflect.Value) errx.Error {
		if !slices.Contains(allowed, fmt.Sprint(value.Interface())) {
			return errx.Validation.WithMsgf("value must be one of %s.", strings.Join(allowed, ", ")).Err()
		}
		return nil
	}, true
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)
