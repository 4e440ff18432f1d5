package validation

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/util"
)

// NonFieldErrors keys violations that cannot be attributed to a single
// field.
const NonFieldErrors = "__all__"

// FieldErrors maps wire field paths to their violation messages; it is
// attached as error meta so clients get per-field detail.
type FieldErrors map[string][]string

func (e FieldErrors) add(path []string, msg string) {
	key := strings.Join(path, ".")
	if key == "" {
		key = NonFieldErrors
	}
	e[key] = append(e[key], msg)
}

// Config is the compiled validation plan for one value: its own
// validators plus nested plans for struct fields, elements and map
// keys.
type Config struct {
	required           bool
	label              string
	mapConfig          *MapConfig
	arrayConfig        *Config
	structFieldsConfig []StructFieldConfig
	validators         []Validator
}

type MapConfig struct {
	KeyConfig   *Config
	ValueConfig *Config
}

type StructFieldConfig struct {
	Index  int
	Config *Config
}

type options struct {
	alwaysValidate bool
	labelTags      []string
}

type Option func(*options)

// AlwaysValidate compiles a config for every exported field, not just
// the `validate`-tagged ones.
func AlwaysValidate() Option {
	return func(o *options) {
		o.alwaysValidate = true
	}
}

// WithLabelTags sets the struct tags consulted, in order, for field
// labels in error keys. The default is the json tag.
func WithLabelTags(labelTags ...string) Option {
	return func(o *options) {
		o.labelTags = labelTags
	}
}

var cachedStructConfig = util.LazyMap[string, []StructFieldConfig]{}

// ValidateStruct runs every tagged rule of the struct and collects all
// violations; the returned error carries a FieldErrors map as meta.
// Non-struct and nil values pass.
func ValidateStruct(value any, opts ...Option) errx.Error {
	o := &options{labelTags: []string{"json"}}
	for _, opt := range opts {
		opt(o)
	}
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	fields, err := structConfigFor(v.Type(), o)
	if err != nil {
		return err
	}
	errs := FieldErrors{}
	for _, fc := range fields {
		fc.Config.validate(v.Field(fc.Index), nil, errs)
	}
	if len(errs) > 0 {
		return errx.Validation.WithMeta(errs).Err()
	}
	return nil
}

func structConfigFor(typ reflect.Type, o *options) ([]StructFieldConfig, errx.Error) {
	key := fmt.Sprintf("%s.%s.%s.%t", typ.PkgPath(), typ.Name(), strings.Join(o.labelTags, "_"), o.alwaysValidate)
	var buildErr errx.Error
	fields, _ := cachedStructConfig.LoadOrLazyStore(key, func() []StructFieldConfig {
		res, err := CreateStructConfig(typ, o.alwaysValidate, o.labelTags)
		buildErr = err
		return res
	})
	if buildErr != nil {
		cachedStructConfig.Delete(key)
	}
	return fields, buildErr
}

func (c *Config) validate(value reflect.Value, path []string, errs FieldErrors) {
	if c.label != "" {
		path = append(path, c.label)
	}
	if !value.IsValid() {
		errs.add(path, "value is not valid")
		return
	}
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			if c.required {
				errs.add(path, "value is required")
			}
			return
		}
		value = value.Elem()
	}
	if isZero(value) {
		if !c.required {
			return
		}
		// A required zero still runs validators when there are any, so a
		// too-short string reports its length rule rather than "required".
		if !c.hasValidators() {
			errs.add(path, "value is required")
			return
		}
	}
	c.runValidators(value, path, errs)
}

func (c *Config) runValidators(value reflect.Value, path []string, errs FieldErrors) {
	for _, validator := range c.validators {
		if err := validator(value); err != nil {
			errs.add(path, err.Error())
			break
		}
	}
	if c.mapConfig != nil && value.Kind() == reflect.Map {
		for _, key := range value.MapKeys() {
			keyPath := append(path, fmt.Sprint(key.Interface()))
			if conf := c.mapConfig.KeyConfig; conf != nil {
				conf.validate(key, keyPath, errs)
			}
			if conf := c.mapConfig.ValueConfig; conf != nil {
				conf.validate(value.MapIndex(key), keyPath, errs)
			}
		}
	}
	if c.arrayConfig != nil && (value.Kind() == reflect.Slice || value.Kind() == reflect.Array) {
		for i := 0; i < value.Len(); i++ {
			c.arrayConfig.validate(value.Index(i), append(path, strconv.Itoa(i)), errs)
		}
	}
	if c.structFieldsConfig != nil && value.Kind() == reflect.Struct {
		for _, conf := range c.structFieldsConfig {
			if conf.Index < 0 || conf.Index >= value.NumField() || conf.Config == nil {
				errs.add(path, fmt.Sprintf("invalid struct field config: %d", conf.Index))
				continue
			}
			conf.Config.validate(value.Field(conf.Index), path, errs)
		}
	}
}

func (c *Config) hasValidators() bool {
	return len(c.validators) > 0 || c.mapConfig != nil || c.arrayConfig != nil || c.structFieldsConfig != nil
}

// CreateConfig compiles a rule against a type. ok is false when the
// config would never reject anything.
func CreateConfig(typ reflect.Type, rule Rule, alwaysValidate bool, labelTags []string) (res *Config, ok bool, err errx.Error) {
	res = &Config{}
	defer func() {
		if err != nil {
			res = nil
			ok = false
			return
		}
		if !res.required && !res.hasValidators() {
			res = nil
			ok = false
			return
		}
		ok = true
	}()
	if rule.Label != nil {
		res.label = *rule.Label
	}
	if rule.Required != nil {
		res.required = *rule.Required
	}
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	if typ.Implements(validatableInterface) || reflect.PointerTo(typ).Implements(validatableInterface) {
		res.validators = append(res.validators, validatableValidator)
		return
	}

	for _, builder := range customValidatorBuilders {
		if validator, built := builder(typ, &rule); built {
			res.validators = append(res.validators, validator)
		}
	}
	if len(res.validators) > 0 {
		return
	}
	for _, builder := range defaultValidatorBuilders {
		if validator, built := builder(typ, &rule); built {
			res.validators = append(res.validators, validator)
		}
	}

	switch typ.Kind() {
	case reflect.Struct:
		res.structFieldsConfig, err = CreateStructConfig(typ, alwaysValidate, labelTags)
	case reflect.Slice, reflect.Array:
		elemRule := rule.Dive
		if elemRule == nil {
			elemRule = &Rule{}
		}
		res.arrayConfig, _, err = CreateConfig(typ.Elem(), *elemRule, alwaysValidate, labelTags)
	case reflect.Map:
		var keyConfig, valueConfig *Config
		keyRule := rule.MapKey
		if keyRule == nil {
			keyRule = &Rule{}
		}
		if keyConfig, _, err = CreateConfig(typ.Key(), *keyRule, alwaysValidate, labelTags); err != nil {
			return
		}
		valueRule := rule.Dive
		if valueRule == nil {
			valueRule = &Rule{}
		}
		if valueConfig, _, err = CreateConfig(typ.Elem(), *valueRule, alwaysValidate, labelTags); err != nil {
			return
		}
		if keyConfig != nil || valueConfig != nil {
			res.mapConfig = &MapConfig{KeyConfig: keyConfig, ValueConfig: valueConfig}
		}
	}
	return
}

var validatableInterface = reflect.TypeOf((*Validatable)(nil)).Elem()

// CreateStructConfig compiles the per-field plans of a struct. Fields
// participate when they carry a `validate` tag (or always, with
// alwaysValidate); embedded structs are flattened.
func CreateStructConfig(typ reflect.Type, alwaysValidate bool, labelTags []string) ([]StructFieldConfig, errx.Error) {
	if typ.Kind() != reflect.Struct {
		return nil, errx.Newf("%s is not a struct", typ.Name())
	}
	var res []StructFieldConfig
	for i := 0; i < typ.NumField(); i++ {
		fieldConfig, ok, err := createStructFieldConfig(typ.Field(i), alwaysValidate, labelTags)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		res = append(res, StructFieldConfig{Index: i, Config: fieldConfig})
	}
	return res, nil
}

func createStructFieldConfig(field reflect.StructField, alwaysValidate bool, labelTags []string) (*Config, bool, errx.Error) {
	if !field.IsExported() {
		return nil, false, nil
	}
	vTag := field.Tag.Get("validate")
	if vTag == "-" || strings.HasPrefix(vTag, "ignore") {
		return nil, false, nil
	}
	if field.Anonymous {
		fields, err := CreateStructConfig(field.Type, alwaysValidate, labelTags)
		if err != nil {
			return nil, false, err
		}
		if len(fields) == 0 {
			return nil, false, nil
		}
		return &Config{structFieldsConfig: fields}, true, nil
	}
	if vTag == "" && !alwaysValidate {
		return nil, false, nil
	}

	rule := Rule{}
	if vTag != "" {
		if err := rule.Parse(vTag); err != nil {
			return nil, false, err
		}
	}
	if rule.Label == nil {
		rule.SetLabel(fieldLabel(field, labelTags))
	}
	return CreateConfig(field.Type, rule, alwaysValidate, labelTags)
}

// CreateFieldConfig exposes the per-field compilation for callers that
// bind one field at a time, like the env reader. ok is false when the
// field opted out or no rule applies.
func CreateFieldConfig(field reflect.StructField, alwaysValidate bool, labelTags []string) (*Config, bool, errx.Error) {
	return createStructFieldConfig(field, alwaysValidate, labelTags)
}

// IsRequired reports whether the compiled rule demands a value.
func (c *Config) IsRequired() bool {
	return c != nil && c.required
}

// ValidateValue runs the compiled plan against one value and folds all
// violations into a single 400 whose message carries the detail.
func (c *Config) ValidateValue(value reflect.Value) errx.Error {
	if c == nil {
		return nil
	}
	errs := FieldErrors{}
	c.validate(value, nil, errs)
	if len(errs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+strings.Join(errs[key], ", "))
	}
	return errx.BadRequest.WithMsg(strings.Join(parts, "; ")).WithMeta(errs).Err()
}

func fieldLabel(field reflect.StructField, labelTags []string) string {
	for _, tag := range labelTags {
		raw := field.Tag.Get(tag)
		if name := strings.Split(raw, ",")[0]; name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

type ZeroChecker interface {
	IsZero() bool
}

var zeroCheckerInterface = reflect.TypeOf((*ZeroChecker)(nil)).Elem()

// isZero treats false as a value, so a required bool accepts both
// states.
func isZero(value reflect.Value) bool {
	if value.Type().Implements(zeroCheckerInterface) {
		return value.Interface().(ZeroChecker).IsZero()
	}
	if value.Kind() == reflect.Bool {
		return false
	}
	return value.IsZero()
}
