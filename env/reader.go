package env

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/tencent-go/apix/validation"
)

// ConfigReader parses a struct of env-tagged fields once and hands out
// the result. A parse problem panics after printing the state table,
// so a misconfigured process dies at startup with the full picture.
type ConfigReader[T any] interface {
	Read() T
}

type ReaderBuilder[T any] interface {
	WithPrefix(prefix string) ReaderBuilder[T]
	WithAllFieldsRequired(required bool) ReaderBuilder[T]
	Build() ConfigReader[T]
}

func NewReaderBuilder[T any]() ReaderBuilder[T] {
	return &readerBuilder[T]{}
}

type readerBuilder[T any] struct {
	prefix            string
	allFieldsRequired *bool
	reader            *configReader[T]
}

func (b *readerBuilder[T]) WithPrefix(prefix string) ReaderBuilder[T] {
	return &readerBuilder[T]{
		prefix:            prefix,
		allFieldsRequired: b.allFieldsRequired,
	}
}

func (b *readerBuilder[T]) WithAllFieldsRequired(required bool) ReaderBuilder[T] {
	return &readerBuilder[T]{
		prefix:            b.prefix,
		allFieldsRequired: &required,
	}
}

func (b *readerBuilder[T]) Build() ConfigReader[T] {
	if b.reader == nil {
		b.reader = &configReader[T]{
			prefix:            b.prefix,
			allFieldsRequired: b.allFieldsRequired,
			typ:               reflect.TypeOf(new(T)).Elem(),
		}
		registry = append(registry, b.reader)
	}
	return b.reader
}

type stateReporter interface {
	parse()
	printState()
}

var registry []stateReporter

// PrintState parses every built reader and prints its variable table,
// documenting the full environment surface of the process.
func PrintState() {
	for _, reader := range registry {
		reader.parse()
		reader.printState()
	}
}

type configReader[T any] struct {
	prefix            string
	allFieldsRequired *bool
	typ               reflect.Type
	once              sync.Once
	parsed            *T
	fields            []fieldState
	hasErr            bool
}

type fieldState struct {
	key          string
	required     bool
	value        string
	defaultValue string
	example      string
	description  string
	kind         string
	issue        string
}

func (c *configReader[T]) Read() T {
	c.parse()
	if c.hasErr {
		c.printState()
		panic("Configuration parsing error")
	}
	return *c.parsed
}

func (c *configReader[T]) parse() {
	c.once.Do(func() {
		target := new(T)
		c.fields = c.bindStruct(reflect.ValueOf(target).Elem())
		for _, field := range c.fields {
			if field.issue != "" {
				c.hasErr = true
				break
			}
		}
		c.parsed = target
	})
}

// bindStruct resolves each field's variable name and fills it from the
// environment. Anonymous structs flatten into their parent; nil
// pointers are allocated along the way. The variable name comes from
// the env tag, or the field name in SNAKE_CASE, with the reader prefix
// prepended.
func (c *configReader[T]) bindStruct(val reflect.Value) []fieldState {
	typ := val.Type()
	var fields []fieldState
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !fieldType.IsExported() {
			continue
		}
		tag := fieldType.Tag.Get("env")
		if tag == "-" {
			continue
		}
		omitempty := strings.HasSuffix(tag, ",omitempty")
		tag = strings.TrimSuffix(tag, ",omitempty")
		if tag == "" {
			tag = toSnakeCase(fieldType.Name)
		}
		if c.prefix != "" {
			tag = c.prefix + "_" + tag
		}

		if fieldType.Anonymous {
			if field.Kind() == reflect.Pointer {
				if field.IsNil() {
					field.Set(reflect.New(field.Type().Elem()))
				}
				field = field.Elem()
			}
			if field.Kind() == reflect.Struct {
				fields = append(fields, c.bindStruct(field)...)
			}
			continue
		}

		rule, _, ruleErr := validation.CreateFieldConfig(fieldType, true, []string{"env"})

		required := rule.IsRequired()
		if c.allFieldsRequired != nil {
			required = *c.allFieldsRequired
		}
		if omitempty {
			required = false
		}

		for field.Kind() == reflect.Pointer {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}

		state := fieldState{
			key:          tag,
			required:     required,
			value:        os.Getenv(tag),
			defaultValue: fieldType.Tag.Get("default"),
			example:      fieldType.Tag.Get("example"),
			description:  fieldType.Tag.Get("description"),
			kind:         field.Type().String(),
		}
		if ruleErr != nil {
			state.issue = ruleErr.Error()
			fields = append(fields, state)
			continue
		}

		value := state.value
		if value == "" {
			value = state.defaultValue
		}
		if err := setFieldValue(value, field, !required); err != nil {
			state.issue = err.Error()
		} else if value != "" {
			if err := rule.ValidateValue(field); err != nil {
				state.issue = err.Error()
			}
		}
		fields = append(fields, state)
	}
	return fields
}

func setFieldValue(value string, field reflect.Value, omitempty bool) error {
	if value == "" {
		if omitempty {
			return nil
		}
		return fmt.Errorf("required value is empty")
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer value: %v", err)
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %v", err)
		}
		field.SetUint(i)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float value: %v", err)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %v", err)
		}
		field.SetBool(b)
	case reflect.Slice:
		values := strings.Split(value, ",")
		slice := reflect.MakeSlice(field.Type(), len(values), len(values))
		for i, v := range values {
			if err := setFieldValue(strings.TrimSpace(v), slice.Index(i), false); err != nil {
				return err
			}
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported type: %v", field.Type())
	}
	return nil
}

var stateColumns = []struct {
	title string
	cap   int
}{
	{"Key", 30},
	{"Type", 20},
	{"Current Value", 50},
	{"Required", 10},
	{"Example", 40},
	{"Description", 60},
	{"Issue", 30},
}

func (c *configReader[T]) printState() {
	rows := make([][]string, 0, len(c.fields))
	for _, field := range c.fields {
		current := field.value
		if current == "" {
			current = field.defaultValue
		}
		if current != "" && current == field.defaultValue {
			current += " (default)"
		}
		required := ""
		if field.required {
			required = "yes"
		}
		rows = append(rows, []string{
			field.key, field.kind, current, required,
			field.example, field.description, field.issue,
		})
	}

	widths := make([]int, len(stateColumns))
	for i, col := range stateColumns {
		widths[i] = len(col.title)
		for _, row := range rows {
			if w := len(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
		if widths[i] > col.cap {
			widths[i] = col.cap
		}
	}

	var b strings.Builder
	withPrefix := ""
	if c.prefix != "" {
		withPrefix = fmt.Sprintf(" with prefix %s", c.prefix)
	}
	fmt.Fprintf(&b, "\nStruct [%s]%s environment variable state:\n", c.typ.String(), withPrefix)

	total := 1
	for _, w := range widths {
		total += w + 3
	}
	line := "+" + strings.Repeat("-", total-1) + "+\n"
	writeRow := func(cells []string) {
		for i, w := range widths {
			fmt.Fprintf(&b, "| %-*s ", w, truncate(cells[i], w))
		}
		b.WriteString("|\n")
	}

	titles := make([]string, len(stateColumns))
	for i, col := range stateColumns {
		titles[i] = col.title
	}
	b.WriteString(line)
	writeRow(titles)
	b.WriteString(line)
	for _, row := range rows {
		writeRow(row)
	}
	b.WriteString(line)
	fmt.Print(b.String())
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return "..."
	}
	return s[:width-3] + "..."
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToUpper(r))
	}
	return result.String()
}
