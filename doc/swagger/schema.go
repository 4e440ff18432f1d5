package swagger

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tencent-go/apix/api"
)

// definitions accumulates the named schemas referenced from the paths
// section, keyed by resource name.
type definitions map[string]*Schema

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	idType      = reflect.TypeOf(api.ID(0))
	bytesType   = reflect.TypeOf([]byte(nil))
)

// addResource ensures a definition exists for the resource and returns
// a reference to it. Resources without a reflected type (sentinels)
// yield nil.
func (d definitions) addResource(info *api.ResourceInfo) *Schema {
	if info == nil || info.Type == nil {
		return nil
	}
	d.define(info.Name, info.Type)
	return refSchema(info.Name)
}

func (d definitions) define(name string, t reflect.Type) {
	if _, ok := d[name]; ok {
		return
	}
	// Reserve the slot first so self-referential resources terminate.
	schema := &Schema{Type: "object"}
	d[name] = schema
	schema.Properties = d.structProperties(t)
}

func (d definitions) structProperties(t reflect.Type) map[string]*Schema {
	props := make(map[string]*Schema)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			if f.Anonymous {
				// Embedded structs flatten into the parent, matching
				// the JSON encoding.
				ft := f.Type
				for ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					for k, v := range d.structProperties(ft) {
						props[k] = v
					}
					continue
				}
			}
			name = strings.ToLower(f.Name)
		}
		schema := d.schemaFor(f.Type)
		if desc := f.Tag.Get("description"); desc != "" {
			schema.Description = desc
		}
		if f.Tag.Get("readonly") == "true" {
			schema.ReadOnly = true
		}
		if enum := f.Tag.Get("enum"); enum != "" {
			for _, v := range strings.Split(enum, "|") {
				schema.Enum = append(schema.Enum, v)
			}
		}
		props[name] = schema
	}
	return props
}

// schemaFor maps a Go type onto a schema, registering definitions for
// any named struct types it reaches.
func (d definitions) schemaFor(t reflect.Type) *Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return &Schema{Type: "string", Format: "date-time"}
	case decimalType:
		return &Schema{Type: "string", Format: "decimal"}
	case uuidType:
		return &Schema{Type: "string", Format: "uuid"}
	case idType:
		// Serialised as a string to survive JSON number precision.
		return &Schema{Type: "string", Format: "snowflake"}
	case bytesType:
		return &Schema{Type: "string", Format: "byte"}
	}
	switch t.Kind() {
	case reflect.Struct:
		if t.Name() == "" {
			return &Schema{Type: "object", Properties: d.structProperties(t)}
		}
		name := definitionName(t)
		d.define(name, t)
		return refSchema(name)
	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: d.schemaFor(t.Elem())}
	case reflect.Map:
		return &Schema{Type: "object", AdditionalProperties: d.schemaFor(t.Elem())}
	case reflect.Interface:
		return &Schema{}
	default:
		pt := api.ParamTypeFor(t)
		return &Schema{Type: pt.WireType(), Format: pt.WireFormat()}
	}
}

// definitionName strips generic type arguments, so Listing[Book]
// documents as "Listing".
func definitionName(t reflect.Type) string {
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}
