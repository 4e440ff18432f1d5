package pathx

// Type enumerates the data types a path or query parameter can declare.
// Each carries the wire type and format used in generated documents.
type Type string

const (
	Integer  Type = "Integer"
	Long     Type = "Long"
	Float    Type = "Float"
	Double   Type = "Double"
	String   Type = "String"
	Byte     Type = "Byte"
	Binary   Type = "Binary"
	Boolean  Type = "Boolean"
	Date     Type = "Date"
	Time     Type = "Time"
	DateTime Type = "DateTime"
	Password Type = "Password"
	Email    Type = "Email"
	Regex    Type = "Regex"
	Decimal  Type = "Decimal"
	UUID     Type = "UUID"
)

type typeMeta struct {
	wire   string
	format string
}

var typeMetas = map[Type]typeMeta{
	Integer:  {"integer", "int32"},
	Long:     {"integer", "int64"},
	Float:    {"number", "float"},
	Double:   {"number", "double"},
	String:   {"string", ""},
	Byte:     {"string", "byte"},
	Binary:   {"string", "binary"},
	Boolean:  {"boolean", ""},
	Date:     {"string", "date"},
	Time:     {"string", "time"},
	DateTime: {"string", "date-time"},
	Password: {"string", "password"},
	Email:    {"string", "email"},
	Regex:    {"string", "regex"},
	Decimal:  {"string", "decimal"},
	UUID:     {"string", "uuid"},
}

// orDefault maps the zero Type to Integer, the historical default for
// undeclared parameter types.
func (t Type) orDefault() Type {
	if t == "" {
		return Integer
	}
	return t
}

func (t Type) Valid() bool {
	_, ok := typeMetas[t.orDefault()]
	return ok
}

// WireType returns the primitive type name used on the wire.
func (t Type) WireType() string {
	return typeMetas[t.orDefault()].wire
}

// WireFormat returns the wire format qualifier, "" when the type has none.
func (t Type) WireFormat() string {
	return typeMetas[t.orDefault()].format
}

// TypeByName resolves the exported spelling used in path templates,
// e.g. "Integer" in "{id:Integer}".
func TypeByName(name string) (Type, bool) {
	t := Type(name)
	_, ok := typeMetas[t]
	return t, ok
}
