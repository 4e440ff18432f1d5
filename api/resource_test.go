package api

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencent-go/apix/pathx"
)

func TestResourceOf(t *testing.T) {
	info := ResourceOf[Book]()
	assert.Equal(t, "Book", info.Name)
	assert.Equal(t, "id", info.KeyField)
	assert.Equal(t, pathx.Long, info.KeyFieldType)

	// cached per type
	assert.Same(t, info, ResourceOf[Book]())
}

func TestResourceOfWithoutKeyField(t *testing.T) {
	type note struct {
		Text string `json:"text"`
	}
	info := ResourceOf[note]()
	assert.Empty(t, info.KeyField)
	assert.Equal(t, DefaultKeyFieldName, info.KeyFieldName())
}

func TestNamedResourceOf(t *testing.T) {
	named := NamedResourceOf[Book]("Publication")
	assert.Equal(t, "Publication", named.Name)
	assert.Equal(t, "Book", ResourceOf[Book]().Name)
}

func TestClearKeyField(t *testing.T) {
	book := &Book{ID: 42, Title: "Matter"}
	ResourceOf[Book]().ClearKeyField(book)
	assert.Equal(t, int64(0), book.ID)
	assert.Equal(t, "Matter", book.Title)
}

func TestParamTypeFor(t *testing.T) {
	cases := []struct {
		name string
		typ  reflect.Type
		want pathx.Type
	}{
		{"string", reflect.TypeOf(""), pathx.String},
		{"bool", reflect.TypeOf(true), pathx.Boolean},
		{"int", reflect.TypeOf(int(0)), pathx.Integer},
		{"int64", reflect.TypeOf(int64(0)), pathx.Long},
		{"float32", reflect.TypeOf(float32(0)), pathx.Float},
		{"float64", reflect.TypeOf(float64(0)), pathx.Double},
		{"time", reflect.TypeOf(time.Time{}), pathx.DateTime},
		{"uuid", reflect.TypeOf(uuid.UUID{}), pathx.UUID},
		{"decimal", reflect.TypeOf(decimal.Decimal{}), pathx.Decimal},
		{"snowflake id", reflect.TypeOf(ID(0)), pathx.Long},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ParamTypeFor(c.typ))
		})
	}
}

func TestKeyFieldWireName(t *testing.T) {
	type tagged struct {
		Code string `json:"code,omitempty" apix:"key"`
	}
	info := ResourceOf[tagged]()
	assert.Equal(t, "code", info.KeyField)
	assert.Equal(t, pathx.String, info.KeyFieldType)

	type untagged struct {
		Serial int `apix:"key"`
	}
	require.Equal(t, "serial", ResourceOf[untagged]().KeyField)
}

func TestResourceMustBeStruct(t *testing.T) {
	assert.Panics(t, func() {
		ResourceOf[int]()
	})
}
