package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type databaseConfig struct {
	Host     string   `env:"DB_HOST" default:"localhost"`
	Port     int      `env:"DB_PORT" default:"5432"`
	Replicas []string `env:"DB_REPLICAS,omitempty"`
	Password string   `env:"DB_PASSWORD" validate:"required"`
	Debug    bool     `env:"DB_DEBUG" default:"false"`
}

func TestReaderDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "hunter2")
	c := NewReaderBuilder[databaseConfig]().Build().Read()
	assert.Equal(t, "localhost", c.Host)
	assert.Equal(t, 5432, c.Port)
	assert.Equal(t, "hunter2", c.Password)
	assert.False(t, c.Debug)
	assert.Empty(t, c.Replicas)
}

func TestReaderOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_REPLICAS", "one, two,three")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("DB_DEBUG", "true")
	c := NewReaderBuilder[databaseConfig]().Build().Read()
	assert.Equal(t, "db.internal", c.Host)
	assert.Equal(t, 6432, c.Port)
	assert.Equal(t, []string{"one", "two", "three"}, c.Replicas)
	assert.True(t, c.Debug)
}

func TestReaderMissingRequired(t *testing.T) {
	reader := NewReaderBuilder[databaseConfig]().Build()
	assert.PanicsWithValue(t, "Configuration parsing error", func() { reader.Read() })
}

func TestReaderBadInteger(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("DB_PASSWORD", "hunter2")
	reader := NewReaderBuilder[databaseConfig]().Build()
	assert.Panics(t, func() { reader.Read() })
}

func TestReaderPrefix(t *testing.T) {
	t.Setenv("APP_DB_PASSWORD", "s3cret")
	c := NewReaderBuilder[databaseConfig]().WithPrefix("APP").Build().Read()
	assert.Equal(t, "s3cret", c.Password)
	assert.Equal(t, "localhost", c.Host)
}

type snakeConfig struct {
	ServiceName string `default:"apix"`
	MaxRetries  int    `default:"3"`
}

func TestReaderSnakeCaseNames(t *testing.T) {
	t.Setenv("SERVICE_NAME", "gateway")
	c := NewReaderBuilder[snakeConfig]().Build().Read()
	assert.Equal(t, "gateway", c.ServiceName)
	assert.Equal(t, 3, c.MaxRetries)
}

type serviceConfig struct {
	Base
	Listen string `env:"LISTEN" default:":9090"`
}

func TestReaderFlattensEmbedded(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("APP_NAME", "orders")
	c := NewReaderBuilder[serviceConfig]().Build().Read()
	assert.Equal(t, TEST, c.Env)
	assert.Equal(t, "orders", c.AppName)
	assert.Equal(t, ":9090", c.Listen)
}

func TestBaseConfig(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("POD_NAME", "pod-7")
	c := NewReaderBuilder[Base]().Build().Read()
	assert.Equal(t, DEV, c.Env)
	assert.Equal(t, "pod-7", c.PodName)
	assert.Equal(t, LogLevelInfo, c.LogLevel)
}

func TestBaseConfigRejectsUnknownLevel(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_LEVEL", "loud")
	reader := NewReaderBuilder[Base]().Build()
	assert.Panics(t, func() { reader.Read() })
}
