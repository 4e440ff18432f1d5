package env

var (
	BaseConfigReaderBuilder = NewReaderBuilder[Base]()
)

// Base is the configuration surface every service shares.
type Base struct {
	Env      Env      `env:"ENV" default:"prod" validate:"enum='dev|prod|test|stag'"`
	LogLevel LogLevel `env:"LOG_LEVEL" default:"info" validate:"enum='debug|info|warn|error'"`
	AppName  string   `env:"APP_NAME,omitempty"`
	PodName  string   `env:"POD_NAME" default:"pod"`
}

type Env string

const (
	DEV  Env = "dev"
	PROD Env = "prod"
	TEST Env = "test"
	STAG Env = "stag"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
