package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ProductionEnvironmentName  = "production"
	DevelopmentEnvironmentName = "development"
)

const envFile = ".env"

type Env struct {
	EnvironmentName       string        `env:"ENVIRONMENT_NAME" env-required:"true"`
	HTTPPortNumber        int           `env:"HTTP_PORT_NUMBER" env-default:"3000"`
	AllowedOrigins        []string      `env:"ALLOWED_ORIGINS" env-default:"http://localhost"`
	RedisURL              string        `env:"REDIS_URL"`
	RabbitMQURL           string        `env:"RABBITMQ_URL"`
	OrderExchange         string        `env:"ORDER_EXCHANGE" env-default:"order_status"`
	OrderQueue            string        `env:"ORDER_QUEUE"`
	UIDGeneratorStartTime string        `env:"UNIQUE_ID_GENERATOR_START_TIME" env-default:"2024-06-13"`
	MachineID             uint16        `env:"MACHINE_ID" env-default:"1"`
	LogConfigPath         string        `env:"LOG_CONFIG_PATH"`
	SendBufferSize        int           `env:"SEND_BUFFER_SIZE" env-default:"256"`
	PresenceTTL           time.Duration `env:"PRESENCE_TTL" env-default:"90s"`
}

func (e *Env) IsProduction() bool {
	return e.EnvironmentName == ProductionEnvironmentName
}

// OriginAllowed reports whether a browser origin may open a websocket. A
// request without an Origin header is not a browser and is allowed.
func (e *Env) OriginAllowed(origin string) bool {
	if origin == "" || slices.Contains(e.AllowedOrigins, "*") {
		return true
	}

	return slices.Contains(e.AllowedOrigins, strings.TrimSuffix(origin, "/"))
}

// newEnv reads .env when it exists and the process environment otherwise.
func newEnv() (*Env, error) {
	var (
		env Env
		err error
	)

	if _, statErr := os.Stat(envFile); statErr == nil {
		err = cleanenv.ReadConfig(envFile, &env)
	} else if errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(&env)
	} else {
		err = statErr
	}

	if err != nil {
		return nil, err
	}

	if err = env.validate(); err != nil {
		return nil, err
	}

	return &env, nil
}

func (e *Env) validate() error {
	if !slices.Contains(
		[]string{DevelopmentEnvironmentName, ProductionEnvironmentName},
		e.EnvironmentName,
	) {
		return fmt.Errorf(
			"ENVIRONMENT_NAME must be one of %s or %s",
			ProductionEnvironmentName,
			DevelopmentEnvironmentName,
		)
	}

	if e.HTTPPortNumber <= 0 || e.HTTPPortNumber > 65535 {
		return fmt.Errorf("HTTP_PORT_NUMBER must be a valid port, got %d", e.HTTPPortNumber)
	}

	return nil
}
