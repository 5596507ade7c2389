package bootstrap

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sony/sonyflake"
	"go.uber.org/zap"
)

type App struct {
	Env                *Env
	Logger             *zap.Logger
	RabbitMQConnection *amqp.Connection
	RedisClient        *redis.Client
	SonyFlake          *sonyflake.Sonyflake
}

// NewApp loads the environment and opens the optional backing services.
// Redis and RabbitMQ are only dialed when their URL is set.
func NewApp() (*App, error) {
	var (
		err error
		app App
	)

	app.Env, err = newEnv()
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	app.Logger, err = newLogger(app.Env)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	app.SonyFlake, err = newUIDGenerator(app.Env.UIDGeneratorStartTime, app.Env.MachineID)
	if err != nil {
		return nil, fmt.Errorf("new uid generator: %w", err)
	}

	if app.Env.RedisURL != "" {
		app.RedisClient, err = newRedis(app.Env.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("create redis connection: %w", err)
		}
	}

	if app.Env.RabbitMQURL != "" {
		app.RabbitMQConnection, err = amqp.Dial(app.Env.RabbitMQURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("create rabbitmq connection: %w", err)
		}
	}

	return &app, nil
}

func (a *App) Close() error {
	var errs []error

	if a.RabbitMQConnection != nil {
		if err := a.RabbitMQConnection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq: %w", err))
		}
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	if a.Logger != nil {
		_ = a.Logger.Sync()
	}

	return errors.Join(errs...)
}
