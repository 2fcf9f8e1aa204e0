package configs

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Conf struct {
	AppEnv            string `mapstructure:"APP_ENV"`
	WebServerPort     string `mapstructure:"WEB_SERVER_PORT"`
	DispatchWorkers   int    `mapstructure:"DISPATCH_WORKERS"`
	QueuePollMs       int    `mapstructure:"QUEUE_POLL_MS"`
	GuardTimeoutMs    int    `mapstructure:"GUARD_TIMEOUT_MS"`
	ShutdownTimeoutMs int    `mapstructure:"SHUTDOWN_TIMEOUT_MS"`
	MaxMatchDistance  int    `mapstructure:"MAX_MATCH_DISTANCE"`
	FareRatePerUnit   int64  `mapstructure:"FARE_RATE_PER_UNIT"`
	RateLimitRPS      int    `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int    `mapstructure:"RATE_LIMIT_BURST"`
}

func (c *Conf) IsProd() bool { return c.AppEnv == "production" }

func (c *Conf) QueuePoll() time.Duration {
	return time.Duration(c.QueuePollMs) * time.Millisecond
}

func (c *Conf) GuardTimeout() time.Duration {
	return time.Duration(c.GuardTimeoutMs) * time.Millisecond
}

func (c *Conf) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

func LoadConfig(path string) (*Conf, error) {
	var cfg *Conf

	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("WEB_SERVER_PORT", "8080")
	viper.SetDefault("DISPATCH_WORKERS", 1)
	viper.SetDefault("QUEUE_POLL_MS", 1000)
	viper.SetDefault("GUARD_TIMEOUT_MS", 5000)
	viper.SetDefault("SHUTDOWN_TIMEOUT_MS", 5000)
	viper.SetDefault("MAX_MATCH_DISTANCE", 5)
	viper.SetDefault("FARE_RATE_PER_UNIT", 10)
	viper.SetDefault("RATE_LIMIT_RPS", 50)
	viper.SetDefault("RATE_LIMIT_BURST", 100)

	if err := viper.ReadInConfig(); err != nil {
		// A missing .env file is fine; defaults plus real env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
