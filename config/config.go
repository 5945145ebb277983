package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"goflare.io/ember"
	emberConfig "goflare.io/ember/config"
	"goflare.io/ignite"
	"goflare.io/marketplace/driver"
)

const (
	ServerStartPort = ":8080"

	envConfigFile = "CONFIG_FILE"
	envPrefix     = "MARKETPLACE"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Nats     NatsConfig
	Resolver ResolverConfig
	Events   EventsConfig
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NatsConfig struct {
	URL string `mapstructure:"url"`
}

type ResolverConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location returns the timezone used to decide which calendar day is "today".
func (c ResolverConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid resolver timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type EventsConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ServerStartPort)
	v.SetDefault("redis.db", 0)
	v.SetDefault("nats.url", nats.DefaultURL)
	v.SetDefault("resolver.timezone", "UTC")
	v.SetDefault("events.workers", 4)
	v.SetDefault("events.queue_size", 1000)
}

// Load reads the yaml file at path; MARKETPLACE_* environment variables override it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Postgres.URL == "" {
		return nil, fmt.Errorf("postgres.url is required")
	}
	if _, err := config.Resolver.Location(); err != nil {
		return nil, err
	}

	return &config, nil
}

func ProvideApplicationConfig() (*Config, error) {

	_ = godotenv.Load()

	path := "./config.yaml"
	if p := os.Getenv(envConfigFile); p != "" {
		path = p
	}

	return Load(path)
}

func ProvidePostgresConn(appConfig *Config) (driver.PostgresPool, error) {

	conn, err := driver.ConnectSQL(appConfig.Postgres.URL)
	if err != nil {
		return nil, err
	}

	return conn.Pool, nil
}

func ProvideRedis(appConfig *Config) (*redis.Client, error) {
	return driver.ConnectRedis(appConfig.Redis.Addr, appConfig.Redis.Password, appConfig.Redis.DB)
}

func ProvideEmber(conn *redis.Client) (driver.Cache, error) {

	config := emberConfig.NewConfig()
	cache, err := ember.NewMultiCache(context.Background(), &config, conn)
	if err != nil {
		log.Println(fmt.Errorf("failed to create cache: %w", err))
		return nil, err
	}

	return driver.NewEmberCache(cache), nil
}

func ProvideIgnite() ignite.Manager {
	return ignite.NewManager()
}

func ProvideNats(appConfig *Config, logger *zap.Logger) (*nats.Conn, error) {

	nc, err := nats.Connect(appConfig.Nats.URL,
		nats.Name("marketplace-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return nc, nil
}

func NewLogger() *zap.Logger {

	logger, _ := zap.NewProduction()
	return logger
}
