package config

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dashboard service
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// WarehouseConfig selects the warehouse backend
type WarehouseConfig struct {
	Driver       string        `mapstructure:"driver"`   // bigquery, postgres or mysql
	ProjectID    string        `mapstructure:"project"`  // bigquery
	Location     string        `mapstructure:"location"` // bigquery
	Dataset      string        `mapstructure:"dataset"`  // dataset or schema prefix
	DSN          string        `mapstructure:"dsn"`      // postgres, mysql
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// CacheConfig holds query cache configuration
type CacheConfig struct {
	Store string        `mapstructure:"store"` // memory or redis
	TTL   time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// SentryConfig holds Sentry error tracking configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()

	_ = v.BindEnv("app.name", "APP_NAME")
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("app.port", "APP_PORT")

	// Warehouse
	_ = v.BindEnv("warehouse.driver", "WAREHOUSE_DRIVER")
	_ = v.BindEnv("warehouse.project", "WAREHOUSE_PROJECT")
	_ = v.BindEnv("warehouse.location", "WAREHOUSE_LOCATION")
	_ = v.BindEnv("warehouse.dataset", "WAREHOUSE_DATASET")
	_ = v.BindEnv("warehouse.dsn", "WAREHOUSE_DSN")
	_ = v.BindEnv("warehouse.query_timeout", "WAREHOUSE_QUERY_TIMEOUT")

	// Cache
	_ = v.BindEnv("cache.store", "DASHBOARD_CACHE_STORE")
	_ = v.BindEnv("cache.ttl", "DASHBOARD_CACHE_TTL")

	// Redis
	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")

	_ = v.BindEnv("nats.url", "NATS_URL")

	_ = v.BindEnv("sentry.dsn", "SENTRY_DSN")
	_ = v.BindEnv("sentry.environment", "APP_ENV")
	_ = v.BindEnv("sentry.release", "APP_VERSION")

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config, viper.DecodeHook(durationHook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations that cannot start the service.
func (c *Config) Validate() error {
	switch c.Warehouse.Driver {
	case "bigquery":
		if c.Warehouse.ProjectID == "" {
			return fmt.Errorf("WAREHOUSE_PROJECT is required for the bigquery driver")
		}
	case "postgres", "mysql":
		if c.Warehouse.DSN == "" {
			return fmt.Errorf("WAREHOUSE_DSN is required for the %s driver", c.Warehouse.Driver)
		}
	default:
		return fmt.Errorf("unsupported WAREHOUSE_DRIVER %q", c.Warehouse.Driver)
	}

	switch c.Cache.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported DASHBOARD_CACHE_STORE %q", c.Cache.Store)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("DASHBOARD_CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// durationHook parses duration strings such as "90s". A bare integer is
// taken as seconds, so DASHBOARD_CACHE_TTL=300 means five minutes.
func durationHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != durationType {
		return data, nil
	}
	s := data.(string)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "service-dashboard")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8010")

	// Warehouse
	v.SetDefault("warehouse.driver", "bigquery")
	v.SetDefault("warehouse.location", "US")
	v.SetDefault("warehouse.dataset", "clique_bait")
	v.SetDefault("warehouse.query_timeout", 60*time.Second)

	// Cache
	v.SetDefault("cache.store", "memory")
	v.SetDefault("cache.ttl", 300*time.Second)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// NATS is optional; empty disables export events
	v.SetDefault("nats.url", "")

	// Sentry
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.release", "1.0.0")
}
