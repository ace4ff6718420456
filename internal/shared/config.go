package shared

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload" // .env in the working directory, if any
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "HBNB_"

// Storage backends selectable through HBNB_TYPE_STORAGE.
const (
	StorageFile   = "file"
	StorageMySQL  = "db"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config is read from HBNB_* environment variables; HBNB_MYSQL_USER maps to
// the mysql_user key.
type Config struct {
	Env     string `koanf:"env" validate:"required,oneof=dev test prod"`
	APIHost string `koanf:"api_host" validate:"required"`
	APIPort int    `koanf:"api_port" validate:"min=1,max=65535"`

	StorageType string `koanf:"type_storage" validate:"oneof=file db sqlite redis"`
	FilePath    string `koanf:"file_path" validate:"required_if=StorageType file"`

	MySQLUser string `koanf:"mysql_user" validate:"required_if=StorageType db"`
	MySQLPwd  string `koanf:"mysql_pwd"`
	MySQLHost string `koanf:"mysql_host" validate:"required_if=StorageType db"`
	MySQLDB   string `koanf:"mysql_db" validate:"required_if=StorageType db"`

	SQLitePath string `koanf:"sqlite_path" validate:"required_if=StorageType sqlite"`

	RedisAddr     string `koanf:"redis_addr" validate:"required_if=StorageType redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"min=0"`

	RateLimitRPS   float64       `koanf:"rate_limit_rps" validate:"min=0"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"min=0"`
	MetricsAddr    string        `koanf:"metrics_addr"`
}

func defaults() Config {
	return Config{
		Env:            "prod",
		APIHost:        "0.0.0.0",
		APIPort:        5000,
		StorageType:    StorageFile,
		FilePath:       "file.json",
		MySQLHost:      "localhost",
		SQLitePath:     "hbnb.db",
		RedisAddr:      "localhost:6379",
		RequestTimeout: 15 * time.Second,
		MetricsAddr:    ":9100",
	}
}

// Load reads the environment over the defaults and validates the result.
func Load() (Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	c := defaults()
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func (c Config) HTTPAddr() string {
	return net.JoinHostPort(c.APIHost, strconv.Itoa(c.APIPort))
}
