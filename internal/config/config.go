package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Storage struct {
	// memory | sqlite | postgres | redis
	Driver      string `mapstructure:"driver" validate:"oneof=memory sqlite postgres redis"`
	SQLitePath  string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
	PostgresURL string `mapstructure:"postgres_url" validate:"required_if=Driver postgres"`
	RedisAddr   string `mapstructure:"redis_addr" validate:"required_if=Driver redis"`
	RedisDB     int    `mapstructure:"redis_db" validate:"min=0"`
}

type Log struct {
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn warning error"`
}

type Tracing struct {
	// пусто: трейсы не экспортируются
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name" validate:"required"`
}

type Config struct {
	Port        string   `mapstructure:"port" validate:"required,numeric"`
	Storage     Storage  `mapstructure:"storage"`
	Log         Log      `mapstructure:"log"`
	Tracing     Tracing  `mapstructure:"tracing"`
	Seed        bool     `mapstructure:"seed"`
	Metrics     bool     `mapstructure:"metrics"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

func def() map[string]any {
	return map[string]any{
		"port":                 "8080",
		"storage.driver":       "memory",
		"storage.sqlite_path":  "mfgtrack.db",
		"storage.postgres_url": "",
		"storage.redis_addr":   "localhost:6379",
		"storage.redis_db":     0,
		"log.level":            "info",
		"tracing.endpoint":     "",
		"tracing.service_name": "mfgtrack",
		"seed":                 true,
		"metrics":              true,
		"cors_origins":         []string{"*"},
	}
}

// Load: значения по умолчанию → файл (yaml/json/toml, если есть) → MFG_* → флаги.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("mfgtrack", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	port := fs.String("port", "", "HTTP port")
	driver := fs.String("storage", "", "Storage driver (memory/sqlite/postgres/redis)")
	sqlitePath := fs.String("sqlite", "", "SQLite file path")
	pgURL := fs.String("db", "", "Postgres URL")
	redisAddr := fs.String("redis", "", "Redis address")
	level := fs.String("log-level", "", "Log level")
	seed := fs.String("seed", "", "Seed demo data into empty collections (true/false)")
	otlp := fs.String("otlp-endpoint", "", "OTLP/HTTP endpoint for traces")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	for k, val := range def() {
		v.SetDefault(k, val)
	}
	if st, err := os.Stat(*configPath); err == nil && !st.IsDir() {
		v.SetConfigFile(*configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", *configPath, err)
		}
	}
	v.SetEnvPrefix("MFG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// флаги применяются, только если заданы явно
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			v.Set("port", strings.TrimSpace(*port))
		case "storage":
			v.Set("storage.driver", strings.TrimSpace(*driver))
		case "sqlite":
			v.Set("storage.sqlite_path", strings.TrimSpace(*sqlitePath))
		case "db":
			v.Set("storage.postgres_url", strings.TrimSpace(*pgURL))
		case "redis":
			v.Set("storage.redis_addr", strings.TrimSpace(*redisAddr))
		case "log-level":
			v.Set("log.level", strings.TrimSpace(*level))
		case "otlp-endpoint":
			v.Set("tracing.endpoint", strings.TrimSpace(*otlp))
		case "seed":
			b, err := strconv.ParseBool(strings.TrimSpace(*seed))
			if err != nil {
				flagErr = fmt.Errorf("flag -seed: %w", err)
				return
			}
			v.Set("seed", b)
		}
	})
	if flagErr != nil {
		return Config{}, flagErr
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
			}
			return Config{}, fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return Config{}, err
	}
	return cfg, nil
}
