// Package config loads the service configuration from the environment.
// A .env file in the working directory is applied first when present.
package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultDepartment is the department claim this service accepts when none is configured.
	DefaultDepartment = "URBAN"

	DefaultCitizenQueryLimit = 20
	DefaultListLimit         = 50
	DefaultListMaxLimit      = 200
)

var (
	ErrMissingSecret   = errors.New("config: SERVICE_JWT_SECRET is required")
	ErrMissingDatabase = errors.New("config: DATABASE_URL is required")
)

// Config holds the runtime settings of the department service.
type Config struct {
	Port        string
	Environment string

	// ServiceJWTSecret verifies the gateway's service tokens.
	ServiceJWTSecret string
	// Department must equal the "department" claim of every accepted token.
	Department string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventsChannel string

	CitizenQueryLimit int
	ListDefaultLimit  int
	ListMaxLimit      int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVICE_DEPARTMENT", DefaultDepartment)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EVENTS_CHANNEL", "complaints:events")
	v.SetDefault("CITIZEN_QUERY_LIMIT", DefaultCitizenQueryLimit)
	v.SetDefault("LIST_DEFAULT_LIMIT", DefaultListLimit)
	v.SetDefault("LIST_MAX_LIMIT", DefaultListMaxLimit)
	v.SetDefault("READ_TIMEOUT", 10*time.Second)
	v.SetDefault("WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"SERVICE_JWT_SECRET", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD"} {
		_ = v.BindEnv(key)
	}
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:              v.GetString("PORT"),
		Environment:       v.GetString("ENVIRONMENT"),
		ServiceJWTSecret:  v.GetString("SERVICE_JWT_SECRET"),
		Department:        v.GetString("SERVICE_DEPARTMENT"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		EventsChannel:     v.GetString("EVENTS_CHANNEL"),
		CitizenQueryLimit: v.GetInt("CITIZEN_QUERY_LIMIT"),
		ListDefaultLimit:  v.GetInt("LIST_DEFAULT_LIMIT"),
		ListMaxLimit:      v.GetInt("LIST_MAX_LIMIT"),
		ReadTimeout:       v.GetDuration("READ_TIMEOUT"),
		WriteTimeout:      v.GetDuration("WRITE_TIMEOUT"),
		ShutdownTimeout:   v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	if cfg.ServiceJWTSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabase
	}
	if cfg.Department == "" {
		cfg.Department = DefaultDepartment
	}
	if cfg.CitizenQueryLimit <= 0 {
		cfg.CitizenQueryLimit = DefaultCitizenQueryLimit
	}
	if cfg.ListDefaultLimit <= 0 {
		cfg.ListDefaultLimit = DefaultListLimit
	}
	if cfg.ListMaxLimit < cfg.ListDefaultLimit {
		cfg.ListMaxLimit = cfg.ListDefaultLimit
	}
	return cfg, nil
}
