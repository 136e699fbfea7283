package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Optimizer OptimizerConfig
	Solver    SolverConfig
	Metrics   MetricsConfig
	Reports   ReportCacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// OptimizerConfig tunes the genetic and annealing stages.
type OptimizerConfig struct {
	Scenario           string
	Seed               int64
	PopulationSize     int
	Generations        int
	CrossoverRate      float64
	MutationRate       float64
	TournamentSize     int
	InitialTemperature float64
	CoolingRate        float64
	AnnealingSteps     int
}

// SolverConfig governs the external constraint-solver hand-off.
type SolverConfig struct {
	Enabled bool
	Timeout time.Duration
}

// MetricsConfig governs the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// ReportCacheConfig governs quality-report caching in Redis.
type ReportCacheConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Optimizer = OptimizerConfig{
		Scenario:           v.GetString("OPTIMIZER_SCENARIO"),
		Seed:               v.GetInt64("OPTIMIZER_SEED"),
		PopulationSize:     v.GetInt("OPTIMIZER_POPULATION_SIZE"),
		Generations:        v.GetInt("OPTIMIZER_GENERATIONS"),
		CrossoverRate:      v.GetFloat64("OPTIMIZER_CROSSOVER_RATE"),
		MutationRate:       v.GetFloat64("OPTIMIZER_MUTATION_RATE"),
		TournamentSize:     v.GetInt("OPTIMIZER_TOURNAMENT_SIZE"),
		InitialTemperature: v.GetFloat64("OPTIMIZER_INITIAL_TEMPERATURE"),
		CoolingRate:        v.GetFloat64("OPTIMIZER_COOLING_RATE"),
		AnnealingSteps:     v.GetInt("OPTIMIZER_ANNEALING_STEPS"),
	}

	cfg.Solver = SolverConfig{
		Enabled: v.GetBool("SOLVER_ENABLED"),
		Timeout: parseDuration(v.GetString("SOLVER_TIMEOUT"), 30*time.Second),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("METRICS_ENABLED"),
		Port:    v.GetInt("METRICS_PORT"),
	}

	cfg.Reports = ReportCacheConfig{
		Enabled:  v.GetBool("ENABLE_REPORT_CACHE"),
		CacheTTL: parseDuration(v.GetString("REPORT_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OPTIMIZER_SCENARIO", "HIGH_SCHOOL")
	v.SetDefault("OPTIMIZER_SEED", 0)
	v.SetDefault("OPTIMIZER_POPULATION_SIZE", 100)
	v.SetDefault("OPTIMIZER_GENERATIONS", 200)
	v.SetDefault("OPTIMIZER_CROSSOVER_RATE", 0.8)
	v.SetDefault("OPTIMIZER_MUTATION_RATE", 0.1)
	v.SetDefault("OPTIMIZER_TOURNAMENT_SIZE", 5)
	v.SetDefault("OPTIMIZER_INITIAL_TEMPERATURE", 1000.0)
	v.SetDefault("OPTIMIZER_COOLING_RATE", 0.95)
	v.SetDefault("OPTIMIZER_ANNEALING_STEPS", 1000)

	v.SetDefault("SOLVER_ENABLED", false)
	v.SetDefault("SOLVER_TIMEOUT", "30s")

	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_PORT", 9090)

	v.SetDefault("ENABLE_REPORT_CACHE", false)
	v.SetDefault("REPORT_CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
