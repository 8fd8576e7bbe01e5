package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/shenikar/fire_risk_grid/internal/grid"
)

// Источники погодных наблюдений
const (
	WeatherSourceDB  = "db"
	WeatherSourceCSV = "csv"
)

// Хранилища снимков риска
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`

	// Grid Config
	Region grid.Region

	// Pipeline inputs
	LandShapefile string         `env:"LAND_SHAPEFILE" envDefault:"data/ne_50m_land.shp"`
	Timezone      *time.Location `env:"TIMEZONE" envDefault:"America/Los_Angeles"`
	Storage       string         `env:"STORAGE" envDefault:"postgres"`
	WeatherSource string         `env:"WEATHER_SOURCE" envDefault:"db"`
	WeatherCSV    string         `env:"WEATHER_CSV" envDefault:"california_weather_data.csv"`
	ModelFile     string         `env:"MODEL_FILE" envDefault:"model/fire_model.json"`
	ModelURL      string         `env:"MODEL_URL"`
	ModelTimeout  time.Duration  `env:"MODEL_TIMEOUT" envDefault:"10s"`

	// Pipeline Config
	Workers        int           `env:"WORKERS" envDefault:"8"`
	RunInterval    time.Duration `env:"RUN_INTERVAL" envDefault:"1h"`
	RunOnStart     bool          `env:"RUN_ON_START" envDefault:"true"`
	AlertThreshold float64       `env:"ALERT_THRESHOLD" envDefault:"0.21"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:    getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries: getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:  getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		LandShapefile:     getEnv("LAND_SHAPEFILE", "data/ne_50m_land.shp"),
		Storage:           strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		WeatherSource:     strings.ToLower(getEnv("WEATHER_SOURCE", WeatherSourceDB)),
		WeatherCSV:        getEnv("WEATHER_CSV", "california_weather_data.csv"),
		ModelFile:         getEnv("MODEL_FILE", "model/fire_model.json"),
		ModelURL:          os.Getenv("MODEL_URL"),
		ModelTimeout:      getEnvAsDuration("MODEL_TIMEOUT", 10*time.Second),
		Workers:           getEnvAsInt("WORKERS", 8),
		RunInterval:       getEnvAsDuration("RUN_INTERVAL", time.Hour),
		RunOnStart:        getEnvAsBool("RUN_ON_START", true),
		AlertThreshold:    getEnvAsFloat("ALERT_THRESHOLD", 0.21),
		CacheTTL:          getEnvAsDuration("CACHE_TTL", 5*time.Minute),
	}

	// Загрузка API ключей
	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		cfg.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.APIKeys {
			cfg.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	// Сетка по умолчанию покрывает Калифорнию, 50x50 узлов
	region, err := grid.NewRegion(
		getEnvAsFloat("GRID_LAT_MIN", 32.5),
		getEnvAsFloat("GRID_LAT_MAX", 42.0),
		getEnvAsFloat("GRID_LON_MIN", -124.4),
		getEnvAsFloat("GRID_LON_MAX", -114.0),
		getEnvAsInt("GRID_ROWS", 50),
		getEnvAsInt("GRID_COLS", 50),
	)
	if err != nil {
		return nil, fmt.Errorf("grid configuration: %w", err)
	}
	cfg.Region = region

	zone, err := time.LoadLocation(getEnv("TIMEZONE", "America/Los_Angeles"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Timezone = zone

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	if c.WeatherSource != WeatherSourceDB && c.WeatherSource != WeatherSourceCSV {
		return fmt.Errorf("WEATHER_SOURCE must be %q or %q, got %q", WeatherSourceDB, WeatherSourceCSV, c.WeatherSource)
	}
	if c.NeedsDatabase() && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if c.AlertThreshold < 0 || c.AlertThreshold > 1 {
		return fmt.Errorf("ALERT_THRESHOLD must be within [0, 1], got %v", c.AlertThreshold)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}
	if c.ModelFile == "" && c.ModelURL == "" {
		return fmt.Errorf("either MODEL_FILE or MODEL_URL is required")
	}
	return nil
}

// NeedsDatabase сообщает, требуется ли подключение к PostgreSQL
func (c *Config) NeedsDatabase() bool {
	return c.Storage == StoragePostgres || c.WeatherSource == WeatherSourceDB
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat возвращает значение переменной окружения как float64 или значение по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
