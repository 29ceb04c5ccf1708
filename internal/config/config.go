package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the ZoneWarden server
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Command  CommandConfig
	MapSync  MapSyncConfig
	Zone     ZoneConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
}

// DatabaseConfig holds the transactional store configuration.
// Backend "memory" runs the in-process store instead of Postgres,
// useful for local development.
type DatabaseConfig struct {
	Backend         string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret     string
	JWTExpiration time.Duration
	BCryptCost    int
}

// CommandConfig holds the external world-command executor endpoint
type CommandConfig struct {
	URL     string
	Timeout time.Duration
}

// MapSyncConfig holds the map-visualization collaborator endpoint
type MapSyncConfig struct {
	BaseURL string
	Timeout time.Duration
	Enabled bool
}

// ZoneConfig holds zone geometry and economy tuning
type ZoneConfig struct {
	// HalfExtent is the distance from a zone's center to each edge.
	HalfExtent float64
	// Buffer is the minimum enforced gap between zone boundaries.
	Buffer float64
	// CreationCost is charged when a zone is created.
	CreationCost int64
	// DeletionWindow is how long a pending deletion waits for its
	// confirmation before expiring.
	DeletionWindow time.Duration
	// PacingDelay separates consecutive protection primitives on the
	// rate-limited command channel.
	PacingDelay time.Duration
	// WorldBottom and WorldTop bound the vertical protection band.
	WorldBottom int
	WorldTop    int
	// SweepRadius is the teardown cleanup radius around a zone center.
	SweepRadius int
}

// Load reads configuration from environment variables and .env file
// It returns a Config struct with all settings populated
// The .env file is loaded from the current working directory
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found (this is OK if using environment variables): %v", err)
	}

	config := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Backend:         getEnv("DB_BACKEND", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getIntEnv("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "zonewarden_dev"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),
			BCryptCost:    getIntEnv("BCRYPT_COST", 10),
		},
		Command: CommandConfig{
			URL:     getEnv("COMMAND_CHANNEL_URL", "ws://127.0.0.1:8091/commands"),
			Timeout: getDurationEnv("COMMAND_CHANNEL_TIMEOUT", 10*time.Second),
		},
		MapSync: MapSyncConfig{
			// Use 127.0.0.1 instead of localhost for better Windows compatibility (avoids IPv6 issues)
			BaseURL: getEnv("MAPSYNC_BASE_URL", "http://127.0.0.1:8092"),
			Timeout: getDurationEnv("MAPSYNC_TIMEOUT", 5*time.Second),
			Enabled: getBoolEnv("MAPSYNC_ENABLED", true),
		},
		Zone: ZoneConfig{
			HalfExtent:     getFloatEnv("ZONE_HALF_EXTENT", 128),
			Buffer:         getFloatEnv("ZONE_BUFFER", 1),
			CreationCost:   int64(getIntEnv("ZONE_CREATION_COST", 1)),
			DeletionWindow: getDurationEnv("ZONE_DELETION_WINDOW", 60*time.Second),
			PacingDelay:    getDurationEnv("ZONE_PACING_DELAY", 250*time.Millisecond),
			WorldBottom:    getIntEnv("WORLD_BOTTOM", 0),
			WorldTop:       getIntEnv("WORLD_TOP", 320),
			SweepRadius:    getIntEnv("ZONE_SWEEP_RADIUS", 24),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Database.Backend != "postgres" && c.Database.Backend != "memory" {
		return fmt.Errorf("DB_BACKEND must be postgres or memory, got %q", c.Database.Backend)
	}
	if c.Database.Backend == "postgres" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required for the postgres backend")
	}
	if c.Zone.HalfExtent <= 0 {
		return fmt.Errorf("ZONE_HALF_EXTENT must be positive")
	}
	if c.Zone.Buffer < 0 {
		return fmt.Errorf("ZONE_BUFFER must not be negative")
	}
	if c.Zone.CreationCost < 0 {
		return fmt.Errorf("ZONE_CREATION_COST must not be negative")
	}
	if c.Zone.WorldTop <= c.Zone.WorldBottom {
		return fmt.Errorf("WORLD_TOP must be above WORLD_BOTTOM")
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection string
func (c *DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// IsDevelopment returns true if running in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions for environment variable access

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return intValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: invalid float value for %s: %s, using default: %f", key, value, defaultValue)
		return defaultValue
	}
	return floatValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean value for %s: %s, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return boolValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return duration
}
