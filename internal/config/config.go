package config

import (
	"errors"
	"fmt"
	"os"

	"parkovka/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Booking    BookingConfig    `yaml:"booking"`
	Floors     []models.Floor   `yaml:"floors"`
	Operators  []string         `yaml:"operators"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type BookingConfig struct {
	HoldTTLSeconds          int     `yaml:"hold_ttl_seconds"`
	DetectorIntervalSeconds int     `yaml:"detector_interval_seconds"`
	NotifyRatePerSecond     float64 `yaml:"notify_rate_per_second"`
	NotifyBurst             int     `yaml:"notify_burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; the YAML may still reference plain env vars.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	return ValidateFloors(c.Floors)
}

// ValidateFloors rejects duplicate floor names and duplicate slot ids
// within a floor. The layout is static configuration; a broken layout
// would poison every availability query.
func ValidateFloors(floors []models.Floor) error {
	if len(floors) == 0 {
		return errors.New("at least one floor is required")
	}

	floorNames := make(map[string]bool)
	for _, floor := range floors {
		if floor.Name == "" {
			return errors.New("floor with empty name")
		}
		if floorNames[floor.Name] {
			return fmt.Errorf("duplicate floor name: %s", floor.Name)
		}
		floorNames[floor.Name] = true

		if len(floor.Slots) == 0 {
			return fmt.Errorf("floor %s has no slots", floor.Name)
		}
		slotIDs := make(map[string]bool)
		for _, slotID := range floor.Slots {
			if slotID == "" {
				return fmt.Errorf("floor %s has a slot with empty id", floor.Name)
			}
			if slotIDs[slotID] {
				return fmt.Errorf("duplicate slot id on floor %s: %s", floor.Name, slotID)
			}
			slotIDs[slotID] = true
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8080
	}

	if c.Booking.HoldTTLSeconds == 0 {
		c.Booking.HoldTTLSeconds = models.DefaultHoldTTL
	}
	if c.Booking.DetectorIntervalSeconds == 0 {
		c.Booking.DetectorIntervalSeconds = 60
	}
	if c.Booking.NotifyRatePerSecond == 0 {
		c.Booking.NotifyRatePerSecond = 10
	}
	if c.Booking.NotifyBurst == 0 {
		c.Booking.NotifyBurst = 20
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
