package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"salesops-backend/internal/query"
)

// ErrMissingConfig is returned when a setting the service cannot run
// without is absent.
var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	Server struct {
		Port                 int           `mapstructure:"port"`
		CorsAllowedOrigins   []string      `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods   []string      `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders   []string      `mapstructure:"cors_allowed_headers"`
		CorsAllowCredentials bool          `mapstructure:"cors_allow_credentials"`
		CorsMaxAge           time.Duration `mapstructure:"cors_max_age"`
	} `mapstructure:"server"`

	Warehouse struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Project  string `mapstructure:"project"`
		Dataset  string `mapstructure:"dataset"`
		Tables   struct {
			Orders       string `mapstructure:"orders"`
			Samples      string `mapstructure:"samples"`
			Customers    string `mapstructure:"customers"`
			Stock        string `mapstructure:"stock"`
			Dispatch     string `mapstructure:"dispatch"`
			Verification string `mapstructure:"verification"`
			Invoices     string `mapstructure:"invoices"`
		} `mapstructure:"tables"`
	} `mapstructure:"warehouse"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`

	Sync struct {
		Channel string `mapstructure:"channel"`
	} `mapstructure:"sync"`

	Client struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"client"`

	Monitoring struct {
		Interval       time.Duration `mapstructure:"interval"`
		DiskAlertPct   float64       `mapstructure:"disk_alert_pct"`
		MemoryAlertPct float64       `mapstructure:"memory_alert_pct"`
	} `mapstructure:"monitoring"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Content-Type", "X-Request-ID"})
	v.SetDefault("server.cors_allow_credentials", true)
	v.SetDefault("server.cors_max_age", 5*time.Minute)

	v.SetDefault("warehouse.host", "localhost")
	v.SetDefault("warehouse.port", 5432)
	v.SetDefault("warehouse.user", "postgres")
	v.SetDefault("warehouse.project", "salesops")
	v.SetDefault("warehouse.dataset", "public")
	v.SetDefault("warehouse.tables.orders", "orders")
	v.SetDefault("warehouse.tables.samples", "sample_details")
	v.SetDefault("warehouse.tables.customers", "customers")
	v.SetDefault("warehouse.tables.stock", "closing_stock")
	v.SetDefault("warehouse.tables.dispatch", "dispatch_log")
	v.SetDefault("warehouse.tables.verification", "verification_requests")
	v.SetDefault("warehouse.tables.invoices", "invoices")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("kafka.topic", "orders-changelog")
	v.SetDefault("sync.channel", "orders-sync")
	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("monitoring.interval", "30s")
	v.SetDefault("monitoring.disk_alert_pct", 90)
	v.SetDefault("monitoring.memory_alert_pct", 90)
	v.SetDefault("log.level", "info")
}

// Load reads configs/config.yaml (optional), .env (optional) and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFile("configs/config.yaml")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file at %s, using defaults", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// applyEnv applies the short-form environment overrides used by the
// deployment manifests.
func applyEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Warehouse.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Warehouse.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Warehouse.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Warehouse.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Warehouse.Project = name
	}
	if schema := os.Getenv("DB_SCHEMA"); schema != "" {
		cfg.Warehouse.Dataset = schema
	}

	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	if host := os.Getenv("REDIS_SERVICE_HOST"); host != "" {
		port := os.Getenv("REDIS_SERVICE_PORT")
		if port == "" {
			port = "6379"
		}
		cfg.Redis.Addr = host + ":" + port
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the settings the order query cannot be built without.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Warehouse.Project) == "" {
		missing = append(missing, "warehouse.project")
	}
	if strings.TrimSpace(c.Warehouse.Dataset) == "" {
		missing = append(missing, "warehouse.dataset")
	}
	if strings.TrimSpace(c.Warehouse.Tables.Orders) == "" {
		missing = append(missing, "warehouse.tables.orders")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// DSN is the warehouse connection string. Project names the database.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		c.Warehouse.User,
		c.Warehouse.Password,
		c.Warehouse.Host,
		c.Warehouse.Port,
		c.Warehouse.Project,
	)
}

// QueryTables maps the warehouse section onto the order query's tables.
func (c *Config) QueryTables() query.Tables {
	return query.Tables{
		Project:   c.Warehouse.Project,
		Dataset:   c.Warehouse.Dataset,
		Orders:    c.Warehouse.Tables.Orders,
		Samples:   c.Warehouse.Tables.Samples,
		Customers: c.Warehouse.Tables.Customers,
	}
}
