package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mapbox   MapboxConfig
	Cache    CacheConfig
	Geocode  GeocodeConfig
	Address  AddressConfig
	Sync     SyncConfig
	Log      LogConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type MapboxConfig struct {
	AccessToken    string
	BaseURL        string
	DrivingProfile string
	RequestTimeout int // seconds
}

type CacheConfig struct {
	RouteCacheTTL    time.Duration
	MapStateCacheTTL time.Duration
}

type GeocodeConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

type AddressConfig struct {
	// Priority: location_first | regarding_first | regarding_only
	Priority string
}

type SyncConfig struct {
	ViewportPadding float64 // degrees
	MaxZoom         int
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Mapbox: MapboxConfig{
			AccessToken:    viper.GetString("MAPBOX_ACCESS_TOKEN"),
			BaseURL:        viper.GetString("MAPBOX_BASE_URL"),
			DrivingProfile: viper.GetString("MAPBOX_DRIVING_PROFILE"),
			RequestTimeout: viper.GetInt("MAPBOX_REQUEST_TIMEOUT"),
		},
		Cache: CacheConfig{
			RouteCacheTTL:    time.Duration(viper.GetInt("ROUTE_CACHE_TTL")) * time.Second,
			MapStateCacheTTL: time.Duration(viper.GetInt("MAP_STATE_CACHE_TTL")) * time.Second,
		},
		Geocode: GeocodeConfig{
			BatchSize:  viper.GetInt("GEOCODE_BATCH_SIZE"),
			BatchDelay: time.Duration(viper.GetInt("GEOCODE_BATCH_DELAY_MS")) * time.Millisecond,
		},
		Address: AddressConfig{
			Priority: viper.GetString("ADDRESS_PRIORITY"),
		},
		Sync: SyncConfig{
			ViewportPadding: viper.GetFloat64("SYNC_VIEWPORT_PADDING"),
			MaxZoom:         viper.GetInt("SYNC_MAX_ZOOM"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
		},
	}

	// Missing Mapbox credentials are fatal for the whole service:
	// the map core is never invoked without a valid token.
	if cfg.Mapbox.AccessToken == "" {
		return nil, fmt.Errorf("MAPBOX_ACCESS_TOKEN is required")
	}

	// Set default values if not provided
	if cfg.Mapbox.BaseURL == "" {
		cfg.Mapbox.BaseURL = "https://api.mapbox.com"
	}
	if cfg.Mapbox.DrivingProfile == "" {
		cfg.Mapbox.DrivingProfile = "mapbox/driving-traffic"
	}
	if cfg.Mapbox.RequestTimeout == 0 {
		cfg.Mapbox.RequestTimeout = 30
	}
	if cfg.Cache.RouteCacheTTL == 0 {
		cfg.Cache.RouteCacheTTL = 5 * time.Minute
	}
	if cfg.Cache.MapStateCacheTTL == 0 {
		cfg.Cache.MapStateCacheTTL = 10 * time.Second
	}
	if cfg.Geocode.BatchSize == 0 {
		cfg.Geocode.BatchSize = 6
	}
	if cfg.Geocode.BatchDelay == 0 {
		cfg.Geocode.BatchDelay = 50 * time.Millisecond
	}
	if cfg.Address.Priority == "" {
		cfg.Address.Priority = "location_first"
	}
	if cfg.Sync.ViewportPadding == 0 {
		cfg.Sync.ViewportPadding = 0.01
	}
	if cfg.Sync.MaxZoom == 0 {
		cfg.Sync.MaxZoom = 15
	}
	if cfg.Worker.ConsumerGroup == "" {
		cfg.Worker.ConsumerGroup = "appointment-map-workers"
	}
	if cfg.Worker.StreamReadTimeout == 0 {
		cfg.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}

	return cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
