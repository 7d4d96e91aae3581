package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Auction AuctionConfig `mapstructure:"auction"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Redis   RedisConfig   `mapstructure:"redis"`
	NATS    NATSConfig    `mapstructure:"nats"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type AuctionConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// LockWait is how long a bid waits for a busy item before giving up.
	// Zero means fail fast.
	LockWait      time.Duration `mapstructure:"lock_wait"`
	SweepLockWait time.Duration `mapstructure:"sweep_lock_wait"`
	// BidScale is the number of decimal places an increment may carry.
	BidScale     int32  `mapstructure:"bid_scale"`
	MaxIncrement string `mapstructure:"max_increment"`
}

// maxBidScale matches the scale of the archive's amount column.
const maxBidScale = 4

// IncrementCap parses MaxIncrement.
func (a AuctionConfig) IncrementCap() (decimal.Decimal, error) {
	limit, err := decimal.NewFromString(a.MaxIncrement)
	if err != nil {
		return decimal.Zero, fmt.Errorf("auction.max_increment %q: %w", a.MaxIncrement, err)
	}
	if exp := limit.Exponent(); exp < -18 || exp > 18 {
		return decimal.Zero, fmt.Errorf("auction.max_increment %q is out of range", a.MaxIncrement)
	}
	if !limit.IsPositive() {
		return decimal.Zero, fmt.Errorf("auction.max_increment must be positive, got %s", limit)
	}
	return limit, nil
}

type CatalogConfig struct {
	Items []CatalogItemConfig `mapstructure:"items"`
}

type CatalogItemConfig struct {
	ID            string        `mapstructure:"id"`
	Title         string        `mapstructure:"title"`
	Description   string        `mapstructure:"description"`
	StartingPrice string        `mapstructure:"starting_price"`
	Duration      time.Duration `mapstructure:"duration"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type MySQLConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("auction.sweep_interval", 10*time.Second)
	v.SetDefault("auction.lock_wait", time.Duration(0))
	v.SetDefault("auction.sweep_lock_wait", 250*time.Millisecond)
	v.SetDefault("auction.bid_scale", 2)
	v.SetDefault("auction.max_increment", "1000000000")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "auction_events")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "auction.events")
	v.SetDefault("mysql.enabled", false)
	v.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 10)
	v.SetDefault("mysql.max_idle_conns", 5)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("log.level", "info")

	// Environment variable mappings
	v.AutomaticEnv()
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("cors.allow_origins", "FRONTEND_URL")
	v.BindEnv("auction.sweep_interval", "AUCTION_SWEEP_INTERVAL")
	v.BindEnv("auction.lock_wait", "AUCTION_LOCK_WAIT")
	v.BindEnv("auction.sweep_lock_wait", "AUCTION_SWEEP_LOCK_WAIT")
	v.BindEnv("auction.bid_scale", "AUCTION_BID_SCALE")
	v.BindEnv("auction.max_increment", "AUCTION_MAX_INCREMENT")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.channel", "REDIS_CHANNEL")
	v.BindEnv("nats.enabled", "NATS_ENABLED")
	v.BindEnv("nats.url", "NATS_URL")
	v.BindEnv("nats.subject_prefix", "NATS_SUBJECT_PREFIX")
	v.BindEnv("mysql.enabled", "MYSQL_ENABLED")
	v.BindEnv("mysql.dsn", "MYSQL_DSN")
	v.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	v.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	v.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	v.BindEnv("log.level", "LOG_LEVEL")

	return v
}

func Load() (*Config, error) {
	v := newViper()

	// Configuration file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/live-auction/")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auction.SweepInterval < time.Second {
		return fmt.Errorf("auction.sweep_interval must be at least 1s, got %s", c.Auction.SweepInterval)
	}
	if c.Auction.LockWait < 0 || c.Auction.LockWait >= time.Second {
		return fmt.Errorf("auction.lock_wait must be in [0, 1s), got %s", c.Auction.LockWait)
	}
	if c.Auction.SweepLockWait < 0 || c.Auction.SweepLockWait >= time.Second {
		return fmt.Errorf("auction.sweep_lock_wait must be in [0, 1s), got %s", c.Auction.SweepLockWait)
	}
	if c.Auction.BidScale < 0 || c.Auction.BidScale > maxBidScale {
		return fmt.Errorf("auction.bid_scale must be in [0, %d], got %d", maxBidScale, c.Auction.BidScale)
	}
	if _, err := c.Auction.IncrementCap(); err != nil {
		return err
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Sweep: %s, LockWait: %s, Redis: %t, NATS: %t, MySQL: %t",
		c.Server.Host,
		c.Server.Port,
		c.Auction.SweepInterval,
		c.Auction.LockWait,
		c.Redis.Enabled,
		c.NATS.Enabled,
		c.MySQL.Enabled,
	)
}
