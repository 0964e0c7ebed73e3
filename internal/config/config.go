package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string   `mapstructure:"REDIS_URL"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	GrantTTL             time.Duration `mapstructure:"GRANT_TTL"`
	EmergencyRecordLimit int           `mapstructure:"EMERGENCY_RECORD_LIMIT"`
	EmergencyHourlyQuota int           `mapstructure:"EMERGENCY_HOURLY_QUOTA"`
	SweepInterval        time.Duration `mapstructure:"SWEEP_INTERVAL"`
	AuditRetentionDays   int           `mapstructure:"AUDIT_RETENTION_DAYS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("JWT_TTL", "12h")
	v.SetDefault("GRANT_TTL", "2h")
	v.SetDefault("EMERGENCY_RECORD_LIMIT", 5)
	v.SetDefault("EMERGENCY_HOURLY_QUOTA", 10)
	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("AUDIT_RETENTION_DAYS", 0)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_TTL")
	v.BindEnv("GRANT_TTL")
	v.BindEnv("EMERGENCY_RECORD_LIMIT")
	v.BindEnv("EMERGENCY_HOURLY_QUOTA")
	v.BindEnv("SWEEP_INTERVAL")
	v.BindEnv("AUDIT_RETENTION_DAYS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AuditRetention converts the configured retention days to a duration.
// Zero means entries are kept forever.
func (c *Config) AuditRetention() time.Duration {
	return time.Duration(c.AuditRetentionDays) * 24 * time.Hour
}

// Validate checks that the configuration is safe to run. Production requires
// an explicit JWT secret; token and grant lifetimes must be positive.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.GrantTTL <= 0 {
		return fmt.Errorf("GRANT_TTL must be positive, got %s", c.GrantTTL)
	}
	if c.EmergencyRecordLimit < 0 {
		return fmt.Errorf("EMERGENCY_RECORD_LIMIT must not be negative, got %d", c.EmergencyRecordLimit)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.AuditRetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative, got %d", c.AuditRetentionDays)
	}
	return nil
}
