package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Upstream struct {
		APIBaseURL        string        `mapstructure:"api_base_url"`
		APIKey            string        `mapstructure:"api_key"`
		SyncIntervalMin   int           `mapstructure:"sync_interval_minutes"`
		FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
		RequestDeadline   time.Duration `mapstructure:"request_deadline"`
	} `mapstructure:"upstream"`

	SMTP struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
		User string `mapstructure:"user"`
		Pass string `mapstructure:"pass"`
		From string `mapstructure:"from"`
	} `mapstructure:"smtp"`

	SMS struct {
		Provider  string `mapstructure:"provider"`
		APIKey    string `mapstructure:"api_key"`
		From      string `mapstructure:"from"`
	} `mapstructure:"sms"`
}

func Load() *Config {
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "cold-backend")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "cold_db")
	v.SetDefault("upstream.sync_interval_minutes", 15)
	v.SetDefault("upstream.fetch_timeout", 30*time.Second)
	v.SetDefault("upstream.request_deadline", 10*time.Second)
	v.SetDefault("redis.addr", "localhost:6379")

	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "${JWT_SECRET}" {
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
		if cfg.JWT.Secret == "" {
			log.Fatal("JWT_SECRET not found in environment")
		}
	}

	if url := os.Getenv("UPSTREAM_API_BASE_URL"); url != "" {
		cfg.Upstream.APIBaseURL = url
	}
	if key := os.Getenv("UPSTREAM_API_KEY"); key != "" {
		cfg.Upstream.APIKey = key
	}

	if host := os.Getenv("SMTP_HOST"); host != "" {
		cfg.SMTP.Host = host
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		cfg.SMTP.User = user
	}
	if pass := os.Getenv("SMTP_PASS"); pass != "" {
		cfg.SMTP.Pass = pass
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		cfg.SMTP.From = from
	}

	if apiKey := os.Getenv("FAST2SMS_API_KEY"); apiKey != "" {
		cfg.SMS.Provider = "fast2sms"
		cfg.SMS.APIKey = apiKey
	}
	if apiKey := os.Getenv("TWILIO_API_KEY"); apiKey != "" {
		cfg.SMS.Provider = "twilio"
		cfg.SMS.APIKey = apiKey
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}

	return &cfg
}
