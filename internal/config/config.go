package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort string
	TrustProxy bool

	// ServiceName tags every log line.
	ServiceName string
	LogLevel    string
	LogFormat   string

	DatabaseURL string

	JWTSecret      []byte
	AccessTokenTTL time.Duration
	AdminAPIKey    string

	BannedWords   []string
	FlagThreshold int

	GigPostLimit  int
	GigPostWindow time.Duration
	ReportLimit   int
	ReportWindow  time.Duration
	APIRateLimit  int
	APIRateWindow time.Duration
	SweepInterval time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SERVICE_NAME", "gig_board")
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("BANNED_WORDS", "pills,gun,drugs,escort,gambling")
	v.SetDefault("FLAG_THRESHOLD", 3)
	v.SetDefault("GIG_POST_LIMIT", 3)
	v.SetDefault("GIG_POST_WINDOW", "1h")
	v.SetDefault("REPORT_LIMIT", 1)
	v.SetDefault("REPORT_WINDOW", "24h")
	v.SetDefault("API_RATE_LIMIT", 120)
	v.SetDefault("API_RATE_WINDOW", "1m")
	v.SetDefault("RATE_SWEEP_INTERVAL", "5m")
	v.SetDefault("ES_INDEX", "gigs")
}

// Load reads an optional .env file, then the process environment. A config
// file named by CONFIG_FILE is read first when set; environment values win.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Notice: .env file not loaded: %v. Using system environment variables", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		ServerPort:     v.GetString("SERVER_PORT"),
		TrustProxy:     v.GetBool("TRUST_PROXY"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		ServiceName:    v.GetString("SERVICE_NAME"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		JWTSecret:      []byte(v.GetString("JWT_SECRET")),
		AccessTokenTTL: v.GetDuration("ACCESS_TOKEN_TTL"),
		AdminAPIKey:    v.GetString("ADMIN_API_KEY"),
		BannedWords:    splitCSV(v.GetString("BANNED_WORDS")),
		FlagThreshold:  v.GetInt("FLAG_THRESHOLD"),
		GigPostLimit:   v.GetInt("GIG_POST_LIMIT"),
		GigPostWindow:  v.GetDuration("GIG_POST_WINDOW"),
		ReportLimit:    v.GetInt("REPORT_LIMIT"),
		ReportWindow:   v.GetDuration("REPORT_WINDOW"),
		APIRateLimit:   v.GetInt("API_RATE_LIMIT"),
		APIRateWindow:  v.GetDuration("API_RATE_WINDOW"),
		SweepInterval:  v.GetDuration("RATE_SWEEP_INTERVAL"),
		KafkaBrokers:   splitCSV(v.GetString("KAFKA_BROKERS")),
		ESURL:          v.GetString("ES_URL"),
		ESUser:         v.GetString("ES_USER"),
		ESPassword:     v.GetString("ES_PASSWORD"),
		ESIndex:        v.GetString("ES_INDEX"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(c.JWTSecret) == 0 {
		missing = append(missing, "JWT_SECRET")
	}
	if c.AdminAPIKey == "" {
		missing = append(missing, "ADMIN_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env %s", strings.Join(missing, ", "))
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}

	if c.AccessTokenTTL < time.Second {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be at least 1s, got %s", c.AccessTokenTTL)
	}
	if c.GigPostWindow <= 0 || c.ReportWindow <= 0 || c.APIRateWindow <= 0 {
		return errors.New("rate windows must be positive durations")
	}
	if c.GigPostLimit < 1 || c.ReportLimit < 1 || c.APIRateLimit < 1 {
		return errors.New("rate limits must be at least 1")
	}
	if c.FlagThreshold < 1 {
		return fmt.Errorf("FLAG_THRESHOLD must be at least 1, got %d", c.FlagThreshold)
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
