package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT,default=8080"`
	AppEnv   string `env:"APP_ENV,default=production"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	DatabaseURL   string `env:"DATABASE_URL,required"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE,default=true"`

	JWTSecret          string `env:"AUTH_JWT_SECRET,required"`
	CookieName         string `env:"AUTH_COOKIE_NAME,default=sb-access-token"`
	CookieSecure       bool   `env:"AUTH_COOKIE_SECURE,default=true"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL,default=gemini-2.5-flash"`

	GmailCredentialsFile string `env:"GMAIL_CREDENTIALS_FILE,default=credential.json"`
	GmailTokenFile       string `env:"GMAIL_TOKEN_FILE,default=token.json"`
	GmailSyncUserID      string `env:"GMAIL_SYNC_USER_ID"`
	GmailSyncSchedule    string `env:"GMAIL_SYNC_SCHEDULE,default=@every 15m"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: AUTH_JWT_SECRET is required")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// AIEnabled reports whether a model key was provided.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

// GmailSyncEnabled reports whether background inbox sync has an owner to sync for.
func (c *Config) GmailSyncEnabled() bool {
	return c.GmailSyncUserID != ""
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// GmailFiles is the subset cmd/gmail-auth needs; it does not require the database settings.
type GmailFiles struct {
	CredentialsFile string `env:"GMAIL_CREDENTIALS_FILE,default=credential.json"`
	TokenFile       string `env:"GMAIL_TOKEN_FILE,default=token.json"`
}

func LoadGmailFiles() (*GmailFiles, error) {
	_ = godotenv.Load()
	var files GmailFiles
	if err := envdecode.Decode(&files); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: decode environment: %w", err)
	}
	return &files, nil
}
