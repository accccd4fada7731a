package config

import (
	"flag"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"eets/internal/logger"
)

// Config holds the server settings. Values come from defaults, then command
// line flags, then environment variables (a .env file is loaded first).
type Config struct {
	RunAddr      string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	DBPath       string        `env:"DB_PATH" validate:"required"`
	TemplateDir  string        `env:"TEMPLATE_DIR" validate:"required"`
	LogLevel     string        `env:"LOG_LEVEL" validate:"loglevel"`
	TokenSecret  string        `env:"TOKEN_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" validate:"gt=0"`
	SecureCookie bool          `env:"SECURE_COOKIE"`

	// Employee registered at startup when the store has no users.
	AdminEmployeeID string `env:"ADMIN_USER" validate:"omitempty,len=5,number"`
	AdminPassword   string `env:"ADMIN_PASSWORD" validate:"required_with=AdminEmployeeID"`
}

var defaultConfig = Config{
	RunAddr:     ":5000",
	DBPath:      "eets.db",
	TemplateDir: "web/templates",
	LogLevel:    "info",
	TokenTTL:    24 * time.Hour,
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

// Validate checks the values.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	return validate.Struct(c)
}

// Load builds the configuration from args (without the program name) and the
// environment.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debugw("no .env file loaded", "error", err)
	}

	cfg := defaultConfig

	fs := flag.NewFlagSet("eets", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path to the SQLite database file")
	fs.StringVar(&cfg.TemplateDir, "t", cfg.TemplateDir, "directory with HTML templates")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
	fs.StringVar(&cfg.TokenSecret, "s", cfg.TokenSecret, "identity token signing secret")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, err
	}
	applyOverrides(&cfg, fromEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyOverrides(cfg *Config, o Config) {
	if o.RunAddr != "" {
		cfg.RunAddr = o.RunAddr
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if o.TemplateDir != "" {
		cfg.TemplateDir = o.TemplateDir
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.TokenSecret != "" {
		cfg.TokenSecret = o.TokenSecret
	}
	if o.TokenTTL != 0 {
		cfg.TokenTTL = o.TokenTTL
	}
	if o.SecureCookie {
		cfg.SecureCookie = true
	}
	if o.AdminEmployeeID != "" {
		cfg.AdminEmployeeID = o.AdminEmployeeID
	}
	if o.AdminPassword != "" {
		cfg.AdminPassword = o.AdminPassword
	}
}
