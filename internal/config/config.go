package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultPort     = 8080
	DefaultHost     = "127.0.0.1"
	DefaultLogLevel = "info"
	DefaultLanguage = "en"
	DefaultDPI      = 150
	DefaultQuality  = 90
	DefaultPdftoppm = "pdftoppm"
)

// Config holds all configuration for the report form service
type Config struct {
	// Server configuration
	Host string
	Port int

	// Asset configuration
	AssetsDirectory string

	// Export configuration
	Language string // default form language
	Workers  int    // JPEG render pool size, 0 = GOMAXPROCS
	DPI      int
	Quality  int
	Pdftoppm string // pdftoppm binary name or path

	// Application configuration
	Version  string
	LogLevel string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		AssetsDirectory: filepath.Join(currentDir, "assets"),
		Language:        DefaultLanguage,
		Workers:         0,
		DPI:             DefaultDPI,
		Quality:         DefaultQuality,
		Pdftoppm:        DefaultPdftoppm,
		Version:         "1.0.0",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.AssetsDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.AssetsDirectory); err == nil {
			cfg.AssetsDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("REPORTFORM")
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("assets", cfg.AssetsDirectory)
	viper.SetDefault("language", cfg.Language)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("dpi", cfg.DPI)
	viper.SetDefault("quality", cfg.Quality)
	viper.SetDefault("pdftoppm", cfg.Pdftoppm)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("host", cfg.Host, "Server host address")
	pflag.Int("port", cfg.Port, "Server port")
	pflag.String("assets", cfg.AssetsDirectory, "Directory containing templates, fonts and translation tables")
	pflag.String("language", cfg.Language, "Default form language")
	pflag.Int("workers", cfg.Workers, "JPEG render workers (0 = number of CPUs)")
	pflag.Int("dpi", cfg.DPI, "JPEG render resolution")
	pflag.Int("quality", cfg.Quality, "JPEG quality (1-100)")
	pflag.String("pdftoppm", cfg.Pdftoppm, "pdftoppm binary name or path")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{"host", "port", "assets", "language", "workers", "dpi", "quality", "pdftoppm", "loglevel"} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nHurt Feelings Report - a form filling and export service\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --assets=./assets                        # serve on 127.0.0.1:8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --host=0.0.0.0 --port=8081               # serve on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  REPORTFORM_HOST      Server host\n")
		fmt.Fprintf(os.Stderr, "  REPORTFORM_PORT      Server port\n")
		fmt.Fprintf(os.Stderr, "  REPORTFORM_ASSETS    Assets directory\n")
		fmt.Fprintf(os.Stderr, "  REPORTFORM_LANGUAGE  Default form language\n")
		fmt.Fprintf(os.Stderr, "  REPORTFORM_WORKERS   JPEG render workers\n")
		fmt.Fprintf(os.Stderr, "  REPORTFORM_DPI       JPEG render resolution\n")
		fmt.Fprintf(os.Stderr, "  REPORTFORM_QUALITY   JPEG quality\n")
		fmt.Fprintf(os.Stderr, "  REPORTFORM_PDFTOPPM  pdftoppm binary\n")
		fmt.Fprintf(os.Stderr, "  REPORTFORM_LOGLEVEL  Log level\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.AssetsDirectory = viper.GetString("assets")
	cfg.Language = viper.GetString("language")
	cfg.Workers = viper.GetInt("workers")
	cfg.DPI = viper.GetInt("dpi")
	cfg.Quality = viper.GetInt("quality")
	cfg.Pdftoppm = viper.GetString("pdftoppm")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if c.AssetsDirectory == "" {
		return errors.New("assets directory cannot be empty")
	}
	if info, err := os.Stat(c.AssetsDirectory); err != nil {
		return fmt.Errorf("cannot access assets directory %s: %w", c.AssetsDirectory, err)
	} else if !info.IsDir() {
		return fmt.Errorf("assets path %s is not a directory", c.AssetsDirectory)
	}

	if c.Language == "" {
		return errors.New("default language cannot be empty")
	}
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}
	if c.DPI < 36 || c.DPI > 1200 {
		return errors.New("dpi must be between 36 and 1200")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return errors.New("quality must be between 1 and 100")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %s, Port: %d, AssetsDirectory: %s, Language: %s, Workers: %d, DPI: %d, Quality: %d, LogLevel: %s}",
		c.Host, c.Port, c.AssetsDirectory, c.Language, c.Workers, c.DPI, c.Quality, c.LogLevel)
}
