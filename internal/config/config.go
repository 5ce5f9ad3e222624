package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config represents the ovforge configuration
type Config struct {
	// Storage paths
	Storage StorageConfig `mapstructure:"storage"`

	// Export tool settings
	Export ExportConfig `mapstructure:"export"`

	// Daemon settings
	Daemon DaemonConfig `mapstructure:"daemon"`

	// UI settings
	UI UIConfig `mapstructure:"ui"`
}

type StorageConfig struct {
	BaseDir    string `mapstructure:"base_dir"`
	CacheDir   string `mapstructure:"cache_dir"`
	OutputsDir string `mapstructure:"outputs_dir"`
	DaemonDir  string `mapstructure:"daemon_dir"`
}

type ExportConfig struct {
	// Binary is the optimum-cli executable used for conversions
	Binary string `mapstructure:"binary"`

	// TokenizerBinary is the converter for OpenVINO tokenizer models
	TokenizerBinary string `mapstructure:"tokenizer_binary"`

	// Extra environment passed to the export subprocess
	Env []string `mapstructure:"env"`

	// Timeout for a single export run, in seconds (0 = unlimited)
	Timeout int `mapstructure:"timeout"`
}

type DaemonConfig struct {
	Port int `mapstructure:"port"`

	// Rate limiting for job submission
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	// How many finished jobs to keep in the state file
	MaxJobHistory int `mapstructure:"max_job_history"`
}

type UIConfig struct {
	ProgressBar  bool   `mapstructure:"progress_bar"`
	Color        bool   `mapstructure:"color"`
	Verbose      bool   `mapstructure:"verbose"`
	OutputFormat string `mapstructure:"output_format"`
}

var (
	cfg *Config
	v   *viper.Viper
)

// Helper methods for accessing config values

// GetInt returns an integer value from the config
func (c *Config) GetInt(key string) int {
	if v != nil {
		return v.GetInt(key)
	}
	return 0
}

// GetBool returns a boolean value from the config
func (c *Config) GetBool(key string) bool {
	if v != nil {
		return v.GetBool(key)
	}
	return false
}

// GetString returns a string value from the config
func (c *Config) GetString(key string) string {
	if v != nil {
		return v.GetString(key)
	}
	return ""
}

// GetStringSlice returns a string slice from the config
func (c *Config) GetStringSlice(key string) []string {
	if v != nil {
		return v.GetStringSlice(key)
	}
	return nil
}

// Initialize sets up the configuration
func Initialize() error {
	v = viper.New()

	// Set config name and type
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config paths
	// 1. Same directory as executable
	if exe, err := os.Executable(); err == nil {
		v.AddConfigPath(filepath.Dir(exe))
	}

	// 2. Current working directory
	v.AddConfigPath(".")

	// 3. User config directory
	if configDir := getUserConfigDir(); configDir != "" {
		v.AddConfigPath(configDir)
	}

	// Set defaults
	setDefaults(v)

	// Bind environment variables
	v.SetEnvPrefix("OVFORGE")
	v.AutomaticEnv()

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is ok, we'll use defaults
	}

	// Unmarshal into struct
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand paths
	expandPaths(cfg)

	return nil
}

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.base_dir", getDefaultBaseDir())
	v.SetDefault("storage.cache_dir", "")   // Will be set to base_dir/cache
	v.SetDefault("storage.outputs_dir", "") // Will be set to base_dir/outputs
	v.SetDefault("storage.daemon_dir", "")  // Will be set to base_dir/daemon

	// Export defaults
	v.SetDefault("export.binary", "optimum-cli")
	v.SetDefault("export.tokenizer_binary", "convert_tokenizer")
	v.SetDefault("export.env", []string{})
	v.SetDefault("export.timeout", 0) // Unlimited

	// Daemon defaults
	v.SetDefault("daemon.port", 7684)
	v.SetDefault("daemon.rate_limit", 5.0) // Job submissions per second
	v.SetDefault("daemon.rate_limit_burst", 10)
	v.SetDefault("daemon.max_job_history", 100)

	// UI defaults
	v.SetDefault("ui.progress_bar", true)
	v.SetDefault("ui.color", true)
	v.SetDefault("ui.verbose", false)
	v.SetDefault("ui.output_format", "text") // text or json
}

// getDefaultBaseDir returns the default base directory
func getDefaultBaseDir() string {
	if dir := os.Getenv("OVFORGE_HOME"); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".ovforge"
	}

	return filepath.Join(home, ".ovforge")
}

// getUserConfigDir returns the user's config directory
func getUserConfigDir() string {
	// Use XDG_CONFIG_HOME if set
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ovforge")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "ovforge")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "ovforge")
		}
		return filepath.Join(home, "AppData", "Roaming", "ovforge")
	default:
		return filepath.Join(home, ".config", "ovforge")
	}
}

// expandPaths expands relative paths and sets defaults
func expandPaths(cfg *Config) {
	// Expand base dir
	if cfg.Storage.BaseDir != "" {
		cfg.Storage.BaseDir = expandPath(cfg.Storage.BaseDir)
	}

	// Set subdirectories if not specified
	if cfg.Storage.CacheDir == "" {
		cfg.Storage.CacheDir = filepath.Join(cfg.Storage.BaseDir, "cache")
	} else {
		cfg.Storage.CacheDir = expandPath(cfg.Storage.CacheDir)
	}

	if cfg.Storage.OutputsDir == "" {
		cfg.Storage.OutputsDir = filepath.Join(cfg.Storage.BaseDir, "outputs")
	} else {
		cfg.Storage.OutputsDir = expandPath(cfg.Storage.OutputsDir)
	}

	if cfg.Storage.DaemonDir == "" {
		cfg.Storage.DaemonDir = filepath.Join(cfg.Storage.BaseDir, "daemon")
	} else {
		cfg.Storage.DaemonDir = expandPath(cfg.Storage.DaemonDir)
	}
}

// expandPath expands ~ and environment variables
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	// Expand environment variables
	return os.ExpandEnv(path)
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// GetViper returns the viper instance
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized")
	}
	return v
}

// SaveConfig saves the current configuration to file
func SaveConfig(path string) error {
	return v.WriteConfigAs(path)
}

// CreateAllDirs creates all configured directories
func CreateAllDirs() error {
	dirs := []string{
		cfg.Storage.BaseDir,
		cfg.Storage.CacheDir,
		cfg.Storage.OutputsDir,
		cfg.Storage.DaemonDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
