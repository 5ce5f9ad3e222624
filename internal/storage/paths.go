package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Paths manages all storage locations for ovforge
type Paths struct {
	baseDir    string
	cacheDir   string
	outputsDir string
	configDir  string
	daemonDir  string
}

// NewPaths creates a new Paths instance
func NewPaths() (*Paths, error) {
	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	p := &Paths{
		baseDir:    baseDir,
		cacheDir:   filepath.Join(baseDir, "cache"),
		outputsDir: filepath.Join(baseDir, "outputs"),
		daemonDir:  filepath.Join(baseDir, "daemon"),
	}

	// Config dir is separate
	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	p.configDir = configDir

	return p, nil
}

// getBaseDir returns the base directory for ovforge data
func getBaseDir() (string, error) {
	// Check environment variable first
	if dir := os.Getenv("OVFORGE_HOME"); dir != "" {
		return dir, nil
	}

	// Default to ~/.ovforge
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".ovforge"), nil
}

// GetBaseDir returns the base data directory without constructing Paths.
func GetBaseDir() string {
	dir, err := getBaseDir()
	if err != nil {
		return ".ovforge"
	}
	return dir
}

// getConfigDir returns the configuration directory
func getConfigDir() (string, error) {
	// Check environment variable first
	if dir := os.Getenv("OVFORGE_CONFIG"); dir != "" {
		return dir, nil
	}

	// Use XDG_CONFIG_HOME if set
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ovforge"), nil
	}

	// Platform-specific defaults
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "ovforge"), nil

	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "ovforge"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "AppData", "Roaming", "ovforge"), nil

	default: // Linux and others
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "ovforge"), nil
	}
}

// Initialize creates all necessary directories
func (p *Paths) Initialize() error {
	dirs := []string{
		p.cacheDir,
		p.outputsDir,
		p.configDir,
		p.daemonDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// BaseDir returns the base directory
func (p *Paths) BaseDir() string {
	return p.baseDir
}

// CacheDir returns the checkpoint cache directory
func (p *Paths) CacheDir() string {
	return p.cacheDir
}

// OutputsDir returns the converted model outputs directory
func (p *Paths) OutputsDir() string {
	return p.outputsDir
}

// OutputPath returns the output directory for a named conversion
func (p *Paths) OutputPath(name string) string {
	return filepath.Join(p.outputsDir, name)
}

// DaemonDir returns the daemon state directory
func (p *Paths) DaemonDir() string {
	return p.daemonDir
}

// ConfigDir returns the config directory
func (p *Paths) ConfigDir() string {
	return p.configDir
}

// ConfigPath returns the main config file path
func (p *Paths) ConfigPath() string {
	return filepath.Join(p.configDir, "config.yaml")
}

// GetDiskUsage returns disk usage statistics for ovforge
func (p *Paths) GetDiskUsage() (DiskUsage, error) {
	usage := DiskUsage{
		Cache:   getDirSize(p.cacheDir),
		Outputs: getDirSize(p.outputsDir),
		Daemon:  getDirSize(p.daemonDir),
	}
	usage.Total = usage.Cache + usage.Outputs + usage.Daemon

	return usage, nil
}

// DiskUsage represents disk space usage
type DiskUsage struct {
	Total   int64
	Cache   int64
	Outputs int64
	Daemon  int64
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) int64 {
	var size int64

	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	return size
}
