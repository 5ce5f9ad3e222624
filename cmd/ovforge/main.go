package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ovforge/ovforge/internal/api/client"
	"github.com/ovforge/ovforge/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "ovforge",
		Short: "Convert HuggingFace models to OpenVINO IR",
		Long: `OVForge converts HuggingFace checkpoints into OpenVINO IR with optional
weight compression and full quantization.

Key Commands:
  convert   - Convert a model in the foreground
  fetch     - Download a checkpoint from the HuggingFace hub
  inspect   - Show what a conversion would do for a model
  list      - Show converted models on this machine
  jobs      - Manage background conversion jobs on the daemon`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ovforge/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}

	if err := config.CreateAllDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	// If user specified a config file, load it
	if cfgFile != "" {
		v := config.GetViper()
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ensureDaemonRunning checks if the daemon is running and starts it if not
func ensureDaemonRunning() error {
	apiClient := client.NewClient(getDaemonURL())
	if err := apiClient.Health(); err == nil {
		return nil // Already running
	}

	// Auto-start is disabled if explicitly set to false
	if viper.IsSet("daemon.auto_start") && !viper.GetBool("daemon.auto_start") {
		return fmt.Errorf("daemon is not running. Start it with: ovforge daemon start")
	}

	fmt.Println("Starting daemon...")
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := exec.Command(exe, "daemon", "start")
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to detach daemon process: %w", err)
	}

	// Wait for daemon to be ready
	for i := 0; i < 10; i++ {
		time.Sleep(1 * time.Second)
		if err := apiClient.Health(); err == nil {
			fmt.Println("Daemon started successfully")
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

func getDaemonURL() string {
	port := viper.GetInt("daemon.port")
	if port == 0 {
		port = 7684
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}
