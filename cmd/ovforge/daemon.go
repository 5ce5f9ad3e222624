package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ovforge/ovforge/internal/api"
	"github.com/ovforge/ovforge/internal/api/client"
	"github.com/ovforge/ovforge/internal/config"
	"github.com/ovforge/ovforge/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the OVForge daemon",
	Long: `Control the OVForge background daemon that runs conversion jobs.

The daemon runs conversions one at a time from a queue and provides an
HTTP API for the CLI commands.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the OVForge daemon",
	Long: `Start the OVForge daemon in the background.

The daemon will:
- Run queued conversion jobs one at a time
- Persist job state across restarts
- Provide an HTTP API on port 7684 (configurable)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if isDaemonRunning() {
			fmt.Println("Daemon is already running")
			return nil
		}

		foreground, _ := cmd.Flags().GetBool("foreground")
		port, _ := cmd.Flags().GetInt("port")

		if port == 0 {
			port = viper.GetInt("daemon.port")
			if port == 0 {
				port = 7684 // Default port
			}
		}

		if foreground {
			return runDaemonForeground(port)
		}

		return startDaemonBackground(port)
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the OVForge daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isDaemonRunning() {
			fmt.Println("Daemon is not running")
			return nil
		}

		apiClient := client.NewClient(getDaemonURL())
		if err := apiClient.Shutdown(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}

		fmt.Println("Daemon shutdown initiated")

		// Wait for daemon to stop
		for i := 0; i < 10; i++ {
			time.Sleep(1 * time.Second)
			if !isDaemonRunning() {
				fmt.Println("Daemon stopped successfully")
				return nil
			}
		}

		return fmt.Errorf("daemon did not stop within timeout")
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isDaemonRunning() {
			fmt.Println("Daemon is not running")
			return nil
		}

		apiClient := client.NewClient(getDaemonURL())
		status, err := apiClient.GetStatus()
		if err != nil {
			fmt.Println("Daemon is running but API is not responding")
			return nil
		}

		fmt.Println("Daemon Status:")
		fmt.Printf("  PID: %v\n", status["pid"])
		fmt.Printf("  Uptime: %v\n", status["uptime"])
		fmt.Printf("  Active Jobs: %v\n", status["active_jobs"])
		fmt.Printf("  Total Conversions: %v\n", status["total_conversions"])
		fmt.Printf("  Total Failures: %v\n", status["total_failures"])

		return nil
	},
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the OVForge daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if isDaemonRunning() {
			fmt.Println("Stopping daemon...")
			if err := daemonStopCmd.RunE(cmd, args); err != nil {
				return err
			}
			time.Sleep(2 * time.Second)
		}

		fmt.Println("Starting daemon...")
		return daemonStartCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.AddCommand(daemonStartCmd, daemonStopCmd, daemonStatusCmd, daemonRestartCmd)

	daemonStartCmd.Flags().Bool("foreground", false, "Run daemon in foreground")
	daemonStartCmd.Flags().Int("port", 0, "API port (default: 7684)")

	daemonRestartCmd.Flags().Bool("foreground", false, "Run daemon in foreground after restart")
	daemonRestartCmd.Flags().Int("port", 0, "API port (default: 7684)")
}

func isDaemonRunning() bool {
	apiClient := client.NewClient(getDaemonURL())
	return apiClient.Health() == nil
}

func runDaemonForeground(port int) error {
	cfg := config.Get()
	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	// Setup API routes
	routes := api.SetupRoutes(d)
	d.SetAPIHandler(routes)

	if err := d.Start(port); err != nil {
		return err
	}

	d.Wait()
	return nil
}

func startDaemonBackground(port int) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := exec.Command(exe, "daemon", "start", "--foreground", "--port", strconv.Itoa(port))
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to detach daemon process: %w", err)
	}

	fmt.Printf("Starting daemon on port %d...\n", port)

	// Wait for daemon to be ready
	apiClient := client.NewClient(fmt.Sprintf("http://127.0.0.1:%d", port))
	for i := 0; i < 10; i++ {
		time.Sleep(1 * time.Second)
		if _, err := apiClient.GetStatus(); err == nil {
			fmt.Println("Daemon started successfully")
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}
