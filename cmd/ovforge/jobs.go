package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovforge/ovforge/internal/api/client"
	"github.com/ovforge/ovforge/internal/ui"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage conversion jobs on the daemon",
	Long: `Submit, watch and cancel background conversion jobs.

The daemon runs one conversion at a time; submitted jobs queue until the
worker is free.`,
}

var jobsSubmitCmd = &cobra.Command{
	Use:   "submit [model]",
	Short: "Queue a conversion on the daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsSubmit,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversion jobs",
	RunE:  runJobsList,
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the status of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStatus,
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel [job-id]",
	Short: "Cancel a pending or running job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsCancel,
}

var (
	jobsOutputName string
	jobsWatch      bool
	jobsActiveOnly bool
)

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsSubmitCmd, jobsListCmd, jobsStatusCmd, jobsCancelCmd)

	jobsSubmitCmd.Flags().StringVarP(&jobsOutputName, "output", "o", "", "output model name (default: derived from the model id)")
	jobsSubmitCmd.Flags().BoolVar(&jobsWatch, "watch", false, "wait for the job to finish")
	addConversionFlags(jobsSubmitCmd)

	jobsListCmd.Flags().BoolVar(&jobsActiveOnly, "active", false, "only show pending and running jobs")
}

func runJobsSubmit(cmd *cobra.Command, args []string) error {
	model := args[0]

	if err := ensureDaemonRunning(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	apiClient := client.NewClient(getDaemonURL())

	passCfg := passConfigFromFlags(cmd)
	result, err := apiClient.SubmitJob(model, jobsOutputName, passCfg)
	if err != nil {
		return err
	}

	jobID, _ := result["job_id"].(string)
	fmt.Printf("Job submitted (ID: %s)\n", jobID)

	if !jobsWatch {
		fmt.Printf("Check progress with: ovforge jobs status %s\n", jobID)
		return nil
	}

	return watchJob(apiClient, jobID)
}

func watchJob(apiClient *client.Client, jobID string) error {
	spinner := ui.NewSpinner("Converting")
	defer spinner.Finish()

	for {
		job, err := apiClient.GetJob(jobID)
		if err != nil {
			return fmt.Errorf("failed to get job status: %w", err)
		}

		status, _ := job["status"].(string)
		switch status {
		case "completed":
			if output, ok := job["output_path"].(string); ok && output != "" {
				fmt.Printf("Conversion complete: %s\n", output)
			} else {
				fmt.Println("Conversion complete")
			}
			return nil
		case "failed":
			errMsg := "unknown error"
			if e, ok := job["error"].(string); ok && e != "" {
				errMsg = e
			}
			return fmt.Errorf("conversion failed: %s", errMsg)
		case "cancelled":
			return fmt.Errorf("job was cancelled")
		}

		spinner.Describe(fmt.Sprintf("Converting [%s]", status))
		spinner.Tick()
		time.Sleep(1 * time.Second)
	}
}

func runJobsList(cmd *cobra.Command, args []string) error {
	if err := ensureDaemonRunning(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	apiClient := client.NewClient(getDaemonURL())

	statusFilter := ""
	if jobsActiveOnly {
		statusFilter = "active"
	}

	jobs, err := apiClient.ListJobs(statusFilter)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}

	fmt.Printf("%-38s %-10s %s\n", "ID", "STATUS", "MODEL")
	for _, job := range jobs {
		id, _ := job["id"].(string)
		status, _ := job["status"].(string)
		model, _ := job["model"].(string)
		fmt.Printf("%-38s %-10s %s\n", id, status, model)
	}

	return nil
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	if err := ensureDaemonRunning(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	apiClient := client.NewClient(getDaemonURL())

	job, err := apiClient.GetJob(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Job: %v\n", job["id"])
	fmt.Printf("  Status: %v\n", job["status"])
	fmt.Printf("  Model: %v\n", job["model"])
	if output, ok := job["output_name"].(string); ok && output != "" {
		fmt.Printf("  Output: %v\n", output)
	}
	if submitted, ok := job["submitted_at"].(string); ok {
		fmt.Printf("  Submitted: %v\n", submitted)
	}
	if errMsg, ok := job["error"].(string); ok && errMsg != "" {
		fmt.Printf("  Error: %v\n", errMsg)
	}

	return nil
}

func runJobsCancel(cmd *cobra.Command, args []string) error {
	if err := ensureDaemonRunning(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	apiClient := client.NewClient(getDaemonURL())
	if err := apiClient.CancelJob(args[0]); err != nil {
		return err
	}

	fmt.Printf("Job %s cancelled\n", args[0])
	return nil
}
