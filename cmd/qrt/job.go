package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect and control submitted jobs",
}

var jobStatusCmd = &cobra.Command{
	Use:   "status JOB_ID",
	Short: "Show a job's current status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		job, err := svc.Job(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		status, err := job.Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil
	},
}

var jobResultCmd = &cobra.Command{
	Use:   "result JOB_ID",
	Short: "Block until the job finishes and print its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		job, err := svc.Job(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		result, err := job.Result(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var jobLogsCmd = &cobra.Command{
	Use:   "logs JOB_ID",
	Short: "Print a job's execution log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		job, err := svc.Job(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		logs, err := job.Logs(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(logs)
		return nil
	},
}

var jobCancelCmd = &cobra.Command{
	Use:   "cancel JOB_ID",
	Short: "Cancel a queued or running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		job, err := svc.Job(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return job.Cancel(cmd.Context())
	},
}

func init() {
	jobCmd.AddCommand(jobStatusCmd, jobResultCmd, jobLogsCmd, jobCancelCmd)
}
