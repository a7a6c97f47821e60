package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SooluThomas/qiskit-ibm-runtime/runtime"
)

var programCmd = &cobra.Command{
	Use:   "program",
	Short: "Manage runtime programs",
}

var programListCmd = &cobra.Command{
	Use:   "list",
	Short: "List programs visible to the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		programs, err := svc.Programs(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(programs)
	},
}

var programShowCmd = &cobra.Command{
	Use:   "show PROGRAM_ID",
	Short: "Show one program's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		p, err := svc.Program(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

var (
	flagProgramName    string
	flagProgramDesc    string
	flagProgramMaxTime int
	flagProgramPublic  bool
	flagProgramData    string
	flagProgramSpec    string
)

var programUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Publish a new runtime program",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		up := runtime.ProgramUpload{
			Name:             flagProgramName,
			Description:      flagProgramDesc,
			MaxExecutionTime: flagProgramMaxTime,
			IsPublic:         flagProgramPublic,
		}
		if flagProgramData != "" {
			data, err := os.ReadFile(flagProgramData)
			if err != nil {
				return fmt.Errorf("failed to read program payload: %w", err)
			}
			up.Data = string(data)
		}
		if flagProgramSpec != "" {
			data, err := os.ReadFile(flagProgramSpec)
			if err != nil {
				return fmt.Errorf("failed to read program spec: %w", err)
			}
			if err := json.Unmarshal(data, &up.Spec); err != nil {
				return fmt.Errorf("failed to parse program spec: %w", err)
			}
		}

		p, err := svc.UploadProgram(cmd.Context(), up)
		if err != nil {
			return err
		}
		fmt.Println("program id:", p.ID)
		return nil
	},
}

var programDeleteCmd = &cobra.Command{
	Use:   "delete PROGRAM_ID",
	Short: "Delete an owned program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		return svc.DeleteProgram(cmd.Context(), args[0])
	},
}

func init() {
	programUploadCmd.Flags().StringVar(&flagProgramName, "name", "", "program name")
	programUploadCmd.Flags().StringVar(&flagProgramDesc, "description", "", "program description")
	programUploadCmd.Flags().IntVar(&flagProgramMaxTime, "max-execution-time", 300, "per-job wall clock limit in seconds")
	programUploadCmd.Flags().BoolVar(&flagProgramPublic, "public", false, "make the program public")
	programUploadCmd.Flags().StringVar(&flagProgramData, "data", "", "file with the program payload")
	programUploadCmd.Flags().StringVar(&flagProgramSpec, "spec", "", "JSON file with parameter/return schemas")
	_ = programUploadCmd.MarkFlagRequired("name")

	programCmd.AddCommand(programListCmd, programShowCmd, programUploadCmd, programDeleteCmd)
}
