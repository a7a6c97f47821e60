package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SooluThomas/qiskit-ibm-runtime/runtime"
)

var (
	flagProgram    string
	flagBackend    string
	flagInputsFile string
	flagShots      int
	flagWait       bool
)

// mergeShots folds a --shots value into the inputs payload. The inputs
// must be a JSON object (or absent) and must not already set shots.
func mergeShots(inputs json.RawMessage, shots int) (json.RawMessage, error) {
	payload := map[string]any{}
	if len(inputs) > 0 {
		if err := json.Unmarshal(inputs, &payload); err != nil {
			return nil, fmt.Errorf("inputs must be a JSON object to combine with --shots: %w", err)
		}
	}
	if prev, ok := payload["shots"]; ok {
		return nil, fmt.Errorf("inputs already set shots=%v; drop --shots or remove the field", prev)
	}
	payload["shots"] = shots
	return json.Marshal(payload)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit a runtime program for execution",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		var inputs json.RawMessage
		if flagInputsFile != "" {
			data, err := os.ReadFile(flagInputsFile)
			if err != nil {
				return fmt.Errorf("failed to read inputs file: %w", err)
			}
			if !json.Valid(data) {
				return fmt.Errorf("inputs file %q is not valid JSON", flagInputsFile)
			}
			inputs = data
		}
		if flagShots > 0 {
			merged, err := mergeShots(inputs, flagShots)
			if err != nil {
				return err
			}
			inputs = merged
		}

		job, err := svc.Run(cmd.Context(), flagProgram, runtime.RunOptions{
			Backend: flagBackend,
			Inputs:  inputs,
		})
		if err != nil {
			return err
		}
		fmt.Println("job id:", job.ID())

		if !flagWait {
			return nil
		}
		result, err := job.Result(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&flagProgram, "program", "", "program ID to run")
	runCmd.Flags().StringVar(&flagBackend, "backend", "", "backend to run on")
	runCmd.Flags().StringVar(&flagInputsFile, "inputs", "", "JSON file with program inputs")
	runCmd.Flags().IntVar(&flagShots, "shots", 0, "shots per circuit, merged into the inputs payload")
	runCmd.Flags().BoolVar(&flagWait, "wait", false, "block until the result is available")
	_ = runCmd.MarkFlagRequired("program")
	_ = runCmd.MarkFlagRequired("backend")
}
