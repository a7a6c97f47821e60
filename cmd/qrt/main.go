// qrt is a command line client for the quantum runtime service: list
// backends, manage runtime programs and submit jobs.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SooluThomas/qiskit-ibm-runtime/runtime"
)

var (
	flagURL     string
	flagToken   string
	flagAccount string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "qrt",
	Short:         "Client for the quantum runtime service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "service URL (defaults to account setting)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "API token (defaults to account setting)")
	rootCmd.PersistentFlags().StringVar(&flagAccount, "account", "", "named account from the account file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(backendsCmd, runCmd, jobCmd, programCmd)
}

// newService builds the service handle from flags, environment and the
// account file, in that order.
func newService() (*runtime.Service, error) {
	logger := zap.NewNop()
	if flagVerbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	opts := []runtime.Option{runtime.WithLogger(logger)}
	if flagToken != "" {
		opts = append(opts, runtime.WithAccount(runtime.Account{Token: flagToken, URL: flagURL}))
	} else if flagAccount != "" {
		opts = append(opts, runtime.WithAccountName(flagAccount))
	}
	return runtime.New(opts...)
}

// printJSON renders any payload as indented JSON on stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func main() {
	// .env is optional.
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
