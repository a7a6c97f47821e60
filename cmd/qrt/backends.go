package main

import (
	"github.com/spf13/cobra"

	"github.com/SooluThomas/qiskit-ibm-runtime/runtime"
)

var (
	flagOperational bool
	flagSimulators  bool
	flagMinQubits   int
	flagLeastBusy   bool
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List available execution targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		var filters []runtime.BackendFilter
		if flagOperational {
			filters = append(filters, runtime.OperationalOnly())
		}
		if cmd.Flags().Changed("simulators") {
			filters = append(filters, runtime.Simulators(flagSimulators))
		}
		if flagMinQubits > 0 {
			filters = append(filters, runtime.MinQubits(flagMinQubits))
		}

		if flagLeastBusy {
			b, err := svc.LeastBusy(cmd.Context(), filters...)
			if err != nil {
				return err
			}
			return printJSON(b)
		}

		backends, err := svc.Backends(cmd.Context(), filters...)
		if err != nil {
			return err
		}
		return printJSON(backends)
	},
}

func init() {
	backendsCmd.Flags().BoolVar(&flagOperational, "operational", false, "only backends accepting jobs")
	backendsCmd.Flags().BoolVar(&flagSimulators, "simulators", false, "simulators (true) or devices (false)")
	backendsCmd.Flags().IntVar(&flagMinQubits, "min-qubits", 0, "minimum qubit count")
	backendsCmd.Flags().BoolVar(&flagLeastBusy, "least-busy", false, "print only the least busy match")
}
