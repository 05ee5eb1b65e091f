package controllers

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/markpeek/remotes/application"
)

// CheckController handles the "check" subcommand.
type CheckController struct {
	monitor *application.ConnectivityMonitor
}

// NewCheckController creates a new CheckController.
func NewCheckController(monitor *application.ConnectivityMonitor) *CheckController {
	return &CheckController{monitor: monitor}
}

// GetBind returns the Cobra command metadata for the check controller.
func (it *CheckController) GetBind() ControllerBind {
	return ControllerBind{
		Use:   "check",
		Short: "Probe the reachability of every provider",
		Long: `Probe each configured provider once and print whether it answered.
An auth or rate-limit answer still counts as reachable; only transport
failures do not.`,
	}
}

// Execute probes all providers and prints the results.
func (it *CheckController) Execute(_ *cobra.Command, _ []string) {
	statuses := it.monitor.CheckAll(context.Background())

	for _, status := range statuses {
		if status.Reachable {
			fmt.Printf("%s %s\n", color.GreenString("✓"), status.Provider)
			if status.Message != "" {
				fmt.Printf("  %s\n", status.Message)
			}
			continue
		}
		fmt.Printf("%s %s\n", color.RedString("✗"), status.Provider)
		fmt.Printf("  %s\n", status.Message)
	}
}

// AddFlags adds the check-specific flags to the given Cobra command.
func (it *CheckController) AddFlags(_ *cobra.Command) {}
