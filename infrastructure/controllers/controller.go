package controllers

import "github.com/spf13/cobra"

// ControllerBind is the cobra metadata one controller contributes to the
// root command.
type ControllerBind struct {
	Use   string
	Short string
	Long  string
}

// Controller is one CLI subcommand backed by the application services.
type Controller interface {
	GetBind() ControllerBind
	Execute(cmd *cobra.Command, args []string)
	AddFlags(cmd *cobra.Command)
}
