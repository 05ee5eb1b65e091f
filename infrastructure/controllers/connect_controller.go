package controllers

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/domain"
)

// ConnectController handles the "connect" subcommand.
type ConnectController struct {
	connector *application.Connector
}

// NewConnectController creates a new ConnectController.
func NewConnectController(connector *application.Connector) *ConnectController {
	return &ConnectController{connector: connector}
}

// GetBind returns the Cobra command metadata for the connect controller.
func (it *ConnectController) GetBind() ControllerBind {
	return ControllerBind{
		Use:   "connect <url>",
		Short: "Connect a remote repository",
		Long: `Resolve a repository URL, validate a credential against it, and list
its branches.

With --method pat the token comes from --pat, a previously stored
credential, or the configuration file. With --method oauth (GitHub only)
a missing token starts the device sign-in flow in the terminal.`,
	}
}

// Execute connects the repository and prints the branch list.
func (it *ConnectController) Execute(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		logger.Error("a repository URL is required")
		return
	}

	methodName, _ := cmd.Flags().GetString("method")
	method, err := domain.ParseAuthMethod(methodName)
	if err != nil {
		logger.Errorf("Invalid --method: %v", err)
		return
	}
	pat, _ := cmd.Flags().GetString("pat")
	branch, _ := cmd.Flags().GetString("branch")

	connected, err := it.connector.Connect(context.Background(), args[0], method, pat, branch)
	if err != nil {
		logger.Errorf("Connect failed: %v", err)
		return
	}

	green := color.New(color.FgGreen)
	green.Printf("Connected %s\n", domain.DisplayName(connected.Repository))
	fmt.Printf("Opened as %s on branch %s\n", connected.RepositoryID, connected.CurrentBranch)

	fmt.Println("\nBranches:")
	for _, info := range connected.Branches {
		if info.Name == connected.DefaultBranch {
			fmt.Printf("  * %s (default)\n", info.Name)
			continue
		}
		fmt.Printf("    %s\n", info.Name)
	}
}

// AddFlags adds the connect-specific flags to the given Cobra command.
func (it *ConnectController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("method", "pat", "Auth method (pat, oauth)")
	cmd.Flags().String("pat", "", "Personal access token to validate and store")
	cmd.Flags().String("branch", "", "Branch to open (default: the repository's default branch)")
}
