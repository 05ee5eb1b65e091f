package controllers

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/domain"
)

// InfoController handles the "info" subcommand.
type InfoController struct {
	connector *application.Connector
}

// NewInfoController creates a new InfoController.
func NewInfoController(connector *application.Connector) *InfoController {
	return &InfoController{connector: connector}
}

// GetBind returns the Cobra command metadata for the info controller.
func (it *InfoController) GetBind() ControllerBind {
	return ControllerBind{
		Use:   "info <url>",
		Short: "List the branches of a repository without connecting it",
		Long: `Query a repository's branches using whatever credential is already
stored or configured. No interactive sign-in is started; when no usable
credential exists the command fails and suggests one.`,
	}
}

// Execute prints the branch list of the repository.
func (it *InfoController) Execute(cmd *cobra.Command, args []string) {
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

	info, err := it.connector.FetchRepositoryInfo(context.Background(), args[0], method)
	if err != nil {
		logger.Errorf("Info failed: %v", err)
		return
	}

	for _, branch := range info.Branches {
		sha := branch.SHA
		if len(sha) > 8 {
			sha = sha[:8]
		}
		if branch.Name == info.DefaultBranch {
			fmt.Printf("* %s  %s (default)\n", branch.Name, sha)
			continue
		}
		fmt.Printf("  %s  %s\n", branch.Name, sha)
	}
}

// AddFlags adds the info-specific flags to the given Cobra command.
func (it *InfoController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("method", "pat", "Auth method (pat, oauth)")
}
