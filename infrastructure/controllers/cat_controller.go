package controllers

import (
	"context"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/domain"
)

// CatController handles the "cat" subcommand.
type CatController struct {
	connector *application.Connector
}

// NewCatController creates a new CatController.
func NewCatController(connector *application.Connector) *CatController {
	return &CatController{connector: connector}
}

// GetBind returns the Cobra command metadata for the cat controller.
func (it *CatController) GetBind() ControllerBind {
	return ControllerBind{
		Use:   "cat <repository-id> <path>",
		Short: "Print a file from a connected repository branch",
		Long: `Read one file live from the provider and write it to stdout. File
content is never cached, so the output always reflects the current state
of the branch.`,
	}
}

// Execute writes the file content to stdout.
func (it *CatController) Execute(cmd *cobra.Command, args []string) {
	if len(args) < 2 {
		logger.Error("a repository id and a file path are required")
		return
	}

	branch, _ := cmd.Flags().GetString("branch")

	content, err := it.connector.FetchFile(
		context.Background(), domain.RepositoryID(args[0]), branch, args[1])
	if err != nil {
		logger.Errorf("Cat failed: %v", err)
		return
	}

	if _, err := os.Stdout.Write(content.Content); err != nil {
		logger.Errorf("Failed to write the file content: %v", err)
	}
}

// AddFlags adds the cat-specific flags to the given Cobra command.
func (it *CatController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("branch", "", "Branch to read from (default: the branch in the repository id)")
}
