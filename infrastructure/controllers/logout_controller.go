package controllers

import (
	"github.com/fatih/color"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/domain"
)

// LogoutController handles the "logout" subcommand.
type LogoutController struct {
	connector *application.Connector
}

// NewLogoutController creates a new LogoutController.
func NewLogoutController(connector *application.Connector) *LogoutController {
	return &LogoutController{connector: connector}
}

// GetBind returns the Cobra command metadata for the logout controller.
func (it *LogoutController) GetBind() ControllerBind {
	return ControllerBind{
		Use:   "logout [repository-id]",
		Short: "Remove stored credentials",
		Long: `Without arguments, delete the provider-wide OAuth token selected by
--provider. With a repository id, delete that repository's stored
credentials instead; --method narrows the deletion to one auth method.`,
	}
}

// Execute removes the selected credentials.
func (it *LogoutController) Execute(cmd *cobra.Command, args []string) {
	green := color.New(color.FgGreen)

	if len(args) > 0 {
		var method domain.AuthMethod
		if methodName, _ := cmd.Flags().GetString("method"); methodName != "" {
			parsed, err := domain.ParseAuthMethod(methodName)
			if err != nil {
				logger.Errorf("Invalid --method: %v", err)
				return
			}
			method = parsed
		}
		if err := it.connector.ForgetCredential(domain.RepositoryID(args[0]), method); err != nil {
			logger.Errorf("Logout failed: %v", err)
			return
		}
		green.Printf("Removed credentials for %s\n", args[0])
		return
	}

	providerName, _ := cmd.Flags().GetString("provider")
	provider, err := domain.ParseProvider(providerName)
	if err != nil {
		logger.Errorf("Invalid --provider: %v", err)
		return
	}
	if err := it.connector.SignOut(provider); err != nil {
		logger.Errorf("Logout failed: %v", err)
		return
	}
	green.Printf("Signed out of %s\n", provider)
}

// AddFlags adds the logout-specific flags to the given Cobra command.
func (it *LogoutController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "github", "Provider whose OAuth token to remove")
	cmd.Flags().String("method", "", "Only remove this auth method of a repository (pat, oauth)")
}
