package controllers

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/domain"
)

// LoginController handles the "login" subcommand: the interactive device
// sign-in flow.
type LoginController struct {
	device   *application.DeviceFlowAuthenticator
	prompter domain.Prompter
}

// NewLoginController creates a new LoginController.
func NewLoginController(
	device *application.DeviceFlowAuthenticator,
	prompter domain.Prompter,
) *LoginController {
	return &LoginController{device: device, prompter: prompter}
}

// GetBind returns the Cobra command metadata for the login controller.
func (it *LoginController) GetBind() ControllerBind {
	return ControllerBind{
		Use:   "login",
		Short: "Sign in to GitHub with the device flow",
		Long: `Start the OAuth device authorization flow. A verification page opens
in the browser; enter the printed code there and the command waits until
the provider confirms. The resulting token is stored encrypted and used
for every repository of the provider.

Ctrl-C cancels the flow; nothing is stored in that case.`,
	}
}

// Execute drives the device flow to completion.
func (it *LoginController) Execute(cmd *cobra.Command, _ []string) {
	providerName, _ := cmd.Flags().GetString("provider")
	provider, err := domain.ParseProvider(providerName)
	if err != nil {
		logger.Errorf("Invalid --provider: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := it.device.Run(ctx, provider, it.prompter); err != nil {
		logger.Errorf("Login failed: %v", err)
		return
	}

	green := color.New(color.FgGreen)
	green.Printf("Signed in to %s\n", provider)
}

// AddFlags adds the login-specific flags to the given Cobra command.
func (it *LoginController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "github", "Provider to sign in to")
}
