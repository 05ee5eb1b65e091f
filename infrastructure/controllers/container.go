package controllers

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/markpeek/remotes/domain"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewColorPrompter); err != nil {
		return fmt.Errorf("failed to provide the prompter: %w", err)
	}
	if err := container.Provide(func(prompter *ColorPrompter) domain.Prompter {
		return prompter
	}); err != nil {
		return fmt.Errorf("failed to bind the prompter interface: %w", err)
	}

	constructors := []any{
		NewServeController,
		NewConnectController,
		NewInfoController,
		NewTreeController,
		NewCatController,
		NewLoginController,
		NewLogoutController,
		NewCheckController,
		NewControllers,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return fmt.Errorf("failed to provide a controller: %w", err)
		}
	}
	return nil
}

// NewControllers aggregates all controllers into a slice for the app context.
func NewControllers(
	serve *ServeController,
	connect *ConnectController,
	info *InfoController,
	tree *TreeController,
	cat *CatController,
	login *LoginController,
	logout *LogoutController,
	check *CheckController,
) *[]Controller {
	return &[]Controller{
		serve,
		connect,
		info,
		tree,
		cat,
		login,
		logout,
		check,
	}
}
