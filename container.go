package remotes

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/config"
	"github.com/markpeek/remotes/infrastructure/bridge"
	"github.com/markpeek/remotes/infrastructure/controllers"
	"github.com/markpeek/remotes/infrastructure/provider"
	"github.com/markpeek/remotes/infrastructure/secrets"
	"github.com/markpeek/remotes/infrastructure/treecache"
)

// AppContext exposes the fully wired application to the entrypoint.
type AppContext struct {
	controllers *[]controllers.Controller
}

// NewAppContext creates the app context from the aggregated controllers.
func NewAppContext(controllers *[]controllers.Controller) *AppContext {
	return &AppContext{controllers: controllers}
}

// GetControllers returns all CLI controllers.
func (it *AppContext) GetControllers() []controllers.Controller {
	return *it.controllers
}

// RegisterProviders registers all providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register all layers (bottom-up: config -> infrastructure -> application -> controllers)
	if err := config.RegisterProviders(container); err != nil {
		return err
	}
	if err := secrets.RegisterProviders(container); err != nil {
		return err
	}
	if err := provider.RegisterProviders(container); err != nil {
		return err
	}
	if err := treecache.RegisterProviders(container); err != nil {
		return err
	}
	if err := application.RegisterProviders(container); err != nil {
		return err
	}
	if err := bridge.RegisterProviders(container); err != nil {
		return err
	}
	if err := controllers.RegisterProviders(container); err != nil {
		return err
	}

	// Register the main app context
	if err := container.Provide(NewAppContext); err != nil {
		return fmt.Errorf("failed to provide the app context: %w", err)
	}

	return nil
}
