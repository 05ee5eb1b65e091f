package provider

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/markpeek/remotes/config"
	"github.com/markpeek/remotes/infrastructure/provider/azuredevops"
	"github.com/markpeek/remotes/infrastructure/provider/github"
)

func newRegistry(settings *config.Settings) *Registry {
	registry := NewRegistry()
	registry.Register(github.New(github.Config{Timeout: settings.RequestTimeout()}))
	registry.Register(azuredevops.New(azuredevops.Config{Timeout: settings.RequestTimeout()}))
	return registry
}

func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(newRegistry); err != nil {
		return fmt.Errorf("failed to provide the provider registry: %w", err)
	}
	return nil
}
