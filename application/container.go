package application

import (
	"fmt"
	"net/http"

	"go.uber.org/dig"

	"github.com/markpeek/remotes/config"
)

func newDeviceFlowConfig(settings *config.Settings) DeviceFlowConfig {
	return DeviceFlowConfig{
		ClientID:   settings.GitHub.OAuthClientID,
		Scopes:     settings.GitHub.Scopes,
		HTTPClient: &http.Client{Timeout: settings.RequestTimeout()},
	}
}

// RegisterProviders registers the application services with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(newDeviceFlowConfig); err != nil {
		return fmt.Errorf("failed to provide the device flow config: %w", err)
	}
	if err := container.Provide(NewDeviceFlowAuthenticator); err != nil {
		return fmt.Errorf("failed to provide the device flow authenticator: %w", err)
	}
	if err := container.Provide(func(impl *DeviceFlowAuthenticator) DeviceAuthorizer {
		return impl
	}); err != nil {
		return fmt.Errorf("failed to bind the device authorizer interface: %w", err)
	}

	if err := container.Provide(NewConnector); err != nil {
		return fmt.Errorf("failed to provide the connector: %w", err)
	}
	if err := container.Provide(NewConnectivityMonitor); err != nil {
		return fmt.Errorf("failed to provide the connectivity monitor: %w", err)
	}

	return nil
}
