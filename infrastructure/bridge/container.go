package bridge

import (
	"fmt"

	"go.uber.org/dig"
)

func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewServer); err != nil {
		return fmt.Errorf("failed to provide the bridge server: %w", err)
	}
	return nil
}
