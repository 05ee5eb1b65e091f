package treecache

import (
	"fmt"

	"go.uber.org/dig"
)

func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewCache); err != nil {
		return fmt.Errorf("failed to provide the tree cache: %w", err)
	}
	return nil
}
