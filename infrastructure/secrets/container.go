package secrets

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/markpeek/remotes/config"
	"github.com/markpeek/remotes/domain"
)

func newCipher(settings *config.Settings) Cipher {
	if settings.Encryption.Backend == "file" {
		return NewFileKeyCipher(settings.KeyFilePath())
	}
	return NewKeychainCipher()
}

func newStore(settings *config.Settings, cipher Cipher) (*BoltStore, error) {
	return NewBoltStore(settings.CredentialsPath(), cipher)
}

func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(newCipher); err != nil {
		return fmt.Errorf("failed to provide the cipher: %w", err)
	}

	if err := container.Provide(newStore); err != nil {
		return fmt.Errorf("failed to provide the credential store: %w", err)
	}

	if err := container.Provide(func(store *BoltStore) domain.CredentialStore {
		return store
	}); err != nil {
		return fmt.Errorf("failed to bind the credential store interface: %w", err)
	}

	return nil
}
