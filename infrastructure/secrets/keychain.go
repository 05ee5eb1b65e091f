package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "markpeek"
	keyringUser    = "credentials-key"
)

// KeychainCipher derives its master key from the OS credential facility
// (Keychain, libsecret, Windows Credential Manager). The key is created on
// first use and cached for the process lifetime; a locked or absent keychain
// surfaces as Available() != nil.
type KeychainCipher struct {
	mu  sync.Mutex
	key []byte
}

func NewKeychainCipher() *KeychainCipher {
	return &KeychainCipher{}
}

func (it *KeychainCipher) Available() error {
	_, err := it.masterKey()
	return err
}

func (it *KeychainCipher) Encrypt(plaintext []byte) ([]byte, error) {
	key, err := it.masterKey()
	if err != nil {
		return nil, err
	}
	return sealWithKey(key, plaintext)
}

func (it *KeychainCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	key, err := it.masterKey()
	if err != nil {
		return nil, err
	}
	return openWithKey(key, ciphertext)
}

// masterKey loads or creates the key in the OS keychain. Success is cached;
// failures are retried on the next call so a keychain unlocked later in the
// session starts working without a restart.
func (it *KeychainCipher) masterKey() ([]byte, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.key != nil {
		return it.key, nil
	}

	key, err := loadOrCreateKeychainKey()
	if err != nil {
		return nil, err
	}
	it.key = key
	return it.key, nil
}

func loadOrCreateKeychainKey() ([]byte, error) {
	stored, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		key, decodeErr := hex.DecodeString(stored)
		if decodeErr != nil || len(key) != masterKeySize {
			return nil, errors.New("the stored master key is malformed")
		}
		return key, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("failed to read the master key from the keychain: %w", err)
	}

	key := make([]byte, masterKeySize)
	if _, randErr := rand.Read(key); randErr != nil {
		return nil, fmt.Errorf("failed to generate a master key: %w", randErr)
	}
	if setErr := keyring.Set(keyringService, keyringUser, hex.EncodeToString(key)); setErr != nil {
		return nil, fmt.Errorf("failed to store the master key in the keychain: %w", setErr)
	}
	return key, nil
}
