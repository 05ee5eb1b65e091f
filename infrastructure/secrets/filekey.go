package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileKeyCipher derives its master key from a hex-encoded key file. It exists
// for headless environments without a keychain; the file is created with mode
// 0600 on first use.
type FileKeyCipher struct {
	path string
	mu   sync.Mutex
	key  []byte
}

func NewFileKeyCipher(path string) *FileKeyCipher {
	return &FileKeyCipher{path: path}
}

func (it *FileKeyCipher) Available() error {
	_, err := it.masterKey()
	return err
}

func (it *FileKeyCipher) Encrypt(plaintext []byte) ([]byte, error) {
	key, err := it.masterKey()
	if err != nil {
		return nil, err
	}
	return sealWithKey(key, plaintext)
}

func (it *FileKeyCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	key, err := it.masterKey()
	if err != nil {
		return nil, err
	}
	return openWithKey(key, ciphertext)
}

func (it *FileKeyCipher) masterKey() ([]byte, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.key != nil {
		return it.key, nil
	}

	data, err := os.ReadFile(it.path)
	if err == nil {
		key, decodeErr := hex.DecodeString(strings.TrimSpace(string(data)))
		if decodeErr != nil || len(key) != masterKeySize {
			return nil, fmt.Errorf("the key file %q is malformed", it.path)
		}
		it.key = key
		return it.key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read the key file: %w", err)
	}

	key := make([]byte, masterKeySize)
	if _, randErr := rand.Read(key); randErr != nil {
		return nil, fmt.Errorf("failed to generate a master key: %w", randErr)
	}
	if mkdirErr := os.MkdirAll(filepath.Dir(it.path), 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("failed to create the key directory: %w", mkdirErr)
	}
	if writeErr := os.WriteFile(it.path, []byte(hex.EncodeToString(key)), 0o600); writeErr != nil {
		return nil, fmt.Errorf("failed to write the key file: %w", writeErr)
	}

	it.key = key
	return it.key, nil
}
