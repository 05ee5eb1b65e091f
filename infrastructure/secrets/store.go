package secrets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	logger "github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"github.com/markpeek/remotes/domain"
)

const credentialsBucket = "credentials"

// record is the serialized form of one stored credential. Only the ciphertext
// ever touches disk; expiry metadata stays in the clear so stale entries can
// be purged without decrypting.
type record struct {
	Cipher    []byte     `json:"cipher"`
	Method    string     `json:"method"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	SavedAt   time.Time  `json:"savedAt"`
}

// BoltStore keeps encrypted credentials in a single-file bbolt database.
// Keys are "<scope>/<method>"; scopes are repo keys or provider names, which
// cannot collide because repo keys always contain a ":".
type BoltStore struct {
	db     *bbolt.DB
	cipher Cipher
	now    func() time.Time
}

func NewBoltStore(path string, cipher Cipher) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create the data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open the credential database: %w", err)
	}

	if err = db.Update(func(tx *bbolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists([]byte(credentialsBucket))
		return createErr
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create the credentials bucket: %w", err)
	}

	return &BoltStore{db: db, cipher: cipher, now: time.Now}, nil
}

func (it *BoltStore) Close() error {
	return it.db.Close()
}

func (it *BoltStore) Save(
	scope string, method domain.AuthMethod, token string, expiresAt *time.Time,
) error {
	if availErr := it.cipher.Available(); availErr != nil {
		return domain.NewEncryptionUnavailable(
			"credential encryption is unavailable: " + availErr.Error())
	}

	sealed, err := it.cipher.Encrypt([]byte(token))
	if err != nil {
		return domain.NewEncryptionUnavailable(
			"failed to encrypt the credential: " + err.Error())
	}

	payload, err := json.Marshal(record{
		Cipher:    sealed,
		Method:    string(method),
		ExpiresAt: expiresAt,
		SavedAt:   it.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize the credential record: %w", err)
	}

	err = it.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(credentialsBucket)).Put(storageKey(scope, method), payload)
	})
	if err != nil {
		return fmt.Errorf("failed to persist the credential: %w", err)
	}
	return nil
}

func (it *BoltStore) Get(scope string, method domain.AuthMethod) (string, bool, error) {
	rec, found, err := it.liveRecord(scope, method)
	if err != nil || !found {
		return "", false, err
	}

	plaintext, decryptErr := it.cipher.Decrypt(rec.Cipher)
	if decryptErr != nil {
		logger.Warnf("Purging an undecryptable credential for scope %q", scope)
		return "", false, it.Delete(scope, method)
	}
	return string(plaintext), true, nil
}

func (it *BoltStore) Has(scope string, method domain.AuthMethod) (bool, error) {
	_, found, err := it.liveRecord(scope, method)
	return found, err
}

func (it *BoltStore) Delete(scope string, method domain.AuthMethod) error {
	err := it.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(credentialsBucket)).Delete(storageKey(scope, method))
	})
	if err != nil {
		return fmt.Errorf("failed to delete the credential: %w", err)
	}
	return nil
}

func (it *BoltStore) DeleteAll(scope string) error {
	prefix := []byte(scope + "/")
	err := it.db.Update(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket([]byte(credentialsBucket)).Cursor()
		for key, _ := cursor.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, _ = cursor.Next() {
			if deleteErr := cursor.Delete(); deleteErr != nil {
				return deleteErr
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete the credentials for %q: %w", scope, err)
	}
	return nil
}

func (it *BoltStore) StoreToken(
	provider domain.Provider, token string, expiresAt *time.Time,
) error {
	return it.Save(string(provider), domain.AuthMethodOAuth, token, expiresAt)
}

func (it *BoltStore) GetToken(provider domain.Provider) (string, bool, error) {
	return it.Get(string(provider), domain.AuthMethodOAuth)
}

func (it *BoltStore) DeleteToken(provider domain.Provider) error {
	return it.Delete(string(provider), domain.AuthMethodOAuth)
}

// liveRecord reads a record and purges it when expired or corrupted, so
// callers only ever observe entries that are still usable.
func (it *BoltStore) liveRecord(scope string, method domain.AuthMethod) (record, bool, error) {
	var payload []byte
	err := it.db.View(func(tx *bbolt.Tx) error {
		if value := tx.Bucket([]byte(credentialsBucket)).Get(storageKey(scope, method)); value != nil {
			payload = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return record{}, false, fmt.Errorf("failed to read the credential: %w", err)
	}
	if payload == nil {
		return record{}, false, nil
	}

	var rec record
	if unmarshalErr := json.Unmarshal(payload, &rec); unmarshalErr != nil {
		logger.Warnf("Purging a corrupted credential record for scope %q", scope)
		return record{}, false, it.Delete(scope, method)
	}
	if rec.ExpiresAt != nil && !it.now().Before(*rec.ExpiresAt) {
		logger.Debugf("Purging an expired credential for scope %q", scope)
		return record{}, false, it.Delete(scope, method)
	}
	return rec, true, nil
}

func storageKey(scope string, method domain.AuthMethod) []byte {
	return []byte(scope + "/" + string(method))
}
