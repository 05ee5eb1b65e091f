package domain

import "time"

// CredentialStore persists provider and per-repository tokens encrypted at
// rest. Scopes are repo keys (RepositoryID.RepoKey) or provider names for
// provider-wide tokens; at most one entry exists per (scope, method).
//
// Plaintext tokens never leave the store boundary except as the return value
// of Get/GetToken, handed to the orchestration layer for the duration of a
// single outbound request. Implementations never log token material.
type CredentialStore interface {
	// Save encrypts and persists a token. It fails closed with
	// KindEncryptionUnavailable when the OS credential facility cannot
	// encrypt; nothing is ever stored in plaintext instead.
	Save(scope string, method AuthMethod, token string, expiresAt *time.Time) error

	// Get returns the decrypted token for (scope, method). Entries past
	// their expiry and entries whose ciphertext no longer decrypts are
	// deleted transparently and reported as absent.
	Get(scope string, method AuthMethod) (string, bool, error)

	// Has reports whether a live entry exists for (scope, method).
	Has(scope string, method AuthMethod) (bool, error)

	// Delete removes the entry for (scope, method). Removing an absent
	// entry is not an error.
	Delete(scope string, method AuthMethod) error

	// DeleteAll removes every entry of the scope regardless of method.
	DeleteAll(scope string) error

	// StoreToken persists a provider-wide OAuth token valid across all
	// repositories of that provider.
	StoreToken(provider Provider, token string, expiresAt *time.Time) error

	// GetToken returns the provider-wide OAuth token, if one is stored.
	GetToken(provider Provider) (string, bool, error)

	// DeleteToken removes the provider-wide OAuth token.
	DeleteToken(provider Provider) error
}
