// Package testdoubles provides test doubles (spies, stubs, dummies) for domain
// interfaces. These are hand-crafted implementations, no mock frameworks.
package testdoubles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/markpeek/remotes/domain"
)

// ---------------------------------------------------------------------------
// SpyProviderClient
// ---------------------------------------------------------------------------

// SpyProviderClient implements domain.ProviderClient as a configurable spy.
// Configure the response fields for the methods your test exercises,
// then inspect the call-tracking fields to verify behavior.
type SpyProviderClient struct {
	// --- identity ---
	ProviderName domain.Provider

	// --- ListBranches ---
	Branches        []domain.BranchInfo
	ListBranchesErr error
	// spy: credentials received per call
	ListBranchesCreds []domain.Credential
	ListBranchesCalls int

	// --- FetchTree ---
	Nodes        []*domain.TreeNode
	FetchTreeErr error
	// spy: branches requested and credentials received per call
	FetchTreeBranches []string
	FetchTreeCreds    []domain.Credential
	FetchTreeCalls    int

	// --- FetchFile ---
	FileContents map[string]*domain.FileContent // path -> content
	FetchFileErr error
	// spy: paths requested
	FetchFilePaths []string

	// --- CheckConnectivity ---
	ConnectivityErr   error
	ConnectivityCalls int
}

var _ domain.ProviderClient = (*SpyProviderClient)(nil)

func (p *SpyProviderClient) Name() domain.Provider { return p.ProviderName }

func (p *SpyProviderClient) ListBranches(
	_ context.Context, _ domain.Repository, credential domain.Credential,
) ([]domain.BranchInfo, error) {
	p.ListBranchesCalls++
	p.ListBranchesCreds = append(p.ListBranchesCreds, credential)
	return p.Branches, p.ListBranchesErr
}

func (p *SpyProviderClient) FetchTree(
	_ context.Context, _ domain.Repository, branch string, credential domain.Credential, _ bool,
) ([]*domain.TreeNode, error) {
	p.FetchTreeCalls++
	p.FetchTreeBranches = append(p.FetchTreeBranches, branch)
	p.FetchTreeCreds = append(p.FetchTreeCreds, credential)
	return p.Nodes, p.FetchTreeErr
}

func (p *SpyProviderClient) FetchFile(
	_ context.Context, _ domain.Repository, _ string, path string, _ domain.Credential,
) (*domain.FileContent, error) {
	p.FetchFilePaths = append(p.FetchFilePaths, path)
	if p.FetchFileErr != nil {
		return nil, p.FetchFileErr
	}
	if p.FileContents != nil {
		if content, ok := p.FileContents[path]; ok {
			return content, nil
		}
	}
	return nil, domain.NewRepositoryNotFound(fmt.Sprintf("file not found: %s", path), nil)
}

func (p *SpyProviderClient) CheckConnectivity(_ context.Context) error {
	p.ConnectivityCalls++
	return p.ConnectivityErr
}

// DummyProviderClient is a no-op implementation of domain.ProviderClient.
type DummyProviderClient struct {
	ProviderName domain.Provider
}

var _ domain.ProviderClient = (*DummyProviderClient)(nil)

func (d *DummyProviderClient) Name() domain.Provider { return d.ProviderName }

func (d *DummyProviderClient) ListBranches(
	_ context.Context, _ domain.Repository, _ domain.Credential,
) ([]domain.BranchInfo, error) {
	return nil, nil
}

func (d *DummyProviderClient) FetchTree(
	_ context.Context, _ domain.Repository, _ string, _ domain.Credential, _ bool,
) ([]*domain.TreeNode, error) {
	return nil, nil
}

func (d *DummyProviderClient) FetchFile(
	_ context.Context, _ domain.Repository, _ string, _ string, _ domain.Credential,
) (*domain.FileContent, error) {
	return nil, nil //nolint:nilnil // dummy no-op
}

func (d *DummyProviderClient) CheckConnectivity(_ context.Context) error { return nil }

// ---------------------------------------------------------------------------
// SpyCredentialStore
// ---------------------------------------------------------------------------

// SpyCredentialStore implements domain.CredentialStore in memory. Tokens are
// kept as-is; expiry is honored so tests can exercise stale-entry behavior.
type SpyCredentialStore struct {
	SaveErr error
	GetErr  error

	// spy: scopes passed to Save and Delete/DeleteAll
	SavedScopes   []string
	DeletedScopes []string

	Now func() time.Time

	entries map[string]spyStoredEntry
}

type spyStoredEntry struct {
	token     string
	expiresAt *time.Time
}

var _ domain.CredentialStore = (*SpyCredentialStore)(nil)

func (s *SpyCredentialStore) Save(
	scope string, method domain.AuthMethod, token string, expiresAt *time.Time,
) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if s.entries == nil {
		s.entries = make(map[string]spyStoredEntry)
	}
	s.SavedScopes = append(s.SavedScopes, scope)
	s.entries[scope+"/"+string(method)] = spyStoredEntry{token: token, expiresAt: expiresAt}
	return nil
}

func (s *SpyCredentialStore) Get(scope string, method domain.AuthMethod) (string, bool, error) {
	if s.GetErr != nil {
		return "", false, s.GetErr
	}
	entry, ok := s.entries[scope+"/"+string(method)]
	if !ok {
		return "", false, nil
	}
	if entry.expiresAt != nil && !s.now().Before(*entry.expiresAt) {
		delete(s.entries, scope+"/"+string(method))
		return "", false, nil
	}
	return entry.token, true, nil
}

func (s *SpyCredentialStore) Has(scope string, method domain.AuthMethod) (bool, error) {
	_, found, err := s.Get(scope, method)
	return found, err
}

func (s *SpyCredentialStore) Delete(scope string, method domain.AuthMethod) error {
	s.DeletedScopes = append(s.DeletedScopes, scope)
	delete(s.entries, scope+"/"+string(method))
	return nil
}

func (s *SpyCredentialStore) DeleteAll(scope string) error {
	s.DeletedScopes = append(s.DeletedScopes, scope)
	for key := range s.entries {
		if strings.HasPrefix(key, scope+"/") {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *SpyCredentialStore) StoreToken(
	provider domain.Provider, token string, expiresAt *time.Time,
) error {
	return s.Save(string(provider), domain.AuthMethodOAuth, token, expiresAt)
}

func (s *SpyCredentialStore) GetToken(provider domain.Provider) (string, bool, error) {
	return s.Get(string(provider), domain.AuthMethodOAuth)
}

func (s *SpyCredentialStore) DeleteToken(provider domain.Provider) error {
	return s.Delete(string(provider), domain.AuthMethodOAuth)
}

func (s *SpyCredentialStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ---------------------------------------------------------------------------
// SpyPrompter
// ---------------------------------------------------------------------------

// SpyPrompter records every device-authorization prompt it receives.
type SpyPrompter struct {
	// spy: sessions shown to the user
	Sessions []domain.DeviceFlowSession
}

var _ domain.Prompter = (*SpyPrompter)(nil)

func (p *SpyPrompter) PromptDeviceAuthorization(session domain.DeviceFlowSession) {
	p.Sessions = append(p.Sessions, session)
}
