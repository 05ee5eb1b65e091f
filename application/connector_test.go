package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/config"
	"github.com/markpeek/remotes/domain"
	providerPkg "github.com/markpeek/remotes/infrastructure/provider"
	"github.com/markpeek/remotes/infrastructure/treecache"
	testdoubles "github.com/markpeek/remotes/test"
)

// --- helpers ---

const (
	githubURL = "https://github.com/Acme/Docs"
	azureURL  = "https://dev.azure.com/acme/wiki/_git/handbook"
	githubKey = "github:acme/docs"
)

var githubID = domain.RepositoryID("github:acme/docs#main")

// spyDeviceAuthorizer satisfies application.DeviceAuthorizer. On success it
// stores its token, mirroring what the real authenticator does.
type spyDeviceAuthorizer struct {
	store domain.CredentialStore
	token string
	err   error

	// spy: invocations received
	Calls     int
	Providers []domain.Provider
}

var _ application.DeviceAuthorizer = (*spyDeviceAuthorizer)(nil)

func (s *spyDeviceAuthorizer) Run(
	_ context.Context, provider domain.Provider, _ domain.Prompter,
) error {
	s.Calls++
	s.Providers = append(s.Providers, provider)
	if s.err != nil {
		return s.err
	}
	if s.token != "" {
		return s.store.StoreToken(provider, s.token, nil)
	}
	return nil
}

type connectorFixture struct {
	settings   *config.Settings
	github     *testdoubles.SpyProviderClient
	azure      *testdoubles.SpyProviderClient
	store      *testdoubles.SpyCredentialStore
	cache      *treecache.Cache
	authorizer *spyDeviceAuthorizer
	prompter   *testdoubles.SpyPrompter
	connector  *application.Connector
}

func newConnectorFixture(t *testing.T) *connectorFixture {
	t.Helper()

	github := &testdoubles.SpyProviderClient{
		ProviderName: domain.ProviderGitHub,
		Branches: []domain.BranchInfo{
			{Name: "main", SHA: "aaa111", IsDefault: true},
			{Name: "dev", SHA: "bbb222"},
		},
	}
	azure := &testdoubles.SpyProviderClient{
		ProviderName: domain.ProviderAzureDevOps,
		Branches: []domain.BranchInfo{
			{Name: "main", SHA: "ccc333", IsDefault: true},
		},
	}
	registry := providerPkg.NewRegistry()
	registry.Register(github)
	registry.Register(azure)

	store := &testdoubles.SpyCredentialStore{}
	fixture := &connectorFixture{
		settings:   config.Default(),
		github:     github,
		azure:      azure,
		store:      store,
		cache:      treecache.NewCache(),
		authorizer: &spyDeviceAuthorizer{store: store, token: "gho_device"},
		prompter:   &testdoubles.SpyPrompter{},
	}
	fixture.connector = application.NewConnector(
		fixture.settings, registry, store, fixture.cache, fixture.authorizer, fixture.prompter,
	)
	return fixture
}

func seedRepoPAT(t *testing.T, fixture *connectorFixture) {
	t.Helper()
	require.NoError(t, fixture.store.Save(githubKey, domain.AuthMethodPAT, "ghp_seed", nil))
}

func docsForest() []*domain.TreeNode {
	guide := &domain.TreeNode{Path: "docs/guide.md", Name: "guide.md", Type: domain.NodeTypeFile}
	docs := &domain.TreeNode{
		Path: "docs", Name: "docs", Type: domain.NodeTypeDirectory,
		Children: []*domain.TreeNode{guide},
	}
	readme := &domain.TreeNode{Path: "README.md", Name: "README.md", Type: domain.NodeTypeFile}
	return []*domain.TreeNode{docs, readme}
}

// --- Connect ---

func TestConnector_Connect(t *testing.T) {
	t.Parallel()

	t.Run("should connect with a supplied token and save it", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		connected, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodPAT, "ghp_supplied", "")

		// then
		require.NoError(t, err)
		assert.Equal(t, githubID, connected.RepositoryID)
		assert.Equal(t, "main", connected.CurrentBranch)
		assert.Equal(t, "main", connected.DefaultBranch)
		assert.Len(t, connected.Branches, 2)
		require.Len(t, fixture.github.ListBranchesCreds, 1)
		assert.Equal(t, "ghp_supplied", fixture.github.ListBranchesCreds[0].Token)

		token, found, getErr := fixture.store.Get(githubKey, domain.AuthMethodPAT)
		require.NoError(t, getErr)
		require.True(t, found)
		assert.Equal(t, "ghp_supplied", token)
	})

	t.Run("should connect on an existing requested branch", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		connected, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodPAT, "ghp_supplied", "dev")

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.RepositoryID("github:acme/docs#dev"), connected.RepositoryID)
		assert.Equal(t, "dev", connected.CurrentBranch)
		assert.Equal(t, "main", connected.DefaultBranch)
	})

	t.Run("should fall back to the default branch when the requested one is missing", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		connected, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodPAT, "ghp_supplied", "ghost")

		// then
		require.NoError(t, err)
		assert.Equal(t, githubID, connected.RepositoryID)
		assert.Equal(t, "main", connected.CurrentBranch)
	})

	t.Run("should not save a token that failed validation", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.ListBranchesErr = domain.NewAuthFailed("GitHub rejected the credentials", nil)

		// when
		_, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodPAT, "ghp_bad", "")

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindAuthFailed))
		_, found, getErr := fixture.store.Get(githubKey, domain.AuthMethodPAT)
		require.NoError(t, getErr)
		assert.False(t, found)
	})

	t.Run("should reuse a stored token without saving again", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		seedRepoPAT(t, fixture)

		// when
		connected, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodPAT, "", "")

		// then
		require.NoError(t, err)
		assert.Equal(t, githubID, connected.RepositoryID)
		require.Len(t, fixture.github.ListBranchesCreds, 1)
		assert.Equal(t, "ghp_seed", fixture.github.ListBranchesCreds[0].Token)
		assert.Len(t, fixture.store.SavedScopes, 1) // only the seeding itself
	})

	t.Run("should fail without any token", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		_, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodPAT, "", "")

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindAuthFailed))
		assert.Zero(t, fixture.github.ListBranchesCalls)
	})

	t.Run("should fall back to the configured token without persisting it", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.settings.GitHub.PAT = "ghp_config"

		// when
		connected, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodPAT, "", "")

		// then
		require.NoError(t, err)
		assert.Equal(t, githubID, connected.RepositoryID)
		require.Len(t, fixture.github.ListBranchesCreds, 1)
		assert.Equal(t, "ghp_config", fixture.github.ListBranchesCreds[0].Token)
		_, found, getErr := fixture.store.Get(githubKey, domain.AuthMethodPAT)
		require.NoError(t, getErr)
		assert.False(t, found)
	})

	t.Run("should run the device flow for a first oauth connect", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		connected, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodOAuth, "", "")

		// then
		require.NoError(t, err)
		assert.Equal(t, githubID, connected.RepositoryID)
		assert.Equal(t, 1, fixture.authorizer.Calls)
		assert.Equal(t, []domain.Provider{domain.ProviderGitHub}, fixture.authorizer.Providers)
		require.Len(t, fixture.github.ListBranchesCreds, 1)
		assert.Equal(t, "gho_device", fixture.github.ListBranchesCreds[0].Token)
		assert.Equal(t, domain.AuthMethodOAuth, fixture.github.ListBranchesCreds[0].Method)
	})

	t.Run("should skip the device flow when a token is cached", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		require.NoError(t, fixture.store.StoreToken(domain.ProviderGitHub, "gho_cached", nil))

		// when
		_, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodOAuth, "", "")

		// then
		require.NoError(t, err)
		assert.Zero(t, fixture.authorizer.Calls)
		require.Len(t, fixture.github.ListBranchesCreds, 1)
		assert.Equal(t, "gho_cached", fixture.github.ListBranchesCreds[0].Token)
	})

	t.Run("should reject OAuth for azure devops", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		_, err := fixture.connector.Connect(
			context.Background(), azureURL, domain.AuthMethodOAuth, "", "")

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindUnsupportedProvider))
		assert.Zero(t, fixture.authorizer.Calls)
		assert.Zero(t, fixture.azure.ListBranchesCalls)
	})

	t.Run("should propagate a cancelled device flow", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.authorizer.token = ""
		fixture.authorizer.err = domain.NewCancelled(nil)

		// when
		_, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodOAuth, "", "")

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindCancelled))
		assert.Zero(t, fixture.github.ListBranchesCalls)
	})

	t.Run("should reject an unknown host", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		_, err := fixture.connector.Connect(
			context.Background(), "https://gitlab.com/acme/docs", domain.AuthMethodPAT, "x", "")

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidURL))
	})

	t.Run("should reject a repository with no branches", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Branches = nil

		// when
		_, err := fixture.connector.Connect(
			context.Background(), githubURL, domain.AuthMethodPAT, "ghp_supplied", "")

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindRepositoryNotFound))
	})
}

// --- FetchRepositoryInfo ---

func TestConnector_FetchRepositoryInfo(t *testing.T) {
	t.Parallel()

	t.Run("should list branches with a stored repository token", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		seedRepoPAT(t, fixture)

		// when
		info, err := fixture.connector.FetchRepositoryInfo(
			context.Background(), githubURL, domain.AuthMethodPAT)

		// then
		require.NoError(t, err)
		assert.Equal(t, "main", info.DefaultBranch)
		assert.Len(t, info.Branches, 2)
	})

	t.Run("should fail fast when not signed in", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		_, err := fixture.connector.FetchRepositoryInfo(
			context.Background(), githubURL, domain.AuthMethodOAuth)

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindAuthFailed))
		assert.Zero(t, fixture.authorizer.Calls)
		assert.Zero(t, fixture.github.ListBranchesCalls)
	})

	t.Run("should use the configured token", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.settings.AzureDevOps.PAT = "az_config"

		// when
		info, err := fixture.connector.FetchRepositoryInfo(
			context.Background(), azureURL, domain.AuthMethodPAT)

		// then
		require.NoError(t, err)
		assert.Equal(t, "main", info.DefaultBranch)
		require.Len(t, fixture.azure.ListBranchesCreds, 1)
		assert.Equal(t, "az_config", fixture.azure.ListBranchesCreds[0].Token)
	})

	t.Run("should return branches in presentation order", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		seedRepoPAT(t, fixture)
		fixture.github.Branches = []domain.BranchInfo{
			{Name: "dev", SHA: "d1"},
			{Name: "release/2.0.0", SHA: "r2"},
			{Name: "main", SHA: "m1", IsDefault: true},
			{Name: "release/10.0.0", SHA: "r10"},
		}

		// when
		info, err := fixture.connector.FetchRepositoryInfo(
			context.Background(), githubURL, domain.AuthMethodPAT)

		// then
		require.NoError(t, err)
		names := make([]string, 0, len(info.Branches))
		for _, branch := range info.Branches {
			names = append(names, branch.Name)
		}
		assert.Equal(t, []string{"main", "release/10.0.0", "release/2.0.0", "dev"}, names)
	})
}

// --- FetchTree ---

func TestConnector_FetchTree(t *testing.T) {
	t.Parallel()

	t.Run("should fetch on a miss and serve from the cache after", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Nodes = docsForest()
		seedRepoPAT(t, fixture)

		// when
		first, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)

		// then
		require.NoError(t, err)
		assert.False(t, first.FromCache)
		assert.Equal(t, []string{"main"}, fixture.github.FetchTreeBranches)

		second, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)
		require.NoError(t, err)
		assert.True(t, second.FromCache)
		assert.Equal(t, first.Nodes, second.Nodes)
		assert.Equal(t, first.FetchedAt, second.FetchedAt)
		assert.Equal(t, 1, fixture.github.FetchTreeCalls)
	})

	t.Run("should keep branches in separate cache entries", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Nodes = docsForest()
		seedRepoPAT(t, fixture)

		// when
		_, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)
		require.NoError(t, err)
		_, err = fixture.connector.FetchTree(context.Background(), githubID, "dev", false)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, fixture.github.FetchTreeCalls)
		assert.Equal(t, []string{"main", "dev"}, fixture.github.FetchTreeBranches)
	})

	t.Run("should keep filtered and unfiltered snapshots apart", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Nodes = docsForest()
		seedRepoPAT(t, fixture)

		// when
		_, err := fixture.connector.FetchTree(context.Background(), githubID, "", true)
		require.NoError(t, err)
		_, err = fixture.connector.FetchTree(context.Background(), githubID, "", false)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, fixture.github.FetchTreeCalls)
	})

	t.Run("should prefer the repository token over the oauth token", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Nodes = docsForest()
		seedRepoPAT(t, fixture)
		require.NoError(t, fixture.store.StoreToken(domain.ProviderGitHub, "gho_provider", nil))

		// when
		_, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)

		// then
		require.NoError(t, err)
		require.Len(t, fixture.github.FetchTreeCreds, 1)
		assert.Equal(t, domain.AuthMethodPAT, fixture.github.FetchTreeCreds[0].Method)
		assert.Equal(t, "ghp_seed", fixture.github.FetchTreeCreds[0].Token)
	})

	t.Run("should use the oauth token when no repository token exists", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Nodes = docsForest()
		require.NoError(t, fixture.store.StoreToken(domain.ProviderGitHub, "gho_provider", nil))

		// when
		_, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)

		// then
		require.NoError(t, err)
		require.Len(t, fixture.github.FetchTreeCreds, 1)
		assert.Equal(t, domain.AuthMethodOAuth, fixture.github.FetchTreeCreds[0].Method)
		assert.Equal(t, "gho_provider", fixture.github.FetchTreeCreds[0].Token)
	})

	t.Run("should fail when no credential exists", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		_, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindAuthFailed))
		assert.Zero(t, fixture.github.FetchTreeCalls)
	})

	t.Run("should refetch both filter variants on a refresh", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Nodes = docsForest()
		seedRepoPAT(t, fixture)
		_, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)
		require.NoError(t, err)
		_, err = fixture.connector.FetchTree(context.Background(), githubID, "", true)
		require.NoError(t, err)

		// when
		result, err := fixture.connector.RefreshTree(context.Background(), githubID, "", false)

		// then
		require.NoError(t, err)
		assert.False(t, result.FromCache)
		assert.Equal(t, 3, fixture.github.FetchTreeCalls)

		// the filtered snapshot of the same branch was dropped too
		_, ok := fixture.connector.CachedTree(githubID, "", true)
		assert.False(t, ok)
	})

	t.Run("should not cache failed fetches", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		seedRepoPAT(t, fixture)
		fixture.github.FetchTreeErr = domain.NewNetworkUnreachable(
			"could not reach GitHub", errors.New("dial tcp: connection refused"))

		// when
		_, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindNetworkUnreachable))

		// the next call fetches again instead of serving the failure
		fixture.github.FetchTreeErr = nil
		fixture.github.Nodes = docsForest()
		result, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)
		require.NoError(t, err)
		assert.False(t, result.FromCache)
		assert.Equal(t, 2, fixture.github.FetchTreeCalls)
	})

	t.Run("should reject malformed identities", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		_, err := fixture.connector.FetchTree(context.Background(), "garbage", "", false)

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidURL))
	})
}

// --- CachedTree ---

func TestConnector_CachedTree(t *testing.T) {
	t.Parallel()

	t.Run("should miss before any fetch", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		result, ok := fixture.connector.CachedTree(githubID, "", false)

		// then
		assert.False(t, ok)
		assert.Nil(t, result)
	})

	t.Run("should hit after a fetch", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Nodes = docsForest()
		seedRepoPAT(t, fixture)
		fetched, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)
		require.NoError(t, err)

		// when
		result, ok := fixture.connector.CachedTree(githubID, "", false)

		// then
		require.True(t, ok)
		assert.True(t, result.FromCache)
		assert.Equal(t, fetched.Nodes, result.Nodes)

		// an explicit branch resolves to the same entry
		result, ok = fixture.connector.CachedTree(githubID, "main", false)
		require.True(t, ok)
		assert.Equal(t, fetched.Nodes, result.Nodes)
	})

	t.Run("should keep the filter flag in the key", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Nodes = docsForest()
		seedRepoPAT(t, fixture)
		_, err := fixture.connector.FetchTree(context.Background(), githubID, "", true)
		require.NoError(t, err)

		// when / then
		_, ok := fixture.connector.CachedTree(githubID, "", false)
		assert.False(t, ok)
		_, ok = fixture.connector.CachedTree(githubID, "", true)
		assert.True(t, ok)
	})
}

// --- FetchFile ---

func TestConnector_FetchFile(t *testing.T) {
	t.Parallel()

	t.Run("should fetch content live on every call", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		seedRepoPAT(t, fixture)
		fixture.github.FileContents = map[string]*domain.FileContent{
			"docs/guide.md": {Path: "docs/guide.md", Content: []byte("# Guide"), SHA: "abc123"},
		}

		// when
		content, err := fixture.connector.FetchFile(
			context.Background(), githubID, "", "docs/guide.md")

		// then
		require.NoError(t, err)
		assert.Equal(t, "# Guide", string(content.Content))
		assert.Equal(t, "abc123", content.SHA)

		_, err = fixture.connector.FetchFile(context.Background(), githubID, "", "docs/guide.md")
		require.NoError(t, err)
		assert.Len(t, fixture.github.FetchFilePaths, 2)
	})

	t.Run("should report missing paths", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		seedRepoPAT(t, fixture)

		// when
		_, err := fixture.connector.FetchFile(context.Background(), githubID, "", "nope.md")

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindRepositoryNotFound))
	})

	t.Run("should reject malformed identities", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		_, err := fixture.connector.FetchFile(context.Background(), "garbage", "", "README.md")

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidURL))
	})
}

// --- Disconnect / SignOut / ForgetCredential ---

func TestConnector_Disconnect(t *testing.T) {
	t.Parallel()

	t.Run("should remove credentials and cached trees but keep the provider token", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		fixture.github.Nodes = docsForest()
		seedRepoPAT(t, fixture)
		require.NoError(t, fixture.store.StoreToken(domain.ProviderGitHub, "gho_provider", nil))
		_, err := fixture.connector.FetchTree(context.Background(), githubID, "", false)
		require.NoError(t, err)
		_, err = fixture.connector.FetchTree(context.Background(), githubID, "", true)
		require.NoError(t, err)

		// when
		err = fixture.connector.Disconnect(githubID)

		// then
		require.NoError(t, err)
		_, found, getErr := fixture.store.Get(githubKey, domain.AuthMethodPAT)
		require.NoError(t, getErr)
		assert.False(t, found)

		_, found, getErr = fixture.store.GetToken(domain.ProviderGitHub)
		require.NoError(t, getErr)
		assert.True(t, found)

		_, ok := fixture.connector.CachedTree(githubID, "", false)
		assert.False(t, ok)
		_, ok = fixture.connector.CachedTree(githubID, "", true)
		assert.False(t, ok)
	})

	t.Run("should reject malformed identities", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)

		// when
		err := fixture.connector.Disconnect("garbage")

		// then
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidURL))
	})
}

func TestConnector_SignOut(t *testing.T) {
	t.Parallel()

	t.Run("should delete only the provider token", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		seedRepoPAT(t, fixture)
		require.NoError(t, fixture.store.StoreToken(domain.ProviderGitHub, "gho_provider", nil))

		// when
		err := fixture.connector.SignOut(domain.ProviderGitHub)

		// then
		require.NoError(t, err)
		_, found, getErr := fixture.store.GetToken(domain.ProviderGitHub)
		require.NoError(t, getErr)
		assert.False(t, found)

		token, found, getErr := fixture.store.Get(githubKey, domain.AuthMethodPAT)
		require.NoError(t, getErr)
		require.True(t, found)
		assert.Equal(t, "ghp_seed", token)
	})
}

func TestConnector_ForgetCredential(t *testing.T) {
	t.Parallel()

	t.Run("should remove a single method", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		seedRepoPAT(t, fixture)

		// when
		err := fixture.connector.ForgetCredential(githubID, domain.AuthMethodPAT)

		// then
		require.NoError(t, err)
		_, found, getErr := fixture.store.Get(githubKey, domain.AuthMethodPAT)
		require.NoError(t, getErr)
		assert.False(t, found)
	})

	t.Run("should remove every method when none is given", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newConnectorFixture(t)
		seedRepoPAT(t, fixture)
		require.NoError(t, fixture.store.Save(githubKey, domain.AuthMethodOAuth, "gho_repo", nil))
		require.NoError(t, fixture.store.StoreToken(domain.ProviderGitHub, "gho_provider", nil))

		// when
		err := fixture.connector.ForgetCredential(githubID, "")

		// then
		require.NoError(t, err)
		_, foundPAT, _ := fixture.store.Get(githubKey, domain.AuthMethodPAT)
		assert.False(t, foundPAT)
		_, foundOAuth, _ := fixture.store.Get(githubKey, domain.AuthMethodOAuth)
		assert.False(t, foundOAuth)
		_, foundProvider, _ := fixture.store.GetToken(domain.ProviderGitHub)
		assert.True(t, foundProvider)
	})
}
