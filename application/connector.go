package application

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/markpeek/remotes/config"
	"github.com/markpeek/remotes/domain"
	providerPkg "github.com/markpeek/remotes/infrastructure/provider"
	"github.com/markpeek/remotes/infrastructure/treecache"
)

// DeviceAuthorizer runs an interactive OAuth device authorization to
// completion. Satisfied by *DeviceFlowAuthenticator.
type DeviceAuthorizer interface {
	Run(ctx context.Context, provider domain.Provider, prompter domain.Prompter) error
}

// TreeResult is a tree snapshot together with its provenance, so callers
// can tell a cached answer from a fresh one.
type TreeResult struct {
	Nodes     []*domain.TreeNode
	FetchedAt time.Time
	FromCache bool
}

// Connector orchestrates the full repository lifecycle: connect, branch
// discovery, tree and file fetches, and the credential resolution behind
// them. It owns no state of its own; everything lives in the injected
// store, cache, and session registry.
type Connector struct {
	settings *config.Settings
	registry *providerPkg.Registry
	store    domain.CredentialStore
	cache    *treecache.Cache
	device   DeviceAuthorizer
	prompter domain.Prompter
}

// NewConnector creates a connector over the given collaborators.
func NewConnector(
	settings *config.Settings,
	registry *providerPkg.Registry,
	store domain.CredentialStore,
	cache *treecache.Cache,
	device DeviceAuthorizer,
	prompter domain.Prompter,
) *Connector {
	return &Connector{
		settings: settings,
		registry: registry,
		store:    store,
		cache:    cache,
		device:   device,
		prompter: prompter,
	}
}

// Connect resolves a repository URL, ensures a usable credential, and lists
// its branches. The connection lands on initialBranch when it exists, else
// on the provider's default branch. No tree is fetched here; the first tree
// request pays that cost, which keeps connect latency low.
func (c *Connector) Connect(
	ctx context.Context,
	rawURL string,
	method domain.AuthMethod,
	patToken string,
	initialBranch string,
) (*domain.ConnectedRepository, error) {
	repo, err := domain.ResolveURL(rawURL)
	if err != nil {
		return nil, err
	}
	client, err := c.registry.Get(repo.Provider)
	if err != nil {
		return nil, err
	}

	cred, err := c.connectCredential(ctx, repo, method, patToken)
	if err != nil {
		return nil, err
	}

	branches, err := client.ListBranches(ctx, repo, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches of %s: %w", domain.DisplayName(repo), err)
	}
	if len(branches) == 0 {
		return nil, domain.NewRepositoryNotFound(
			fmt.Sprintf("%s has no branches", domain.DisplayName(repo)), nil,
		)
	}

	// The credential just proved itself against the provider; remember an
	// explicitly supplied PAT for later operations on this repository.
	if method == domain.AuthMethodPAT && patToken != "" {
		saveErr := c.store.Save(domain.RepoKeyFor(repo), domain.AuthMethodPAT, patToken, nil)
		if saveErr != nil {
			return nil, fmt.Errorf("failed to save the personal access token: %w", saveErr)
		}
	}

	domain.SortBranches(branches)
	defaultBranch := defaultBranchOf(branches)
	current := initialBranch
	if current != "" && !domain.HasBranch(branches, current) {
		logger.Warnf("branch %q does not exist in %s, connecting on %q instead",
			current, domain.DisplayName(repo), defaultBranch)
		current = ""
	}
	if current == "" {
		current = defaultBranch
	}

	connected := &domain.ConnectedRepository{
		RepositoryID:  domain.IdentityFor(repo, current),
		Repository:    repo,
		CurrentBranch: current,
		DefaultBranch: defaultBranch,
		Branches:      branches,
	}
	logger.Infof("connected %s on branch %q", domain.DisplayName(repo), current)
	return connected, nil
}

// FetchRepositoryInfo lists the branches of a repository before it is
// connected, so the UI can offer a branch picker. It only uses credentials
// already at hand and never starts an interactive authorization; callers
// seeing auth_failed run the device flow themselves and retry.
func (c *Connector) FetchRepositoryInfo(
	ctx context.Context,
	rawURL string,
	method domain.AuthMethod,
) (*domain.RepositoryInfo, error) {
	repo, err := domain.ResolveURL(rawURL)
	if err != nil {
		return nil, err
	}
	client, err := c.registry.Get(repo.Provider)
	if err != nil {
		return nil, err
	}

	cred, err := c.passiveCredential(repo, method)
	if err != nil {
		return nil, err
	}

	branches, err := client.ListBranches(ctx, repo, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches of %s: %w", domain.DisplayName(repo), err)
	}
	domain.SortBranches(branches)
	return &domain.RepositoryInfo{
		Branches:      branches,
		DefaultBranch: defaultBranchOf(branches),
	}, nil
}

// FetchTree returns the file tree of a branch, cache-first. An empty branch
// means the branch baked into the identity. Concurrent misses for the same
// key coalesce into a single provider call.
func (c *Connector) FetchTree(
	ctx context.Context,
	id domain.RepositoryID,
	branch string,
	markdownOnly bool,
) (*TreeResult, error) {
	repo, idBranch, err := domain.ParseRepositoryID(id)
	if err != nil {
		return nil, domain.NewInvalidURL(err.Error())
	}
	if branch == "" {
		branch = idBranch
	}

	client, err := c.registry.Get(repo.Provider)
	if err != nil {
		return nil, err
	}
	cred, err := c.operationCredential(repo)
	if err != nil {
		return nil, err
	}

	key := treecache.Key{RepoKey: id.RepoKey(), Branch: branch, MarkdownOnly: markdownOnly}
	entry, fromCache, err := c.cache.FetchThrough(ctx, key,
		func(fetchCtx context.Context) ([]*domain.TreeNode, error) {
			return client.FetchTree(fetchCtx, repo, branch, cred, markdownOnly)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the tree of %s@%s: %w",
			domain.DisplayName(repo), branch, err)
	}

	logger.Debugf("tree of %s@%s served (cached=%t, files=%d)",
		domain.DisplayName(repo), branch, fromCache, domain.CountFiles(entry.Nodes))
	return &TreeResult{Nodes: entry.Nodes, FetchedAt: entry.FetchedAt, FromCache: fromCache}, nil
}

// RefreshTree drops the cached snapshots of a branch, filtered and
// unfiltered alike, and fetches a fresh tree. An empty branch refreshes
// the branch baked into the identity.
func (c *Connector) RefreshTree(
	ctx context.Context,
	id domain.RepositoryID,
	branch string,
	markdownOnly bool,
) (*TreeResult, error) {
	repo, idBranch, err := domain.ParseRepositoryID(id)
	if err != nil {
		return nil, domain.NewInvalidURL(err.Error())
	}
	if branch == "" {
		branch = idBranch
	}
	c.cache.Invalidate(domain.RepoKeyFor(repo), branch)
	return c.FetchTree(ctx, id, branch, markdownOnly)
}

// CachedTree returns the cached tree of a branch without touching the
// network. A miss is an ordinary answer, not an error; the caller decides
// whether to follow up with FetchTree.
func (c *Connector) CachedTree(
	id domain.RepositoryID,
	branch string,
	markdownOnly bool,
) (*TreeResult, bool) {
	if branch == "" {
		branch = id.Branch()
	}
	key := treecache.Key{RepoKey: id.RepoKey(), Branch: branch, MarkdownOnly: markdownOnly}
	entry, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return &TreeResult{Nodes: entry.Nodes, FetchedAt: entry.FetchedAt, FromCache: true}, true
}

// FetchFile reads one file live from a branch. File content is never
// cached: the viewer always renders what the provider holds right now.
func (c *Connector) FetchFile(
	ctx context.Context,
	id domain.RepositoryID,
	branch string,
	path string,
) (*domain.FileContent, error) {
	repo, idBranch, err := domain.ParseRepositoryID(id)
	if err != nil {
		return nil, domain.NewInvalidURL(err.Error())
	}
	if branch == "" {
		branch = idBranch
	}

	client, err := c.registry.Get(repo.Provider)
	if err != nil {
		return nil, err
	}
	cred, err := c.operationCredential(repo)
	if err != nil {
		return nil, err
	}

	content, err := client.FetchFile(ctx, repo, branch, path, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %q from %s@%s: %w",
			path, domain.DisplayName(repo), branch, err)
	}
	return content, nil
}

// Disconnect forgets a repository: its stored credentials and every cached
// branch tree. A provider-wide OAuth sign-in survives, because other
// repositories may share it.
func (c *Connector) Disconnect(id domain.RepositoryID) error {
	repo, _, err := domain.ParseRepositoryID(id)
	if err != nil {
		return domain.NewInvalidURL(err.Error())
	}

	repoKey := id.RepoKey()
	if err := c.store.DeleteAll(repoKey); err != nil {
		return fmt.Errorf("failed to delete the stored credentials: %w", err)
	}
	c.cache.Invalidate(repoKey, "")
	logger.Infof("disconnected %s", domain.DisplayName(repo))
	return nil
}

// ForgetCredential removes a single stored credential of a repository, or
// all of them when no method is given. Cached trees stay readable.
func (c *Connector) ForgetCredential(id domain.RepositoryID, method domain.AuthMethod) error {
	if _, _, err := domain.ParseRepositoryID(id); err != nil {
		return domain.NewInvalidURL(err.Error())
	}
	if method == "" {
		if err := c.store.DeleteAll(id.RepoKey()); err != nil {
			return fmt.Errorf("failed to delete the stored credentials: %w", err)
		}
		return nil
	}
	if err := c.store.Delete(id.RepoKey(), method); err != nil {
		return fmt.Errorf("failed to delete the stored credential: %w", err)
	}
	return nil
}

// SignOut deletes the provider-wide OAuth token. Per-repository tokens and
// cached trees are untouched.
func (c *Connector) SignOut(provider domain.Provider) error {
	if err := c.store.DeleteToken(provider); err != nil {
		return fmt.Errorf("failed to delete the OAuth token: %w", err)
	}
	logger.Infof("signed out of %s", provider)
	return nil
}

// connectCredential resolves the credential for an initial connect. PAT
// connects never trigger the device flow; OAuth connects run it only when
// no stored token exists.
func (c *Connector) connectCredential(
	ctx context.Context,
	repo domain.Repository,
	method domain.AuthMethod,
	patToken string,
) (domain.Credential, error) {
	switch method {
	case domain.AuthMethodPAT:
		if patToken != "" {
			return domain.Credential{Method: domain.AuthMethodPAT, Token: patToken}, nil
		}
		cred, err := c.storedPAT(repo)
		if err != nil {
			return domain.Credential{}, err
		}
		if cred.IsZero() {
			return domain.Credential{}, domain.NewAuthFailed("a personal access token is required", nil)
		}
		return cred, nil

	case domain.AuthMethodOAuth:
		if repo.Provider != domain.ProviderGitHub {
			return domain.Credential{}, &domain.Error{
				Kind: domain.KindUnsupportedProvider,
				Message: fmt.Sprintf(
					"%s does not support OAuth sign-in, use a personal access token instead",
					repo.Provider,
				),
			}
		}
		token, ok, err := c.store.GetToken(repo.Provider)
		if err != nil {
			return domain.Credential{}, fmt.Errorf("failed to read the stored OAuth token: %w", err)
		}
		if ok {
			return domain.Credential{Method: domain.AuthMethodOAuth, Token: token}, nil
		}
		if err := c.device.Run(ctx, repo.Provider, c.prompter); err != nil {
			return domain.Credential{}, err
		}
		token, ok, err = c.store.GetToken(repo.Provider)
		if err != nil {
			return domain.Credential{}, fmt.Errorf("failed to read the stored OAuth token: %w", err)
		}
		if !ok {
			return domain.Credential{},
				domain.NewAuthFailed("authorization completed but no token was stored", nil)
		}
		return domain.Credential{Method: domain.AuthMethodOAuth, Token: token}, nil

	default:
		return domain.Credential{}, fmt.Errorf("unknown auth method: %q", method)
	}
}

// passiveCredential resolves a credential without any user interaction,
// for read-only queries that must not pop an authorization prompt.
func (c *Connector) passiveCredential(
	repo domain.Repository,
	method domain.AuthMethod,
) (domain.Credential, error) {
	switch method {
	case domain.AuthMethodPAT:
		cred, err := c.storedPAT(repo)
		if err != nil {
			return domain.Credential{}, err
		}
		if cred.IsZero() {
			return domain.Credential{}, domain.NewAuthFailed("a personal access token is required", nil)
		}
		return cred, nil
	case domain.AuthMethodOAuth:
		token, ok, err := c.store.GetToken(repo.Provider)
		if err != nil {
			return domain.Credential{}, fmt.Errorf("failed to read the stored OAuth token: %w", err)
		}
		if !ok {
			return domain.Credential{},
				domain.NewAuthFailed("not signed in, authorize the device first", nil)
		}
		return domain.Credential{Method: domain.AuthMethodOAuth, Token: token}, nil
	default:
		return domain.Credential{}, fmt.Errorf("unknown auth method: %q", method)
	}
}

// operationCredential resolves the credential for day-to-day operations on
// a connected repository: the repository's own token first, then the
// provider-wide OAuth token, then a provider token from configuration.
func (c *Connector) operationCredential(repo domain.Repository) (domain.Credential, error) {
	token, ok, err := c.store.Get(domain.RepoKeyFor(repo), domain.AuthMethodPAT)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to read the stored credential: %w", err)
	}
	if ok {
		return domain.Credential{Method: domain.AuthMethodPAT, Token: token}, nil
	}

	token, ok, err = c.store.GetToken(repo.Provider)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to read the stored OAuth token: %w", err)
	}
	if ok {
		return domain.Credential{Method: domain.AuthMethodOAuth, Token: token}, nil
	}

	if configToken := c.configPAT(repo.Provider); configToken != "" {
		return domain.Credential{Method: domain.AuthMethodPAT, Token: configToken}, nil
	}

	return domain.Credential{}, domain.NewAuthFailed(
		fmt.Sprintf("no credential available for %s, reconnect the repository", domain.DisplayName(repo)),
		nil,
	)
}

// storedPAT looks up a personal access token for the repository: first the
// per-repository entry, then the provider-wide token from configuration.
func (c *Connector) storedPAT(repo domain.Repository) (domain.Credential, error) {
	token, ok, err := c.store.Get(domain.RepoKeyFor(repo), domain.AuthMethodPAT)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to read the stored credential: %w", err)
	}
	if ok {
		return domain.Credential{Method: domain.AuthMethodPAT, Token: token}, nil
	}
	if configToken := c.configPAT(repo.Provider); configToken != "" {
		return domain.Credential{Method: domain.AuthMethodPAT, Token: configToken}, nil
	}
	return domain.Credential{}, nil
}

func (c *Connector) configPAT(provider domain.Provider) string {
	switch provider {
	case domain.ProviderGitHub:
		return c.settings.GitHub.PAT
	case domain.ProviderAzureDevOps:
		return c.settings.AzureDevOps.PAT
	default:
		return ""
	}
}

// defaultBranchOf falls back to the first listed branch when the provider
// marks none as default, so a connection always lands somewhere.
func defaultBranchOf(branches []domain.BranchInfo) string {
	if name := domain.DefaultBranchOf(branches); name != "" {
		return name
	}
	if len(branches) > 0 {
		return branches[0].Name
	}
	return ""
}
