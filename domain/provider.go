package domain

import "context"

// ProviderClient abstracts one Git hosting service's REST API. All calls are
// idempotent reads; the credential is passed per call and never retained.
// Implementations map transport results to the connector error kinds at this
// boundary, so callers never see provider-specific shapes or raw statuses.
type ProviderClient interface {
	// Name returns the provider this client talks to.
	Name() Provider

	// ListBranches returns all branches of a repository. Exactly one entry
	// is marked default at fetch time.
	ListBranches(ctx context.Context, repo Repository, cred Credential) ([]BranchInfo, error)

	// FetchTree returns the full file tree of a branch as a rooted forest.
	// With markdownOnly set, non-Markdown files are excluded and directories
	// without a qualifying descendant are pruned.
	FetchTree(ctx context.Context, repo Repository, branch string, cred Credential, markdownOnly bool) ([]*TreeNode, error)

	// FetchFile reads one file from a branch. Always a live read.
	FetchFile(ctx context.Context, repo Repository, branch, path string, cred Credential) (*FileContent, error)

	// CheckConnectivity probes whether the provider is reachable at all,
	// without requiring a credential.
	CheckConnectivity(ctx context.Context) error
}
