package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	gitHubHost      = "github.com"
	azureDevOpsHost = "dev.azure.com"
)

// branchDecorationPattern matches trailing branch badges a display name may
// carry, e.g. "docs (main)", "docs [release/2.0]" or "docs@main".
var branchDecorationPattern = regexp.MustCompile(`\s*(\([^)]*\)|\[[^\]]*]|@\S+)$`)

// ResolveURL parses a repository URL into a Repository. Only https URLs on
// github.com and dev.azure.com are accepted; anything else fails with a
// human-readable reason.
func ResolveURL(raw string) (Repository, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Repository{}, NewInvalidURL("repository URL is empty")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Repository{}, NewInvalidURL(fmt.Sprintf("malformed URL: %v", err))
	}

	if !strings.EqualFold(parsed.Scheme, "https") {
		return Repository{}, NewInvalidURL(
			fmt.Sprintf("unsupported scheme %q: only https URLs are accepted", parsed.Scheme),
		)
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	segments := splitPath(parsed.EscapedPath())

	switch host {
	case gitHubHost:
		return resolveGitHub(segments)
	case azureDevOpsHost:
		return resolveAzureDevOps(segments)
	default:
		return Repository{}, NewInvalidURL(
			fmt.Sprintf("unsupported host %q: only github.com and dev.azure.com are accepted", host),
		)
	}
}

func resolveGitHub(segments []string) (Repository, error) {
	if len(segments) != 2 {
		return Repository{}, NewInvalidURL(
			"malformed GitHub path: expected https://github.com/<owner>/<repository>",
		)
	}

	owner := segments[0]
	name := strings.TrimSuffix(segments[1], ".git")
	if owner == "" || name == "" {
		return Repository{}, NewInvalidURL("malformed GitHub path: empty owner or repository name")
	}

	return Repository{
		Provider: ProviderGitHub,
		Owner:    owner,
		Name:     name,
		URL:      fmt.Sprintf("https://github.com/%s/%s", owner, name),
	}, nil
}

func resolveAzureDevOps(segments []string) (Repository, error) {
	// Accepted shapes:
	//   /<org>/<project>/_git/<repository>
	//   /<org>/_git/<repository>          (project named like the repository)
	var org, project, name string
	switch {
	case len(segments) == 4 && segments[2] == "_git":
		org, project, name = segments[0], segments[1], segments[3]
	case len(segments) == 3 && segments[1] == "_git":
		org, project, name = segments[0], segments[2], segments[2]
	default:
		return Repository{}, NewInvalidURL(
			"malformed Azure DevOps path: expected https://dev.azure.com/<organization>/<project>/_git/<repository>",
		)
	}

	if org == "" || project == "" || name == "" {
		return Repository{}, NewInvalidURL(
			"malformed Azure DevOps path: empty organization, project, or repository name",
		)
	}

	return Repository{
		Provider: ProviderAzureDevOps,
		Owner:    org,
		Project:  project,
		Name:     name,
		URL:      fmt.Sprintf("https://dev.azure.com/%s/%s/_git/%s", org, project, name),
	}, nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		if unescaped, err := url.PathUnescape(part); err == nil {
			parts[i] = unescaped
		}
	}
	return parts
}

// IdentityFor derives the stable identity of a (repository, branch) pair.
// It is pure and deterministic: the same inputs always yield the same
// string. Owner, project, and name are case-folded because the providers
// treat them case-insensitively; the branch keeps its case because Git
// branch names are case-sensitive.
func IdentityFor(repo Repository, branch string) RepositoryID {
	key := repoKeyFor(repo)
	return RepositoryID(key + "#" + branch)
}

// RepoKeyFor derives the branch-independent key that groups every branch of
// the same remote repository. Credential scopes and cache invalidation use
// it so per-repository state survives branch switches.
func RepoKeyFor(repo Repository) string {
	return repoKeyFor(repo)
}

func repoKeyFor(repo Repository) string {
	owner := strings.ToLower(repo.Owner)
	name := strings.ToLower(repo.Name)
	project := strings.ToLower(repo.Project)

	if repo.Provider == ProviderAzureDevOps && project != "" && project != name {
		return fmt.Sprintf("%s:%s/%s/%s", repo.Provider, owner, project, name)
	}
	return fmt.Sprintf("%s:%s/%s", repo.Provider, owner, name)
}

// RepoKey returns the identity without its branch part. All branches of one
// repository share a repo key; the tree cache and the credential store group
// by it.
func (id RepositoryID) RepoKey() string {
	key, _, _ := strings.Cut(string(id), "#")
	return key
}

// Branch returns the branch part of the identity, or "" when absent.
func (id RepositoryID) Branch() string {
	_, branch, _ := strings.Cut(string(id), "#")
	return branch
}

// ParseRepositoryID reconstructs the Repository and branch a RepositoryID
// was derived from. The bridge passes identities instead of URLs after the
// initial connect, so this is the inverse of IdentityFor.
func ParseRepositoryID(id RepositoryID) (Repository, string, error) {
	key, branch, _ := strings.Cut(string(id), "#")

	providerPart, pathPart, found := strings.Cut(key, ":")
	if !found || pathPart == "" {
		return Repository{}, "", fmt.Errorf("malformed repository id: %q", id)
	}

	provider, err := ParseProvider(providerPart)
	if err != nil {
		return Repository{}, "", fmt.Errorf("malformed repository id %q: %w", id, err)
	}

	segments := strings.Split(pathPart, "/")
	switch provider {
	case ProviderGitHub:
		if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
			return Repository{}, "", fmt.Errorf("malformed repository id: %q", id)
		}
		return Repository{
			Provider: ProviderGitHub,
			Owner:    segments[0],
			Name:     segments[1],
			URL:      fmt.Sprintf("https://github.com/%s/%s", segments[0], segments[1]),
		}, branch, nil
	case ProviderAzureDevOps:
		var org, project, name string
		switch len(segments) {
		case 2:
			org, project, name = segments[0], segments[1], segments[1]
		case 3:
			org, project, name = segments[0], segments[1], segments[2]
		default:
			return Repository{}, "", fmt.Errorf("malformed repository id: %q", id)
		}
		if org == "" || project == "" || name == "" {
			return Repository{}, "", fmt.Errorf("malformed repository id: %q", id)
		}
		return Repository{
			Provider: ProviderAzureDevOps,
			Owner:    org,
			Project:  project,
			Name:     name,
			URL:      fmt.Sprintf("https://dev.azure.com/%s/%s/_git/%s", org, project, name),
		}, branch, nil
	}

	return Repository{}, "", fmt.Errorf("malformed repository id: %q", id)
}

// DisplayName returns the logical name shown for a repository, independent
// of the branch it was opened on.
func DisplayName(repo Repository) string {
	return repo.Owner + "/" + repo.Name
}

// NormalizeDisplayName strips trailing branch badges from a folder display
// name so the same repository opened on two branches collapses to one
// logical name.
func NormalizeDisplayName(display string) string {
	normalized := strings.TrimSpace(display)
	for {
		stripped := branchDecorationPattern.ReplaceAllString(normalized, "")
		if stripped == normalized {
			return normalized
		}
		normalized = strings.TrimSpace(stripped)
	}
}
