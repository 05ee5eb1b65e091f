package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markpeek/remotes/domain"
)

func TestResolveURL(t *testing.T) {
	t.Parallel()

	t.Run("should resolve a GitHub repository URL", func(t *testing.T) {
		t.Parallel()

		// when
		repo, err := domain.ResolveURL("https://github.com/acme/docs")

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderGitHub, repo.Provider)
		assert.Equal(t, "acme", repo.Owner)
		assert.Equal(t, "docs", repo.Name)
		assert.Equal(t, "https://github.com/acme/docs", repo.URL)
	})

	t.Run("should strip a .git suffix and www prefix", func(t *testing.T) {
		t.Parallel()

		// when
		repo, err := domain.ResolveURL("https://www.github.com/acme/docs.git")

		// then
		require.NoError(t, err)
		assert.Equal(t, "docs", repo.Name)
		assert.Equal(t, "https://github.com/acme/docs", repo.URL)
	})

	t.Run("should resolve an Azure DevOps repository URL", func(t *testing.T) {
		t.Parallel()

		// when
		repo, err := domain.ResolveURL("https://dev.azure.com/contoso/wiki/_git/handbook")

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderAzureDevOps, repo.Provider)
		assert.Equal(t, "contoso", repo.Owner)
		assert.Equal(t, "wiki", repo.Project)
		assert.Equal(t, "handbook", repo.Name)
	})

	t.Run("should default the project to the repository name when omitted", func(t *testing.T) {
		t.Parallel()

		// when
		repo, err := domain.ResolveURL("https://dev.azure.com/contoso/_git/handbook")

		// then
		require.NoError(t, err)
		assert.Equal(t, "handbook", repo.Project)
		assert.Equal(t, "handbook", repo.Name)
		assert.Equal(t, "https://dev.azure.com/contoso/handbook/_git/handbook", repo.URL)
	})

	t.Run("should reject invalid URLs with a reason", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			url  string
		}{
			{name: "http scheme", url: "http://github.com/acme/docs"},
			{name: "ssh scheme", url: "git@github.com:acme/docs.git"},
			{name: "unsupported host", url: "https://gitlab.com/acme/docs"},
			{name: "missing repository segment", url: "https://github.com/acme"},
			{name: "extra path segments", url: "https://github.com/acme/docs/tree/main"},
			{name: "azure devops without _git", url: "https://dev.azure.com/contoso/wiki/handbook"},
			{name: "empty string", url: ""},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				// when
				_, err := domain.ResolveURL(tt.url)

				// then
				require.Error(t, err)
				assert.Equal(t, domain.KindInvalidURL, domain.KindOf(err))
			})
		}
	})
}

func TestIdentityFor(t *testing.T) {
	t.Parallel()

	t.Run("should be deterministic for identical inputs", func(t *testing.T) {
		t.Parallel()

		// given
		repo, err := domain.ResolveURL("https://github.com/acme/docs")
		require.NoError(t, err)

		// when
		first := domain.IdentityFor(repo, "main")
		second := domain.IdentityFor(repo, "main")

		// then
		assert.Equal(t, first, second)
		assert.Equal(t, domain.RepositoryID("github:acme/docs#main"), first)
	})

	t.Run("should differ per branch but share the repo key", func(t *testing.T) {
		t.Parallel()

		// given
		repo, err := domain.ResolveURL("https://github.com/acme/docs")
		require.NoError(t, err)

		// when
		main := domain.IdentityFor(repo, "main")
		dev := domain.IdentityFor(repo, "dev")

		// then
		assert.NotEqual(t, main, dev)
		assert.Equal(t, main.RepoKey(), dev.RepoKey())
		assert.Equal(t, "main", main.Branch())
		assert.Equal(t, "dev", dev.Branch())
	})

	t.Run("should case-fold owner and name but keep branch case", func(t *testing.T) {
		t.Parallel()

		// given
		upper, err := domain.ResolveURL("https://github.com/Acme/Docs")
		require.NoError(t, err)
		lower, err := domain.ResolveURL("https://github.com/acme/docs")
		require.NoError(t, err)

		// then
		assert.Equal(t, domain.IdentityFor(lower, "Main"), domain.IdentityFor(upper, "Main"))
		assert.NotEqual(t, domain.IdentityFor(lower, "main"), domain.IdentityFor(lower, "Main"))
	})

	t.Run("should collapse the Azure DevOps project when it matches the repo", func(t *testing.T) {
		t.Parallel()

		// given
		withProject, err := domain.ResolveURL("https://dev.azure.com/contoso/handbook/_git/handbook")
		require.NoError(t, err)
		withoutProject, err := domain.ResolveURL("https://dev.azure.com/contoso/_git/handbook")
		require.NoError(t, err)

		// then
		assert.Equal(t,
			domain.IdentityFor(withoutProject, "main"),
			domain.IdentityFor(withProject, "main"),
		)
	})
}

func TestParseRepositoryID(t *testing.T) {
	t.Parallel()

	t.Run("should round-trip a GitHub identity", func(t *testing.T) {
		t.Parallel()

		// given
		original, err := domain.ResolveURL("https://github.com/acme/docs")
		require.NoError(t, err)
		id := domain.IdentityFor(original, "main")

		// when
		repo, branch, parseErr := domain.ParseRepositoryID(id)

		// then
		require.NoError(t, parseErr)
		assert.Equal(t, domain.ProviderGitHub, repo.Provider)
		assert.Equal(t, "acme", repo.Owner)
		assert.Equal(t, "docs", repo.Name)
		assert.Equal(t, "main", branch)
		assert.Equal(t, "https://github.com/acme/docs", repo.URL)
	})

	t.Run("should round-trip an Azure DevOps identity with a distinct project", func(t *testing.T) {
		t.Parallel()

		// given
		original, err := domain.ResolveURL("https://dev.azure.com/contoso/wiki/_git/handbook")
		require.NoError(t, err)
		id := domain.IdentityFor(original, "release/2.0")

		// when
		repo, branch, parseErr := domain.ParseRepositoryID(id)

		// then
		require.NoError(t, parseErr)
		assert.Equal(t, "contoso", repo.Owner)
		assert.Equal(t, "wiki", repo.Project)
		assert.Equal(t, "handbook", repo.Name)
		assert.Equal(t, "release/2.0", branch)
	})

	t.Run("should reject malformed identities", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			id   domain.RepositoryID
		}{
			{name: "missing provider", id: "acme/docs#main"},
			{name: "unknown provider", id: "bitbucket:acme/docs#main"},
			{name: "missing path", id: "github:#main"},
			{name: "single segment", id: "github:acme#main"},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				// when
				_, _, err := domain.ParseRepositoryID(tt.id)

				// then
				require.Error(t, err)
			})
		}
	})
}

func TestNormalizeDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "parenthesized branch badge", input: "docs (main)", expected: "docs"},
		{name: "bracketed branch badge", input: "docs [release/2.0]", expected: "docs"},
		{name: "at-sign branch suffix", input: "docs@main", expected: "docs"},
		{name: "stacked decorations", input: "docs (main) [stale]", expected: "docs"},
		{name: "plain name untouched", input: "handbook", expected: "handbook"},
		{name: "surrounding whitespace", input: "  docs (dev) ", expected: "docs"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			got := domain.NormalizeDisplayName(tt.input)

			// then
			assert.Equal(t, tt.expected, got)
		})
	}
}
