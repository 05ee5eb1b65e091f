//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/markpeek/remotes/domain"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// RepositoryBuilder helps create test repositories with a fluent interface.
type RepositoryBuilder struct {
	*testkit.BaseBuilder
	provider domain.Provider
	owner    string
	project  string
	name     string
	url      string
}

// NewRepositoryBuilder creates a new repository builder with sensible defaults.
func NewRepositoryBuilder() *RepositoryBuilder {
	return &RepositoryBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		provider:    domain.ProviderGitHub,
		owner:       "acme",
		project:     "",
		name:        "docs",
		url:         "https://github.com/acme/docs",
	}
}

// WithProvider sets the hosting provider.
func (b *RepositoryBuilder) WithProvider(provider domain.Provider) *RepositoryBuilder {
	b.provider = provider
	return b
}

// WithOwner sets the organization or user account.
func (b *RepositoryBuilder) WithOwner(owner string) *RepositoryBuilder {
	b.owner = owner
	return b
}

// WithProject sets the Azure DevOps project.
func (b *RepositoryBuilder) WithProject(project string) *RepositoryBuilder {
	b.project = project
	return b
}

// WithName sets the repository name.
func (b *RepositoryBuilder) WithName(name string) *RepositoryBuilder {
	b.name = name
	return b
}

// WithURL sets the canonical https URL.
func (b *RepositoryBuilder) WithURL(url string) *RepositoryBuilder {
	b.url = url
	return b
}

// Build creates the repository (satisfies testkit.Builder interface).
func (b *RepositoryBuilder) Build() interface{} {
	return b.BuildRepository()
}

// BuildRepository creates the repository with a concrete return type.
func (b *RepositoryBuilder) BuildRepository() domain.Repository {
	return domain.Repository{
		Provider: b.provider,
		Owner:    b.owner,
		Project:  b.project,
		Name:     b.name,
		URL:      b.url,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *RepositoryBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.provider = domain.ProviderGitHub
	b.owner = "acme"
	b.project = ""
	b.name = "docs"
	b.url = "https://github.com/acme/docs"
	return b
}

// Clone creates a deep copy of the RepositoryBuilder.
func (b *RepositoryBuilder) Clone() testkit.Builder {
	return &RepositoryBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		provider:    b.provider,
		owner:       b.owner,
		project:     b.project,
		name:        b.name,
		url:         b.url,
	}
}
