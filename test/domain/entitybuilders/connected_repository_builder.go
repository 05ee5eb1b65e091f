//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/markpeek/remotes/domain"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// ConnectedRepositoryBuilder helps create test connection results with a fluent interface.
type ConnectedRepositoryBuilder struct {
	*testkit.BaseBuilder
	repository    domain.Repository
	currentBranch string
	defaultBranch string
	branches      []domain.BranchInfo
}

// NewConnectedRepositoryBuilder creates a new connection result builder with sensible defaults.
func NewConnectedRepositoryBuilder() *ConnectedRepositoryBuilder {
	return &ConnectedRepositoryBuilder{
		BaseBuilder:   testkit.NewBaseBuilder(),
		repository:    NewRepositoryBuilder().BuildRepository(),
		currentBranch: "main",
		defaultBranch: "main",
		branches: []domain.BranchInfo{
			NewBranchInfoBuilder().BuildBranchInfo(),
		},
	}
}

// WithRepository sets the resolved repository.
func (b *ConnectedRepositoryBuilder) WithRepository(repository domain.Repository) *ConnectedRepositoryBuilder {
	b.repository = repository
	return b
}

// WithCurrentBranch sets the branch the connection landed on.
func (b *ConnectedRepositoryBuilder) WithCurrentBranch(branch string) *ConnectedRepositoryBuilder {
	b.currentBranch = branch
	return b
}

// WithDefaultBranch sets the provider's default branch.
func (b *ConnectedRepositoryBuilder) WithDefaultBranch(branch string) *ConnectedRepositoryBuilder {
	b.defaultBranch = branch
	return b
}

// WithBranches sets the full branch list.
func (b *ConnectedRepositoryBuilder) WithBranches(branches []domain.BranchInfo) *ConnectedRepositoryBuilder {
	b.branches = branches
	return b
}

// Build creates the connection result (satisfies testkit.Builder interface).
func (b *ConnectedRepositoryBuilder) Build() interface{} {
	return b.BuildConnectedRepository()
}

// BuildConnectedRepository creates the connection result with a concrete return type.
func (b *ConnectedRepositoryBuilder) BuildConnectedRepository() domain.ConnectedRepository {
	return domain.ConnectedRepository{
		RepositoryID:  domain.IdentityFor(b.repository, b.currentBranch),
		Repository:    b.repository,
		CurrentBranch: b.currentBranch,
		DefaultBranch: b.defaultBranch,
		Branches:      b.branches,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *ConnectedRepositoryBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.repository = NewRepositoryBuilder().BuildRepository()
	b.currentBranch = "main"
	b.defaultBranch = "main"
	b.branches = []domain.BranchInfo{
		NewBranchInfoBuilder().BuildBranchInfo(),
	}
	return b
}

// Clone creates a deep copy of the ConnectedRepositoryBuilder.
func (b *ConnectedRepositoryBuilder) Clone() testkit.Builder {
	branches := make([]domain.BranchInfo, len(b.branches))
	copy(branches, b.branches)
	return &ConnectedRepositoryBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		repository:    b.repository,
		currentBranch: b.currentBranch,
		defaultBranch: b.defaultBranch,
		branches:      branches,
	}
}
