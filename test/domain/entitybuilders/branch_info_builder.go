//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/markpeek/remotes/domain"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// BranchInfoBuilder helps create test branch descriptors with a fluent interface.
type BranchInfoBuilder struct {
	*testkit.BaseBuilder
	name      string
	sha       string
	isDefault bool
}

// NewBranchInfoBuilder creates a new branch info builder with sensible defaults.
func NewBranchInfoBuilder() *BranchInfoBuilder {
	return &BranchInfoBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		name:        "main",
		sha:         "0123456789abcdef0123456789abcdef01234567",
		isDefault:   true,
	}
}

// WithName sets the branch name.
func (b *BranchInfoBuilder) WithName(name string) *BranchInfoBuilder {
	b.name = name
	return b
}

// WithSHA sets the head commit hash.
func (b *BranchInfoBuilder) WithSHA(sha string) *BranchInfoBuilder {
	b.sha = sha
	return b
}

// WithDefault marks whether this is the repository's default branch.
func (b *BranchInfoBuilder) WithDefault(isDefault bool) *BranchInfoBuilder {
	b.isDefault = isDefault
	return b
}

// Build creates the branch info (satisfies testkit.Builder interface).
func (b *BranchInfoBuilder) Build() interface{} {
	return b.BuildBranchInfo()
}

// BuildBranchInfo creates the branch info with a concrete return type.
func (b *BranchInfoBuilder) BuildBranchInfo() domain.BranchInfo {
	return domain.BranchInfo{
		Name:      b.name,
		SHA:       b.sha,
		IsDefault: b.isDefault,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *BranchInfoBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "main"
	b.sha = "0123456789abcdef0123456789abcdef01234567"
	b.isDefault = true
	return b
}

// Clone creates a deep copy of the BranchInfoBuilder.
func (b *BranchInfoBuilder) Clone() testkit.Builder {
	return &BranchInfoBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:        b.name,
		sha:         b.sha,
		isDefault:   b.isDefault,
	}
}
