//go:build unit

package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markpeek/remotes/domain"
	"github.com/markpeek/remotes/test/domain/entitybuilders"
)

// Branch selection on connect: the requested branch wins when it exists,
// the provider's default is the fallback, and the identity always carries
// the branch the connection actually landed on.
func TestConnectBranchSelection(t *testing.T) {
	t.Parallel()

	mainBranch := entitybuilders.NewBranchInfoBuilder().
		WithSHA("aaa111").
		BuildBranchInfo()
	devBranch := entitybuilders.NewBranchInfoBuilder().
		WithName("dev").
		WithSHA("bbb222").
		WithDefault(false).
		BuildBranchInfo()
	legacyDefault := entitybuilders.NewBranchInfoBuilder().
		WithName("master").
		WithSHA("ccc333").
		BuildBranchInfo()

	tests := []struct {
		name         string
		branches     []domain.BranchInfo
		requested    string
		wantBranch   string
		wantDefault  string
		wantIdentity domain.RepositoryID
	}{
		{
			name:         "should land on the default branch when none is requested",
			branches:     []domain.BranchInfo{mainBranch, devBranch},
			requested:    "",
			wantBranch:   "main",
			wantDefault:  "main",
			wantIdentity: "github:acme/docs#main",
		},
		{
			name:         "should land on the requested branch when it exists",
			branches:     []domain.BranchInfo{mainBranch, devBranch},
			requested:    "dev",
			wantBranch:   "dev",
			wantDefault:  "main",
			wantIdentity: "github:acme/docs#dev",
		},
		{
			name:         "should fall back to the default branch when the requested one is unknown",
			branches:     []domain.BranchInfo{mainBranch, devBranch},
			requested:    "release/9.9",
			wantBranch:   "main",
			wantDefault:  "main",
			wantIdentity: "github:acme/docs#main",
		},
		{
			name:         "should respect a non-main default branch",
			branches:     []domain.BranchInfo{devBranch, legacyDefault},
			requested:    "",
			wantBranch:   "master",
			wantDefault:  "master",
			wantIdentity: "github:acme/docs#master",
		},
		{
			name:         "should fall back to the first branch when no default is flagged",
			branches:     []domain.BranchInfo{devBranch},
			requested:    "",
			wantBranch:   "dev",
			wantDefault:  "dev",
			wantIdentity: "github:acme/docs#dev",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			// given
			fixture := newConnectorFixture(t)
			fixture.github.Branches = test.branches

			// when
			connected, err := fixture.connector.Connect(
				context.Background(), "https://github.com/acme/docs",
				domain.AuthMethodPAT, "ghp_supplied", test.requested)

			// then
			require.NoError(t, err)
			assert.Equal(t, test.wantBranch, connected.CurrentBranch)
			assert.Equal(t, test.wantDefault, connected.DefaultBranch)
			assert.Equal(t, test.wantIdentity, connected.RepositoryID)
		})
	}
}
