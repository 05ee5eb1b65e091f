package domain

import (
	"fmt"
	"time"
)

// Provider identifies a supported Git hosting service.
type Provider string

const (
	ProviderGitHub      Provider = "github"
	ProviderAzureDevOps Provider = "azure-devops"
)

// ParseProvider validates a provider name received from the outside
// (configuration, bridge requests, CLI flags).
func ParseProvider(raw string) (Provider, error) {
	switch Provider(raw) {
	case ProviderGitHub:
		return ProviderGitHub, nil
	case ProviderAzureDevOps:
		return ProviderAzureDevOps, nil
	default:
		return "", NewUnsupportedProvider(raw)
	}
}

func (p Provider) String() string { return string(p) }

// AuthMethod is the credential flavor used to talk to a provider.
type AuthMethod string

const (
	AuthMethodOAuth AuthMethod = "oauth"
	AuthMethodPAT   AuthMethod = "pat"
)

// ParseAuthMethod validates an auth method name received from the outside.
func ParseAuthMethod(raw string) (AuthMethod, error) {
	switch AuthMethod(raw) {
	case AuthMethodOAuth:
		return AuthMethodOAuth, nil
	case AuthMethodPAT:
		return AuthMethodPAT, nil
	default:
		return "", fmt.Errorf("unknown auth method: %q", raw)
	}
}

// Repository identifies a remote repository on a hosting provider.
// Immutable once resolved from a URL.
type Repository struct {
	Provider Provider
	Owner    string // organization or user account
	Project  string // Azure DevOps project; empty for GitHub
	Name     string
	URL      string // canonical https URL
}

// RepositoryID is the stable identity of a (repository, branch) pair,
// e.g. "github:acme/docs#main". The UI uses it to deduplicate
// already-open branches without a round trip.
type RepositoryID string

// Credential is a decrypted token handed to a provider call. It lives in
// memory for the duration of a single operation and is never serialized.
type Credential struct {
	Method AuthMethod
	Token  string
}

// IsZero reports whether no credential is present.
func (c Credential) IsZero() bool { return c.Token == "" }

// BranchInfo describes one branch of a repository at fetch time.
type BranchInfo struct {
	Name      string
	SHA       string // head commit hash at fetch time
	IsDefault bool
}

// RepositoryInfo is the read-only branch discovery result used by the UI
// to populate a branch picker before committing to a connection.
type RepositoryInfo struct {
	Branches      []BranchInfo
	DefaultBranch string
}

// ConnectedRepository is the result of a successful connect operation.
// The connector does not retain it beyond the call that produced it.
type ConnectedRepository struct {
	RepositoryID  RepositoryID
	Repository    Repository
	CurrentBranch string
	DefaultBranch string
	Branches      []BranchInfo
}

// NodeType distinguishes files from directories in a tree snapshot.
type NodeType string

const (
	NodeTypeFile      NodeType = "file"
	NodeTypeDirectory NodeType = "directory"
)

// TreeNode is one entry of a fetched repository tree. Paths are posix-style,
// relative to the repository root, and unique within a snapshot.
type TreeNode struct {
	Path     string
	Name     string
	Type     NodeType
	Children []*TreeNode
}

// FileContent is the result of a live file fetch.
type FileContent struct {
	Path    string
	Content []byte
	SHA     string // blob object id at fetch time
}

// DeviceFlowStatus is the lifecycle state of a device authorization session.
type DeviceFlowStatus string

const (
	DeviceFlowPending   DeviceFlowStatus = "pending"
	DeviceFlowSucceeded DeviceFlowStatus = "succeeded"
	DeviceFlowFailed    DeviceFlowStatus = "failed"
	DeviceFlowCancelled DeviceFlowStatus = "cancelled"
	DeviceFlowExpired   DeviceFlowStatus = "expired"
)

// Terminal reports whether the session can no longer change state.
func (s DeviceFlowStatus) Terminal() bool {
	return s != DeviceFlowPending
}

// DeviceFlowSession is a point-in-time snapshot of a device authorization
// session. Sessions are in-memory only and never persisted; Interval is the
// current, authoritative poll interval (it grows on slow-down signals).
type DeviceFlowSession struct {
	ID              string
	Provider        Provider
	UserCode        string
	VerificationURI string
	ExpiresAt       time.Time
	Interval        time.Duration
	Status          DeviceFlowStatus
	Message         string
}

// ProviderStatus is the last known reachability of one provider.
type ProviderStatus struct {
	Provider  Provider
	Reachable bool
	CheckedAt time.Time
	Message   string
}
