// Package github implements the GitHub provider client on the REST v3 API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"

	"github.com/markpeek/remotes/domain"
)

const (
	perPage  = 100
	blobType = "blob"
	treeType = "tree"

	defaultTimeout = 30 * time.Second
)

// Client implements domain.ProviderClient for GitHub. Credentials arrive per
// call, so a single client serves every connected repository.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config carries the optional client knobs; zero values target api.github.com.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *Client) Name() domain.Provider { return domain.ProviderGitHub }

// ListBranches returns every branch of the repository with the default branch
// marked. It doubles as the credential validation call: a bad token or an
// inaccessible repository surfaces here first.
func (p *Client) ListBranches(
	ctx context.Context, repo domain.Repository, credential domain.Credential,
) ([]domain.BranchInfo, error) {
	client, err := p.api(credential)
	if err != nil {
		return nil, err
	}

	repository, _, err := client.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, p.mapError("fetch repository metadata", err)
	}
	defaultBranch := repository.GetDefaultBranch()

	var branches []domain.BranchInfo
	opts := &gh.BranchListOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
	for {
		page, resp, listErr := client.Repositories.ListBranches(ctx, repo.Owner, repo.Name, opts)
		if listErr != nil {
			return nil, p.mapError("list branches", listErr)
		}
		for _, branch := range page {
			branches = append(branches, domain.BranchInfo{
				Name:      branch.GetName(),
				SHA:       branch.GetCommit().GetSHA(),
				IsDefault: branch.GetName() == defaultBranch,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return branches, nil
}

// FetchTree loads the full recursive listing of a branch in one call and
// assembles it into a forest.
func (p *Client) FetchTree(
	ctx context.Context,
	repo domain.Repository,
	branch string,
	credential domain.Credential,
	markdownOnly bool,
) ([]*domain.TreeNode, error) {
	client, err := p.api(credential)
	if err != nil {
		return nil, err
	}

	tree, _, err := client.Git.GetTree(ctx, repo.Owner, repo.Name, branch, true)
	if err != nil {
		return nil, p.mapError("fetch the tree", err)
	}
	if tree.GetTruncated() {
		logger.Warnf(
			"GitHub truncated the tree of %s/%s@%s; some files will be missing",
			repo.Owner, repo.Name, branch)
	}

	entries := make([]domain.FlatEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		switch entry.GetType() {
		case blobType:
			entries = append(entries, domain.FlatEntry{Path: entry.GetPath()})
		case treeType:
			entries = append(entries, domain.FlatEntry{Path: entry.GetPath(), Dir: true})
		}
	}

	return domain.BuildForest(entries, markdownOnly), nil
}

// FetchFile returns the decoded content of one file on a branch.
func (p *Client) FetchFile(
	ctx context.Context,
	repo domain.Repository,
	branch string,
	path string,
	credential domain.Credential,
) (*domain.FileContent, error) {
	client, err := p.api(credential)
	if err != nil {
		return nil, err
	}

	// TODO: fall back to the blob API for files above the 1 MiB contents limit
	fileContent, _, _, err := client.Repositories.GetContents(
		ctx, repo.Owner, repo.Name, path,
		&gh.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, p.mapError("fetch the file", err)
	}
	if fileContent == nil {
		return nil, domain.NewRepositoryNotFound(
			fmt.Sprintf("%q is a directory, not a file", path), nil)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode the file content: %w", err)
	}

	return &domain.FileContent{
		Path:    path,
		Content: []byte(content),
		SHA:     fileContent.GetSHA(),
	}, nil
}

// CheckConnectivity probes the API without credentials.
func (p *Client) CheckConnectivity(ctx context.Context) error {
	client, err := p.api(domain.Credential{})
	if err != nil {
		return err
	}
	if _, _, zenErr := client.Meta.Zen(ctx); zenErr != nil {
		return p.mapError("reach GitHub", zenErr)
	}
	return nil
}

// api builds a go-github client carrying the credential of this call.
func (p *Client) api(credential domain.Credential) (*gh.Client, error) {
	client := gh.NewClient(p.httpClient)
	if credential.Token != "" {
		client = client.WithAuthToken(credential.Token)
	}
	if p.baseURL != "" {
		parsed, err := url.Parse(strings.TrimSuffix(p.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse the GitHub base URL: %w", err)
		}
		client.BaseURL = parsed
	}
	return client, nil
}

// mapError translates go-github failures into domain error kinds.
func (p *Client) mapError(action string, err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return domain.NewRateLimited(time.Until(rateErr.Rate.Reset.Time), err)
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		var retryAfter time.Duration
		if abuseErr.RetryAfter != nil {
			retryAfter = *abuseErr.RetryAfter
		}
		return domain.NewRateLimited(retryAfter, err)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.NewAuthFailed("GitHub rejected the credentials", err)
		case http.StatusNotFound:
			return domain.NewRepositoryNotFound(
				"the repository, branch, or file does not exist or is not accessible", err)
		case http.StatusTooManyRequests:
			return domain.NewRateLimited(retryAfterHeader(respErr.Response), err)
		}
	}

	if errors.Is(err, context.Canceled) {
		return domain.NewCancelled(err)
	}

	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &urlErr) {
		return domain.NewNetworkUnreachable("failed to "+action+": GitHub is unreachable", err)
	}

	return fmt.Errorf("failed to %s: %w", action, err)
}

func retryAfterHeader(resp *http.Response) time.Duration {
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
