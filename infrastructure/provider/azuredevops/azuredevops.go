// Package azuredevops implements the Azure DevOps provider client on the
// REST 7.0 Git API.
package azuredevops

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/markpeek/remotes/domain"
)

const (
	defaultBaseURL   = "https://dev.azure.com"
	defaultStatusURL = "https://status.dev.azure.com/_apis/status/health?api-version=6.0"
	apiVersion       = "7.0"

	continuationHeader = "x-ms-continuationtoken"
	refHeadsPrefix     = "refs/heads/"

	defaultTimeout = 30 * time.Second
)

// Client implements domain.ProviderClient for Azure DevOps. Credentials are
// personal access tokens sent as HTTP basic auth with an empty user name.
type Client struct {
	baseURL    string
	statusURL  string
	httpClient *http.Client
}

// Config carries the optional client knobs; zero values target dev.azure.com.
type Config struct {
	BaseURL   string
	StatusURL string
	Timeout   time.Duration
}

func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	statusURL := cfg.StatusURL
	if statusURL == "" {
		statusURL = defaultStatusURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		statusURL:  statusURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() domain.Provider { return domain.ProviderAzureDevOps }

// repositoryResult is the subset of the repository resource the connector
// needs.
type repositoryResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DefaultBranch string `json:"defaultBranch"`
}

type refsResult struct {
	Count int  `json:"count"`
	Value []ref `json:"value"`
}

type ref struct {
	Name     string `json:"name"`
	ObjectID string `json:"objectId"`
}

type itemsResult struct {
	Count int    `json:"count"`
	Value []item `json:"value"`
}

type item struct {
	ObjectID      string `json:"objectId"`
	GitObjectType string `json:"gitObjectType"`
	Path          string `json:"path"`
	IsFolder      bool   `json:"isFolder"`
}

type fileResult struct {
	ObjectID string `json:"objectId"`
	Path     string `json:"path"`
	Content  string `json:"content"`
}

// ListBranches returns every branch with the default branch marked, fetching
// the repository metadata first for the default branch name.
func (c *Client) ListBranches(
	ctx context.Context, repo domain.Repository, credential domain.Credential,
) ([]domain.BranchInfo, error) {
	endpoint := fmt.Sprintf("%s?api-version=%s", c.repositoryURL(repo), apiVersion)

	var repository repositoryResult
	if _, err := c.getJSON(ctx, endpoint, credential.Token, &repository); err != nil {
		return nil, err
	}
	defaultBranch := strings.TrimPrefix(repository.DefaultBranch, refHeadsPrefix)

	var branches []domain.BranchInfo
	continuation := ""
	for {
		refsEndpoint := fmt.Sprintf(
			"%s/refs?filter=heads/&api-version=%s", c.repositoryURL(repo), apiVersion)
		if continuation != "" {
			refsEndpoint += "&continuationToken=" + url.QueryEscape(continuation)
		}

		var page refsResult
		headers, err := c.getJSON(ctx, refsEndpoint, credential.Token, &page)
		if err != nil {
			return nil, err
		}
		for _, r := range page.Value {
			name := strings.TrimPrefix(r.Name, refHeadsPrefix)
			branches = append(branches, domain.BranchInfo{
				Name:      name,
				SHA:       r.ObjectID,
				IsDefault: name == defaultBranch,
			})
		}

		continuation = headers.Get(continuationHeader)
		if continuation == "" {
			break
		}
	}

	return branches, nil
}

// FetchTree loads the full recursive item listing of a branch and assembles
// it into a forest.
func (c *Client) FetchTree(
	ctx context.Context,
	repo domain.Repository,
	branch string,
	credential domain.Credential,
	markdownOnly bool,
) ([]*domain.TreeNode, error) {
	endpoint := fmt.Sprintf(
		"%s/items?recursionLevel=Full&versionDescriptor.version=%s&versionDescriptor.versionType=branch&api-version=%s",
		c.repositoryURL(repo), url.QueryEscape(branch), apiVersion)

	var items itemsResult
	if _, err := c.getJSON(ctx, endpoint, credential.Token, &items); err != nil {
		return nil, err
	}

	entries := make([]domain.FlatEntry, 0, len(items.Value))
	for _, listed := range items.Value {
		path := strings.TrimPrefix(listed.Path, "/")
		if path == "" {
			continue
		}
		entries = append(entries, domain.FlatEntry{Path: path, Dir: listed.IsFolder})
	}

	return domain.BuildForest(entries, markdownOnly), nil
}

// FetchFile returns the content of one file on a branch.
func (c *Client) FetchFile(
	ctx context.Context,
	repo domain.Repository,
	branch string,
	path string,
	credential domain.Credential,
) (*domain.FileContent, error) {
	endpoint := fmt.Sprintf(
		"%s/items?path=%s&versionDescriptor.version=%s&versionDescriptor.versionType=branch&includeContent=true&$format=json&api-version=%s",
		c.repositoryURL(repo), url.QueryEscape("/"+path), url.QueryEscape(branch), apiVersion)

	var file fileResult
	if _, err := c.getJSON(ctx, endpoint, credential.Token, &file); err != nil {
		return nil, err
	}

	return &domain.FileContent{
		Path:    path,
		Content: []byte(file.Content),
		SHA:     file.ObjectID,
	}, nil
}

// CheckConnectivity probes the public service health endpoint without
// credentials.
func (c *Client) CheckConnectivity(ctx context.Context) error {
	_, err := c.getJSON(ctx, c.statusURL, "", nil)
	return err
}

func (c *Client) repositoryURL(repo domain.Repository) string {
	return fmt.Sprintf("%s/%s/%s/_apis/git/repositories/%s",
		c.baseURL,
		url.PathEscape(repo.Owner),
		url.PathEscape(repo.Project),
		url.PathEscape(repo.Name))
}

// getJSON performs an authenticated GET and decodes the JSON response into
// out when it is non-nil.
func (c *Client) getJSON(
	ctx context.Context, endpoint, token string, out any,
) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create the request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(":" + token))
		req.Header.Set("Authorization", "Basic "+auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.mapTransportError(err)
	}
	defer resp.Body.Close()

	if statusErr := c.checkStatus(resp); statusErr != nil {
		return nil, statusErr
	}

	if out != nil {
		if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
			return nil, fmt.Errorf("failed to decode the response: %w", decodeErr)
		}
	}
	return resp.Header, nil
}

// checkStatus translates non-2xx responses into domain error kinds. Azure
// DevOps answers an invalid or expired PAT with 203 and an HTML sign-in page
// instead of 401, so that status is treated as an auth failure.
func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices &&
		resp.StatusCode != http.StatusNonAuthoritativeInfo:
		return nil
	case resp.StatusCode == http.StatusNonAuthoritativeInfo,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return domain.NewAuthFailed(
			"Azure DevOps rejected the credentials; the personal access token may be invalid or expired", nil)
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewRepositoryNotFound(
			"the repository, branch, or file does not exist or is not accessible", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.NewRateLimited(retryAfterHeader(resp), nil)
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.NewNetworkUnreachable(
			fmt.Sprintf("Azure DevOps answered with status %d", resp.StatusCode), nil)
	default:
		return fmt.Errorf("unexpected Azure DevOps status %d", resp.StatusCode)
	}
}

func (c *Client) mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return domain.NewCancelled(err)
	}
	return domain.NewNetworkUnreachable("Azure DevOps is unreachable", err)
}

func retryAfterHeader(resp *http.Response) time.Duration {
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
