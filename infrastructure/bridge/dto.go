package bridge

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	logger "github.com/sirupsen/logrus"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/domain"
)

// statusClientClosedRequest is the nginx convention for "the client gave up",
// used here for operations the user cancelled.
const statusClientClosedRequest = 499

type branchDTO struct {
	Name      string `json:"name"`
	SHA       string `json:"sha"`
	IsDefault bool   `json:"isDefault"`
}

type connectedRepositoryDTO struct {
	RepositoryID  string      `json:"repositoryId"`
	Provider      string      `json:"provider"`
	Owner         string      `json:"owner"`
	Project       string      `json:"project,omitempty"`
	Name          string      `json:"name"`
	URL           string      `json:"url"`
	CurrentBranch string      `json:"currentBranch"`
	DefaultBranch string      `json:"defaultBranch"`
	Branches      []branchDTO `json:"branches"`
}

type repositoryInfoDTO struct {
	DefaultBranch string      `json:"defaultBranch"`
	Branches      []branchDTO `json:"branches"`
}

type treeNodeDTO struct {
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Children []treeNodeDTO `json:"children,omitempty"`
}

type treeDTO struct {
	Nodes     []treeNodeDTO `json:"nodes"`
	FetchedAt time.Time     `json:"fetchedAt"`
	FromCache bool          `json:"fromCache"`
}

// fileDTO carries content as raw bytes, which encoding/json emits base64
// encoded. That keeps non-UTF-8 files intact on the wire.
type fileDTO struct {
	Path    string `json:"path"`
	Content []byte `json:"content"`
	SHA     string `json:"sha"`
}

type deviceSessionDTO struct {
	SessionID       string    `json:"sessionId"`
	Provider        string    `json:"provider"`
	UserCode        string    `json:"userCode"`
	VerificationURI string    `json:"verificationUri"`
	ExpiresAt       time.Time `json:"expiresAt"`
	IntervalSeconds int       `json:"intervalSeconds"`
	Status          string    `json:"status"`
	Message         string    `json:"message,omitempty"`
}

type providerStatusDTO struct {
	Provider  string    `json:"provider"`
	Reachable bool      `json:"reachable"`
	CheckedAt time.Time `json:"checkedAt"`
	Message   string    `json:"message,omitempty"`
}

type connectivityDTO struct {
	Statuses []providerStatusDTO `json:"statuses"`
}

type errorBody struct {
	Kind              string `json:"kind"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

type errorDTO struct {
	Error errorBody `json:"error"`
}

func toBranchDTOs(branches []domain.BranchInfo) []branchDTO {
	dtos := make([]branchDTO, 0, len(branches))
	for _, branch := range branches {
		dtos = append(dtos, branchDTO{Name: branch.Name, SHA: branch.SHA, IsDefault: branch.IsDefault})
	}
	return dtos
}

func toConnectedRepositoryDTO(connected *domain.ConnectedRepository) connectedRepositoryDTO {
	repo := connected.Repository
	return connectedRepositoryDTO{
		RepositoryID:  string(connected.RepositoryID),
		Provider:      repo.Provider.String(),
		Owner:         repo.Owner,
		Project:       repo.Project,
		Name:          repo.Name,
		URL:           repo.URL,
		CurrentBranch: connected.CurrentBranch,
		DefaultBranch: connected.DefaultBranch,
		Branches:      toBranchDTOs(connected.Branches),
	}
}

func toRepositoryInfoDTO(info *domain.RepositoryInfo) repositoryInfoDTO {
	return repositoryInfoDTO{
		DefaultBranch: info.DefaultBranch,
		Branches:      toBranchDTOs(info.Branches),
	}
}

func toTreeNodeDTOs(nodes []*domain.TreeNode) []treeNodeDTO {
	dtos := make([]treeNodeDTO, 0, len(nodes))
	for _, node := range nodes {
		dtos = append(dtos, treeNodeDTO{
			Path:     node.Path,
			Name:     node.Name,
			Type:     string(node.Type),
			Children: toTreeNodeDTOs(node.Children),
		})
	}
	return dtos
}

func toTreeDTO(result *application.TreeResult) treeDTO {
	return treeDTO{
		Nodes:     toTreeNodeDTOs(result.Nodes),
		FetchedAt: result.FetchedAt,
		FromCache: result.FromCache,
	}
}

func toFileDTO(content *domain.FileContent) fileDTO {
	return fileDTO{Path: content.Path, Content: content.Content, SHA: content.SHA}
}

func toDeviceSessionDTO(session domain.DeviceFlowSession) deviceSessionDTO {
	return deviceSessionDTO{
		SessionID:       session.ID,
		Provider:        session.Provider.String(),
		UserCode:        session.UserCode,
		VerificationURI: session.VerificationURI,
		ExpiresAt:       session.ExpiresAt,
		IntervalSeconds: int(session.Interval / time.Second),
		Status:          string(session.Status),
		Message:         session.Message,
	}
}

func toProviderStatusDTO(status domain.ProviderStatus) providerStatusDTO {
	return providerStatusDTO{
		Provider:  status.Provider.String(),
		Reachable: status.Reachable,
		CheckedAt: status.CheckedAt,
		Message:   status.Message,
	}
}

// writeBindError answers a request the bridge could not even parse.
func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorDTO{
		Error: errorBody{Kind: "invalid_request", Message: err.Error()},
	})
}

// writeError maps a connector error onto an HTTP status and the stable
// error envelope the UI branches on.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorBody{Kind: errorKind(err), Message: errorMessage(err)}
	if retryAfter := domain.RetryAfterOf(err); retryAfter > 0 {
		body.RetryAfterSeconds = int(retryAfter / time.Second)
	}
	if status >= http.StatusInternalServerError {
		logger.Errorf("Bridge request failed: %v", err)
	}
	c.JSON(status, errorDTO{Error: body})
}

func statusFor(err error) int {
	if errors.Is(err, application.ErrSessionNotFound) {
		return http.StatusNotFound
	}
	switch domain.KindOf(err) {
	case domain.KindInvalidURL, domain.KindUnsupportedProvider:
		return http.StatusBadRequest
	case domain.KindAuthFailed:
		return http.StatusUnauthorized
	case domain.KindRepositoryNotFound:
		return http.StatusNotFound
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindNetworkUnreachable:
		return http.StatusBadGateway
	case domain.KindEncryptionUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindCancelled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	if errors.Is(err, application.ErrSessionNotFound) {
		return "session_not_found"
	}
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "internal"
}

// errorMessage prefers the connector's human-readable message over the full
// chain, which already carries the kind as a prefix.
func errorMessage(err error) string {
	var connErr *domain.Error
	if errors.As(err, &connErr) && connErr.Message != "" {
		return connErr.Message
	}
	return err.Error()
}
