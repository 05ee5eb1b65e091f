package bridge

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/domain"
)

// Handler translates bridge requests into calls on the application services.
type Handler struct {
	connector *application.Connector
	device    *application.DeviceFlowAuthenticator
	monitor   *application.ConnectivityMonitor
}

// RegisterRoutes mounts the bridge API onto the given engine.
func RegisterRoutes(
	router *gin.Engine,
	connector *application.Connector,
	device *application.DeviceFlowAuthenticator,
	monitor *application.ConnectivityMonitor,
) {
	h := &Handler{connector: connector, device: device, monitor: monitor}

	router.GET("/healthz", h.health)

	api := router.Group("/api/v1")

	repo := api.Group("/repo")
	repo.POST("/connect", h.connect)
	repo.POST("/info", h.repositoryInfo)
	repo.POST("/tree", h.tree)
	repo.POST("/cached-tree", h.cachedTree)
	repo.POST("/file", h.file)
	repo.POST("/disconnect", h.disconnect)

	auth := api.Group("/auth")
	auth.POST("/device/initiate", h.deviceInitiate)
	auth.POST("/device/status", h.deviceStatus)
	auth.POST("/device/cancel", h.deviceCancel)
	auth.POST("/signout", h.signOut)

	api.GET("/connectivity", h.connectivity)
}

type connectRequest struct {
	URL        string `json:"url" binding:"required"`
	AuthMethod string `json:"authMethod" binding:"required"`
	PAT        string `json:"pat"`
	Branch     string `json:"branch"`
}

// connect handles POST /api/v1/repo/connect.
func (h *Handler) connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	method, err := domain.ParseAuthMethod(req.AuthMethod)
	if err != nil {
		writeBindError(c, err)
		return
	}

	connected, err := h.connector.Connect(c.Request.Context(), req.URL, method, req.PAT, req.Branch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toConnectedRepositoryDTO(connected))
}

type infoRequest struct {
	URL        string `json:"url" binding:"required"`
	AuthMethod string `json:"authMethod" binding:"required"`
}

// repositoryInfo handles POST /api/v1/repo/info. It never starts an
// interactive authorization; the UI calls it to fill the branch picker
// before the user commits to a connection.
func (h *Handler) repositoryInfo(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	method, err := domain.ParseAuthMethod(req.AuthMethod)
	if err != nil {
		writeBindError(c, err)
		return
	}

	info, err := h.connector.FetchRepositoryInfo(c.Request.Context(), req.URL, method)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRepositoryInfoDTO(info))
}

type treeRequest struct {
	RepositoryID string `json:"repositoryId" binding:"required"`
	Branch       string `json:"branch"`
	MarkdownOnly bool   `json:"markdownOnly"`
	Refresh      bool   `json:"refresh"`
}

// tree handles POST /api/v1/repo/tree. With refresh set the cached
// snapshot is dropped first, so the answer is always a live fetch.
func (h *Handler) tree(c *gin.Context) {
	var req treeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	fetch := h.connector.FetchTree
	if req.Refresh {
		fetch = h.connector.RefreshTree
	}
	result, err := fetch(
		c.Request.Context(), domain.RepositoryID(req.RepositoryID), req.Branch, req.MarkdownOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTreeDTO(result))
}

// cachedTree handles POST /api/v1/repo/cached-tree. A cache miss answers
// 204 so the UI can tell "nothing cached" from an empty tree.
func (h *Handler) cachedTree(c *gin.Context) {
	var req treeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, ok := h.connector.CachedTree(
		domain.RepositoryID(req.RepositoryID), req.Branch, req.MarkdownOnly)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, toTreeDTO(result))
}

type fileRequest struct {
	RepositoryID string `json:"repositoryId" binding:"required"`
	Branch       string `json:"branch"`
	Path         string `json:"path" binding:"required"`
}

// file handles POST /api/v1/repo/file.
func (h *Handler) file(c *gin.Context) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	content, err := h.connector.FetchFile(
		c.Request.Context(), domain.RepositoryID(req.RepositoryID), req.Branch, req.Path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileDTO(content))
}

type disconnectRequest struct {
	RepositoryID string `json:"repositoryId" binding:"required"`
}

// disconnect handles POST /api/v1/repo/disconnect.
func (h *Handler) disconnect(c *gin.Context) {
	var req disconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.connector.Disconnect(domain.RepositoryID(req.RepositoryID)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type deviceInitiateRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// deviceInitiate handles POST /api/v1/auth/device/initiate.
func (h *Handler) deviceInitiate(c *gin.Context) {
	var req deviceInitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		writeError(c, err)
		return
	}

	session, err := h.device.Initiate(c.Request.Context(), provider)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeviceSessionDTO(session))
}

type deviceSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// deviceStatus handles POST /api/v1/auth/device/status. The UI polls it;
// the authenticator decides whether a tick actually reaches the provider.
func (h *Handler) deviceStatus(c *gin.Context) {
	var req deviceSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	session, err := h.device.CheckStatus(c.Request.Context(), req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeviceSessionDTO(session))
}

// deviceCancel handles POST /api/v1/auth/device/cancel.
func (h *Handler) deviceCancel(c *gin.Context) {
	var req deviceSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	session, err := h.device.Cancel(req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeviceSessionDTO(session))
}

type signOutRequest struct {
	Provider     string `json:"provider"`
	RepositoryID string `json:"repositoryId"`
	AuthMethod   string `json:"authMethod"`
}

// signOut handles POST /api/v1/auth/signout. With a provider it drops the
// provider-wide OAuth token; with a repository id it drops that
// repository's credentials, optionally narrowed to one auth method.
func (h *Handler) signOut(c *gin.Context) {
	var req signOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	switch {
	case req.Provider != "":
		provider, err := domain.ParseProvider(req.Provider)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := h.connector.SignOut(provider); err != nil {
			writeError(c, err)
			return
		}
	case req.RepositoryID != "":
		var method domain.AuthMethod
		if req.AuthMethod != "" {
			parsed, err := domain.ParseAuthMethod(req.AuthMethod)
			if err != nil {
				writeBindError(c, err)
				return
			}
			method = parsed
		}
		if err := h.connector.ForgetCredential(
			domain.RepositoryID(req.RepositoryID), method); err != nil {
			writeError(c, err)
			return
		}
	default:
		writeBindError(c, errors.New("either provider or repositoryId is required"))
		return
	}
	c.Status(http.StatusNoContent)
}

// connectivity handles GET /api/v1/connectivity. Without a provider query
// it reports the last known statuses, probing live only when the watcher
// has not run yet; with one it always probes live.
func (h *Handler) connectivity(c *gin.Context) {
	if raw := c.Query("provider"); raw != "" {
		provider, err := domain.ParseProvider(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		status, err := h.monitor.Check(c.Request.Context(), provider)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, connectivityDTO{
			Statuses: []providerStatusDTO{toProviderStatusDTO(status)},
		})
		return
	}

	statuses := h.monitor.Statuses()
	if len(statuses) == 0 {
		statuses = h.monitor.CheckAll(c.Request.Context())
	}
	dtos := make([]providerStatusDTO, 0, len(statuses))
	for _, status := range statuses {
		dtos = append(dtos, toProviderStatusDTO(status))
	}
	c.JSON(http.StatusOK, connectivityDTO{Statuses: dtos})
}

// health handles GET /healthz.
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
