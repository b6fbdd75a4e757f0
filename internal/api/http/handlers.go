// Package http exposes the daemon's REST surface: session lifecycle,
// provider management, and visibility control for the rendering layer and
// local tooling.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hovershell/core/internal/infrastructure/logging"
	"github.com/hovershell/core/internal/provider"
	"github.com/hovershell/core/internal/router"
	"github.com/hovershell/core/internal/session"
	"github.com/hovershell/core/internal/shared/types"
	"github.com/hovershell/core/internal/trigger"
)

// Handlers bundles the REST endpoints over the core components.
type Handlers struct {
	log         *logging.Logger
	sessions    *session.Registry
	providers   *provider.Registry
	coordinator *trigger.Coordinator
	router      *router.Router
	registry    *prometheus.Registry
}

// NewHandlers creates the handler set.
func NewHandlers(sessions *session.Registry, providers *provider.Registry, coordinator *trigger.Coordinator, rt *router.Router, promReg *prometheus.Registry, log *logging.Logger) *Handlers {
	return &Handlers{
		log:         log,
		sessions:    sessions,
		providers:   providers,
		coordinator: coordinator,
		router:      rt,
		registry:    promReg,
	}
}

// Register attaches all routes to the engine.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))

	r.GET("/sessions", h.ListSessions)
	r.POST("/sessions", h.CreateSession)
	r.GET("/sessions/:id", h.GetSession)
	r.DELETE("/sessions/:id", h.CloseSession)
	r.POST("/sessions/:id/activate", h.ActivateSession)
	r.POST("/sessions/next", h.ActivateNext)
	r.POST("/sessions/prev", h.ActivatePrev)
	r.GET("/sessions/:id/scrollback", h.GetScrollback)
	r.POST("/sessions/:id/resize", h.ResizeSession)
	r.POST("/sessions/:id/submit", h.SubmitInput)
	r.POST("/sessions/:id/cancel", h.CancelAI)

	r.GET("/providers", h.ListProviders)
	r.POST("/providers/:id/default", h.SetDefaultProvider)
	r.POST("/providers/:id/enable", h.EnableProvider)
	r.POST("/providers/:id/disable", h.DisableProvider)

	r.GET("/visibility", h.GetVisibility)
	r.POST("/visibility/menu", h.MenuAction)
	r.POST("/visibility/settled", h.Settled)
}

// Root returns service identity.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "hovershell-core",
		"status":  "running",
	})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": len(h.sessions.List()),
	})
}

type createSessionRequest struct {
	Title            string `json:"title"`
	WorkingDirectory string `json:"working_directory"`
	Cols             int    `json:"cols"`
	Rows             int    `json:"rows"`
	DedupKey         string `json:"dedup_key"`
}

// CreateSession opens a session and activates it.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.sessions.Create(session.CreateOptions{
		Title:            req.Title,
		WorkingDirectory: req.WorkingDirectory,
		Cols:             req.Cols,
		Rows:             req.Rows,
		DedupKey:         req.DedupKey,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// ListSessions returns all sessions in creation order.
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active_id": h.sessions.ActiveID(),
		"sessions":  h.sessions.List(),
	})
}

// GetSession returns one session.
func (h *Handlers) GetSession(c *gin.Context) {
	summary, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CloseSession closes a session.
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_id": h.sessions.ActiveID()})
}

// ActivateSession makes a session active.
func (h *Handlers) ActivateSession(c *gin.Context) {
	if err := h.sessions.Activate(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivateNext cycles activation forward.
func (h *Handlers) ActivateNext(c *gin.Context) {
	h.sessions.ActivateNext()
	c.JSON(http.StatusOK, gin.H{"active_id": h.sessions.ActiveID()})
}

// ActivatePrev cycles activation backward.
func (h *Handlers) ActivatePrev(c *gin.Context) {
	h.sessions.ActivatePrev()
	c.JSON(http.StatusOK, gin.H{"active_id": h.sessions.ActiveID()})
}

// GetScrollback returns the session's buffered lines.
func (h *Handlers) GetScrollback(c *gin.Context) {
	lines, err := h.sessions.Scrollback(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

type resizeRequest struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// ResizeSession propagates new dimensions to the shell.
func (h *Handlers) ResizeSession(c *gin.Context) {
	var req resizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessions.Resize(c.Param("id"), req.Cols, req.Rows); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitInput finalizes the session's editor buffer and dispatches it.
func (h *Handlers) SubmitInput(c *gin.Context) {
	if err := h.sessions.Submit(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelAI aborts the session's in-flight ai request.
func (h *Handlers) CancelAI(c *gin.Context) {
	h.router.Cancel(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// ListProviders returns provider configurations with secrets elided.
func (h *Handlers) ListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.providers.List()})
}

// SetDefaultProvider moves the default flag.
func (h *Handlers) SetDefaultProvider(c *gin.Context) {
	if err := h.providers.SetDefault(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EnableProvider marks a provider usable.
func (h *Handlers) EnableProvider(c *gin.Context) {
	if err := h.providers.Enable(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DisableProvider takes a provider out of rotation.
func (h *Handlers) DisableProvider(c *gin.Context) {
	if err := h.providers.Disable(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetVisibility reports the current visibility state.
func (h *Handlers) GetVisibility(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.coordinator.State()})
}

type menuActionRequest struct {
	Action types.MenuAction `json:"action" binding:"required"`
}

// MenuAction feeds an explicit show/hide/toggle request to the coordinator.
func (h *Handlers) MenuAction(c *gin.Context) {
	var req menuActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Action {
	case types.MenuShow, types.MenuHide, types.MenuToggle:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	h.coordinator.OnMenuAction(req.Action)
	c.Status(http.StatusAccepted)
}

// Settled acknowledges a finished reveal/hide animation.
func (h *Handlers) Settled(c *gin.Context) {
	h.coordinator.Settled()
	c.Status(http.StatusAccepted)
}

// fail maps the error taxonomy onto HTTP statuses.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrParse), errors.Is(err, types.ErrIndex):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, types.ErrNoProvider):
		status = http.StatusConflict
	case errors.Is(err, types.ErrProvider):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
