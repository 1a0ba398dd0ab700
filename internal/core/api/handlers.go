// Package api exposes smart folder resolution and rule management over
// HTTP using gin.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bkarjoo/fastgtd-sub000/internal/core/auth"
	"github.com/bkarjoo/fastgtd-sub000/internal/core/service"
	"github.com/bkarjoo/fastgtd-sub000/internal/types"
)

// Handlers binds the smart folder and rule services to HTTP routes.
type Handlers struct {
	folders *service.Service
	rules   *service.RuleService
	log     *slog.Logger
}

// NewHandlers wires the HTTP handler set.
func NewHandlers(folders *service.Service, rules *service.RuleService, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{folders: folders, rules: rules, log: log}
}

// Register attaches all routes to the router. Everything except the
// health probe requires an owner identity.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/health", h.health)

	authed := r.Group("/", auth.RequireOwner())
	authed.GET("/nodes/:id/contents", h.contents)
	authed.POST("/smart_folder/preview", h.preview)

	authed.GET("/rules", h.listRules)
	authed.POST("/rules", h.createRule)
	authed.GET("/rules/:id", h.getRule)
	authed.PUT("/rules/:id", h.updateRule)
	authed.DELETE("/rules/:id", h.deleteRule)
	authed.POST("/rules/:id/duplicate", h.duplicateRule)
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) contents(c *gin.Context) {
	owner, _ := auth.OwnerFromContext(c)
	folderID, err := types.ParseNodeID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}
	limit, offset := pageParams(c)

	rs, err := h.folders.Contents(c.Request.Context(), owner, folderID, limit, offset)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

type previewRequest struct {
	Logic      types.Logic       `json:"logic"`
	Conditions []types.Condition `json:"conditions"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}

func (h *Handlers) preview(c *gin.Context) {
	owner, _ := auth.OwnerFromContext(c)
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rd := types.RuleData{Logic: req.Logic, Conditions: req.Conditions}
	rs, err := h.folders.Preview(c.Request.Context(), owner, rd, req.Limit, req.Offset)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (h *Handlers) listRules(c *gin.Context) {
	owner, _ := auth.OwnerFromContext(c)
	includePublic := c.Query("include_public") == "true"
	includeSystem := c.Query("include_system") == "true"

	list, err := h.rules.List(c.Request.Context(), owner, includePublic, includeSystem)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": list})
}

type ruleRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	RuleData    types.RuleData `json:"rule_data"`
	IsPublic    bool           `json:"is_public"`
}

func (r *ruleRequest) params() service.CreateParams {
	return service.CreateParams{
		Name:        r.Name,
		Description: r.Description,
		RuleData:    r.RuleData,
		IsPublic:    r.IsPublic,
	}
}

func (h *Handlers) createRule(c *gin.Context) {
	owner, _ := auth.OwnerFromContext(c)
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rule, err := h.rules.Create(c.Request.Context(), owner, req.params())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *Handlers) getRule(c *gin.Context) {
	owner, _ := auth.OwnerFromContext(c)
	id, err := types.ParseRuleID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}

	rule, err := h.rules.Get(c.Request.Context(), id, owner)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *Handlers) updateRule(c *gin.Context) {
	owner, _ := auth.OwnerFromContext(c)
	id, err := types.ParseRuleID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rule, err := h.rules.Update(c.Request.Context(), id, owner, req.params())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *Handlers) deleteRule(c *gin.Context) {
	owner, _ := auth.OwnerFromContext(c)
	id, err := types.ParseRuleID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}

	if err := h.rules.Delete(c.Request.Context(), id, owner); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) duplicateRule(c *gin.Context) {
	owner, _ := auth.OwnerFromContext(c)
	id, err := types.ParseRuleID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	// Body is optional; an empty body means default naming.
	_ = c.ShouldBindJSON(&req)

	rule, err := h.rules.Duplicate(c.Request.Context(), id, owner, req.Name)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// renderError maps service errors to HTTP statuses. Malformed rules are
// the caller's fault; not-found covers invisible resources so nothing
// leaks; everything else is a dependency failure.
func (h *Handlers) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrBadRule):
		body := gin.H{"error": err.Error()}
		var ce *types.ConditionError
		if errors.As(err, &ce) {
			body["condition_index"] = ce.Index
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, types.ErrRuleNotFound),
		errors.Is(err, types.ErrSmartFolderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	}
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}
