// Package httpapi exposes the dashboard REST surface.
// Keep handlers thin: parse/validate input, call internal services, return JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"calldash/internal/audit"
	"calldash/internal/auth"
	"calldash/internal/calls"
	"calldash/internal/export"
	"calldash/internal/filter"
	"calldash/internal/metrics"
	"calldash/internal/rbac"
	"calldash/internal/store"
	syncsvc "calldash/internal/sync"
	"calldash/internal/users"
	"calldash/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Auth    *auth.Manager
	Users   *users.Service
	Sync    *syncsvc.Service
	Repo    store.Repository
	History *audit.Service

	// DefaultRate prices calls when the request does not override it.
	DefaultRate float64

	// Ready reports backing-store health; nil means the in-memory profile,
	// which is always ready.
	Ready func(ctx context.Context) error
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	u, err := h.Users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.Auth.Issue(time.Now(), u.Username, u.Role, u.AgentID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"username": u.Username, "role": u.Role, "agent_id": u.AgentID},
	})
}

// --- Calls ---

// agentScope resolves which agent's calls the caller may see. Admins see
// everything unless they narrow with ?agent_id=.
func agentScope(c *gin.Context) string {
	role, _ := auth.Role(c.Request.Context())
	if rbac.IsAdmin(role) {
		return c.Query("agent_id")
	}
	return auth.AgentID(c.Request.Context())
}

func parseFilters(c *gin.Context) (filter.Filters, error) {
	f := filter.Filters{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Direction: c.Query("direction"),
		Status:    c.Query("status"),
	}
	return f, f.Validate()
}

// loadCalls fetches the caller's visible calls with request filters applied.
func (h Handlers) loadCalls(c *gin.Context) ([]calls.Call, bool) {
	f, err := parseFilters(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	list, err := h.Repo.ListCalls(c.Request.Context(), store.ListOptions{AgentID: agentScope(c)})
	if err != nil {
		logger.FromGin(c).Error("list calls failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return nil, false
	}
	return filter.Apply(list, f), true
}

func (h Handlers) ListCalls(c *gin.Context) {
	filtered, ok := h.loadCalls(c)
	if !ok {
		return
	}

	total := len(filtered)
	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 0)
	if offset > 0 {
		if offset >= len(filtered) {
			filtered = filtered[:0]
		} else {
			filtered = filtered[offset:]
		}
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	c.JSON(http.StatusOK, gin.H{"calls": filtered, "total": total})
}

// CreateCall inserts or refreshes one call directly, bypassing the
// provider. Same upsert semantics as sync: the external id never
// duplicates.
func (h Handlers) CreateCall(c *gin.Context) {
	var in calls.Call
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid call payload"})
		return
	}
	if in.ExternalID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}
	if in.Status == "" {
		in.Status = calls.StatusCompleted
	}
	if !calls.ValidStatus(in.Status) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if in.Direction == "" {
		in.Direction = calls.DirectionInbound
	}
	if !calls.ValidDirection(in.Direction) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid direction"})
		return
	}
	if in.DurationSeconds < 0 {
		in.DurationSeconds = 0
	}
	// Non-admin callers can only write into their own agent scope.
	if role, _ := auth.Role(c.Request.Context()); !rbac.IsAdmin(role) {
		in.AgentID = auth.AgentID(c.Request.Context())
	}
	now := time.Now().UnixMilli()
	if in.CreatedAt <= 0 {
		in.CreatedAt = now
	}
	in.UpdatedAt = now

	created, err := h.Repo.UpsertCall(c.Request.Context(), in)
	if err != nil {
		logger.FromGin(c).Error("direct upsert failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"created": created, "call_id": in.ExternalID})
}

func (h Handlers) DeleteAllCalls(c *gin.Context) {
	n, err := h.Repo.DeleteAllCalls(c.Request.Context(), agentScope(c))
	if err != nil {
		logger.FromGin(c).Error("delete calls failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// --- Sync ---

func (h Handlers) TriggerSync(c *gin.Context) {
	report, err := h.Sync.Sync(c.Request.Context(), audit.TriggerManual)
	if err != nil {
		if errors.Is(err, syncsvc.ErrSyncInProgress) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "sync already running"})
			return
		}
		logger.FromGin(c).Error("manual sync failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "provider sync failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h Handlers) SyncHistory(c *gin.Context) {
	runs, err := h.History.Recent(c.Request.Context(), intQuery(c, "limit", 20))
	if err != nil {
		logger.FromGin(c).Error("sync history failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// --- Metrics ---

func (h Handlers) MetricsSummary(c *gin.Context) {
	filtered, ok := h.loadCalls(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, metrics.ComputeSummary(filtered, h.rate(c)))
}

func (h Handlers) MetricsDaily(c *gin.Context) {
	filtered, ok := h.loadCalls(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": metrics.DailySeries(c.Request.Context(), filtered, h.rate(c))})
}

// --- Export ---

func (h Handlers) ExportCSV(c *gin.Context) {
	filtered, ok := h.loadCalls(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="calls.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	if err := export.WriteCSV(c.Writer, filtered, h.rate(c)); err != nil {
		logger.FromGin(c).Error("csv export failed", "err", err)
	}
}

func (h Handlers) ExportXLSX(c *gin.Context) {
	filtered, ok := h.loadCalls(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="calls.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := export.WriteXLSX(c.Writer, filtered, h.rate(c)); err != nil {
		logger.FromGin(c).Error("xlsx export failed", "err", err)
	}
}

// --- Users ---

func (h Handlers) CreateUser(c *gin.Context) {
	var in users.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.Create(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateUsername) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h Handlers) UpdateUser(c *gin.Context) {
	var in users.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Users.Update(c.Request.Context(), c.Param("username"), in)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h Handlers) ListUsers(c *gin.Context) {
	list, err := h.Users.List(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list users failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// --- helpers ---

// rate returns the pricing rate for this request; ?rate= overrides the
// configured default so the UI cost slider works without persisting.
func (h Handlers) rate(c *gin.Context) float64 {
	if raw := c.Query("rate"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			return v
		}
	}
	return h.DefaultRate
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
