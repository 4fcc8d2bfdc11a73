package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"levelup/internal/engine"
	"levelup/internal/storage"
)

const maxBodySize = 16 << 10

type setXPRequest struct {
	XP *int `json:"xp"`
}

type setPlanRequest struct {
	Plan string `json:"plan"`
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
	})
}

func (s *Server) storeError(c *gin.Context, op string, err error) {
	if errors.Is(err, storage.ErrInvalidUser) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Printf("Warning: %s failed: %v", op, err)
	fail(c, http.StatusInternalServerError, "internal error")
}

func (s *Server) requireAdmin(c *gin.Context) {
	if s.adminToken == "" {
		c.Next()
		return
	}
	got := c.GetHeader(AdminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.adminToken)) != 1 {
		fail(c, http.StatusUnauthorized, "admin token required")
		return
	}
	c.Next()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGetXP(c *gin.Context) {
	snap, err := s.store.FetchXP(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, "fetch xp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"xp":      snap.XP,
		"level":   snap.Level,
	})
}

func (s *Server) handleAddXP(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	var gain engine.XPGain
	if err := c.ShouldBindJSON(&gain); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	gain.Reason = strings.TrimSpace(gain.Reason)
	if gain.Reason == "" {
		fail(c, http.StatusBadRequest, "reason is required")
		return
	}

	total, err := s.store.AddXP(c.Request.Context(), c.Param("id"), gain)
	if err != nil {
		s.storeError(c, "add xp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"xp":      total,
		"level":   s.levels.LevelFor(total).Level,
	})
}

func (s *Server) handleGetPlan(c *gin.Context) {
	plan, err := s.store.FetchPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, "fetch plan", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"plan":     plan.Plan,
		"maxLevel": plan.MaxLevel,
	})
}

func (s *Server) handleSetXP(c *gin.Context) {
	var req setXPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.XP == nil {
		fail(c, http.StatusBadRequest, "xp is required")
		return
	}
	if *req.XP < 0 {
		fail(c, http.StatusBadRequest, "xp must be non-negative")
		return
	}

	snap, err := s.store.SetXP(c.Request.Context(), c.Param("id"), *req.XP)
	if err != nil {
		s.storeError(c, "set xp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"xp":      snap.XP,
		"level":   snap.Level,
	})
}

func (s *Server) handleSetPlan(c *gin.Context) {
	var req setPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	plan, err := engine.ParsePlan(req.Plan)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SetPlan(c.Request.Context(), c.Param("id"), plan); err != nil {
		s.storeError(c, "set plan", err)
		return
	}
	sub := engine.SubscriptionFor(plan)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"plan":     sub.Plan,
		"maxLevel": sub.MaxLevel,
	})
}
