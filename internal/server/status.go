package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	logdomain "github.com/gymgate/gymgate/internal/systemlog/domain"
)

const pingTimeout = 3 * time.Second

// Status reports the health snapshot after probing the upstream so the
// dashboard sees current reachability, not the last incidental observation.
func (s *Server) Status(c *gin.Context) {
	if s.cfg.SquareConfigured() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		_ = s.squareClient.Ping(ctx)
		cancel()
	}

	c.JSON(http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) ListLogs(c *gin.Context) {
	var req logdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.logSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type purgeRequest struct {
	Before time.Time `json:"before" binding:"required"`
}

// Purge trims ledger rows and audit entries older than the given instant.
func (s *Server) Purge(c *gin.Context) {
	var req purgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	checkIns, err := s.checkinSvc.PurgeOlderThan(c.Request.Context(), req.Before)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	logs, err := s.logSvc.PurgeOlderThan(c.Request.Context(), req.Before)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"check_ins_deleted": checkIns,
		"logs_deleted":      logs,
	})
}

func (s *Server) ResetStatus(c *gin.Context) {
	s.tracker.Reset()
	c.JSON(http.StatusOK, gin.H{"reset": true})
}
