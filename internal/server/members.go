package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	memberdomain "github.com/gymgate/gymgate/internal/member/domain"
)

func (s *Server) ListMembers(c *gin.Context) {
	var req memberdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	// The dashboard search box posts ?q=.
	if q := c.Query("q"); q != "" && req.Search == "" {
		req.Search = q
	}

	resp, err := s.memberSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stats, err := s.memberSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members":     resp.Members,
		"total":       resp.Total,
		"page":        resp.Page,
		"limit":       resp.Limit,
		"total_pages": resp.TotalPages,
		"stats":       stats,
	})
}

func (s *Server) RenewalReport(c *gin.Context) {
	entries, err := s.renewalSvc.Report(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"renewals": entries,
		"total":    len(entries),
	})
}
