package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	checkindomain "github.com/gymgate/gymgate/internal/checkin/domain"
)

type checkInRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// CheckIn decides one kiosk admission attempt. Business rejections are
// 200 responses with success=false; only malformed requests get an error
// status.
func (s *Server) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	verdict := s.admissionSvc.CheckIn(c.Request.Context(), req.PhoneNumber)
	c.JSON(http.StatusOK, verdict)
}

func (s *Server) ListCheckIns(c *gin.Context) {
	var req checkindomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.checkinSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stats, err := s.checkinSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"check_ins":   resp.CheckIns,
		"total":       resp.Total,
		"page":        resp.Page,
		"limit":       resp.Limit,
		"total_pages": resp.TotalPages,
		"stats":       stats,
	})
}
