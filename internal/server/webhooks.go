package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymgate/gymgate/internal/webhook"
)

const signatureHeader = "X-Square-Hmacsha256-Signature"

// SquareWebhook is the ingestion boundary: signature pass/fail here, event
// semantics in the webhook service.
func (s *Server) SquareWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if !s.verifySignature(body, c.GetHeader(signatureHeader)) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var event webhook.Event
	if err := json.Unmarshal(body, &event); err != nil || event.Type == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.webhookSvc.Handle(c.Request.Context(), event); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// verifySignature checks the HMAC-SHA256 digest Square sends with each
// delivery. An unset key disables verification for local development.
func (s *Server) verifySignature(body []byte, signature string) bool {
	key := s.cfg.SquareWebhookKey
	if key == "" {
		return true
	}
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
