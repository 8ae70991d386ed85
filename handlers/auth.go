package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"talkthreads/middleware"
)

type TokenRequest struct {
	IDToken string `json:"idToken"`
}

// IssueToken exchanges an identity provider token for a session token used
// on the moderation routes. The email comes from the verified identity
// token, never from the request body.
func (h *Handler) IssueToken(c *gin.Context) {
	if h.jwtSecret == "" || h.identitySecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Token issuance is not configured"})
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	idToken := strings.TrimSpace(req.IDToken)
	if idToken == "" {
		idToken = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if idToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identity token required"})
		return
	}

	email, err := middleware.VerifyIdentityToken(h.identitySecret, idToken)
	if err != nil {
		log.Printf("[IssueToken] identity token rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid identity token"})
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, email, h.tokenTTL)
	if err != nil {
		log.Printf("[IssueToken] sign error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
