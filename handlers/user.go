package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"talkthreads/events"
	"talkthreads/models"
)

// UpsertUserRequest carries only the profile fields a client may set.
// Role, badge and premium status change through /update-role and
// /premium-users.
type UpsertUserRequest struct {
	Email    string `json:"email" binding:"required"`
	UserName string `json:"userName"`
	Photo    string `json:"photo"`
}

// UpsertUser stores the user on first login as a regular, non-premium
// member. A user that already exists is returned untouched, whatever the
// body says.
func (h *Handler) UpsertUser(c *gin.Context) {
	var req UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, created, err := h.store.UpsertUser(ctx, &models.User{
		Email:    req.Email,
		UserName: req.UserName,
		Photo:    req.Photo,
	})
	if err != nil {
		storeError(c, "UpsertUser", err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "user already exists", "insertedId": nil})
		return
	}

	h.publish(ctx, events.UserCreated, user)
	c.JSON(http.StatusCreated, models.NewInsertResult(user.ID))
}

// UpdateRole merges the supplied fields into the user, creating it when
// absent.
func (h *Handler) UpdateRole(c *gin.Context) {
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	email := c.Param("email")
	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.store.UpdateUser(ctx, email, patch)
	if err != nil {
		storeError(c, "UpdateRole", err)
		return
	}

	h.publish(ctx, events.UserUpdated, gin.H{"email": email, "changes": patch})
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetUsers(c *gin.Context) {
	q := models.ListQuery{Search: c.Query("search"), Page: parsePage(c)}

	ctx, cancel := h.ctx(c)
	defer cancel()

	users, err := h.store.ListUsers(ctx, q)
	if err != nil {
		storeError(c, "GetUsers", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUsersCount(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.store.CountUsers(ctx, c.Query("search"))
	if err != nil {
		storeError(c, "GetUsersCount", err)
		return
	}
	c.JSON(http.StatusOK, models.CountResult{Count: n})
}

func (h *Handler) GetUser(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.store.GetUser(ctx, c.Param("email"))
	if err != nil {
		storeError(c, "GetUser", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// IsAdmin answers {admin: false} for unknown emails rather than 404.
func (h *Handler) IsAdmin(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.store.GetUser(ctx, c.Param("email"))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		storeError(c, "IsAdmin", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": err == nil && user.IsAdmin()})
}
