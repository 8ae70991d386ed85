package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"talkthreads/events"
	"talkthreads/models"
)

type CreateAnnouncementRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	AuthorInfo  models.AuthorInfo `json:"authorInfo"`
}

type CreateTagRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) GetAnnouncements(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.store.ListAnnouncements(ctx)
	if err != nil {
		storeError(c, "GetAnnouncements", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetAnnouncementsCount(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.store.CountAnnouncements(ctx)
	if err != nil {
		storeError(c, "GetAnnouncementsCount", err)
		return
	}
	c.JSON(http.StatusOK, models.CountResult{Count: n})
}

func (h *Handler) CreateAnnouncement(c *gin.Context) {
	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a := models.Announcement{
		Title:       req.Title,
		Description: req.Description,
		AuthorInfo:  req.AuthorInfo,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	id, err := h.store.CreateAnnouncement(ctx, &a)
	if err != nil {
		storeError(c, "CreateAnnouncement", err)
		return
	}

	h.publish(ctx, events.AnnouncementCreated, a)
	c.JSON(http.StatusCreated, models.NewInsertResult(id))
}

func (h *Handler) GetTags(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	tags, err := h.store.ListTags(ctx)
	if err != nil {
		storeError(c, "GetTags", err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handler) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tag := models.Tag{Name: req.Name}

	ctx, cancel := h.ctx(c)
	defer cancel()

	id, err := h.store.CreateTag(ctx, &tag)
	if err != nil {
		storeError(c, "CreateTag", err)
		return
	}

	h.publish(ctx, events.TagCreated, tag)
	c.JSON(http.StatusCreated, models.NewInsertResult(id))
}

// AdminStats counts users, posts and comments independently.
func (h *Handler) AdminStats(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		storeError(c, "AdminStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
