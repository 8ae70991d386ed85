package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"talkthreads/events"
	"talkthreads/models"
)

type CreatePostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
	AuthorInfo  struct {
		Name  string `json:"name"`
		Email string `json:"email" binding:"required"`
		Image string `json:"image"`
	} `json:"authorInfo"`
	UpVote   int64 `json:"upvote" binding:"min=0"`
	DownVote int64 `json:"downvote" binding:"min=0"`
}

// GetPosts lists posts filtered by tag. popular=true ranks them by
// upvote minus downvote instead of date.
func (h *Handler) GetPosts(c *gin.Context) {
	q := models.PostQuery{
		Search:  c.Query("search"),
		Popular: c.Query("popular") == "true",
		Page:    parsePage(c),
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	posts, err := h.store.ListPosts(ctx, q)
	if err != nil {
		storeError(c, "GetPosts", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) GetPostsCount(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.store.CountPosts(ctx, c.Query("search"))
	if err != nil {
		storeError(c, "GetPostsCount", err)
		return
	}
	c.JSON(http.StatusOK, models.CountResult{Count: n})
}

func (h *Handler) GetAuthorPostsCount(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.store.CountPostsByAuthor(ctx, c.Param("email"))
	if err != nil {
		storeError(c, "GetAuthorPostsCount", err)
		return
	}
	c.JSON(http.StatusOK, models.CountResult{Count: n})
}

func (h *Handler) GetPost(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	post, err := h.store.GetPost(ctx, id)
	if err != nil {
		storeError(c, "GetPost", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := models.Post{
		Title:       req.Title,
		Description: req.Description,
		Tag:         strings.TrimSpace(req.Tag),
		AuthorInfo: models.AuthorInfo{
			Name:  req.AuthorInfo.Name,
			Email: req.AuthorInfo.Email,
			Image: req.AuthorInfo.Image,
		},
		UpVote:   req.UpVote,
		DownVote: req.DownVote,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	id, err := h.store.CreatePost(ctx, &post)
	if err != nil {
		storeError(c, "CreatePost", err)
		return
	}

	h.publish(ctx, events.PostCreated, post)
	c.JSON(http.StatusCreated, models.NewInsertResult(id))
}

// UpdateVote adds one upvote or downvote. Any other vote value is
// rejected before the store is touched.
func (h *Handler) UpdateVote(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	kind, err := models.ParseVoteKind(c.Query("vote"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.store.IncrementVote(ctx, id, kind)
	if err != nil {
		storeError(c, "UpdateVote", err)
		return
	}
	if res.MatchedCount == 0 {
		notFound(c, "Post")
		return
	}

	h.publish(ctx, events.PostVoted, gin.H{"postId": id.Hex(), "vote": kind})
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetMyPosts(c *gin.Context) {
	var ascending bool
	switch c.DefaultQuery("dateSort", "descending") {
	case "ascending":
		ascending = true
	case "descending":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "dateSort must be ascending or descending"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	posts, err := h.store.ListPostsByAuthor(ctx, c.Param("email"), ascending)
	if err != nil {
		storeError(c, "GetMyPosts", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.store.DeletePost(ctx, id)
	if err != nil {
		storeError(c, "DeletePost", err)
		return
	}
	if n == 0 {
		notFound(c, "Post")
		return
	}

	h.publish(ctx, events.PostDeleted, gin.H{"postId": id.Hex()})
	c.JSON(http.StatusOK, models.DeleteResult{Acknowledged: true, DeletedCount: n})
}
