package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"talkthreads/events"
	"talkthreads/models"
)

type CreateCommentRequest struct {
	PostID     string            `json:"post_id" binding:"required"`
	PostTitle  string            `json:"postTitle"`
	Body       string            `json:"body" binding:"required"`
	AuthorInfo models.AuthorInfo `json:"authorInfo"`
}

type CreateReportRequest struct {
	CommentID    string            `json:"commentId" binding:"required"`
	Comment      string            `json:"comment"`
	ReporterInfo models.AuthorInfo `json:"reporterInfo"`
	Reason       string            `json:"reason" binding:"required"`
}

func (h *Handler) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment := models.Comment{
		PostID:     req.PostID,
		PostTitle:  req.PostTitle,
		Body:       req.Body,
		AuthorInfo: req.AuthorInfo,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	id, err := h.store.CreateComment(ctx, &comment)
	if err != nil {
		storeError(c, "CreateComment", err)
		return
	}

	h.publish(ctx, events.CommentCreated, comment)
	c.JSON(http.StatusCreated, models.NewInsertResult(id))
}

// GetComments lists the comments of the post with the given id, oldest
// first. The id is matched as a plain string.
func (h *Handler) GetComments(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	comments, err := h.store.ListComments(ctx, c.Param("id"))
	if err != nil {
		storeError(c, "GetComments", err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) GetCommentsCount(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.store.CountComments(ctx, c.Param("id"))
	if err != nil {
		storeError(c, "GetCommentsCount", err)
		return
	}
	c.JSON(http.StatusOK, models.CountResult{Count: n})
}

func (h *Handler) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := models.Report{
		CommentID:    req.CommentID,
		Comment:      req.Comment,
		ReporterInfo: req.ReporterInfo,
		Reason:       req.Reason,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	id, err := h.store.CreateReport(ctx, &report)
	if err != nil {
		storeError(c, "CreateReport", err)
		return
	}

	h.publish(ctx, events.ReportCreated, report)
	c.JSON(http.StatusCreated, models.NewInsertResult(id))
}

func (h *Handler) GetReports(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	reports, err := h.store.ListReports(ctx)
	if err != nil {
		storeError(c, "GetReports", err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// RemoveReport resolves a report by deleting only the report record.
func (h *Handler) RemoveReport(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.store.DeleteReport(ctx, id)
	if err != nil {
		storeError(c, "RemoveReport", err)
		return
	}
	if n == 0 {
		notFound(c, "Report")
		return
	}

	h.publish(ctx, events.ReportRemoved, gin.H{"reportId": id.Hex()})
	c.JSON(http.StatusOK, models.DeleteResult{Acknowledged: true, DeletedCount: n})
}

// DeleteReportedComment deletes the comment itself. Reports pointing at it
// are left for RemoveReport.
func (h *Handler) DeleteReportedComment(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.store.DeleteComment(ctx, id)
	if err != nil {
		storeError(c, "DeleteReportedComment", err)
		return
	}
	if n == 0 {
		notFound(c, "Comment")
		return
	}

	h.publish(ctx, events.CommentDeleted, gin.H{"commentId": id.Hex()})
	c.JSON(http.StatusOK, models.DeleteResult{Acknowledged: true, DeletedCount: n})
}
