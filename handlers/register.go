package handlers

import "github.com/gin-gonic/gin"

// Register mounts every forum endpoint. Moderation endpoints go on admin,
// which the caller may guard; everything else goes on public.
func (h *Handler) Register(public, admin gin.IRoutes) {
	// Posts
	public.GET("/posts", h.GetPosts)
	public.GET("/posts-count", h.GetPostsCount)
	public.GET("/posts-count/:email", h.GetAuthorPostsCount)
	public.GET("/post/:id", h.GetPost)
	public.POST("/add-post", h.CreatePost)
	public.PATCH("/update-vote/:id", h.UpdateVote)
	public.GET("/my-posts/:email", h.GetMyPosts)
	public.DELETE("/delete-post/:id", h.DeletePost)

	// Users
	public.PUT("/user", h.UpsertUser)
	public.GET("/user/:email", h.GetUser)
	public.GET("/users/admin/:email", h.IsAdmin)
	public.POST("/jwt", h.IssueToken)
	admin.GET("/users", h.GetUsers)
	admin.GET("/users-count", h.GetUsersCount)
	admin.PATCH("/update-role/:email", h.UpdateRole)

	// Premium
	public.POST("/create-payment-intent", h.CreatePaymentIntent)
	public.POST("/premium-users", h.CreatePremiumUser)

	// Comments and reports
	public.POST("/post-comment", h.CreateComment)
	public.GET("/comments/:id", h.GetComments)
	public.GET("/comments-count/:id", h.GetCommentsCount)
	public.POST("/post-comment-reports", h.CreateReport)
	admin.GET("/get-reported-comments", h.GetReports)
	admin.DELETE("/remove-reported-comment/:id", h.RemoveReport)
	admin.DELETE("/delete-reported-comment/:id", h.DeleteReportedComment)

	// Announcements, tags, stats
	public.GET("/announcements", h.GetAnnouncements)
	public.GET("/announcements-count", h.GetAnnouncementsCount)
	admin.POST("/announcements", h.CreateAnnouncement)
	public.GET("/tags", h.GetTags)
	admin.POST("/tags", h.CreateTag)
	admin.GET("/admin-stats", h.AdminStats)

	// Push subscriptions
	public.GET("/vapid-public-key", h.GetVapidPublicKey)
	public.POST("/subscribe", h.SubscribePush)
}
