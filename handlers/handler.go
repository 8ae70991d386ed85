// Package handlers implements the forum's HTTP endpoints on top of a Store.
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"talkthreads/events"
	"talkthreads/models"
	"talkthreads/payments"
)

type PostStore interface {
	ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, error)
	CountPosts(ctx context.Context, search string) (int64, error)
	CountPostsByAuthor(ctx context.Context, email string) (int64, error)
	GetPost(ctx context.Context, id primitive.ObjectID) (models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) (primitive.ObjectID, error)
	IncrementVote(ctx context.Context, id primitive.ObjectID, kind models.VoteKind) (models.UpdateResult, error)
	ListPostsByAuthor(ctx context.Context, email string, ascending bool) ([]models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) (models.User, bool, error)
	UpdateUser(ctx context.Context, email string, patch models.UserPatch) (models.UpdateResult, error)
	ListUsers(ctx context.Context, q models.ListQuery) ([]models.User, error)
	CountUsers(ctx context.Context, search string) (int64, error)
	GetUser(ctx context.Context, email string) (models.User, error)
	UpgradePremium(ctx context.Context, p *models.PremiumUser) (primitive.ObjectID, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, c *models.Comment) (primitive.ObjectID, error)
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	CountComments(ctx context.Context, postID string) (int64, error)
	DeleteComment(ctx context.Context, id primitive.ObjectID) (int64, error)
	CreateReport(ctx context.Context, r *models.Report) (primitive.ObjectID, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	DeleteReport(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type SiteStore interface {
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	CountAnnouncements(ctx context.Context) (int64, error)
	CreateAnnouncement(ctx context.Context, a *models.Announcement) (primitive.ObjectID, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, t *models.Tag) (primitive.ObjectID, error)
	Stats(ctx context.Context) (models.AdminStats, error)
}

type PushStore interface {
	SavePushSubscription(ctx context.Context, sub *models.PushSubscription) error
}

// Store is everything the handlers read and write. *database.DB
// implements it.
type Store interface {
	PostStore
	UserStore
	CommentStore
	SiteStore
	PushStore
}

type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount int64) (payments.Intent, error)
	GetIntent(ctx context.Context, id string) (payments.Intent, error)
	// Currency is the ISO code intents are created in.
	Currency() string
}

// Options configures the optional collaborators. Zero values disable the
// matching feature: no Payments means the payment routes answer 503, no
// JWTSecret or IdentitySecret disables token issuance.
type Options struct {
	Payments       PaymentProvider
	Events         events.Publisher
	JWTSecret      string
	IdentitySecret string
	TokenTTL       time.Duration
	Timeout        time.Duration
	VAPIDPublicKey string
}

type Handler struct {
	store          Store
	payments       PaymentProvider
	events         events.Publisher
	jwtSecret      string
	identitySecret string
	tokenTTL       time.Duration
	timeout        time.Duration
	vapidPublicKey string
}

func New(store Store, opts Options) *Handler {
	h := &Handler{
		store:          store,
		payments:       opts.Payments,
		events:         opts.Events,
		jwtSecret:      opts.JWTSecret,
		identitySecret: opts.IdentitySecret,
		tokenTTL:       opts.TokenTTL,
		timeout:        opts.Timeout,
		vapidPublicKey: opts.VAPIDPublicKey,
	}
	if h.events == nil {
		h.events = events.Nop{}
	}
	if h.timeout <= 0 {
		h.timeout = 10 * time.Second
	}
	if h.tokenTTL <= 0 {
		h.tokenTTL = 24 * time.Hour
	}
	return h
}

// ctx bounds a store call by the request context and the handler timeout.
func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// publish never fails the request; sink errors are only logged.
func (h *Handler) publish(ctx context.Context, t events.Type, payload interface{}) {
	if err := h.events.Publish(ctx, events.New(t, payload)); err != nil {
		log.Printf("[Events] publish %s: %v", t, err)
	}
}
