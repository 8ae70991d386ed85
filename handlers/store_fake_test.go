package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"talkthreads/events"
	"talkthreads/models"
	"talkthreads/payments"
)

// memStore is an in-memory Store with the same ordering rules as the
// MongoDB queries.
type memStore struct {
	mu            sync.Mutex
	posts         []models.Post
	users         map[string]models.User
	comments      []models.Comment
	reports       []models.Report
	announcements []models.Announcement
	tags          []models.Tag
	premium       []models.PremiumUser
	subs          map[string]models.PushSubscription
	clock         time.Time
	fail          error
}

func newMemStore() *memStore {
	return &memStore{
		users: map[string]models.User{},
		subs:  map[string]models.PushSubscription{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick hands out strictly increasing dates.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func contains(field, search string) bool {
	return strings.Contains(strings.ToLower(field), strings.ToLower(strings.TrimSpace(search)))
}

func page[T any](items []T, p models.Page) []T {
	skip, limit := int(p.Skip()), int(p.Limit())
	if skip >= len(items) {
		return []T{}
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

func (s *memStore) ListPosts(_ context.Context, q models.PostQuery) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}

	var out []models.Post
	for _, p := range s.posts {
		if contains(p.Tag, q.Search) {
			out = append(out, p)
		}
	}
	if q.Popular {
		for i := range out {
			d := out[i].Score()
			out[i].VoteDifference = &d
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Score() != out[j].Score() {
				return out[i].Score() > out[j].Score()
			}
			return out[i].ID.Hex() > out[j].ID.Hex()
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].Date.Equal(out[j].Date) {
				return out[i].Date.After(out[j].Date)
			}
			return out[i].ID.Hex() > out[j].ID.Hex()
		})
	}
	return page(out, q.Page), nil
}

func (s *memStore) CountPosts(_ context.Context, search string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.posts {
		if contains(p.Tag, search) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountPostsByAuthor(_ context.Context, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.posts {
		if p.AuthorInfo.Email == email {
			n++
		}
	}
	return n, nil
}

func (s *memStore) GetPost(_ context.Context, id primitive.ObjectID) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Post{}, models.ErrNotFound
}

func (s *memStore) CreatePost(_ context.Context, post *models.Post) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post.ID = primitive.NewObjectID()
	if post.Date.IsZero() {
		post.Date = s.tick()
	}
	s.posts = append(s.posts, *post)
	return post.ID, nil
}

func (s *memStore) IncrementVote(_ context.Context, id primitive.ObjectID, kind models.VoteKind) (models.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID != id {
			continue
		}
		if kind == models.VoteUp {
			s.posts[i].UpVote++
		} else {
			s.posts[i].DownVote++
		}
		return models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return models.UpdateResult{Acknowledged: true}, nil
}

func (s *memStore) ListPostsByAuthor(_ context.Context, email string, ascending bool) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.posts {
		if p.AuthorInfo.Email == email {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *memStore) DeletePost(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *memStore) UpsertUser(_ context.Context, user *models.User) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.Email]; ok {
		return existing, false, nil
	}
	u := models.User{
		ID:        primitive.NewObjectID(),
		Email:     user.Email,
		UserName:  user.UserName,
		Photo:     user.Photo,
		Role:      models.RoleUser,
		TimeStamp: s.tick(),
	}
	s.users[u.Email] = u
	return u, true, nil
}

func (s *memStore) UpdateUser(_ context.Context, email string, patch models.UserPatch) (models.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	res := models.UpdateResult{Acknowledged: true}
	if ok {
		res.MatchedCount, res.ModifiedCount = 1, 1
	} else {
		u = models.User{ID: primitive.NewObjectID(), Email: email}
		res.UpsertedCount, res.UpsertedID = 1, u.ID.Hex()
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.UserName != nil {
		u.UserName = *patch.UserName
	}
	if patch.Photo != nil {
		u.Photo = *patch.Photo
	}
	if patch.Badge != nil {
		u.Badge = *patch.Badge
	}
	if patch.PremiumUser != nil {
		u.PremiumUser = *patch.PremiumUser
	}
	u.TimeStamp = s.tick()
	s.users[email] = u
	return res, nil
}

func (s *memStore) ListUsers(_ context.Context, q models.ListQuery) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if contains(u.UserName, q.Search) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return page(out, q.Page), nil
}

func (s *memStore) CountUsers(_ context.Context, search string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if contains(u.UserName, search) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) GetUser(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return models.User{}, s.fail
	}
	u, ok := s.users[email]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (s *memStore) UpgradePremium(_ context.Context, p *models.PremiumUser) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.premium {
		if existing.TransactionID == p.TransactionID {
			return primitive.NilObjectID, models.ErrDuplicate
		}
	}
	u, ok := s.users[p.Email]
	if !ok {
		return primitive.NilObjectID, models.ErrNotFound
	}
	p.ID = primitive.NewObjectID()
	s.premium = append(s.premium, *p)
	u.PremiumUser = true
	s.users[p.Email] = u
	return p.ID, nil
}

func (s *memStore) CreateComment(_ context.Context, c *models.Comment) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.Date = s.tick()
	s.comments = append(s.comments, *c)
	return c.ID, nil
}

func (s *memStore) ListComments(_ context.Context, postID string) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) CountComments(ctx context.Context, postID string) (int64, error) {
	list, _ := s.ListComments(ctx, postID)
	return int64(len(list)), nil
}

func (s *memStore) DeleteComment(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.comments {
		if c.ID == id {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *memStore) CreateReport(_ context.Context, r *models.Report) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = primitive.NewObjectID()
	r.Date = s.tick()
	s.reports = append(s.reports, *r)
	return r.ID, nil
}

func (s *memStore) ListReports(context.Context) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Report{}, s.reports...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *memStore) DeleteReport(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.reports {
		if r.ID == id {
			s.reports = append(s.reports[:i], s.reports[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *memStore) ListAnnouncements(context.Context) ([]models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Announcement{}, s.announcements...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *memStore) CountAnnouncements(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.announcements)), nil
}

func (s *memStore) CreateAnnouncement(_ context.Context, a *models.Announcement) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = primitive.NewObjectID()
	a.Date = s.tick()
	s.announcements = append(s.announcements, *a)
	return a.ID, nil
}

func (s *memStore) ListTags(context.Context) ([]models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Tag{}, s.tags...), nil
}

func (s *memStore) CreateTag(_ context.Context, t *models.Tag) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = primitive.NewObjectID()
	s.tags = append(s.tags, *t)
	return t.ID, nil
}

func (s *memStore) Stats(context.Context) (models.AdminStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.AdminStats{
		UsersCount:    int64(len(s.users)),
		PostsCount:    int64(len(s.posts)),
		CommentsCount: int64(len(s.comments)),
	}, nil
}

func (s *memStore) SavePushSubscription(_ context.Context, sub *models.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.Sub.Endpoint] = *sub
	return nil
}

// fakePayments serves intents from a map.
type fakePayments struct {
	intents map[string]payments.Intent
	created []int64
}

func (f *fakePayments) CreateIntent(_ context.Context, amount int64) (payments.Intent, error) {
	if amount <= 0 {
		return payments.Intent{}, payments.ErrInvalidAmount
	}
	f.created = append(f.created, amount)
	return payments.Intent{ID: "pi_new", ClientSecret: "pi_new_secret", Amount: amount, Currency: "usd"}, nil
}

func (f *fakePayments) Currency() string { return "usd" }

func (f *fakePayments) GetIntent(_ context.Context, id string) (payments.Intent, error) {
	in, ok := f.intents[id]
	if !ok {
		return payments.Intent{}, payments.ErrIntentNotFound
	}
	return in, nil
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
