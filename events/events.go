// Package events carries forum domain events from the handlers to the
// live feed, web push and the Redis channel.
package events

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Type string

const (
	PostCreated         Type = "post.created"
	PostVoted           Type = "post.voted"
	PostDeleted         Type = "post.deleted"
	UserCreated         Type = "user.created"
	UserUpdated         Type = "user.updated"
	UserPremium         Type = "user.premium"
	CommentCreated      Type = "comment.created"
	CommentDeleted      Type = "comment.deleted"
	ReportCreated       Type = "report.created"
	ReportRemoved       Type = "report.removed"
	AnnouncementCreated Type = "announcement.created"
	TagCreated          Type = "tag.created"
)

// Matches reports whether t belongs to channel. A channel is either a full
// event type or its leading segment ("post" matches "post.voted").
func (t Type) Matches(channel string) bool {
	if channel == "" {
		return true
	}
	return string(t) == channel || strings.HasPrefix(string(t), channel+".")
}

type Event struct {
	Type    Type
	Payload any
	At      time.Time
}

func New(t Type, payload any) Event {
	return Event{Type: t, Payload: payload, At: time.Now().UTC()}
}

// Message is the JSON form of an event on the wire.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Time    int64  `json:"time"`
}

func (e Event) Message() Message {
	return Message{Type: string(e.Type), Payload: e.Payload, Time: e.At.Unix()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Multi delivers to every publisher, even when an earlier one fails.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
