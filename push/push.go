// Package push delivers web push notifications for new announcements.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"talkthreads/events"
	"talkthreads/models"
)

type Store interface {
	ListPushSubscriptions(ctx context.Context) ([]models.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, endpoint string) error
}

type sendFunc func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Notifier turns announcement events into web push notifications. Sending
// happens on the Run goroutine so publishing never waits on push services.
type Notifier struct {
	store     Store
	publicKey string
	opts      webpush.Options
	queue     chan events.Event
	send      sendFunc
}

func NewNotifier(store Store, publicKey, privateKey, subscriber string) *Notifier {
	return &Notifier{
		store:     store,
		publicKey: publicKey,
		opts: webpush.Options{
			Subscriber:      subscriber,
			VAPIDPublicKey:  publicKey,
			VAPIDPrivateKey: privateKey,
			TTL:             30,
		},
		queue: make(chan events.Event, 32),
		send:  webpush.SendNotificationWithContext,
	}
}

func (n *Notifier) PublicKey() string { return n.publicKey }

// Publish queues announcement events and ignores everything else. A full
// queue drops the event.
func (n *Notifier) Publish(_ context.Context, e events.Event) error {
	if e.Type != events.AnnouncementCreated {
		return nil
	}
	select {
	case n.queue <- e:
		return nil
	default:
		return fmt.Errorf("push queue full, dropping %s", e.Type)
	}
}

func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-n.queue:
			title, body := announcementText(e.Payload)
			sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := n.Notify(sendCtx, title, body); err != nil {
				log.Printf("[Push] notify %q: %v", title, err)
			}
			cancel()
		}
	}
}

type notification struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data"`
}

// Notify sends one notification to every stored subscription and returns
// how many were delivered. Subscriptions the push service reports as gone
// are deleted.
func (n *Notifier) Notify(ctx context.Context, title, body string) (int, error) {
	subs, err := n.store.ListPushSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	payload, err := json.Marshal(notification{
		Title: title,
		Body:  truncate(body, 100),
		Data: map[string]interface{}{
			"url":       "/announcements",
			"timestamp": time.Now().Unix(),
		},
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range subs {
		sub := &subs[i].Sub
		resp, err := n.send(ctx, payload, sub, &n.opts)
		if err != nil {
			log.Printf("[Push] send to %s: %v", sub.Endpoint, err)
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
			log.Printf("[Push] subscription expired, deleting %s", sub.Endpoint)
			if err := n.store.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
				log.Printf("[Push] delete %s: %v", sub.Endpoint, err)
			}
		case resp.StatusCode >= 300:
			log.Printf("[Push] %s answered %d", sub.Endpoint, resp.StatusCode)
		default:
			sent++
		}
	}
	return sent, nil
}

// announcementText pulls title and description out of an event payload,
// which is either a models.Announcement or its JSON.
func announcementText(payload interface{}) (string, string) {
	var a struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	switch p := payload.(type) {
	case models.Announcement:
		return p.Title, p.Description
	case *models.Announcement:
		return p.Title, p.Description
	case json.RawMessage:
		_ = json.Unmarshal(p, &a)
	default:
		if data, err := json.Marshal(p); err == nil {
			_ = json.Unmarshal(data, &a)
		}
	}
	if a.Title == "" {
		a.Title = "New announcement"
	}
	return a.Title, a.Description
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
