// Package notify fans wishlist events out to the owner's open dashboards
// and their registered push subscriptions.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/santaswishlist/internal/model"
	"github.com/dukerupert/santaswishlist/internal/push"
	"github.com/dukerupert/santaswishlist/internal/websocket"
)

const pushTimeout = 15 * time.Second

type Publisher interface {
	Publish(userID string, msg websocket.Message)
}

type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload push.Payload) error
}

type Subscriptions interface {
	ListByUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// Dispatcher implements service.Notifier. Either channel may be nil.
type Dispatcher struct {
	hub    Publisher
	sender Sender
	subs   Subscriptions
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(hub Publisher, sender Sender, subs Subscriptions, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		hub:    hub,
		sender: sender,
		subs:   subs,
		logger: logger.With("component", "notify"),
	}
}

func (d *Dispatcher) WishlistCreated(ctx context.Context, w *model.Wishlist) {
	d.publish(w.UserID, websocket.NewMessage("wishlist", "created", w.ID, nil))
}

func (d *Dispatcher) WishlistDeleted(ctx context.Context, ownerID, wishlistID string) {
	d.publish(ownerID, websocket.NewMessage("wishlist", "deleted", wishlistID, nil))
}

// ResponseCreated updates the owner's dashboards and pushes a notice to
// each of their devices.
func (d *Dispatcher) ResponseCreated(ctx context.Context, w *model.Wishlist, r *model.Response) {
	d.publish(w.UserID, websocket.NewMessage("response", "created", r.ID, map[string]any{
		"wishlist_id":     w.ID,
		"responses_count": w.ResponsesCount + 1,
	}))

	if d.sender == nil || d.subs == nil {
		return
	}

	payload := push.Payload{
		Title: "A letter from Santa's helper",
		Body:  fmt.Sprintf("%s replied to the %s family wishlist", r.ChildName, w.FamilyName),
		URL:   "/dashboard",
		Tag:   "response-" + w.ID,
	}

	// detach so the push outlives the request that triggered it
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		d.pushToUser(pushCtx, w.UserID, payload)
	}()
}

// Wait blocks until in-flight pushes finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) publish(userID string, msg websocket.Message) {
	if d.hub == nil {
		return
	}
	d.hub.Publish(userID, msg)
}

func (d *Dispatcher) pushToUser(ctx context.Context, userID string, payload push.Payload) {
	subs, err := d.subs.ListByUser(ctx, userID)
	if err != nil {
		d.logger.Error("list push subscriptions", "user_id", userID, "error", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		err := d.sender.Send(ctx, sub, payload)
		switch {
		case err == nil:
		case errors.Is(err, push.ErrExpired):
			d.logger.Info("removing expired push subscription", "subscription_id", sub.ID)
			if err := d.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				d.logger.Error("delete expired subscription", "error", err)
			}
		default:
			d.logger.Warn("push send failed", "subscription_id", sub.ID, "error", err)
		}
	}
}
