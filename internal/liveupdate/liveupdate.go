// SPDX-License-Identifier: MPL-2.0

// Package liveupdate carries locale updates from the change handler to its
// listeners (the dev server WebSocket and Go subscribers).
//
// Updates travel over a gocloud.dev pubsub topic. The default in-process
// mem:// driver is linked in; other drivers can be linked by the binary and
// selected through the topic URL.
package liveupdate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub"

	"github.com/dvcol/i18nbundle/pkg/locale"
)

const (
	// DefaultTopicURL is the in-process topic used when none is configured.
	DefaultTopicURL = "mem://i18nbundle-locales"

	// PayloadType and Event form the envelope every update is wrapped in.
	PayloadType = "custom"
	Event       = "locales-update"

	shutdownTimeout = 10 * time.Second
)

// ErrClosed is returned when publishing on a closed channel.
var ErrClosed = errors.New("live-update channel is closed")

type (
	// Payload is the envelope of one update. Data holds the full locale map.
	Payload struct {
		Type  string     `json:"type"`
		Event string     `json:"event"`
		Data  locale.Map `json:"data"`
	}

	// Channel publishes locale maps and fans them out to subscribers.
	Channel struct {
		topicURL        string
		subscriptionURL string
		logger          *slog.Logger

		mu     sync.RWMutex
		topic  *pubsub.Topic
		closed bool
	}

	// Option configures a Channel.
	Option func(*Channel)

	// StopFunc cancels a subscription and waits for its receive loop to end.
	StopFunc func()
)

// NewPayload wraps m in the update envelope.
func NewPayload(m locale.Map) Payload {
	return Payload{Type: PayloadType, Event: Event, Data: m}
}

// DecodePayload decodes an update envelope, keeping numbers as json.Number.
func DecodePayload(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode live-update payload: %w", err)
	}
	if p.Type != PayloadType || p.Event != Event {
		return Payload{}, fmt.Errorf("decode live-update payload: unexpected envelope %q/%q", p.Type, p.Event)
	}
	return p, nil
}

// WithSubscriptionURL sets the URL subscriptions are opened on. Drivers
// such as mem:// use the topic URL for both, which is the default.
func WithSubscriptionURL(u string) Option {
	return func(c *Channel) {
		c.subscriptionURL = u
	}
}

// WithLogger sets the logger used for receive failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// Open opens the topic at topicURL. An empty URL selects DefaultTopicURL.
func Open(ctx context.Context, topicURL string, opts ...Option) (*Channel, error) {
	if topicURL == "" {
		topicURL = DefaultTopicURL
	}
	c := &Channel{topicURL: topicURL, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.subscriptionURL == "" {
		c.subscriptionURL = topicURL
	}

	topic, err := pubsub.OpenTopic(ctx, topicURL)
	if err != nil {
		return nil, fmt.Errorf("open live-update topic %s: %w", topicURL, err)
	}
	c.topic = topic
	return c, nil
}

// URL returns the topic URL.
func (c *Channel) URL() string {
	return c.topicURL
}

// Publish sends m, wrapped in the update envelope, to every subscriber.
func (c *Channel) Publish(ctx context.Context, m locale.Map) error {
	body, err := json.Marshal(NewPayload(m))
	if err != nil {
		return fmt.Errorf("encode live-update payload: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.topic.Send(ctx, &pubsub.Message{Body: body}); err != nil {
		return fmt.Errorf("publish live update: %w", err)
	}
	return nil
}

// SubscribeRaw calls fn with the encoded body of every update published
// after it returns. fn runs on the subscription's receive goroutine.
func (c *Channel) SubscribeRaw(ctx context.Context, fn func(body []byte)) (StopFunc, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	sub, err := pubsub.OpenSubscription(ctx, c.subscriptionURL)
	if err != nil {
		return nil, fmt.Errorf("open live-update subscription %s: %w", c.subscriptionURL, err)
	}

	recvCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			msg, err := sub.Receive(recvCtx)
			if err != nil {
				if recvCtx.Err() == nil {
					c.logger.Warn("live-update subscription stopped", "url", c.subscriptionURL, "error", err)
				}
				return
			}
			msg.Ack()
			fn(msg.Body)
		}
	}()

	// Subscriptions end with the parent context too.
	stopOnParent := context.AfterFunc(ctx, cancel)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			stopOnParent()
			cancel()
			<-done
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			if err := sub.Shutdown(sctx); err != nil {
				c.logger.Debug("live-update subscription shutdown failed", "error", err)
			}
		})
	}
	return stop, nil
}

// Subscribe calls fn with the locale map of every update published after it
// returns. Bodies that do not decode are logged and skipped.
func (c *Channel) Subscribe(ctx context.Context, fn func(locale.Map)) (StopFunc, error) {
	return c.SubscribeRaw(ctx, func(body []byte) {
		p, err := DecodePayload(body)
		if err != nil {
			c.logger.Warn("dropping malformed live update", "error", err)
			return
		}
		fn(p.Data)
	})
}

// Close releases the topic. mem:// topics are shared by URL within the
// process and are left open for other users of the same URL.
func (c *Channel) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if strings.HasPrefix(strings.ToLower(c.topicURL), "mem://") {
		return nil
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := c.topic.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown live-update topic: %w", err)
	}
	return nil
}
