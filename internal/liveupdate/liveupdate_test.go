// SPDX-License-Identifier: MPL-2.0

package liveupdate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvcol/i18nbundle/pkg/locale"
)

// topicURL returns a mem:// topic unique to the test, since mem topics are
// shared process-wide by URL.
func topicURL(t *testing.T) string {
	t.Helper()
	return "mem://liveupdate-" + strings.NewReplacer("/", "-", " ", "_").Replace(t.Name())
}

func openChannel(t *testing.T) *Channel {
	t.Helper()
	ch, err := Open(context.Background(), topicURL(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close(context.Background()) })
	return ch
}

func receive[T any](t *testing.T, c <-chan T) T {
	t.Helper()
	select {
	case v := <-c:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for live update")
		var zero T
		return zero
	}
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	t.Parallel()

	ch := openChannel(t)
	ctx := context.Background()

	first := make(chan locale.Map, 1)
	second := make(chan locale.Map, 1)

	stop1, err := ch.Subscribe(ctx, func(m locale.Map) { first <- m })
	require.NoError(t, err)
	defer stop1()
	stop2, err := ch.Subscribe(ctx, func(m locale.Map) { second <- m })
	require.NoError(t, err)
	defer stop2()

	m := locale.Map{"en": {"home": map[string]any{"title": "Home", "n": json.Number("7")}}}
	require.NoError(t, ch.Publish(ctx, m))

	assert.Equal(t, m, receive(t, first))
	assert.Equal(t, m, receive(t, second))
}

func TestSubscribeRawCarriesEnvelope(t *testing.T) {
	t.Parallel()

	ch := openChannel(t)
	ctx := context.Background()

	bodies := make(chan []byte, 1)
	stop, err := ch.SubscribeRaw(ctx, func(b []byte) { bodies <- b })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, ch.Publish(ctx, locale.Map{"fr": {"a": "b"}}))

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(receive(t, bodies), &envelope))
	assert.Equal(t, "custom", envelope["type"])
	assert.Equal(t, "locales-update", envelope["event"])
	assert.Equal(t, map[string]any{"fr": map[string]any{"a": "b"}}, envelope["data"])
}

func TestStopEndsDelivery(t *testing.T) {
	t.Parallel()

	ch := openChannel(t)
	ctx := context.Background()

	got := make(chan locale.Map, 4)
	stop, err := ch.Subscribe(ctx, func(m locale.Map) { got <- m })
	require.NoError(t, err)

	require.NoError(t, ch.Publish(ctx, locale.Map{"en": {"v": "1"}}))
	receive(t, got)

	stop()
	stop() // idempotent

	require.NoError(t, ch.Publish(ctx, locale.Map{"en": {"v": "2"}}))
	select {
	case m := <-got:
		t.Fatalf("received update after stop: %v", m)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	t.Parallel()

	ch := openChannel(t)
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan locale.Map, 1)
	stop, err := ch.Subscribe(ctx, func(m locale.Map) { got <- m })
	require.NoError(t, err)
	defer stop()

	cancel()
	// Give the receive loop a moment to observe the cancellation.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, ch.Publish(context.Background(), locale.Map{"en": {}}))
	select {
	case m := <-got:
		t.Fatalf("received update after context cancellation: %v", m)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClosedChannel(t *testing.T) {
	t.Parallel()

	ch, err := Open(context.Background(), topicURL(t))
	require.NoError(t, err)
	require.NoError(t, ch.Close(context.Background()))
	require.NoError(t, ch.Close(context.Background()))

	require.ErrorIs(t, ch.Publish(context.Background(), locale.Map{}), ErrClosed)
	_, err = ch.Subscribe(context.Background(), func(locale.Map) {})
	require.ErrorIs(t, err, ErrClosed)
}

func TestMemTopicSurvivesClose(t *testing.T) {
	t.Parallel()

	url := topicURL(t)
	first, err := Open(context.Background(), url)
	require.NoError(t, err)
	require.NoError(t, first.Close(context.Background()))

	second, err := Open(context.Background(), url)
	require.NoError(t, err)
	defer func() { _ = second.Close(context.Background()) }()

	got := make(chan locale.Map, 1)
	stop, err := second.Subscribe(context.Background(), func(m locale.Map) { got <- m })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, second.Publish(context.Background(), locale.Map{"de": {"x": "y"}}))
	assert.Equal(t, locale.Map{"de": {"x": "y"}}, receive(t, got))
}

func TestOpenDefaultsURL(t *testing.T) {
	t.Parallel()

	ch, err := Open(context.Background(), "")
	require.NoError(t, err)
	defer func() { _ = ch.Close(context.Background()) }()
	assert.Equal(t, DefaultTopicURL, ch.URL())
}

func TestOpenUnknownScheme(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "nope://topic")
	require.Error(t, err)
}

func TestDecodePayload(t *testing.T) {
	t.Parallel()

	p, err := DecodePayload([]byte(`{"type":"custom","event":"locales-update","data":{"en":{"n":1.50}}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("1.50"), p.Data["en"]["n"])

	_, err = DecodePayload([]byte(`{"type":"full-reload"}`))
	require.Error(t, err)

	_, err = DecodePayload([]byte(`not json`))
	require.Error(t, err)
}
