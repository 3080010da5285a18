package presenter

import (
	"context"
	"testing"
	"time"

	"brand-builder/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receive(t *testing.T, sub Subscription) Message {
	t.Helper()
	select {
	case msg, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func testChannel(t *testing.T, ch Channel) {
	ctx := context.Background()
	a, err := ch.Subscribe(ctx, "room")
	require.NoError(t, err)
	b, err := ch.Subscribe(ctx, "room")
	require.NoError(t, err)
	other, err := ch.Subscribe(ctx, "elsewhere")
	require.NoError(t, err)

	msg, err := NewMessage(SlideChange, SlidePayload{Index: 4})
	require.NoError(t, err)
	require.NoError(t, ch.Publish(ctx, "room", msg))

	for _, sub := range []Subscription{a, b} {
		got := receive(t, sub)
		assert.Equal(t, SlideChange, got.Type)
		assert.JSONEq(t, `{"index":4}`, string(got.Payload))
	}
	select {
	case m := <-other.C():
		t.Fatalf("unexpected message on other session: %+v", m)
	default:
	}

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	_, ok := <-a.C()
	assert.False(t, ok, "closed subscription channel is closed")

	require.NoError(t, b.Close())
	require.NoError(t, other.Close())
}

func TestHub(t *testing.T) {
	hub := NewHub()
	testChannel(t, hub)
	assert.Equal(t, 0, hub.Subscribers("room"))
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()
	sub, err := hub.Subscribe(ctx, "room")
	require.NoError(t, err)
	defer sub.Close()

	msg, _ := NewMessage(Pause, nil)
	for range subscriptionBuffer * 2 {
		require.NoError(t, hub.Publish(ctx, "room", msg))
	}
	assert.Len(t, sub.C(), subscriptionBuffer)
}

func TestRedisChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	testChannel(t, NewRedisChannel(client, zap.NewNop()))
}

func TestRedisChannel_DropsMalformed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	ch := NewRedisChannel(client, zap.NewNop())
	sub, err := ch.Subscribe(ctx, "room")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, client.Publish(ctx, channelName("room"), "not json").Err())
	msg, _ := NewMessage(Resume, nil)
	require.NoError(t, ch.Publish(ctx, "room", msg))

	assert.Equal(t, Resume, receive(t, sub).Type)
}

func testHandoff(t *testing.T, ho Handoff) {
	ctx := context.Background()
	deck := domain.NewDocument(domain.DocumentPresentation)

	token, err := ho.Put(ctx, Snapshot{Session: "s", Presentation: deck, StartIndex: 0}, time.Minute)
	require.NoError(t, err)

	snap, err := ho.Take(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "s", snap.Session)
	assert.Equal(t, deck.ID, snap.Presentation.ID)
	assert.Equal(t, deck.Pages[0].Blocks[0].Content, snap.Presentation.Pages[0].Blocks[0].Content)

	_, err = ho.Take(ctx, token)
	assert.ErrorIs(t, err, ErrHandoffNotFound)
	_, err = ho.Take(ctx, "unknown")
	assert.ErrorIs(t, err, ErrHandoffNotFound)
}

func TestMemoryHandoff(t *testing.T) {
	testHandoff(t, NewMemoryHandoff())
}

func TestMemoryHandoff_Expires(t *testing.T) {
	ho := NewMemoryHandoff()
	now := time.Now()
	ho.now = func() time.Time { return now }
	ctx := context.Background()

	token, err := ho.Put(ctx, Snapshot{}, time.Minute)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)

	_, err = ho.Take(ctx, token)
	assert.ErrorIs(t, err, ErrHandoffNotFound)
}

func TestRedisHandoff(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ho := NewRedisHandoff(client)
	testHandoff(t, ho)

	token, err := ho.Put(context.Background(), Snapshot{}, time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = ho.Take(context.Background(), token)
	assert.ErrorIs(t, err, ErrHandoffNotFound)
}

func TestMessage_Validate(t *testing.T) {
	ok, _ := NewMessage(SlideChange, SlidePayload{Index: 2})
	assert.NoError(t, ok.Validate())

	assert.Error(t, Message{Type: "JUMP"}.Validate())
	assert.Error(t, Message{Type: SlideChange}.Validate(), "slide change needs a payload")
	assert.Error(t, Message{Type: SlideChange, Payload: []byte(`{"index":-1}`)}.Validate())
	assert.NoError(t, Message{Type: Close}.Validate())
}
