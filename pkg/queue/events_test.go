package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
)

func TestEventsNilSafe(t *testing.T) {
	var e *queue.Events

	assert.NotPanics(t, func() {
		ctx := context.Background()
		e.MediaCreated(ctx, queue.MediaCreatedPayload{})
		e.MediaDeleted(ctx, queue.MediaDeletedPayload{})
		e.PostCreated(ctx, queue.PostCreatedPayload{})
		e.PostLiked(ctx, queue.PostLikedPayload{})
		e.PostCommented(ctx, queue.PostCommentedPayload{})
	})
	assert.False(t, e.MediaCleanupRequested(context.Background(), queue.MediaCleanupRequestedPayload{}))

	assert.False(t, queue.NewEvents(nil, configs.EventsConfig{Enabled: true}).
		MediaCleanupRequested(context.Background(), queue.MediaCleanupRequestedPayload{}))
}

func TestEventsPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, watermill.NopLogger{})
	defer ps.Close()

	cleanup, err := ps.Subscribe(ctx, queue.TopicMediaCleanupRequested)
	require.NoError(t, err)

	liked, err := ps.Subscribe(ctx, queue.TopicPostLiked)
	require.NoError(t, err)

	e := queue.NewEvents(ps, configs.EventsConfig{
		Enabled: true,
		Media:   configs.MediaEventsConfig{CleanupRequested: true},
	})

	ok := e.MediaCleanupRequested(queue.ContextWithTraceID(ctx, "req-1"), queue.MediaCleanupRequestedPayload{
		Media:    queue.MediaRef{ID: 42, StorageProvider: "AzureBlob"},
		Attempts: 2,
	})
	require.True(t, ok)

	select {
	case msg := <-cleanup:
		msg.Ack()

		env, err := queue.ParseMediaCleanupRequested(msg)
		require.NoError(t, err)
		assert.Equal(t, uint(42), env.Payload.Media.ID)
		assert.Equal(t, 2, env.Payload.Attempts)
		assert.Equal(t, "req-1", env.Header.TraceID)
		assert.Equal(t, queue.DefaultProducer, env.Header.Producer)
		assert.Equal(t, env.Header.ID, msg.UUID)
	case <-ctx.Done():
		t.Fatal("cleanup request not delivered")
	}

	// post.liked 开关关闭，不应投递
	e.PostLiked(ctx, queue.PostLikedPayload{UserID: "bob"})

	select {
	case msg := <-liked:
		msg.Ack()
		t.Fatalf("unexpected post.liked message %s", msg.UUID)
	case <-time.After(100 * time.Millisecond):
	}
}
