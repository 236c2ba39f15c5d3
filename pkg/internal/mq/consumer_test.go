package mq_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/internal/mq"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
)

type fakeCleaner struct {
	calls chan uint
	err   error
}

func (f *fakeCleaner) CleanupMedia(_ context.Context, id uint) (bool, error) {
	f.calls <- id
	return f.err == nil, f.err
}

func startConsumer(t *testing.T, cleaner mq.MediaCleaner) *gochannel.GoChannel {
	t.Helper()

	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})

	c, err := mq.NewConsumer(ps, cleaner)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	go func() { _ = c.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		_ = c.Close()
		_ = ps.Close()
	})

	select {
	case <-c.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not start")
	}

	return ps
}

func TestConsumerRetriesCleanup(t *testing.T) {
	for name, cleanErr := range map[string]error{
		"success": nil,
		"failure": errors.New("storage offline"),
	} {
		t.Run(name, func(t *testing.T) {
			cleaner := &fakeCleaner{calls: make(chan uint, 4), err: cleanErr}
			ps := startConsumer(t, cleaner)

			require.NoError(t, queue.Publish(ps, queue.TopicMediaCleanupRequested, queue.MediaCleanupRequestedPayload{
				Media:    queue.MediaRef{ID: 7},
				Attempts: 1,
			}))

			select {
			case id := <-cleaner.calls:
				assert.Equal(t, uint(7), id)
			case <-time.After(5 * time.Second):
				t.Fatal("cleanup not invoked")
			}

			// 失败不会触发重投
			select {
			case id := <-cleaner.calls:
				t.Fatalf("unexpected redelivery for media %d", id)
			case <-time.After(200 * time.Millisecond):
			}
		})
	}
}

func TestConsumerDropsMalformedMessages(t *testing.T) {
	cleaner := &fakeCleaner{calls: make(chan uint, 1)}
	ps := startConsumer(t, cleaner)

	require.NoError(t, ps.Publish(queue.TopicMediaCleanupRequested, message.NewMessage(watermill.NewUUID(), []byte("{not json"))))

	select {
	case id := <-cleaner.calls:
		t.Fatalf("cleanup invoked for malformed message: %d", id)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewConsumerRequiresSubscriber(t *testing.T) {
	_, err := mq.NewConsumer(nil, &fakeCleaner{})
	assert.Error(t, err)
}
