package mq_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/mq"
)

func newGoChannel(t *testing.T) *mq.Client {
	t.Helper()

	c, err := mq.NewWithConfig(context.Background(), &configs.MQConfig{Type: configs.MQTypeGoChannel, BufferSize: 8}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestRegisteredTypes(t *testing.T) {
	assert.Equal(t,
		[]configs.MQType{configs.MQTypeGoChannel, configs.MQTypeNATS, configs.MQTypeRedis},
		mq.GetRegisteredMQTypes())
}

func TestUnsupportedType(t *testing.T) {
	_, err := mq.NewWithConfig(context.Background(), &configs.MQConfig{Type: "kafka"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka")
}

func TestGoChannelRoundTrip(t *testing.T) {
	c := newGoChannel(t)
	assert.Equal(t, configs.MQTypeGoChannel, c.Type())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.Subscribe(ctx, "media.deleted")
	require.NoError(t, err)

	sent := message.NewMessage(watermill.NewUUID(), []byte(`{"id":"42"}`))
	sent.Metadata.Set("trace_id", "abc")
	require.NoError(t, c.Publish("media.deleted", sent))

	select {
	case got := <-ch:
		assert.Equal(t, sent.UUID, got.UUID)
		assert.Equal(t, "abc", got.Metadata.Get("trace_id"))
		assert.JSONEq(t, `{"id":"42"}`, string(got.Payload))
		got.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestNilClient(t *testing.T) {
	var c *mq.Client

	require.ErrorIs(t, c.Publish("x"), mq.ErrNotInitialized)

	_, err := c.Subscribe(context.Background(), "x")
	require.ErrorIs(t, err, mq.ErrNotInitialized)

	assert.Nil(t, c.Publisher())
	assert.Nil(t, c.Subscriber())
	assert.NoError(t, c.Close())
}
