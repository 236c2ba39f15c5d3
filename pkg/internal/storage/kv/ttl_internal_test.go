package kv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	raw, err := wrap([]byte("plain"), 0, now)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(raw))

	raw, err = wrap([]byte("hello"), time.Minute, now)
	require.NoError(t, err)
	assert.NotEqual(t, "hello", string(raw))

	v, alive, err := unwrap(raw, now.Add(59*time.Second))
	require.NoError(t, err)
	assert.True(t, alive)
	assert.Equal(t, "hello", string(v))

	_, alive, err = unwrap(raw, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, alive)

	_, _, err = unwrap(append([]byte("SSBTTL1:"), '{'), now)
	require.Error(t, err)
}

func TestMemoryClock(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := &MemoryKV{data: map[string]memoryEntry{}, now: func() time.Time { return now }}

	require.NoError(t, m.Set(t.Context(), "k", []byte("v"), time.Minute))

	ok, _ := m.Exists(t.Context(), "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)

	ok, _ = m.Exists(t.Context(), "k")
	assert.False(t, ok)
	assert.Empty(t, m.data)
}

func TestNATSKeyEncoding(t *testing.T) {
	for _, key := range []string{"plain.key", "ssb:keywords:names", "resp:abc123", ".leading", "_b64.looks-encoded", "with space"} {
		enc := encodeNATSKey(key)
		assert.Regexp(t, natsKeyPattern, enc)
		assert.Equal(t, key, decodeNATSKey(enc), key)
	}

	assert.Equal(t, "plain.key", encodeNATSKey("plain.key"))
}
