package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient("not a url")
	assert.Error(t, err)
}

// Runs against a real server when REDIS_TEST_URL is set.
func TestClient_LastSeen(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	c, err := NewClient(url)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	user := "test-" + uuid.NewString()
	t.Cleanup(func() { c.rdb.HDel(context.Background(), lastSeenKey, user) })

	_, ok, err := c.LastSeen(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, c.RecordLastSeen(ctx, user, at))

	got, ok, err := c.LastSeen(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}
