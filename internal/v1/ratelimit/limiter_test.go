package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageLimiter_InvalidFormat(t *testing.T) {
	_, err := NewMessageLimiter("lots")
	assert.Error(t, err)

	_, err = NewMessageLimiter("")
	assert.Error(t, err)
}

func TestAllowChat_EnforcesRate(t *testing.T) {
	l, err := NewMessageLimiter("3-M")
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		assert.True(t, l.AllowChat(ctx, "client-a"), "message %d should pass", i+1)
	}
	assert.False(t, l.AllowChat(ctx, "client-a"))
}

func TestAllowChat_KeysAreIndependent(t *testing.T) {
	l, err := NewMessageLimiter("1-M")
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, l.AllowChat(ctx, "client-a"))
	assert.False(t, l.AllowChat(ctx, "client-a"))

	// A different client still has budget.
	assert.True(t, l.AllowChat(ctx, "client-b"))
}
