package lock

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementKey(t *testing.T) {
	assert.Equal(t, "lot:1234:settlement", SettlementKey(snowflake.ID(1234)))
}

func TestNewWithoutClientIsNoop(t *testing.T) {
	locker := New(nil)
	_, ok := locker.(Noop)
	require.True(t, ok)

	token, acquired, err := locker.TryLock(context.Background(), SettlementKey(1), time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.Empty(t, token)
	assert.NoError(t, locker.Release(context.Background(), SettlementKey(1), token))
}

func TestNoopValidatesArguments(t *testing.T) {
	_, _, err := Noop{}.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrLockKeyEmpty)

	_, _, err = Noop{}.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrLockTTLInvalid)
}
