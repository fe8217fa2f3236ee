package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sendcore/pkg/domain"
	"sendcore/pkg/platform/sentinel"
)

func TestInMemoryLock(t *testing.T) {
	ctx := context.Background()
	tenantID := id.NewTenantID()

	t.Run("second acquire is rejected while held", func(t *testing.T) {
		l := NewInMemory()
		release, err := l.Acquire(ctx, tenantID, time.Minute)
		require.NoError(t, err)

		_, err = l.Acquire(ctx, tenantID, time.Minute)
		assert.ErrorIs(t, err, sentinel.ErrLocked)

		release()
		release2, err := l.Acquire(ctx, tenantID, time.Minute)
		require.NoError(t, err)
		release2()
	})

	t.Run("release is idempotent", func(t *testing.T) {
		l := NewInMemory()
		release, err := l.Acquire(ctx, tenantID, time.Minute)
		require.NoError(t, err)
		release()
		release()

		release2, err := l.Acquire(ctx, tenantID, time.Minute)
		require.NoError(t, err)
		release2()
	})

	t.Run("different tenants do not contend", func(t *testing.T) {
		l := NewInMemory()
		releaseA, err := l.Acquire(ctx, tenantID, time.Minute)
		require.NoError(t, err)
		defer releaseA()

		releaseB, err := l.Acquire(ctx, id.NewTenantID(), time.Minute)
		require.NoError(t, err)
		releaseB()
	})

	t.Run("expired lock can be reacquired", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		l := NewInMemory().WithClock(func() time.Time { return now })

		_, err := l.Acquire(ctx, tenantID, time.Minute)
		require.NoError(t, err)

		// The first holder crashed without releasing; its TTL lapses.
		now = now.Add(2 * time.Minute)
		release, err := l.Acquire(ctx, tenantID, time.Minute)
		require.NoError(t, err)
		release()
	})
}
