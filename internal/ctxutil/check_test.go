package ctxutil_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codingwatching/companion/internal/ctxutil"
)

func TestCanceled(t *testing.T) {
	t.Parallel()

	t.Run("active context passes", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, ctxutil.Canceled(context.Background()))
	})

	t.Run("canceled context reports context.Canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, ctxutil.Canceled(ctx), context.Canceled)
	})

	t.Run("expired deadline reports context.DeadlineExceeded", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()
		<-ctx.Done()

		require.ErrorIs(t, ctxutil.Canceled(ctx), context.DeadlineExceeded)
	})
}
