package tasktrack_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktrack/tasktrack"
)

func TestIdentityContext(t *testing.T) {
	t.Run("round trips an identity", func(t *testing.T) {
		identity := testIdentity{id: "u1", email: "alice@example.com", role: tasktrack.RoleUser}

		ctx := tasktrack.WithIdentityContext(context.Background(), identity)

		resolved, ok := tasktrack.IdentityFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "alice@example.com", resolved.Email())
	})

	t.Run("empty context has no identity", func(t *testing.T) {
		_, ok := tasktrack.IdentityFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("clearing removes an installed identity", func(t *testing.T) {
		identity := testIdentity{id: "u1", email: "alice@example.com", role: tasktrack.RoleUser}
		ctx := tasktrack.WithIdentityContext(context.Background(), identity)

		cleared := tasktrack.ClearIdentityContext(ctx)

		_, ok := tasktrack.IdentityFromContext(cleared)
		assert.False(t, ok)
	})

	t.Run("clearing a bare context is a no-op", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, ctx, tasktrack.ClearIdentityContext(ctx))
	})

	t.Run("concurrent requests never share identity", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()

				identity := testIdentity{id: string(rune('a' + n%26)), email: "user@example.com"}
				ctx := tasktrack.WithIdentityContext(context.Background(), identity)

				resolved, ok := tasktrack.IdentityFromContext(ctx)
				if !ok || resolved.ID() != identity.ID() {
					t.Errorf("identity leaked across goroutines: got %v", resolved)
				}
			}(i)
		}
		wg.Wait()
	})
}
