package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeFactory(id string) func() *Session {
	return func() *Session {
		return NewSession(SessionParams{
			ID:        id,
			SiteName:  "Example",
			Responder: &scriptedResponder{},
			Executor:  newTestSession(&scriptedResponder{}, &recordedCaps{}).executor,
		})
	}
}

func TestStoreGetOrCreate(t *testing.T) {
	t.Parallel()

	store := NewStore()
	sess, existed := store.GetOrCreate("a", storeFactory("a"))
	require.NotNil(t, sess)
	assert.False(t, existed)

	again, existed := store.GetOrCreate("a", storeFactory("a"))
	assert.True(t, existed)
	assert.Same(t, sess, again)
	assert.Equal(t, 1, store.Count())
}

func TestStoreGetAndRemove(t *testing.T) {
	t.Parallel()

	store := NewStore()
	assert.Nil(t, store.Get("missing"))

	sess, _ := store.GetOrCreate("a", storeFactory("a"))
	assert.Same(t, sess, store.Get("a"))

	store.Remove("a")
	assert.Nil(t, store.Get("a"))
	assert.Zero(t, store.Count())
}

func TestStoreSweep(t *testing.T) {
	t.Parallel()

	store := NewStore()
	stale, _ := store.GetOrCreate("stale", storeFactory("stale"))
	store.GetOrCreate("fresh", storeFactory("fresh"))

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	removed := store.Sweep(30 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Nil(t, store.Get("stale"))
	assert.NotNil(t, store.Get("fresh"))
}
