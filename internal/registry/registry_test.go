package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wordduel/wordduel-backend/internal/lobby"
	"github.com/wordduel/wordduel-backend/internal/words"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, lobby.Options{TickInterval: time.Hour}, zaptest.NewLogger(t))
}

func testQueue() words.Queue {
	return words.NewQueue([]words.Pair{{Question: "hello", Answer: "hallo"}})
}

func TestRegistry_CreateLookup_SamePointer(t *testing.T) {
	r := newTestRegistry(t)

	code, lb, err := r.Create(testQueue(), 60)
	require.NoError(t, err)
	require.NotNil(t, lb)

	assert.Len(t, code, codeLength)
	for _, c := range code {
		assert.Contains(t, codeCharset, string(c))
	}

	require.Same(t, lb, r.Lookup(code))
}

func TestRegistry_Lookup_UnknownCode(t *testing.T) {
	r := newTestRegistry(t)
	assert.Nil(t, r.Lookup("NOSUCH"))
}

func TestRegistry_CodesAreUnique(t *testing.T) {
	r := newTestRegistry(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, _, err := r.Create(testQueue(), 60)
		require.NoError(t, err)
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestRegistry_ImmediateRemoval(t *testing.T) {
	r := newTestRegistry(t)

	code, lb, err := r.Create(testQueue(), 60)
	require.NoError(t, err)

	r.ScheduleRemoval(code, 0)

	require.Eventually(t, func() bool {
		return r.Lookup(code) == nil
	}, time.Second, 5*time.Millisecond)

	// The stale pointer is harmless: the closed lobby rejects joins.
	_, err = lb.Join("anna", nil)
	assert.ErrorIs(t, err, lobby.ErrLobbyNotFound)

	// Removing again is a no-op.
	r.ScheduleRemoval(code, 0)
	assert.Nil(t, r.Lookup(code))
}

func TestRegistry_DeferredRemoval(t *testing.T) {
	r := newTestRegistry(t)

	code, _, err := r.Create(testQueue(), 60)
	require.NoError(t, err)

	r.ScheduleRemoval(code, 20*time.Millisecond)
	require.NotNil(t, r.Lookup(code))

	require.Eventually(t, func() bool {
		return r.Lookup(code) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestRegistry_ShutdownClosesLobbies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := New(ctx, lobby.Options{TickInterval: time.Hour}, zaptest.NewLogger(t))

	_, lb, err := r.Create(testQueue(), 60)
	require.NoError(t, err)

	r.Shutdown()

	require.Eventually(t, func() bool {
		_, err := lb.Join("anna", nil)
		return err != nil
	}, time.Second, 5*time.Millisecond)
}
