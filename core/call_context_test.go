package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ctxKey struct{}

func TestCallContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	state := NewRunState()

	cc := NewCallContext(ctx, "run-1", "call-1", state, nil)
	bound := cc.ForAction("lookup", 42)

	assert.Equal(t, "v", bound.Context().Value(ctxKey{}))
	assert.Equal(t, "run-1", bound.RunID())
	assert.Equal(t, "call-1", bound.FunctionCallID())
	assert.Equal(t, "lookup", bound.Action())
	assert.Equal(t, 42, bound.Receiver())
	assert.NotNil(t, bound.Logger())

	assert.Empty(t, cc.Action())
	assert.Nil(t, cc.Receiver())

	bound.SetState("k", "v")

	v, ok := cc.GetState("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, map[string]any{"k": "v"}, state.Snapshot())
}

func TestNewCallContext_Defaults(t *testing.T) {
	//nolint:staticcheck // nil context is accepted
	cc := NewCallContext(nil, "", "", nil, nil)

	assert.NotNil(t, cc.Context())

	_, ok := cc.GetState("missing")
	assert.False(t, ok)
}

func TestRunState_Concurrent(t *testing.T) {
	s := NewRunState()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set("k", i)
			s.Get("k")
		}()
	}
	wg.Wait()

	assert.Len(t, s.Snapshot(), 1)
}
