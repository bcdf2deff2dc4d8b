// ABOUTME: Tests for session store context propagation
// ABOUTME: The fail-fast accessor guards against startup wiring defects

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/authbridge/internal/config"
)

func TestWithStore_RoundTrip(t *testing.T) {
	s := NewStore(&config.Config{}, newFakeBackend(), nil)
	defer s.Close()

	ctx := WithStore(context.Background(), s)

	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.Same(t, s, got)
}

func TestFromContext_AbsentReturnsNil(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}

func TestMustFromContext_PanicsOutsideScope(t *testing.T) {
	assert.Panics(t, func() {
		MustFromContext(context.Background())
	})
}
