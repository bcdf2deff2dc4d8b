// ABOUTME: Tests for principal context propagation
// ABOUTME: Covers round-tripping, absence, and the fail-fast accessor

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/authbridge/internal/identity"
)

func TestWithPrincipal_RoundTrip(t *testing.T) {
	p := &identity.Principal{ID: "user-1", Email: "a@example.com"}
	ctx := WithPrincipal(context.Background(), p)

	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.ID)
}

func TestFromContext_AbsentReturnsNil(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}

func TestMustFromContext_PanicsWhenUnwired(t *testing.T) {
	assert.Panics(t, func() {
		MustFromContext(context.Background())
	})
}

func TestMustFromContext_ReturnsPrincipal(t *testing.T) {
	p := &identity.Principal{ID: "user-1"}
	ctx := WithPrincipal(context.Background(), p)

	assert.NotPanics(t, func() {
		got := MustFromContext(ctx)
		assert.Equal(t, p, got)
	})
}
